package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"sewconnect-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoRows = errors.New("no rows in result set")

type fakeOrderStore struct {
	mu     sync.Mutex
	seq    int
	orders map[string]*model.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*model.Order)}
}

func (f *fakeOrderStore) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	stored := *order
	stored.ID = fmt.Sprintf("order-%d", f.seq)
	f.orders[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeOrderStore) GetByID(ctx context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, errNoRows
	}
	out := *order
	return &out, nil
}

func (f *fakeOrderStore) ListBySeamstress(ctx context.Context, seamstressID string, status string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Order
	for _, o := range f.orders {
		if o.SeamstressID != seamstressID {
			continue
		}
		if status != "" && status != "all" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) UpdateStatus(ctx context.Context, id, seamstressID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.SeamstressID != seamstressID {
		return errors.New("order not found or not owned")
	}
	order.Status = status
	return nil
}

func testConversation() *model.Conversation {
	return &model.Conversation{
		ID:           "conv-1",
		CustomerID:   "cust-1",
		SeamstressID: "seam-1",
		Messages: []model.Message{
			{Text: "Hello! I'm Maria. How can I help you today?", Sender: model.SenderCounterparty, Type: model.MessageText},
			{Text: "I'd like a dress", Sender: model.SenderUser, Type: model.MessageText},
			{Text: "bust: 34\nwaist: 28", Sender: model.SenderUser, Type: model.MessageMeasurements},
			{Text: "data:image/png;base64,aaaa", Sender: model.SenderUser, Type: model.MessageImage},
			{Text: "bust: 36\nwaist: 29", Sender: model.SenderUser, Type: model.MessageMeasurements},
			{Text: "data:image/png;base64,bbbb", Sender: model.SenderUser, Type: model.MessageImage},
		},
	}
}

func TestOrderSubmit_LatestMeasurementsAndImageWin(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore())

	order, err := svc.Submit(context.Background(), testConversation(), "Ada")
	require.NoError(t, err)

	assert.Equal(t, "bust: 36\nwaist: 29", order.Measurements)
	assert.Equal(t, "bust: 36\nwaist: 29", order.Snapshot.Measurements)
	assert.Equal(t, "data:image/png;base64,bbbb", order.Snapshot.InspirationImage)
}

func TestOrderSubmit_FreezesSnapshot(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore())
	conv := testConversation()

	order, err := svc.Submit(context.Background(), conv, "Ada")
	require.NoError(t, err)
	require.Len(t, order.Snapshot.Messages, 6)

	// Later edits to the live conversation must not reach the snapshot.
	conv.Messages[1].Text = "changed my mind"
	conv.Messages = append(conv.Messages, model.Message{Text: "extra", Sender: model.SenderUser, Type: model.MessageText})

	assert.Equal(t, "I'd like a dress", order.Snapshot.Messages[1].Text)
	assert.Len(t, order.Snapshot.Messages, 6)
}

func TestOrderSubmit_Defaults(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore())

	order, err := svc.Submit(context.Background(), testConversation(), "Ada")
	require.NoError(t, err)

	assert.Equal(t, model.OrderQueued, order.Status)
	assert.Equal(t, "Ada", order.CustomerName)
	assert.Equal(t, "cust-1", order.CustomerID)
	assert.Equal(t, "seam-1", order.SeamstressID)
	assert.Len(t, order.OrderRef, 26)
	assert.Equal(t, placeholderPrice, order.Snapshot.Price)
	assert.Equal(t, placeholderTimeframe, order.Snapshot.Timeframe)
}

func TestOrderSubmit_DistinctRefs(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore())

	a, err := svc.Submit(context.Background(), testConversation(), "Ada")
	require.NoError(t, err)
	b, err := svc.Submit(context.Background(), testConversation(), "Ada")
	require.NoError(t, err)

	assert.NotEqual(t, a.OrderRef, b.OrderRef)
}

func TestOrderGet_AccessControl(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store)

	order, err := svc.Submit(context.Background(), testConversation(), "Ada")
	require.NoError(t, err)

	t.Run("seamstress can read", func(t *testing.T) {
		got, err := svc.Get(context.Background(), order.ID, "seam-1")
		require.NoError(t, err)
		assert.Equal(t, order.OrderRef, got.OrderRef)
	})

	t.Run("customer can read", func(t *testing.T) {
		_, err := svc.Get(context.Background(), order.ID, "cust-1")
		assert.NoError(t, err)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := svc.Get(context.Background(), order.ID, "someone-else")
		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "nope", "seam-1")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestOrderUpdateStatus(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store)

	order, err := svc.Submit(context.Background(), testConversation(), "Ada")
	require.NoError(t, err)

	t.Run("invalid status", func(t *testing.T) {
		err := svc.UpdateStatus(context.Background(), order.ID, "seam-1", "shipped")
		assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	})

	t.Run("wrong seamstress", func(t *testing.T) {
		err := svc.UpdateStatus(context.Background(), order.ID, "seam-2", model.OrderInProgress)
		assert.ErrorIs(t, err, ErrNotOrderOwner)
	})

	t.Run("valid transition", func(t *testing.T) {
		err := svc.UpdateStatus(context.Background(), order.ID, "seam-1", model.OrderInProgress)
		require.NoError(t, err)

		got, err := svc.Get(context.Background(), order.ID, "seam-1")
		require.NoError(t, err)
		assert.Equal(t, model.OrderInProgress, got.Status)
	})

	t.Run("status update keeps snapshot", func(t *testing.T) {
		got, err := svc.Get(context.Background(), order.ID, "seam-1")
		require.NoError(t, err)
		assert.Len(t, got.Snapshot.Messages, 6)
	})
}
