package service

import (
	"sync"
	"testing"
	"time"

	"sewconnect-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	snapshots [][]model.Message
}

func (r *recorder) record(msgs []model.Message) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, msgs)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *recorder) last() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestNotifier_DeliversInPublishOrder(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	unsub := n.Subscribe("conv-1", rec.record)
	defer unsub()

	var want [][]model.Message
	msgs := []model.Message{}
	for i := 0; i < 20; i++ {
		msgs = append(msgs, model.Message{Text: "m", Sender: model.SenderUser, Type: model.MessageText})
		want = append(want, model.CloneMessages(msgs))
		n.Publish("conv-1", msgs)
	}

	require.Eventually(t, func() bool { return rec.count() == 20 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, snap := range rec.snapshots {
		assert.Len(t, snap, len(want[i]), "snapshot %d out of order", i)
	}
}

func TestNotifier_UnsubscribeStopsDelivery(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	unsub := n.Subscribe("conv-1", rec.record)

	n.Publish("conv-1", []model.Message{{Text: "before"}})
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	unsub()
	n.Publish("conv-1", []model.Message{{Text: "after"}})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestNotifier_UnsubscribeIsIdempotent(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	unsub := n.Subscribe("conv-1", rec.record)

	unsub()
	assert.NotPanics(t, func() {
		unsub()
		unsub()
	})
}

func TestNotifier_SubscribersGetIndependentCopies(t *testing.T) {
	n := NewNotifier()
	a := &recorder{}
	b := &recorder{}
	unsubA := n.Subscribe("conv-1", a.record)
	defer unsubA()
	unsubB := n.Subscribe("conv-1", b.record)
	defer unsubB()

	n.Publish("conv-1", []model.Message{{Text: "hello", Sender: model.SenderUser, Type: model.MessageText}})

	require.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, time.Second, 5*time.Millisecond)

	// Mutating one subscriber's snapshot must not leak into the other's.
	a.last()[0].Text = "mutated"
	assert.Equal(t, "hello", b.last()[0].Text)
}

func TestNotifier_ScopedToConversation(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	unsub := n.Subscribe("conv-1", rec.record)
	defer unsub()

	n.Publish("conv-2", []model.Message{{Text: "other"}})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count())
}
