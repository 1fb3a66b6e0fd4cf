package service

import (
	"context"
	"errors"
	"fmt"

	"sewconnect-backend/internal/model"

	"github.com/oklog/ulid/v2"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotOrderOwner      = errors.New("not the assigned seamstress for this order")
	ErrInvalidOrderStatus = errors.New("status must be queued, in_progress, or completed")
)

// Placeholder fulfillment metadata until quoting is built.
const (
	placeholderPrice     = "$250.00"
	placeholderTimeframe = "2-3 weeks"
)

var validOrderStatuses = map[string]bool{
	model.OrderQueued:     true,
	model.OrderInProgress: true,
	model.OrderCompleted:  true,
}

type OrderStore interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListBySeamstress(ctx context.Context, seamstressID string, status string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id, seamstressID, status string) error
}

type OrderService struct {
	store OrderStore
}

func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store}
}

// Submit is the one-way transition from conversation to order. A single
// scan extracts the most recent measurements and image messages (the
// latest of each wins), the sequence is frozen into the snapshot, and the
// order is inserted with status queued. On failure nothing is created, so
// retrying is safe.
func (s *OrderService) Submit(ctx context.Context, conv *model.Conversation, customerName string) (*model.Order, error) {
	var measurements, inspiration string
	for _, m := range conv.Messages {
		switch m.Type {
		case model.MessageMeasurements:
			measurements = m.Text
		case model.MessageImage:
			inspiration = m.Text
		}
	}

	order := &model.Order{
		OrderRef:       ulid.Make().String(),
		ConversationID: conv.ID,
		SeamstressID:   conv.SeamstressID,
		CustomerID:     conv.CustomerID,
		CustomerName:   customerName,
		Status:         model.OrderQueued,
		Measurements:   measurements,
		Snapshot: model.OrderSnapshot{
			Messages:         model.CloneMessages(conv.Messages),
			Price:            placeholderPrice,
			Timeframe:        placeholderTimeframe,
			Measurements:     measurements,
			InspirationImage: inspiration,
		},
	}

	created, err := s.store.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}

// Get loads an order, visible only to the assigned seamstress and the
// customer whose conversation produced it.
func (s *OrderService) Get(ctx context.Context, id, actorID string) (*model.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.SeamstressID != actorID && order.CustomerID != actorID {
		return nil, ErrNotParticipant
	}
	return order, nil
}

func (s *OrderService) ListForSeamstress(ctx context.Context, seamstressID, status string) ([]model.Order, error) {
	return s.store.ListBySeamstress(ctx, seamstressID, status)
}

// UpdateStatus is the out-of-core collaborator operation: it moves the
// order through queued → in_progress → completed and never touches the
// snapshot.
func (s *OrderService) UpdateStatus(ctx context.Context, id, seamstressID, status string) error {
	if !validOrderStatuses[status] {
		return ErrInvalidOrderStatus
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.SeamstressID != seamstressID {
		return ErrNotOrderOwner
	}

	return s.store.UpdateStatus(ctx, id, seamstressID, status)
}
