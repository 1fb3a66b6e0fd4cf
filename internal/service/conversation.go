package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sewconnect-backend/internal/model"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant in this conversation")
	ErrSeamstressNotFound   = errors.New("seamstress not found")
	ErrEmptyMessage         = errors.New("message text must not be empty")
	ErrEmptyMeasurements    = errors.New("at least one measurement is required")
	ErrMissingDeliveryDate  = errors.New("delivery date is required")
	ErrInvalidUrgency       = errors.New("urgency must be standard, rush, or urgent")
	ErrSessionClosed        = errors.New("session is closed")
)

// ConversationStore is the durable home for conversations.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, customerID, seamstressID string, seed []model.Message) (*model.Conversation, bool, error)
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	ReplaceMessages(ctx context.Context, id string, msgs []model.Message) error
	ListByCustomer(ctx context.Context, customerID string) ([]model.Conversation, error)
	ListBySeamstress(ctx context.Context, seamstressID string) ([]model.Conversation, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type ConversationService struct {
	store      ConversationStore
	users      UserStore
	orders     *OrderService
	notifier   *Notifier
	responder  Responder
	hub        *WSHub
	replyDelay time.Duration

	mu          sync.Mutex
	commitLocks map[string]*sync.Mutex
}

func NewConversationService(store ConversationStore, users UserStore, orders *OrderService, notifier *Notifier, responder Responder, replyDelay time.Duration) *ConversationService {
	return &ConversationService{
		store:       store,
		users:       users,
		orders:      orders,
		notifier:    notifier,
		responder:   responder,
		replyDelay:  replyDelay,
		commitLocks: make(map[string]*sync.Mutex),
	}
}

// AttachHub connects the websocket hub so remote viewers receive every
// committed append.
func (s *ConversationService) AttachHub(hub *WSHub) {
	s.hub = hub
}

// GetOrCreate returns the singleton conversation for the pair, creating it
// seeded with the seamstress's greeting on first contact.
func (s *ConversationService) GetOrCreate(ctx context.Context, customerID, seamstressID string) (*model.Conversation, error) {
	seamstress, err := s.users.GetByID(ctx, seamstressID)
	if err != nil || seamstress.Role != model.RoleSeamstress {
		return nil, ErrSeamstressNotFound
	}

	seed := []model.Message{{
		Text:      fmt.Sprintf("Hello! I'm %s. How can I help you today?", seamstress.DisplayName),
		Sender:    model.SenderCounterparty,
		Type:      model.MessageText,
		CreatedAt: time.Now().UTC(),
	}}

	conv, _, err := s.store.GetOrCreate(ctx, customerID, seamstressID, seed)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}
	return conv, nil
}

// Get loads a conversation, rejecting callers who are not one of its two
// participants.
func (s *ConversationService) Get(ctx context.Context, id, actorID string) (*model.Conversation, error) {
	conv, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conv.CustomerID != actorID && conv.SeamstressID != actorID {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *ConversationService) ListFor(ctx context.Context, actorID, role string) ([]model.Conversation, error) {
	if role == model.RoleSeamstress {
		return s.store.ListBySeamstress(ctx, actorID)
	}
	return s.store.ListByCustomer(ctx, actorID)
}

// commit durably overwrites the conversation's message sequence and then
// fans the snapshot out, in that order. The per-conversation lock keeps
// publish order equal to commit order.
func (s *ConversationService) commit(ctx context.Context, conversationID string, msgs []model.Message) error {
	lock := s.commitLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.ReplaceMessages(ctx, conversationID, msgs); err != nil {
		if isNoRows(err) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("replace messages: %w", err)
	}

	s.notifier.Publish(conversationID, msgs)

	if s.hub != nil {
		update := model.ConversationUpdate{
			ConversationID: conversationID,
			Messages:       msgs,
			UpdatedAt:      time.Now().UTC(),
		}
		if data, err := json.Marshal(update); err == nil {
			s.hub.BroadcastToConversation(conversationID, &model.WSEvent{
				Type: "conversation:updated",
				Data: data,
			})
		}
	}

	return nil
}

func (s *ConversationService) commitLock(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.commitLocks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.commitLocks[conversationID] = lock
	}
	return lock
}

func isNoRows(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no rows")
}

// formatMeasurements serializes the non-empty fields as "key: value"
// lines, in fixed form order. Empty fields are omitted entirely.
func formatMeasurements(req model.MeasurementsRequest) (string, bool) {
	fields := []struct {
		label string
		value string
	}{
		{"bust", req.Bust},
		{"waist", req.Waist},
		{"hips", req.Hips},
		{"height", req.Height},
		{"shoulders", req.Shoulders},
		{"sleeve", req.Sleeve},
	}

	var lines []string
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			lines = append(lines, f.label+": "+v)
		}
	}
	return strings.Join(lines, "\n"), len(lines) > 0
}

var validUrgencies = map[string]bool{"standard": true, "rush": true, "urgent": true}

func formatDelivery(date time.Time, urgency string) string {
	return fmt.Sprintf("Preferred delivery: %s (%s)", date.Format("January 2, 2006"), urgency)
}
