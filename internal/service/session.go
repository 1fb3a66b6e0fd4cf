package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"sewconnect-backend/internal/model"
)

// Session is the client-facing state machine for one participant viewing
// one conversation. It holds the in-memory message sequence, serializes
// its own appends (a second append waits for the first to resolve, so a
// stale full-sequence snapshot can never clobber an in-flight one), and
// schedules the simulated counterparty reply for customer-authored
// messages. Remote snapshots delivered by the notifier replace the local
// sequence wholesale; there is no merge.
type Session struct {
	svc            *ConversationService
	conversationID string
	customerID     string
	seamstressID   string
	actorID        string
	sender         model.MessageSender

	mu          sync.Mutex
	messages    []model.Message
	pending     []*time.Timer
	closed      bool
	unsubscribe func()
}

// OpenSession loads the conversation, verifies the actor is a participant,
// and subscribes to the change feed.
func (s *ConversationService) OpenSession(ctx context.Context, conversationID, actorID string) (*Session, error) {
	conv, err := s.Get(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	sender := model.SenderUser
	if actorID == conv.SeamstressID {
		sender = model.SenderCounterparty
	}

	sess := &Session{
		svc:            s,
		conversationID: conv.ID,
		customerID:     conv.CustomerID,
		seamstressID:   conv.SeamstressID,
		actorID:        actorID,
		sender:         sender,
		messages:       model.CloneMessages(conv.Messages),
	}
	sess.unsubscribe = s.notifier.Subscribe(conv.ID, sess.onRemoteSnapshot)
	return sess, nil
}

func (s *Session) ConversationID() string { return s.conversationID }

// Messages returns a copy of the current in-memory sequence.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMessages(s.messages)
}

func (s *Session) SendText(ctx context.Context, body string) (model.Message, error) {
	if strings.TrimSpace(body) == "" {
		return model.Message{}, ErrEmptyMessage
	}
	return s.append(ctx, model.Message{
		Text:   body,
		Sender: s.sender,
		Type:   model.MessageText,
	})
}

// AttachImage appends an image message. The ref is already a displayable
// reference (data URI or uploaded-file URL).
func (s *Session) AttachImage(ctx context.Context, ref string) (model.Message, error) {
	if ref == "" {
		return model.Message{}, ErrEmptyMessage
	}
	return s.append(ctx, model.Message{
		Text:   ref,
		Sender: s.sender,
		Type:   model.MessageImage,
	})
}

func (s *Session) ShareMeasurements(ctx context.Context, req model.MeasurementsRequest) (model.Message, error) {
	text, ok := formatMeasurements(req)
	if !ok {
		return model.Message{}, ErrEmptyMeasurements
	}
	return s.append(ctx, model.Message{
		Text:   text,
		Sender: s.sender,
		Type:   model.MessageMeasurements,
	})
}

func (s *Session) SelectDelivery(ctx context.Context, req model.DeliveryRequest) (model.Message, error) {
	if req.Date == "" {
		return model.Message{}, ErrMissingDeliveryDate
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return model.Message{}, ErrMissingDeliveryDate
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = "standard"
	}
	if !validUrgencies[urgency] {
		return model.Message{}, ErrInvalidUrgency
	}
	return s.append(ctx, model.Message{
		Text:   formatDelivery(date, urgency),
		Sender: s.sender,
		Type:   model.MessageDelivery,
	})
}

// SubmitOrder delegates to the order service and, only after the order is
// durably created, appends the confirmation system message. The two steps
// are not atomic: a failed confirmation append leaves a valid order, so it
// is logged rather than surfaced as a submission failure.
func (s *Session) SubmitOrder(ctx context.Context) (*model.Order, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	conv := &model.Conversation{
		ID:           s.conversationID,
		CustomerID:   s.customerID,
		SeamstressID: s.seamstressID,
		Messages:     model.CloneMessages(s.messages),
	}
	s.mu.Unlock()

	customer, err := s.svc.users.GetByID(ctx, s.customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	order, err := s.svc.orders.Submit(ctx, conv, customer.DisplayName)
	if err != nil {
		return nil, err
	}

	confirmation := model.Message{
		Text:   fmt.Sprintf("Order %s submitted. We'll keep you posted here.", order.OrderRef),
		Sender: model.SenderCounterparty,
		Type:   model.MessageSystem,
	}
	if _, err := s.append(ctx, confirmation); err != nil {
		log.Printf("[Order] confirmation append failed for order %s: %v", order.ID, err)
	}
	return order, nil
}

// Close tears the session down: the subscription stops and pending
// simulated replies become no-ops. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, t := range s.pending {
		t.Stop()
	}
	s.pending = nil
	unsub := s.unsubscribe
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// append commits the full updated sequence and schedules the simulated
// reply for user-authored messages. Failed appends schedule nothing.
func (s *Session) append(ctx context.Context, msg model.Message) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Message{}, ErrSessionClosed
	}

	msg.CreatedAt = time.Now().UTC()
	next := append(model.CloneMessages(s.messages), msg)
	if err := s.svc.commit(ctx, s.conversationID, next); err != nil {
		return model.Message{}, err
	}
	s.messages = next

	if msg.Type != model.MessageSystem {
		if text, ok := s.svc.responder.Reply(msg); ok {
			s.scheduleReplyLocked(text)
		}
	}
	return msg, nil
}

func (s *Session) scheduleReplyLocked(text string) {
	var timer *time.Timer
	timer = time.AfterFunc(s.svc.replyDelay, func() {
		s.deliverReply(text, timer)
	})
	s.pending = append(s.pending, timer)
}

// deliverReply appends the canned counterparty acknowledgment. Replies go
// through commit like any append but never schedule further replies, so
// acknowledgments cannot chain.
func (s *Session) deliverReply(text string, timer *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.removeTimerLocked(timer)

	msg := model.Message{
		Text:      text,
		Sender:    model.SenderCounterparty,
		Type:      model.MessageText,
		CreatedAt: time.Now().UTC(),
	}
	next := append(model.CloneMessages(s.messages), msg)
	if err := s.svc.commit(context.Background(), s.conversationID, next); err != nil {
		log.Printf("[Chat] auto-reply append failed for conversation %s: %v", s.conversationID, err)
		return
	}
	s.messages = next
}

func (s *Session) removeTimerLocked(timer *time.Timer) {
	for i, t := range s.pending {
		if t == timer {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// onRemoteSnapshot replaces the in-memory sequence with the committed
// snapshot. The remote view always wins over any local optimistic state.
func (s *Session) onRemoteSnapshot(msgs []model.Message) {
	s.mu.Lock()
	if !s.closed {
		s.messages = msgs
	}
	s.mu.Unlock()
}

// SessionManager hands out the live session per (conversation, actor) so
// consecutive HTTP requests share serialization and pending reply state.
type SessionManager struct {
	svc      *ConversationService
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(svc *ConversationService) *SessionManager {
	return &SessionManager{svc: svc, sessions: make(map[string]*Session)}
}

func (m *SessionManager) Session(ctx context.Context, conversationID, actorID string) (*Session, error) {
	key := conversationID + "|" + actorID

	m.mu.Lock()
	if sess, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	sess, err := m.svc.OpenSession(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[key]; ok {
		// Lost a creation race; keep the first session.
		sess.Close()
		return existing, nil
	}
	m.sessions[key] = sess
	return sess, nil
}

func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
