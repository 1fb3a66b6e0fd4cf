package service

import (
	"sync"

	"sewconnect-backend/internal/model"
)

// Notifier is the in-process change feed for conversations. Publish is
// called once per durable append, in commit order; each subscriber gets
// its own ordered queue drained by a dedicated goroutine, so listeners
// never run on the publisher's goroutine (a listener may itself hold the
// lock the publisher is committing under).
type Notifier struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]*subscriber
	nextID uint64
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[uint64]*subscriber)}
}

type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]model.Message
	closed bool
	fn     func([]model.Message)
}

func newSubscriber(fn func([]model.Message)) *subscriber {
	s := &subscriber{fn: fn}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscriber) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(next)
	}
}

func (s *subscriber) push(msgs []model.Message) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, msgs)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

// Subscribe registers fn for snapshots of the given conversation and
// returns an unsubscribe func. Unsubscribing is idempotent and stops
// further invocations, including queued ones not yet delivered.
func (n *Notifier) Subscribe(conversationID string, fn func([]model.Message)) func() {
	sub := newSubscriber(fn)
	go sub.run()

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	if n.subs[conversationID] == nil {
		n.subs[conversationID] = make(map[uint64]*subscriber)
	}
	n.subs[conversationID][id] = sub
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			if m := n.subs[conversationID]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(n.subs, conversationID)
				}
			}
			n.mu.Unlock()
			sub.close()
		})
	}
}

// Publish fans the committed snapshot out to every subscriber of the
// conversation. Each subscriber receives its own copy.
func (n *Notifier) Publish(conversationID string, msgs []model.Message) {
	n.mu.Lock()
	for _, sub := range n.subs[conversationID] {
		sub.push(model.CloneMessages(msgs))
	}
	n.mu.Unlock()
}
