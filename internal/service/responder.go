package service

import (
	"sync"

	"sewconnect-backend/internal/model"
)

// Responder decides whether and how the counterparty side answers a
// customer-authored message. It is a stand-in for genuine seamstress-side
// messaging; swapping the implementation must not touch session logic.
type Responder interface {
	// Reply returns the acknowledgment text for a user message, or
	// ok=false for no reply.
	Reply(userMsg model.Message) (text string, ok bool)
}

var cannedReplies = []string{
	"Thank you! Let me take a look and I'll get back to you shortly.",
	"Got it! That helps a lot.",
	"Wonderful, thanks for sharing. I'll factor that in.",
	"Perfect, noted! Anything else I should know?",
}

// CannedResponder rotates through a fixed list of acknowledgments. It
// answers every user-authored message exactly once; replies are never
// answered, so acknowledgments cannot compound.
type CannedResponder struct {
	mu   sync.Mutex
	next int
}

func NewCannedResponder() *CannedResponder {
	return &CannedResponder{}
}

func (r *CannedResponder) Reply(userMsg model.Message) (string, bool) {
	if userMsg.Sender != model.SenderUser {
		return "", false
	}
	r.mu.Lock()
	text := cannedReplies[r.next%len(cannedReplies)]
	r.next++
	r.mu.Unlock()
	return text, true
}
