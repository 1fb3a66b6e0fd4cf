package model

import (
	"encoding/json"
	"time"
)

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ConversationUpdate is the payload of a "conversation:updated" event,
// fanned out to every websocket client subscribed to the conversation
// after an append commits.
type ConversationUpdate struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type WSSubscribe struct {
	ConversationID string `json:"conversation_id"`
}

type WSAnnounce struct {
	Message string `json:"message"`
}
