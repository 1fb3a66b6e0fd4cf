package model

import "time"

type MessageSender string

const (
	// SenderUser is the customer side of a conversation.
	SenderUser MessageSender = "user"
	// SenderCounterparty is the seamstress side, or the auto-responder
	// standing in for her.
	SenderCounterparty MessageSender = "counterparty"
)

type MessageType string

const (
	MessageText         MessageType = "text"
	MessageImage        MessageType = "image"
	MessageMeasurements MessageType = "measurements"
	MessageDelivery     MessageType = "delivery"
	MessageSystem       MessageType = "system"
)

// Message is one immutable entry in a conversation's sequence. The meaning
// of Text depends on Type: raw text, a displayable image reference,
// newline-joined "key: value" measurement lines, or a formatted delivery
// preference.
type Message struct {
	Text      string        `json:"text"`
	Sender    MessageSender `json:"sender"`
	Type      MessageType   `json:"type"`
	CreatedAt time.Time     `json:"created_at"`
}

// CloneMessages returns a deep-enough copy of a message sequence. Message
// fields are value types, so copying the slice is sufficient to keep a
// snapshot immune to later appends.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
