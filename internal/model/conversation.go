package model

import "time"

const (
	ConversationActive = "active"
	ConversationClosed = "closed"
)

// Conversation is the persistent chat thread between one customer and one
// seamstress. At most one exists per (customer, seamstress) pair; the only
// mutation is appending to Messages, persisted as a whole-sequence rewrite.
type Conversation struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	SeamstressID string    `json:"seamstress_id"`
	Messages     []Message `json:"messages"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type StartConversationRequest struct {
	SeamstressID string `json:"seamstress_id"`
}

type SendTextRequest struct {
	Text string `json:"text"`
}

// MeasurementsRequest carries the fixed measurement form. Field order here
// is the serialization order of the resulting measurements message.
type MeasurementsRequest struct {
	Bust      string `json:"bust"`
	Waist     string `json:"waist"`
	Hips      string `json:"hips"`
	Height    string `json:"height"`
	Shoulders string `json:"shoulders"`
	Sleeve    string `json:"sleeve"`
}

type DeliveryRequest struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Urgency string `json:"urgency"`
}
