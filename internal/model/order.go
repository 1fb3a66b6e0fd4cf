package model

import "time"

const (
	OrderQueued     = "queued"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
)

// OrderSnapshot is the frozen copy of a conversation taken at submission
// time. Later appends to the live conversation never alter it.
type OrderSnapshot struct {
	Messages         []Message `json:"messages"`
	Price            string    `json:"price"`
	Timeframe        string    `json:"timeframe"`
	Measurements     string    `json:"measurements"`
	InspirationImage string    `json:"inspiration_image,omitempty"`
}

// Order is the durable record created by submitting a conversation. The
// messaging core never mutates it after creation; only the seamstress-side
// status update endpoint moves Status forward.
type Order struct {
	ID             string        `json:"id"`
	OrderRef       string        `json:"order_ref"`
	ConversationID string        `json:"conversation_id"`
	SeamstressID   string        `json:"seamstress_id"`
	CustomerID     string        `json:"customer_id"`
	CustomerName   string        `json:"customer_name"`
	Status         string        `json:"status"`
	Measurements   string        `json:"measurements"`
	Snapshot       OrderSnapshot `json:"snapshot"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
