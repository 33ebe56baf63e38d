package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderFinalized = "OrderFinalized"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber int64  `json:"order_number"`
	UserID      string `json:"user_id"`
	TenantID    string `json:"tenant_id"`
	Currency    string `json:"currency"`
	FinalAmount string `json:"final_amount"`
	ItemCount   int    `json:"item_count"`
}

type OrderFinalizedPayload struct {
	OrderID     string `json:"order_id"`
	FinalStatus string `json:"final_status"` // COMPLETED | FAILED
	Reason      string `json:"reason,omitempty"`
}
