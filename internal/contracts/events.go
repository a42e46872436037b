package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service,omitempty"`
	TraceID       string          `json:"trace_id,omitempty"`
	SchemaVersion string          `json:"schema_version,omitempty"`
	Data          json.RawMessage `json:"data"`
}

type CartUpdatedPayload struct {
	CartID    string `json:"cart_id"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type CartCouponAppliedPayload struct {
	CartID     string `json:"cart_id"`
	CouponCode string `json:"coupon_code"`
	AppliedAt  string `json:"applied_at,omitempty"`
}
