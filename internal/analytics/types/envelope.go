package types

import (
	"encoding/json"
	"time"

	"github.com/wishlify/wishlify-backend/pkg/enums"
)

// Envelope is an outbox event as the analytics worker sees it after decoding the
// Pub/Sub message.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.AnalyticsEventType  `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}
