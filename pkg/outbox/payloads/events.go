package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OutboundClickRecordedEvent mirrors one outbound_clicks row for the reporting sink.
// URL is the storage form, never the tracked redirect target.
type OutboundClickRecordedEvent struct {
	ClickID    uuid.UUID `json:"click_id"`
	WishID     string    `json:"wish_id"`
	WishlistID string    `json:"wishlist_id"`
	Hostname   string    `json:"hostname"`
	URL        string    `json:"url"`
	Referrer   *string   `json:"referrer,omitempty"`
	UserAgent  *string   `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
