package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OutboundClickRow mirrors the outbound_clicks BigQuery schema.
type OutboundClickRow struct {
	EventID    string               `bigquery:"event_id"`
	ClickID    string               `bigquery:"click_id"`
	OccurredAt time.Time            `bigquery:"occurred_at"`
	WishID     string               `bigquery:"wish_id"`
	WishlistID string               `bigquery:"wishlist_id"`
	Hostname   string               `bigquery:"hostname"`
	URL        string               `bigquery:"url"`
	Referrer   cbigquery.NullString `bigquery:"referrer"`
	UserAgent  cbigquery.NullString `bigquery:"user_agent"`
	Payload    cbigquery.NullJSON   `bigquery:"payload"`
}
