package models

import (
	"time"

	"github.com/google/uuid"
)

// OutboundClick is one followed /go redirect. URL holds the storage form of the
// destination (scheme, host and path only). Rows are never updated.
type OutboundClick struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Hostname   string    `gorm:"column:hostname;not null;index:outbound_clicks_hostname_idx"`
	URL        string    `gorm:"column:url;not null"`
	WishID     string    `gorm:"column:wish_id;type:varchar(64);not null;index:outbound_clicks_wish_id_idx"`
	WishlistID string    `gorm:"column:wishlist_id;type:varchar(64);not null"`
	Referrer   *string   `gorm:"column:referrer"`
	UserAgent  *string   `gorm:"column:user_agent"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (OutboundClick) TableName() string { return "outbound_clicks" }
