package models

import (
	"time"

	"github.com/wishlify/wishlify-backend/pkg/enums"
)

// Wishlist is read-only from this service; only its identity and owner matter to redirects.
type Wishlist struct {
	ID         string                   `gorm:"column:id;type:varchar(64);primaryKey"`
	OwnerID    string                   `gorm:"column:owner_id;type:varchar(64);not null;index:wishlists_owner_id_idx"`
	Title      string                   `gorm:"column:title;not null"`
	Visibility enums.WishlistVisibility `gorm:"column:visibility;type:varchar(16);not null"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Wishlist) TableName() string { return "wishlists" }

// Wish is a single desired item. ProductURL is whatever the owner pasted and is
// validated only when a visitor follows it.
type Wish struct {
	ID         string    `gorm:"column:id;type:varchar(64);primaryKey"`
	WishlistID string    `gorm:"column:wishlist_id;type:varchar(64);not null;index:wishes_wishlist_id_idx"`
	Name       string    `gorm:"column:name;not null"`
	ProductURL *string   `gorm:"column:product_url"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Wish) TableName() string { return "wishes" }
