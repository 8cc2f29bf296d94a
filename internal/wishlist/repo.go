package wishlist

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/wishlify/wishlify-backend/pkg/db/models"
)

// Repository reads wishes for the redirect path. Wishlists and wishes are owned
// elsewhere; nothing here writes them.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type productURLRow struct {
	ProductURL *string `gorm:"column:product_url"`
}

// ProductURL returns the stored product url of wishID inside wishlistID, or "" when
// either does not exist or the wish has no link.
func (r *Repository) ProductURL(ctx context.Context, wishlistID, wishID string) (string, error) {
	var rows []productURLRow
	err := r.db.WithContext(ctx).
		Table(models.Wish{}.TableName()+" AS w").
		Select("w.product_url").
		Joins("JOIN "+models.Wishlist{}.TableName()+" AS wl ON wl.id = w.wishlist_id").
		Where("w.id = ? AND wl.id = ?", wishID, wishlistID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].ProductURL == nil {
		return "", nil
	}
	return strings.TrimSpace(*rows[0].ProductURL), nil
}
