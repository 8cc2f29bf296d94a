package enums

import "fmt"

// WishlistVisibility controls who may open a shared wishlist.
type WishlistVisibility string

const (
	WishlistVisibilityPublic  WishlistVisibility = "public"
	WishlistVisibilityPrivate WishlistVisibility = "private"
)

func (v WishlistVisibility) IsValid() bool {
	return v == WishlistVisibilityPublic || v == WishlistVisibilityPrivate
}

func ParseWishlistVisibility(value string) (WishlistVisibility, error) {
	v := WishlistVisibility(value)
	if !v.IsValid() {
		return "", fmt.Errorf("invalid wishlist visibility %q", value)
	}
	return v, nil
}
