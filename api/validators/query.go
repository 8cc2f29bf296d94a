package validators

import "net/http"

// OutboundQuery is the identifier pair carried by /go and the preview route. The
// query tags name the keys; the validator reports errors under those names through
// the tag name func registered in validate.go.
type OutboundQuery struct {
	WishID     string `query:"wishId" validate:"required,max=128"`
	WishlistID string `query:"wishlistId" validate:"required,max=128"`
}

// ParseOutboundQuery reads and validates wishId and wishlistId. Values are trimmed
// before validation so whitespace-only ids count as missing.
func ParseOutboundQuery(r *http.Request) (OutboundQuery, error) {
	values := r.URL.Query()
	q := OutboundQuery{
		WishID:     SanitizeString(values.Get("wishId")),
		WishlistID: SanitizeString(values.Get("wishlistId")),
	}
	if err := validate.Struct(q); err != nil {
		return q, formatValidationErrors(err)
	}
	return q, nil
}
