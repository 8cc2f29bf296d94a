package controllers

import (
	"context"
	"net/http"

	"github.com/wishlify/wishlify-backend/api/responses"
	"github.com/wishlify/wishlify-backend/api/validators"
	"github.com/wishlify/wishlify-backend/internal/outbound"
	"github.com/wishlify/wishlify-backend/pkg/logger"
)

// Previewer resolves a destination without recording a click.
type Previewer interface {
	Preview(ctx context.Context, wishlistID, wishID string) outbound.Resolution
}

// OutboundRedirect serves GET /go. Every outcome is a 302: the tracked product url
// on success, the site root otherwise. No error body is ever written.
func OutboundRedirect(svc outbound.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := outbound.Request{
			Referrer:  r.Referer(),
			UserAgent: r.UserAgent(),
		}
		q, err := validators.ParseOutboundQuery(r)
		if err == nil {
			req.WishlistID, req.WishID = q.WishlistID, q.WishID
		} else if logg != nil {
			logg.Debug(logg.WithField(r.Context(), "error", err.Error()), "outbound.invalid_query")
		}

		res := svc.Redirect(r.Context(), req)

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, res.Target, http.StatusFound)
	}
}

type outboundPreviewResponse struct {
	Target   string `json:"target"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// OutboundPreview serves GET /api/v1/outbound/preview with the destination /go
// would send the visitor to.
func OutboundPreview(svc Previewer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := validators.ParseOutboundQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res := svc.Preview(r.Context(), q.WishlistID, q.WishID)
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, outboundPreviewResponse{
			Target:   res.Target,
			Fallback: res.Fallback,
			Reason:   string(res.Reason),
			Rule:     res.Rule,
			Hostname: res.Hostname,
		})
	}
}
