package outbound

import (
	"context"
	"strings"
	"time"
)

// Request carries what the /go handler read off the incoming request. Headers are
// copied up front so nothing references the request after the handler returns.
type Request struct {
	WishlistID string
	WishID     string
	Referrer   string
	UserAgent  string
}

// ClickSink accepts clicks without blocking; *Recorder implements it.
type ClickSink interface {
	Enqueue(click Click) bool
}

// Service resolves the redirect and hands the click to the sink.
type Service interface {
	Redirect(ctx context.Context, req Request) Resolution
}

type service struct {
	resolver *Resolver
	sink     ClickSink
	now      func() time.Time
}

func NewService(resolver *Resolver, sink ClickSink) Service {
	return &service{
		resolver: resolver,
		sink:     sink,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Redirect never waits on the click write. Fallbacks are not recorded.
func (s *service) Redirect(ctx context.Context, req Request) Resolution {
	res := s.resolver.Resolve(ctx, req.WishlistID, req.WishID)
	if res.Fallback || s.sink == nil {
		return res
	}

	s.sink.Enqueue(Click{
		Hostname:   res.Hostname,
		URL:        res.StorageURL,
		WishID:     strings.TrimSpace(req.WishID),
		WishlistID: strings.TrimSpace(req.WishlistID),
		Referrer:   optional(req.Referrer),
		UserAgent:  optional(req.UserAgent),
		CreatedAt:  s.now(),
	})
	return res
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
