package outbound

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/metrics"
)

// WishLookup returns the stored product url of a wish, or "" with a nil error when
// the wishlist or wish does not exist.
type WishLookup interface {
	ProductURL(ctx context.Context, wishlistID, wishID string) (string, error)
}

// FallbackReason says why a redirect went to the site root.
type FallbackReason string

const (
	ReasonMissingIDs   FallbackReason = "missing_ids"
	ReasonNotFound     FallbackReason = "not_found"
	ReasonLookupFailed FallbackReason = "lookup_failed"
	ReasonMalformedURL FallbackReason = "malformed_url"
	ReasonUnsafeScheme FallbackReason = "unsafe_scheme"
)

// Resolution is the outcome of one /go request.
type Resolution struct {
	// Target is what the Location header carries.
	Target   string
	Fallback bool
	Reason   FallbackReason

	// Set only when Fallback is false.
	Hostname   string
	StorageURL string
	Rule       string
}

// ResolverOptions configures a Resolver. Zero values get sensible defaults.
type ResolverOptions struct {
	SiteRoot      string
	LookupTimeout time.Duration
	Logger        *logger.Logger
	Metrics       *metrics.OutboundMetrics
}

// Resolver turns a (wishlist, wish) pair into a redirect target. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	lookup   WishLookup
	rules    RuleSet
	tracking TrackingPolicy
	siteRoot string
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.OutboundMetrics
}

func NewResolver(lookup WishLookup, rules RuleSet, tracking TrackingPolicy, opts ResolverOptions) *Resolver {
	root := strings.TrimSpace(opts.SiteRoot)
	if root == "" {
		root = "/"
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{
		lookup:   lookup,
		rules:    rules,
		tracking: tracking,
		siteRoot: root,
		timeout:  opts.LookupTimeout,
		logg:     logg,
		metrics:  opts.Metrics,
	}
}

// SiteRoot is the fallback redirect target.
func (r *Resolver) SiteRoot() string {
	return r.siteRoot
}

// Resolve never fails: every problem becomes a fallback to the site root.
func (r *Resolver) Resolve(ctx context.Context, wishlistID, wishID string) Resolution {
	return r.resolve(ctx, wishlistID, wishID, r.metrics)
}

// Preview resolves like Resolve without counting the outcome as a redirect.
func (r *Resolver) Preview(ctx context.Context, wishlistID, wishID string) Resolution {
	return r.resolve(ctx, wishlistID, wishID, nil)
}

func (r *Resolver) resolve(ctx context.Context, wishlistID, wishID string, m *metrics.OutboundMetrics) Resolution {
	wishlistID, wishID = strings.TrimSpace(wishlistID), strings.TrimSpace(wishID)
	if wishlistID == "" || wishID == "" {
		return r.fallback(ctx, ReasonMissingIDs, m)
	}

	raw, err := r.productURL(ctx, wishlistID, wishID)
	if err != nil {
		logCtx := r.logg.WithWishRef(ctx, wishlistID, wishID)
		r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "outbound.lookup_failed")
		return r.fallback(ctx, ReasonLookupFailed, m)
	}

	dest, reason := parseDestination(raw)
	if reason != "" {
		return r.fallback(ctx, reason, m)
	}

	rule := r.rules.Apply(dest)
	if rule != "" {
		m.IncAffiliateRule(rule)
	}
	r.tracking.Apply(dest)

	m.IncRedirect(metrics.OutcomeProduct)
	return Resolution{
		Target:     dest.String(),
		Hostname:   strings.ToLower(dest.Hostname()),
		StorageURL: StorageForm(dest),
		Rule:       rule,
	}
}

func (r *Resolver) productURL(ctx context.Context, wishlistID, wishID string) (string, error) {
	if r.lookup == nil {
		return "", nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() { r.metrics.ObserveLookup(time.Since(start)) }()
	return r.lookup.ProductURL(ctx, wishlistID, wishID)
}

// parseDestination accepts only absolute http(s) urls with a host. A blank value
// means the wish was not found or has no link.
func parseDestination(raw string) (*url.URL, FallbackReason) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ReasonNotFound
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil, ReasonMalformedURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ReasonUnsafeScheme
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, ReasonMalformedURL
	}
	return u, ""
}

func (r *Resolver) fallback(ctx context.Context, reason FallbackReason, m *metrics.OutboundMetrics) Resolution {
	m.IncRedirect(metrics.OutcomeFallback)
	m.IncFallback(string(reason))
	if reason == ReasonMalformedURL || reason == ReasonUnsafeScheme {
		r.logg.Info(r.logg.WithField(ctx, "reason", string(reason)), "outbound.rejected_destination")
	}
	return Resolution{Target: r.siteRoot, Fallback: true, Reason: reason}
}
