package outbound

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wishlify/wishlify-backend/pkg/metrics"
)

type stubLookup struct {
	urls  map[string]string
	err   error
	calls int
	wait  time.Duration
}

func (s *stubLookup) ProductURL(ctx context.Context, wishlistID, wishID string) (string, error) {
	s.calls++
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.urls[wishlistID+"/"+wishID], nil
}

func newTestResolver(t *testing.T, lookup WishLookup, m *metrics.OutboundMetrics) *Resolver {
	t.Helper()
	rules, err := NewRuleSet(TagRule("amazon.com", "tag", "wishlify-20", "amazon.com"))
	require.NoError(t, err)
	return NewResolver(lookup, rules, DefaultTrackingPolicy(), ResolverOptions{SiteRoot: "/", Metrics: m})
}

func TestResolveMissingIDsSkipsLookup(t *testing.T) {
	lookup := &stubLookup{}
	r := newTestResolver(t, lookup, nil)

	for _, ids := range [][2]string{{"", "w1"}, {"wl1", ""}, {"  ", "w1"}, {"", ""}} {
		res := r.Resolve(context.Background(), ids[0], ids[1])
		assert.True(t, res.Fallback)
		assert.Equal(t, "/", res.Target)
		assert.Equal(t, ReasonMissingIDs, res.Reason)
	}
	assert.Zero(t, lookup.calls)
}

func TestResolveFallbacks(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{
		"wl/blank":      "   ",
		"wl/relative":   "/products/1",
		"wl/js":         "javascript:alert(1)",
		"wl/JS":         "JavaScript:alert(1)",
		"wl/ftp":        "ftp://x",
		"wl/file":       "file:///etc/passwd",
		"wl/data":       "data:text/html,<script>alert(1)</script>",
		"wl/nohost":     "https://",
		"wl/portonly":   "http://:80/x",
		"wl/badescape":  "https://shop.test/%zz",
		"wl/nothttpish": "shop.test/item",
	}}
	r := newTestResolver(t, lookup, nil)

	cases := map[string]FallbackReason{
		"missing":    ReasonNotFound,
		"blank":      ReasonNotFound,
		"relative":   ReasonMalformedURL,
		"js":         ReasonUnsafeScheme,
		"JS":         ReasonUnsafeScheme,
		"ftp":        ReasonUnsafeScheme,
		"file":       ReasonUnsafeScheme,
		"data":       ReasonUnsafeScheme,
		"nohost":     ReasonMalformedURL,
		"portonly":   ReasonMalformedURL,
		"badescape":  ReasonMalformedURL,
		"nothttpish": ReasonMalformedURL,
	}
	for wish, reason := range cases {
		res := r.Resolve(context.Background(), "wl", wish)
		assert.True(t, res.Fallback, wish)
		assert.Equal(t, "/", res.Target, wish)
		assert.Equal(t, reason, res.Reason, wish)
		assert.Empty(t, res.StorageURL, wish)
	}
}

func TestResolveLookupErrorFallsBack(t *testing.T) {
	r := newTestResolver(t, &stubLookup{err: errors.New("connection refused")}, nil)

	res := r.Resolve(context.Background(), "wl", "w")
	assert.True(t, res.Fallback)
	assert.Equal(t, "/", res.Target)
	assert.Equal(t, ReasonLookupFailed, res.Reason)
}

func TestResolveLookupTimeout(t *testing.T) {
	rules, err := NewRuleSet()
	require.NoError(t, err)
	lookup := &stubLookup{wait: time.Second, urls: map[string]string{"wl/w": "https://shop.test"}}
	r := NewResolver(lookup, rules, DefaultTrackingPolicy(), ResolverOptions{LookupTimeout: 10 * time.Millisecond})

	res := r.Resolve(context.Background(), "wl", "w")
	assert.Equal(t, ReasonLookupFailed, res.Reason)
	assert.Equal(t, "/", r.SiteRoot())
}

func TestResolveAffiliateOverwriteAndTracking(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{"wl/w": "https://www.amazon.com/dp/X?tag=foreign-20"}}
	r := newTestResolver(t, lookup, nil)

	res := r.Resolve(context.Background(), "wl", "w")
	require.False(t, res.Fallback)
	assert.Equal(t, "amazon.com", res.Rule)
	assert.Equal(t, "www.amazon.com", res.Hostname)
	assert.Equal(t, "https://www.amazon.com/dp/X", res.StorageURL)

	target, err := url.Parse(res.Target)
	require.NoError(t, err)
	q := target.Query()
	assert.Equal(t, []string{"wishlify-20"}, q["tag"])
	assert.Equal(t, "wishlify", q.Get("utm_source"))
	assert.Equal(t, "wishlist", q.Get("utm_medium"))
}

func TestResolveKeepsProductQueryPairs(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{
		"wl/semi":   "https://shop.test/item?a=1;b=2",
		"wl/escape": "https://shop.test/item?q=%zz",
		"wl/amz":    "https://www.amazon.com/dp/X?tag=foreign-20&ref=x;y",
	}}
	r := newTestResolver(t, lookup, nil)

	cases := map[string]string{
		"semi":   "https://shop.test/item?a=1;b=2&utm_source=wishlify&utm_medium=wishlist",
		"escape": "https://shop.test/item?q=%zz&utm_source=wishlify&utm_medium=wishlist",
		"amz":    "https://www.amazon.com/dp/X?ref=x;y&tag=wishlify-20&utm_source=wishlify&utm_medium=wishlist",
	}
	for wish, want := range cases {
		res := r.Resolve(context.Background(), "wl", wish)
		require.False(t, res.Fallback, wish)
		assert.Equal(t, want, res.Target, wish)
	}
}

func TestResolveKeepsExistingUTM(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{"wl/w": "https://shop.test/item?utm_source=existing"}}
	r := newTestResolver(t, lookup, nil)

	res := r.Resolve(context.Background(), "wl", "w")
	require.False(t, res.Fallback)
	assert.Empty(t, res.Rule)

	target, err := url.Parse(res.Target)
	require.NoError(t, err)
	assert.Equal(t, "existing", target.Query().Get("utm_source"))
	assert.Equal(t, "wishlist", target.Query().Get("utm_medium"))
	assert.Equal(t, "https://shop.test/item", res.StorageURL)
}

func TestResolveAcceptsUppercaseScheme(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{"wl/w": "HTTPS://Shop.Test/Item"}}
	r := newTestResolver(t, lookup, nil)

	res := r.Resolve(context.Background(), "wl", "w")
	require.False(t, res.Fallback)
	assert.Equal(t, "shop.test", res.Hostname)
	assert.Equal(t, "https://Shop.Test/Item", res.StorageURL)
}

func TestResolveCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewOutboundMetrics(reg)
	lookup := &stubLookup{urls: map[string]string{
		"wl/amz": "https://amazon.com/dp/1",
		"wl/js":  "javascript:alert(1)",
	}}
	r := newTestResolver(t, lookup, m)

	r.Resolve(context.Background(), "wl", "amz")
	r.Resolve(context.Background(), "wl", "js")
	r.Resolve(context.Background(), "", "js")

	expected := `
# HELP outbound_affiliate_rules_total Affiliate rules applied to outbound destinations.
# TYPE outbound_affiliate_rules_total counter
outbound_affiliate_rules_total{rule="amazon.com"} 1
# HELP outbound_fallbacks_total Outbound redirects that fell back to the site root, by reason.
# TYPE outbound_fallbacks_total counter
outbound_fallbacks_total{reason="missing_ids"} 1
outbound_fallbacks_total{reason="unsafe_scheme"} 1
# HELP outbound_redirects_total Outbound redirects served, by outcome.
# TYPE outbound_redirects_total counter
outbound_redirects_total{outcome="fallback"} 2
outbound_redirects_total{outcome="product"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"outbound_affiliate_rules_total", "outbound_fallbacks_total", "outbound_redirects_total"))
}

func TestPreviewDoesNotCountRedirects(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewOutboundMetrics(reg)
	lookup := &stubLookup{urls: map[string]string{"wl/amz": "https://www.amazon.com/dp/1?tag=other"}}
	r := newTestResolver(t, lookup, m)

	res := r.Preview(context.Background(), "wl", "amz")
	require.False(t, res.Fallback)
	assert.Equal(t, "amazon.com", res.Rule)
	assert.Contains(t, res.Target, "tag=wishlify-20")

	fallback := r.Preview(context.Background(), "", "amz")
	assert.Equal(t, ReasonMissingIDs, fallback.Reason)

	assert.Zero(t, testutil.CollectAndCount(reg, "outbound_redirects_total"))
	assert.Zero(t, testutil.CollectAndCount(reg, "outbound_fallbacks_total"))
}
