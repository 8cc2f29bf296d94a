package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Click log outcomes.
const (
	ClickStored  = "stored"
	ClickFailed  = "failed"
	ClickDropped = "dropped"
)

// Redirect outcomes.
const (
	OutcomeProduct  = "product"
	OutcomeFallback = "fallback"
)

// OutboundMetrics counts what the /go redirect did. A nil receiver is a no-op.
type OutboundMetrics struct {
	redirects      *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	affiliateRules *prometheus.CounterVec
	clickLog       *prometheus.CounterVec
	lookupDuration prometheus.Histogram
}

// NewOutboundMetrics registers the redirect metrics on the provided registerer.
func NewOutboundMetrics(reg prometheus.Registerer) *OutboundMetrics {
	if reg == nil {
		return &OutboundMetrics{}
	}
	redirects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_redirects_total",
		Help: "Outbound redirects served, by outcome.",
	}, []string{"outcome"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_fallbacks_total",
		Help: "Outbound redirects that fell back to the site root, by reason.",
	}, []string{"reason"})
	affiliateRules := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_affiliate_rules_total",
		Help: "Affiliate rules applied to outbound destinations.",
	}, []string{"rule"})
	clickLog := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_click_log_total",
		Help: "Outbound click log writes, by result.",
	}, []string{"result"})
	lookupDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbound_lookup_duration_seconds",
		Help:    "Latency of wish product url lookups.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	reg.MustRegister(redirects, fallbacks, affiliateRules, clickLog, lookupDuration)
	return &OutboundMetrics{
		redirects:      redirects,
		fallbacks:      fallbacks,
		affiliateRules: affiliateRules,
		clickLog:       clickLog,
		lookupDuration: lookupDuration,
	}
}

func (m *OutboundMetrics) IncRedirect(outcome string) {
	if m == nil || m.redirects == nil {
		return
	}
	m.redirects.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *OutboundMetrics) IncFallback(reason string) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *OutboundMetrics) IncAffiliateRule(rule string) {
	if m == nil || m.affiliateRules == nil {
		return
	}
	m.affiliateRules.WithLabelValues(normalizeLabel(rule)).Inc()
}

func (m *OutboundMetrics) IncClickLog(result string) {
	if m == nil || m.clickLog == nil {
		return
	}
	m.clickLog.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *OutboundMetrics) ObserveLookup(d time.Duration) {
	if m == nil || m.lookupDuration == nil {
		return
	}
	m.lookupDuration.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
