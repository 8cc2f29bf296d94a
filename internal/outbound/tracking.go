package outbound

import (
	"net/url"

	"github.com/wishlify/wishlify-backend/pkg/config"
)

const (
	paramUTMSource = "utm_source"
	paramUTMMedium = "utm_medium"
)

// TrackingPolicy adds first-party attribution to outbound destinations.
type TrackingPolicy struct {
	Source string
	Medium string
}

func DefaultTrackingPolicy() TrackingPolicy {
	return TrackingPolicy{Source: "wishlify", Medium: "wishlist"}
}

// TrackingPolicyFromConfig falls back to the defaults for blank values.
func TrackingPolicyFromConfig(cfg config.OutboundConfig) TrackingPolicy {
	p := DefaultTrackingPolicy()
	if cfg.UTMSource != "" {
		p.Source = cfg.UTMSource
	}
	if cfg.UTMMedium != "" {
		p.Medium = cfg.UTMMedium
	}
	return p
}

// Apply appends utm_source and utm_medium only where the destination has no value
// for them yet. Existing parameters, even empty ones, are kept as written.
func (p TrackingPolicy) Apply(u *url.URL) {
	if u == nil {
		return
	}
	for _, param := range [...]struct{ key, val string }{
		{paramUTMSource, p.Source},
		{paramUTMMedium, p.Medium},
	} {
		if param.val == "" || hasRawParam(u.RawQuery, param.key) {
			continue
		}
		u.RawQuery = appendRawParam(u.RawQuery, param.key, param.val)
	}
}

// StorageForm is the origin plus path of u: no userinfo, query or fragment.
// An empty path is stored as "/".
func StorageForm(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := url.URL{
		Scheme:  u.Scheme,
		Host:    u.Host,
		Path:    u.Path,
		RawPath: u.RawPath,
	}
	if clean.Path == "" {
		clean.Path = "/"
	}
	return clean.String()
}
