package outbound

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/wishlify/wishlify-backend/pkg/config"
)

var vanityPrefixes = []string{"www.", "m.", "smile."}

// BaseHost lower-cases host, drops any port and trailing dot, and strips a single
// leading vanity subdomain so www.amazon.com, m.amazon.com and amazon.com compare equal.
func BaseHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	h = strings.TrimSuffix(h, ".")
	for _, prefix := range vanityPrefixes {
		if strings.HasPrefix(h, prefix) && len(h) > len(prefix) {
			return h[len(prefix):]
		}
	}
	return h
}

// AffiliateRule rewrites destinations whose base host it matches.
type AffiliateRule struct {
	Name  string
	Match func(baseHost string) bool
	Apply func(u *url.URL)
}

// RuleSet is an ordered, read-only list of affiliate rules. The zero value matches nothing.
type RuleSet struct {
	rules []AffiliateRule
}

// NewRuleSet copies rules in the given order.
func NewRuleSet(rules ...AffiliateRule) (RuleSet, error) {
	out := make([]AffiliateRule, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		if strings.TrimSpace(rule.Name) == "" {
			return RuleSet{}, fmt.Errorf("affiliate rule %d: name is required", i)
		}
		if rule.Match == nil || rule.Apply == nil {
			return RuleSet{}, fmt.Errorf("affiliate rule %q: match and apply are required", rule.Name)
		}
		if _, dup := seen[rule.Name]; dup {
			return RuleSet{}, fmt.Errorf("affiliate rule %q declared twice", rule.Name)
		}
		seen[rule.Name] = struct{}{}
		out = append(out, rule)
	}
	return RuleSet{rules: out}, nil
}

// Apply runs the first rule matching u's base host and returns its name, or "" when
// no rule matched and u was left untouched.
func (s RuleSet) Apply(u *url.URL) string {
	if u == nil {
		return ""
	}
	base := BaseHost(u.Host)
	for _, rule := range s.rules {
		if rule.Match(base) {
			rule.Apply(u)
			return rule.Name
		}
	}
	return ""
}

// Names lists the rules in evaluation order.
func (s RuleSet) Names() []string {
	names := make([]string, len(s.rules))
	for i, rule := range s.rules {
		names[i] = rule.Name
	}
	return names
}

func (s RuleSet) Len() int { return len(s.rules) }

// TagRule matches any of hosts (compared as base hosts) and sets param=tag,
// replacing every value the destination already carried for param.
func TagRule(name, param, tag string, hosts ...string) AffiliateRule {
	want := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		want[BaseHost(h)] = struct{}{}
	}
	return AffiliateRule{
		Name: name,
		Match: func(baseHost string) bool {
			_, ok := want[baseHost]
			return ok
		},
		Apply: func(u *url.URL) {
			u.RawQuery = setRawParam(u.RawQuery, param, tag)
		},
	}
}

// PartnerTag is one row of the hostname to partner tag table.
type PartnerTag struct {
	Host  string
	Param string
	Tag   string
}

// PartnerTable returns the compiled-in partners followed by the configured extras.
// Order is significant: earlier rows win.
func PartnerTable(cfg config.OutboundConfig) ([]PartnerTag, error) {
	table := []PartnerTag{}
	if tag := strings.TrimSpace(cfg.AmazonTag); tag != "" {
		table = append(table, PartnerTag{Host: "amazon.com", Param: "tag", Tag: tag})
	}
	extra, err := ParsePartnerTags(cfg.PartnerTags)
	if err != nil {
		return nil, err
	}
	return append(table, extra...), nil
}

// ParsePartnerTags reads host:param=tag entries.
func ParsePartnerTags(entries []string) ([]PartnerTag, error) {
	out := make([]PartnerTag, 0, len(entries))
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		host, assignment, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("partner tag %q: expected host:param=tag", entry)
		}
		param, tag, ok := strings.Cut(assignment, "=")
		host, param, tag = BaseHost(host), strings.TrimSpace(param), strings.TrimSpace(tag)
		if !ok || host == "" || param == "" || tag == "" {
			return nil, fmt.Errorf("partner tag %q: expected host:param=tag", entry)
		}
		out = append(out, PartnerTag{Host: host, Param: param, Tag: tag})
	}
	return out, nil
}

// DefaultRules turns the partner table into one TagRule per host, named after the host.
func DefaultRules(cfg config.OutboundConfig) (RuleSet, error) {
	table, err := PartnerTable(cfg)
	if err != nil {
		return RuleSet{}, err
	}
	rules := make([]AffiliateRule, 0, len(table))
	for _, p := range table {
		rules = append(rules, TagRule(p.Host, p.Param, p.Tag, p.Host))
	}
	return NewRuleSet(rules...)
}
