package outbound

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wishlify/wishlify-backend/pkg/config"
)

func TestBaseHost(t *testing.T) {
	cases := map[string]string{
		"amazon.com":           "amazon.com",
		"www.amazon.com":       "amazon.com",
		"m.amazon.com":         "amazon.com",
		"smile.amazon.com":     "amazon.com",
		"WWW.Amazon.COM":       "amazon.com",
		"www.amazon.com:443":   "amazon.com",
		"amazon.com.":          "amazon.com",
		"www.smile.amazon.com": "smile.amazon.com",
		"shop.test":            "shop.test",
		"www.":                 "www",
	}
	for in, want := range cases {
		assert.Equal(t, want, BaseHost(in), "BaseHost(%q)", in)
	}
}

func TestTagRuleMatchesVanityHosts(t *testing.T) {
	rules, err := NewRuleSet(TagRule("amazon.com", "tag", "wishlify-20", "amazon.com"))
	require.NoError(t, err)

	for _, host := range []string{"amazon.com", "www.amazon.com", "m.amazon.com", "smile.amazon.com"} {
		u := mustParse(t, "https://"+host+"/dp/X")
		assert.Equal(t, "amazon.com", rules.Apply(u), host)
		assert.Equal(t, "wishlify-20", u.Query().Get("tag"), host)
	}
}

func TestTagRuleOverwritesForeignTag(t *testing.T) {
	rules, err := NewRuleSet(TagRule("amazon.com", "tag", "wishlify-20", "amazon.com"))
	require.NoError(t, err)

	u := mustParse(t, "https://amazon.com/dp/X?tag=foreign-20&tag=other-21&th=1")
	rules.Apply(u)

	q := u.Query()
	assert.Equal(t, []string{"wishlify-20"}, q["tag"])
	assert.Equal(t, "1", q.Get("th"))
}

func TestTagRuleKeepsUnparseablePairs(t *testing.T) {
	rules, err := NewRuleSet(TagRule("amazon.com", "tag", "wishlify-20", "amazon.com"))
	require.NoError(t, err)

	u := mustParse(t, "https://www.amazon.com/dp/X?tag=foreign-20&ref=x;y&q=%zz")
	assert.Equal(t, "amazon.com", rules.Apply(u))
	assert.Equal(t, "ref=x;y&q=%zz&tag=wishlify-20", u.RawQuery)

	other := mustParse(t, "https://shop.test/item?a=1;b=2")
	assert.Empty(t, rules.Apply(other))
	assert.Equal(t, "a=1;b=2", other.RawQuery)
}

func TestRuleSetFirstMatchWins(t *testing.T) {
	var calls []string
	record := func(name string) AffiliateRule {
		return AffiliateRule{
			Name:  name,
			Match: func(base string) bool { return base == "shop.test" },
			Apply: func(u *url.URL) {
				calls = append(calls, name)
				q := u.Query()
				q.Add("aff", name)
				u.RawQuery = q.Encode()
			},
		}
	}
	rules, err := NewRuleSet(record("first"), record("second"))
	require.NoError(t, err)

	u := mustParse(t, "https://www.shop.test/item")
	assert.Equal(t, "first", rules.Apply(u))
	assert.Equal(t, []string{"first"}, calls)
	assert.Equal(t, []string{"first"}, u.Query()["aff"])
}

func TestRuleSetNoMatchLeavesURL(t *testing.T) {
	rules, err := NewRuleSet(TagRule("amazon.com", "tag", "wishlify-20", "amazon.com"))
	require.NoError(t, err)

	u := mustParse(t, "https://notamazon.com/p?x=1")
	assert.Equal(t, "", rules.Apply(u))
	assert.Equal(t, "https://notamazon.com/p?x=1", u.String())

	var empty RuleSet
	assert.Equal(t, "", empty.Apply(u))
	assert.Equal(t, "", empty.Apply(nil))
}

func TestNewRuleSetRejectsInvalidRules(t *testing.T) {
	_, err := NewRuleSet(AffiliateRule{Name: "", Match: func(string) bool { return true }, Apply: func(*url.URL) {}})
	assert.Error(t, err)

	_, err = NewRuleSet(AffiliateRule{Name: "nomatch", Apply: func(*url.URL) {}})
	assert.Error(t, err)

	_, err = NewRuleSet(TagRule("dup", "t", "1", "a.com"), TagRule("dup", "t", "2", "b.com"))
	assert.Error(t, err)
}

func TestNewRuleSetCopiesInput(t *testing.T) {
	input := []AffiliateRule{TagRule("a.com", "t", "1", "a.com")}
	rules, err := NewRuleSet(input...)
	require.NoError(t, err)

	input[0] = TagRule("b.com", "t", "2", "b.com")
	assert.Equal(t, []string{"a.com"}, rules.Names())
}

func TestDefaultRules(t *testing.T) {
	rules, err := DefaultRules(config.OutboundConfig{
		AmazonTag:   "wishlify-20",
		PartnerTags: []string{"www.etsy.com:ref=wl", " bol.com : partnerid = 7 "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"amazon.com", "etsy.com", "bol.com"}, rules.Names())

	u := mustParse(t, "https://m.bol.com/nl/p/123")
	assert.Equal(t, "bol.com", rules.Apply(u))
	assert.Equal(t, "7", u.Query().Get("partnerid"))
}

func TestDefaultRulesWithoutAmazonTag(t *testing.T) {
	rules, err := DefaultRules(config.OutboundConfig{})
	require.NoError(t, err)
	assert.Equal(t, 0, rules.Len())
}

func TestDefaultRulesRejectsBadPartnerEntries(t *testing.T) {
	for _, entry := range []string{"etsy.com", "etsy.com:ref", "etsy.com:=x", ":ref=x"} {
		_, err := DefaultRules(config.OutboundConfig{PartnerTags: []string{entry}})
		assert.Error(t, err, entry)
	}

	_, err := DefaultRules(config.OutboundConfig{AmazonTag: "wishlify-20", PartnerTags: []string{"amazon.com:tag=x"}})
	assert.Error(t, err, "duplicate host must be rejected")
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
