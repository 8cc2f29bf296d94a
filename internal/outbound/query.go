package outbound

import (
	"net/url"
	"strings"
)

// Destination queries are edited as text. Pairs url.ParseQuery would drop (a ';' or
// a bad escape) and every pair not owned here stay byte for byte.

// rawQueryKey is the decoded key of one k=v pair, or the raw key when it does not
// unescape.
func rawQueryKey(pair string) string {
	key, _, _ := strings.Cut(pair, "=")
	if decoded, err := url.QueryUnescape(key); err == nil {
		return decoded
	}
	return key
}

// hasRawParam reports whether raw carries key, with or without a value.
func hasRawParam(raw, key string) bool {
	if raw == "" {
		return false
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair != "" && rawQueryKey(pair) == key {
			return true
		}
	}
	return false
}

// appendRawParam adds key=value after the existing pairs.
func appendRawParam(raw, key, value string) string {
	pair := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if raw == "" {
		return pair
	}
	if strings.HasSuffix(raw, "&") {
		return raw + pair
	}
	return raw + "&" + pair
}

// setRawParam drops every pair for key and appends key=value.
func setRawParam(raw, key, value string) string {
	if raw == "" {
		return appendRawParam("", key, value)
	}
	pairs := strings.Split(raw, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		if pair != "" && rawQueryKey(pair) == key {
			continue
		}
		kept = append(kept, pair)
	}
	return appendRawParam(strings.Join(kept, "&"), key, value)
}
