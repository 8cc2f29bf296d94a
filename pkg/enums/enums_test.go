package enums

import "testing"

func TestParseOutboxTypes(t *testing.T) {
	if _, err := ParseOutboxEventType("outbound_click_recorded"); err != nil {
		t.Fatalf("expected click event to parse: %v", err)
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatal("expected unknown event type to fail")
	}
	if _, err := ParseOutboxAggregateType("outbound_click"); err != nil {
		t.Fatalf("expected aggregate to parse: %v", err)
	}
	if OutboxAggregateType("wish").IsValid() {
		t.Fatal("unexpected aggregate type accepted")
	}
}

func TestAnalyticsEventTypeMatchesOutboxEvent(t *testing.T) {
	got, err := ParseAnalyticsEventType(string(EventOutboundClickRecorded))
	if err != nil {
		t.Fatalf("outbox click event must route to analytics: %v", err)
	}
	if got != AnalyticsEventOutboundClick {
		t.Fatalf("unexpected analytics type %q", got)
	}
}

func TestWishlistVisibility(t *testing.T) {
	if _, err := ParseWishlistVisibility("public"); err != nil {
		t.Fatalf("public should parse: %v", err)
	}
	if _, err := ParseWishlistVisibility("friends"); err == nil {
		t.Fatal("expected unknown visibility to fail")
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() || OutboxDLQErrorReason("x").IsValid() {
		t.Fatal("dlq reason validation mismatch")
	}
}
