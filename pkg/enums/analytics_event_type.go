package enums

import "fmt"

// AnalyticsEventType is the event_type the analytics worker routes on.
type AnalyticsEventType string

const (
	AnalyticsEventOutboundClick AnalyticsEventType = "outbound_click_recorded"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventOutboundClick,
}

func (a AnalyticsEventType) IsValid() bool {
	for _, candidate := range validAnalyticsEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventType converts the raw string to AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	for _, candidate := range validAnalyticsEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event type %q", value)
}
