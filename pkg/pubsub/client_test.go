package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wishlify/wishlify-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		project, kind, name, want string
	}{
		{"wishlify", "topics", "wl-analytics-events", "projects/wishlify/topics/wl-analytics-events"},
		{"wishlify", "subscriptions", " wl-analytics-events-sub ", "projects/wishlify/subscriptions/wl-analytics-events-sub"},
		{"wishlify", "topics", "projects/other/topics/t", "projects/other/topics/t"},
		{"wishlify", "subscriptions", "projects/other/topics/t", "projects/wishlify/subscriptions/projects/other/topics/t"},
		{"", "topics", "t", ""},
		{"wishlify", "topics", "  ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resourceName(tc.project, tc.kind, tc.name), "%s/%s", tc.kind, tc.name)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, RolePublisher, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	assert.Nil(t, c.AnalyticsPublisher())
	assert.Nil(t, c.AnalyticsSubscription())
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
