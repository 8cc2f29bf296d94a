package clicks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wishlify/wishlify-backend/internal/outbound"
	dbpkg "github.com/wishlify/wishlify-backend/pkg/db"
	"github.com/wishlify/wishlify-backend/pkg/db/models"
	"github.com/wishlify/wishlify-backend/pkg/outbox"
	"github.com/wishlify/wishlify-backend/pkg/outbox/payloads"
)

func newTestClient(t *testing.T) *dbpkg.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboundClick{}, &models.OutboxEvent{}))
	return dbpkg.Wrap(conn)
}

func sampleClick() outbound.Click {
	ref := "https://wishlify.test/l/wl-1"
	ua := "Mozilla/5.0"
	return outbound.Click{
		Hostname:   "www.amazon.com",
		URL:        "https://www.amazon.com/dp/B000",
		WishID:     "w-1",
		WishlistID: "wl-1",
		Referrer:   &ref,
		UserAgent:  &ua,
		CreatedAt:  time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecordClickWithoutExport(t *testing.T) {
	client := newTestClient(t)
	repo := NewRepository(client, nil)

	require.NoError(t, repo.RecordClick(context.Background(), sampleClick()))

	var rows []models.OutboundClick
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.NotEqual(t, uuid.Nil, rows[0].ID)
	assert.Equal(t, "www.amazon.com", rows[0].Hostname)
	assert.Equal(t, "https://www.amazon.com/dp/B000", rows[0].URL)
	require.NotNil(t, rows[0].Referrer)
	assert.Equal(t, "https://wishlify.test/l/wl-1", *rows[0].Referrer)

	var events int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestRecordClickEmitsOutboxEvent(t *testing.T) {
	client := newTestClient(t)
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), nil)
	repo := NewRepository(client, emitter)

	require.NoError(t, repo.RecordClick(context.Background(), sampleClick()))

	var click models.OutboundClick
	require.NoError(t, client.DB().First(&click).Error)

	var event models.OutboxEvent
	require.NoError(t, client.DB().First(&event).Error)
	assert.Equal(t, click.ID, event.AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(event.Payload, &envelope))
	var data payloads.OutboundClickRecordedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, click.ID, data.ClickID)
	assert.Equal(t, click.URL, data.URL)
	assert.True(t, data.CreatedAt.Equal(click.CreatedAt))
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) (uuid.UUID, error) {
	return uuid.Nil, errors.New("outbox unavailable")
}

func TestRecordClickRollsBackWhenEmitFails(t *testing.T) {
	client := newTestClient(t)
	repo := NewRepository(client, failingEmitter{})

	err := repo.RecordClick(context.Background(), sampleClick())
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboundClick{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordClickRejectsIncompleteClick(t *testing.T) {
	client := newTestClient(t)
	repo := NewRepository(client, nil)

	click := sampleClick()
	click.URL = ""
	assert.Error(t, repo.RecordClick(context.Background(), click))
}

func TestRecordClickDefaultsTimestamp(t *testing.T) {
	client := newTestClient(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := NewRepository(client, nil)
	repo.now = func() time.Time { return fixed }

	click := sampleClick()
	click.CreatedAt = time.Time{}
	require.NoError(t, repo.RecordClick(context.Background(), click))

	var row models.OutboundClick
	require.NoError(t, client.DB().First(&row).Error)
	assert.True(t, row.CreatedAt.Equal(fixed))
}
