package clicks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wishlify/wishlify-backend/internal/outbound"
	"github.com/wishlify/wishlify-backend/pkg/db/models"
	"github.com/wishlify/wishlify-backend/pkg/enums"
	"github.com/wishlify/wishlify-backend/pkg/outbox"
	"github.com/wishlify/wishlify-backend/pkg/outbox/payloads"
)

const eventSource = "outbound_redirect"

// Transactor runs fn inside a database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EventEmitter writes an outbox event within the caller's transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (uuid.UUID, error)
}

// Repository appends outbound click rows. It has no update or delete path.
type Repository struct {
	tx      Transactor
	emitter EventEmitter
	now     func() time.Time
}

// NewRepository builds the click store. A nil emitter disables the analytics export.
func NewRepository(tx Transactor, emitter EventEmitter) *Repository {
	return &Repository{tx: tx, emitter: emitter, now: time.Now}
}

// RecordClick inserts the click and, when exporting, its outbox event in one transaction.
func (r *Repository) RecordClick(ctx context.Context, click outbound.Click) error {
	if click.Hostname == "" || click.URL == "" {
		return errors.New("click hostname and url are required")
	}
	createdAt := click.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	row := models.OutboundClick{
		ID:         uuid.New(),
		Hostname:   click.Hostname,
		URL:        click.URL,
		WishID:     click.WishID,
		WishlistID: click.WishlistID,
		Referrer:   click.Referrer,
		UserAgent:  click.UserAgent,
		CreatedAt:  createdAt.UTC(),
	}

	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if r.emitter == nil {
			return nil
		}
		_, err := r.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOutboundClickRecorded,
			AggregateType: enums.AggregateOutboundClick,
			AggregateID:   row.ID,
			Source:        eventSource,
			Version:       1,
			OccurredAt:    row.CreatedAt,
			Data: payloads.OutboundClickRecordedEvent{
				ClickID:    row.ID,
				WishID:     row.WishID,
				WishlistID: row.WishlistID,
				Hostname:   row.Hostname,
				URL:        row.URL,
				Referrer:   row.Referrer,
				UserAgent:  row.UserAgent,
				CreatedAt:  row.CreatedAt,
			},
		})
		return err
	})
}
