package router

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wishlify/wishlify-backend/internal/analytics/types"
	analyticswriter "github.com/wishlify/wishlify-backend/internal/analytics/writer"
	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/outbox/payloads"
)

type outboundClickHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOutboundClickHandler(writer Writer, logg *logger.Logger) Handler {
	return &outboundClickHandler{writer: writer, logg: logg}
}

func (h *outboundClickHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OutboundClickRecordedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"click_id":    event.ClickID.String(),
		"hostname":    event.Hostname,
		"wishlist_id": event.WishlistID,
		"wish_id":     event.WishID,
	})

	row, err := buildOutboundClickRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build outbound click row", err)
		return err
	}
	if err := h.writer.InsertOutboundClick(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert outbound click row", err)
		return err
	}

	h.logg.Debug(logCtx, "outbound click exported")
	return nil
}

func buildOutboundClickRow(envelope types.Envelope, event *payloads.OutboundClickRecordedEvent) (types.OutboundClickRow, error) {
	if event.ClickID == uuid.Nil {
		return types.OutboundClickRow{}, fmt.Errorf("click_id missing")
	}
	if event.Hostname == "" || event.URL == "" {
		return types.OutboundClickRow{}, fmt.Errorf("hostname and url are required")
	}
	payloadJSON, err := analyticswriter.EncodeJSON(envelope.Payload)
	if err != nil {
		return types.OutboundClickRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	occurredAt := event.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = envelope.OccurredAt
	}

	return types.OutboundClickRow{
		EventID:    envelope.EventID,
		ClickID:    event.ClickID.String(),
		OccurredAt: occurredAt.UTC(),
		WishID:     event.WishID,
		WishlistID: event.WishlistID,
		Hostname:   event.Hostname,
		URL:        event.URL,
		Referrer:   nullString(event.Referrer),
		UserAgent:  nullString(event.UserAgent),
		Payload:    payloadJSON,
	}, nil
}
