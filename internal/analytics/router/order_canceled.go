package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/storefront-backend/internal/analytics/writer"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type orderCanceledHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCanceledHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCanceledHandler{writer: writer, logg: logg}
}

func (h *orderCanceledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCanceledEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_canceled")
	}
	fields := map[string]any{
		"event_type": envelope.EventType,
		"order_id":   event.OrderID,
		"vendor_id":  event.VendorID,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := buildOrderCanceledRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build cancellation row", err)
		return err
	}

	if err := h.writer.InsertOrderEvents(logCtx, []types.OrderEventRow{row}); err != nil {
		h.logg.Error(logCtx, "failed to insert order event row", err)
		return err
	}

	h.logg.Info(logCtx, "order_canceled handler inserted order event row")
	return nil
}

// Cancellation rows carry the negated child total.
func buildOrderCanceledRow(envelope types.Envelope, event *payloads.OrderCanceledEvent) (types.OrderEventRow, error) {
	payloadJSON, err := analyticswriter.PayloadColumn(envelope.Payload)
	if err != nil {
		return types.OrderEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	occurredAt := event.CanceledAt
	if occurredAt.IsZero() {
		occurredAt = envelope.OccurredAt
	}

	return types.OrderEventRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		ParentOrderID: event.ParentOrderID,
		OrderID:       event.OrderID,
		CustomerID:    event.CustomerID,
		VendorID:      stringPtr(event.VendorID),
		Total:         -event.Total,
		OccurredAt:    occurredAt.UTC(),
		Payload:       payloadJSON,
	}, nil
}
