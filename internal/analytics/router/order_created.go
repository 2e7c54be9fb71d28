package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/storefront-backend/internal/analytics/writer"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCreatedHandler{writer: writer, logg: logg}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_created")
	}

	fields := map[string]any{
		"event_type":      envelope.EventType,
		"parent_order_id": event.ParentOrderID,
		"customer_id":     event.CustomerID,
		"order_count":     len(event.Orders),
	}
	logCtx := h.logg.WithFields(ctx, fields)

	rows, err := buildOrderCreatedRows(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order event rows", err)
		return err
	}
	if len(rows) == 0 {
		h.logg.Warn(logCtx, "order_created carried no child orders")
		return nil
	}

	if err := h.writer.InsertOrderEvents(logCtx, rows); err != nil {
		h.logg.Error(logCtx, "failed to insert order event rows", err)
		return err
	}

	h.logg.Info(logCtx, "order_created handler inserted order event rows")
	return nil
}

func buildOrderCreatedRows(envelope types.Envelope, event *payloads.OrderCreatedEvent) ([]types.OrderEventRow, error) {
	payloadJSON, err := analyticswriter.PayloadColumn(envelope.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload json: %w", err)
	}

	occurredAt := envelope.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = event.CreatedAt
	}

	rows := make([]types.OrderEventRow, 0, len(event.Orders))
	for _, line := range event.Orders {
		rows = append(rows, types.OrderEventRow{
			EventID:       envelope.EventID,
			EventType:     string(envelope.EventType),
			ParentOrderID: event.ParentOrderID,
			OrderID:       line.OrderID,
			CustomerID:    event.CustomerID,
			VendorID:      stringPtr(line.VendorID),
			Subtotal:      int64Ptr(line.Subtotal),
			Discount:      int64Ptr(line.Discount),
			Shipping:      int64Ptr(line.Shipping),
			Total:         line.Total,
			CouponCode:    stringPtr(event.CouponCode),
			OccurredAt:    occurredAt.UTC(),
			Payload:       payloadJSON,
		})
	}
	return rows, nil
}

func stringPtr(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}
