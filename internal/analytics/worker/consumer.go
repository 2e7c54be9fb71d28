package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-backend/internal/analytics/router"
	"github.com/angelmondragon/storefront-backend/internal/analytics/types"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// consumerName scopes idempotency markers to the analytics subscription.
const consumerName = "analytics"

// Handler records one order event.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

type processedMarkers interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID string) (bool, error)
	Delete(ctx context.Context, consumer string, eventID string) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Consumer reads the analytics subscription of the orders topic. An event is
// recorded at most once while its marker lives; a failed event releases the
// marker and is redelivered.
type Consumer struct {
	sub     receiver
	handler Handler
	markers processedMarkers
	logg    *logger.Logger
}

func NewConsumer(sub *gcppubsub.Subscriber, handler Handler, markers processedMarkers, logg *logger.Logger) (*Consumer, error) {
	switch {
	case sub == nil:
		return nil, errors.New("analytics subscription is required")
	case handler == nil:
		return nil, errors.New("order event handler is required")
	case markers == nil:
		return nil, errors.New("idempotency manager is required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}
	return &Consumer{sub: sub, handler: handler, markers: markers, logg: logg}, nil
}

type verdict int

const (
	ack verdict = iota
	nack
)

// Run blocks until ctx is canceled or the subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.sub.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if c.consume(ctx, msg) == nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) consume(ctx context.Context, msg *gcppubsub.Message) verdict {
	ctx = c.logg.WithField(ctx, "message_id", msg.ID)

	envelope, err := decodeEnvelope(msg)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "dropping malformed order event")
		return ack
	}
	ctx = c.logg.WithFields(ctx, eventFields(envelope, msg))

	seen, err := c.markers.CheckAndMarkProcessed(ctx, consumerName, envelope.EventID)
	if err != nil {
		c.logg.Error(ctx, "order event idempotency check failed", err)
		return nack
	}
	if seen {
		c.logg.Info(ctx, "order event already recorded")
		return ack
	}

	err = c.handler.Handle(ctx, envelope)
	switch {
	case err == nil:
		c.logg.Info(ctx, "order event recorded")
		return ack
	case errors.Is(err, router.ErrUnsupportedEventType):
		c.logg.Debug(ctx, "order event not tracked by analytics")
		return ack
	}

	c.logg.Error(ctx, "order event handler failed", err)
	if err := c.markers.Delete(ctx, consumerName, envelope.EventID); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "delete_error", err.Error()), "failed to release idempotency marker")
	}
	return nack
}

// decodeEnvelope reads the relayed outbox envelope. Routing comes from the
// message attributes; the envelope's own event id and time win when present.
func decodeEnvelope(msg *gcppubsub.Message) (types.Envelope, error) {
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }

	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return types.Envelope{}, fmt.Errorf("decode payload envelope: %w", err)
	}
	eventType, err := enums.ParseOutboxEventType(attr("event_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID := attr("aggregate_id")
	if aggregateID == "" {
		return types.Envelope{}, errors.New("aggregate_id missing")
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = attr("event_id")
	}
	if eventID == "" {
		return types.Envelope{}, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, attr("created_at")); err == nil {
			occurredAt = parsed
		}
	}

	return types.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}

func eventFields(envelope types.Envelope, msg *gcppubsub.Message) map[string]any {
	fields := map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     envelope.EventType,
		"aggregate_type": envelope.AggregateType,
		"aggregate_id":   envelope.AggregateID,
		"occurred_at":    envelope.OccurredAt.Format(time.RFC3339Nano),
	}
	for _, key := range []string{"parent_order_id", "customer_id"} {
		if value := strings.TrimSpace(msg.Attributes[key]); value != "" {
			fields[key] = value
		}
	}
	return fields
}
