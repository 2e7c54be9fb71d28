package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

type publisherSource func(topic string) topicPublisher

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// orderRefs are the identifiers order event payloads carry. Subscribers filter
// on them without decoding the body.
type orderRefs struct {
	OrderID       string `json:"orderId"`
	ParentOrderID string `json:"parentOrderId"`
	CustomerID    string `json:"customerId"`
}

func refsOf(payload json.RawMessage) orderRefs {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.Data) == 0 {
		return orderRefs{}
	}
	var refs orderRefs
	if err := json.Unmarshal(envelope.Data, &refs); err != nil {
		return orderRefs{}
	}
	return refs
}

// orderMessage publishes the stored envelope as is; routing lives in the
// attributes.
func orderMessage(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(row.EventType),
		"aggregate_type": string(row.AggregateType),
		"aggregate_id":   row.AggregateID,
		"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
	}
	refs := refsOf(row.Payload)
	if refs.ParentOrderID != "" {
		attrs["parent_order_id"] = refs.ParentOrderID
	}
	if refs.CustomerID != "" {
		attrs["customer_id"] = refs.CustomerID
	}
	return &gcppubsub.Message{Data: row.Payload, Attributes: attrs}
}

func rowFields(row models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID,
		"attempt_count": row.AttemptCount,
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		fields["event_id"] = resolved.Envelope.EventID
	}
	refs := refsOf(row.Payload)
	if refs.ParentOrderID != "" {
		fields["parent_order_id"] = refs.ParentOrderID
	}
	if refs.CustomerID != "" {
		fields["customer_id"] = refs.CustomerID
	}
	if row.LastError != nil {
		fields["last_error"] = *row.LastError
	}
	return fields
}

// cachedPublishers keeps one publisher per topic. Missing handles are not
// cached so a later lookup can succeed.
func cachedPublishers(client pubSubClient) publisherSource {
	byTopic := make(map[string]topicPublisher)
	return func(topic string) topicPublisher {
		if pub, ok := byTopic[topic]; ok {
			return pub
		}
		handle := client.Publisher(topic)
		if handle == nil {
			return nil
		}
		pub := pubsubPublisher{handle}
		byTopic[topic] = pub
		return pub
	}
}

type pubsubPublisher struct {
	handle *gcppubsub.Publisher
}

func (p pubsubPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return pubsubResult{p.handle.Publish(ctx, msg)}
}

type pubsubResult struct {
	result *gcppubsub.PublishResult
}

func (r pubsubResult) Get(ctx context.Context) (string, error) {
	if r.result == nil {
		return "", errors.New("publish result is nil")
	}
	return r.result.Get(ctx)
}
