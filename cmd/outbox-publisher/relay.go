package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxErrorBackoff       = 10 * time.Second
	backoffJitter         = 250 * time.Millisecond
)

type txPinger interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type eventStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetters interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// RelayParams wires the order event relay. Publishers defaults to one cached
// Pub/Sub publisher per topic.
type RelayParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          txPinger
	PubSub      pubSubClient
	Events      eventStore
	Registry    eventResolver
	DeadLetters deadLetters
	Publishers  publisherSource
	Clock       func() time.Time
}

// Relay moves committed outbox rows (orders placed, cancelled, paid, coupons
// expired) onto their Pub/Sub topics.
type Relay struct {
	logg         *logger.Logger
	db           txPinger
	pubsub       pubSubClient
	events       eventStore
	registry     eventResolver
	deadLetters  deadLetters
	publishers   publisherSource
	now          func() time.Time
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetried
	outcomeDeadLettered
)

// batchTally counts what happened to each row of one batch.
type batchTally struct {
	published    int
	retried      int
	deadLettered int
}

func (t *batchTally) add(o outcome) {
	switch o {
	case outcomePublished:
		t.published++
	case outcomeRetried:
		t.retried++
	case outcomeDeadLettered:
		t.deadLettered++
	}
}

func (t batchTally) total() int {
	return t.published + t.retried + t.deadLettered
}

func NewRelay(params RelayParams) (*Relay, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Events == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DeadLetters == nil:
		return nil, errors.New("dead letter repository is required")
	}

	relay := &Relay{
		logg:         params.Logger,
		db:           params.DB,
		pubsub:       params.PubSub,
		events:       params.Events,
		registry:     params.Registry,
		deadLetters:  params.DeadLetters,
		publishers:   params.Publishers,
		now:          params.Clock,
		batchSize:    params.Config.Outbox.BatchSize,
		maxAttempts:  params.Config.Outbox.MaxAttempts,
		pollInterval: time.Duration(params.Config.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if relay.publishers == nil {
		relay.publishers = cachedPublishers(params.PubSub)
	}
	if relay.now == nil {
		relay.now = time.Now
	}
	if relay.batchSize <= 0 {
		relay.batchSize = defaultBatchSize
	}
	if relay.maxAttempts <= 0 {
		relay.maxAttempts = defaultMaxAttempts
	}
	if relay.pollInterval <= 0 {
		relay.pollInterval = defaultPollInterval
	}
	return relay, nil
}

// Run relays batches until ctx is done. A full batch is followed immediately
// by the next one, an empty poll waits one interval, and failed batches back
// off exponentially up to maxErrorBackoff.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	backoff := r.errorBackoff()
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "order event relay stopping")
			return err
		}

		tally, err := r.relayBatch(ctx)
		wait := r.pollInterval
		switch {
		case err != nil:
			r.logg.Error(ctx, "order event batch failed", err)
			wait, _ = backoff.Next()
		case tally.total() > 0:
			backoff = r.errorBackoff()
			continue
		default:
			backoff = r.errorBackoff()
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *Relay) ready(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		r.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.pubsub.Ping(ctx); err != nil {
		r.logg.Error(ctx, "pubsub ping failed", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}
	return nil
}

func (r *Relay) errorBackoff() retry.Backoff {
	b := retry.NewExponential(r.pollInterval)
	b = retry.WithCappedDuration(maxErrorBackoff, b)
	return retry.WithJitter(backoffJitter, b)
}

// relayBatch claims one batch of rows and settles every row before the
// transaction commits. Only bookkeeping failures abort the batch.
func (r *Relay) relayBatch(ctx context.Context) (batchTally, error) {
	var tally batchTally
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.events.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		for _, row := range rows {
			o, err := r.relayOne(ctx, tx, row)
			if err != nil {
				return err
			}
			tally.add(o)
		}
		return nil
	})
	if err != nil {
		return batchTally{}, err
	}
	if tally.total() > 0 {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"published":     tally.published,
			"retried":       tally.retried,
			"dead_lettered": tally.deadLettered,
		}), "order events relayed")
	}
	return tally, nil
}

func (r *Relay) relayOne(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (outcome, error) {
	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, err, rowFields(row, nil))
	}
	fields := rowFields(row, resolved)

	err = r.publish(ctx, row, resolved)
	var nonRetryable registry.NonRetryableError
	switch {
	case err == nil:
		if err := r.events.MarkPublishedTx(tx, row.ID); err != nil {
			return 0, fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.logg.Debug(r.logg.WithFields(ctx, fields), "order event published")
		return outcomePublished, nil

	case errors.As(err, &nonRetryable):
		return r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, err, fields)

	case row.AttemptCount+1 >= r.maxAttempts:
		err = fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, err)
		return r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonMaxAttempts, err, fields)
	}

	fields["attempt_count"] = row.AttemptCount + 1
	fields["error"] = err.Error()
	r.logg.Warn(r.logg.WithFields(ctx, fields), "order event publish failed, will retry")
	if err := r.events.MarkFailedTx(tx, row.ID, err); err != nil {
		return 0, fmt.Errorf("mark failed %s: %w", row.ID, err)
	}
	return outcomeRetried, nil
}

func (r *Relay) deadLetter(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) (outcome, error) {
	fields["dlq_reason"] = reason
	fields["error"] = cause.Error()
	r.logg.Warn(r.logg.WithFields(ctx, fields), "order event dead-lettered")

	message := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       row.ID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		Payload:       row.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &message,
		AttemptCount:  row.AttemptCount,
		FailedAt:      r.now().UTC(),
	}
	if err := r.deadLetters.InsertTx(tx, entry); err != nil {
		return 0, fmt.Errorf("insert dead letter %s: %w", row.ID, err)
	}
	if err := r.events.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return 0, fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	return outcomeDeadLettered, nil
}

func (r *Relay) publish(ctx context.Context, row models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := r.publishers(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(ctx, orderMessage(row, resolved))
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher for topic %s returned no result", topic))
	}
	_, err := result.Get(ctx)
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
