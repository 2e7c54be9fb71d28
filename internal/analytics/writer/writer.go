package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/storefront-backend/pkg/bigquery"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// Config sizes order_events batches and the insert retry schedule. Zero values
// fall back to the defaults above.
type Config struct {
	OrderEventsTable string
	BatchSize        int
	MaxAttempts      int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	return c
}

type rowInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// OrderEventWriter streams order_events rows into BigQuery. It is owned by a
// single consumer goroutine.
type OrderEventWriter struct {
	inserter rowInserter
	table    string
	cfg      Config
	pending  []types.OrderEventRow
}

func New(client *pkgbigquery.Client, cfg Config) (*OrderEventWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.OrderEventsTable)
	if table == "" {
		table = client.OrderEventsTable()
	}
	if table == "" {
		return nil, errors.New("order events table is required")
	}
	return newOrderEventWriter(client, table, cfg), nil
}

func newOrderEventWriter(inserter rowInserter, table string, cfg Config) *OrderEventWriter {
	return &OrderEventWriter{inserter: inserter, table: table, cfg: cfg.withDefaults()}
}

// InsertOrderEvents queues the rows of one order event and flushes once a
// full batch is pending.
func (w *OrderEventWriter) InsertOrderEvents(ctx context.Context, rows []types.OrderEventRow) error {
	w.pending = append(w.pending, rows...)
	if len(w.pending) < w.cfg.BatchSize {
		return nil
	}
	return w.Flush(ctx)
}

// Flush inserts every pending row. The batch is dropped either way; a failed
// event is redelivered through the nacked message.
func (w *OrderEventWriter) Flush(ctx context.Context) error {
	batch := w.pending
	w.pending = nil
	if len(batch) == 0 {
		return nil
	}

	values := make([]any, len(batch))
	for i := range batch {
		values[i] = &batch[i]
	}
	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		err := w.inserter.InsertRows(ctx, w.table, values)
		if transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("insert %d rows into %s: %w", len(batch), w.table, err)
	}
	return nil
}

func (w *OrderEventWriter) backoff() retry.Backoff {
	b := retry.NewExponential(w.cfg.InitialBackoff)
	b = retry.WithCappedDuration(w.cfg.MaxBackoff, b)
	return retry.WithMaxRetries(uint64(w.cfg.MaxAttempts-1), b)
}

var retryableHTTP = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var retryableGRPC = map[codes.Code]bool{
	codes.Aborted:           true,
	codes.DeadlineExceeded:  true,
	codes.Internal:          true,
	codes.ResourceExhausted: true,
	codes.Unavailable:       true,
}

// transient reports whether every cause behind err is worth another insert.
func transient(err error) bool {
	causes := causesOf(err)
	if len(causes) == 0 {
		return false
	}
	for _, cause := range causes {
		if !retryableCause(cause) {
			return false
		}
	}
	return true
}

// causesOf flattens the per-row and multi errors the BigQuery client returns.
func causesOf(err error) []error {
	if err == nil {
		return nil
	}
	var rows cbigquery.PutMultiError
	if errors.As(err, &rows) {
		var out []error
		for _, row := range rows {
			out = append(out, causesOf(row.Errors)...)
		}
		return out
	}
	var row *cbigquery.RowInsertionError
	if errors.As(err, &row) && row != nil {
		return causesOf(row.Errors)
	}
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		var out []error
		for _, inner := range multi {
			out = append(out, causesOf(inner)...)
		}
		return out
	}
	return []error{err}
}

func retryableCause(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableHTTP[apiErr.Code]
	}
	if st, ok := status.FromError(err); ok {
		return retryableGRPC[st.Code()]
	}
	return false
}

// PayloadColumn stores the raw event body in the order_events payload column.
// An empty or null body leaves the column NULL.
func PayloadColumn(raw json.RawMessage) (cbigquery.NullJSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cbigquery.NullJSON{}, nil
	}
	if !json.Valid(trimmed) {
		return cbigquery.NullJSON{}, errors.New("payload is not valid json")
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(trimmed)}, nil
}
