package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. One row is written
// per child order affected by an event.
type OrderEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	ParentOrderID string             `bigquery:"parent_order_id"`
	OrderID       string             `bigquery:"order_id"`
	CustomerID    string             `bigquery:"customer_id"`
	VendorID      *string            `bigquery:"vendor_id"`
	Subtotal      *int64             `bigquery:"subtotal"`
	Discount      *int64             `bigquery:"discount"`
	Shipping      *int64             `bigquery:"shipping"`
	Total         int64              `bigquery:"total"`
	CouponCode    *string            `bigquery:"coupon_code"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

// InsertID de-duplicates streaming inserts when a batch is retried.
func (r OrderEventRow) InsertID() string {
	return r.EventID + ":" + r.OrderID
}

// Save implements bigquery.ValueSaver so retried inserts reuse the same insert id.
func (r *OrderEventRow) Save() (map[string]cbigquery.Value, string, error) {
	saver := &cbigquery.StructSaver{Struct: r, InsertID: r.InsertID()}
	return saver.Save()
}
