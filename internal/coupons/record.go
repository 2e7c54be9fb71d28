package coupons

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the stored coupon shape. Storefront admins wrote these with two
// naming conventions, so several fields have an alias.
type Record struct {
	ID             string   `json:"id,omitempty"`
	Code           string   `json:"code"`
	Title          string   `json:"title,omitempty"`
	Type           string   `json:"type,omitempty"`
	DiscountType   string   `json:"discountType,omitempty"`
	DiscountValue  *Number  `json:"discountValue,omitempty"`
	MinSpend       *Number  `json:"minSpend,omitempty"`
	MinOrderAmount *Number  `json:"minOrderAmount,omitempty"`
	IsActive       *bool    `json:"isActive,omitempty"`
	Status         string   `json:"status,omitempty"`
	IsExpired      bool     `json:"isExpired,omitempty"`
	ValidFrom      *Instant `json:"validFrom,omitempty"`
	ValidTo        *Instant `json:"validTo,omitempty"`
	UsageCount     *Number  `json:"usageCount,omitempty"`
	UsageLimit     *Number  `json:"usageLimit,omitempty"`
	TotalQuantity  *Number  `json:"totalQuantity,omitempty"`
}

// Number accepts JSON numbers and numeric strings ("200", "12.5").
type Number struct {
	decimal.Decimal
}

func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	raw := string(trimmed)
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			return nil
		}
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", raw, err)
	}
	n.Decimal = value
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

// NumberOf is a convenience constructor.
func NumberOf(v int64) *Number {
	return &Number{Decimal: decimal.NewFromInt(v)}
}

// Instant accepts RFC3339 timestamps, plain dates and unix milliseconds.
type Instant struct {
	time.Time
	// DateOnly marks values stored without a time component.
	DateOnly bool
}

// End is the last moment the instant covers: the end of the day for a bare
// date, the instant itself otherwise.
func (i Instant) End() time.Time {
	if i.DateOnly {
		return i.Time.Add(24*time.Hour - time.Nanosecond)
	}
	return i.Time
}

var instantLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

func (i *Instant) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] != '"' {
		millis, err := strconv.ParseInt(string(trimmed), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", trimmed, err)
		}
		i.Time = time.UnixMilli(millis).UTC()
		return nil
	}
	raw, err := strconv.Unquote(string(trimmed))
	if err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if day, err := time.Parse(time.DateOnly, raw); err == nil {
		i.Time = day
		i.DateOnly = true
		return nil
	}
	for _, layout := range instantLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			i.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", raw)
}

func (i Instant) MarshalJSON() ([]byte, error) {
	if i.DateOnly {
		return json.Marshal(i.Time.Format(time.DateOnly))
	}
	return json.Marshal(i.Time.UTC().Format(time.RFC3339Nano))
}
