package models

import (
	"encoding/json"
	"time"
)

// Coupon keeps the loose storefront record in Attributes; the columns are the
// fields the backend queries or mutates directly.
type Coupon struct {
	ID         string          `gorm:"column:id;primaryKey"`
	Code       string          `gorm:"column:code;not null"`
	Title      *string         `gorm:"column:title"`
	Attributes json.RawMessage `gorm:"column:attributes;type:jsonb;not null"`
	IsExpired  bool            `gorm:"column:is_expired;not null;default:false"`
	ValidTo    *time.Time      `gorm:"column:valid_to"`
	UsageCount int             `gorm:"column:usage_count;not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
