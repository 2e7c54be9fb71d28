package coupons

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository reads and mutates coupon rows.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByCode looks a coupon up case-insensitively. Missing rows surface as
// gorm.ErrRecordNotFound.
func (r *Repository) FindByCode(ctx context.Context, code string) (Record, error) {
	var row models.Coupon
	err := r.DB(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		Take(&row).Error
	if err != nil {
		return Record{}, err
	}
	return recordFromModel(row)
}

// IncrementUsage bumps usage_count inside the caller's transaction. The bump
// only lands while usage_count is below the coupon's limit; otherwise the
// caller gets a validation error and must roll back.
func (r *Repository) IncrementUsage(ctx context.Context, tx *gorm.DB, code string) error {
	if tx == nil {
		tx = r.DB(ctx)
	}
	db := tx.WithContext(ctx)
	code = strings.TrimSpace(code)

	var row models.Coupon
	if err := db.Where("LOWER(code) = ?", strings.ToLower(code)).Take(&row).Error; err != nil {
		if pkgdb.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, ReasonNotFound).
				WithDetails(map[string]string{"couponCode": code})
		}
		return err
	}
	rec, err := recordFromModel(row)
	if err != nil {
		return err
	}
	coupon := Normalize(rec)

	query := db.Model(&models.Coupon{}).Where("id = ?", row.ID)
	if limit := usageCap(coupon); limit > 0 {
		if coupon.UsageCount >= limit {
			return usageExceeded(code)
		}
		query = query.Where("usage_count < ?", limit)
	}
	res := query.Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usageExceeded(code)
	}
	return nil
}

// usageCap is the tighter of usageLimit and totalQuantity, 0 when unlimited.
func usageCap(c Coupon) int64 {
	limit := c.UsageLimit
	if c.TotalQuantity > 0 && (limit <= 0 || c.TotalQuantity < limit) {
		limit = c.TotalQuantity
	}
	if limit < 0 {
		return 0
	}
	return limit
}

func usageExceeded(code string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, ReasonUsageExceeded).
		WithDetails(map[string]string{"couponCode": code})
}

// ExpireStale flags every coupon whose valid_to has passed and returns their
// codes. valid_to is read the same way FindByCode reads it, so a bare date
// expires only once its day is over. A nil tx runs on the base connection.
func (r *Repository) ExpireStale(ctx context.Context, tx *gorm.DB, now time.Time) ([]string, error) {
	db := r.DB(ctx)
	if tx != nil {
		db = tx.WithContext(ctx)
	}
	var candidates []models.Coupon
	if err := db.
		Select("id", "code", "valid_to").
		Where("is_expired = ? AND valid_to IS NOT NULL AND valid_to < ?", false, now).
		Order("code ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(candidates))
	codes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !now.After(validToColumn(*c.ValidTo).End()) {
			continue
		}
		ids = append(ids, c.ID)
		codes = append(codes, c.Code)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := db.
		Model(&models.Coupon{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_expired": true, "updated_at": now}).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// recordFromModel overlays the queryable columns on top of the loose attributes.
func recordFromModel(row models.Coupon) (Record, error) {
	var rec Record
	if len(row.Attributes) > 0 {
		if err := json.Unmarshal(row.Attributes, &rec); err != nil {
			return Record{}, fmt.Errorf("decode coupon %s attributes: %w", row.ID, err)
		}
	}
	rec.ID = row.ID
	rec.Code = row.Code
	if row.Title != nil && strings.TrimSpace(*row.Title) != "" {
		rec.Title = *row.Title
	}
	rec.IsExpired = rec.IsExpired || row.IsExpired
	if row.ValidTo != nil {
		validTo := validToColumn(*row.ValidTo)
		rec.ValidTo = &validTo
	}
	used := int64(row.UsageCount)
	if rec.UsageCount == nil || rec.UsageCount.IntPart() < used {
		rec.UsageCount = NumberOf(used)
	}
	return rec, nil
}

// validToColumn reads the valid_to column. A value at exactly 00:00 UTC is a
// bare date and covers that whole day.
func validToColumn(t time.Time) Instant {
	t = t.UTC()
	return Instant{Time: t, DateOnly: t.Equal(t.Truncate(24 * time.Hour))}
}
