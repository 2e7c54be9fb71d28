package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newCouponDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:coupons_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE coupons (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		title TEXT,
		attributes TEXT NOT NULL DEFAULT '{}',
		is_expired BOOLEAN NOT NULL DEFAULT false,
		valid_to DATETIME,
		usage_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, row models.Coupon) {
	t.Helper()
	require.NoError(t, db.Create(&row).Error)
}

func TestRepositoryFindByCodeOverlaysColumns(t *testing.T) {
	db := newCouponDB(t)
	validTo := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	title := "Flat 200"
	seedCoupon(t, db, models.Coupon{
		ID:         "c1",
		Code:       "Flat200",
		Title:      &title,
		Attributes: []byte(`{"type":"fixed","minSpend":500,"isActive":true,"usageCount":1,"usageLimit":5,"validTo":"2020-01-01"}`),
		ValidTo:    &validTo,
		UsageCount: 4,
	})

	repo := NewRepository(db)
	rec, err := repo.FindByCode(context.Background(), "  flat200 ")
	require.NoError(t, err)
	require.Equal(t, "c1", rec.ID)
	require.Equal(t, "Flat 200", rec.Title)
	require.True(t, rec.ValidTo.Equal(validTo))
	require.True(t, rec.ValidTo.DateOnly, "midnight column is a bare date")
	require.Equal(t, int64(4), rec.UsageCount.IntPart())

	c := Normalize(rec)
	require.Equal(t, int64(200), c.Value.IntPart())
	require.Equal(t, int64(500), c.MinSpend)
	require.True(t, Evaluate(1000, &c, time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)).Valid)
	require.False(t, Evaluate(1000, &c, time.Date(2027, 1, 1, 0, 0, 1, 0, time.UTC)).Valid)

	cutoff := time.Date(2026, 12, 31, 18, 30, 0, 0, time.UTC)
	seedCoupon(t, db, models.Coupon{
		ID:         "c2",
		Code:       "EVENING",
		Attributes: []byte(`{"type":"fixed","discountValue":50,"isActive":true,"validTo":"2026-12-31"}`),
		ValidTo:    &cutoff,
	})
	rec, err = repo.FindByCode(context.Background(), "evening")
	require.NoError(t, err)
	require.False(t, rec.ValidTo.DateOnly, "timed column is an exact instant")
	c = Normalize(rec)
	require.True(t, c.ValidTo.Equal(cutoff))
	require.False(t, Evaluate(1000, &c, cutoff.Add(time.Minute)).Valid)

	_, err = repo.FindByCode(context.Background(), "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryIncrementUsage(t *testing.T) {
	db := newCouponDB(t)
	seedCoupon(t, db, models.Coupon{ID: "c1", Code: "SAVE10", Attributes: []byte(`{}`)})

	repo := NewRepository(db)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.IncrementUsage(context.Background(), tx, "save10")
	}))

	var row models.Coupon
	require.NoError(t, db.First(&row, "id = ?", "c1").Error)
	require.Equal(t, 1, row.UsageCount)
}

func TestRepositoryIncrementUsageStopsAtLimit(t *testing.T) {
	db := newCouponDB(t)
	seedCoupon(t, db, models.Coupon{ID: "c1", Code: "ONCE", Attributes: []byte(`{"usageLimit":2}`), UsageCount: 1})
	seedCoupon(t, db, models.Coupon{ID: "c2", Code: "STALE", Attributes: []byte(`{"usageCount":3,"totalQuantity":3}`)})

	repo := NewRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.IncrementUsage(ctx, nil, "once"))

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.IncrementUsage(ctx, tx, "ONCE")
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	require.True(t, pkgerrors.IsCode(repo.IncrementUsage(ctx, nil, "stale"), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.IsCode(repo.IncrementUsage(ctx, nil, "missing"), pkgerrors.CodeValidation))

	var rows []models.Coupon
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	require.Equal(t, 2, rows[0].UsageCount)
	require.Equal(t, 0, rows[1].UsageCount)
}

func TestRepositoryExpireStale(t *testing.T) {
	db := newCouponDB(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	yesterday := today.Add(-24 * time.Hour)
	seedCoupon(t, db, models.Coupon{ID: "old", Code: "OLD", Attributes: []byte(`{}`), ValidTo: &past})
	seedCoupon(t, db, models.Coupon{ID: "new", Code: "NEW", Attributes: []byte(`{}`), ValidTo: &future})
	seedCoupon(t, db, models.Coupon{ID: "open", Code: "OPEN", Attributes: []byte(`{}`)})
	seedCoupon(t, db, models.Coupon{ID: "today", Code: "TODAY", Attributes: []byte(`{}`), ValidTo: &today})
	seedCoupon(t, db, models.Coupon{ID: "yesterday", Code: "YESTERDAY", Attributes: []byte(`{}`), ValidTo: &yesterday})

	repo := NewRepository(db)
	codes, err := repo.ExpireStale(context.Background(), nil, now)
	require.NoError(t, err)
	require.Equal(t, []string{"OLD", "YESTERDAY"}, codes)

	var expired []models.Coupon
	require.NoError(t, db.Where("is_expired = ?", true).Order("id ASC").Find(&expired).Error)
	require.Len(t, expired, 2)
	require.Equal(t, "old", expired[0].ID)
	require.Equal(t, "yesterday", expired[1].ID)

	codes, err = repo.ExpireStale(context.Background(), nil, now)
	require.NoError(t, err)
	require.Empty(t, codes)
}
