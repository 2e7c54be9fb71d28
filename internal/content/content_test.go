package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func setupContentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:content_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range []string{
		`CREATE TABLE blogs (id TEXT PRIMARY KEY, slug TEXT NOT NULL UNIQUE, title TEXT NOT NULL, excerpt TEXT, body TEXT NOT NULL, cover_image TEXT, author TEXT, published BOOLEAN NOT NULL DEFAULT false, published_at DATETIME, created_at DATETIME);`,
		`CREATE TABLE faqs (id TEXT PRIMARY KEY, question TEXT NOT NULL, answer TEXT NOT NULL, category TEXT, position INTEGER NOT NULL DEFAULT 0);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func timePtr(v time.Time) *time.Time { return &v }

func TestBlogsPublishedNewestFirst(t *testing.T) {
	db := setupContentTestDB(t)
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]models.Blog{
		{ID: "b1", Slug: "first", Title: "First", Body: "one", Published: true, PublishedAt: timePtr(base)},
		{ID: "b2", Slug: "second", Title: "Second", Body: "two", Published: true, PublishedAt: timePtr(base.Add(time.Hour))},
		{ID: "b3", Slug: "draft", Title: "Draft", Body: "three"},
		{ID: "b4", Slug: "third", Title: "Third", Body: "four", Published: true, PublishedAt: timePtr(base.Add(2 * time.Hour))},
	}).Error)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	page, err := svc.ListBlogs(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "b4", page.Items[0].ID)
	assert.Equal(t, "b2", page.Items[1].ID)

	next, err := svc.ListBlogs(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "b1", next.Items[0].ID)

	blog, err := svc.GetBlog(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "two", blog.Body)

	blog, err = svc.GetBlog(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "first", blog.Slug)

	_, err = svc.GetBlog(ctx, "draft")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFAQsOrderedByPosition(t *testing.T) {
	db := setupContentTestDB(t)
	shipping := "Shipping"
	require.NoError(t, db.Create(&[]models.FAQ{
		{ID: "f1", Question: "Returns?", Answer: "30 days", Position: 2},
		{ID: "f2", Question: "Delivery time?", Answer: "3-5 days", Category: &shipping, Position: 1},
		{ID: "f3", Question: "Free shipping?", Answer: "With coupons", Category: &shipping, Position: 3},
	}).Error)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	all, err := svc.ListFAQs(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"f2", "f1", "f3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	filtered, err := svc.ListFAQs(context.Background(), "shipping")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "Shipping", filtered[0].Category)
}
