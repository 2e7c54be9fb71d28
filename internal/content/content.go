// Package content serves the storefront's static pages: blogs and FAQs.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type BlogSummary struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	CoverImage  string    `json:"coverImage,omitempty"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

type Blog struct {
	BlogSummary
	Body string `json:"body"`
}

type BlogList = pagination.Page[BlogSummary]

type FAQ struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
	Position int    `json:"position"`
}

// Repository reads blogs and faqs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListPublishedBlogs(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Blog, error) {
	query := r.db.WithContext(ctx).
		Where("published = ? AND published_at IS NOT NULL", true)
	if cursor != nil {
		query = query.Where("(published_at < ?) OR (published_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Blog
	err := query.
		Order("published_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	return rows, err
}

// FindPublishedBlog matches on id first, then on slug.
func (r *Repository) FindPublishedBlog(ctx context.Context, idOrSlug string) (*models.Blog, error) {
	var row models.Blog
	err := r.db.WithContext(ctx).
		Where("published = ? AND id = ?", true, idOrSlug).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !pkgdb.IsNotFound(err) {
		return nil, err
	}
	err = r.db.WithContext(ctx).
		Where("published = ? AND slug = ?", true, strings.ToLower(idOrSlug)).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListFAQs(ctx context.Context, category string) ([]models.FAQ, error) {
	query := r.db.WithContext(ctx)
	if category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	var rows []models.FAQ
	err := query.Order("position ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// Service exposes the content pages.
type Service interface {
	ListBlogs(ctx context.Context, params pagination.Params) (*BlogList, error)
	GetBlog(ctx context.Context, idOrSlug string) (*Blog, error)
	ListFAQs(ctx context.Context, category string) ([]FAQ, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("content repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListBlogs(ctx context.Context, params pagination.Params) (*BlogList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListPublishedBlogs(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list blogs")
	}
	items := make([]BlogSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, blogSummary(row))
	}
	page := pagination.Trim(items, params.Limit, func(b BlogSummary) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.PublishedAt, ID: b.ID}
	})
	return &page, nil
}

func (s *service) GetBlog(ctx context.Context, idOrSlug string) (*Blog, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blog id or slug is required")
	}
	row, err := s.repo.FindPublishedBlog(ctx, idOrSlug)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "blog not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blog")
	}
	return &Blog{BlogSummary: blogSummary(*row), Body: row.Body}, nil
}

func (s *service) ListFAQs(ctx context.Context, category string) ([]FAQ, error) {
	rows, err := s.repo.ListFAQs(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list faqs")
	}
	out := make([]FAQ, 0, len(rows))
	for _, row := range rows {
		faq := FAQ{ID: row.ID, Question: row.Question, Answer: row.Answer, Position: row.Position}
		if row.Category != nil {
			faq.Category = *row.Category
		}
		out = append(out, faq)
	}
	return out, nil
}

func blogSummary(row models.Blog) BlogSummary {
	s := BlogSummary{ID: row.ID, Slug: row.Slug, Title: row.Title}
	if row.Excerpt != nil {
		s.Excerpt = *row.Excerpt
	}
	if row.CoverImage != nil {
		s.CoverImage = *row.CoverImage
	}
	if row.Author != nil {
		s.Author = *row.Author
	}
	if row.PublishedAt != nil {
		s.PublishedAt = *row.PublishedAt
	}
	return s
}
