package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/internal/content"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubContentService struct {
	blogs        *content.BlogList
	blog         *content.Blog
	faqs         []content.FAQ
	err          error
	lastSlug     string
	lastCategory string
}

func (s *stubContentService) ListBlogs(ctx context.Context, params pagination.Params) (*content.BlogList, error) {
	return s.blogs, s.err
}

func (s *stubContentService) GetBlog(ctx context.Context, idOrSlug string) (*content.Blog, error) {
	s.lastSlug = idOrSlug
	return s.blog, s.err
}

func (s *stubContentService) ListFAQs(ctx context.Context, category string) ([]content.FAQ, error) {
	s.lastCategory = category
	return s.faqs, s.err
}

func TestListBlogs(t *testing.T) {
	svc := &stubContentService{blogs: &content.BlogList{Items: []content.BlogSummary{{ID: "b-1", Slug: "spring-drop"}}}}
	resp := httptest.NewRecorder()
	ListBlogs(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/blogs", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "spring-drop") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestBlogDetailBySlug(t *testing.T) {
	svc := &stubContentService{blog: &content.Blog{BlogSummary: content.BlogSummary{ID: "b-1", Slug: "spring-drop"}, Body: "hello"}}
	req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/blogs/spring-drop", nil), map[string]string{"idOrSlug": "spring-drop"})

	resp := httptest.NewRecorder()
	BlogDetail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastSlug != "spring-drop" {
		t.Fatalf("unexpected slug %q", svc.lastSlug)
	}
}

func TestBlogDetailMissing(t *testing.T) {
	svc := &stubContentService{err: pkgerrors.New(pkgerrors.CodeNotFound, "blog not found")}
	req := withParams(httptest.NewRequest(http.MethodGet, "/api/v1/blogs/nope", nil), map[string]string{"idOrSlug": "nope"})

	resp := httptest.NewRecorder()
	BlogDetail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListFAQsPassesCategory(t *testing.T) {
	svc := &stubContentService{faqs: []content.FAQ{{ID: "f-1", Question: "Returns?", Position: 1}}}
	resp := httptest.NewRecorder()
	ListFAQs(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/faqs?category=shipping", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastCategory != "shipping" {
		t.Fatalf("unexpected category %q", svc.lastCategory)
	}
}
