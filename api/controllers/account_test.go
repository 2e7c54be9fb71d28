package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/addresses"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type stubAddressService struct {
	list      []addresses.Address
	err       error
	lastID    string
	lastInput types.Address
	deleted   bool
}

func (s *stubAddressService) List(ctx context.Context, customerID string) ([]addresses.Address, error) {
	return s.list, s.err
}

func (s *stubAddressService) Create(ctx context.Context, customerID string, addr types.Address) (*addresses.Address, error) {
	s.lastInput = addr
	if s.err != nil {
		return nil, s.err
	}
	return &addresses.Address{ID: uuid.New(), Address: addr, IsDefault: true}, nil
}

func (s *stubAddressService) Update(ctx context.Context, customerID, addressID string, addr types.Address) (*addresses.Address, error) {
	s.lastID = addressID
	s.lastInput = addr
	if s.err != nil {
		return nil, s.err
	}
	return &addresses.Address{ID: uuid.MustParse(addressID), Address: addr}, nil
}

func (s *stubAddressService) Delete(ctx context.Context, customerID, addressID string) error {
	s.lastID = addressID
	s.deleted = s.err == nil
	return s.err
}

const addressBody = `{"name":"Ana","phone":"9999999999","street":"1 MG Road","city":"Pune","state":"Maharashtra","zip":"411001","country":"IN"}`

func TestAddressCreate(t *testing.T) {
	svc := &stubAddressService{}
	resp := httptest.NewRecorder()
	AddressCreate(svc, nil).ServeHTTP(resp, customerRequest(http.MethodPost, "/api/v1/account/addresses", strings.NewReader(addressBody)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.City != "Pune" {
		t.Fatalf("unexpected input %+v", svc.lastInput)
	}
}

func TestAddressCreateRejectsMissingFields(t *testing.T) {
	svc := &stubAddressService{}
	resp := httptest.NewRecorder()
	AddressCreate(svc, nil).ServeHTTP(resp, customerRequest(http.MethodPost, "/api/v1/account/addresses", strings.NewReader(`{"name":"Ana"}`)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Details["city"] == "" || envelope.Error.Details["zip"] == "" {
		t.Fatalf("expected field details, got %v", envelope.Error.Details)
	}
}

func TestAddressUpdateAndDelete(t *testing.T) {
	svc := &stubAddressService{}
	id := uuid.NewString()

	req := withParams(customerRequest(http.MethodPut, "/api/v1/account/addresses/"+id, strings.NewReader(addressBody)), map[string]string{"addressId": id})
	resp := httptest.NewRecorder()
	AddressUpdate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.lastID != id {
		t.Fatalf("update: code=%d id=%q", resp.Code, svc.lastID)
	}

	req = withParams(customerRequest(http.MethodDelete, "/api/v1/account/addresses/"+id, nil), map[string]string{"addressId": id})
	resp = httptest.NewRecorder()
	AddressDelete(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent || !svc.deleted {
		t.Fatalf("delete: code=%d deleted=%v", resp.Code, svc.deleted)
	}
}

func TestAddressDeleteMissing(t *testing.T) {
	svc := &stubAddressService{err: pkgerrors.New(pkgerrors.CodeNotFound, "address not found")}
	req := withParams(customerRequest(http.MethodDelete, "/", nil), map[string]string{"addressId": uuid.NewString()})
	resp := httptest.NewRecorder()
	AddressDelete(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

type stubWishlistService struct {
	page    wishlist.Page
	err     error
	added   []string
	removed []string
}

func (s *stubWishlistService) List(ctx context.Context, customerID string, params pagination.Params) (wishlist.Page, error) {
	return s.page, s.err
}

func (s *stubWishlistService) Add(ctx context.Context, customerID, productID string) error {
	s.added = append(s.added, productID)
	return s.err
}

func (s *stubWishlistService) Remove(ctx context.Context, customerID, productID string) error {
	s.removed = append(s.removed, productID)
	return s.err
}

func TestWishlistFlow(t *testing.T) {
	svc := &stubWishlistService{page: wishlist.Page{Items: []wishlist.Item{{Product: catalog.ProductSummary{ID: "p-1"}}}}}

	resp := httptest.NewRecorder()
	WishlistList(svc, nil).ServeHTTP(resp, customerRequest(http.MethodGet, "/api/v1/account/wishlist", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"p-1"`) {
		t.Fatalf("list: code=%d body=%s", resp.Code, resp.Body.String())
	}

	req := withParams(customerRequest(http.MethodPut, "/api/v1/account/wishlist/p-2", nil), map[string]string{"productId": "p-2"})
	resp = httptest.NewRecorder()
	WishlistAdd(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || len(svc.added) != 1 || svc.added[0] != "p-2" {
		t.Fatalf("add: code=%d added=%v", resp.Code, svc.added)
	}

	req = withParams(customerRequest(http.MethodDelete, "/api/v1/account/wishlist/p-2", nil), map[string]string{"productId": "p-2"})
	resp = httptest.NewRecorder()
	WishlistRemove(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent || len(svc.removed) != 1 {
		t.Fatalf("remove: code=%d removed=%v", resp.Code, svc.removed)
	}
}

func TestWishlistAddUnknownProduct(t *testing.T) {
	svc := &stubWishlistService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	req := withParams(customerRequest(http.MethodPut, "/", nil), map[string]string{"productId": "nope"})
	resp := httptest.NewRecorder()
	WishlistAdd(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

type stubSearchService struct {
	terms   []string
	cleared bool
	last    string
}

func (s *stubSearchService) Record(ctx context.Context, userID, term string) ([]string, error) {
	s.last = term
	s.terms = append([]string{term}, s.terms...)
	return s.terms, nil
}

func (s *stubSearchService) List(ctx context.Context, userID string) ([]string, error) {
	return s.terms, nil
}

func (s *stubSearchService) Clear(ctx context.Context, userID string) error {
	s.cleared = true
	s.terms = nil
	return nil
}

func TestRecentSearches(t *testing.T) {
	svc := &stubSearchService{}

	resp := httptest.NewRecorder()
	RecentSearches(svc, nil).ServeHTTP(resp, customerRequest(http.MethodGet, "/api/v1/account/searches", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"terms":[]`) {
		t.Fatalf("list: code=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	RecordSearch(svc, nil).ServeHTTP(resp, customerRequest(http.MethodPost, "/api/v1/account/searches", strings.NewReader(`{"term":"sneakers"}`)))
	if resp.Code != http.StatusOK || svc.last != "sneakers" {
		t.Fatalf("record: code=%d last=%q", resp.Code, svc.last)
	}

	resp = httptest.NewRecorder()
	RecordSearch(svc, nil).ServeHTTP(resp, customerRequest(http.MethodPost, "/api/v1/account/searches", strings.NewReader(`{}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing term, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	ClearSearches(svc, nil).ServeHTTP(resp, customerRequest(http.MethodDelete, "/api/v1/account/searches", nil))
	if resp.Code != http.StatusNoContent || !svc.cleared {
		t.Fatalf("clear: code=%d cleared=%v", resp.Code, svc.cleared)
	}
}
