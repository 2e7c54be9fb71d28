package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCartService struct {
	state       cartsvc.State
	quote       cartsvc.Quote
	coupon      coupons.Result
	err         error
	lastUser    string
	lastAction  cartsvc.Action
	lastQuote   cartsvc.QuoteInput
	lastCode    string
	clearCalled bool
}

func (s *stubCartService) Get(ctx context.Context, userID string) (cartsvc.State, error) {
	s.lastUser = userID
	return s.state, s.err
}

func (s *stubCartService) Dispatch(ctx context.Context, userID string, action cartsvc.Action) (cartsvc.State, error) {
	s.lastUser = userID
	s.lastAction = action
	return s.state, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID string) error {
	s.clearCalled = true
	return s.err
}

func (s *stubCartService) Remove(ctx context.Context, userID string, refs []cartsvc.LineRef) error {
	return s.err
}

func (s *stubCartService) ApplyCoupon(ctx context.Context, userID, code string) (coupons.Result, error) {
	s.lastCode = code
	return s.coupon, s.err
}

func (s *stubCartService) ClearCoupon(ctx context.Context, userID string) (cartsvc.State, error) {
	return s.state, s.err
}

func (s *stubCartService) Quote(ctx context.Context, userID string, input cartsvc.QuoteInput) (cartsvc.Quote, error) {
	s.lastQuote = input
	return s.quote, s.err
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), "cust-1"))
}

func TestCartFetchSuccess(t *testing.T) {
	svc := &stubCartService{state: cartsvc.State{
		Items: []cartsvc.Item{
			{ProductID: "p-1", Price: 500, Quantity: 2},
			{ProductID: "p-2", Price: 300, Quantity: 1},
		},
		CouponCode: "SAVE10",
		UpdatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}}
	handler := CartFetch(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authed(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartdto.CartState `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ItemCount != 2 || envelope.Data.Units != 3 {
		t.Fatalf("unexpected counts: %+v", envelope.Data)
	}
	if envelope.Data.CouponCode != "SAVE10" {
		t.Fatalf("unexpected coupon %q", envelope.Data.CouponCode)
	}
	if svc.lastUser != "cust-1" {
		t.Fatalf("expected customer id from context, got %q", svc.lastUser)
	}
}

func TestCartFetchEmptyCartHasItemsArray(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authed(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)))

	if !strings.Contains(resp.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty items array, got %s", resp.Body.String())
	}
}

func TestCartFetchRequiresCustomer(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartDispatchDecodesAction(t *testing.T) {
	svc := &stubCartService{}
	handler := CartDispatch(svc, nil)

	body := `{"type":"add_item","item":{"productId":"p-1","price":1200,"quantity":1,"size":"M"}}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/actions", strings.NewReader(body)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastAction.Type != cartsvc.ActionAddItem {
		t.Fatalf("unexpected action %q", svc.lastAction.Type)
	}
	if svc.lastAction.Item == nil || svc.lastAction.Item.Size != "M" {
		t.Fatalf("item not decoded: %+v", svc.lastAction.Item)
	}
}

func TestCartDispatchRejectsInvalidItem(t *testing.T) {
	svc := &stubCartService{}
	handler := CartDispatch(svc, nil)

	body := `{"type":"add_item","item":{"productId":"p-1","price":1200,"quantity":0}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/actions", strings.NewReader(body))))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastAction.Type != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCartDispatchSurfacesReducerError(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeValidation, "unknown cart action")}
	handler := CartDispatch(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/actions", strings.NewReader(`{"type":"explode"}`))))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	resp := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if !svc.clearCalled {
		t.Fatalf("expected clear to be called")
	}
}

func TestCartQuotePassesDestination(t *testing.T) {
	svc := &stubCartService{quote: cartsvc.Quote{Summary: pricing.Summary{Subtotal: 1200, ShippingTotal: 80, FinalTotal: 1280}}}
	handler := CartQuote(svc, nil)

	body := `{"buyNow":true,"address":{"city":"Pune","state":"Maharashtra","country":"IN"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", strings.NewReader(body))))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.lastQuote.BuyNow || svc.lastQuote.Address == nil || svc.lastQuote.Address.City != "Pune" {
		t.Fatalf("unexpected quote input %+v", svc.lastQuote)
	}

	var envelope struct {
		Data cartsvc.Quote `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Summary.FinalTotal != 1280 {
		t.Fatalf("unexpected final total %d", envelope.Data.Summary.FinalTotal)
	}
}

func TestCartQuoteWithoutAddress(t *testing.T) {
	svc := &stubCartService{}
	resp := httptest.NewRecorder()
	CartQuote(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", strings.NewReader(`{}`))))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastQuote.Address != nil {
		t.Fatalf("expected nil destination")
	}
}

func TestCartApplyCouponInvalidIsOK(t *testing.T) {
	svc := &stubCartService{coupon: coupons.Result{Code: "OLD", Valid: false, Reason: "coupon has expired"}}
	resp := httptest.NewRecorder()
	CartApplyCoupon(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"OLD"}`))))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data coupons.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Valid || envelope.Data.Reason != "coupon has expired" {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
	if svc.lastCode != "OLD" {
		t.Fatalf("unexpected code %q", svc.lastCode)
	}
}

func TestCartApplyCouponRequiresCode(t *testing.T) {
	resp := httptest.NewRecorder()
	CartApplyCoupon(&stubCartService{}, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{}`))))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClearCoupon(t *testing.T) {
	svc := &stubCartService{state: cartsvc.State{Items: []cartsvc.Item{{ProductID: "p-1", Quantity: 1}}}}
	resp := httptest.NewRecorder()
	CartClearCoupon(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/coupon", nil)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "couponCode") {
		t.Fatalf("coupon should be absent, got %s", resp.Body.String())
	}
}
