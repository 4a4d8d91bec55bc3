package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yepso-store/api/internal/platform/identity"
	"github.com/yepso-store/api/internal/services"
)

type stubCheckoutSvc struct {
	createFn func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error)
	codFn    func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error)
}

func (s *stubCheckoutSvc) CreateOrder(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.CheckoutResult{}, nil
}

func (s *stubCheckoutSvc) CreateCODOrder(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
	if s.codFn != nil {
		return s.codFn(ctx, cmd)
	}
	return services.CheckoutResult{}, nil
}

func newCheckoutRouter(svc services.CheckoutService) chi.Router {
	r := chi.NewRouter()
	NewCheckoutHandlers(svc).Routes(r)
	return r
}

const checkoutBody = `{
	"email": "asha@example.com",
	"shipping_address": {
		"name": "Asha Rao",
		"street": "14 MG Road",
		"city": "Bengaluru",
		"state": "Karnataka",
		"postal_code": "560001",
		"phone": "9876543210"
	}
}`

func TestCheckoutCreateOrderReturnsPaymentReferences(t *testing.T) {
	var got services.CheckoutCommand
	svc := &stubCheckoutSvc{
		createFn: func(_ context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			got = cmd
			return services.CheckoutResult{
				Order:           services.Order{ID: "ord-1", Status: "pending", Total: 36900, Currency: "INR"},
				ProviderOrderID: "order_rzp_1",
				ProviderKeyID:   "rzp_test_key",
			}, nil
		},
	}
	router := newCheckoutRouter(svc)

	rec := httptest.NewRecorder()
	req := identityRequest(http.MethodPost, "/orders", strings.NewReader(checkoutBody), identity.Resolution{
		Account: &identity.Account{ID: "acct-1"},
		CartID:  "acct-1",
	})
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got.CartID != "acct-1" || got.AccountID != "acct-1" {
		t.Fatalf("unexpected identity on command: %+v", got)
	}
	if got.Email != "asha@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}
	// Absent billing address falls back to the shipping address.
	if got.BillingAddress != got.ShippingAddress {
		t.Fatalf("expected billing to default to shipping, got %+v", got.BillingAddress)
	}

	var resp struct {
		Order   orderPayload `json:"order"`
		Payment struct {
			ProviderOrderID string `json:"provider_order_id"`
			KeyID           string `json:"key_id"`
		} `json:"payment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Order.ID != "ord-1" || resp.Order.Total != 36900 {
		t.Fatalf("unexpected order payload: %+v", resp.Order)
	}
	if resp.Payment.ProviderOrderID != "order_rzp_1" || resp.Payment.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected payment payload: %+v", resp.Payment)
	}
}

func TestCheckoutCODOmitsPaymentBlock(t *testing.T) {
	svc := &stubCheckoutSvc{
		codFn: func(_ context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{
				Order: services.Order{ID: "ord-2", Status: "cod_pending", Total: 12000, Currency: "INR"},
			}, nil
		},
	}
	router := newCheckoutRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, anonymousRequest(http.MethodPost, "/cod", strings.NewReader(checkoutBody), "cart-1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["payment"]; ok {
		t.Fatalf("cod response must not carry a payment block: %s", rec.Body.String())
	}
}

func TestCheckoutHonoursExplicitBillingAddress(t *testing.T) {
	var got services.CheckoutCommand
	svc := &stubCheckoutSvc{
		createFn: func(_ context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			got = cmd
			return services.CheckoutResult{Order: services.Order{ID: "ord-3"}}, nil
		},
	}
	router := newCheckoutRouter(svc)

	body := `{
		"email": "asha@example.com",
		"shipping_address": {"name":"Asha Rao","street":"14 MG Road","city":"Bengaluru","state":"Karnataka","postal_code":"560001","phone":"9876543210"},
		"billing_address": {"name":"Asha Rao","street":"2 Residency Road","city":"Bengaluru","state":"Karnataka","postal_code":"560025","phone":"9876543210"}
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, anonymousRequest(http.MethodPost, "/orders", strings.NewReader(body), "cart-1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got.BillingAddress.Street != "2 Residency Road" || got.BillingAddress.PostalCode != "560025" {
		t.Fatalf("billing address not forwarded: %+v", got.BillingAddress)
	}
}

func TestCheckoutEmptyCartMapsTo422(t *testing.T) {
	svc := &stubCheckoutSvc{
		createFn: func(context.Context, services.CheckoutCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{}, services.ErrCheckoutEmptyCart
		},
	}
	router := newCheckoutRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, anonymousRequest(http.MethodPost, "/orders", strings.NewReader(checkoutBody), "cart-1"))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body.Bytes()); code != "cart_empty" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestCheckoutProviderOutageMapsTo503(t *testing.T) {
	svc := &stubCheckoutSvc{
		createFn: func(context.Context, services.CheckoutCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{}, services.ErrCheckoutUnavailable
		},
	}
	router := newCheckoutRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, anonymousRequest(http.MethodPost, "/orders", strings.NewReader(checkoutBody), "cart-1"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCheckoutInvalidBuyerMapsTo400(t *testing.T) {
	svc := &stubCheckoutSvc{
		createFn: func(context.Context, services.CheckoutCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{}, services.ErrCheckoutInvalidInput
		},
	}
	router := newCheckoutRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, anonymousRequest(http.MethodPost, "/orders", strings.NewReader(checkoutBody), "cart-1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckoutWithoutIdentityIsUnavailable(t *testing.T) {
	router := newCheckoutRouter(&stubCheckoutSvc{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(checkoutBody)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
