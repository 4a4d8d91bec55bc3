package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yepso-store/api/internal/platform/identity"
	"github.com/yepso-store/api/internal/services"
)

type stubOrderSvc struct {
	listFn func(ctx context.Context, accountID string) ([]services.Order, error)
	getFn  func(ctx context.Context, accountID, orderID string) (services.Order, error)
}

func (s *stubOrderSvc) ListForAccount(ctx context.Context, accountID string) ([]services.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, accountID)
	}
	return []services.Order{}, nil
}

func (s *stubOrderSvc) Get(ctx context.Context, accountID, orderID string) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, accountID, orderID)
	}
	return services.Order{}, services.ErrOrderNotFound
}

func newOrderRouter(svc services.OrderService) chi.Router {
	r := chi.NewRouter()
	NewOrderHandlers(svc).Routes(r)
	return r
}

func authenticatedRequest(method, target, accountID string, admin bool) *http.Request {
	return identityRequest(method, target, nil, identity.Resolution{
		Account: &identity.Account{ID: accountID, Admin: admin},
		CartID:  accountID,
	})
}

func TestOrdersListRequiresAccount(t *testing.T) {
	router := newOrderRouter(&stubOrderSvc{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, anonymousRequest(http.MethodGet, "/", nil, "cart-1"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOrdersListScopedToAccount(t *testing.T) {
	var gotAccount string
	svc := &stubOrderSvc{
		listFn: func(_ context.Context, accountID string) ([]services.Order, error) {
			gotAccount = accountID
			return []services.Order{{ID: "ord-1", Status: "paid", Total: 36900}}, nil
		},
	}
	router := newOrderRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodGet, "/", "acct-1", false))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if gotAccount != "acct-1" {
		t.Fatalf("expected list for acct-1, got %q", gotAccount)
	}
	var resp struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].ID != "ord-1" {
		t.Fatalf("unexpected orders payload: %+v", resp.Orders)
	}
}

func TestOrdersGetMapsForeignOrderTo404(t *testing.T) {
	svc := &stubOrderSvc{
		getFn: func(context.Context, string, string) (services.Order, error) {
			return services.Order{}, services.ErrOrderNotFound
		},
	}
	router := newOrderRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodGet, "/ord-9", "acct-1", false))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body.Bytes()); code != "order_not_found" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestOrdersListDegradedStoreMapsTo503(t *testing.T) {
	svc := &stubOrderSvc{
		listFn: func(context.Context, string) ([]services.Order, error) {
			return nil, services.ErrOrderUnavailable
		},
	}
	router := newOrderRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodGet, "/", "acct-1", false))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
