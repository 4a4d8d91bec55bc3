package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/yepso-store/api/internal/domain"
)

func newTestOrderService(t *testing.T, repo *stubOrderRepo) OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("NewOrderService returned error: %v", err)
	}
	return svc
}

func TestOrderListForAccount(t *testing.T) {
	repo := newStubOrderRepo()
	repo.orders["ord-1"] = domain.Order{ID: "ord-1", AccountID: "acct-1"}
	repo.orders["ord-2"] = domain.Order{ID: "ord-2", AccountID: "acct-2"}
	svc := newTestOrderService(t, repo)

	orders, err := svc.ListForAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("ListForAccount returned error: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "ord-1" {
		t.Fatalf("orders = %+v, want only ord-1", orders)
	}
}

func TestOrderListDegradesToEmptyOnTransportFailure(t *testing.T) {
	repo := newStubOrderRepo()
	repo.listErr = errRepoUnavailable
	svc := newTestOrderService(t, repo)

	orders, err := svc.ListForAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("ListForAccount returned error: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("orders = %+v, want empty", orders)
	}
}

func TestOrderGetEnforcesOwnership(t *testing.T) {
	repo := newStubOrderRepo()
	repo.orders["ord-1"] = domain.Order{ID: "ord-1", AccountID: "acct-1"}
	svc := newTestOrderService(t, repo)

	if _, err := svc.Get(context.Background(), "acct-1", "ord-1"); err != nil {
		t.Fatalf("Get returned error for owner: %v", err)
	}
	if _, err := svc.Get(context.Background(), "acct-2", "ord-1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign order: expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "acct-1", "ord-missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order: expected ErrOrderNotFound, got %v", err)
	}
}
