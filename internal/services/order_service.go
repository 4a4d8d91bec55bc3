package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yepso-store/api/internal/repositories"
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the order does not exist or belongs to another account.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderUnavailable indicates the order store cannot be reached.
var ErrOrderUnavailable = errors.New("order service: unavailable")

var errOrderRepositoryRequired = errors.New("order service: repository is required")

// OrderServiceDeps wires the repository for order reads.
type OrderServiceDeps struct {
	Repository repositories.OrderRepository
	Logger     func(context.Context, string, map[string]any)
}

type orderService struct {
	repo   repositories.OrderRepository
	logger func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errOrderRepositoryRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{repo: deps.Repository, logger: logger}, nil
}

// ListForAccount returns the account's orders. A transport failure degrades
// to an empty history rather than an error page.
func (s *orderService) ListForAccount(ctx context.Context, accountID string) ([]Order, error) {
	id := strings.TrimSpace(accountID)
	if id == "" {
		return nil, ErrOrderInvalidInput
	}

	orders, err := s.repo.ListByAccount(ctx, id)
	if err != nil {
		if isRepoUnavailable(err) {
			s.logger(ctx, "orders.history_degraded", map[string]any{
				"account_id": id,
				"error":      err.Error(),
			})
			return []Order{}, nil
		}
		return nil, ErrOrderUnavailable
	}
	return orders, nil
}

// Get loads an order and enforces ownership. An order owned by a different
// account is indistinguishable from a missing one.
func (s *orderService) Get(ctx context.Context, accountID, orderID string) (Order, error) {
	aid := strings.TrimSpace(accountID)
	oid := strings.TrimSpace(orderID)
	if aid == "" || oid == "" {
		return Order{}, ErrOrderInvalidInput
	}

	order, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if isRepoNotFound(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, ErrOrderUnavailable
	}
	if order.AccountID != aid {
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}
