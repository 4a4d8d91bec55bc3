package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/notifications"
	"github.com/yepso-store/api/internal/payments"
	"github.com/yepso-store/api/internal/repositories"
)

// ErrCheckoutInvalidInput indicates the caller supplied invalid input.
var ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")

// ErrCheckoutEmptyCart indicates checkout was attempted on an empty cart.
var ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")

// ErrCheckoutUnavailable indicates the order could not be persisted or the
// provider could not be reached. The caller may retry.
var ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

var (
	errCheckoutCartRequired     = errors.New("checkout service: cart service is required")
	errCheckoutOrdersRequired   = errors.New("checkout service: order repository is required")
	errCheckoutPaymentsRequired = errors.New("checkout service: payment repository is required")
	errCheckoutManagerRequired  = errors.New("checkout service: payment manager is required")
)

// CheckoutServiceDeps wires the dependencies for order creation.
type CheckoutServiceDeps struct {
	Carts    CartService
	Orders   repositories.OrderRepository
	Payments repositories.PaymentRepository
	Provider *payments.Manager
	// Notifier is optional; when set, COD orders trigger a confirmation email.
	Notifier    notifications.Notifier
	Currency    string
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type checkoutService struct {
	carts    CartService
	orders   repositories.OrderRepository
	payments repositories.PaymentRepository
	provider *payments.Manager
	notifier notifications.Notifier
	currency string
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errCheckoutCartRequired
	}
	if deps.Orders == nil {
		return nil, errCheckoutOrdersRequired
	}
	if deps.Payments == nil {
		return nil, errCheckoutPaymentsRequired
	}
	if deps.Provider == nil {
		return nil, errCheckoutManagerRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "INR"
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &checkoutService{
		carts:    deps.Carts,
		orders:   deps.Orders,
		payments: deps.Payments,
		provider: deps.Provider,
		notifier: deps.Notifier,
		currency: currency,
		now:      func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

// CreateOrder runs the provider path: persist a pending order, record its
// payment at created, then open the provider-side order and link it back.
// The cart is left intact; only the paid webhook clears it.
func (s *checkoutService) CreateOrder(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	order, err := s.buildOrder(ctx, cmd, domain.OrderStatusPending)
	if err != nil {
		return CheckoutResult{}, err
	}

	providerKey, provider, err := s.provider.Resolve("")
	if err != nil {
		s.logger(ctx, "checkout.provider_unavailable", map[string]any{
			"error": err.Error(),
		})
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return CheckoutResult{}, s.translateRepoError(err)
	}

	now := s.now()
	payment := domain.Payment{
		ID:        s.newID(),
		OrderID:   order.ID,
		Provider:  providerKey,
		Amount:    order.Total * 100,
		Currency:  order.Currency,
		Status:    domain.PaymentStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.payments.Insert(ctx, payment); err != nil {
		s.logger(ctx, "checkout.payment_record_failed", map[string]any{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return CheckoutResult{}, s.translateRepoError(err)
	}

	providerOrder, err := provider.CreateOrder(ctx, payments.CreateOrderRequest{
		AmountMinor: order.Total * 100,
		Currency:    order.Currency,
		Receipt:     order.ID,
		Notes: map[string]string{
			"order_id": order.ID,
			"cart_id":  order.CartID,
		},
	})
	if err != nil {
		// The pending order and its created payment stay behind as an
		// audit trail; the buyer retries checkout and the cart is untouched.
		s.logger(ctx, "checkout.provider_order_failed", map[string]any{
			"order_id":   order.ID,
			"payment_id": payment.ID,
			"error":      err.Error(),
		})
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	if err := s.payments.SetProviderOrderID(ctx, payment.ID, providerOrder.ID); err != nil {
		s.logger(ctx, "checkout.payment_link_failed", map[string]any{
			"order_id":          order.ID,
			"payment_id":        payment.ID,
			"provider_order_id": providerOrder.ID,
			"error":             err.Error(),
		})
		return CheckoutResult{}, s.translateRepoError(err)
	}

	return CheckoutResult{
		Order:           order,
		ProviderOrderID: providerOrder.ID,
		ProviderKeyID:   provider.KeyID(),
	}, nil
}

// CreateCODOrder runs the cash-on-delivery path: the order is committed at
// cod_pending and the cart is cleared immediately.
func (s *checkoutService) CreateCODOrder(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	order, err := s.buildOrder(ctx, cmd, domain.OrderStatusCODPending)
	if err != nil {
		return CheckoutResult{}, err
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return CheckoutResult{}, s.translateRepoError(err)
	}

	if err := s.carts.Clear(ctx, order.CartID); err != nil {
		// The order is committed; a lingering cart is recoverable by the
		// buyer, so this does not fail the checkout.
		s.logger(ctx, "checkout.cod_cart_clear_failed", map[string]any{
			"order_id": order.ID,
			"cart_id":  order.CartID,
			"error":    err.Error(),
		})
	}

	s.notifyConfirmed(ctx, order)

	return CheckoutResult{Order: order}, nil
}

// notifyConfirmed sends the COD confirmation email without holding up the
// response. Provider-path orders are confirmed by the webhook instead.
func (s *checkoutService) notifyConfirmed(ctx context.Context, order domain.Order) {
	if s.notifier == nil || strings.TrimSpace(order.Email) == "" {
		return
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		subject := fmt.Sprintf("Order %s confirmed", order.ID)
		if err := s.notifier.Send(sendCtx, order.Email, subject, orderConfirmationHTML(order)); err != nil {
			s.logger(sendCtx, "checkout.notification_failed", map[string]any{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}()
}

// buildOrder validates the command, reads the cart and freezes its lines
// into an order at the requested status.
func (s *checkoutService) buildOrder(ctx context.Context, cmd CheckoutCommand, status domain.OrderStatus) (domain.Order, error) {
	cartID := strings.TrimSpace(cmd.CartID)
	if cartID == "" {
		return domain.Order{}, ErrCheckoutInvalidInput
	}
	if err := validateEmail(ErrCheckoutInvalidInput, cmd.Email); err != nil {
		return domain.Order{}, err
	}
	if err := validateAddress(ErrCheckoutInvalidInput, "shipping_address", cmd.ShippingAddress); err != nil {
		return domain.Order{}, err
	}
	if err := validateAddress(ErrCheckoutInvalidInput, "billing_address", cmd.BillingAddress); err != nil {
		return domain.Order{}, err
	}

	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrCartInvalidInput) {
			return domain.Order{}, ErrCheckoutInvalidInput
		}
		return domain.Order{}, ErrCheckoutUnavailable
	}
	if len(cart.Lines) == 0 {
		return domain.Order{}, ErrCheckoutEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Image:     line.Image,
			UnitPrice: line.EffectiveUnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal,
		})
	}

	now := s.now()
	return domain.Order{
		ID:              s.newID(),
		AccountID:       strings.TrimSpace(cmd.AccountID),
		CartID:          cartID,
		Email:           strings.TrimSpace(cmd.Email),
		Items:           items,
		ShippingAddress: cmd.ShippingAddress,
		BillingAddress:  cmd.BillingAddress,
		Subtotal:        cart.Subtotal,
		Shipping:        0,
		Tax:             0,
		Total:           cart.Subtotal,
		Currency:        s.currency,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *checkoutService) translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case isRepoNotFound(err):
		return fmt.Errorf("%w: order not found", ErrCheckoutInvalidInput)
	default:
		return ErrCheckoutUnavailable
	}
}
