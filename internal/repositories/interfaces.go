package repositories

import (
	"context"

	domain "github.com/yepso-store/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository persists catalog records. GetByRef accepts either a
// product ID or a slug so lookup callers never need to know which they hold.
type ProductRepository interface {
	GetByRef(ctx context.Context, ref string) (domain.Product, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Deactivate(ctx context.Context, productID string) error
}

// CartRepository owns per-cart item persistence keyed by (cart_id, product_id).
type CartRepository interface {
	GetItems(ctx context.Context, cartID string) ([]domain.CartItem, error)
	// AddItem increments the stored quantity atomically when the line already exists.
	AddItem(ctx context.Context, cartID, productID string, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}

// OrderRepository persists orders. Status transitions to paid go through
// MarkPaid, which reports whether this call performed the transition.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Order, error)
	MarkPaid(ctx context.Context, orderID string) (bool, error)
	MarkFailedIfPending(ctx context.Context, orderID string) error
}

// PaymentRepository persists provider payment records. Rows are inserted
// before the provider is contacted, so the provider-side order reference is
// linked afterwards via SetProviderOrderID.
type PaymentRepository interface {
	Insert(ctx context.Context, payment domain.Payment) error
	SetProviderOrderID(ctx context.Context, paymentID, providerOrderID string) error
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (domain.Payment, error)
	RecordWebhook(ctx context.Context, providerOrderID string, status domain.PaymentStatus, providerPaymentID string, rawPayload []byte) error
}
