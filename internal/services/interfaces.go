// Package services contains the application core: catalog resolution, cart
// operations, checkout, order reads and webhook reconciliation. Handlers
// translate HTTP to these interfaces; repositories persist for them.
package services

import (
	"context"

	domain "github.com/yepso-store/api/internal/domain"
)

// Domain aliases keep handler signatures terse.
type (
	Product  = domain.Product
	Cart     = domain.Cart
	CartLine = domain.CartLine
	Address  = domain.Address
	Order    = domain.Order
	Payment  = domain.Payment
)

// ProductService resolves and administers catalog records.
type ProductService interface {
	// Resolve looks up a product by ID or slug, falling through the runtime
	// mirror and the static seed when the primary store is unreachable.
	Resolve(ctx context.Context, ref string) (Product, error)
	List(ctx context.Context, includeInactive bool) ([]Product, error)
	Create(ctx context.Context, cmd CreateProductCommand) (Product, error)
	Update(ctx context.Context, cmd UpdateProductCommand) (Product, error)
	Deactivate(ctx context.Context, productID string) error
}

// CreateProductCommand carries the fields for a new catalog record.
type CreateProductCommand struct {
	Slug            string
	Name            string
	Description     string
	Image           string
	Price           int64
	DiscountPercent int
}

// UpdateProductCommand mutates an existing record. Nil pointers leave the
// corresponding field untouched.
type UpdateProductCommand struct {
	ProductID       string
	Slug            *string
	Name            *string
	Description     *string
	Image           *string
	Price           *int64
	DiscountPercent *int
	Active          *bool
}

// CartService owns cart reads and mutations for a cart identity.
type CartService interface {
	Get(ctx context.Context, cartID string) (Cart, error)
	Add(ctx context.Context, cmd AddItemCommand) (Cart, error)
	SetQuantity(ctx context.Context, cmd SetQuantityCommand) (Cart, error)
	Remove(ctx context.Context, cartID, productRef string) (Cart, error)
	Clear(ctx context.Context, cartID string) error
}

// AddItemCommand adds quantity of a product to a cart.
type AddItemCommand struct {
	CartID     string
	ProductRef string
	Quantity   int
}

// SetQuantityCommand replaces the quantity of an existing line.
type SetQuantityCommand struct {
	CartID     string
	ProductRef string
	Quantity   int
}

// CheckoutService turns a cart into an order, on the payment-provider path
// or the cash-on-delivery path.
type CheckoutService interface {
	CreateOrder(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
	CreateCODOrder(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
}

// CheckoutCommand carries the buyer details for order creation.
type CheckoutCommand struct {
	CartID          string
	AccountID       string
	Email           string
	ShippingAddress Address
	BillingAddress  Address
}

// CheckoutResult reports the created order and, on the provider path, the
// references the storefront needs to open the payment flow.
type CheckoutResult struct {
	Order           Order
	ProviderOrderID string
	ProviderKeyID   string
}

// OrderService exposes order reads scoped to the requesting account.
type OrderService interface {
	ListForAccount(ctx context.Context, accountID string) ([]Order, error)
	Get(ctx context.Context, accountID, orderID string) (Order, error)
}

// WebhookService reconciles provider webhook deliveries against local state.
type WebhookService interface {
	// Process verifies the signature and applies the delivery. It returns
	// ErrWebhookSignature for deliveries that must be rejected with 401;
	// every other outcome, including unknown payments, is an acknowledgement.
	Process(ctx context.Context, rawBody []byte, signature string) error
}
