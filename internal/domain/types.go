package domain

import "time"

// OrderStatus enumerates the lifecycle states of an order.
type OrderStatus string

const (
	// OrderStatusPending indicates a provider-path order awaiting payment confirmation.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusCODPending indicates a cash-on-delivery order awaiting fulfilment.
	OrderStatusCODPending OrderStatus = "cod_pending"
	// OrderStatusPaid is the terminal success state.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusFailed is the terminal failure state.
	OrderStatusFailed OrderStatus = "failed"
)

// PaymentStatus enumerates the states of a provider-path payment record.
type PaymentStatus string

const (
	// PaymentStatusCreated is assigned when the payment record is created alongside the order.
	PaymentStatusCreated PaymentStatus = "created"
	// PaymentStatusPaid indicates the provider reported a successful capture.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusFailed indicates the provider reported a failure.
	PaymentStatusFailed PaymentStatus = "failed"
)

// Product is the catalog record referenced by carts and frozen into orders.
type Product struct {
	ID              string
	Slug            string
	Name            string
	Description     string
	Price           int64
	DiscountPercent int
	Image           string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProductSnapshot is the point-in-time view of a product used for pricing and display.
type ProductSnapshot struct {
	ID              string
	Slug            string
	Name            string
	Price           int64
	DiscountPercent int
	Image           string
	Active          bool
}

// Snapshot derives the pricing snapshot from the full catalog record.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:              p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Image:           p.Image,
		Active:          p.Active,
	}
}

// CartItem is a single stored cart line: a product reference with a quantity.
type CartItem struct {
	ProductID string
	Quantity  int
	AddedAt   time.Time
	UpdatedAt time.Time
}

// CartLine is a priced cart line returned by reads, joined against the catalog.
type CartLine struct {
	ProductID          string
	Slug               string
	Name               string
	Image              string
	Quantity           int
	UnitPrice          int64
	DiscountPercent    int
	EffectiveUnitPrice int64
	LineTotal          int64
}

// Cart aggregates the priced lines and subtotal for a cart identity.
type Cart struct {
	CartID   string
	Lines    []CartLine
	Subtotal int64
}

// Address holds a structurally validated shipping or billing address.
type Address struct {
	Name       string
	Street     string
	City       string
	State      string
	PostalCode string
	Phone      string
}

// OrderItem is a frozen copy of the product fields at order time.
type OrderItem struct {
	ProductID string
	Name      string
	Image     string
	UnitPrice int64
	Quantity  int
	LineTotal int64
}

// Order is immutable after creation except for its status.
type Order struct {
	ID              string
	AccountID       string
	CartID          string
	Email           string
	Items           []OrderItem
	ShippingAddress Address
	BillingAddress  Address
	Subtotal        int64
	Shipping        int64
	Tax             int64
	Total           int64
	Currency        string
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Payment links an order to its provider-side references, one-to-one on the provider path.
type Payment struct {
	ID                string
	OrderID           string
	Provider          string
	ProviderOrderID   string
	ProviderPaymentID string
	Amount            int64
	Currency          string
	Status            PaymentStatus
	// RawPayload keeps the last webhook body seen for this payment, for audit.
	RawPayload []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
