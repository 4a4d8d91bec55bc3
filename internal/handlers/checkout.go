package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yepso-store/api/internal/platform/httpx"
	"github.com/yepso-store/api/internal/platform/identity"
	"github.com/yepso-store/api/internal/services"
)

const maxCheckoutBodySize = 32 * 1024

// CheckoutHandlers exposes the order creation endpoints.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs handlers over the checkout service.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/orders", h.createOrder)
	r.Post("/cod", h.createCODOrder)
}

type addressRequest struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

func (a addressRequest) toAddress() services.Address {
	return services.Address{
		Name:       strings.TrimSpace(a.Name),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

type checkoutRequest struct {
	Email           string          `json:"email"`
	ShippingAddress addressRequest  `json:"shipping_address"`
	BillingAddress  *addressRequest `json:"billing_address"`
}

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type orderPayload struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Email     string             `json:"email"`
	Items     []orderItemPayload `json:"items"`
	Subtotal  int64              `json:"subtotal"`
	Shipping  int64              `json:"shipping"`
	Tax       int64              `json:"tax"`
	Total     int64              `json:"total"`
	Currency  string             `json:"currency"`
	CreatedAt string             `json:"created_at,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return orderPayload{
		ID:        order.ID,
		Status:    string(order.Status),
		Email:     order.Email,
		Items:     items,
		Subtotal:  order.Subtotal,
		Shipping:  order.Shipping,
		Tax:       order.Tax,
		Total:     order.Total,
		Currency:  order.Currency,
		CreatedAt: formatTime(order.CreatedAt),
	}
}

func (h *CheckoutHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, false)
}

func (h *CheckoutHandlers) createCODOrder(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, true)
}

func (h *CheckoutHandlers) create(w http.ResponseWriter, r *http.Request, cod bool) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout is unavailable", http.StatusServiceUnavailable))
		return
	}

	res, ok := identity.FromContext(ctx)
	if !ok || strings.TrimSpace(res.CartID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req checkoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	shipping := req.ShippingAddress.toAddress()
	billing := shipping
	if req.BillingAddress != nil {
		billing = req.BillingAddress.toAddress()
	}

	cmd := services.CheckoutCommand{
		CartID:          res.CartID,
		Email:           strings.TrimSpace(req.Email),
		ShippingAddress: shipping,
		BillingAddress:  billing,
	}
	if res.Account != nil {
		cmd.AccountID = res.Account.ID
	}

	var result services.CheckoutResult
	if cod {
		result, err = h.checkout.CreateCODOrder(ctx, cmd)
	} else {
		result, err = h.checkout.CreateOrder(ctx, cmd)
	}
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	payload := map[string]any{"order": buildOrderPayload(result.Order)}
	if result.ProviderOrderID != "" {
		payload["payment"] = map[string]any{
			"provider_order_id": result.ProviderOrderID,
			"key_id":            result.ProviderKeyID,
		}
	}
	writeJSONResponse(w, http.StatusCreated, payload)
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart has no purchasable items", http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout is unavailable; try again", http.StatusServiceUnavailable))
	}
}
