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

const maxCartBodySize = 16 * 1024

// CartHandlers exposes the cart endpoints for the resolved cart identity.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers constructs handlers over the cart service. Identity is
// resolved by middleware before these run.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{productRef}", h.setQuantity)
	r.Delete("/items/{productRef}", h.removeItem)
}

type cartLinePayload struct {
	ProductID          string `json:"product_id"`
	Slug               string `json:"slug"`
	Name               string `json:"name"`
	Image              string `json:"image,omitempty"`
	Quantity           int    `json:"quantity"`
	UnitPrice          int64  `json:"unit_price"`
	DiscountPercent    int    `json:"discount_percent"`
	EffectiveUnitPrice int64  `json:"effective_unit_price"`
	LineTotal          int64  `json:"line_total"`
}

type cartPayload struct {
	CartID   string            `json:"cart_id"`
	Lines    []cartLinePayload `json:"lines"`
	Subtotal int64             `json:"subtotal"`
}

func buildCartPayload(cart services.Cart) cartPayload {
	lines := make([]cartLinePayload, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLinePayload{
			ProductID:          line.ProductID,
			Slug:               line.Slug,
			Name:               line.Name,
			Image:              line.Image,
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice,
			DiscountPercent:    line.DiscountPercent,
			EffectiveUnitPrice: line.EffectiveUnitPrice,
			LineTotal:          line.LineTotal,
		})
	}
	return cartPayload{CartID: cart.CartID, Lines: lines, Subtotal: cart.Subtotal}
}

func cartIDFromContext(ctx context.Context) string {
	if res, ok := identity.FromContext(ctx); ok {
		return res.CartID
	}
	return ""
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := cartIDFromContext(ctx)
	if h.carts == nil || cartID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	cart, err := h.carts.Get(ctx, cartID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

type addItemRequest struct {
	ProductRef string `json:"product"`
	Quantity   int    `json:"quantity"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := cartIDFromContext(ctx)
	if h.carts == nil || cartID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.Add(ctx, services.AddItemCommand{
		CartID:     cartID,
		ProductRef: strings.TrimSpace(req.ProductRef),
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := cartIDFromContext(ctx)
	if h.carts == nil || cartID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req setQuantityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.SetQuantity(ctx, services.SetQuantityCommand{
		CartID:     cartID,
		ProductRef: strings.TrimSpace(chi.URLParam(r, "productRef")),
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := cartIDFromContext(ctx)
	if h.carts == nil || cartID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	cart, err := h.carts.Remove(ctx, cartID, strings.TrimSpace(chi.URLParam(r, "productRef")))
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cart": buildCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := cartIDFromContext(ctx)
	if h.carts == nil || cartID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.carts.Clear(ctx, cartID); err != nil {
		writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_item_not_found", "cart item not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
	}
}
