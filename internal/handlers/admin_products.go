package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yepso-store/api/internal/platform/httpx"
	"github.com/yepso-store/api/internal/services"
)

const maxAdminBodySize = 64 * 1024

// AdminProductHandlers exposes catalog administration for admin accounts.
type AdminProductHandlers struct {
	products services.ProductService
}

// NewAdminProductHandlers constructs the handlers over the product service.
func NewAdminProductHandlers(products services.ProductService) *AdminProductHandlers {
	return &AdminProductHandlers{products: products}
}

// Routes wires the /admin/products endpoints onto the provided router.
func (h *AdminProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Use(requireAdmin)
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Patch("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deactivateProduct)
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		account, ok := accountFromContext(ctx)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
			return
		}
		if !account.Admin {
			httpx.WriteError(ctx, w, httpx.NewError("forbidden", "admin access required", http.StatusForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	products, err := h.products.List(ctx, true)
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}

	payloads := make([]productPayload, 0, len(products))
	for _, product := range products {
		payloads = append(payloads, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": payloads})
}

type createProductRequest struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Image           string `json:"image"`
	Price           int64  `json:"price"`
	DiscountPercent int    `json:"discount_percent"`
}

func (h *AdminProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	product, err := h.products.Create(ctx, services.CreateProductCommand{
		Slug:            req.Slug,
		Name:            req.Name,
		Description:     req.Description,
		Image:           req.Image,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
	})
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"product": buildProductPayload(product)})
}

type updateProductRequest struct {
	Slug            *string `json:"slug"`
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Image           *string `json:"image"`
	Price           *int64  `json:"price"`
	DiscountPercent *int    `json:"discount_percent"`
	Active          *bool   `json:"active"`
}

func (h *AdminProductHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	product, err := h.products.Update(ctx, services.UpdateProductCommand{
		ProductID:       strings.TrimSpace(chi.URLParam(r, "productID")),
		Slug:            req.Slug,
		Name:            req.Name,
		Description:     req.Description,
		Image:           req.Image,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		Active:          req.Active,
	})
	if err != nil {
		writeProductError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminProductHandlers) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.products.Deactivate(ctx, strings.TrimSpace(chi.URLParam(r, "productID"))); err != nil {
		writeProductError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
