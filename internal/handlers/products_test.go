package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yepso-store/api/internal/services"
)

type stubProductSvc struct {
	resolveFn    func(ctx context.Context, ref string) (services.Product, error)
	listFn       func(ctx context.Context, includeInactive bool) ([]services.Product, error)
	createFn     func(ctx context.Context, cmd services.CreateProductCommand) (services.Product, error)
	updateFn     func(ctx context.Context, cmd services.UpdateProductCommand) (services.Product, error)
	deactivateFn func(ctx context.Context, productID string) error
}

func (s *stubProductSvc) Resolve(ctx context.Context, ref string) (services.Product, error) {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, ref)
	}
	return services.Product{}, services.ErrProductNotFound
}

func (s *stubProductSvc) List(ctx context.Context, includeInactive bool) ([]services.Product, error) {
	if s.listFn != nil {
		return s.listFn(ctx, includeInactive)
	}
	return []services.Product{}, nil
}

func (s *stubProductSvc) Create(ctx context.Context, cmd services.CreateProductCommand) (services.Product, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Product{}, nil
}

func (s *stubProductSvc) Update(ctx context.Context, cmd services.UpdateProductCommand) (services.Product, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Product{}, nil
}

func (s *stubProductSvc) Deactivate(ctx context.Context, productID string) error {
	if s.deactivateFn != nil {
		return s.deactivateFn(ctx, productID)
	}
	return nil
}

func newProductRouter(svc services.ProductService) chi.Router {
	r := chi.NewRouter()
	NewProductHandlers(svc).Routes(r)
	return r
}

func TestProductsListExcludesInactive(t *testing.T) {
	var gotIncludeInactive bool
	svc := &stubProductSvc{
		listFn: func(_ context.Context, includeInactive bool) ([]services.Product, error) {
			gotIncludeInactive = includeInactive
			return []services.Product{{
				ID:              "prod-1",
				Slug:            "indigo-block-print-kurta",
				Name:            "Indigo Block Print Kurta",
				Price:           15000,
				DiscountPercent: 20,
				Active:          true,
			}}, nil
		},
	}
	router := newProductRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if gotIncludeInactive {
		t.Fatal("public listing must not include inactive products")
	}
	var resp struct {
		Products []productPayload `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(resp.Products))
	}
	if resp.Products[0].EffectivePrice != 12000 {
		t.Fatalf("expected effective price 12000, got %d", resp.Products[0].EffectivePrice)
	}
}

func TestProductsGetHidesInactiveProduct(t *testing.T) {
	svc := &stubProductSvc{
		resolveFn: func(_ context.Context, ref string) (services.Product, error) {
			return services.Product{ID: ref, Active: false}, nil
		},
	}
	router := newProductRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prod-retired", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProductsGetBySlug(t *testing.T) {
	svc := &stubProductSvc{
		resolveFn: func(_ context.Context, ref string) (services.Product, error) {
			if ref != "rose-chanderi-dupatta" {
				return services.Product{}, services.ErrProductNotFound
			}
			return services.Product{ID: "prod-2", Slug: ref, Name: "Rose Chanderi Dupatta", Price: 8000, Active: true}, nil
		},
	}
	router := newProductRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rose-chanderi-dupatta", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Product productPayload `json:"product"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Product.ID != "prod-2" {
		t.Fatalf("unexpected product: %+v", resp.Product)
	}
}

func TestProductsCatalogOutageMapsTo503(t *testing.T) {
	svc := &stubProductSvc{
		listFn: func(context.Context, bool) ([]services.Product, error) {
			return nil, services.ErrProductUnavailable
		},
	}
	router := newProductRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
