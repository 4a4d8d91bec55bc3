package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories/memory"
)

type testRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *testRepoError) Error() string       { return "repo error" }
func (e *testRepoError) IsNotFound() bool    { return e.notFound }
func (e *testRepoError) IsConflict() bool    { return e.conflict }
func (e *testRepoError) IsUnavailable() bool { return e.unavailable }

var (
	errRepoNotFound    = &testRepoError{notFound: true}
	errRepoConflict    = &testRepoError{conflict: true}
	errRepoUnavailable = &testRepoError{unavailable: true}
)

type stubProductRepo struct {
	products map[string]domain.Product
	getErr   error
	listErr  error
	inserted []domain.Product
	insErr   error
	updated  []domain.Product
	updErr   error
}

func (s *stubProductRepo) GetByRef(_ context.Context, ref string) (domain.Product, error) {
	if s.getErr != nil {
		return domain.Product{}, s.getErr
	}
	if product, ok := s.products[ref]; ok {
		return product, nil
	}
	return domain.Product{}, errRepoNotFound
}

func (s *stubProductRepo) List(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Product
	for _, product := range s.products {
		if !includeInactive && !product.Active {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (s *stubProductRepo) Insert(_ context.Context, product domain.Product) error {
	if s.insErr != nil {
		return s.insErr
	}
	s.inserted = append(s.inserted, product)
	return nil
}

func (s *stubProductRepo) Update(_ context.Context, product domain.Product) error {
	if s.updErr != nil {
		return s.updErr
	}
	s.updated = append(s.updated, product)
	return nil
}

func (s *stubProductRepo) Deactivate(_ context.Context, productID string) error {
	product, ok := s.products[productID]
	if !ok {
		return errRepoNotFound
	}
	product.Active = false
	s.products[productID] = product
	return nil
}

func newTestProductService(t *testing.T, repo *stubProductRepo) (ProductService, *memory.Catalog) {
	t.Helper()
	mirror := memory.NewCatalog()
	svc, err := NewProductService(ProductServiceDeps{Repository: repo, Mirror: mirror})
	if err != nil {
		t.Fatalf("NewProductService returned error: %v", err)
	}
	return svc, mirror
}

func TestProductResolveFromPrimaryRefreshesMirror(t *testing.T) {
	repo := &stubProductRepo{products: map[string]domain.Product{
		"prod-1": {ID: "prod-1", Slug: "kurta", Name: "Kurta", Price: 15000, Active: true},
	}}
	svc, mirror := newTestProductService(t, repo)

	product, err := svc.Resolve(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if product.Price != 15000 {
		t.Fatalf("price = %d, want 15000", product.Price)
	}

	mirrored, ok := mirror.Get("prod-1")
	if !ok || mirrored.Price != 15000 {
		t.Fatal("mirror was not refreshed from the primary lookup")
	}
}

func TestProductResolveFallsBackToMirrorOnTransportFailure(t *testing.T) {
	repo := &stubProductRepo{getErr: errRepoUnavailable}
	svc, mirror := newTestProductService(t, repo)

	mirror.Store(domain.Product{ID: "prod-1", Slug: "kurta", Name: "Kurta", Price: 15000, Active: true})

	product, err := svc.Resolve(context.Background(), "kurta")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if product.ID != "prod-1" {
		t.Fatalf("resolved ID = %q, want prod-1", product.ID)
	}
}

func TestProductResolveSeedServesColdProcess(t *testing.T) {
	repo := &stubProductRepo{getErr: errRepoUnavailable}
	svc, _ := newTestProductService(t, repo)

	product, err := svc.Resolve(context.Background(), "indigo-block-print-kurta")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if product.Price != 15000 {
		t.Fatalf("seed price = %d, want 15000", product.Price)
	}
}

func TestProductResolveNotFoundDoesNotFallBack(t *testing.T) {
	repo := &stubProductRepo{products: map[string]domain.Product{}}
	svc, mirror := newTestProductService(t, repo)

	mirror.Store(domain.Product{ID: "ghost", Slug: "ghost", Active: true})

	if _, err := svc.Resolve(context.Background(), "ghost"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductCreateValidatesInput(t *testing.T) {
	svc, _ := newTestProductService(t, &stubProductRepo{})

	cases := []CreateProductCommand{
		{Name: "No slug", Price: 100},
		{Slug: "no-name", Price: 100},
		{Slug: "bad-price", Name: "Bad", Price: -1},
		{Slug: "bad-discount", Name: "Bad", Price: 100, DiscountPercent: 95},
	}
	for _, cmd := range cases {
		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrProductInvalidInput) {
			t.Fatalf("cmd %+v: expected ErrProductInvalidInput, got %v", cmd, err)
		}
	}
}

func TestProductCreateConflictOnSlugCollision(t *testing.T) {
	repo := &stubProductRepo{insErr: errRepoConflict}
	svc, _ := newTestProductService(t, repo)

	_, err := svc.Create(context.Background(), CreateProductCommand{Slug: "kurta", Name: "Kurta", Price: 100})
	if !errors.Is(err, ErrProductConflict) {
		t.Fatalf("expected ErrProductConflict, got %v", err)
	}
}

func TestProductUpdateAppliesPartialFields(t *testing.T) {
	repo := &stubProductRepo{products: map[string]domain.Product{
		"prod-1": {ID: "prod-1", Slug: "kurta", Name: "Kurta", Price: 15000, DiscountPercent: 20, Active: true},
	}}
	svc, _ := newTestProductService(t, repo)

	price := int64(16000)
	updated, err := svc.Update(context.Background(), UpdateProductCommand{ProductID: "prod-1", Price: &price})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Price != 16000 {
		t.Fatalf("price = %d, want 16000", updated.Price)
	}
	if updated.DiscountPercent != 20 {
		t.Fatalf("discount changed unexpectedly: %d", updated.DiscountPercent)
	}
}

func TestProductDeactivateUpdatesMirror(t *testing.T) {
	repo := &stubProductRepo{products: map[string]domain.Product{
		"prod-1": {ID: "prod-1", Slug: "kurta", Name: "Kurta", Price: 15000, Active: true},
	}}
	svc, mirror := newTestProductService(t, repo)

	if _, err := svc.Resolve(context.Background(), "prod-1"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if err := svc.Deactivate(context.Background(), "prod-1"); err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}

	mirrored, ok := mirror.Get("prod-1")
	if !ok {
		t.Fatal("product missing from mirror")
	}
	if mirrored.Active {
		t.Fatal("mirror still reports product as active")
	}
}
