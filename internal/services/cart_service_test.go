package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories/memory"
)

type stubCartRepo struct {
	items      map[string]map[string]int
	getErr     error
	addErr     error
	setErr     error
	removeErr  error
	clearErr   error
	clearCalls int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{items: map[string]map[string]int{}}
}

func (s *stubCartRepo) GetItems(_ context.Context, cartID string) ([]domain.CartItem, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	var out []domain.CartItem
	for productID, quantity := range s.items[cartID] {
		out = append(out, domain.CartItem{ProductID: productID, Quantity: quantity, AddedAt: time.Unix(0, 0)})
	}
	return out, nil
}

func (s *stubCartRepo) AddItem(_ context.Context, cartID, productID string, quantity int) error {
	if s.addErr != nil {
		return s.addErr
	}
	if s.items[cartID] == nil {
		s.items[cartID] = map[string]int{}
	}
	s.items[cartID][productID] += quantity
	return nil
}

func (s *stubCartRepo) SetItemQuantity(_ context.Context, cartID, productID string, quantity int) error {
	if s.setErr != nil {
		return s.setErr
	}
	if _, ok := s.items[cartID][productID]; !ok {
		return errRepoNotFound
	}
	s.items[cartID][productID] = quantity
	return nil
}

func (s *stubCartRepo) RemoveItem(_ context.Context, cartID, productID string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.items[cartID], productID)
	return nil
}

func (s *stubCartRepo) Clear(_ context.Context, cartID string) error {
	s.clearCalls++
	if s.clearErr != nil {
		return s.clearErr
	}
	delete(s.items, cartID)
	return nil
}

type stubProductService struct {
	products map[string]Product
}

func (s *stubProductService) Resolve(_ context.Context, ref string) (Product, error) {
	if ref == "" {
		return Product{}, ErrProductInvalidInput
	}
	for _, product := range s.products {
		if product.ID == ref || product.Slug == ref {
			return product, nil
		}
	}
	return Product{}, ErrProductNotFound
}

func (s *stubProductService) List(context.Context, bool) ([]Product, error) { return nil, nil }
func (s *stubProductService) Create(context.Context, CreateProductCommand) (Product, error) {
	return Product{}, nil
}
func (s *stubProductService) Update(context.Context, UpdateProductCommand) (Product, error) {
	return Product{}, nil
}
func (s *stubProductService) Deactivate(context.Context, string) error { return nil }

func testCatalog() *stubProductService {
	return &stubProductService{products: map[string]Product{
		"prod-1": {ID: "prod-1", Slug: "kurta", Name: "Kurta", Image: "/kurta.jpg", Price: 15000, DiscountPercent: 20, Active: true},
		"prod-2": {ID: "prod-2", Slug: "stole", Name: "Stole", Price: 500, DiscountPercent: 10, Active: true},
		"prod-3": {ID: "prod-3", Slug: "tote", Name: "Tote", Price: 1000, Active: true},
		"prod-4": {ID: "prod-4", Slug: "retired", Name: "Retired", Price: 900, Active: false},
	}}
}

func newTestCartService(t *testing.T, repo *stubCartRepo) (CartService, *memory.CartRepository) {
	t.Helper()
	fallback := memory.NewCartRepository()
	svc, err := NewCartService(CartServiceDeps{
		Repository: repo,
		Fallback:   fallback,
		Products:   testCatalog(),
	})
	if err != nil {
		t.Fatalf("NewCartService returned error: %v", err)
	}
	return svc, fallback
}

func TestCartAddAndGetSubtotal(t *testing.T) {
	svc, _ := newTestCartService(t, newStubCartRepo())
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "kurta", Quantity: 3}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	cart, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "prod-2", Quantity: 2})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	// 15000 at 20% rounds to 12000 per unit, x3 = 36000; 500 at 10% is 450, x2 = 900.
	if cart.Subtotal != 36900 {
		t.Fatalf("subtotal = %d, want 36900", cart.Subtotal)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(cart.Lines))
	}
	for _, line := range cart.Lines {
		if line.ProductID == "prod-1" && line.LineTotal != 36000 {
			t.Fatalf("kurta line total = %d, want 36000", line.LineTotal)
		}
	}
}

func TestCartAddRejectsBadInput(t *testing.T) {
	svc, _ := newTestCartService(t, newStubCartRepo())
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "kurta", Quantity: 0}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("zero quantity: expected ErrCartInvalidInput, got %v", err)
	}
	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "missing", Quantity: 1}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("unknown product: expected ErrCartInvalidInput, got %v", err)
	}
	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "retired", Quantity: 1}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("inactive product: expected ErrCartInvalidInput, got %v", err)
	}
}

func TestCartAddFallsBackWhenPrimaryDown(t *testing.T) {
	repo := newStubCartRepo()
	repo.addErr = errRepoUnavailable
	repo.getErr = errRepoUnavailable
	svc, fallback := newTestCartService(t, repo)
	ctx := context.Background()

	cart, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "kurta", Quantity: 2})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !fallback.Has("cart-1") {
		t.Fatal("fallback holds no entry after primary failure")
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("cart view = %+v, want one line of quantity 2", cart.Lines)
	}
}

func TestCartGetMergesFallbackIntoPrimary(t *testing.T) {
	repo := newStubCartRepo()
	svc, fallback := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 1}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := fallback.AddItem(ctx, "cart-1", "prod-1", 2); err != nil {
		t.Fatalf("fallback AddItem returned error: %v", err)
	}
	if err := fallback.AddItem(ctx, "cart-1", "prod-3", 1); err != nil {
		t.Fatalf("fallback AddItem returned error: %v", err)
	}

	cart, err := svc.Get(ctx, "cart-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(cart.Lines))
	}
	for _, line := range cart.Lines {
		if line.ProductID == "prod-1" && line.Quantity != 3 {
			t.Fatalf("merged quantity = %d, want 3", line.Quantity)
		}
	}
}

func TestCartSetQuantityFallbackReplacesPrimaryQuantity(t *testing.T) {
	repo := newStubCartRepo()
	svc, _ := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 2}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	// Writes fail, reads still work: the override lands in the fallback and
	// must replace the primary quantity on merge, not add to it.
	repo.setErr = errRepoUnavailable
	cart, err := svc.SetQuantity(ctx, SetQuantityCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 3})
	if err != nil {
		t.Fatalf("SetQuantity returned error: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", cart.Lines[0].Quantity)
	}
}

func TestCartGetDropsUnresolvableLines(t *testing.T) {
	repo := newStubCartRepo()
	repo.items["cart-1"] = map[string]int{"prod-1": 1, "prod-gone": 4}
	svc, _ := newTestCartService(t, repo)

	cart, err := svc.Get(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(cart.Lines))
	}
	if cart.Lines[0].ProductID != "prod-1" {
		t.Fatalf("surviving line = %q, want prod-1", cart.Lines[0].ProductID)
	}
	// The stored line is untouched; only the view drops it.
	if repo.items["cart-1"]["prod-gone"] != 4 {
		t.Fatal("unresolvable line was removed from storage")
	}
}

func TestCartSetQuantity(t *testing.T) {
	repo := newStubCartRepo()
	svc, _ := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 1}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	cart, err := svc.SetQuantity(ctx, SetQuantityCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 5})
	if err != nil {
		t.Fatalf("SetQuantity returned error: %v", err)
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", cart.Lines[0].Quantity)
	}

	if _, err := svc.SetQuantity(ctx, SetQuantityCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 0}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("zero quantity: expected ErrCartInvalidInput, got %v", err)
	}
	if _, err := svc.SetQuantity(ctx, SetQuantityCommand{CartID: "cart-1", ProductRef: "prod-2", Quantity: 2}); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("absent line: expected ErrCartNotFound, got %v", err)
	}
}

func TestCartRemoveIsIdempotent(t *testing.T) {
	repo := newStubCartRepo()
	svc, _ := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 1}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		cart, err := svc.Remove(ctx, "cart-1", "prod-1")
		if err != nil {
			t.Fatalf("Remove attempt %d returned error: %v", i, err)
		}
		if len(cart.Lines) != 0 {
			t.Fatalf("attempt %d: len(lines) = %d, want 0", i, len(cart.Lines))
		}
	}
}

func TestCartClearClearsBothTiers(t *testing.T) {
	repo := newStubCartRepo()
	svc, fallback := newTestCartService(t, repo)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddItemCommand{CartID: "cart-1", ProductRef: "prod-1", Quantity: 1}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := fallback.AddItem(ctx, "cart-1", "prod-3", 1); err != nil {
		t.Fatalf("fallback AddItem returned error: %v", err)
	}

	if err := svc.Clear(ctx, "cart-1"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if fallback.Has("cart-1") {
		t.Fatal("fallback entry survived clear")
	}
	if len(repo.items["cart-1"]) != 0 {
		t.Fatal("primary lines survived clear")
	}
}
