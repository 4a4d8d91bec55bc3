package memory

import (
	"context"
	"sync"
	"testing"
)

func TestCartRepositoryAddItemIncrements(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	if err := repo.AddItem(ctx, "cart-1", "prod-1", 2); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if err := repo.AddItem(ctx, "cart-1", "prod-1", 3); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	items, err := repo.GetItems(ctx, "cart-1")
	if err != nil {
		t.Fatalf("GetItems returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", items[0].Quantity)
	}
}

func TestCartRepositoryConcurrentAddsLoseNothing(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	const adds = 50
	var wg sync.WaitGroup
	wg.Add(adds)
	for i := 0; i < adds; i++ {
		go func() {
			defer wg.Done()
			if err := repo.AddItem(ctx, "cart-1", "prod-1", 1); err != nil {
				t.Errorf("AddItem returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	items, err := repo.GetItems(ctx, "cart-1")
	if err != nil {
		t.Fatalf("GetItems returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Quantity != adds {
		t.Fatalf("quantity = %d, want %d", items[0].Quantity, adds)
	}
}

func TestCartRepositorySetQuantityMarksOverride(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	if err := repo.AddItem(ctx, "cart-1", "prod-1", 2); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if err := repo.SetItemQuantity(ctx, "cart-1", "prod-1", 3); err != nil {
		t.Fatalf("SetItemQuantity returned error: %v", err)
	}

	entries := repo.Entries("cart-1")
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if !entries[0].Absolute {
		t.Fatal("entry written by SetItemQuantity is not an override")
	}
	if entries[0].Item.Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", entries[0].Item.Quantity)
	}

	// A plain add never becomes an override.
	if err := repo.AddItem(ctx, "cart-1", "prod-2", 1); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	for _, entry := range repo.Entries("cart-1") {
		if entry.Item.ProductID == "prod-2" && entry.Absolute {
			t.Fatal("add-only entry marked as override")
		}
	}
}

func TestCartRepositoryClear(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	if err := repo.AddItem(ctx, "cart-1", "prod-1", 1); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if !repo.Has("cart-1") {
		t.Fatal("Has = false after add")
	}

	if err := repo.Clear(ctx, "cart-1"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if repo.Has("cart-1") {
		t.Fatal("Has = true after clear")
	}

	items, err := repo.GetItems(ctx, "cart-1")
	if err != nil {
		t.Fatalf("GetItems returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("len(items) = %d, want 0", len(items))
	}
}

func TestCartRepositoryRemoveAbsentItem(t *testing.T) {
	repo := NewCartRepository()

	if err := repo.RemoveItem(context.Background(), "cart-1", "prod-1"); err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}
}

func TestCatalogSeedAndMirror(t *testing.T) {
	catalog := NewCatalog()

	product, ok := catalog.Get("indigo-block-print-kurta")
	if !ok {
		t.Fatal("seed product not resolvable by slug")
	}
	if product.Price != 15000 {
		t.Fatalf("seed price = %d, want 15000", product.Price)
	}
	if product.DiscountPercent < 10 || product.DiscountPercent > 50 || product.DiscountPercent%5 != 0 {
		t.Fatalf("seed discount = %d, want a 10..50 multiple of 5", product.DiscountPercent)
	}

	product.Price = 16000
	catalog.Store(product)

	updated, ok := catalog.Get(product.ID)
	if !ok {
		t.Fatal("mirrored product not resolvable by id")
	}
	if updated.Price != 16000 {
		t.Fatalf("mirrored price = %d, want 16000", updated.Price)
	}
}

func TestCatalogListExcludesInactive(t *testing.T) {
	catalog := NewCatalog()

	product, _ := catalog.Get("printed-jute-tote")
	product.Active = false
	catalog.Store(product)

	for _, listed := range catalog.List(false) {
		if listed.ID == product.ID {
			t.Fatal("inactive product returned from active-only list")
		}
	}

	found := false
	for _, listed := range catalog.List(true) {
		if listed.ID == product.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("inactive product missing from full list")
	}
}
