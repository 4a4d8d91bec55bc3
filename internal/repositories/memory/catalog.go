// Package memory holds the in-process fallbacks that keep the storefront
// readable and writable while the database is unreachable.
package memory

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"

	domain "github.com/yepso-store/api/internal/domain"
)

// Catalog mirrors products seen from the primary store and carries a static
// seed so product lookup still resolves on a cold process with the database
// down.
type Catalog struct {
	mu     sync.RWMutex
	byID   map[string]domain.Product
	bySlug map[string]domain.Product
}

// NewCatalog builds a catalog preloaded with the static seed.
func NewCatalog() *Catalog {
	c := &Catalog{
		byID:   make(map[string]domain.Product),
		bySlug: make(map[string]domain.Product),
	}
	for _, product := range SeedProducts() {
		c.store(product)
	}
	return c
}

// Store records a product observed from the primary store, replacing any
// seed or earlier mirror entry for the same ID or slug.
func (c *Catalog) Store(product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(product)
}

func (c *Catalog) store(product domain.Product) {
	c.byID[product.ID] = product
	c.bySlug[product.Slug] = product
}

// Get resolves a product by ID or slug.
func (c *Catalog) Get(ref string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if product, ok := c.byID[ref]; ok {
		return product, true
	}
	product, ok := c.bySlug[ref]
	return product, ok
}

// List returns the mirrored catalog sorted by slug for stable output.
func (c *Catalog) List(includeInactive bool) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	products := make([]domain.Product, 0, len(c.byID))
	for _, product := range c.byID {
		if !includeInactive && !product.Active {
			continue
		}
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Slug < products[j].Slug })
	return products
}

// SeedProducts returns the static catalog compiled into the binary. Prices
// are in rupees; discounts derive deterministically from the slug so the
// seed stays stable across builds without hand-maintaining each value.
func SeedProducts() []domain.Product {
	seedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []struct {
		id    string
		slug  string
		name  string
		price int64
		image string
	}{
		{"prod-kurta-indigo", "indigo-block-print-kurta", "Indigo Block Print Kurta", 15000, "/images/indigo-block-print-kurta.jpg"},
		{"prod-dupatta-rose", "rose-chanderi-dupatta", "Rose Chanderi Dupatta", 8000, "/images/rose-chanderi-dupatta.jpg"},
		{"prod-stole-mustard", "mustard-silk-stole", "Mustard Silk Stole", 12000, "/images/mustard-silk-stole.jpg"},
		{"prod-saree-teal", "teal-handloom-saree", "Teal Handloom Saree", 30000, "/images/teal-handloom-saree.jpg"},
		{"prod-tote-jute", "printed-jute-tote", "Printed Jute Tote", 10000, "/images/printed-jute-tote.jpg"},
		{"prod-coaster-set", "terracotta-coaster-set", "Terracotta Coaster Set", 4000, "/images/terracotta-coaster-set.jpg"},
	}

	products := make([]domain.Product, 0, len(entries))
	for _, entry := range entries {
		products = append(products, domain.Product{
			ID:              entry.id,
			Slug:            entry.slug,
			Name:            entry.name,
			Price:           entry.price,
			DiscountPercent: seedDiscount(entry.slug),
			Image:           entry.image,
			Active:          true,
			CreatedAt:       seedTime,
			UpdatedAt:       seedTime,
		})
	}
	return products
}

// seedDiscount maps a slug onto one of the 10..50 step-5 discount tiers.
func seedDiscount(slug string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return 10 + int(h.Sum32()%9)*5
}
