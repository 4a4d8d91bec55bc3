package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories"
)

// Entry is a fallback line together with how it merges into a primary read.
type Entry struct {
	Item domain.CartItem
	// Absolute marks a quantity override: on merge it replaces the primary
	// quantity instead of adding to it.
	Absolute bool
}

// CartRepository is the in-process cart fallback. The cart service writes
// here when the primary store is unavailable and merges the contents back
// into reads until the entry is cleared.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]map[string]Entry
	clock func() time.Time
}

var _ repositories.CartRepository = (*CartRepository)(nil)

// NewCartRepository constructs an empty fallback store.
func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[string]map[string]Entry),
		clock: time.Now,
	}
}

// Has reports whether the fallback holds any lines for the cart.
func (r *CartRepository) Has(cartID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts[cartID]) > 0
}

// GetItems returns the fallback lines for a cart in insertion order.
func (r *CartRepository) GetItems(_ context.Context, cartID string) ([]domain.CartItem, error) {
	entries := r.Entries(cartID)
	items := make([]domain.CartItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entry.Item)
	}
	return items, nil
}

// Entries returns the fallback entries for a cart in insertion order,
// including whether each one is an override or an increment.
func (r *CartRepository) Entries(cartID string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := r.carts[cartID]
	entries := make([]Entry, 0, len(lines))
	for _, entry := range lines {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Item.AddedAt.Before(entries[j].Item.AddedAt) })
	return entries
}

// AddItem inserts the line or increments its quantity. An increment on top
// of an override keeps the entry an override, since the fallback then holds
// the full quantity the buyer asked for.
func (r *CartRepository) AddItem(_ context.Context, cartID, productID string, quantity int) error {
	now := r.clock().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.carts[cartID]
	if lines == nil {
		lines = make(map[string]Entry)
		r.carts[cartID] = lines
	}

	entry, ok := lines[productID]
	if !ok {
		entry = Entry{Item: domain.CartItem{ProductID: productID, AddedAt: now}}
	}
	entry.Item.Quantity += quantity
	entry.Item.UpdatedAt = now
	lines[productID] = entry
	return nil
}

// SetItemQuantity replaces the stored quantity and marks the entry as an
// override, creating the line if absent so a quantity update issued during
// an outage is never dropped.
func (r *CartRepository) SetItemQuantity(_ context.Context, cartID, productID string, quantity int) error {
	now := r.clock().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.carts[cartID]
	if lines == nil {
		lines = make(map[string]Entry)
		r.carts[cartID] = lines
	}

	entry, ok := lines[productID]
	if !ok {
		entry = Entry{Item: domain.CartItem{ProductID: productID, AddedAt: now}}
	}
	entry.Item.Quantity = quantity
	entry.Item.UpdatedAt = now
	entry.Absolute = true
	lines[productID] = entry
	return nil
}

// RemoveItem deletes a line. Removing an absent line is not an error.
func (r *CartRepository) RemoveItem(_ context.Context, cartID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lines, ok := r.carts[cartID]; ok {
		delete(lines, productID)
		if len(lines) == 0 {
			delete(r.carts, cartID)
		}
	}
	return nil
}

// Clear removes every fallback line for the cart.
func (r *CartRepository) Clear(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, cartID)
	return nil
}
