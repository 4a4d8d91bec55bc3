package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories"
	"github.com/yepso-store/api/internal/repositories/memory"
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartNotFound indicates the referenced cart line does not exist.
var ErrCartNotFound = errors.New("cart service: not found")

// ErrCartUnavailable indicates neither the primary store nor the fallback
// could serve the request.
var ErrCartUnavailable = errors.New("cart service: unavailable")

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartFallbackRequired   = errors.New("cart service: fallback is required")
	errCartProductsRequired   = errors.New("cart service: product service is required")
)

// CartServiceDeps wires the primary store, the in-process fallback and the
// catalog used to price and validate lines.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Fallback   *memory.CartRepository
	Products   ProductService
	Logger     func(context.Context, string, map[string]any)
}

type cartService struct {
	repo     repositories.CartRepository
	fallback *memory.CartRepository
	products ProductService
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Fallback == nil {
		return nil, errCartFallbackRequired
	}
	if deps.Products == nil {
		return nil, errCartProductsRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		repo:     deps.Repository,
		fallback: deps.Fallback,
		products: deps.Products,
		logger:   logger,
	}, nil
}

// Get reads the stored lines, merges any fallback entries accumulated during
// an outage, prices the resolvable lines and drops the rest from the view.
func (s *cartService) Get(ctx context.Context, cartID string) (Cart, error) {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return Cart{}, ErrCartInvalidInput
	}

	items, err := s.loadItems(ctx, id)
	if err != nil {
		return Cart{}, err
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		product, err := s.products.Resolve(ctx, item.ProductID)
		if err != nil {
			// A line whose product no longer resolves is hidden from the
			// view but kept in storage, so it reappears if the catalog does.
			s.logger(ctx, "cart.line_unresolvable", map[string]any{
				"cart_id":    id,
				"product_id": item.ProductID,
			})
			continue
		}
		lines = append(lines, domain.PriceLine(domain.CartLine{
			ProductID:       product.ID,
			Slug:            product.Slug,
			Name:            product.Name,
			Image:           product.Image,
			Quantity:        item.Quantity,
			UnitPrice:       product.Price,
			DiscountPercent: product.DiscountPercent,
		}))
	}

	return Cart{
		CartID:   id,
		Lines:    lines,
		Subtotal: domain.Subtotal(lines),
	}, nil
}

// Add appends quantity of a product. The product must resolve and be active.
// When the primary store is down the write lands in the fallback instead.
func (s *cartService) Add(ctx context.Context, cmd AddItemCommand) (Cart, error) {
	id := strings.TrimSpace(cmd.CartID)
	if id == "" {
		return Cart{}, ErrCartInvalidInput
	}
	if cmd.Quantity < 1 {
		return Cart{}, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	product, err := s.products.Resolve(ctx, strings.TrimSpace(cmd.ProductRef))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Cart{}, fmt.Errorf("%w: product not found", ErrCartInvalidInput)
		}
		if errors.Is(err, ErrProductInvalidInput) {
			return Cart{}, fmt.Errorf("%w: product reference is required", ErrCartInvalidInput)
		}
		return Cart{}, ErrCartUnavailable
	}
	if !product.Active {
		return Cart{}, fmt.Errorf("%w: product is not available", ErrCartInvalidInput)
	}

	if err := s.repo.AddItem(ctx, id, product.ID, cmd.Quantity); err != nil {
		if !isRepoUnavailable(err) {
			return Cart{}, s.translateRepoError(err)
		}
		s.logger(ctx, "cart.write_fell_back", map[string]any{
			"cart_id":    id,
			"product_id": product.ID,
			"error":      err.Error(),
		})
		if err := s.fallback.AddItem(ctx, id, product.ID, cmd.Quantity); err != nil {
			return Cart{}, ErrCartUnavailable
		}
	}

	return s.Get(ctx, id)
}

// SetQuantity replaces the quantity of an existing line.
func (s *cartService) SetQuantity(ctx context.Context, cmd SetQuantityCommand) (Cart, error) {
	id := strings.TrimSpace(cmd.CartID)
	if id == "" {
		return Cart{}, ErrCartInvalidInput
	}
	if cmd.Quantity < 1 {
		return Cart{}, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	productID, err := s.resolveLineProductID(ctx, cmd.ProductRef)
	if err != nil {
		return Cart{}, err
	}

	if err := s.repo.SetItemQuantity(ctx, id, productID, cmd.Quantity); err != nil {
		switch {
		case isRepoNotFound(err):
			if !s.fallback.Has(id) {
				return Cart{}, ErrCartNotFound
			}
			if err := s.fallback.SetItemQuantity(ctx, id, productID, cmd.Quantity); err != nil {
				return Cart{}, ErrCartUnavailable
			}
		case isRepoUnavailable(err):
			s.logger(ctx, "cart.write_fell_back", map[string]any{
				"cart_id":    id,
				"product_id": productID,
				"error":      err.Error(),
			})
			if err := s.fallback.SetItemQuantity(ctx, id, productID, cmd.Quantity); err != nil {
				return Cart{}, ErrCartUnavailable
			}
		default:
			return Cart{}, s.translateRepoError(err)
		}
	}

	return s.Get(ctx, id)
}

// Remove deletes a line. Removing an absent line succeeds.
func (s *cartService) Remove(ctx context.Context, cartID, productRef string) (Cart, error) {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return Cart{}, ErrCartInvalidInput
	}

	productID, err := s.resolveLineProductID(ctx, productRef)
	if errors.Is(err, ErrCartNotFound) {
		// An unknown reference cannot match a stored line, so the removal
		// is already done.
		productID = strings.TrimSpace(productRef)
		err = nil
	}
	if err != nil {
		return Cart{}, err
	}

	if err := s.repo.RemoveItem(ctx, id, productID); err != nil {
		if !isRepoUnavailable(err) {
			return Cart{}, s.translateRepoError(err)
		}
		s.logger(ctx, "cart.write_fell_back", map[string]any{
			"cart_id":    id,
			"product_id": productID,
			"error":      err.Error(),
		})
	}
	_ = s.fallback.RemoveItem(ctx, id, productID)

	return s.Get(ctx, id)
}

// Clear removes every line from both tiers.
func (s *cartService) Clear(ctx context.Context, cartID string) error {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return ErrCartInvalidInput
	}

	if err := s.repo.Clear(ctx, id); err != nil {
		if !isRepoUnavailable(err) {
			return s.translateRepoError(err)
		}
		s.logger(ctx, "cart.clear_primary_failed", map[string]any{
			"cart_id": id,
			"error":   err.Error(),
		})
		_ = s.fallback.Clear(ctx, id)
		return ErrCartUnavailable
	}

	return s.fallback.Clear(ctx, id)
}

// loadItems merges primary and fallback lines. A fallback add puts its
// quantity on top of the matching primary line, so nothing bought during an
// outage disappears once the database returns; a fallback quantity override
// replaces the primary quantity, so a set issued during an outage reads back
// as the value the buyer chose.
func (s *cartService) loadItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	items, err := s.repo.GetItems(ctx, cartID)
	if err != nil {
		if !isRepoUnavailable(err) {
			return nil, s.translateRepoError(err)
		}
		s.logger(ctx, "cart.read_fell_back", map[string]any{
			"cart_id": cartID,
			"error":   err.Error(),
		})
		return s.fallback.GetItems(ctx, cartID)
	}

	entries := s.fallback.Entries(cartID)
	if len(entries) == 0 {
		return items, nil
	}

	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.ProductID] = i
	}
	for _, entry := range entries {
		if i, ok := index[entry.Item.ProductID]; ok {
			if entry.Absolute {
				items[i].Quantity = entry.Item.Quantity
			} else {
				items[i].Quantity += entry.Item.Quantity
			}
			continue
		}
		items = append(items, entry.Item)
	}
	return items, nil
}

func (s *cartService) resolveLineProductID(ctx context.Context, productRef string) (string, error) {
	product, err := s.products.Resolve(ctx, strings.TrimSpace(productRef))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return "", ErrCartNotFound
		}
		if errors.Is(err, ErrProductInvalidInput) {
			return "", fmt.Errorf("%w: product reference is required", ErrCartInvalidInput)
		}
		return "", ErrCartUnavailable
	}
	return product.ID, nil
}

func (s *cartService) translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case isRepoNotFound(err):
		return ErrCartNotFound
	default:
		return ErrCartUnavailable
	}
}
