package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories"
	"github.com/yepso-store/api/internal/repositories/memory"
)

// ErrProductInvalidInput indicates the caller supplied invalid input.
var ErrProductInvalidInput = errors.New("product service: invalid input")

// ErrProductNotFound indicates the referenced product does not exist in any tier.
var ErrProductNotFound = errors.New("product service: not found")

// ErrProductConflict indicates a slug collision on create or update.
var ErrProductConflict = errors.New("product service: conflict")

// ErrProductUnavailable indicates the catalog cannot be served.
var ErrProductUnavailable = errors.New("product service: unavailable")

var errProductMirrorRequired = errors.New("product service: mirror is required")

const maxDiscountPercent = 90

// ProductServiceDeps wires the primary store and the in-process mirror.
type ProductServiceDeps struct {
	Repository  repositories.ProductRepository
	Mirror      *memory.Catalog
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type productService struct {
	repo   repositories.ProductRepository
	mirror *memory.Catalog
	now    func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewProductService constructs a ProductService enforcing dependency validation.
func NewProductService(deps ProductServiceDeps) (ProductService, error) {
	if deps.Mirror == nil {
		return nil, errProductMirrorRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &productService{
		repo:   deps.Repository,
		mirror: deps.Mirror,
		now:    func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Resolve looks the product up in the primary store first, refreshing the
// mirror on success. A transport failure falls through to the mirror, which
// covers both previously seen products and the static seed.
func (s *productService) Resolve(ctx context.Context, ref string) (Product, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return Product{}, ErrProductInvalidInput
	}

	if s.repo != nil {
		product, err := s.repo.GetByRef(ctx, trimmed)
		if err == nil {
			s.mirror.Store(product)
			return product, nil
		}
		if isRepoNotFound(err) {
			return Product{}, ErrProductNotFound
		}
		s.logger(ctx, "catalog.primary_lookup_failed", map[string]any{
			"ref":   trimmed,
			"error": err.Error(),
		})
	}

	if product, ok := s.mirror.Get(trimmed); ok {
		return product, nil
	}
	return Product{}, ErrProductNotFound
}

// List returns the catalog, falling back to the mirror on transport failure.
func (s *productService) List(ctx context.Context, includeInactive bool) ([]Product, error) {
	if s.repo != nil {
		products, err := s.repo.List(ctx, includeInactive)
		if err == nil {
			for _, product := range products {
				s.mirror.Store(product)
			}
			return products, nil
		}
		s.logger(ctx, "catalog.primary_list_failed", map[string]any{
			"error": err.Error(),
		})
	}

	return s.mirror.List(includeInactive), nil
}

// Create stores a new catalog record. Slug collisions surface as conflicts.
func (s *productService) Create(ctx context.Context, cmd CreateProductCommand) (Product, error) {
	if s.repo == nil {
		return Product{}, ErrProductUnavailable
	}

	slug := strings.TrimSpace(cmd.Slug)
	name := strings.TrimSpace(cmd.Name)
	if slug == "" {
		return Product{}, fmt.Errorf("%w: slug is required", ErrProductInvalidInput)
	}
	if name == "" {
		return Product{}, fmt.Errorf("%w: name is required", ErrProductInvalidInput)
	}
	if cmd.Price < 0 {
		return Product{}, fmt.Errorf("%w: price must be non-negative", ErrProductInvalidInput)
	}
	if cmd.DiscountPercent < 0 || cmd.DiscountPercent > maxDiscountPercent {
		return Product{}, fmt.Errorf("%w: discount_percent must be between 0 and %d", ErrProductInvalidInput, maxDiscountPercent)
	}

	now := s.now()
	product := domain.Product{
		ID:              s.newID(),
		Slug:            slug,
		Name:            name,
		Description:     strings.TrimSpace(cmd.Description),
		Image:           strings.TrimSpace(cmd.Image),
		Price:           cmd.Price,
		DiscountPercent: cmd.DiscountPercent,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		return Product{}, s.translateRepoError(err)
	}

	s.mirror.Store(product)
	return product, nil
}

// Update rewrites the fields carried by non-nil pointers.
func (s *productService) Update(ctx context.Context, cmd UpdateProductCommand) (Product, error) {
	if s.repo == nil {
		return Product{}, ErrProductUnavailable
	}

	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Product{}, ErrProductInvalidInput
	}

	product, err := s.repo.GetByRef(ctx, productID)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}

	if cmd.Slug != nil {
		slug := strings.TrimSpace(*cmd.Slug)
		if slug == "" {
			return Product{}, fmt.Errorf("%w: slug must not be empty", ErrProductInvalidInput)
		}
		product.Slug = slug
	}
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return Product{}, fmt.Errorf("%w: name must not be empty", ErrProductInvalidInput)
		}
		product.Name = name
	}
	if cmd.Description != nil {
		product.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.Image != nil {
		product.Image = strings.TrimSpace(*cmd.Image)
	}
	if cmd.Price != nil {
		if *cmd.Price < 0 {
			return Product{}, fmt.Errorf("%w: price must be non-negative", ErrProductInvalidInput)
		}
		product.Price = *cmd.Price
	}
	if cmd.DiscountPercent != nil {
		if *cmd.DiscountPercent < 0 || *cmd.DiscountPercent > maxDiscountPercent {
			return Product{}, fmt.Errorf("%w: discount_percent must be between 0 and %d", ErrProductInvalidInput, maxDiscountPercent)
		}
		product.DiscountPercent = *cmd.DiscountPercent
	}
	if cmd.Active != nil {
		product.Active = *cmd.Active
	}
	product.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, product); err != nil {
		return Product{}, s.translateRepoError(err)
	}

	s.mirror.Store(product)
	return product, nil
}

// Deactivate hides a product from the storefront.
func (s *productService) Deactivate(ctx context.Context, productID string) error {
	if s.repo == nil {
		return ErrProductUnavailable
	}

	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return ErrProductInvalidInput
	}

	if err := s.repo.Deactivate(ctx, trimmed); err != nil {
		return s.translateRepoError(err)
	}

	if product, ok := s.mirror.Get(trimmed); ok {
		product.Active = false
		product.UpdatedAt = s.now()
		s.mirror.Store(product)
	}
	return nil
}

func (s *productService) translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case isRepoNotFound(err):
		return ErrProductNotFound
	case isRepoConflict(err):
		return ErrProductConflict
	default:
		return ErrProductUnavailable
	}
}
