package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories"
)

// ProductRepository persists catalog records in the products table.
type ProductRepository struct {
	db *sqlx.DB
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository constructs the repository over an open pool.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type productRow struct {
	ID              string    `db:"id"`
	Slug            string    `db:"slug"`
	Name            string    `db:"name"`
	Description     string    `db:"description"`
	Image           string    `db:"image"`
	Price           int64     `db:"price"`
	DiscountPercent int       `db:"discount_percent"`
	Active          bool      `db:"active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:              r.ID,
		Slug:            r.Slug,
		Name:            r.Name,
		Description:     r.Description,
		Image:           r.Image,
		Price:           r.Price,
		DiscountPercent: r.DiscountPercent,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const productColumns = `id, slug, name, description, image, price, discount_percent, active, created_at, updated_at`

// GetByRef resolves a product by ID or slug.
func (r *ProductRepository) GetByRef(ctx context.Context, ref string) (domain.Product, error) {
	var row productRow
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 OR slug = $1`
	if err := r.db.GetContext(ctx, &row, query, ref); err != nil {
		return domain.Product{}, classify("products.get_by_ref", err)
	}
	return row.toDomain(), nil
}

// List returns catalog records ordered by creation time, newest first.
func (r *ProductRepository) List(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active ORDER BY created_at DESC`
	if includeInactive {
		query = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	}

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, classify("products.list", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

// Insert stores a new catalog record. Slug collisions surface as conflicts.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	query := `
		INSERT INTO products (id, slug, name, description, image, price, discount_percent, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.Slug, product.Name, product.Description, product.Image,
		product.Price, product.DiscountPercent, product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return classify("products.insert", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing record.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	query := `
		UPDATE products
		SET slug = $2, name = $3, description = $4, image = $5, price = $6,
		    discount_percent = $7, active = $8, updated_at = $9
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		product.ID, product.Slug, product.Name, product.Description, product.Image,
		product.Price, product.DiscountPercent, product.Active, product.UpdatedAt)
	if err != nil {
		return classify("products.update", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classify("products.update", err)
	}
	if affected == 0 {
		return notFoundError("products.update")
	}
	return nil
}

// Deactivate hides a product from the storefront without deleting it.
func (r *ProductRepository) Deactivate(ctx context.Context, productID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET active = FALSE, updated_at = now() WHERE id = $1`, productID)
	if err != nil {
		return classify("products.deactivate", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classify("products.deactivate", err)
	}
	if affected == 0 {
		return notFoundError("products.deactivate")
	}
	return nil
}
