package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories"
)

// CartRepository persists cart lines keyed by (cart_id, product_id).
type CartRepository struct {
	db *sqlx.DB
}

var _ repositories.CartRepository = (*CartRepository)(nil)

// NewCartRepository constructs the repository over an open pool.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

type cartItemRow struct {
	ProductID string    `db:"product_id"`
	Quantity  int       `db:"quantity"`
	AddedAt   time.Time `db:"added_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetItems returns the stored lines for a cart in insertion order.
func (r *CartRepository) GetItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	var rows []cartItemRow
	query := `SELECT product_id, quantity, added_at, updated_at FROM cart_items WHERE cart_id = $1 ORDER BY added_at`
	if err := r.db.SelectContext(ctx, &rows, query, cartID); err != nil {
		return nil, classify("cart_items.get", err)
	}

	items := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.CartItem{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			AddedAt:   row.AddedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return items, nil
}

// AddItem inserts the line or increments its quantity in a single statement,
// so concurrent adds for the same product never lose an increment.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID, quantity); err != nil {
		return classify("cart_items.add", err)
	}
	return nil
}

// SetItemQuantity replaces the stored quantity for an existing line.
func (r *CartRepository) SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	query := `UPDATE cart_items SET quantity = $3, updated_at = now() WHERE cart_id = $1 AND product_id = $2`
	result, err := r.db.ExecContext(ctx, query, cartID, productID, quantity)
	if err != nil {
		return classify("cart_items.set_quantity", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classify("cart_items.set_quantity", err)
	}
	if affected == 0 {
		return notFoundError("cart_items.set_quantity")
	}
	return nil
}

// RemoveItem deletes a line. Removing an absent line is not an error.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID); err != nil {
		return classify("cart_items.remove", err)
	}
	return nil
}

// Clear removes every line for the cart.
func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return classify("cart_items.clear", err)
	}
	return nil
}
