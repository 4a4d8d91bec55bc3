package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories"
)

// OrderRepository persists orders with frozen items and addresses as JSONB.
type OrderRepository struct {
	db *sqlx.DB
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs the repository over an open pool.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type orderRow struct {
	ID              string         `db:"id"`
	CartID          string         `db:"cart_id"`
	AccountID       sql.NullString `db:"account_id"`
	Email           string         `db:"email"`
	Status          string         `db:"status"`
	Items           []byte         `db:"items"`
	ShippingAddress []byte         `db:"shipping_address"`
	BillingAddress  []byte         `db:"billing_address"`
	Subtotal        int64          `db:"subtotal"`
	ShippingFee     int64          `db:"shipping_fee"`
	Tax             int64          `db:"tax"`
	Total           int64          `db:"total"`
	Currency        string         `db:"currency"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r orderRow) toDomain() (domain.Order, error) {
	order := domain.Order{
		ID:        r.ID,
		CartID:    r.CartID,
		AccountID: r.AccountID.String,
		Email:     r.Email,
		Status:    domain.OrderStatus(r.Status),
		Subtotal:  r.Subtotal,
		Shipping:  r.ShippingFee,
		Tax:       r.Tax,
		Total:     r.Total,
		Currency:  r.Currency,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Items, &order.Items); err != nil {
		return domain.Order{}, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(r.ShippingAddress, &order.ShippingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(r.BillingAddress, &order.BillingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("decode billing address: %w", err)
	}
	return order, nil
}

const orderColumns = `id, cart_id, account_id, email, status, items, shipping_address, billing_address, subtotal, shipping_fee, tax, total, currency, created_at, updated_at`

// Insert stores a new order.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return classify("orders.insert", err)
	}
	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return classify("orders.insert", err)
	}
	billing, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return classify("orders.insert", err)
	}

	var accountID sql.NullString
	if order.AccountID != "" {
		accountID = sql.NullString{String: order.AccountID, Valid: true}
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.db.ExecContext(ctx, query,
		order.ID, order.CartID, accountID, order.Email, string(order.Status),
		items, shipping, billing,
		order.Subtotal, order.Shipping, order.Tax, order.Total, order.Currency,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return classify("orders.insert", err)
	}
	return nil
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, orderID); err != nil {
		return domain.Order{}, classify("orders.find_by_id", err)
	}
	order, err := row.toDomain()
	if err != nil {
		return domain.Order{}, classify("orders.find_by_id", err)
	}
	return order, nil
}

// ListByAccount returns the account's orders, newest first.
func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Order, error) {
	var rows []orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE account_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, accountID); err != nil {
		return nil, classify("orders.list_by_account", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toDomain()
		if err != nil {
			return nil, classify("orders.list_by_account", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// MarkPaid performs the compare-and-set transition to paid. It returns true
// only for the call that actually flipped the status, so replayed webhook
// deliveries observe false and skip their side effects.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	// The guard is status <> 'paid' rather than status = 'pending': a capture
	// delivered after a failed mark still settles the order, since the
	// provider has taken the money.
	query := `UPDATE orders SET status = 'paid', updated_at = now() WHERE id = $1 AND status <> 'paid'`
	result, err := r.db.ExecContext(ctx, query, orderID)
	if err != nil {
		return false, classify("orders.mark_paid", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, classify("orders.mark_paid", err)
	}
	return affected > 0, nil
}

// MarkFailedIfPending flips a still-pending order to failed. Orders in any
// other state are left untouched.
func (r *OrderRepository) MarkFailedIfPending(ctx context.Context, orderID string) error {
	query := `UPDATE orders SET status = 'failed', updated_at = now() WHERE id = $1 AND status = 'pending'`
	if _, err := r.db.ExecContext(ctx, query, orderID); err != nil {
		return classify("orders.mark_failed_if_pending", err)
	}
	return nil
}
