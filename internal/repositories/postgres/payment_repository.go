package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/repositories"
)

// PaymentRepository persists provider payment records.
type PaymentRepository struct {
	db *sqlx.DB
}

var _ repositories.PaymentRepository = (*PaymentRepository)(nil)

// NewPaymentRepository constructs the repository over an open pool.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentRow struct {
	ID                string         `db:"id"`
	OrderID           string         `db:"order_id"`
	Provider          string         `db:"provider"`
	ProviderOrderID   sql.NullString `db:"provider_order_id"`
	ProviderPaymentID sql.NullString `db:"provider_payment_id"`
	Status            string         `db:"status"`
	Amount            int64          `db:"amount"`
	Currency          string         `db:"currency"`
	RawPayload        []byte         `db:"raw_payload"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r paymentRow) toDomain() domain.Payment {
	return domain.Payment{
		ID:                r.ID,
		OrderID:           r.OrderID,
		Provider:          r.Provider,
		ProviderOrderID:   r.ProviderOrderID.String,
		ProviderPaymentID: r.ProviderPaymentID.String,
		Status:            domain.PaymentStatus(r.Status),
		Amount:            r.Amount,
		Currency:          r.Currency,
		RawPayload:        r.RawPayload,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// Insert stores a new payment record. The provider order reference may be
// empty at this point; it is stored as NULL until SetProviderOrderID links it.
func (r *PaymentRepository) Insert(ctx context.Context, payment domain.Payment) error {
	var providerOrderID sql.NullString
	if payment.ProviderOrderID != "" {
		providerOrderID = sql.NullString{String: payment.ProviderOrderID, Valid: true}
	}

	query := `
		INSERT INTO payments (id, order_id, provider, provider_order_id, status, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.OrderID, payment.Provider, providerOrderID,
		string(payment.Status), payment.Amount, payment.Currency,
		payment.CreatedAt, payment.UpdatedAt)
	if err != nil {
		return classify("payments.insert", err)
	}
	return nil
}

// SetProviderOrderID links a payment to the order the provider opened for it.
// Duplicate provider order references surface as conflicts through the unique
// index.
func (r *PaymentRepository) SetProviderOrderID(ctx context.Context, paymentID, providerOrderID string) error {
	query := `UPDATE payments SET provider_order_id = $2, updated_at = now() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, paymentID, providerOrderID)
	if err != nil {
		return classify("payments.set_provider_order_id", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classify("payments.set_provider_order_id", err)
	}
	if affected == 0 {
		return notFoundError("payments.set_provider_order_id")
	}
	return nil
}

// FindByProviderOrderID resolves the payment linked to a provider-side order.
func (r *PaymentRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (domain.Payment, error) {
	var row paymentRow
	query := `
		SELECT id, order_id, provider, provider_order_id, provider_payment_id, status, amount, currency, raw_payload, created_at, updated_at
		FROM payments WHERE provider_order_id = $1`
	if err := r.db.GetContext(ctx, &row, query, providerOrderID); err != nil {
		return domain.Payment{}, classify("payments.find_by_provider_order_id", err)
	}
	return row.toDomain(), nil
}

// RecordWebhook updates the payment with the outcome reported by the provider
// and keeps the raw delivery body for audit.
func (r *PaymentRepository) RecordWebhook(ctx context.Context, providerOrderID string, status domain.PaymentStatus, providerPaymentID string, rawPayload []byte) error {
	var paymentID sql.NullString
	if providerPaymentID != "" {
		paymentID = sql.NullString{String: providerPaymentID, Valid: true}
	}

	query := `
		UPDATE payments
		SET status = $2,
		    provider_payment_id = COALESCE($3, provider_payment_id),
		    raw_payload = $4,
		    updated_at = now()
		WHERE provider_order_id = $1`
	result, err := r.db.ExecContext(ctx, query, providerOrderID, string(status), paymentID, rawPayload)
	if err != nil {
		return classify("payments.record_webhook", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classify("payments.record_webhook", err)
	}
	if affected == 0 {
		return notFoundError("payments.record_webhook")
	}
	return nil
}
