package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/yepso-store/api/internal/domain"
	"github.com/yepso-store/api/internal/notifications"
	"github.com/yepso-store/api/internal/platform/auth"
	"github.com/yepso-store/api/internal/repositories"
)

// ErrWebhookSignature indicates the delivery failed signature verification
// and must be rejected without side effects.
var ErrWebhookSignature = errors.New("webhook service: signature verification failed")

// ErrWebhookMalformed indicates the delivery body could not be parsed.
var ErrWebhookMalformed = errors.New("webhook service: malformed payload")

// ErrWebhookUnavailable indicates local state could not be updated; the
// provider should redeliver.
var ErrWebhookUnavailable = errors.New("webhook service: unavailable")

var (
	errWebhookVerifierRequired = errors.New("webhook service: verifier is required")
	errWebhookOrdersRequired   = errors.New("webhook service: order repository is required")
	errWebhookPaymentsRequired = errors.New("webhook service: payment repository is required")
	errWebhookCartsRequired    = errors.New("webhook service: cart service is required")
)

const notifyTimeout = 10 * time.Second

// WebhookServiceDeps wires the dependencies for webhook reconciliation.
type WebhookServiceDeps struct {
	Verifier *auth.WebhookVerifier
	Orders   repositories.OrderRepository
	Payments repositories.PaymentRepository
	Carts    CartService
	Notifier notifications.Notifier
	Logger   func(context.Context, string, map[string]any)
}

type webhookService struct {
	verifier *auth.WebhookVerifier
	orders   repositories.OrderRepository
	payments repositories.PaymentRepository
	carts    CartService
	notifier notifications.Notifier
	logger   func(context.Context, string, map[string]any)
}

// NewWebhookService constructs a WebhookService enforcing dependency validation.
func NewWebhookService(deps WebhookServiceDeps) (WebhookService, error) {
	if deps.Verifier == nil {
		return nil, errWebhookVerifierRequired
	}
	if deps.Orders == nil {
		return nil, errWebhookOrdersRequired
	}
	if deps.Payments == nil {
		return nil, errWebhookPaymentsRequired
	}
	if deps.Carts == nil {
		return nil, errWebhookCartsRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &webhookService{
		verifier: deps.Verifier,
		orders:   deps.Orders,
		payments: deps.Payments,
		carts:    deps.Carts,
		notifier: deps.Notifier,
		logger:   logger,
	}, nil
}

// webhookEnvelope mirrors the slice of the provider event body used for
// reconciliation.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func (e webhookEnvelope) providerOrderID() string {
	if id := strings.TrimSpace(e.Payload.Payment.Entity.OrderID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Payload.Order.Entity.ID)
}

// isPaid reports whether the delivery communicates a successful capture,
// via the event name or the embedded payment status.
func (e webhookEnvelope) isPaid() bool {
	switch e.Event {
	case "payment.captured", "order.paid":
		return true
	}
	return e.Payload.Payment.Entity.Status == "captured"
}

func (e webhookEnvelope) isFailed() bool {
	return e.Event == "payment.failed" || e.Payload.Payment.Entity.Status == "failed"
}

// Process verifies and applies a delivery. Replays are safe: the paid
// transition is a compare-and-set, and the cart clear and notification fire
// only for the delivery that actually performed it.
func (s *webhookService) Process(ctx context.Context, rawBody []byte, signature string) error {
	if err := s.verifier.Verify(rawBody, signature); err != nil {
		return ErrWebhookSignature
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookMalformed, err)
	}

	providerOrderID := envelope.providerOrderID()
	if providerOrderID == "" {
		// Nothing to reconcile against. Acknowledge so the provider does
		// not retry an event this service will never use.
		s.logger(ctx, "webhook.no_order_reference", map[string]any{
			"event": envelope.Event,
		})
		return nil
	}

	payment, err := s.payments.FindByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		if isRepoNotFound(err) {
			// Unknown payment: acknowledged, logged, never retried forever.
			s.logger(ctx, "webhook.unknown_payment", map[string]any{
				"event":             envelope.Event,
				"provider_order_id": providerOrderID,
			})
			return nil
		}
		return ErrWebhookUnavailable
	}

	switch {
	case envelope.isPaid():
		return s.applyPaid(ctx, envelope, payment, rawBody)
	case envelope.isFailed():
		return s.applyFailed(ctx, envelope, payment, rawBody)
	default:
		// Record the delivery for audit without changing the payment state.
		if err := s.payments.RecordWebhook(ctx, payment.ProviderOrderID, payment.Status, envelope.Payload.Payment.Entity.ID, rawBody); err != nil && !isRepoNotFound(err) {
			return ErrWebhookUnavailable
		}
		s.logger(ctx, "webhook.ignored_event", map[string]any{
			"event":    envelope.Event,
			"order_id": payment.OrderID,
		})
		return nil
	}
}

func (s *webhookService) applyPaid(ctx context.Context, envelope webhookEnvelope, payment domain.Payment, rawBody []byte) error {
	if err := s.payments.RecordWebhook(ctx, payment.ProviderOrderID, domain.PaymentStatusPaid, envelope.Payload.Payment.Entity.ID, rawBody); err != nil {
		return ErrWebhookUnavailable
	}

	transitioned, err := s.orders.MarkPaid(ctx, payment.OrderID)
	if err != nil {
		return ErrWebhookUnavailable
	}
	if !transitioned {
		s.logger(ctx, "webhook.replay_ignored", map[string]any{
			"event":    envelope.Event,
			"order_id": payment.OrderID,
		})
		return nil
	}

	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		// The transition is durable; the cart clear retries on redelivery
		// via MarkPaid returning false, so only log here.
		s.logger(ctx, "webhook.order_reload_failed", map[string]any{
			"order_id": payment.OrderID,
			"error":    err.Error(),
		})
		return nil
	}

	if err := s.carts.Clear(ctx, order.CartID); err != nil {
		s.logger(ctx, "webhook.cart_clear_failed", map[string]any{
			"order_id": order.ID,
			"cart_id":  order.CartID,
			"error":    err.Error(),
		})
	}

	s.logger(ctx, "webhook.order_paid", map[string]any{
		"order_id": order.ID,
		"event":    envelope.Event,
	})
	s.notifyPaid(ctx, order)
	return nil
}

func (s *webhookService) applyFailed(ctx context.Context, envelope webhookEnvelope, payment domain.Payment, rawBody []byte) error {
	if err := s.payments.RecordWebhook(ctx, payment.ProviderOrderID, domain.PaymentStatusFailed, envelope.Payload.Payment.Entity.ID, rawBody); err != nil {
		return ErrWebhookUnavailable
	}
	if err := s.orders.MarkFailedIfPending(ctx, payment.OrderID); err != nil {
		return ErrWebhookUnavailable
	}

	s.logger(ctx, "webhook.payment_failed", map[string]any{
		"order_id": payment.OrderID,
		"event":    envelope.Event,
	})
	return nil
}

// notifyPaid sends the confirmation email without holding up the webhook
// acknowledgement. The delivery context is detached so the provider closing
// the connection does not cancel the send.
func (s *webhookService) notifyPaid(ctx context.Context, order domain.Order) {
	if s.notifier == nil || strings.TrimSpace(order.Email) == "" {
		return
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		subject := fmt.Sprintf("Order %s confirmed", order.ID)
		if err := s.notifier.Send(sendCtx, order.Email, subject, orderConfirmationHTML(order)); err != nil {
			s.logger(sendCtx, "webhook.notification_failed", map[string]any{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}()
}

func orderConfirmationHTML(order domain.Order) string {
	var b strings.Builder
	b.WriteString("<h1>Thank you for your order</h1>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> is confirmed.</p><ul>", order.ID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%s x%d</li>", item.Name, item.Quantity)
	}
	fmt.Fprintf(&b, "</ul><p>Total: %d %s</p>", order.Total, order.Currency)
	return b.String()
}
