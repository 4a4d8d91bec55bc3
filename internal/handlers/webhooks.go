package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yepso-store/api/internal/platform/httpx"
	"github.com/yepso-store/api/internal/services"
)

const maxWebhookBodySize = 256 * 1024

// signatureHeader carries the hex HMAC digest computed by the provider over
// the raw request body.
const signatureHeader = "X-Razorpay-Signature"

// WebhookHandlers receives provider webhook deliveries.
type WebhookHandlers struct {
	webhooks services.WebhookService
}

// NewWebhookHandlers constructs handlers over the webhook service.
func NewWebhookHandlers(webhooks services.WebhookService) *WebhookHandlers {
	return &WebhookHandlers{webhooks: webhooks}
}

// Routes wires the /webhooks endpoints onto the provided router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/razorpay", h.receive)
}

func (h *WebhookHandlers) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.webhooks == nil {
		httpx.WriteError(ctx, w, httpx.NewError("webhooks_unavailable", "webhooks are unavailable", http.StatusServiceUnavailable))
		return
	}

	// The body is verified byte for byte, so it is read raw without any
	// decoding pass first.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize+1))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
		return
	}
	if int64(len(body)) > maxWebhookBodySize {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		return
	}

	err = h.webhooks.Process(ctx, body, r.Header.Get(signatureHeader))
	switch {
	case err == nil:
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
	case errors.Is(err, services.ErrWebhookSignature):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "signature verification failed", http.StatusUnauthorized))
	case errors.Is(err, services.ErrWebhookMalformed):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed webhook payload", http.StatusBadRequest))
	default:
		// A 5xx asks the provider to redeliver once local state is back.
		httpx.WriteError(ctx, w, httpx.NewError("webhooks_unavailable", "unable to apply webhook", http.StatusServiceUnavailable))
	}
}
