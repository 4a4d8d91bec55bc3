package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yepso-store/api/internal/services"
)

type stubWebhookSvc struct {
	processFn func(ctx context.Context, rawBody []byte, signature string) error

	gotBody      []byte
	gotSignature string
}

func (s *stubWebhookSvc) Process(ctx context.Context, rawBody []byte, signature string) error {
	s.gotBody = rawBody
	s.gotSignature = signature
	if s.processFn != nil {
		return s.processFn(ctx, rawBody, signature)
	}
	return nil
}

func newWebhookRouter(svc services.WebhookService) chi.Router {
	r := chi.NewRouter()
	NewWebhookHandlers(svc).Routes(r)
	return r
}

func TestWebhookPassesRawBodyAndSignature(t *testing.T) {
	svc := &stubWebhookSvc{}
	router := newWebhookRouter(svc)

	payload := `{"event":"payment.captured"}`
	req := httptest.NewRequest(http.MethodPost, "/razorpay", strings.NewReader(payload))
	req.Header.Set("X-Razorpay-Signature", "deadbeef")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if string(svc.gotBody) != payload {
		t.Fatalf("body altered before verification: %q", svc.gotBody)
	}
	if svc.gotSignature != "deadbeef" {
		t.Fatalf("unexpected signature %q", svc.gotSignature)
	}
}

func TestWebhookSignatureMismatchIsRejected(t *testing.T) {
	svc := &stubWebhookSvc{
		processFn: func(context.Context, []byte, string) error {
			return services.ErrWebhookSignature
		},
	}
	router := newWebhookRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/razorpay", strings.NewReader("{}")))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body.Bytes()); code != "invalid_signature" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestWebhookMalformedPayloadMapsTo400(t *testing.T) {
	svc := &stubWebhookSvc{
		processFn: func(context.Context, []byte, string) error {
			return services.ErrWebhookMalformed
		},
	}
	router := newWebhookRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/razorpay", strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookStorageOutageAsksForRedelivery(t *testing.T) {
	svc := &stubWebhookSvc{
		processFn: func(context.Context, []byte, string) error {
			return services.ErrWebhookUnavailable
		},
	}
	router := newWebhookRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/razorpay", strings.NewReader("{}")))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
