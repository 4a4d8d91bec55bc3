package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResendNotifierSend(t *testing.T) {
	var got map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	notifier, err := NewResendNotifier(ResendNotifierDeps{
		APIKey:      "re_test_key",
		FromAddress: "orders@yepso.in",
		Endpoint:    server.URL,
	})
	if err != nil {
		t.Fatalf("NewResendNotifier returned error: %v", err)
	}

	if err := notifier.Send(context.Background(), "buyer@example.in", "Order confirmed", "<p>Thanks</p>"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if auth != "Bearer re_test_key" {
		t.Fatalf("authorization header = %q", auth)
	}
	if got["from"] != "orders@yepso.in" {
		t.Fatalf("from = %v", got["from"])
	}
	if got["subject"] != "Order confirmed" {
		t.Fatalf("subject = %v", got["subject"])
	}
}

func TestResendNotifierSendReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer server.Close()

	notifier, err := NewResendNotifier(ResendNotifierDeps{
		APIKey:      "re_test_key",
		FromAddress: "orders@yepso.in",
		Endpoint:    server.URL,
	})
	if err != nil {
		t.Fatalf("NewResendNotifier returned error: %v", err)
	}

	if err := notifier.Send(context.Background(), "not-an-email", "Order confirmed", ""); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestNewResendNotifierRequiresKey(t *testing.T) {
	if _, err := NewResendNotifier(ResendNotifierDeps{FromAddress: "orders@yepso.in"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
