package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrSignatureMismatch is returned when a webhook signature fails verification.
// Callers must not leak the reason for the failure to the remote peer.
var ErrSignatureMismatch = errors.New("auth: webhook signature mismatch")

// WebhookVerifier validates provider webhook signatures computed as a
// hex-encoded HMAC-SHA256 digest over the exact raw request body.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier constructs a verifier over the shared signing secret.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("auth: webhook secret is required")
	}
	return &WebhookVerifier{secret: []byte(trimmed)}, nil
}

// Verify checks the signature against the raw body. The comparison is
// constant-time over the decoded digests; any malformed or mismatched
// signature yields ErrSignatureMismatch with no further detail.
func (v *WebhookVerifier) Verify(body []byte, signature string) error {
	if v == nil || len(v.secret) == 0 {
		return errors.New("auth: webhook verifier not configured")
	}

	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(provided) == 0 {
		return ErrSignatureMismatch
	}

	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign computes the hex signature for a body. Used by tests and local tooling.
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
