package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendNotifier sends transactional email through the Resend HTTP API.
type ResendNotifier struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

var _ Notifier = (*ResendNotifier)(nil)

// ResendNotifierDeps configures the notifier.
type ResendNotifierDeps struct {
	APIKey      string
	FromAddress string
	SendTimeout time.Duration
	// Endpoint overrides the API URL, used by tests.
	Endpoint string
}

// NewResendNotifier constructs the notifier with a bounded HTTP client.
func NewResendNotifier(deps ResendNotifierDeps) (*ResendNotifier, error) {
	apiKey := strings.TrimSpace(deps.APIKey)
	if apiKey == "" {
		return nil, errors.New("notifications: resend api key is required")
	}
	from := strings.TrimSpace(deps.FromAddress)
	if from == "" {
		return nil, errors.New("notifications: from address is required")
	}

	timeout := deps.SendTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	endpoint := strings.TrimSpace(deps.Endpoint)
	if endpoint == "" {
		endpoint = resendEndpoint
	}

	return &ResendNotifier{
		apiKey:   apiKey,
		from:     from,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Send posts the message to the Resend API.
func (n *ResendNotifier) Send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(map[string]any{
		"from":    n.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return fmt.Errorf("notifications: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notifications: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifications: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notifications: send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
