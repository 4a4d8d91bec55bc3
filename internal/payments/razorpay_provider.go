package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

const defaultCallTimeout = 10 * time.Second

// razorpayOrderClient mirrors the slice of the SDK order API used here.
type razorpayOrderClient interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayProvider implements Provider over the Razorpay Orders API.
type RazorpayProvider struct {
	orders      razorpayOrderClient
	keyID       string
	callTimeout time.Duration
	logger      func(context.Context, string, map[string]any)
}

var _ Provider = (*RazorpayProvider)(nil)

// RazorpayProviderDeps configures the adapter.
type RazorpayProviderDeps struct {
	KeyID       string
	KeySecret   string
	CallTimeout time.Duration
	Logger      func(context.Context, string, map[string]any)
}

// NewRazorpayProvider constructs the adapter over the official SDK client.
func NewRazorpayProvider(deps RazorpayProviderDeps) (*RazorpayProvider, error) {
	keyID := strings.TrimSpace(deps.KeyID)
	keySecret := strings.TrimSpace(deps.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, errors.New("payments: razorpay key id and secret are required")
	}

	timeout := deps.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayProvider{
		orders:      client.Order,
		keyID:       keyID,
		callTimeout: timeout,
		logger:      logger,
	}, nil
}

// KeyID returns the public key for the storefront widget.
func (p *RazorpayProvider) KeyID() string {
	return p.keyID
}

// CreateOrder opens a provider-side order for the given amount. The SDK has
// no context support, so the call runs in a goroutine bounded by the
// configured timeout and the caller's context.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, req CreateOrderRequest) (ProviderOrder, error) {
	if req.AmountMinor <= 0 {
		return ProviderOrder{}, errors.New("payments: amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "INR"
	}

	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	type result struct {
		body map[string]interface{}
		err  error
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		body, err := p.orders.Create(data, nil)
		ch <- result{body: body, err: err}
	}()

	select {
	case <-callCtx.Done():
		p.logger(ctx, "payments.razorpay_call_timeout", map[string]any{
			"receipt": req.Receipt,
		})
		return ProviderOrder{}, fmt.Errorf("payments: create order: %w", callCtx.Err())
	case res := <-ch:
		if res.err != nil {
			return ProviderOrder{}, fmt.Errorf("payments: create order: %w", res.err)
		}
		id, _ := res.body["id"].(string)
		if id == "" {
			return ProviderOrder{}, errors.New("payments: create order: response missing id")
		}
		return ProviderOrder{ID: id, Raw: res.body}, nil
	}
}
