// Package payments adapts external payment service providers behind a
// uniform interface selected through a Manager.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedProvider is returned when the manager cannot locate a provider.
var ErrUnsupportedProvider = errors.New("payments: unsupported provider")

// CreateOrderRequest captures the payload required to open a provider-side order.
type CreateOrderRequest struct {
	// AmountMinor is the amount in the currency's minor unit (paise for INR).
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// ProviderOrder is the provider-side order the storefront opens payment against.
type ProviderOrder struct {
	ID  string
	Raw map[string]any
}

// Provider defines the contract for payment service provider adapters.
type Provider interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (ProviderOrder, error)
	// KeyID returns the public key the storefront embeds in its payment widget.
	KeyID() string
}

// Manager coordinates provider selection.
type Manager struct {
	providers       map[string]Provider
	defaultProvider string
}

// ManagerOption configures optional behaviour when building a Manager.
type ManagerOption func(*Manager)

// WithDefaultProvider overrides the default provider.
func WithDefaultProvider(provider string) ManagerOption {
	return func(m *Manager) {
		m.defaultProvider = provider
	}
}

// NewManager constructs a Manager over the supplied providers.
func NewManager(providers map[string]Provider, opts ...ManagerOption) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("payments: at least one provider is required")
	}
	copyMap := make(map[string]Provider, len(providers))
	for k, v := range providers {
		key := strings.TrimSpace(strings.ToLower(k))
		if key == "" || v == nil {
			return nil, fmt.Errorf("payments: invalid provider registration for key %q", k)
		}
		copyMap[key] = v
	}
	m := &Manager{providers: copyMap}
	if _, ok := copyMap["razorpay"]; ok {
		m.defaultProvider = "razorpay"
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Resolve returns the named provider, or the default when name is empty.
func (m *Manager) Resolve(name string) (string, Provider, error) {
	if m == nil || len(m.providers) == 0 {
		return "", nil, errors.New("payments: no providers registered")
	}
	if key := strings.TrimSpace(strings.ToLower(name)); key != "" {
		if p, ok := m.providers[key]; ok {
			return key, p, nil
		}
		return "", nil, ErrUnsupportedProvider
	}
	if def := strings.TrimSpace(strings.ToLower(m.defaultProvider)); def != "" {
		if p, ok := m.providers[def]; ok {
			return def, p, nil
		}
	}
	if len(m.providers) == 1 {
		for key, p := range m.providers {
			return key, p, nil
		}
	}
	return "", nil, ErrUnsupportedProvider
}

// CreateOrder delegates to the resolved provider and stamps its key.
func (m *Manager) CreateOrder(ctx context.Context, name string, req CreateOrderRequest) (string, ProviderOrder, error) {
	key, provider, err := m.Resolve(name)
	if err != nil {
		return "", ProviderOrder{}, err
	}
	order, err := provider.CreateOrder(ctx, req)
	if err != nil {
		return key, ProviderOrder{}, err
	}
	return key, order, nil
}
