package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultCookieTTL = 30 * 24 * time.Hour

// ErrInvalidSession indicates the presented session token is unknown or expired.
var ErrInvalidSession = errors.New("identity: invalid session")

// Account describes an authenticated storefront account.
type Account struct {
	ID    string
	Admin bool
}

// SessionVerifier resolves bearer session tokens to accounts.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (Account, error)
}

// StaticSessionVerifier verifies tokens against a fixed map, used for local
// development and tests when no session backend is configured.
type StaticSessionVerifier struct {
	tokens map[string]string
	admins map[string]struct{}
}

// NewStaticSessionVerifier builds a verifier from token-to-account and admin account lists.
func NewStaticSessionVerifier(tokens map[string]string, adminAccounts []string) *StaticSessionVerifier {
	copied := make(map[string]string, len(tokens))
	for token, account := range tokens {
		token = strings.TrimSpace(token)
		account = strings.TrimSpace(account)
		if token == "" || account == "" {
			continue
		}
		copied[token] = account
	}
	admins := make(map[string]struct{}, len(adminAccounts))
	for _, account := range adminAccounts {
		if trimmed := strings.TrimSpace(account); trimmed != "" {
			admins[trimmed] = struct{}{}
		}
	}
	return &StaticSessionVerifier{tokens: copied, admins: admins}
}

// Verify implements SessionVerifier.
func (v *StaticSessionVerifier) Verify(_ context.Context, token string) (Account, error) {
	if v == nil {
		return Account{}, ErrInvalidSession
	}
	account, ok := v.tokens[strings.TrimSpace(token)]
	if !ok {
		return Account{}, ErrInvalidSession
	}
	_, admin := v.admins[account]
	return Account{ID: account, Admin: admin}, nil
}

// Resolution is the outcome of resolving the cart identity for a request.
type Resolution struct {
	// Account is nil for anonymous requests.
	Account *Account
	// CartID is always populated; it equals Account.ID once a session exists.
	CartID string
	// Changed signals that the cart-identity cookie must be re-issued.
	Changed bool
}

// ResolverDeps wires the session verifier and cookie parameters.
type ResolverDeps struct {
	Sessions    SessionVerifier
	CookieName  string
	CookieTTL   time.Duration
	IDGenerator func() string
	Clock       func() time.Time
}

// Resolver derives a stable cart identity from request credentials. It never fails:
// an unverifiable session simply downgrades the request to anonymous.
type Resolver struct {
	sessions   SessionVerifier
	cookieName string
	cookieTTL  time.Duration
	newID      func() string
	now        func() time.Time
}

// NewResolver constructs a Resolver enforcing dependency validation.
func NewResolver(deps ResolverDeps) (*Resolver, error) {
	cookieName := strings.TrimSpace(deps.CookieName)
	if cookieName == "" {
		return nil, errors.New("identity: cookie name is required")
	}

	ttl := deps.CookieTTL
	if ttl <= 0 {
		ttl = defaultCookieTTL
	}

	newID := deps.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Resolver{
		sessions:   deps.Sessions,
		cookieName: cookieName,
		cookieTTL:  ttl,
		newID:      newID,
		now:        clock,
	}, nil
}

// Resolve derives the account (when authenticated) and cart identity for the request.
// Once a session exists the cart identity is the account identity; any previously
// issued anonymous cookie is overwritten, not merged.
func (r *Resolver) Resolve(req *http.Request) Resolution {
	var account *Account
	if token := bearerToken(req); token != "" && r.sessions != nil {
		if verified, err := r.sessions.Verify(req.Context(), token); err == nil {
			dup := verified
			account = &dup
		}
	}

	cookieValue := ""
	if cookie, err := req.Cookie(r.cookieName); err == nil {
		cookieValue = strings.TrimSpace(cookie.Value)
	}

	if account != nil {
		return Resolution{
			Account: account,
			CartID:  account.ID,
			Changed: cookieValue != account.ID,
		}
	}

	if cookieValue != "" {
		return Resolution{CartID: cookieValue}
	}

	return Resolution{CartID: r.newID(), Changed: true}
}

// IssueCookie writes the cart-identity cookie bound to the resolved identity.
func (r *Resolver) IssueCookie(w http.ResponseWriter, cartID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     r.cookieName,
		Value:    cartID,
		Path:     "/",
		Expires:  r.now().Add(r.cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func bearerToken(req *http.Request) string {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type resolutionContextKey struct{}

// WithResolution stores the resolved identity on the context.
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, res)
}

// FromContext retrieves the resolved identity from the context.
func FromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(resolutionContextKey{}).(Resolution)
	if !ok || strings.TrimSpace(res.CartID) == "" {
		return Resolution{}, false
	}
	return res, true
}

// Middleware resolves the cart identity for every request, re-issues the cookie
// when the identity changed, and stores the resolution on the request context.
func (r *Resolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			res := r.Resolve(req)
			if res.Changed {
				r.IssueCookie(w, res.CartID)
			}
			ctx := WithResolution(req.Context(), res)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
