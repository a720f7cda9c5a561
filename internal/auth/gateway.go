// Package auth verifies bearer credentials against the external identity
// provider. The provider owns all credential state; this package never
// issues or refreshes tokens.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/recipehub/backend/config"
)

var (
	// ErrInvalidCredential covers absent, malformed, expired and rejected
	// credentials. Maps to 401 at the HTTP boundary.
	ErrInvalidCredential = errors.New("invalid or expired credential")

	// ErrSignUpRejected means the provider refused to create the user
	// (duplicate email, weak password). Maps to 400.
	ErrSignUpRejected = errors.New("sign up rejected")
)

// Principal is the authenticated identity returned by the provider. ID is
// the stable user identifier the repository uses as the tenancy boundary.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Gateway talks to the identity provider over HTTP. Successful
// verifications are cached briefly so a burst of requests with the same
// token costs one provider round-trip.
type Gateway struct {
	providerURL string
	serviceKey  string
	client      *http.Client
	cacheTTL    time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	principal Principal
	expires   time.Time
}

// NewGateway creates a gateway from the configuration.
func NewGateway(cfg *config.Config) *Gateway {
	return &Gateway{
		providerURL: strings.TrimRight(cfg.AuthProviderURL, "/"),
		serviceKey:  cfg.AuthServiceKey,
		client:      &http.Client{Timeout: 10 * time.Second},
		cacheTTL:    time.Minute,
		cache:       make(map[string]cacheEntry),
	}
}

// providerUser is the provider's user representation.
type providerUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

func (u providerUser) principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Name: u.UserMetadata.Name}
}

// Verify resolves a bearer credential to a principal. Malformed and expired
// tokens are rejected locally; everything else round-trips to the provider.
func (g *Gateway) Verify(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: access token missing", ErrInvalidCredential)
	}

	if err := precheckToken(credential); err != nil {
		return nil, err
	}

	if p, ok := g.cached(credential); ok {
		return &p, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.providerURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("apikey", g.serviceKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: rejected by identity provider", ErrInvalidCredential)
	default:
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: provider returned no user", ErrInvalidCredential)
	}

	p := user.principal()
	g.store(credential, p)
	return &p, nil
}

// SignUp creates a user through the provider's admin endpoint. The email is
// auto-confirmed because no mail server is wired up.
func (g *Gateway) SignUp(ctx context.Context, email, password, name string) (*Principal, error) {
	payload := map[string]any{
		"email":         email,
		"password":      password,
		"user_metadata": map[string]string{"name": name},
		"email_confirm": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.providerURL+"/auth/v1/admin/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("apikey", g.serviceKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		msg := providerErrorMessage(resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrSignUpRejected, msg)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	p := user.principal()
	return &p, nil
}

// precheckToken rejects tokens that cannot possibly verify, before spending
// a provider round-trip. The signature is not checked here; the provider
// remains the authority.
func precheckToken(credential string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return fmt.Errorf("%w: malformed token", ErrInvalidCredential)
	}
	exp, err := claims.GetExpirationTime()
	if err == nil && exp != nil && exp.Before(time.Now()) {
		return fmt.Errorf("%w: token expired", ErrInvalidCredential)
	}
	return nil
}

func (g *Gateway) cached(credential string) (Principal, bool) {
	if g.cacheTTL <= 0 {
		return Principal{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.cache[credential]
	if !ok || time.Now().After(entry.expires) {
		delete(g.cache, credential)
		return Principal{}, false
	}
	return entry.principal, true
}

// store caches a verified principal. Expired entries are swept here so
// tokens seen once do not pin cache memory for the process lifetime.
func (g *Gateway) store(credential string, p Principal) {
	if g.cacheTTL <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	for token, entry := range g.cache {
		if now.After(entry.expires) {
			delete(g.cache, token)
		}
	}
	g.cache[credential] = cacheEntry{principal: p, expires: now.Add(g.cacheTTL)}
}

func providerErrorMessage(body io.Reader) string {
	var provider struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	raw, err := io.ReadAll(body)
	if err == nil && json.Unmarshal(raw, &provider) == nil {
		for _, m := range []string{provider.Msg, provider.Message, provider.Error} {
			if m != "" {
				return m
			}
		}
	}
	return "user creation failed"
}
