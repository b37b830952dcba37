package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtgate "github.com/joegasewicz/jwtgate"
)

// Value MUST be "authorization_code" per RFC 6749 section 4.1.3.
const grantType = "authorization_code"

const (
	defaultHeader      = "X-Auth-Token"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultEmailField  = "email"

	// Default access-token lifetime when the provider config does not set one:
	// 7 days, in seconds.
	defaultExpiresIn = 3600 * 24 * 7
)

var (
	// ErrNoCode is returned by ExchangeCode when the client supplied no
	// authorization code.
	ErrNoCode = errors.New("oauth2: missing authorization code")
	// ErrExchange is returned when the provider token-exchange call fails.
	ErrExchange = errors.New("oauth2: code exchange failed")
	// ErrIdentity is returned when the provider's identity payload lacks the
	// configured email field.
	ErrIdentity = errors.New("oauth2: identity payload missing email")
)

// Doer abstracts the HTTP transport so tests can stub the provider.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the Google OAuth 2.0 provider credentials and how verified
// identities map into the entity registry.
type Config struct {
	ClientID     string
	ClientSecret string
	// RedirectURI must exactly match a redirect registered with the provider.
	RedirectURI string
	// ExpiresIn is the requested access-token lifetime in seconds. Default 7
	// days.
	ExpiresIn int
	// TypeTag is the entity type identities resolve against unless the
	// request overrides it with the resource header.
	TypeTag string
	// EmailField is the identity field in the provider's userinfo payload.
	// Default "email".
	EmailField string
	// Header is the provider-discriminator request header. Default
	// "X-Auth-Token".
	Header string
	// TokenURL and UserInfoURL override the provider endpoints, mainly for
	// tests against a local stub.
	TokenURL    string
	UserInfoURL string
}

// Google verifies OAuth 2.0 access tokens against Google's userinfo endpoint
// and exchanges authorization codes for access tokens. It implements
// [jwtgate.AuthStrategy]. Immutable after New; safe for concurrent use.
type Google struct {
	cfg    Config
	client Doer
	cache  *TokenCache
}

// Option customizes a Google strategy.
type Option func(*Google)

// WithHTTPClient replaces the transport used for provider calls.
func WithHTTPClient(d Doer) Option {
	return func(g *Google) { g.client = d }
}

// WithCache caches Authorize results so repeat requests with the same access
// token skip the provider round-trip.
func WithCache(c *TokenCache) Option {
	return func(g *Google) { g.cache = c }
}

// New builds a Google strategy. Defaults are applied for the header name,
// endpoints, email field, and token lifetime.
func New(cfg Config, opts ...Option) *Google {
	if cfg.Header == "" {
		cfg.Header = defaultHeader
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	if cfg.EmailField == "" {
		cfg.EmailField = defaultEmailField
	}
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = defaultExpiresIn
	}

	g := &Google{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HeaderName implements [jwtgate.AuthStrategy].
func (g *Google) HeaderName() string { return g.cfg.Header }

// DefaultTypeTag implements [jwtgate.AuthStrategy].
func (g *Google) DefaultTypeTag() string { return g.cfg.TypeTag }

// Authorize verifies an in-flight access token by calling the userinfo
// endpoint and returns the account email as the stable external identity.
func (g *Google) Authorize(ctx context.Context, accessToken string) (jwtgate.Identity, error) {
	if g.cache != nil {
		if email, ok := g.cache.Get(ctx, accessToken); ok {
			return jwtgate.Identity{Value: email}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.UserInfoURL, nil)
	if err != nil {
		return jwtgate.Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	payload, err := g.doJSON(req)
	if err != nil {
		return jwtgate.Identity{}, err
	}

	email, _ := payload[g.cfg.EmailField].(string)
	if email == "" {
		return jwtgate.Identity{}, ErrIdentity
	}

	if g.cache != nil {
		g.cache.Set(ctx, accessToken, email, time.Duration(g.cfg.ExpiresIn)*time.Second)
	}

	return jwtgate.Identity{Value: email, Raw: payload}, nil
}

// Exchange is the provider response to a successful code exchange.
type Exchange struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ExchangeCode swaps the client's authorization code for an access token at
// the provider token endpoint. redirectURI overrides the configured redirect
// when non-empty, for apps serving several redirect targets.
func (g *Google) ExchangeCode(ctx context.Context, code, redirectURI string) (*Exchange, error) {
	if code == "" {
		return nil, ErrNoCode
	}
	if redirectURI == "" {
		redirectURI = g.cfg.RedirectURI
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", g.cfg.ClientID)
	form.Set("client_secret", g.cfg.ClientSecret)
	form.Set("redirect_uri", redirectURI)
	form.Set("grant_type", grantType)
	form.Set("expires_in", fmt.Sprintf("%d", g.cfg.ExpiresIn))

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, g.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload, err := g.doRaw(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	var exchange Exchange
	if err := json.Unmarshal(payload, &exchange); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	if exchange.AccessToken == "" {
		return nil, ErrExchange
	}
	return &exchange, nil
}

func (g *Google) doJSON(req *http.Request) (map[string]any, error) {
	raw, err := g.doRaw(req)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (g *Google) doRaw(req *http.Request) ([]byte, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	return body, nil
}
