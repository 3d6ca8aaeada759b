package x

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-social-login"
)

const (
	defaultAuthURL  = "https://twitter.com/i/oauth2/authorize"
	defaultTokenURL = "https://api.twitter.com/2/oauth2/token"
	defaultUserURL  = "https://api.twitter.com/2/users/me"
)

// Config holds the X connector configuration.
type Config struct {
	social.ConnectorConfig

	Scopes []string

	AuthURL  string
	TokenURL string
	UserURL  string

	// CodeVerifier overrides the generated per-process PKCE verifier,
	// mainly for tests.
	CodeVerifier string

	HTTPClient *http.Client
}

// DefaultScopes returns the default X scopes.
func DefaultScopes() []string {
	return []string{"tweet.read", "users.read"}
}

// Connector implements social.Connector for X. The identity is
// "{id}:{username}": the numeric id alone is stable but opaque, the
// username alone can be reassigned, together they stay useful for
// provisioning and auditable.
//
// X requires PKCE on the authorization-code grant. The connector uses the
// plain method with one verifier per process: the challenge is baked into
// every authorization URL it mints, so the matching verifier must come
// from the same process on exchange.
type Connector struct {
	social.ConnectorConfig
	config       Config
	codeVerifier string
	httpClient   *http.Client
}

var _ social.Connector = (*Connector)(nil)

// New creates an X connector.
func New(cfg Config) *Connector {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = defaultUserURL
	}

	verifier := cfg.CodeVerifier
	if verifier == "" {
		verifier = newCodeVerifier()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Connector{
		ConnectorConfig: cfg.ConnectorConfig,
		config:          cfg,
		codeVerifier:    verifier,
		httpClient:      client,
	}
}

// Code implements social.Connector.
func (c *Connector) Code() string {
	return "x"
}

// AuthorizationURL implements social.Connector.
func (c *Connector) AuthorizationURL(provider *social.Provider, state string) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("x: provider record is required")
	}

	params := url.Values{
		"client_id":             {provider.ClientID},
		"redirect_uri":          {c.RedirectURI(c.Code())},
		"response_type":         {"code"},
		"scope":                 {strings.Join(c.config.Scopes, " ")},
		"state":                 {state},
		"code_challenge":        {c.codeVerifier},
		"code_challenge_method": {"plain"},
	}

	return c.config.AuthURL + "?" + params.Encode(), nil
}

// ExchangeCode implements social.Connector. X authenticates the client
// with Basic auth on the token endpoint, not with body credentials.
func (c *Connector) ExchangeCode(ctx context.Context, provider *social.Provider, code string) (*social.Exchange, error) {
	if provider == nil {
		return nil, fmt.Errorf("x: provider record is required")
	}

	data := url.Values{
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.RedirectURI(c.Code())},
		"code_verifier": {c.codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(provider.ClientID, provider.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, providerError(social.OpExchange, resp.StatusCode, "invalid_response", "failed to decode token response", err, nil)
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		return nil, providerError(social.OpExchange, resp.StatusCode, tokenResp.Error, tokenResp.ErrorDesc, nil, nil)
	}

	return &social.Exchange{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		Raw: map[string]any{
			"scope":      tokenResp.Scope,
			"expires_in": tokenResp.ExpiresIn,
		},
	}, nil
}

// UserData implements social.Connector.
func (c *Connector) UserData(ctx context.Context, provider *social.Provider, exchange *social.Exchange) (*social.UserData, error) {
	if exchange == nil || exchange.AccessToken == "" {
		return nil, providerError(social.OpUserInfo, 0, "missing_access_token", "missing access token", nil, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.UserURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+exchange.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, providerError(social.OpUserInfo, resp.StatusCode, "", strings.TrimSpace(string(body)), nil, nil)
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, providerError(social.OpUserInfo, resp.StatusCode, "invalid_response", "failed to decode user response", err, nil)
	}

	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = map[string]any{}
	}

	// both halves are required, a partial identity is treated as absent
	identity := ""
	if user.Data.ID != "" && user.Data.Username != "" {
		identity = user.Data.ID + ":" + user.Data.Username
	}

	return &social.UserData{
		Identity: identity,
		Raw:      raw,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type userResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

func newCodeVerifier() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("x: failed to generate code verifier: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func providerError(operation string, status int, code, description string, err error, raw map[string]any) *social.ProviderError {
	return &social.ProviderError{
		Provider:    "x",
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
		Raw:         raw,
	}
}
