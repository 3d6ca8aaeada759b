package google

import (
	"context"
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
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultUserURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Config holds the Google connector configuration.
type Config struct {
	social.ConnectorConfig

	Scopes []string

	AuthURL  string
	TokenURL string
	UserURL  string

	HTTPClient *http.Client
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email"}
}

// Connector implements social.Connector for Google. The account email,
// trimmed and lowercased, is the identity.
type Connector struct {
	social.ConnectorConfig
	config     Config
	httpClient *http.Client
}

var _ social.Connector = (*Connector)(nil)

// New creates a Google connector.
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

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Connector{
		ConnectorConfig: cfg.ConnectorConfig,
		config:          cfg,
		httpClient:      client,
	}
}

// Code implements social.Connector.
func (c *Connector) Code() string {
	return "google"
}

// AuthorizationURL implements social.Connector.
func (c *Connector) AuthorizationURL(provider *social.Provider, state string) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("google: provider record is required")
	}

	params := url.Values{
		"client_id":     {provider.ClientID},
		"redirect_uri":  {c.RedirectURI(c.Code())},
		"response_type": {"code"},
		"scope":         {strings.Join(c.config.Scopes, " ")},
		"state":         {state},
	}

	return c.config.AuthURL + "?" + params.Encode(), nil
}

// ExchangeCode implements social.Connector.
func (c *Connector) ExchangeCode(ctx context.Context, provider *social.Provider, code string) (*social.Exchange, error) {
	if provider == nil {
		return nil, fmt.Errorf("google: provider record is required")
	}

	data := url.Values{
		"client_id":     {provider.ClientID},
		"client_secret": {provider.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.RedirectURI(c.Code())},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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
			"id_token":   tokenResp.IDToken,
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

	var user googleUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, providerError(social.OpUserInfo, resp.StatusCode, "invalid_response", "failed to decode user response", err, nil)
	}

	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = map[string]any{}
	}

	return &social.UserData{
		Identity: strings.ToLower(strings.TrimSpace(user.Email)),
		Raw:      raw,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	IDToken     string `json:"id_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func providerError(operation string, status int, code, description string, err error, raw map[string]any) *social.ProviderError {
	return &social.ProviderError{
		Provider:    "google",
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
		Raw:         raw,
	}
}
