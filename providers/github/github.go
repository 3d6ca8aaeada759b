package github

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
	defaultAuthURL   = "https://github.com/login/oauth/authorize"
	defaultTokenURL  = "https://github.com/login/oauth/access_token"
	defaultUserURL   = "https://api.github.com/user"
	defaultEmailsURL = "https://api.github.com/user/emails"

	// the GitHub API rejects requests without a User-Agent
	userAgent = "go-social-login"
)

// Config holds the GitHub connector configuration. Client credentials are
// not part of it: they travel with the provider record on every call.
type Config struct {
	social.ConnectorConfig

	Scopes []string

	AuthURL   string
	TokenURL  string
	UserURL   string
	EmailsURL string

	HTTPClient *http.Client
}

// DefaultScopes returns the default GitHub scopes.
func DefaultScopes() []string {
	return []string{"read:user"}
}

// Connector implements social.Connector for GitHub. The login name is the
// identity: it is stable per account and cheap to fetch.
type Connector struct {
	social.ConnectorConfig
	config     Config
	httpClient *http.Client
}

var _ social.Connector = (*Connector)(nil)

// New creates a GitHub connector.
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
	if cfg.EmailsURL == "" {
		cfg.EmailsURL = defaultEmailsURL
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
	return "github"
}

// AuthorizationURL implements social.Connector.
func (c *Connector) AuthorizationURL(provider *social.Provider, state string) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("github: provider record is required")
	}

	params := url.Values{
		"client_id":    {provider.ClientID},
		"redirect_uri": {c.RedirectURI(c.Code())},
		"scope":        {strings.Join(c.config.Scopes, " ")},
		"state":        {state},
	}

	return c.config.AuthURL + "?" + params.Encode(), nil
}

// ExchangeCode implements social.Connector.
func (c *Connector) ExchangeCode(ctx context.Context, provider *social.Provider, code string) (*social.Exchange, error) {
	if provider == nil {
		return nil, fmt.Errorf("github: provider record is required")
	}

	data := url.Values{
		"client_id":     {provider.ClientID},
		"client_secret": {provider.ClientSecret},
		"code":          {code},
		"redirect_uri":  {c.RedirectURI(c.Code())},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

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
		return nil, providerError(social.OpExchange, resp.StatusCode, tokenResp.Error, tokenResp.ErrorDesc, nil, tokenResp.errorMetadata())
	}

	return &social.Exchange{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		Raw: map[string]any{
			"scope": tokenResp.Scope,
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
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

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
		return nil, providerError(social.OpUserInfo, resp.StatusCode, "", apiErrorMessage(body), nil, nil)
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, providerError(social.OpUserInfo, resp.StatusCode, "invalid_response", "failed to decode user response", err, nil)
	}

	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = map[string]any{}
	}

	// the profile email is hidden for most accounts, /user/emails has it
	if user.Email == "" {
		if email := c.primaryEmail(ctx, exchange.AccessToken); email != "" {
			raw["email"] = email
		}
	}

	return &social.UserData{
		Identity: user.Login,
		Raw:      raw,
	}, nil
}

// primaryEmail fetches the account's email list and picks the primary
// address. Best effort: any failure leaves the email unset.
func (c *Connector) primaryEmail(ctx context.Context, accessToken string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.EmailsURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return ""
	}

	for _, entry := range emails {
		if entry.Primary {
			return entry.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}

	return ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
	ErrorURI    string `json:"error_uri"`
}

func (r tokenResponse) errorMetadata() map[string]any {
	meta := map[string]any{}
	if r.Error != "" {
		meta["error"] = r.Error
	}
	if r.ErrorDesc != "" {
		meta["error_description"] = r.ErrorDesc
	}
	if r.ErrorURI != "" {
		meta["error_uri"] = r.ErrorURI
	}
	return meta
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type apiError struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}

func apiErrorMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "github request failed"
	}

	return msg
}

func providerError(operation string, status int, code, description string, err error, raw map[string]any) *social.ProviderError {
	return &social.ProviderError{
		Provider:    "github",
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
		Raw:         raw,
	}
}
