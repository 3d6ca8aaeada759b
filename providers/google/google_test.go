package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	social "github.com/goliatone/go-social-login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider() *social.Provider {
	return &social.Provider{
		Code:         "google",
		Name:         "Google",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Status:       social.ProviderStatusActive,
	}
}

func TestConnectorAuthorizationURL(t *testing.T) {
	connector := New(Config{
		ConnectorConfig: social.ConnectorConfig{
			BaseURL: "https://app.example.com",
			Space:   "a",
		},
	})

	rawURL, err := connector.AuthorizationURL(testProvider(), "state-token")
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "openid email", query.Get("scope"))
	assert.Equal(t, "https://app.example.com/a/callback/google", query.Get("redirect_uri"))
	assert.Equal(t, "state-token", query.Get("state"))
}

func TestConnectorExchangeCode(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "goog-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     "id-token",
		})
	}))
	defer server.Close()

	connector := New(Config{TokenURL: server.URL})

	exchange, err := connector.ExchangeCode(context.Background(), testProvider(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "goog-token", exchange.AccessToken)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))
	assert.Equal(t, "id-token", exchange.Raw["id_token"])
}

func TestConnectorExchangeCodeProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"error":             "invalid_grant",
			"error_description": "Code was already redeemed.",
		})
	}))
	defer server.Close()

	connector := New(Config{TokenURL: server.URL})

	_, err := connector.ExchangeCode(context.Background(), testProvider(), "stale-code")
	require.Error(t, err)

	var perr *social.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "google", perr.Provider)
	assert.Equal(t, "invalid_grant", perr.Code)
}

func TestConnectorUserDataNormalizesEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":             "1029384756",
			"email":          "  Person@Example.COM ",
			"verified_email": true,
		})
	}))
	defer server.Close()

	connector := New(Config{UserURL: server.URL})

	data, err := connector.UserData(context.Background(), testProvider(), &social.Exchange{AccessToken: "goog-token"})
	require.NoError(t, err)

	assert.Equal(t, "person@example.com", data.Identity)
	assert.Equal(t, true, data.Raw["verified_email"])
}

func TestConnectorUserDataRejectsMissingToken(t *testing.T) {
	connector := New(Config{})

	_, err := connector.UserData(context.Background(), testProvider(), nil)
	assert.Error(t, err)
}
