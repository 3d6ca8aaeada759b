package social

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Exchange is the normalized outcome of trading an authorization code for
// an access token.
type Exchange struct {
	AccessToken string
	TokenType   string
	Raw         map[string]any
}

// UserData is the normalized user-info payload. Identity is the stable,
// provider-scoped identifier used for the local identity mapping; Raw keeps
// the full provider response for user provisioning.
type UserData struct {
	Identity string
	Raw      map[string]any
}

// Connector abstracts one provider's OAuth2 dialect. Credentials are not
// baked into the connector: every call receives the Provider record so a
// single connector instance serves whatever credentials are registered in
// the directory.
type Connector interface {
	// Code returns the provider code the connector answers for, e.g.
	// "github". It must match Provider.Code for the directory lookup.
	Code() string

	// AuthorizationURL builds the URL the browser is sent to, carrying
	// the CSRF state.
	AuthorizationURL(provider *Provider, state string) (string, error)

	// ExchangeCode trades the authorization code for an access token.
	ExchangeCode(ctx context.Context, provider *Provider, code string) (*Exchange, error)

	// UserData fetches the user profile with the exchanged token.
	UserData(ctx context.Context, provider *Provider, exchange *Exchange) (*UserData, error)

	// CheckIdentity resolves a provider-scoped identity to a local user id
	// inside the caller's transaction. The second return reports whether a
	// mapping exists.
	CheckIdentity(ctx context.Context, tx bun.IDB, provider *Provider, identity string) (uuid.UUID, bool, error)
}

// ConnectorConfig carries the deployment-level settings shared by all
// connectors: where the app is reachable and under which route prefix the
// social endpoints are mounted. Embed it in a connector to inherit
// RedirectURI and the default CheckIdentity.
type ConnectorConfig struct {
	// BaseURL is the externally visible origin, e.g. "https://app.example.com".
	BaseURL string
	// Space is the route prefix the controller is mounted under, e.g. "/a".
	Space string
}

// RedirectURI returns the callback URL registered with the provider for
// the given provider code.
func (c ConnectorConfig) RedirectURI(code string) string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	space := strings.Trim(c.Space, "/")
	if space != "" {
		return base + "/" + space + "/callback/" + code
	}
	return base + "/callback/" + code
}

// CheckIdentity is the default identity lookup against the local
// user_identities table.
func (c ConnectorConfig) CheckIdentity(ctx context.Context, tx bun.IDB, provider *Provider, identity string) (uuid.UUID, bool, error) {
	return CheckIdentityTx(ctx, tx, provider, identity)
}

// CheckIdentityTx resolves (provider, identity) to a local user id inside
// tx. A missing mapping is not an error.
func CheckIdentityTx(ctx context.Context, tx bun.IDB, provider *Provider, identity string) (uuid.UUID, bool, error) {
	if provider == nil || identity == "" {
		return uuid.Nil, false, nil
	}

	record := new(UserIdentity)
	err := tx.NewSelect().
		Model(record).
		Where("provider_ref = ?", provider.ID).
		Where("uid = ?", identity).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	return record.UserRef, true, nil
}
