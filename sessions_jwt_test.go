package social

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSignedCookieSessionsEstablish(t *testing.T) {
	sessions := NewSignedCookieSessions([]byte("test-signing-key"),
		WithSessionIssuer("test-app"),
		WithSessionTTL(time.Hour),
		WithSessionCookieName("app_session"),
	)

	userID := uuid.New()

	ctx := router.NewMockContext()
	ctx.On("Cookies", "post_login_redirect").Return("")

	var signed string
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		if c.Name != "app_session" {
			return false
		}
		signed = c.Value
		return c.HTTPOnly && c.SameSite == "Lax" && c.Path == "/"
	})).Return()

	info, err := sessions.Establish(context.Background(), nil, ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.NotEmpty(t, info.SessionID)
	assert.Empty(t, info.RedirectURI)
	require.NotEmpty(t, signed)

	claims, err := sessions.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "test-app", claims.Issuer)
	assert.Equal(t, info.SessionID, claims.ID)
}

func TestSignedCookieSessionsParseRejectsForgedToken(t *testing.T) {
	sessions := NewSignedCookieSessions([]byte("real-key"))
	forger := NewSignedCookieSessions([]byte("other-key"))

	ctx := router.NewMockContext()
	ctx.On("Cookies", "post_login_redirect").Return("")

	var signed string
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		if c.Name == "session" {
			signed = c.Value
		}
		return true
	})).Return()

	_, err := forger.Establish(context.Background(), nil, ctx, uuid.New())
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	_, err = sessions.Parse(signed)
	assert.Error(t, err)
}

func TestSignedCookieSessionsRedirectRoundTrip(t *testing.T) {
	sessions := NewSignedCookieSessions([]byte("test-signing-key"))

	ctx := router.NewMockContext()
	ctx.CookiesM["post_login_redirect"] = "/dashboard"

	var cleared bool
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		if c.Name == "post_login_redirect" && c.MaxAge < 0 {
			cleared = true
		}
		return true
	})).Return()

	url := sessions.ConsumeRedirect(ctx)
	assert.Equal(t, "/dashboard", url)
	assert.True(t, cleared, "redirect cookie must be cleared on consume")
}

func TestSignedCookieSessionsRememberRedirect(t *testing.T) {
	sessions := NewSignedCookieSessions([]byte("test-signing-key"),
		WithRedirectCookieName("return_to"),
	)

	ctx := router.NewMockContext()

	var stored string
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		if c.Name == "return_to" {
			stored = c.Value
		}
		return true
	})).Return()

	sessions.RememberRedirect(ctx, "/settings")
	assert.Equal(t, "/settings", stored)

	// empty destinations are ignored
	stored = ""
	sessions.RememberRedirect(ctx, "")
	assert.Empty(t, stored)
}
