package social

import (
	"context"
	"time"

	"github.com/goliatone/go-router"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SignedCookieSessions is the default SessionManager: it drops a signed
// HS256 JWT in a cookie and tracks the post-login destination in a second,
// short-lived redirect cookie. Deployments with a server-side session
// store plug in their own SessionManager instead.
type SignedCookieSessions struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration

	cookieName     string
	redirectCookie string
	cookieSecure   bool
	logger         Logger
}

var _ SessionManager = (*SignedCookieSessions)(nil)

// SessionsOption configures SignedCookieSessions.
type SessionsOption func(*SignedCookieSessions)

// WithSessionTTL sets how long the session token stays valid.
func WithSessionTTL(ttl time.Duration) SessionsOption {
	return func(s *SignedCookieSessions) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionIssuer sets the JWT issuer claim.
func WithSessionIssuer(issuer string) SessionsOption {
	return func(s *SignedCookieSessions) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionsOption {
	return func(s *SignedCookieSessions) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithRedirectCookieName sets the redirect cookie name.
func WithRedirectCookieName(name string) SessionsOption {
	return func(s *SignedCookieSessions) {
		if name != "" {
			s.redirectCookie = name
		}
	}
}

// WithSecureCookies sets the Secure flag on both cookies.
func WithSecureCookies(secure bool) SessionsOption {
	return func(s *SignedCookieSessions) {
		s.cookieSecure = secure
	}
}

// WithSessionsLogger sets the session logger.
func WithSessionsLogger(logger Logger) SessionsOption {
	return func(s *SignedCookieSessions) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSignedCookieSessions creates the cookie-backed session manager.
func NewSignedCookieSessions(signingKey []byte, opts ...SessionsOption) *SignedCookieSessions {
	s := &SignedCookieSessions{
		signingKey:     signingKey,
		issuer:         "social-login",
		ttl:            24 * time.Hour,
		cookieName:     "session",
		redirectCookie: "post_login_redirect",
		logger:         defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Establish mints the session token and sets the cookie. The tx parameter
// is unused here; store-backed managers persist their session row in it.
func (s *SignedCookieSessions) Establish(ctx context.Context, tx bun.IDB, rc router.Context, userID uuid.UUID) (*SessionInfo, error) {
	now := time.Now()
	sessionID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   userID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, err
	}

	rc.Cookie(&router.Cookie{
		Name:     s.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		Secure:   s.cookieSecure,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	s.logger.Debug("session established user=%s session=%s", userID, sessionID)

	return &SessionInfo{
		SessionID:   sessionID,
		RedirectURI: s.ConsumeRedirect(rc),
	}, nil
}

// RememberRedirect stores the post-login destination before the browser
// leaves for the provider.
func (s *SignedCookieSessions) RememberRedirect(rc router.Context, url string) {
	if url == "" {
		return
	}

	rc.Cookie(&router.Cookie{
		Name:     s.redirectCookie,
		Value:    url,
		Path:     "/",
		MaxAge:   int(DefaultStateTTL.Seconds()),
		Secure:   s.cookieSecure,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// ConsumeRedirect reads and clears the redirect cookie.
func (s *SignedCookieSessions) ConsumeRedirect(rc router.Context) string {
	url := rc.Cookies(s.redirectCookie)
	if url == "" {
		return ""
	}

	rc.Cookie(&router.Cookie{
		Name:     s.redirectCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.cookieSecure,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return url
}

// Parse validates a session token minted by Establish and returns its
// claims.
func (s *SignedCookieSessions) Parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	return claims, nil
}
