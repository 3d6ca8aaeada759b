package social

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityExtras carries the provider context handed to the user resolver
// when a brand new identity shows up.
type IdentityExtras struct {
	Provider *Provider
	Raw      map[string]any
}

// ResolvedUser is the outcome of creating a local user for an identity.
// RedirectURL, when set, overrides the post-login destination (e.g. an
// onboarding page for freshly created accounts).
type ResolvedUser struct {
	ID          uuid.UUID
	RedirectURL string
}

// UserResolver creates a local user for an identity that has no mapping yet.
// Implementations run inside the callback transaction: a failure here rolls
// back the identity registration as well.
type UserResolver interface {
	CreateUser(ctx context.Context, tx bun.IDB, identity string, extras *IdentityExtras) (*ResolvedUser, error)
}

// UserResolverFunc adapts a function to the UserResolver interface.
type UserResolverFunc func(ctx context.Context, tx bun.IDB, identity string, extras *IdentityExtras) (*ResolvedUser, error)

func (f UserResolverFunc) CreateUser(ctx context.Context, tx bun.IDB, identity string, extras *IdentityExtras) (*ResolvedUser, error) {
	return f(ctx, tx, identity, extras)
}

// SessionInfo describes an established session. RedirectURI, when set,
// points the client somewhere the session layer requires (e.g. a second
// factor page) and wins over the regular post-login target.
type SessionInfo struct {
	SessionID   string
	RedirectURI string
}

// SessionManager mints an authenticated session for a user during the
// callback. Establish runs inside the callback transaction so session
// records commit or roll back together with user and identity records.
type SessionManager interface {
	Establish(ctx context.Context, tx bun.IDB, rc router.Context, userID uuid.UUID) (*SessionInfo, error)

	// ConsumeRedirect returns the pre-auth redirect target retained for this
	// client, clearing it, or "" when none was set.
	ConsumeRedirect(rc router.Context) string
}

// SignInEvent is handed to the notifier after a login completes.
type SignInEvent struct {
	UserID       uuid.UUID
	Identity     string
	ProviderCode string
	IsNewUser    bool
	OccurredAt   time.Time
}

// SignInNotifier receives completed sign-ins. Invocations are
// fire-and-forget: they happen after the redirect is decided and cannot
// fail the login.
type SignInNotifier interface {
	SignedIn(ctx context.Context, evt SignInEvent)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SOCIAL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SOCIAL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SOCIAL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
