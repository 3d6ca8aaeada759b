package social

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LoginResult is the outcome of a completed callback.
type LoginResult struct {
	UserID       uuid.UUID
	Identity     string
	ProviderCode string
	IsNewUser    bool
	SessionID    string
	RedirectURL  string
}

// ProviderOption is one entry on the provider selection page.
type ProviderOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Flow orchestrates the authorization-code login: it mints states for the
// selection page and runs the callback end to end inside one transaction.
type Flow struct {
	repo     RepositoryManager
	registry *Registry
	resolver UserResolver
	sessions SessionManager
	states   *StateStore
	notifier SignInNotifier
	logger   Logger

	defaultRedirect string
}

// FlowOption configures the flow.
type FlowOption func(*Flow)

// WithStateStore sets the CSRF state store. A default store is created
// when none is given.
func WithStateStore(states *StateStore) FlowOption {
	return func(f *Flow) {
		if states != nil {
			f.states = states
		}
	}
}

// WithSignInNotifier sets the sink notified after each completed login.
func WithSignInNotifier(notifier SignInNotifier) FlowOption {
	return func(f *Flow) {
		f.notifier = notifier
	}
}

// WithFlowLogger sets the flow logger.
func WithFlowLogger(logger Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithDefaultRedirect sets where users land after login when no redirect
// cookie is present.
func WithDefaultRedirect(url string) FlowOption {
	return func(f *Flow) {
		if url != "" {
			f.defaultRedirect = url
		}
	}
}

// NewFlow creates the login orchestrator. The resolver provisions local
// users for first-time identities; sessions establishes the logged-in
// session once the user is known.
func NewFlow(
	repo RepositoryManager,
	registry *Registry,
	resolver UserResolver,
	sessions SessionManager,
	opts ...FlowOption,
) *Flow {
	f := &Flow{
		repo:            repo,
		registry:        registry,
		resolver:        resolver,
		sessions:        sessions,
		logger:          defLogger{},
		defaultRedirect: "/",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if f.states == nil {
		f.states = NewStateStore(WithStateLogger(f.logger))
	}

	return f
}

// States exposes the flow's state store, mainly so callers can stop its
// sweep at shutdown.
func (f *Flow) States() *StateStore {
	return f.states
}

// SelectProviders returns the active providers as selection-page entries,
// each with a freshly minted state baked into its authorization URL.
// Providers without a registered connector are skipped.
func (f *Flow) SelectProviders(ctx context.Context) ([]ProviderOption, error) {
	records, err := f.repo.Providers().ListByStatus(ctx, ProviderStatusActive)
	if err != nil {
		return nil, err
	}

	options := make([]ProviderOption, 0, len(records))
	for _, record := range records {
		connector := f.registry.Get(record.Code)
		if connector == nil {
			continue
		}

		state, err := newState()
		if err != nil {
			return nil, err
		}

		url, err := connector.AuthorizationURL(record, state)
		if err != nil {
			f.logger.Error("failed to build authorization url provider=%s: %v", record.Code, err)
			continue
		}

		f.states.Set(state, true)

		options = append(options, ProviderOption{
			Code: record.Code,
			Name: record.Name,
			URL:  url,
		})
	}

	return options, nil
}

// CompleteLogin runs the callback leg: state check, code exchange,
// identity resolution, user provisioning, identity registration, and
// session establishment, all inside one transaction. Short-circuit
// outcomes return errors matched by IsSoftFailure and leave no rows
// behind; anything else rolls the transaction back.
func (f *Flow) CompleteLogin(ctx context.Context, rc router.Context, providerCode, code, state string) (*LoginResult, error) {
	if providerCode == "" || code == "" || state == "" {
		return nil, ErrMissingParams
	}

	if _, ok := f.states.Get(state); !ok {
		f.logger.Info("rejected callback with unknown state provider=%s", providerCode)
		return nil, ErrStateRejected
	}

	result := &LoginResult{ProviderCode: providerCode}

	err := f.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		provider, err := f.repo.Providers().GetByCodeTx(ctx, tx, providerCode)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrProviderNotFound
			}
			return err
		}

		connector := f.registry.Get(provider.Code)
		if connector == nil {
			return ErrConnectorNotFound
		}

		exchange, err := connector.ExchangeCode(ctx, provider, code)
		if err != nil {
			return HardFailure(provider.Code, OpExchange, err)
		}
		if exchange == nil || exchange.AccessToken == "" {
			return ErrMissingAccessToken
		}

		data, err := connector.UserData(ctx, provider, exchange)
		if err != nil {
			return HardFailure(provider.Code, OpUserInfo, err)
		}
		if data == nil || data.Identity == "" {
			return ErrMissingIdentity
		}

		result.Identity = data.Identity

		userID, found, err := connector.CheckIdentity(ctx, tx, provider, data.Identity)
		if err != nil {
			return err
		}

		if found {
			result.UserID = userID
		} else {
			resolved, err := f.resolver.CreateUser(ctx, tx, data.Identity, &IdentityExtras{
				Provider: provider,
				Raw:      data.Raw,
			})
			if err != nil {
				return err
			}
			if resolved == nil || resolved.ID == uuid.Nil {
				return ErrSessionFailed
			}

			registered, err := f.repo.Identities().RegisterTx(ctx, tx, &UserIdentity{
				ProviderRef: provider.ID,
				UID:         data.Identity,
				UserRef:     resolved.ID,
			})
			if err != nil {
				return err
			}

			// a lost insert race means a concurrent login already mapped
			// this identity, the surviving row decides the user
			result.UserID = registered.UserRef
			result.IsNewUser = registered.UserRef == resolved.ID
			if result.IsNewUser && resolved.RedirectURL != "" {
				result.RedirectURL = resolved.RedirectURL
			}
		}

		session, err := f.sessions.Establish(ctx, tx, rc, result.UserID)
		if err != nil {
			return HardFailure(provider.Code, OpSession, err)
		}
		if session != nil {
			result.SessionID = session.SessionID
			if result.RedirectURL == "" {
				result.RedirectURL = session.RedirectURI
			}
		}

		return nil
	})
	if err != nil {
		// single use once the outcome is final: soft rejections burn the
		// state, a hard failure keeps it so the callback can be retried
		if IsSoftFailure(err) {
			f.states.Delete(state)
		}
		return nil, err
	}

	f.states.Delete(state)

	if result.RedirectURL == "" {
		result.RedirectURL = f.sessions.ConsumeRedirect(rc)
	}
	if result.RedirectURL == "" {
		result.RedirectURL = f.defaultRedirect
	}

	f.notifySignIn(ctx, result)

	return result, nil
}

func (f *Flow) notifySignIn(ctx context.Context, result *LoginResult) {
	if f.notifier == nil {
		return
	}

	evt := SignInEvent{
		UserID:       result.UserID,
		Identity:     result.Identity,
		ProviderCode: result.ProviderCode,
		IsNewUser:    result.IsNewUser,
		OccurredAt:   time.Now(),
	}

	// fire and forget, a slow sink must not hold up the redirect
	go f.notifier.SignedIn(context.WithoutCancel(ctx), evt)
}

func newState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
