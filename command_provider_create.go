package social

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// ProviderCreateMessage registers a new provider in the directory.
type ProviderCreateMessage struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	// UseHashid derives the provider id from its code, so repeated runs
	// against the same directory stay idempotent.
	UseHashid bool
}

func (e ProviderCreateMessage) Type() string { return "provider.create" }

// Validate checks the message before it reaches the repository.
func (e ProviderCreateMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Code, validation.Required, validation.Length(2, 64)),
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.ClientID, validation.Required),
		validation.Field(&e.ClientSecret, validation.Required),
		validation.Field(&e.Status, validation.In(
			"",
			ProviderStatusActive,
			ProviderStatusInactive,
			ProviderStatusDeprecated,
		)),
	)
}

// ProviderCreateHandler executes ProviderCreateMessage commands.
type ProviderCreateHandler struct {
	repo RepositoryManager
}

// NewProviderCreateHandler creates the command handler.
func NewProviderCreateHandler(repo RepositoryManager) *ProviderCreateHandler {
	return &ProviderCreateHandler{repo: repo}
}

func (h *ProviderCreateHandler) Execute(ctx context.Context, event ProviderCreateMessage) (*Provider, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during provider registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProviderCreateHandler) execute(ctx context.Context, event ProviderCreateMessage) (*Provider, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid provider message")
	}

	provider := &Provider{
		Code:         event.Code,
		Name:         event.Name,
		ClientID:     event.ClientID,
		ClientSecret: event.ClientSecret,
		Status:       event.Status,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Code); err == nil {
			provider.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Providers().CreateTx(ctx, tx, provider)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create provider")
		}

		provider = created
		return nil
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "provider registration transaction failed")
	}

	return provider, nil
}
