package social

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProviderStatus is the lifecycle status of a registered provider
type ProviderStatus = string

const (
	// ProviderStatusActive providers show up on the selection page
	ProviderStatusActive ProviderStatus = "ACTIVE"
	// ProviderStatusInactive providers are hidden but keep their records
	ProviderStatusInactive ProviderStatus = "INACTIVE"
	// ProviderStatusDeprecated providers are being phased out
	ProviderStatusDeprecated ProviderStatus = "DEPRECATED"
)

// Provider holds the OAuth2 client credentials registered for one external
// provider. Code is the external routing key: it shows up in callback URLs
// and maps to a Connector in the Registry, so treat it as immutable once
// clients are configured. ClientSecret never leaves this process: it is
// excluded from JSON and must not be logged.
type Provider struct {
	bun.BaseModel `bun:"table:social_providers,alias:sp"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Code          string         `bun:"code,notnull,unique" json:"code,omitempty"`
	Name          string         `bun:"name,notnull" json:"name,omitempty"`
	ClientID      string         `bun:"client_id,notnull" json:"client_id,omitempty"`
	ClientSecret  string         `bun:"client_secret,notnull" json:"-"`
	Status        ProviderStatus `bun:"status,notnull" json:"status,omitempty"`
	DateCreated   *time.Time     `bun:"date_created,nullzero,default:current_timestamp" json:"date_created,omitempty"`
}

// Validate checks the record before it is persisted.
func (p Provider) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Code, validation.Required, validation.Length(2, 64)),
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.ClientID, validation.Required),
		validation.Field(&p.ClientSecret, validation.Required),
		validation.Field(&p.Status, validation.In(
			ProviderStatusActive,
			ProviderStatusInactive,
			ProviderStatusDeprecated,
		)),
	)
}

// EnsureDefaults fills id, status, and creation timestamp for new records.
func (p *Provider) EnsureDefaults() {
	if p == nil {
		return
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	if p.Status == "" {
		p.Status = ProviderStatusActive
	}

	if p.DateCreated == nil {
		now := time.Now()
		p.DateCreated = &now
	}
}

// IsActive reports whether the provider should be offered for login.
func (p *Provider) IsActive() bool {
	return p != nil && p.Status == ProviderStatusActive
}

// UserIdentity maps a provider-assigned identifier to a local user. The
// composite primary key (provider_ref, uid) guarantees a given external
// identity resolves to exactly one local user; one user may hold several
// identities across providers.
type UserIdentity struct {
	bun.BaseModel `bun:"table:user_identities,alias:uid"`
	ProviderRef   uuid.UUID `bun:"provider_ref,pk,type:uuid" json:"provider_ref,omitempty"`
	UID           string    `bun:"uid,pk" json:"uid,omitempty"`
	UserRef       uuid.UUID `bun:"user_ref,notnull,type:uuid" json:"user_ref,omitempty"`
}

// Validate checks the record before it is persisted.
func (i UserIdentity) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProviderRef, validation.By(validateUUIDNotNil)),
		validation.Field(&i.UID, validation.Required, validation.Length(1, 512)),
		validation.Field(&i.UserRef, validation.By(validateUUIDNotNil)),
	)
}

func validateUUIDNotNil(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return errors.New("must be a non-nil uuid")
	}
	return nil
}
