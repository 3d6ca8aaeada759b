package social

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Identities stores (provider, uid) -> user mappings. The model carries a
// composite primary key, so it sits outside the generic uuid-keyed
// repository and talks to bun directly.
type Identities interface {
	Get(ctx context.Context, providerRef uuid.UUID, uid string) (*UserIdentity, error)
	GetTx(ctx context.Context, tx bun.IDB, providerRef uuid.UUID, uid string) (*UserIdentity, error)
	Register(ctx context.Context, record *UserIdentity) (*UserIdentity, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *UserIdentity) (*UserIdentity, error)
	ListByUser(ctx context.Context, userRef uuid.UUID) ([]*UserIdentity, error)
	ListByUserTx(ctx context.Context, tx bun.IDB, userRef uuid.UUID) ([]*UserIdentity, error)
	Delete(ctx context.Context, providerRef uuid.UUID, uid string) error
	DeleteTx(ctx context.Context, tx bun.IDB, providerRef uuid.UUID, uid string) error
}

type identities struct {
	db *bun.DB
}

var _ Identities = (*identities)(nil)

// NewIdentitiesRepository creates the identity mapping repository.
func NewIdentitiesRepository(db *bun.DB) Identities {
	return &identities{db: db}
}

func (r *identities) Get(ctx context.Context, providerRef uuid.UUID, uid string) (*UserIdentity, error) {
	return r.GetTx(ctx, r.db, providerRef, uid)
}

func (r *identities) GetTx(ctx context.Context, tx bun.IDB, providerRef uuid.UUID, uid string) (*UserIdentity, error) {
	record := &UserIdentity{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.provider_ref = ?", providerRef).
		Where("?TableAlias.uid = ?", uid).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *identities) Register(ctx context.Context, record *UserIdentity) (*UserIdentity, error) {
	return r.RegisterTx(ctx, r.db, record)
}

// RegisterTx inserts the mapping. When the same (provider, uid) pair is
// already registered the existing row wins and is returned, so callers
// always get the user the identity actually maps to.
func (r *identities) RegisterTx(ctx context.Context, tx bun.IDB, record *UserIdentity) (*UserIdentity, error) {
	if record == nil {
		return nil, errors.New("identity record is required")
	}

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid identity record: %w", err)
	}

	res, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (provider_ref, uid) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.GetTx(ctx, tx, record.ProviderRef, record.UID)
	}

	return record, nil
}

func (r *identities) ListByUser(ctx context.Context, userRef uuid.UUID) ([]*UserIdentity, error) {
	return r.ListByUserTx(ctx, r.db, userRef)
}

func (r *identities) ListByUserTx(ctx context.Context, tx bun.IDB, userRef uuid.UUID) ([]*UserIdentity, error) {
	records := []*UserIdentity{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.user_ref = ?", userRef).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*UserIdentity{}, nil
		}
		return nil, err
	}

	return records, nil
}

func (r *identities) Delete(ctx context.Context, providerRef uuid.UUID, uid string) error {
	return r.DeleteTx(ctx, r.db, providerRef, uid)
}

func (r *identities) DeleteTx(ctx context.Context, tx bun.IDB, providerRef uuid.UUID, uid string) error {
	_, err := tx.NewDelete().
		Model((*UserIdentity)(nil)).
		Where("provider_ref = ?", providerRef).
		Where("uid = ?", uid).
		Exec(ctx)
	return err
}
