package social

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Providers is the directory of registered provider credentials.
type Providers interface {
	repository.Repository[*Provider]

	GetByCode(ctx context.Context, code string) (*Provider, error)
	GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (*Provider, error)
	ListByStatus(ctx context.Context, status ProviderStatus) ([]*Provider, error)
	ListByStatusTx(ctx context.Context, tx bun.IDB, status ProviderStatus) ([]*Provider, error)
	Create(ctx context.Context, record *Provider, criteria ...repository.InsertCriteria) (*Provider, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Provider, criteria ...repository.InsertCriteria) (*Provider, error)
}

type providers struct {
	repository.Repository[*Provider]
	db *bun.DB
}

var (
	_ Providers                        = (*providers)(nil)
	_ repository.Repository[*Provider] = (*providers)(nil)
)

// NewProvidersRepository creates the provider directory backed by db.
func NewProvidersRepository(db *bun.DB) Providers {
	repo := repository.NewRepository[*Provider](db, repository.ModelHandlers[*Provider]{
		NewRecord: func() *Provider { return &Provider{} },
		GetID: func(p *Provider) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Provider, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &providers{
		Repository: repo,
		db:         db,
	}
}

func (p *providers) GetByCode(ctx context.Context, code string) (*Provider, error) {
	return p.GetByCodeTx(ctx, p.db, code)
}

func (p *providers) GetByCodeTx(ctx context.Context, tx bun.IDB, code string) (*Provider, error) {
	record := &Provider{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.code = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"code": code,
				})
		}
		return nil, err
	}

	return record, nil
}

func (p *providers) ListByStatus(ctx context.Context, status ProviderStatus) ([]*Provider, error) {
	return p.ListByStatusTx(ctx, p.db, status)
}

func (p *providers) ListByStatusTx(ctx context.Context, tx bun.IDB, status ProviderStatus) ([]*Provider, error) {
	records := []*Provider{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", status).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (p *providers) Create(ctx context.Context, record *Provider, criteria ...repository.InsertCriteria) (*Provider, error) {
	return p.CreateTx(ctx, p.db, record, criteria...)
}

func (p *providers) CreateTx(ctx context.Context, tx bun.IDB, record *Provider, criteria ...repository.InsertCriteria) (*Provider, error) {
	record.EnsureDefaults()

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider record: %w", err)
	}

	return p.Repository.CreateTx(ctx, tx, record, criteria...)
}
