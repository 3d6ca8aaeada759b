package social

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProvider(t *testing.T, repo Providers, code string, status ProviderStatus) *Provider {
	t.Helper()

	record, err := repo.Create(context.Background(), &Provider{
		Code:         code,
		Name:         "Provider " + code,
		ClientID:     "client-" + code,
		ClientSecret: "secret-" + code,
		Status:       status,
	})
	require.NoError(t, err)
	return record
}

func TestProvidersCreateAppliesDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProvidersRepository(db)

	record, err := repo.Create(context.Background(), &Provider{
		Code:         "github",
		Name:         "GitHub",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, ProviderStatusActive, record.Status)
	assert.NotNil(t, record.DateCreated)
}

func TestProvidersCreateRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProvidersRepository(db)

	_, err := repo.Create(context.Background(), &Provider{
		Code: "github",
		Name: "GitHub",
	})
	assert.Error(t, err)
}

func TestProvidersGetByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProvidersRepository(db)

	seeded := seedProvider(t, repo, "github", ProviderStatusActive)

	record, err := repo.GetByCode(context.Background(), "github")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, record.ID)
	assert.Equal(t, "client-github", record.ClientID)

	_, err = repo.GetByCode(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestProvidersListByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProvidersRepository(db)

	seedProvider(t, repo, "github", ProviderStatusActive)
	seedProvider(t, repo, "google", ProviderStatusActive)
	seedProvider(t, repo, "x", ProviderStatusInactive)

	active, err := repo.ListByStatus(context.Background(), ProviderStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 2)

	codes := []string{active[0].Code, active[1].Code}
	assert.Contains(t, codes, "github")
	assert.Contains(t, codes, "google")

	inactive, err := repo.ListByStatus(context.Background(), ProviderStatusInactive)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "x", inactive[0].Code)
}

func TestProvidersCodeIsUnique(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProvidersRepository(db)

	seedProvider(t, repo, "github", ProviderStatusActive)

	_, err := repo.Create(context.Background(), &Provider{
		Code:         "github",
		Name:         "GitHub Again",
		ClientID:     "other-client",
		ClientSecret: "other-secret",
	})
	assert.Error(t, err)
}
