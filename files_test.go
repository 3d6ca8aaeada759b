package social

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestApplyMigrationsBootstrapsFreshDatabase(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	require.NoError(t, ApplyMigrations(context.Background(), bunDB))

	providers := NewProvidersRepository(bunDB)
	provider := seedProvider(t, providers, "github", ProviderStatusActive)

	identities := NewIdentitiesRepository(bunDB)
	_, err = identities.Register(context.Background(), &UserIdentity{
		ProviderRef: provider.ID,
		UID:         "octocat",
		UserRef:     uuid.New(),
	})
	require.NoError(t, err)

	record, err := providers.GetByCode(context.Background(), "github")
	require.NoError(t, err)
	assert.Equal(t, provider.ID, record.ID)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	// the tables already exist, a second run must not fail
	require.NoError(t, ApplyMigrations(context.Background(), db))
	require.NoError(t, ApplyMigrations(context.Background(), db))
}
