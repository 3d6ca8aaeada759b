package social

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreateProviders = `CREATE TABLE social_providers (
    id TEXT NOT NULL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    client_id TEXT NOT NULL,
    client_secret TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'ACTIVE',
    date_created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
	sqliteCreateIdentities = `CREATE TABLE user_identities (
    provider_ref TEXT NOT NULL,
    uid TEXT NOT NULL,
    user_ref TEXT NOT NULL,
    PRIMARY KEY (provider_ref, uid),
    FOREIGN KEY (provider_ref) REFERENCES social_providers (id)
);`
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	_, err = bunDB.Exec(sqliteCreateProviders)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateIdentities)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return bunDB
}
