// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/repository"
)

// NewSQLiteDB opens a private in-memory SQLite database with the schema
// applied. It is closed when the test ends.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := repository.Open(ctx, config.DatabaseConfig{
		Driver: repository.DriverSQLite,
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, repository.Migrate(ctx, db))
	return db
}

// NewStore returns a Store backed by NewSQLiteDB.
func NewStore(t *testing.T) repository.Store {
	t.Helper()
	return repository.NewStore(NewSQLiteDB(t))
}
