// Package repotest opens throwaway stores for tests.
package repotest

import (
	"context"
	"path/filepath"
	"testing"

	"chessmistry-api/internal/platform"
	"chessmistry-api/internal/repositories"

	"github.com/stretchr/testify/require"
)

// NewSQLiteStore returns a migrated SQLite store in a temp dir, closed on cleanup.
func NewSQLiteStore(t testing.TB) *repositories.SQLStore {
	t.Helper()

	db, err := platform.ConnectDB(context.Background(), platform.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	store, err := repositories.NewSQLStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() { _ = store.Close() })
	return store
}
