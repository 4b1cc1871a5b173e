package repositories_test

import (
	"testing"

	"github.com/myrjola/whodunit/internal/db"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a fresh in-memory database with the schema applied.
func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	dbs, err := db.NewDatabase(":memory:")
	require.NoError(t, err, "open test database")
	t.Cleanup(func() {
		_ = dbs.ReadOnly.Close()
		_ = dbs.ReadWrite.Close()
	})
	return dbs
}
