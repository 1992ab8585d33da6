package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	require.NoError(t, err)

	var tables int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'notifications')`).Scan(&tables)
	require.NoError(t, err)
	require.Equal(t, 2, tables)
	require.NoError(t, db.Close())

	// Reopening must not re-run (and fail on) applied migrations.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	var applied int
	err = db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = '001_initial'`).Scan(&applied)
	require.NoError(t, err)
	require.Equal(t, 1, applied)
}
