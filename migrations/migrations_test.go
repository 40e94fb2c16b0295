package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestUp_SQLite(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()

	n, err := Up(ctx, db, SQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = Up(ctx, db, SQLite)
	require.NoError(t, err)
	assert.Zero(t, n, "second run has nothing pending")

	for _, table := range []string{"entries", "definitions", "meanings"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestNewProvider_UnknownDialect(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(nil, Dialect("oracle"))
	assert.Error(t, err)
}
