package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	lite := &DB{Dialect: SQLite}

	q := "SELECT id FROM tasks WHERE user_id = ? AND status <> ? LIMIT ?"
	assert.Equal(t, "SELECT id FROM tasks WHERE user_id = $1 AND status <> $2 LIMIT $3", pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))
	assert.Equal(t, "SELECT 1", pg.Rebind("SELECT 1"))
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocastro.db")
	d, err := OpenSQLite(path)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, SQLite, d.Dialect)

	for _, table := range []string{"users", "tasks", "user_vocabulary", "analytics_events"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	// Migrations are idempotent.
	require.NoError(t, Migrate(context.Background(), d))
}
