package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/stretchr/testify/require"
	"github.com/yomishelf/yomishelf/pkg/config"
)

func newFileConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		DatabaseBusyTimeout:       time.Second,
		DatabaseConnectRetryCount: 3,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		DatabaseFilePath:          filepath.Join(t.TempDir(), "data.sqlite"),
		DatabaseMaxRetries:        3,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	db, err := New(newFileConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO notes (body) VALUES (?)", "hello")
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT count(*) FROM notes").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewAppliesPragmasPerConnection(t *testing.T) {
	t.Parallel()

	db, err := New(newFileConfig(t))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	_, err = db.Exec("CREATE TABLE parents (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER NOT NULL REFERENCES parents (id))")
	require.NoError(t, err)

	// Hold two pooled connections open at once so the second cannot be a
	// reuse of the first.
	conn1, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn1.Close()
	conn2, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn2.Close()

	for _, conn := range []bun.Conn{conn1, conn2} {
		var fk int
		err = conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk)
		require.NoError(t, err)
		assert.Equal(t, 1, fk)

		_, err = conn.ExecContext(ctx, "INSERT INTO children (parent_id) VALUES (?)", 12345)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FOREIGN KEY constraint")
	}
}
