package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "client_data.db"),
		Profile: ProfileCache,
		Name:    "client_data",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t)

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestMaintenanceJob(t *testing.T) {
	db := newTestDB(t)

	// Write something so the WAL has pages to checkpoint
	_, err := db.Conn().Exec(
		`INSERT OR REPLACE INTO market_quotes (symbol, data, expires_at) VALUES (?, ?, ?)`,
		"SPX", `{"symbol":"SPX","value":4500}`, 0,
	)
	require.NoError(t, err)

	job := NewMaintenanceJob(db, zerolog.Nop())
	assert.Equal(t, "db_maintenance", job.Name())
	assert.NoError(t, job.Run())

	// The database stays usable after the checkpoint
	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM market_quotes`).Scan(&count))
	assert.Equal(t, 1, count)
}
