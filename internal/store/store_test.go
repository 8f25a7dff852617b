package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuanxinpro/wallpaper-studio/internal/models"
)

func TestInitSQLite_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "studio.db")

	repos, err := InitSQLite(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	for _, table := range []string{"ledger", "history", "settings", "goose_db_version"} {
		var n int
		err := repos.DB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s must exist", table)
	}
}

func TestInitSQLite_RepositoriesUsable(t *testing.T) {
	ctx := context.Background()
	repos, err := InitSQLite(ctx, filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	require.NoError(t, repos.Ledger.Put(ctx, &models.LedgerEntry{
		Fingerprint: "fp",
		Filename:    "a.jpg",
		Path:        "images/a.jpg",
		RecordedAt:  time.Now().UTC(),
	}))
	entry, err := repos.Ledger.Get(ctx, "fp")
	require.NoError(t, err)
	assert.NotNil(t, entry)

	require.NoError(t, repos.Settings.Set(ctx, "k", "v"))
	v, ok, err := repos.Settings.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	repos, err := InitSQLite(ctx, filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	require.NoError(t, RunMigrations(ctx, repos.DB))
}
