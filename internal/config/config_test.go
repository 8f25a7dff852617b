package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:8787", c.ListenAddr)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "studio.db", c.DatabaseDSN)
	assert.Equal(t, "main", c.GitHubBranch)
	assert.Equal(t, "https://api.github.com", c.GitHubBaseURL)
	assert.Equal(t, "images", c.ContentRoot)
	assert.Equal(t, "process-wallpapers", c.WorkflowEventType)
	assert.Equal(t, 3*time.Second, c.GraceDelay)
	assert.Equal(t, 8*time.Second, c.PollInterval)
	assert.Equal(t, 2*time.Second, c.RefreshDelay)
	assert.Equal(t, 10*time.Minute, c.StuckCeiling)
	assert.Equal(t, 30*time.Minute, c.PollCeiling)
	assert.Equal(t, 1000, c.LedgerMaxEntries)
	assert.Equal(t, 30*24*time.Hour, c.LedgerTTL)
	assert.Equal(t, 500, c.HistoryLimit)
	assert.Equal(t, 12*time.Hour, c.SessionTTL)
	assert.Equal(t, "us-east-1", c.S3Region)
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads from json and keeps absent fields", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"listen_addr":   "0.0.0.0:9999",
			"github_owner":  "nuanxinpro",
			"github_repo":   "wallpapers",
			"poll_interval": "15s",
			"ledger_ttl":    "720h",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr)
		assert.Equal(t, "nuanxinpro", cfg.GitHubOwner)
		assert.Equal(t, "wallpapers", cfg.GitHubRepo)
		assert.Equal(t, 15*time.Second, cfg.PollInterval)
		assert.Equal(t, 720*time.Hour, cfg.LedgerTTL)
		// untouched by the file
		assert.Equal(t, "main", cfg.GitHubBranch)
		assert.Equal(t, 3*time.Second, cfg.GraceDelay)
		assert.Equal(t, 1000, cfg.LedgerMaxEntries)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{ListenAddr: "addr:1", GitHubOwner: "x"}
		parseJson(cfg)

		assert.Equal(t, "addr:1", cfg.ListenAddr)
		assert.Equal(t, "x", cfg.GitHubOwner)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}

func Test_parseEnv(t *testing.T) {
	t.Setenv("STUDIO_GITHUB_OWNER", "envowner")
	t.Setenv("STUDIO_POLL_INTERVAL", "20s")
	t.Setenv("STUDIO_LEDGER_MAX_ENTRIES", "250")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "envowner", cfg.GitHubOwner)
	assert.Equal(t, 20*time.Second, cfg.PollInterval)
	assert.Equal(t, 250, cfg.LedgerMaxEntries)
	assert.Equal(t, "main", cfg.GitHubBranch)
}

func Test_parseEnv_MalformedDurationPanics(t *testing.T) {
	t.Setenv("STUDIO_POLL_INTERVAL", "soon")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.Panics(t, func() { parseEnv(cfg) })
}

func TestLoadConfig_FlagsBeatEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Setenv("STUDIO_GITHUB_OWNER", "envowner")
	os.Args = []string{"testbin", "-o", "flagowner"}

	cfg := LoadConfig()
	assert.Equal(t, "flagowner", cfg.GitHubOwner)
}
