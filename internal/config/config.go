// Package config handles configuration for the studio backend, including
// defaults, JSON overlay, environment overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the wallpaper-studio backend.
//
// Fields:
//   - ListenAddr: bind address for the local admin JSON API.
//   - DatabaseDriver: "sqlite" or "postgres".
//   - DatabaseDSN: sqlite file path or PostgreSQL DSN (pgx).
//   - GitHubOwner / GitHubRepo / GitHubBranch: the collection repository.
//   - GitHubBaseURL: API base, overridable for GitHub Enterprise.
//   - ContentRoot: repository directory that holds the wallpaper tree.
//   - WorkflowEventType: repository_dispatch event that starts processing.
//   - GraceDelay / PollInterval / RefreshDelay / StuckCeiling / PollCeiling:
//     workflow monitor timings.
//   - LedgerMaxEntries / LedgerTTL: duplicate ledger retention.
//   - HistoryLimit: how many upload records to keep.
//   - AIWorkerURL / AIModel: classification proxy settings.
//   - SessionSecret: HMAC secret for admin API session tokens (HS256).
//     Do not use the default in production.
//   - SessionTTL: session token lifetime.
//   - S3Bucket / S3Region / S3AccessKey / S3SecretKey / S3BaseEndpoint:
//     backup target, S3-compatible.
type Config struct {
	ListenAddr     string
	DatabaseDriver string
	DatabaseDSN    string

	GitHubOwner   string
	GitHubRepo    string
	GitHubBranch  string
	GitHubBaseURL string
	ContentRoot   string

	WorkflowEventType string
	GraceDelay        time.Duration
	PollInterval      time.Duration
	RefreshDelay      time.Duration
	StuckCeiling      time.Duration
	PollCeiling       time.Duration

	LedgerMaxEntries int
	LedgerTTL        time.Duration
	HistoryLimit     int

	AIWorkerURL string
	AIModel     string

	SessionSecret string
	SessionTTL    time.Duration

	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SessionSecret must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.ListenAddr = "127.0.0.1:8787"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "studio.db"
	c.GitHubBranch = "main"
	c.GitHubBaseURL = "https://api.github.com"
	c.ContentRoot = "images"
	c.WorkflowEventType = "process-wallpapers"
	c.GraceDelay = 3 * time.Second
	c.PollInterval = 8 * time.Second
	c.RefreshDelay = 2 * time.Second
	c.StuckCeiling = 10 * time.Minute
	c.PollCeiling = 30 * time.Minute
	c.LedgerMaxEntries = 1000
	c.LedgerTTL = 30 * 24 * time.Hour
	c.HistoryLimit = 500
	c.AIModel = "@cf/meta/llava-hf/llava-1.5-7b-hf"
	c.SessionSecret = "secretKey"
	c.SessionTTL = 12 * time.Hour
	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, environment variables (including an optional
// .env file), and finally command-line flags. Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
