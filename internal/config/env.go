package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables, loading a
// local .env file first when one exists. Variables use the STUDIO_ prefix.
// Unset variables leave the current value untouched; malformed durations
// and integers panic, matching the JSON layer.
func parseEnv(config *Config) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	envString(&config.ListenAddr, "STUDIO_LISTEN_ADDR")
	envString(&config.DatabaseDriver, "STUDIO_DATABASE_DRIVER")
	envString(&config.DatabaseDSN, "STUDIO_DATABASE_DSN")
	envString(&config.GitHubOwner, "STUDIO_GITHUB_OWNER")
	envString(&config.GitHubRepo, "STUDIO_GITHUB_REPO")
	envString(&config.GitHubBranch, "STUDIO_GITHUB_BRANCH")
	envString(&config.GitHubBaseURL, "STUDIO_GITHUB_BASE_URL")
	envString(&config.ContentRoot, "STUDIO_CONTENT_ROOT")
	envString(&config.WorkflowEventType, "STUDIO_WORKFLOW_EVENT_TYPE")
	envDuration(&config.GraceDelay, "STUDIO_GRACE_DELAY")
	envDuration(&config.PollInterval, "STUDIO_POLL_INTERVAL")
	envDuration(&config.RefreshDelay, "STUDIO_REFRESH_DELAY")
	envDuration(&config.StuckCeiling, "STUDIO_STUCK_CEILING")
	envDuration(&config.PollCeiling, "STUDIO_POLL_CEILING")
	envInt(&config.LedgerMaxEntries, "STUDIO_LEDGER_MAX_ENTRIES")
	envDuration(&config.LedgerTTL, "STUDIO_LEDGER_TTL")
	envInt(&config.HistoryLimit, "STUDIO_HISTORY_LIMIT")
	envString(&config.AIWorkerURL, "STUDIO_AI_WORKER_URL")
	envString(&config.AIModel, "STUDIO_AI_MODEL")
	envString(&config.SessionSecret, "STUDIO_SESSION_SECRET")
	envDuration(&config.SessionTTL, "STUDIO_SESSION_TTL")
	envString(&config.S3Bucket, "STUDIO_S3_BUCKET")
	envString(&config.S3Region, "STUDIO_S3_REGION")
	envString(&config.S3AccessKey, "STUDIO_S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "STUDIO_S3_SECRET_KEY")
	envString(&config.S3BaseEndpoint, "STUDIO_S3_BASE_ENDPOINT")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
