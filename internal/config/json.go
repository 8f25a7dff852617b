package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/flagx"
	"github.com/nuanxinpro/wallpaper-studio/internal/timex"
)

// JsonConfig is the DTO for the optional JSON config file. Duration fields
// use timex.Duration so the file can say "8s" or "10m" instead of
// nanoseconds. Absent fields leave the current value untouched.
type JsonConfig struct {
	ListenAddr     string `json:"listen_addr"`
	DatabaseDriver string `json:"database_driver"`
	DatabaseDSN    string `json:"database_dsn"`

	GitHubOwner   string `json:"github_owner"`
	GitHubRepo    string `json:"github_repo"`
	GitHubBranch  string `json:"github_branch"`
	GitHubBaseURL string `json:"github_base_url"`
	ContentRoot   string `json:"content_root"`

	WorkflowEventType string          `json:"workflow_event_type"`
	GraceDelay        *timex.Duration `json:"grace_delay"`
	PollInterval      *timex.Duration `json:"poll_interval"`
	RefreshDelay      *timex.Duration `json:"refresh_delay"`
	StuckCeiling      *timex.Duration `json:"stuck_ceiling"`
	PollCeiling       *timex.Duration `json:"poll_ceiling"`

	LedgerMaxEntries int             `json:"ledger_max_entries"`
	LedgerTTL        *timex.Duration `json:"ledger_ttl"`
	HistoryLimit     int             `json:"history_limit"`

	AIWorkerURL string `json:"ai_worker_url"`
	AIModel     string `json:"ai_model"`

	SessionSecret string          `json:"session_secret"`
	SessionTTL    *timex.Duration `json:"session_ttl"`

	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Missing flag means no file is loaded; an unreadable or invalid
// file panics, matching flag-parse failures.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlayString(&config.ListenAddr, c.ListenAddr)
	overlayString(&config.DatabaseDriver, c.DatabaseDriver)
	overlayString(&config.DatabaseDSN, c.DatabaseDSN)
	overlayString(&config.GitHubOwner, c.GitHubOwner)
	overlayString(&config.GitHubRepo, c.GitHubRepo)
	overlayString(&config.GitHubBranch, c.GitHubBranch)
	overlayString(&config.GitHubBaseURL, c.GitHubBaseURL)
	overlayString(&config.ContentRoot, c.ContentRoot)
	overlayString(&config.WorkflowEventType, c.WorkflowEventType)
	overlayDuration(&config.GraceDelay, c.GraceDelay)
	overlayDuration(&config.PollInterval, c.PollInterval)
	overlayDuration(&config.RefreshDelay, c.RefreshDelay)
	overlayDuration(&config.StuckCeiling, c.StuckCeiling)
	overlayDuration(&config.PollCeiling, c.PollCeiling)
	overlayInt(&config.LedgerMaxEntries, c.LedgerMaxEntries)
	overlayDuration(&config.LedgerTTL, c.LedgerTTL)
	overlayInt(&config.HistoryLimit, c.HistoryLimit)
	overlayString(&config.AIWorkerURL, c.AIWorkerURL)
	overlayString(&config.AIModel, c.AIModel)
	overlayString(&config.SessionSecret, c.SessionSecret)
	overlayDuration(&config.SessionTTL, c.SessionTTL)
	overlayString(&config.S3Bucket, c.S3Bucket)
	overlayString(&config.S3Region, c.S3Region)
	overlayString(&config.S3AccessKey, c.S3AccessKey)
	overlayString(&config.S3SecretKey, c.S3SecretKey)
	overlayString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
