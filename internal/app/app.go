// Package app initializes and runs the studio backend: it opens the local
// store, unseals credentials, wires the upload and workflow services and
// serves the admin API with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/ai"
	"github.com/nuanxinpro/wallpaper-studio/internal/api"
	"github.com/nuanxinpro/wallpaper-studio/internal/config"
	"github.com/nuanxinpro/wallpaper-studio/internal/credentials"
	"github.com/nuanxinpro/wallpaper-studio/internal/dedup"
	"github.com/nuanxinpro/wallpaper-studio/internal/filex"
	"github.com/nuanxinpro/wallpaper-studio/internal/github"
	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
	"github.com/nuanxinpro/wallpaper-studio/internal/store"
	"github.com/nuanxinpro/wallpaper-studio/internal/upload"
	"github.com/nuanxinpro/wallpaper-studio/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

// App owns every long-lived component of the studio backend.
type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   *store.Repositories
	client  *github.Client
	orch    *upload.Orchestrator
	monitor *workflow.Monitor
	server  *http.Server
}

// OpenStore opens the configured database backend and runs migrations. Bare
// sqlite filenames land in the local data directory.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.Repositories, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		return store.InitPostgres(ctx, cfg.DatabaseDSN)
	case "sqlite", "":
		dsn, err := filex.ResolveDBPath(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return store.InitSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// NewApp wires the application. passphrase unseals the stored credentials.
func NewApp(ctx context.Context, cfg *config.Config, passphrase []byte) (*App, error) {
	if cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
		return nil, errors.New("github owner and repo must be configured")
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	repos, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	credStore := credentials.NewStore(repos.Settings)
	creds, err := credStore.Load(ctx, passphrase)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	client := github.NewClient(cfg.GitHubOwner, cfg.GitHubRepo, creds.TokenSource(),
		github.WithBaseURL(cfg.GitHubBaseURL),
		github.WithBranch(cfg.GitHubBranch),
		github.WithLogger(logger.With("component", "github")),
	)

	detector := dedup.NewDetector(repos.Ledger,
		dedup.WithMaxEntries(cfg.LedgerMaxEntries),
		dedup.WithTTL(cfg.LedgerTTL),
		dedup.WithLogger(logger.With("component", "dedup")),
	)

	orch := upload.NewOrchestrator(client, detector, repos.History, cfg.ContentRoot,
		upload.WithHistoryLimit(cfg.HistoryLimit),
		upload.WithLogger(logger.With("component", "upload")),
	)

	monitor := workflow.NewMonitor(client, cfg.ContentRoot,
		workflow.WithEventType(cfg.WorkflowEventType),
		workflow.WithGraceDelay(cfg.GraceDelay),
		workflow.WithPollInterval(cfg.PollInterval),
		workflow.WithRefreshDelay(cfg.RefreshDelay),
		workflow.WithStuckCeiling(cfg.StuckCeiling),
		workflow.WithPollCeiling(cfg.PollCeiling),
		workflow.WithLogger(logger.With("component", "workflow")),
	)

	verify := func(ctx context.Context, passphrase []byte) error {
		_, err := credStore.Load(ctx, passphrase)
		return err
	}

	serverOpts := []api.ServerOption{
		api.WithLogger(logger.With("component", "api")),
		api.WithSessionTTL(cfg.SessionTTL),
	}
	if creds.AIWorkerURL != "" || cfg.AIWorkerURL != "" {
		workerURL := creds.AIWorkerURL
		if workerURL == "" {
			workerURL = cfg.AIWorkerURL
		}
		classifier := ai.NewClassifier(ai.Config{
			WorkerURL: workerURL,
			AccountID: creds.AIAccountID,
			APIToken:  creds.AIToken,
			Model:     cfg.AIModel,
		})
		serverOpts = append(serverOpts, api.WithClassifier(classifier))
	}

	apiServer := api.NewServer(client, orch, monitor, repos.History, verify,
		cfg.ContentRoot, []byte(cfg.SessionSecret), serverOpts...)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: apiServer.Router(),
	}

	return &App{
		config:  cfg,
		logger:  logger,
		repos:   repos,
		client:  client,
		orch:    orch,
		monitor: monitor,
		server:  srv,
	}, nil
}

// Run serves the admin API until ctx is cancelled, then shuts everything
// down in order.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "starting studio backend", "addr", app.config.ListenAddr,
		"repo", app.config.GitHubOwner+"/"+app.config.GitHubRepo)

	errCh := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.close(ctx)
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "server shutdown failed", "error", err)
	}

	app.close(ctx)
	return nil
}

func (app *App) close(ctx context.Context) {
	app.monitor.Close()
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "failed to close store", "error", err)
	}
}
