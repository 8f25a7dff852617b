package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nuanxinpro/wallpaper-studio/internal/app"
	"github.com/nuanxinpro/wallpaper-studio/internal/backup"
	"github.com/nuanxinpro/wallpaper-studio/internal/config"
	"github.com/nuanxinpro/wallpaper-studio/internal/credentials"
	"github.com/nuanxinpro/wallpaper-studio/internal/dedup"
	"github.com/nuanxinpro/wallpaper-studio/internal/github"
	"github.com/nuanxinpro/wallpaper-studio/internal/store"
	"github.com/nuanxinpro/wallpaper-studio/internal/upload"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func promptSecret(prompt string) ([]byte, error) {
	fmt.Println(prompt)
	secret, err := readPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, err
	}
	fmt.Println()
	return secret, nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// withStore opens the configured store, runs fn and closes it afterwards.
func withStore(ctx context.Context, cfg *config.Config, fn func(*store.Repositories) error) error {
	repos, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = repos.Close() }()
	return fn(repos)
}

// unsealCredentials prompts for the passphrase and loads the sealed secrets.
func unsealCredentials(ctx context.Context, repos *store.Repositories) (*credentials.Credentials, error) {
	passphrase, err := promptSecret("Enter passphrase")
	if err != nil {
		return nil, err
	}
	creds, err := credentials.NewStore(repos.Settings).Load(ctx, passphrase)
	if errors.Is(err, credentials.ErrNotConfigured) {
		return nil, errors.New("no credentials saved, run `studio login` first")
	}
	return creds, err
}

func newGitHubClient(cfg *config.Config, creds *credentials.Credentials) *github.Client {
	return github.NewClient(cfg.GitHubOwner, cfg.GitHubRepo, creds.TokenSource(),
		github.WithBaseURL(cfg.GitHubBaseURL),
		github.WithBranch(cfg.GitHubBranch),
	)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()

			passphrase, err := promptSecret("Enter passphrase")
			if err != nil {
				return err
			}

			a, err := app.NewApp(ctx, cfg, passphrase)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Save the GitHub token and AI credentials, sealed with a passphrase",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()

			token, err := promptSecret("Enter GitHub token")
			if err != nil {
				return err
			}
			if len(token) == 0 {
				return errors.New("token must not be empty")
			}

			accountID, err := promptLine("Cloudflare account id (empty to skip AI): ")
			if err != nil {
				return err
			}
			var aiToken []byte
			var workerURL string
			if accountID != "" {
				if aiToken, err = promptSecret("Enter AI API token"); err != nil {
					return err
				}
				if workerURL, err = promptLine("AI worker URL: "); err != nil {
					return err
				}
			}

			passphrase, err := promptSecret("Choose a passphrase")
			if err != nil {
				return err
			}
			confirm, err := promptSecret("Repeat the passphrase")
			if err != nil {
				return err
			}
			if string(passphrase) != string(confirm) {
				return errors.New("passphrases do not match")
			}

			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				creds := &credentials.Credentials{
					GitHubToken: string(token),
					AIAccountID: accountID,
					AIToken:     string(aiToken),
					AIWorkerURL: workerURL,
				}
				if err := credentials.NewStore(repos.Settings).Save(ctx, creds, passphrase); err != nil {
					return err
				}
				fmt.Println("Credentials saved.")
				return nil
			})
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the sealed credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()
			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				if err := credentials.NewStore(repos.Settings).Clear(ctx); err != nil {
					return err
				}
				fmt.Println("Credentials removed.")
				return nil
			})
		},
	}
}

func newUploadCmd() *cobra.Command {
	var series, primary, secondary string
	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload wallpapers into the collection repository",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()

			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				creds, err := unsealCredentials(ctx, repos)
				if err != nil {
					return err
				}

				client := newGitHubClient(cfg, creds)
				detector := dedup.NewDetector(repos.Ledger,
					dedup.WithMaxEntries(cfg.LedgerMaxEntries),
					dedup.WithTTL(cfg.LedgerTTL),
				)
				orch := upload.NewOrchestrator(client, detector, repos.History, cfg.ContentRoot,
					upload.WithHistoryLimit(cfg.HistoryLimit))

				for _, file := range args {
					payload, err := os.ReadFile(file)
					if err != nil {
						return err
					}
					name := filepath.Base(file)
					mediaType := mime.TypeByExtension(filepath.Ext(name))
					if _, err := orch.Enqueue(name, payload, mediaType, series, primary, secondary); err != nil {
						return err
					}
				}

				if orch.BatchWarning() {
					fmt.Printf("Large batch, estimated duration %s\n", orch.EstimateBatchDuration())
				}

				result, err := orch.UploadAll(ctx)
				if err != nil {
					return err
				}
				for _, item := range result.Items {
					if item.Status == upload.StatusSuccess {
						fmt.Printf("ok    %s -> %s\n", item.Filename, item.TargetPath(cfg.ContentRoot))
					} else {
						fmt.Printf("fail  %s: %s\n", item.Filename, item.Message)
					}
				}
				if result.PermissionError {
					return errors.New("batch aborted: no permission to write to the repository")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "target series (desktop, mobile, avatar)")
	cmd.Flags().StringVar(&primary, "primary", "", "target category")
	cmd.Flags().StringVar(&secondary, "secondary", "", "optional third-level category")
	_ = cmd.MarkFlagRequired("series")
	_ = cmd.MarkFlagRequired("primary")
	return cmd
}

func newWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Inspect and trigger the remote processing workflow",
	}
	cmd.AddCommand(newWorkflowStatusCmd(), newWorkflowTriggerCmd(), newWorkflowPendingCmd())
	return cmd
}

func newWorkflowStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current workflow run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()
			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				creds, err := unsealCredentials(ctx, repos)
				if err != nil {
					return err
				}
				running, latest, err := newGitHubClient(cfg, creds).RunningWorkflow(ctx)
				if err != nil {
					return err
				}
				if running != nil {
					fmt.Printf("running: %s (%s) since %s\n", running.Name, running.Status, running.CreatedAt.Local())
					return nil
				}
				if latest != nil {
					fmt.Printf("idle, last run: %s (%s/%s)\n", latest.Name, latest.Status, latest.Conclusion)
					return nil
				}
				fmt.Println("idle, no runs yet")
				return nil
			})
		},
	}
}

func newWorkflowTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Fire the processing workflow when images are pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()
			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				creds, err := unsealCredentials(ctx, repos)
				if err != nil {
					return err
				}
				client := newGitHubClient(cfg, creds)

				report, err := client.PendingImages(ctx, cfg.ContentRoot)
				if err != nil {
					return err
				}
				if report.PendingCount == 0 {
					if report.Message != "" {
						return errors.New(report.Message)
					}
					return errors.New("no pending images to process")
				}

				if err := client.TriggerDispatch(ctx, cfg.WorkflowEventType, nil); err != nil {
					return err
				}
				fmt.Printf("Triggered %q for %d pending images.\n", cfg.WorkflowEventType, report.PendingCount)
				return nil
			})
		},
	}
}

func newWorkflowPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List images waiting for the next workflow run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()
			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				creds, err := unsealCredentials(ctx, repos)
				if err != nil {
					return err
				}
				report, err := newGitHubClient(cfg, creds).PendingImages(ctx, cfg.ContentRoot)
				if err != nil {
					return err
				}
				if report.Message != "" {
					fmt.Println(report.Message)
					return nil
				}
				fmt.Printf("%d pending since %s (+%d commits)\n", report.PendingCount, report.LatestTag, report.AheadBy)
				for _, img := range report.PendingFiles {
					fmt.Printf("  %s  [%s/%s]\n", img.Filename, img.Series, img.Category)
				}
				return nil
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the upload history",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent uploads, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()
			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				records, err := repos.History.List(ctx, limit)
				if err != nil {
					return err
				}
				for _, rec := range records {
					line := fmt.Sprintf("%s  %-7s %s", rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Status, rec.Path)
					if rec.ErrorKind != "" {
						line += "  (" + rec.ErrorKind + ")"
					}
					fmt.Println(line)
				}
				return nil
			})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "number of records to show, 0 for all")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()
			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				return repos.History.Clear(ctx)
			})
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Export the upload history to the configured S3 bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.LoadConfig()
			if cfg.S3Bucket == "" {
				return errors.New("s3 bucket is not configured")
			}
			return withStore(ctx, cfg, func(repos *store.Repositories) error {
				exp, err := backup.NewExporter(ctx, backup.Config{
					Region:       cfg.S3Region,
					Bucket:       cfg.S3Bucket,
					AccessKey:    cfg.S3AccessKey,
					SecretKey:    cfg.S3SecretKey,
					BaseEndpoint: cfg.S3BaseEndpoint,
				}, repos.History)
				if err != nil {
					return err
				}
				key, err := exp.ExportHistory(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Backup uploaded: %s\n", key)
				return nil
			})
		},
	}
}
