package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "studio: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Wallpaper collection admin backend",
		Long: `studio manages a categorized wallpaper collection hosted in a GitHub
repository: it uploads new images with duplicate detection, triggers the
remote processing workflow and serves the local admin API the browser UI
talks to.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newUploadCmd(),
		newWorkflowCmd(),
		newHistoryCmd(),
		newBackupCmd(),
	)
	return cmd
}
