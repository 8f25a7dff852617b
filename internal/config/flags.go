package config

import (
	"flag"
	"os"

	"github.com/nuanxinpro/wallpaper-studio/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   admin API bind address (e.g., "127.0.0.1:8787")
//	-d string   database DSN (sqlite path or PostgreSQL DSN)
//	-o string   GitHub repository owner
//	-r string   GitHub repository name
//	-b string   GitHub branch
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with subcommand flags.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-o", "-r", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port for the admin API")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.GitHubOwner, "o", config.GitHubOwner, "GitHub repository owner")
	fs.StringVar(&config.GitHubRepo, "r", config.GitHubRepo, "GitHub repository name")
	fs.StringVar(&config.GitHubBranch, "b", config.GitHubBranch, "GitHub branch")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
