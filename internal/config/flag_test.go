package config

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
	}{
		{
			name:     "address and repo flags",
			args:     []string{"cmd", "-a", ":9000", "-o", "octo", "-r", "walls"},
			expected: &Config{ListenAddr: ":9000", GitHubOwner: "octo", GitHubRepo: "walls"},
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"cmd", "-z", "zzz", "-b", "release"},
			expected: &Config{GitHubBranch: "release"},
		},
		{
			name:     "no flags leave the config untouched",
			args:     []string{"cmd"},
			expected: &Config{},
		},
	}

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(config, tt.expected))
		})
	}
}
