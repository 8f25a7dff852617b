package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDataDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDataDir()
	require.NoError(t, err)

	want := filepath.Join(tmp, "data")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDataDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	first, err := EnsureDataDir()
	require.NoError(t, err)

	second, err := EnsureDataDir()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestResolveDBPath(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := ResolveDBPath("studio.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "data", "studio.db"), got)

	explicit := filepath.Join(tmp, "elsewhere.db")
	got, err = ResolveDBPath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, got)

	got, err = ResolveDBPath("file:mem?mode=memory")
	require.NoError(t, err)
	require.Equal(t, "file:mem?mode=memory", got)
}
