// Package filex resolves where the studio keeps its local files.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const dataDirName = "data"

// EnsureDataDir creates the local data directory next to the working
// directory if needed and returns its absolute path.
func EnsureDataDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dataDirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ResolveDBPath places a bare database filename inside the data directory.
// Paths that already carry a directory, and sqlite URIs, pass through
// unchanged.
func ResolveDBPath(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "file:") || strings.ContainsRune(dsn, os.PathSeparator) {
		return dsn, nil
	}

	dir, err := EnsureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dsn), nil
}
