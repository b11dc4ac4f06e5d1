package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/scout/internal/storage/sqlite"
)

const (
	// DataDir is the per-workspace directory holding scout's state.
	DataDir = ".scout"

	// DefaultDatabasePath is the database location relative to the workspace root.
	DefaultDatabasePath = DataDir + "/scout.db"
)

// ResolveDatabase returns the database path for a workspace. An empty
// configured path selects .scout/scout.db inside the workspace; relative
// paths are taken relative to the workspace root.
//
// The special value ":memory:" is returned unchanged.
func ResolveDatabase(workspace, configured string) (string, error) {
	if configured == sqlite.MemoryPath {
		return configured, nil
	}
	if configured == "" {
		configured = DefaultDatabasePath
	}
	if !filepath.IsAbs(configured) {
		configured = filepath.Join(workspace, configured)
	}
	abs, err := filepath.Abs(configured)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

// InitWorkspace creates the .scout directory in workspace and returns its
// path. An existing directory is not an error.
func InitWorkspace(workspace string) (string, error) {
	info, err := os.Stat(workspace)
	if err != nil {
		return "", fmt.Errorf("workspace directory does not exist: %s", workspace)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace is not a directory: %s", workspace)
	}

	dir := filepath.Join(workspace, DataDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", DataDir, err)
	}
	return dir, nil
}
