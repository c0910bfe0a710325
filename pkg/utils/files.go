// =============================================================================
// Trade Reconciliation - File Utilities
// =============================================================================
//
// Small filesystem helpers shared by the CLI and the output writers:
//   - run identifiers
//   - output directory creation
//   - input file checks
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// NewRunID returns a random identifier for one reconciliation run. It tags
// log lines and the summary outputs of the run.
func NewRunID() string {
	return uuid.New().String()
}

// EnsureParentDir creates the directory that will hold path, if needed.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
