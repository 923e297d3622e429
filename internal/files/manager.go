package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager provides the file operations the snapshot cache needs: existence
// checks, deletes and all-or-nothing replacement of a file.
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// FileExists checks if a regular file exists at the given path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(path)
	exists := err == nil && info.Mode().IsRegular()

	m.logger.Debug("FileExists check",
		slog.String("path", path),
		slog.Bool("exists", exists))

	return exists
}

// RemoveIfExists deletes path, treating an already missing file as success
func (m *Manager) RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// ReplaceAtomic writes a new version of path through write, which receives a
// temporary path in the same directory. The temporary file is renamed over
// path only when write succeeds, so readers see either the old file or the
// complete new one.
func (m *Manager) ReplaceAtomic(path string, write func(tmpPath string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := write(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}

	m.logger.Debug("Replaced file",
		slog.String("path", path))

	return nil
}
