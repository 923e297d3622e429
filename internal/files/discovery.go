package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// passed to its methods resolve against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// Match returns the regular files directly inside dir whose name matches the
// glob pattern, sorted by file name. Subdirectories are never searched and
// spreadsheet lock files ("~$...") are ignored.
func (d *Discovery) Match(dir, pattern string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", fullPath)
	}

	// Patterns written as "/Monthly_*.xls" are relative to dir too.
	pattern = strings.TrimLeft(pattern, `/\`)
	if strings.ContainsAny(pattern, `/\`) {
		return nil, fmt.Errorf("invalid pattern %s: must not contain a path separator", pattern)
	}

	matches, err := filepath.Glob(filepath.Join(fullPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	files := make([]FileInfo, 0, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		if strings.HasPrefix(name, "~$") {
			continue
		}
		st, err := os.Stat(match)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    name,
			Size:    st.Size(),
			ModTime: st.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Paths returns the Path of every file, preserving order
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// Stat describes a single regular file
func Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if !st.Mode().IsRegular() {
		return FileInfo{}, fmt.Errorf("%s is not a regular file", path)
	}
	return FileInfo{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    st.Size(),
		ModTime: st.ModTime(),
	}, nil
}
