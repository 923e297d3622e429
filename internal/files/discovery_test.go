package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, content string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")

	assert.NotNil(t, discovery)
	assert.Equal(t, "/test/base", discovery.basePath)
	assert.Equal(t, "/test/base/hourly", discovery.resolve("hourly"))
	assert.Equal(t, "/abs", discovery.resolve("/abs"))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		pattern  string
		expected []string
	}{
		{
			name:     "sorted by name, not creation order",
			files:    []string{"Monthly_2012.xls", "Monthly_2010.xls", "Monthly_2011.xls"},
			pattern:  "Monthly_*.xls",
			expected: []string{"Monthly_2010.xls", "Monthly_2011.xls", "Monthly_2012.xls"},
		},
		{
			name:     "non matching files ignored",
			files:    []string{"Hourly_2012_1.xls", "Monthly_2012.xls", "notes.txt"},
			pattern:  "Hourly_*.xls",
			expected: []string{"Hourly_2012_1.xls"},
		},
		{
			name:     "leading separator in pattern",
			files:    []string{"Monthly_2010.xls"},
			pattern:  "/Monthly_*.xls",
			expected: []string{"Monthly_2010.xls"},
		},
		{
			name:     "lock files skipped",
			files:    []string{"~$Monthly_2010.xls", "Monthly_2010.xls"},
			pattern:  "*Monthly_*.xls",
			expected: []string{"Monthly_2010.xls"},
		},
		{
			name:     "subdirectories not searched",
			files:    []string{"Monthly_2010.xls", "old/Monthly_2009.xls"},
			pattern:  "Monthly_*.xls",
			expected: []string{"Monthly_2010.xls"},
		},
		{
			name:     "empty result",
			files:    []string{"readme.md"},
			pattern:  "Monthly_*.xls",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			now := time.Now()
			for i, name := range tt.files {
				// Newest first so mtime order disagrees with name order.
				touch(t, filepath.Join(tmpDir, name), "x", now.Add(-time.Duration(i)*time.Minute))
			}

			found, err := NewDiscovery("").Match(tmpDir, tt.pattern)
			require.NoError(t, err)

			names := make([]string, 0, len(found))
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(tmpDir, f.Name), f.Path)
				assert.Greater(t, f.Size, int64(0))
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestMatch_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	d := NewDiscovery(tmpDir)

	_, err := d.Match("missing", "*.xls")
	assert.Error(t, err)

	touch(t, filepath.Join(tmpDir, "file.xls"), "x", time.Now())
	_, err = d.Match("file.xls", "*.xls")
	assert.Error(t, err, "a file is not a directory")

	_, err = d.Match(".", "sub/*.xls")
	assert.Error(t, err)

	_, err = d.Match(".", "[")
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	in := []FileInfo{{Path: "/a/1.xls"}, {Path: "/a/2.xls"}}
	assert.Equal(t, []string{"/a/1.xls", "/a/2.xls"}, Paths(in))
	assert.Empty(t, Paths(nil))
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	mod := time.Date(2016, 1, 2, 3, 4, 5, 0, time.UTC)
	path := filepath.Join(dir, "tps00001.tsv")
	touch(t, path, "geo\\time\t2015\n", mod)

	info, err := Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "tps00001.tsv", info.Name)
	assert.Equal(t, int64(14), info.Size)
	assert.True(t, mod.Equal(info.ModTime))

	_, err = Stat(dir)
	assert.Error(t, err)
	_, err = Stat(filepath.Join(dir, "absent"))
	assert.Error(t, err)
}
