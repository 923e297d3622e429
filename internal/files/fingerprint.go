package files

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FingerprintMode selects what a fingerprint covers
type FingerprintMode int

const (
	// FingerprintModTime hashes name, size and modification time of every file
	FingerprintModTime FingerprintMode = iota
	// FingerprintContent hashes name and full content of every file
	FingerprintContent
)

// Fingerprint summarises a file set so that any added, removed, renamed or
// changed file produces a different value. Order matters; callers pass the
// name-sorted output of Match.
func Fingerprint(files []FileInfo, mode FingerprintMode) (string, error) {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00", f.Name)
		switch mode {
		case FingerprintContent:
			if err := hashFile(h, f.Path); err != nil {
				return "", err
			}
		default:
			fmt.Fprintf(h, "%d\x00%d", f.Size, f.ModTime.UnixNano())
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return nil
}
