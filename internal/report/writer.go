// Package report publishes rendered snapshots: an atomically replaced
// loop-data file, an optional rsync mirror on a remote web server, and
// periodic accumulator checkpoints.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const loopFileMode = 0o644

// Writer maintains the loop-data file. Each snapshot is written to a temp
// file in the same directory and renamed into place so readers never see
// a partial document.
type Writer struct {
	dir      string
	filename string
}

// NewWriter creates the target directory if needed.
func NewWriter(dir, filename string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create loop data dir: %w", err)
	}
	return &Writer{dir: dir, filename: filename}, nil
}

// Path returns the full path of the loop-data file.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, w.filename)
}

// Write replaces the loop-data file with the JSON rendition of snap.
func (w *Writer) Write(snap map[string]any) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeFileAtomic(w.Path(), data, loopFileMode)
}

// writeFileAtomic replaces path with data via a temp file and rename.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	cleanup = false
	return nil
}
