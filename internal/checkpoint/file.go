package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileStore keeps one plain-text file per chat pair inside a directory.
// The file content is exactly the decimal message id.
type FileStore struct {
	dir string
}

// Compile-time interface guard.
var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory is created on the
// first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the checkpoint files.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the artifact path for key.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.dir, "checkpoint_"+key.String()+".txt")
}

// Load implements Store.
func (s *FileStore) Load(key Key) (int, bool, error) {
	raw, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("checkpoint: read %s: %w", key, err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return 0, false, nil
	}

	id, err := strconv.Atoi(text)
	if err != nil || id < 0 {
		return 0, false, fmt.Errorf("%w: %s: %q", ErrCorrupt, key, text)
	}
	return id, true, nil
}

// Save implements Store. The content is written to a temporary file in the
// same directory and renamed over the artifact, so readers never observe a
// partial write.
func (s *FileStore) Save(key Key, id int) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("checkpoint: create directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strconv.Itoa(id)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("checkpoint: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("checkpoint: close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("checkpoint: replace %s: %w", key, err)
	}
	return nil
}

// Reset implements Store. Removing a missing checkpoint is not an error.
func (s *FileStore) Reset(key Key) error {
	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checkpoint: remove %s: %w", key, err)
	}
	return nil
}
