package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/setupetc/internal/fsops"
)

// Store loads and saves the manifest.
type Store interface {
	// Load reads the manifest. A missing manifest is an empty one.
	Load() (*Manifest, error)

	// Save replaces the manifest atomically.
	Save(m *Manifest) error

	// Path returns the manifest location.
	Path() string
}

// FileStore implements Store on a single file.
type FileStore struct {
	fs   fsops.FS
	path string
}

// NewFileStore creates a FileStore for the manifest at path.
func NewFileStore(fs fsops.FS, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the manifest file.
func (s *FileStore) Load() (*Manifest, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return New(), fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data), nil
}

// Save writes the manifest with temp file + rename.
func (s *FileStore) Save(m *Manifest) error {
	if err := s.fs.AtomicWrite(s.path, m.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
