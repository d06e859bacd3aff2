package events

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// imageContentTypes is the accepted upload MIME allowlist.
var imageContentTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/bmp":     ".bmp",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// FileStore persists uploaded image files on disk under random names.
type FileStore struct {
	dir string
}

// NewFileStore ensures the upload directory exists.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("events/filestore: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Accepts reports whether the content type is an allowed image format.
func (fs *FileStore) Accepts(contentType string) bool {
	_, ok := imageContentTypes[strings.ToLower(contentType)]
	return ok
}

// Save writes the upload to disk and returns the stored file name.
func (fs *FileStore) Save(contentType string, src io.Reader) (string, error) {
	ext, ok := imageContentTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("events/filestore: unsupported content type %q", contentType)
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(fs.dir, name))
	if err != nil {
		return "", fmt.Errorf("events/filestore: create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("events/filestore: write file: %w", err)
	}
	return name, nil
}

// Path resolves a stored file name inside the upload directory. Names with
// path separators are rejected so stored names cannot escape the directory.
func (fs *FileStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("events/filestore: invalid file name %q", name)
	}
	return filepath.Join(fs.dir, name), nil
}

// Remove deletes a stored file; a missing file is not an error.
func (fs *FileStore) Remove(name string) error {
	path, err := fs.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("events/filestore: remove: %w", err)
	}
	return nil
}
