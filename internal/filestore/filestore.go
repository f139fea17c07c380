package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps uploaded files on disk under <root>/<owner>/<filename>. It is
// a plain byte sink; document ownership and chunk vectors live elsewhere.
type FileStore struct {
	root string
}

func New(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("file store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root failed: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Save writes the content of r to the owner's directory, replacing any
// existing file with the same name.
func (s *FileStore) Save(owner, filename string, r io.Reader) error {
	path, err := s.path(owner, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create owner directory failed: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file failed: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write upload file failed: %w", err)
	}
	return nil
}

// Open returns the stored file for reading.
func (s *FileStore) Open(owner, filename string) (io.ReadCloser, error) {
	path, err := s.path(owner, filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload file failed: %w", err)
	}
	return f, nil
}

// Remove deletes the stored file. A missing file is not an error, so deleting
// a document whose upload was already cleaned up still succeeds.
func (s *FileStore) Remove(owner, filename string) error {
	path, err := s.path(owner, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file failed: %w", err)
	}
	return nil
}

// path rejects names that would escape the owner's directory.
func (s *FileStore) path(owner, filename string) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("file store: owner is required")
	}
	clean := filepath.Base(filename)
	if clean == "" || clean == "." || clean == ".." || clean != filename {
		return "", fmt.Errorf("file store: invalid filename %q", filename)
	}
	return filepath.Join(s.root, owner, clean), nil
}
