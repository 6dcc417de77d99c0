package bookmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string {
	return "file"
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the zero bookmark when the file does not exist.
func (s *FileStore) Load(_ context.Context) (Bookmark, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read bookmark file: %w", err)
	}
	return Bookmark(strings.TrimSpace(string(raw))), nil
}

func (s *FileStore) Save(_ context.Context, b Bookmark) error {
	if err := os.WriteFile(s.path, []byte(b), 0o600); err != nil {
		return fmt.Errorf("write bookmark file: %w", err)
	}
	return nil
}
