package versionstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// FileStore keeps the counter as a single decimal integer in a text file,
// the shape CI pipelines can cat and echo into.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Current(_ context.Context) (int, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("versionstore: couldn't read %s: %w", s.Path, err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 1 {
		// Malformed contents mean "first run", not a failure.
		return 1, nil
	}

	return n, nil
}

func (s *FileStore) Increment(ctx context.Context) (int, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}

	next := current + 1
	if err := os.WriteFile(s.Path, []byte(strconv.Itoa(next)+"\n"), 0o644); err != nil {
		return 0, fmt.Errorf("versionstore: couldn't persist %s: %w", s.Path, err)
	}

	return next, nil
}

func (s *FileStore) Close() error {
	return nil
}
