package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the full key space as a single JSON document on disk,
// written with 0600 permissions. All operations serialize on one mutex, which
// is what gives Update its read-modify-write atomicity: a POS terminal is a
// single installation, not a distributed system.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a file-backed store at path. The parent directory is
// created if missing. An unreadable or corrupt store file is not fatal here;
// individual reads surface decode problems so callers can fail safe.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{path: path, logger: logger.With(slog.String("component", "filestore"))}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.Update(ctx, key, func(string, bool) (string, error) {
		return value, nil
	})
}

func (s *FileStore) Update(ctx context.Context, key string, fn func(current string, absent bool) (string, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	current, ok := data[key]
	next, err := fn(current, !ok)
	if err != nil {
		return err
	}
	data[key] = next
	return s.save(data)
}

// load reads the backing file under the lock. A missing file is an empty
// store; a file that fails to parse is reported, not silently truncated.
func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn("store file is not valid JSON",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	return data, nil
}

func (s *FileStore) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
