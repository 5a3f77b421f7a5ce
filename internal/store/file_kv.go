package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
)

// FileKV keeps every key in one JSON object file.
type FileKV struct {
	path string
	mu   sync.Mutex
}

func NewFileKV(path string) (*FileKV, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("storage file path is required")
	}
	return &FileKV{path: path}, nil
}

func (s *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (s *FileKV) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return writeJSONAtomic(s.path, values)
}

func (s *FileKV) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return writeJSONAtomic(s.path, values)
}

func (s *FileKV) Close() error {
	return nil
}

func (s *FileKV) load() (map[string]string, error) {
	values := map[string]string{}
	if err := readJSON(s.path, &values); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}
