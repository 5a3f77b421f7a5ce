package store

import (
	"context"
	"fmt"
	"strings"
)

const (
	BackendFile   = "file"
	BackendBbolt  = "bbolt"
	BackendSQLite = "sqlite"
)

// KV is the secure-storage contract the account store persists through: a
// flat string map where a missing key is distinct from an empty value.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Paths names the on-disk location for each backend.
type Paths struct {
	File   string
	Bbolt  string
	SQLite string
}

// Open returns the KV for backend. An empty backend means BackendFile.
func Open(backend string, paths Paths) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileKV(paths.File)
	case BackendBbolt:
		return NewBboltKV(paths.Bbolt)
	case BackendSQLite:
		return NewSQLiteKV(paths.SQLite)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}
	return nil
}
