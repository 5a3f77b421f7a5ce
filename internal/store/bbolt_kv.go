package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSecrets = []byte("secrets")

type BboltKV struct {
	db *bolt.DB
}

func NewBboltKV(path string) (*BboltKV, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("storage db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSecrets)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltKV{db: db}, nil
}

func (s *BboltKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSecrets)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		value = string(raw)
		ok = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (s *BboltKV) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSecrets)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
}

func (s *BboltKV) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSecrets)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *BboltKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
