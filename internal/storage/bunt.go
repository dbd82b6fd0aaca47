package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/buntdb"
)

// MemoryPath opens a buntdb database that lives only in memory
const MemoryPath = ":memory:"

// BuntStore persists keys in a buntdb database
type BuntStore struct {
	db *buntdb.DB
}

// OpenBunt opens (or creates) the database at path. The parent directory is
// created when missing.
func OpenBunt(path string) (*BuntStore, error) {
	if path == "" {
		return nil, errors.New("buntdb path is required")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntStore{db: db}, nil
}

// Get implements Store
func (s *BuntStore) Get(_ context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Set implements Store
func (s *BuntStore) Set(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(value), nil)
		return err
	})
}

// Delete implements Store
func (s *BuntStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	return err
}

// Keys implements Store
func (s *BuntStore) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(key, _ string) bool {
			keys = append(keys, key)
			return true
		})
	})
	return keys, err
}

// Close implements Store
func (s *BuntStore) Close() error {
	return s.db.Close()
}
