// Package storage is the opaque key-value persistence behind dashboard
// layouts. Values are raw bytes; encoding is the caller's concern.
//
// Backends:
//   - memory: buntdb with ":memory:" (nothing survives a restart)
//   - buntdb: buntdb file at a path, fsynced every second
//   - redis:  go-redis client, keys namespaced by a prefix
//
// Any backend can be fronted by an ARC cache (hashicorp/golang-lru).
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Get for missing keys
var ErrNotFound = errors.New("key not found")

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is a byte-valued key-value store. Implementations are safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// Keys returns every key starting with prefix, sorted ascending
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend names
const (
	BackendMemory = "memory"
	BackendBunt   = "buntdb"
	BackendRedis  = "redis"
)

// Config selects and configures a backend
type Config struct {
	Backend   string
	Path      string
	CacheSize int
	Redis     RedisOptions
}

// Open creates the configured store, wrapped in a cache when CacheSize > 0
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		store, err = OpenBunt(MemoryPath)
	case BackendBunt:
		store, err = OpenBunt(cfg.Path)
	case BackendRedis:
		store, err = OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}

	cached, err := WithCache(store, cfg.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("Storage opened",
		zap.String("backend", cfg.Backend),
		zap.String("path", cfg.Path),
		zap.Int("cache_size", cfg.CacheSize))
	return cached, nil
}
