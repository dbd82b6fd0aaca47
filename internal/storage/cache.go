package storage

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// CachedStore fronts a Store with an adaptive replacement cache. Writes go
// through to the backend before the cache is updated.
//
// A miss reads the backend and fills the cache under a read lock; writes hold
// the write lock, so a fill can never carry a value a later write replaced.
type CachedStore struct {
	Store
	cache *lru.ARCCache
	mu    sync.RWMutex
}

// WithCache wraps store in an ARC cache of size entries; size <= 0 returns
// store unchanged.
func WithCache(store Store, size int) (Store, error) {
	if size <= 0 {
		return store, nil
	}
	arc, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &CachedStore{Store: store, cache: arc}, nil
}

// Get implements Store
func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := s.cache.Get(key); ok {
		return clone(v.([]byte)), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	value, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, clone(value))
	return value, nil
}

// Set implements Store
func (s *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Store.Set(ctx, key, value); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, clone(value))
	return nil
}

// Delete implements Store
func (s *CachedStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(key)
	return s.Store.Delete(ctx, key)
}

// Cached returns the number of cached entries
func (s *CachedStore) Cached() int {
	return s.cache.Len()
}

// Close implements Store
func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.Store.Close()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
