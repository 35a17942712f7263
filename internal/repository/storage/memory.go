// Package storage provides the key/value backends that persist carts.
package storage

import (
	"context"

	cacheinfra "storefront/internal/infrastructure/cache"
	"storefront/pkg/cache"
)

// MemoryStore keeps values in process memory. Entries never expire.
type MemoryStore struct {
	c cache.CacheService
}

func NewMemoryStore() *MemoryStore {
	// cleanup interval 0 disables the janitor goroutine
	return &MemoryStore{c: cacheinfra.NewMemoryCache(cache.NoExpiration, 0)}
}

func (s *MemoryStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := s.c.Get(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *MemoryStore) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.c.Delete(key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
