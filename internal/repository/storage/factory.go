package storage

import (
	"context"
	"fmt"
	"time"

	"storefront/config"
	"storefront/internal/domain"
	"storefront/pkg/logger"
)

// Store is a KeyValueStore that owns resources.
type Store interface {
	domain.KeyValueStore
	Close() error
}

// NewStore opens the backend selected by cfg.StorageDriver.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.StorageDriver {
	case "", "memory":
		s = NewMemoryStore()
	case "file":
		s, err = NewFileStore(cfg.StorageFile)
	case "postgres":
		pool, perr := NewPgxPool(ctx, cfg)
		if perr != nil {
			return nil, perr
		}
		s, err = NewPostgresStore(ctx, pool, pool.Close)
		if err != nil {
			pool.Close()
		}
	case "s3":
		client, cerr := NewS3Client(ctx, cfg)
		if cerr != nil {
			return nil, cerr
		}
		s = NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix, cfg.StorageTimeout)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(cfg.StorageDriver, s), nil
}

type instrumented struct {
	driver string
	next   Store
}

// Instrument logs the timing of every storage call. Failures surface at warn.
func Instrument(driver string, s Store) Store {
	if driver == "" {
		driver = "memory"
	}
	return &instrumented{driver: driver, next: s}
}

func (i *instrumented) GetItem(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := i.next.GetItem(ctx, key)
	logger.StorageOp(i.driver, "get", key, time.Since(start), err)
	return v, ok, err
}

func (i *instrumented) SetItem(ctx context.Context, key, value string) error {
	start := time.Now()
	err := i.next.SetItem(ctx, key, value)
	logger.StorageOp(i.driver, "set", key, time.Since(start), err)
	return err
}

func (i *instrumented) RemoveItem(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.RemoveItem(ctx, key)
	logger.StorageOp(i.driver, "remove", key, time.Since(start), err)
	return err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
