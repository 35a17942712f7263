package storage

import (
	"context"
	"errors"
	"fmt"

	"storefront/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by PostgresStore; *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createStorageTable = `CREATE TABLE IF NOT EXISTS storefront_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectItem = `SELECT value FROM storefront_storage WHERE key = $1`
	upsertItem = `INSERT INTO storefront_storage (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteItem = `DELETE FROM storefront_storage WHERE key = $1`
)

// PostgresStore keeps one row per storage key.
type PostgresStore struct {
	db    DBTX
	close func()
}

// NewPgxPool creates a new pgx connection pool
func NewPgxPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// NewPostgresStore ensures the storage table exists. closeFn may be nil.
func NewPostgresStore(ctx context.Context, db DBTX, closeFn func()) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, createStorageTable); err != nil {
		return nil, fmt.Errorf("create storage table: %w", err)
	}
	return &PostgresStore{db: db, close: closeFn}, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, selectItem, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) SetItem(ctx context.Context, key, value string) error {
	if _, err := s.db.Exec(ctx, upsertItem, key, value); err != nil {
		return fmt.Errorf("set item %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, deleteItem, key); err != nil {
		return fmt.Errorf("remove item %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
