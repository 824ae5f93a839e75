// Package database owns the Postgres connection pool shared by the stores.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB holds the pgx pool and hands it out to the repositories.
type DB struct {
	pool *pgxpool.Pool
}

// New opens a pool against databaseURL and verifies it with a ping before
// returning, so a bad URL fails at startup rather than on first query.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close releases the pool and its connections.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping reports whether the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Pool returns the underlying pgxpool.Pool for store use.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}
