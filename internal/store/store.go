package store

import (
	"context"
	"fmt"

	"github.com/arjunv/actorlink/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store loads and saves GatewayManager's live-set seed.
type Store interface {
	LoadSeed(ctx context.Context) ([]model.GatewayURI, error)
	SaveSeed(ctx context.Context, uris []model.GatewayURI) error
	Close()
}

// NoopStore is used when no seed-cache database is configured; loads
// always return an empty seed and saves are dropped.
type NoopStore struct{}

func (NoopStore) LoadSeed(ctx context.Context) ([]model.GatewayURI, error) { return nil, nil }
func (NoopStore) SaveSeed(ctx context.Context, uris []model.GatewayURI) error { return nil }
func (NoopStore) Close()                                                     {}

// PostgresStore persists the seed as rows in a gateway_seed table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the seed-cache database and ensures the
// backing table exists.
func NewPostgresStore(ctx context.Context, cfg DBConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS gateway_seed (
			uri TEXT PRIMARY KEY,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LoadSeed returns every URI currently cached.
func (s *PostgresStore) LoadSeed(ctx context.Context) ([]model.GatewayURI, error) {
	rows, err := s.pool.Query(ctx, `SELECT uri FROM gateway_seed`)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	defer rows.Close()

	var uris []model.GatewayURI
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("scan seed row: %w", err)
		}
		uris = append(uris, model.GatewayURI(uri))
	}
	return uris, rows.Err()
}

// SaveSeed replaces the cached seed with uris.
func (s *PostgresStore) SaveSeed(ctx context.Context, uris []model.GatewayURI) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM gateway_seed`); err != nil {
		return fmt.Errorf("clear seed: %w", err)
	}

	for _, uri := range uris {
		if _, err := tx.Exec(ctx, `INSERT INTO gateway_seed (uri) VALUES ($1) ON CONFLICT DO NOTHING`, string(uri)); err != nil {
			return fmt.Errorf("insert seed %s: %w", uri, err)
		}
	}

	return tx.Commit(ctx)
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
