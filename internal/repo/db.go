package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return pool, nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS archives (
  id TEXT PRIMARY KEY,
  symbols BIGINT NOT NULL,
  data BYTEA NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`)
	return err
}

type archiveRepoPostgres struct {
	pool *pgxpool.Pool
}

func NewArchiveRepoPostgres(pool *pgxpool.Pool) ArchiveRepo {
	return &archiveRepoPostgres{pool: pool}
}

func (r *archiveRepoPostgres) Save(ctx context.Context, rec *Record) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO archives (id, symbols, data, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`,
		rec.ID, int64(rec.Symbols), rec.Data, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert archive %s: %w", rec.ID, err)
	}
	return nil
}

func (r *archiveRepoPostgres) FindByID(ctx context.Context, id string) (*Record, error) {
	var (
		rec     Record
		symbols int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, symbols, data, created_at FROM archives WHERE id = $1`, id,
	).Scan(&rec.ID, &symbols, &rec.Data, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select archive %s: %w", id, err)
	}
	rec.Symbols = uint64(symbols)
	return &rec, nil
}
