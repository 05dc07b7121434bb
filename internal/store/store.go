// Package store keeps an optional log of served predictions in Postgres.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id         UUID PRIMARY KEY,
	original   TEXT NOT NULL,
	corrected  TEXT NOT NULL,
	raw_label  TEXT NOT NULL,
	label      TEXT NOT NULL,
	rule       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertPrediction = `
INSERT INTO predictions (id, original, corrected, raw_label, label, rule, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Record is one row of the prediction log.
type Record struct {
	ID        uuid.UUID
	Original  string
	Corrected string
	RawLabel  string
	Label     string
	Rule      string
	CreatedAt time.Time
}

// execer is the part of *pgxpool.Pool the store uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Store writes prediction records.
type Store struct {
	db  execer
	now func() time.Time
}

// New wraps an open connection.
func New(db execer) *Store {
	return &Store{db: db, now: time.Now}
}

// Connect opens a pool for url, pings it and ensures the schema exists.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, *Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, s, nil
}

// Migrate creates the predictions table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate predictions: %w", err)
	}
	return nil
}

// Save inserts r, filling ID and CreatedAt when zero.
func (s *Store) Save(ctx context.Context, r Record) (Record, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	_, err := s.db.Exec(ctx, insertPrediction,
		r.ID, r.Original, r.Corrected, r.RawLabel, r.Label, r.Rule, r.CreatedAt)
	if err != nil {
		return r, fmt.Errorf("insert prediction: %w", err)
	}
	return r, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
