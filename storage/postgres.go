package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore is the self-hosted alternative to Airtable. The natural
// key is materialized as its own column with a unique index, so inserts
// are idempotent at the database level as well as through the sync
// engine's existence check.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs schema migration, and returns
// a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS deals (
			id          SERIAL PRIMARY KEY,
			natural_key TEXT        UNIQUE NOT NULL,
			source      VARCHAR(50) NOT NULL,
			title       TEXT        NOT NULL,
			url         TEXT        NOT NULL DEFAULT '',
			price       TEXT        NOT NULL DEFAULT '',
			location    TEXT        NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_deals_source   ON deals(source);
		CREATE INDEX IF NOT EXISTS idx_deals_location ON deals(location);
	`)
	return err
}

// Insert stores one record, deriving the natural key from the fields the
// sync engine attached. Conflicting keys are dropped silently; the sync
// engine's pre-check makes that path rare.
func (ps *PostgresStore) Insert(ctx context.Context, fields map[string]string) error {
	key := NaturalKey{URL: fields["URL"], Source: fields["Source"], Title: fields["Title"]}
	if key.URL != "" {
		key = NaturalKey{URL: key.URL}
	}

	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO deals (natural_key, source, title, url, price, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (natural_key) DO NOTHING
	`, key.String(), fields["Source"], fields["Title"], fields["URL"], fields["Price"], fields["Location"])
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	return nil
}

// Exists answers the sync engine's idempotency pre-check.
func (ps *PostgresStore) Exists(ctx context.Context, key NaturalKey) (bool, error) {
	var exists bool
	err := ps.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM deals WHERE natural_key = $1)`,
		key.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: exists: %w", err)
	}
	return exists, nil
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
