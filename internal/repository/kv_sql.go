package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

const kvUpsert = `INSERT INTO kv_store (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

type kvEntry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SQLStore persists values in a kv_store table on Postgres or SQLite.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore constructs the store. Call EnsureSchema before first use.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the kv_store table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

// Get fetches a value by key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := s.db.Rebind(`SELECT value FROM kv_store WHERE key = ?`)
	var value string
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("get kv %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts a value.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	entry := kvEntry{Key: key, Value: string(value), UpdatedAt: s.now()}
	if _, err := s.db.NamedExecContext(ctx, kvUpsert, entry); err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM kv_store WHERE key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
