package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// MySQLSessionStore persists values in the portal_session_values table
// (one row per session id and key).  See database.EnsureSessionSchema.
type MySQLSessionStore struct{ DB *sql.DB }

func NewMySQLSessionStore(db *sql.DB) *MySQLSessionStore { return &MySQLSessionStore{DB: db} }

// Get returns the stored value or ErrNotFound.
func (r *MySQLSessionStore) Get(ctx context.Context, sid, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT value FROM portal_session_values WHERE session_id=? AND name=? LIMIT 1",
		sid, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

// Set upserts the row.
func (r *MySQLSessionStore) Set(ctx context.Context, sid, key, value string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO portal_session_values (session_id, name, value) VALUES (?,?,?) ON DUPLICATE KEY UPDATE value=VALUES(value), updated_at=NOW()",
		sid, key, value)
	return err
}

// Delete removes all given keys with one statement so token and user vanish together.
func (r *MySQLSessionStore) Delete(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, sid)
	for _, k := range keys {
		args = append(args, k)
	}
	q := "DELETE FROM portal_session_values WHERE session_id=? AND name IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",") + ")"
	_, err := r.DB.ExecContext(ctx, q, args...)
	return err
}
