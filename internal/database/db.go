package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/complaints-admin-portal/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, err
	}

	// Session rows are tiny and short lived; a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DSN builds the driver connection string. parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps stored times consistent.
func DSN(cfg config.DBConfig) string {
	auth := cfg.User
	if cfg.Pass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.User, cfg.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.Host, cfg.Port, cfg.Name)
}

const sessionSchema = `CREATE TABLE IF NOT EXISTS portal_session_values (
  session_id VARCHAR(64) NOT NULL,
  name       VARCHAR(64) NOT NULL,
  value      TEXT        NOT NULL,
  updated_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (session_id, name),
  KEY idx_portal_session_updated (updated_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSessionSchema creates the session value table when it is missing.
func EnsureSessionSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sessionSchema); err != nil {
		return fmt.Errorf("create portal_session_values: %w", err)
	}
	return nil
}

// PurgeStaleSessions deletes session rows that have not been written for
// longer than ttl. It returns the number of removed rows.
func PurgeStaleSessions(ctx context.Context, db *sql.DB, ttl time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM portal_session_values WHERE updated_at < ?",
		time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
