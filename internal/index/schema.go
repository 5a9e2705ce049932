// Package index provides a SQLite index over merged calendar days for
// fast point and filter queries.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS days (
	solar_date    TEXT PRIMARY KEY,
	month_key     TEXT NOT NULL,
	lunar_date    TEXT NOT NULL DEFAULT '',
	can_chi_day   TEXT NOT NULL DEFAULT '',
	is_good_day   INTEGER,
	solar_holiday TEXT NOT NULL DEFAULT '',
	lunar_holiday TEXT NOT NULL DEFAULT '',
	sources       TEXT NOT NULL DEFAULT '',
	record        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_days_month ON days(month_key);
CREATE INDEX IF NOT EXISTS idx_days_verdict ON days(month_key, is_good_day);
CREATE INDEX IF NOT EXISTS idx_days_holiday ON days(solar_holiday);

CREATE TABLE IF NOT EXISTS months (
	month_key TEXT PRIMARY KEY,
	checksum  TEXT NOT NULL DEFAULT ''
);
`

// DB wraps a sql.DB with day-index operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
