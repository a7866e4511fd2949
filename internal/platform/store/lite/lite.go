// Package lite opens an embedded sqlite database through modernc.org/sqlite
package lite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// Config configures the sqlite handle
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// DSN builds a modernc DSN with busy timeout and foreign keys enabled
func DSN(cfg Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	bt := cfg.BusyTimeout
	if bt <= 0 {
		bt = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", bt.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return path + "?" + q.Encode()
}

var sqlOpen = sql.Open

// Open opens and pings the database
// a single connection serializes writers and keeps :memory: databases shared
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sqlOpen("sqlite", DSN(cfg))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}
