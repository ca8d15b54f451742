package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

func init() {
	register("sqlite", engine{
		driver: "sqlite3",
		dsn:    sqliteDSN,
		// a single writer; in-memory databases are per connection
		maxOpen: 1,
		setup: func(ctx context.Context, db *sql.DB) error {
			if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
				return fmt.Errorf("failed to enable foreign keys: %w", err)
			}
			return nil
		},
	})
}

func sqliteDSN(url string) (string, error) {
	url = strings.TrimPrefix(url, "sqlite://")
	url = strings.TrimPrefix(url, "sqlite:")
	if url == "" {
		url = ":memory:"
	}
	return url, nil
}
