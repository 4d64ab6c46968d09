// Package migrations holds the bot's SQLite schema (tasks, deliveries,
// users) as embedded goose migrations.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS embeds the versioned schema files.
//
//go:embed *.sql
var FS embed.FS

// Run brings the schema up to date. The storage layer calls it when the
// database is opened; cmd/migrate exposes the full goose command set.
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
