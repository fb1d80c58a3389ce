package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the schema. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Column additions are re-run on every open.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// One JSON body per document key, replaced wholesale on save.
	`CREATE TABLE IF NOT EXISTS documents (
		key        TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`ALTER TABLE documents ADD COLUMN revision INTEGER NOT NULL DEFAULT 0`,

	// Previous bodies, kept so an accidental import can be rolled back.
	`CREATE TABLE IF NOT EXISTS document_history (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		key         TEXT NOT NULL,
		revision    INTEGER NOT NULL,
		body        TEXT NOT NULL,
		replaced_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_document_history_key ON document_history(key, revision)`,
}
