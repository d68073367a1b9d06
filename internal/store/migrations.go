package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration is one forward step of the database schema.
type Migration struct {
	Version     int
	Description string
	Up          string
}

// migrations are applied in order; each runs in its own transaction.
var migrations = []Migration{
	{
		Version:     1,
		Description: "shortcuts table",
		Up: `
CREATE TABLE IF NOT EXISTS shortcuts (
    trigger_key  TEXT PRIMARY KEY,
    trigger      TEXT NOT NULL,
    replacement  TEXT NOT NULL,
    enabled      INTEGER NOT NULL DEFAULT 1,
    method       TEXT NOT NULL DEFAULT 'all',
    condition    TEXT NOT NULL DEFAULT 'word_boundary',
    case_mode    TEXT NOT NULL DEFAULT 'match',
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "length-bucketed foreign word list",
		Up: `
CREATE TABLE IF NOT EXISTS foreign_words (
    word      TEXT PRIMARY KEY,
    length    INTEGER NOT NULL,
    source    TEXT NOT NULL DEFAULT '',
    added_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_foreign_words_length ON foreign_words(length, word);
`,
	},
}

// SchemaVersion is the version a fully migrated database reports.
func SchemaVersion() int { return migrations[len(migrations)-1].Version }

// MigrateDB applies all pending migrations.
func MigrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			applied_at  INTEGER NOT NULL,
			description TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
			m.Version, time.Now().UnixNano(), m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func currentVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	return v, nil
}

// ValidateSchema checks that all expected tables exist.
func ValidateSchema(db *sql.DB) error {
	for _, table := range []string{"shortcuts", "foreign_words", "schema_migrations"} {
		var count int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("missing required table: %s", table)
		}
	}
	return nil
}
