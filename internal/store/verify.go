package store

import (
	"fmt"
	"strings"
)

// Verify runs SQLite's integrity check and confirms the schema is complete
// and fully migrated.
func (s *Store) Verify() error {
	rows, err := s.db.Query("PRAGMA integrity_check")
	if err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return fmt.Errorf("scan integrity result: %w", err)
		}
		if msg != "ok" {
			problems = append(problems, msg)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("database corrupt: %s", strings.Join(problems, "; "))
	}

	if err := ValidateSchema(s.db); err != nil {
		return err
	}
	v, err := currentVersion(s.db)
	if err != nil {
		return err
	}
	if v != SchemaVersion() {
		return fmt.Errorf("schema version %d, want %d", v, SchemaVersion())
	}

	var bad int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM foreign_words WHERE length != LENGTH(word)").Scan(&bad); err != nil {
		return fmt.Errorf("check word lengths: %w", err)
	}
	if bad > 0 {
		return fmt.Errorf("%d foreign words filed under the wrong length", bad)
	}
	return nil
}
