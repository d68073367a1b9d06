package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vietime/internal/oracle"
	"vietime/internal/shortcut"
)

// ErrNotFound is returned when a deleted row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the SQLite database of shortcuts and foreign words.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and migrates it.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes
	// writers from the CLI and the IBus server.
	db.SetMaxOpenConns(1)

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func triggerKey(trigger string) string {
	return strings.ToLower(strings.TrimSpace(trigger))
}

// SaveShortcut inserts or replaces the shortcut for sc.Trigger.
func (s *Store) SaveShortcut(sc shortcut.Shortcut) error {
	if strings.TrimSpace(sc.Trigger) == "" {
		return shortcut.ErrEmptyTrigger
	}
	now := time.Now().UnixNano()
	_, err := s.db.Exec(`
		INSERT INTO shortcuts (trigger_key, trigger, replacement, enabled, method, condition, case_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trigger_key) DO UPDATE SET
			trigger = excluded.trigger,
			replacement = excluded.replacement,
			enabled = excluded.enabled,
			method = excluded.method,
			condition = excluded.condition,
			case_mode = excluded.case_mode,
			updated_at = excluded.updated_at`,
		triggerKey(sc.Trigger), strings.TrimSpace(sc.Trigger), sc.Replacement, sc.Enabled,
		sc.Method.String(), sc.Condition.String(), sc.CaseMode.String(), now, now,
	)
	if err != nil {
		return fmt.Errorf("save shortcut: %w", err)
	}
	return nil
}

// DeleteShortcut removes the shortcut for trigger.
func (s *Store) DeleteShortcut(trigger string) error {
	res, err := s.db.Exec("DELETE FROM shortcuts WHERE trigger_key = ?", triggerKey(trigger))
	if err != nil {
		return fmt.Errorf("delete shortcut: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shortcut: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: shortcut %q", ErrNotFound, trigger)
	}
	return nil
}

// ClearShortcuts removes every shortcut.
func (s *Store) ClearShortcuts() error {
	if _, err := s.db.Exec("DELETE FROM shortcuts"); err != nil {
		return fmt.Errorf("clear shortcuts: %w", err)
	}
	return nil
}

// LoadShortcuts returns the stored shortcuts in creation order.
func (s *Store) LoadShortcuts() ([]shortcut.Shortcut, error) {
	rows, err := s.db.Query(`
		SELECT trigger, replacement, enabled, method, condition, case_mode
		FROM shortcuts ORDER BY created_at, trigger_key`)
	if err != nil {
		return nil, fmt.Errorf("query shortcuts: %w", err)
	}
	defer rows.Close()

	var out []shortcut.Shortcut
	for rows.Next() {
		var sc shortcut.Shortcut
		var method, cond, caseMode string
		if err := rows.Scan(&sc.Trigger, &sc.Replacement, &sc.Enabled, &method, &cond, &caseMode); err != nil {
			return nil, fmt.Errorf("scan shortcut: %w", err)
		}
		if err := errors.Join(
			sc.Method.UnmarshalText([]byte(method)),
			sc.Condition.UnmarshalText([]byte(cond)),
			sc.CaseMode.UnmarshalText([]byte(caseMode)),
		); err != nil {
			return nil, fmt.Errorf("shortcut %q: %w", sc.Trigger, err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// FillTable adds the stored shortcuts to t. Entries the table rejects are
// skipped and reported in the returned error.
func (s *Store) FillTable(t *shortcut.Table) (int, error) {
	entries, err := s.LoadShortcuts()
	if err != nil {
		return 0, err
	}
	added := 0
	var errs []error
	for _, sc := range entries {
		if err := t.Add(sc); err != nil {
			errs = append(errs, err)
			continue
		}
		added++
	}
	return added, errors.Join(errs...)
}

// AddForeignWords stores words under source and returns how many were new.
// Words a WordList cannot hold are skipped.
func (s *Store) AddForeignWords(source string, words ...string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO foreign_words (word, length, source, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(word) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	added := 0
	for _, w := range words {
		w, ok := oracle.Normalize(w)
		if !ok {
			continue
		}
		res, err := stmt.Exec(w, len(w), source, now)
		if err != nil {
			return 0, fmt.Errorf("insert word: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return added, nil
}

// RemoveForeignWord deletes word.
func (s *Store) RemoveForeignWord(word string) error {
	res, err := s.db.Exec("DELETE FROM foreign_words WHERE word = ?", strings.ToLower(strings.TrimSpace(word)))
	if err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: word %q", ErrNotFound, word)
	}
	return nil
}

// ForeignWordCount returns the number of stored words.
func (s *Store) ForeignWordCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM foreign_words").Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

// ForeignWordsByLength returns the words of length n in sorted order.
func (s *Store) ForeignWordsByLength(n int) ([]string, error) {
	rows, err := s.db.Query("SELECT word FROM foreign_words WHERE length = ? ORDER BY word", n)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// LoadWordList reads every stored word into a new oracle.
func (s *Store) LoadWordList() (*oracle.WordList, error) {
	rows, err := s.db.Query("SELECT word FROM foreign_words ORDER BY length, word")
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	wl := oracle.NewWordList()
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		wl.Add(w)
	}
	return wl, rows.Err()
}

// Stats summarizes the database.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{WordsByLength: make(map[int]int)}

	v, err := currentVersion(s.db)
	if err != nil {
		return nil, err
	}
	st.SchemaVersion = v

	if err := s.db.QueryRow("SELECT COUNT(*) FROM shortcuts").Scan(&st.Shortcuts); err != nil {
		return nil, fmt.Errorf("count shortcuts: %w", err)
	}

	rows, err := s.db.Query("SELECT length, COUNT(*) FROM foreign_words GROUP BY length")
	if err != nil {
		return nil, fmt.Errorf("count words: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var length, n int
		if err := rows.Scan(&length, &n); err != nil {
			return nil, fmt.Errorf("scan word count: %w", err)
		}
		st.WordsByLength[length] = n
		st.ForeignWords += n
	}
	return st, rows.Err()
}
