// Package store persists the shortcut table and the foreign word list in
// SQLite. The engine never touches the database: frontends load from it at
// start and the CLI edits it.
package store

// Stats summarizes the database contents.
type Stats struct {
	SchemaVersion int
	Shortcuts     int
	ForeignWords  int
	// WordsByLength counts foreign words per length bucket.
	WordsByLength map[int]int
}
