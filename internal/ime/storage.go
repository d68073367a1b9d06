package ime

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vietime/internal/config"
	"vietime/internal/oracle"
	"vietime/internal/shortcut"
	"vietime/internal/store"
)

// Sources is what new engines are seeded with: the merged shortcut table
// and the foreign word list, read once from every configured origin.
type Sources struct {
	Shortcuts *shortcut.Table
	Words     *oracle.WordList
	// Phonotactic puts the built-in English cluster rules ahead of the
	// word list.
	Phonotactic bool
	Report      SourceReport
}

// SourceReport counts what each origin contributed.
type SourceReport struct {
	Defaults      int
	FileShortcuts int
	DBShortcuts   int
	CfgShortcuts  int
	FileWords     int
	DBWords       int
	CfgWords      int

	// Rejected holds one error per entry that could not be added.
	Rejected []error
}

// LoadSources reads shortcuts and foreign words from the origins enabled in
// cfg. Later origins cannot overwrite earlier entries: the database comes
// first, then the JSON file, then the config file, then the defaults. db
// may be nil. Per-entry problems are collected in the report; only
// unreadable files and database failures are returned as errors.
func LoadSources(cfg *config.Config, db *store.Store) (*Sources, error) {
	src := &Sources{
		Shortcuts:   shortcut.NewTable(),
		Words:       oracle.NewWordList(),
		Phonotactic: cfg.Foreign.Phonotactic,
	}
	rep := &src.Report

	if cfg.Shortcuts.UseDatabase && db != nil {
		n, err := db.FillTable(src.Shortcuts)
		rep.DBShortcuts = n
		if err != nil {
			rep.Rejected = append(rep.Rejected, err)
		}
	}
	if cfg.Shortcuts.File != "" {
		n, rejected, err := ImportShortcutsFile(src.Shortcuts, cfg.Shortcuts.File)
		if err != nil {
			return nil, err
		}
		rep.FileShortcuts = n
		rep.Rejected = append(rep.Rejected, rejected...)
	}
	for trigger, replacement := range cfg.Shortcuts.Entries {
		if err := src.Shortcuts.Add(shortcut.New(trigger, replacement)); err != nil {
			rep.Rejected = append(rep.Rejected, fmt.Errorf("config shortcut %q: %w", trigger, err))
			continue
		}
		rep.CfgShortcuts++
	}
	if cfg.Shortcuts.LoadDefaults {
		for _, s := range shortcut.Defaults() {
			if src.Shortcuts.Add(s) == nil {
				rep.Defaults++
			}
		}
	}

	if cfg.Foreign.UseDatabase && db != nil {
		wl, err := db.LoadWordList()
		if err != nil {
			return nil, fmt.Errorf("load foreign words: %w", err)
		}
		rep.DBWords = mergeWords(src.Words, wl)
	}
	if cfg.Foreign.WordList != "" {
		n, err := readWordFile(src.Words, cfg.Foreign.WordList)
		if err != nil {
			return nil, err
		}
		rep.FileWords = n
	}
	for _, w := range cfg.Foreign.Words {
		if src.Words.Add(w) {
			rep.CfgWords++
		}
	}
	return src, nil
}

func mergeWords(dst, src *oracle.WordList) int {
	added := 0
	for n := 1; n <= oracle.MaxWordLen; n++ {
		for _, w := range src.Words(n) {
			if dst.Add(w) {
				added++
			}
		}
	}
	return added
}

func readWordFile(wl *oracle.WordList, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	before := wl.Len()
	if _, err := wl.ReadFrom(f); err != nil {
		return 0, fmt.Errorf("read word list %s: %w", path, err)
	}
	return wl.Len() - before, nil
}

// Seed copies the shortcuts into e and installs Oracle.
func (s *Sources) Seed(e *Engine) {
	if s.Shortcuts != nil {
		for _, sc := range s.Shortcuts.All() {
			_ = e.AddShortcutEntry(sc)
		}
	}
	e.SetOracle(s.Oracle())
}

// Oracle chains the phonotactic rules, when enabled, ahead of the word
// list. It is nil when neither has anything to say.
func (s *Sources) Oracle() oracle.Oracle {
	var chain oracle.Chain
	if s.Phonotactic {
		chain = append(chain, oracle.Phonotactic{})
	}
	if s.Words.Len() > 0 {
		chain = append(chain, s.Words)
	}
	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	}
	return chain
}

// ImportShortcutsFile adds the entries of a JSON export to t. It returns
// how many were added and one error per rejected entry.
func ImportShortcutsFile(t *shortcut.Table, path string) (int, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read shortcuts file: %w", err)
	}
	report, err := t.ImportJSON(data)
	if err != nil {
		return 0, nil, fmt.Errorf("import %s: %w", path, err)
	}
	var rejected []error
	for _, r := range report.Rejected {
		rejected = append(rejected, fmt.Errorf("%s entry %d %q: %s", filepath.Base(path), r.Index, r.Trigger, r.Reason))
	}
	return report.Added, rejected, nil
}

// SaveShortcutsFile writes t as a JSON export. The file is replaced
// atomically so a reader never sees a partial table.
func SaveShortcutsFile(t *shortcut.Table, path string) error {
	if t == nil {
		return errors.New("nil shortcut table")
	}
	data, err := t.ExportJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
