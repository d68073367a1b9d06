// Package shortcut implements the bounded abbreviation table consulted by
// the engine when a word is committed (or, for immediate entries, as soon
// as the typed word equals a trigger).
package shortcut

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"vietime/internal/keys"
)

// Bounds.
const (
	MaxEntries        = 200
	MaxTriggerLen     = 32
	MaxReplacementLen = 63
)

var (
	ErrEmptyTrigger   = errors.New("shortcut: empty trigger")
	ErrInvalidTrigger = errors.New("shortcut: trigger must be a single word of at most 32 characters")
	ErrDuplicate      = errors.New("shortcut: duplicate trigger")
	ErrTableFull      = errors.New("shortcut: table full")
	ErrNotFound       = errors.New("shortcut: trigger not found")
)

// Method restricts an entry to one input scheme.
type Method uint8

const (
	MethodAll Method = iota
	MethodTelex
	MethodVNI
)

var methodNames = [...]string{"all", "telex", "vni"}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(b []byte) error {
	i, err := lookupName(methodNames[:], string(b), "method")
	*m = Method(i)
	return err
}

// Allows reports whether the entry applies under scheme s.
func (m Method) Allows(s keys.Scheme) bool {
	switch m {
	case MethodTelex:
		return s == keys.Telex
	case MethodVNI:
		return s == keys.VNI
	}
	return true
}

// Condition says when an entry expands.
type Condition uint8

const (
	// WordBoundary expands when the word is committed with space or punctuation.
	WordBoundary Condition = iota
	// Immediate expands as soon as the typed word equals the trigger.
	Immediate
)

var conditionNames = [...]string{"word_boundary", "immediate"}

func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c Condition) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Condition) UnmarshalText(b []byte) error {
	i, err := lookupName(conditionNames[:], string(b), "condition")
	*c = Condition(i)
	return err
}

// CaseMode controls how the case of the typed word carries over.
type CaseMode uint8

const (
	// CaseMatch matches triggers case-insensitively and mirrors an
	// all-caps or capitalized trigger onto the replacement.
	CaseMatch CaseMode = iota
	// CaseExact only matches the trigger as written.
	CaseExact
)

var caseNames = [...]string{"match", "exact"}

func (c CaseMode) String() string {
	if int(c) < len(caseNames) {
		return caseNames[c]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c CaseMode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CaseMode) UnmarshalText(b []byte) error {
	i, err := lookupName(caseNames[:], string(b), "case mode")
	*c = CaseMode(i)
	return err
}

func lookupName(names []string, s, what string) (int, error) {
	if s == "" {
		return 0, nil
	}
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("shortcut: unknown %s %q", what, s)
}

// Shortcut is one table entry.
type Shortcut struct {
	Trigger     string    `json:"trigger" toml:"trigger" yaml:"trigger"`
	Replacement string    `json:"replacement" toml:"replacement" yaml:"replacement"`
	Enabled     bool      `json:"enabled" toml:"enabled" yaml:"enabled"`
	Method      Method    `json:"method" toml:"method" yaml:"method"`
	Condition   Condition `json:"condition" toml:"condition" yaml:"condition"`
	CaseMode    CaseMode  `json:"case_mode" toml:"case_mode" yaml:"case_mode"`
}

// New returns an enabled word-boundary entry for all schemes.
func New(trigger, replacement string) Shortcut {
	return Shortcut{Trigger: trigger, Replacement: replacement, Enabled: true}
}

// Table is a bounded, insertion-ordered set of shortcuts keyed by
// lowercased trigger. The zero value is an empty table ready for use.
// A Table is not safe for concurrent use.
type Table struct {
	entries []Shortcut
	index   map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table { return &Table{} }

func key(trigger string) string { return strings.ToLower(trigger) }

// normalizeEntry checks s and returns it with NFC trigger and replacement,
// the replacement truncated to MaxReplacementLen runes.
func normalizeEntry(s Shortcut) (Shortcut, error) {
	s.Trigger = norm.NFC.String(strings.TrimSpace(s.Trigger))
	if s.Trigger == "" {
		return s, ErrEmptyTrigger
	}
	if utf8.RuneCountInString(s.Trigger) > MaxTriggerLen || strings.IndexFunc(s.Trigger, unicode.IsSpace) >= 0 {
		return s, ErrInvalidTrigger
	}
	s.Replacement = norm.NFC.String(s.Replacement)
	if utf8.RuneCountInString(s.Replacement) > MaxReplacementLen {
		r := []rune(s.Replacement)
		s.Replacement = string(r[:MaxReplacementLen])
	}
	return s, nil
}

// Add inserts s. Empty, malformed and duplicate triggers are rejected, as
// is any insertion into a full table.
func (t *Table) Add(s Shortcut) error {
	s, err := normalizeEntry(s)
	if err != nil {
		return err
	}
	k := key(s.Trigger)
	if _, ok := t.index[k]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, s.Trigger)
	}
	if len(t.entries) >= MaxEntries {
		return ErrTableFull
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[k] = len(t.entries)
	t.entries = append(t.entries, s)
	return nil
}

// Remove deletes the entry for trigger.
func (t *Table) Remove(trigger string) error {
	k := key(norm.NFC.String(strings.TrimSpace(trigger)))
	i, ok := t.index[k]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, trigger)
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, k)
	for j := i; j < len(t.entries); j++ {
		t.index[key(t.entries[j].Trigger)] = j
	}
	return nil
}

// Clear removes every entry.
func (t *Table) Clear() {
	t.entries = nil
	t.index = nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Get returns the entry for trigger.
func (t *Table) Get(trigger string) (Shortcut, bool) {
	i, ok := t.index[key(norm.NFC.String(trigger))]
	if !ok {
		return Shortcut{}, false
	}
	return t.entries[i], true
}

// All returns a copy of the entries in insertion order.
func (t *Table) All() []Shortcut {
	out := make([]Shortcut, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup returns the expansion of word under scheme for entries with
// condition cond. The case of word is carried onto the replacement
// according to the entry's CaseMode.
func (t *Table) Lookup(word string, scheme keys.Scheme, cond Condition) (string, bool) {
	if len(t.entries) == 0 || word == "" {
		return "", false
	}
	i, ok := t.index[key(word)]
	if !ok {
		return "", false
	}
	s := t.entries[i]
	if !s.Enabled || s.Condition != cond || !s.Method.Allows(scheme) {
		return "", false
	}
	if word == s.Trigger {
		return s.Replacement, true
	}
	if s.CaseMode == CaseExact {
		return "", false
	}
	return applyCase(word, s.Replacement), true
}

func applyCase(word, replacement string) string {
	first, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(first) {
		return replacement
	}
	if utf8.RuneCountInString(word) > 1 && strings.ToUpper(word) == word {
		return strings.ToUpper(replacement)
	}
	r, n := utf8.DecodeRuneInString(replacement)
	if n == 0 {
		return replacement
	}
	return string(unicode.ToUpper(r)) + replacement[n:]
}

// Defaults returns a small set of common Vietnamese abbreviations.
func Defaults() []Shortcut {
	return []Shortcut{
		New("vn", "Việt Nam"),
		New("hcm", "Hồ Chí Minh"),
		New("hn", "Hà Nội"),
		New("dc", "được"),
		New("ko", "không"),
	}
}
