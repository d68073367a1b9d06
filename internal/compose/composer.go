// Package compose holds the per-word composition state machine: the
// composition buffer and its parallel raw keystroke log, the Telex/VNI
// transform rules, the foreign-word judgement, the committed-word history
// and the edit computation that tells a host how to update the screen.
//
// A Composer is single threaded. Every call runs to completion in a small
// bounded number of steps and never returns an error: illegal requests
// degrade to literal input.
package compose

import (
	"slices"

	"vietime/internal/keys"
	"vietime/internal/oracle"
	"vietime/internal/shortcut"
	"vietime/internal/syllable"
	"vietime/internal/viet"
)

// MaxBuffer is the longest word tracked. Keys typed beyond it pass
// through and the word is dropped from tracking.
const MaxBuffer = 64

// Options configures a Composer. Changing options never clears the word
// in progress; they apply from the next keystroke.
type Options struct {
	Scheme        keys.Scheme
	Style         syllable.Style
	FreeTone      bool
	EscRestore    bool
	AutoRestore   bool
	SkipWShortcut bool
	Form          viet.Form
}

// DefaultOptions returns Telex, modern tone style, NFC output, with ESC
// restore and auto-restore enabled.
func DefaultOptions() Options {
	return Options{
		Scheme:      keys.Telex,
		Style:       syllable.Modern,
		EscRestore:  true,
		AutoRestore: true,
		Form:        viet.FormNFC,
	}
}

// Composer is the composition state of one input context.
type Composer struct {
	opts Options

	buf []viet.Char
	raw []rawEntry

	foreign     bool
	transformed bool
	// armed is set after a commit so that an immediate backspace restores
	// the committed word.
	armed bool
	// boundary caches syllable.Boundary(buf) as of the last stable point.
	boundary  int
	replaying bool

	hist      History
	oracle    oracle.Oracle
	shortcuts *shortcut.Table
	observer  Observer
}

// New returns an empty Composer.
func New(opts Options) *Composer {
	return &Composer{
		opts: opts,
		buf:  make([]viet.Char, 0, MaxBuffer),
		raw:  make([]rawEntry, 0, MaxBuffer),
	}
}

// Options returns the current options.
func (c *Composer) Options() Options { return c.opts }

// SetOptions replaces the options without touching the word in progress.
func (c *Composer) SetOptions(o Options) { c.opts = o }

// SetOracle installs the foreign-word oracle. Nil disables it.
func (c *Composer) SetOracle(o oracle.Oracle) { c.oracle = o }

// SetShortcuts installs the shortcut table. Nil disables expansion.
func (c *Composer) SetShortcuts(t *shortcut.Table) { c.shortcuts = t }

// SetObserver installs an event observer. Nil disables reporting.
func (c *Composer) SetObserver(o Observer) { c.observer = o }

func (c *Composer) observe(e Event) {
	if c.observer != nil {
		c.observer.Observe(e)
	}
}

// Apply processes one classified keystroke.
func (c *Composer) Apply(a keys.Action) Result {
	if a.Kind != keys.KindBackspace {
		c.armed = false
	}
	switch a.Kind {
	case keys.KindLetter:
		return c.letter(a)
	case keys.KindTone, keys.KindToneRemoval, keys.KindModifier, keys.KindStroke:
		return c.transform(a)
	case keys.KindBackspace:
		return c.backspace()
	case keys.KindCommit:
		return c.commit(a)
	case keys.KindEscRestore:
		return c.escape()
	default:
		// Word delete, navigation and shortcuts with ctrl end the word.
		c.Reset()
		return Result{}
	}
}

// Reset discards the word in progress. History is kept.
func (c *Composer) Reset() {
	c.buf = c.buf[:0]
	c.raw = c.raw[:0]
	c.foreign = false
	c.transformed = false
	c.armed = false
	c.boundary = 0
}

// Clear discards the word in progress and the history.
func (c *Composer) Clear() {
	c.Reset()
	c.hist.Clear()
}

// State is a read-only view of the composition state.
type State struct {
	Chars       []viet.Char
	Text        string
	Raw         string
	Foreign     bool
	Transformed bool
	Boundary    int
	History     int
	Armed       bool
}

// Snapshot returns a copy of the current state.
func (c *Composer) Snapshot() State {
	return State{
		Chars:       slices.Clone(c.buf),
		Text:        viet.Render(c.buf, c.opts.Form),
		Raw:         rawString(c.raw),
		Foreign:     c.foreign,
		Transformed: c.transformed,
		Boundary:    c.boundary,
		History:     c.hist.Len(),
		Armed:       c.armed,
	}
}

// Len returns the number of characters in the buffer.
func (c *Composer) Len() int { return len(c.buf) }

func (c *Composer) settle() { c.boundary = syllable.Boundary(c.buf) }

// judge reports whether the word no longer looks Vietnamese.
func (c *Composer) judge() bool {
	if c.oracle != nil && c.oracle.IsForeign(rawString(c.raw)) {
		return true
	}
	return !c.opts.FreeTone && !syllable.IsValidPrefix(c.buf)
}

func (c *Composer) markForeign() {
	if !c.foreign {
		c.foreign = true
		c.observe(EventForeign)
	}
}

// letter appends a literal character for a.
func (c *Composer) letter(a keys.Action) Result {
	if len(c.buf) >= MaxBuffer {
		c.Reset()
		return Result{}
	}
	old := c.save()
	c.appendLetter(a)
	if r, ok := c.expandImmediate(old.n); ok {
		return r
	}
	return c.edit(old)
}

// appendLetter pushes the literal character of a onto both buffers, then
// re-judges the word and repositions the tone.
func (c *Composer) appendLetter(a keys.Action) bool {
	if len(c.buf) >= MaxBuffer {
		return false
	}
	c.buf = append(c.buf, viet.NewChar(a.Char))
	c.raw = append(c.raw, rawEntry{key: Keystroke{Code: a.Code, Caps: a.Caps}})

	if c.foreign && !c.shaped() {
		return true
	}
	if c.listed() {
		c.markForeign()
		c.respell()
		return true
	}
	if c.foreign {
		return true
	}
	if !c.opts.FreeTone && !syllable.IsValidPrefix(c.buf) {
		c.markForeign()
		return true
	}
	c.reposition()
	return true
}

// listed reports whether the oracle recognizes the keystrokes typed so
// far as a foreign word.
func (c *Composer) listed() bool {
	return c.oracle != nil && c.oracle.IsForeign(rawString(c.raw))
}

// shaped reports whether the buffer differs from the literal keystrokes:
// a transform is showing or a key was consumed.
func (c *Composer) shaped() bool {
	if c.transformed {
		return true
	}
	for i := range c.raw {
		if c.raw[i].n > 0 {
			return true
		}
	}
	return false
}

// respell replaces the buffer with the literal keystrokes once the oracle
// has recognized the word. The word stays foreign, so nothing typed after
// it is transformed. With auto-restore off the buffer is left alone.
func (c *Composer) respell() {
	if !c.opts.AutoRestore || !c.shaped() {
		return
	}
	strokes := make([]Keystroke, 0, 2*len(c.raw))
	for _, e := range c.raw {
		strokes = append(strokes, e.key)
		strokes = append(strokes, e.trail[:e.n]...)
	}
	if len(strokes) > MaxBuffer {
		return
	}
	c.buf = c.buf[:0]
	c.raw = c.raw[:0]
	for _, k := range strokes {
		c.buf = append(c.buf, viet.NewChar(k.Rune()))
		c.raw = append(c.raw, rawEntry{key: k})
	}
	c.transformed = false
	c.settle()
	c.observe(EventAutoRestore)
}

func (c *Composer) expandImmediate(screenLen int) (Result, bool) {
	if c.shortcuts == nil || c.replaying || c.shortcuts.Len() == 0 {
		return Result{}, false
	}
	word := viet.Render(c.buf, viet.FormNFC)
	repl, ok := c.shortcuts.Lookup(word, c.opts.Scheme, shortcut.Immediate)
	if !ok {
		return Result{}, false
	}
	c.observe(EventShortcut)
	c.Reset()
	return send(screenLen, repl), true
}

func (c *Composer) backspace() Result {
	if len(c.buf) == 0 {
		if c.armed {
			return c.restoreCommitted()
		}
		return Result{}
	}
	old := c.save()
	c.buf = c.buf[:len(c.buf)-1]
	c.raw = c.raw[:len(c.raw)-1]
	if len(c.buf) == 0 {
		c.Reset()
		return Result{Action: ActionSend, Backspace: 1}
	}
	c.transformed = anyTransformed(c.buf)
	c.foreign = c.judge()
	if !c.foreign {
		c.reposition()
	}
	return c.edit(old)
}

// restoreCommitted pops the last committed word back into the buffer and
// replaces the committed screen text with it.
func (c *Composer) restoreCommitted() Result {
	c.armed = false
	e, ok := c.hist.pop()
	if !ok {
		return Result{}
	}
	c.buf = append(c.buf[:0], e.chars...)
	c.raw = append(c.raw[:0], e.raw...)
	c.foreign = e.foreign
	c.transformed = e.transformed
	c.settle()
	c.observe(EventHistoryRestore)

	text := viet.Render(c.buf, c.opts.Form)
	if len(e.screen) > len(text) && e.screen[:len(text)] == text && graphemes(e.screen[len(text):]) == 1 {
		return Result{Action: ActionSend, Backspace: 1}
	}
	return send(graphemes(e.screen), text)
}

func (c *Composer) commit(a keys.Action) Result {
	if len(c.buf) == 0 {
		return Result{}
	}
	e := historyEntry{chars: c.buf, raw: c.raw, foreign: c.foreign, transformed: c.transformed}
	boundary := a.Commit == keys.CommitSpace || a.Commit == keys.CommitPunctuation
	commitText := string(a.Char)

	var r Result
	switch {
	case !boundary:
		e.screen = viet.Render(c.buf, c.opts.Form) + commitText
	case c.expandShortcut(&r, commitText):
		e.screen = string(r.Chars)
	case c.shouldRestore():
		r = Result{Action: ActionRestore, Backspace: len(c.buf), Chars: capped(rawString(c.raw) + commitText)}
		e.screen = string(r.Chars)
		c.observe(EventAutoRestore)
	default:
		e.screen = viet.Render(c.buf, c.opts.Form) + commitText
	}

	c.hist.push(e)
	c.observe(EventCommit)
	c.Reset()
	c.armed = boundary
	return r
}

func (c *Composer) expandShortcut(r *Result, commitText string) bool {
	if c.shortcuts == nil || c.shortcuts.Len() == 0 {
		return false
	}
	word := viet.Render(c.buf, viet.FormNFC)
	repl, ok := c.shortcuts.Lookup(word, c.opts.Scheme, shortcut.WordBoundary)
	if !ok {
		return false
	}
	*r = send(len(c.buf), repl+commitText)
	c.observe(EventShortcut)
	return true
}

// shouldRestore decides auto-restore at commit: the word is foreign and no
// transform is visible in it.
func (c *Composer) shouldRestore() bool {
	if !c.opts.AutoRestore || c.transformed {
		return false
	}
	if c.foreign {
		return true
	}
	return !c.opts.FreeTone && !syllable.IsValid(c.buf)
}

func (c *Composer) escape() Result {
	if !c.opts.EscRestore || len(c.buf) == 0 {
		c.Reset()
		return Result{}
	}
	r := Result{Action: ActionRestore, Backspace: len(c.buf), Chars: capped(rawString(c.raw))}
	c.observe(EventEscRestore)
	c.Reset()
	return r
}

func anyTransformed(chars []viet.Char) bool {
	for _, ch := range chars {
		if ch.Transformed() {
			return true
		}
	}
	return false
}
