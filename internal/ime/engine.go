package ime

import (
	"errors"
	"fmt"
	"runtime/debug"
	"unicode/utf8"

	"vietime/internal/compose"
	"vietime/internal/config"
	"vietime/internal/keys"
	"vietime/internal/oracle"
	"vietime/internal/shortcut"
	"vietime/internal/syllable"
	"vietime/internal/viet"
)

// Result is the screen edit for one keystroke.
type Result = compose.Result

// Monitor receives engine level notifications on top of composer events.
// An observer passed to SetObserver that also implements Monitor gets them.
type Monitor interface {
	compose.Observer
	// KeyProcessed is called once per keystroke handled while enabled.
	KeyProcessed(kind keys.Kind, action compose.Action)
	// PanicRecovered is called when the guard turns a fault into a no-op.
	PanicRecovered(v any, stack []byte)
}

// Engine is the keystroke facade a frontend drives: one keystroke in, one
// screen edit out. It owns one Composer and one shortcut table.
//
// An Engine is not safe for concurrent use. Frontends serialize calls.
type Engine struct {
	comp      *compose.Composer
	opts      compose.Options
	enabled   bool
	shortcuts *shortcut.Table

	encoding viet.Encoding

	monitor Monitor
	onPanic func(v any, stack []byte)
	panics  uint64
}

// NewEngine creates an enabled engine with default options, an empty
// shortcut table and the phonotactic foreign-word oracle.
func NewEngine() *Engine {
	return NewEngineWithOptions(compose.DefaultOptions())
}

// NewEngineWithOptions creates an enabled engine with opts.
func NewEngineWithOptions(opts compose.Options) *Engine {
	e := &Engine{
		comp:      compose.New(opts),
		opts:      opts,
		enabled:   true,
		shortcuts: shortcut.NewTable(),
	}
	e.comp.SetShortcuts(e.shortcuts)
	e.comp.SetOracle(oracle.Phonotactic{})
	return e
}

// ProcessKey handles one keystroke without shift information.
func (e *Engine) ProcessKey(code keys.Code, caps, ctrl bool) Result {
	return e.ProcessKeyExt(code, caps, ctrl, false)
}

// ProcessKeyExt handles one keystroke. It never panics: an internal fault
// drops the word in progress and yields a pass-through result.
func (e *Engine) ProcessKeyExt(code keys.Code, caps, ctrl, shift bool) (r Result) {
	defer func() {
		if v := recover(); v != nil {
			e.recovered(v)
			r = Result{}
		}
	}()

	if !e.enabled {
		return Result{}
	}
	a := keys.Classify(code, caps, ctrl, shift, e.opts.Scheme)
	r = e.comp.Apply(a)
	if e.monitor != nil {
		e.monitor.KeyProcessed(a.Kind, r.Action)
	}
	return r
}

func (e *Engine) recovered(v any) {
	e.panics++
	e.comp.Reset()
	stack := debug.Stack()
	if e.monitor != nil {
		e.monitor.PanicRecovered(v, stack)
	}
	if e.onPanic != nil {
		e.onPanic(v, stack)
	}
}

// SetPanicHandler installs fn to be called with every fault the guard
// absorbs, after the monitor. It is independent of SetObserver. Nil
// removes it.
func (e *Engine) SetPanicHandler(fn func(v any, stack []byte)) { e.onPanic = fn }

// Panics returns how many faults the guard has absorbed.
func (e *Engine) Panics() uint64 { return e.panics }

// Options returns the current composer options.
func (e *Engine) Options() compose.Options { return e.opts }

func (e *Engine) setOptions(o compose.Options) {
	e.opts = o
	e.comp.SetOptions(o)
}

// SetOptions replaces every option at once.
func (e *Engine) SetOptions(o compose.Options) { e.setOptions(o) }

// SetScheme selects Telex or VNI.
func (e *Engine) SetScheme(s keys.Scheme) {
	o := e.opts
	o.Scheme = s
	e.setOptions(o)
}

// SetToneStyle selects modern or traditional tone placement.
func (e *Engine) SetToneStyle(s syllable.Style) {
	o := e.opts
	o.Style = s
	e.setOptions(o)
}

// SetFreeTone disables syllable validation for transforms.
func (e *Engine) SetFreeTone(on bool) {
	o := e.opts
	o.FreeTone = on
	e.setOptions(o)
}

// SetEscRestore toggles raw restore on ESC.
func (e *Engine) SetEscRestore(on bool) {
	o := e.opts
	o.EscRestore = on
	e.setOptions(o)
}

// SetAutoRestore toggles raw restore of foreign words on commit.
func (e *Engine) SetAutoRestore(on bool) {
	o := e.opts
	o.AutoRestore = on
	e.setOptions(o)
}

// SetSkipWShortcut stops a bare Telex w from typing ư.
func (e *Engine) SetSkipWShortcut(on bool) {
	o := e.opts
	o.SkipWShortcut = on
	e.setOptions(o)
}

// SetOutputForm selects NFC or NFD output.
func (e *Engine) SetOutputForm(f viet.Form) {
	o := e.opts
	o.Form = f
	e.setOptions(o)
}

// SetEncoding selects the charset Encode converts committed text to.
// Results stay Unicode.
func (e *Engine) SetEncoding(enc viet.Encoding) { e.encoding = enc }

// Encoding returns the output charset.
func (e *Engine) Encoding() viet.Encoding { return e.encoding }

// Encode converts text to the engine's output charset.
func (e *Engine) Encode(text string) []byte { return viet.Encode(text, e.encoding) }

// SetEnabled switches the engine on or off. While off every key passes
// through. Switching off drops the word in progress.
func (e *Engine) SetEnabled(on bool) {
	if !on {
		e.comp.Reset()
	}
	e.enabled = on
}

// Enabled reports whether the engine transforms keys.
func (e *Engine) Enabled() bool { return e.enabled }

// SetOracle installs the foreign-word oracle. Nil disables it.
func (e *Engine) SetOracle(o oracle.Oracle) { e.comp.SetOracle(o) }

// SetObserver installs an event observer. Nil disables reporting.
func (e *Engine) SetObserver(o compose.Observer) {
	e.monitor, _ = o.(Monitor)
	e.comp.SetObserver(o)
}

// ApplyConfig applies the engine section of a configuration. Nothing is
// changed if any value fails to parse.
func (e *Engine) ApplyConfig(c config.EngineConfig) error {
	o := e.opts
	var errs []error

	s, ok := keys.ParseScheme(c.Scheme)
	if !ok {
		errs = append(errs, fmt.Errorf("unknown scheme %q", c.Scheme))
	}
	o.Scheme = s

	style, ok := syllable.ParseStyle(c.ToneStyle)
	if !ok {
		errs = append(errs, fmt.Errorf("unknown tone style %q", c.ToneStyle))
	}
	o.Style = style

	form, ok := viet.ParseForm(c.Output)
	if !ok {
		errs = append(errs, fmt.Errorf("unknown output form %q", c.Output))
	}
	o.Form = form

	enc, ok := viet.ParseEncoding(c.Encoding)
	if !ok {
		errs = append(errs, fmt.Errorf("unknown encoding %q", c.Encoding))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("apply engine config: %w", err)
	}

	o.FreeTone = c.FreeTone
	o.EscRestore = c.EscRestore
	o.AutoRestore = c.AutoRestore
	o.SkipWShortcut = c.SkipWShortcut
	e.setOptions(o)
	e.encoding = enc
	e.SetEnabled(c.Enabled)
	return nil
}

// RestoreWord starts a new word from text already on screen, so that
// editing continues inside it. ASCII text is replayed as keystrokes under
// the current scheme; text with Vietnamese letters is decomposed. Nothing
// is emitted. It reports false if the word cannot be loaded.
func (e *Engine) RestoreWord(text string) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			e.recovered(v)
			ok = false
		}
	}()

	if !e.enabled {
		return false
	}
	if isASCII(text) {
		return e.comp.RestoreRaw(text)
	}
	return e.comp.LoadWord(text)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ResetWord drops the word in progress, as a focus change or caret move
// does. History is kept.
func (e *Engine) ResetWord() { e.comp.Reset() }

// Clear drops the word in progress and the commit history.
func (e *Engine) Clear() { e.comp.Clear() }

// State returns a copy of the composition state.
func (e *Engine) State() compose.State { return e.comp.Snapshot() }

// Shortcuts returns the engine's shortcut table.
func (e *Engine) Shortcuts() *shortcut.Table { return e.shortcuts }

// AddShortcut adds an enabled word-boundary shortcut.
func (e *Engine) AddShortcut(trigger, replacement string) error {
	return e.shortcuts.Add(shortcut.New(trigger, replacement))
}

// AddShortcutEntry adds a shortcut with full metadata.
func (e *Engine) AddShortcutEntry(s shortcut.Shortcut) error {
	return e.shortcuts.Add(s)
}

// RemoveShortcut deletes the shortcut for trigger.
func (e *Engine) RemoveShortcut(trigger string) error {
	return e.shortcuts.Remove(trigger)
}

// ClearShortcuts empties the shortcut table.
func (e *Engine) ClearShortcuts() { e.shortcuts.Clear() }

// ShortcutCount returns the number of shortcuts.
func (e *Engine) ShortcutCount() int { return e.shortcuts.Len() }

// ExportShortcutsJSON serializes the shortcut table.
func (e *Engine) ExportShortcutsJSON() ([]byte, error) {
	return e.shortcuts.ExportJSON()
}

// ImportShortcutsJSON adds entries from data, skipping invalid ones. The
// report lists what was added and why each skipped entry was rejected.
func (e *Engine) ImportShortcutsJSON(data []byte) (shortcut.ImportReport, error) {
	return e.shortcuts.ImportJSON(data)
}

// LoadDefaultShortcuts adds the built-in abbreviations not already
// present and returns how many were added.
func (e *Engine) LoadDefaultShortcuts() int {
	n := 0
	for _, s := range shortcut.Defaults() {
		if e.shortcuts.Add(s) == nil {
			n++
		}
	}
	return n
}
