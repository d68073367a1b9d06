package ime

import (
	"time"

	"vietime/internal/compose"
	"vietime/internal/keys"
	"vietime/internal/metrics"
)

// IBus key event state masks
const (
	IBusShiftMask   uint32 = 1 << 0
	IBusLockMask    uint32 = 1 << 1
	IBusControlMask uint32 = 1 << 2
	IBusMod1Mask    uint32 = 1 << 3 // Alt
	IBusMod4Mask    uint32 = 1 << 6 // Super/Meta
	IBusSuperMask   uint32 = 1 << 26
	IBusReleaseMask uint32 = 1 << 30
)

// IBus client capabilities and input purposes.
const (
	IBusCapSurroundingText uint32 = 1 << 5

	IBusPurposePassword uint32 = 8
	IBusPurposePin      uint32 = 9
)

// Common GDK key symbols
const (
	GDKBackSpace   = 0xff08
	GDKTab         = 0xff09
	GDKReturn      = 0xff0d
	GDKEscape      = 0xff1b
	GDKLeft        = 0xff51
	GDKUp          = 0xff52
	GDKRight       = 0xff53
	GDKDown        = 0xff54
	GDKKPEnter     = 0xff8d
	GDKDelete      = 0xffff
	GDKISOLeftTab  = 0xfe20
	GDKSpace       = 0x0020
	gdkShiftL      = 0xffe1
	gdkHyperR      = 0xffee
	gdkISOLevel3   = 0xfe03
	gdkModeSwitch  = 0xff7e
	evdevBackSpace = 14
)

// mirrorSize is how many graphemes before the caret are remembered. It
// covers the longest edit a history restore can ask for.
const mirrorSize = 2 * compose.MaxOutput

// textSink edits the focused client on behalf of a keyHandler.
type textSink interface {
	// DeleteBefore removes n code points before the caret.
	DeleteBefore(n int)
	// Commit inserts text at the caret.
	Commit(text string)
}

// keyHandler turns IBus key events into engine keystrokes and engine
// results into client edits. Engine backspaces count graphemes while
// clients delete code points, so the handler mirrors the text it has seen
// typed to convert between the two.
type keyHandler struct {
	engine  *Engine
	mirror  Screen
	metrics *metrics.EngineMetrics

	// bypass is set for password and PIN fields.
	bypass bool
}

func newKeyHandler(e *Engine, m *metrics.EngineMetrics) *keyHandler {
	return &keyHandler{engine: e, metrics: m}
}

// handle processes one key event and reports whether it was consumed.
func (h *keyHandler) handle(keyval, state uint32, sink textSink) bool {
	if state&IBusReleaseMask != 0 {
		return false
	}
	if isModifierKeysym(keyval) {
		return false
	}
	if h.bypass {
		return false
	}

	code, caps, shift, key, ok := keysymToKey(keyval)
	if !ok {
		h.reset()
		return false
	}
	if state&(IBusControlMask|IBusMod1Mask|IBusMod4Mask|IBusSuperMask) != 0 {
		h.engine.ProcessKeyExt(code, caps, true, shift)
		h.mirror.Reset()
		return false
	}

	var start time.Time
	if h.metrics != nil {
		start = time.Now()
	}
	r := h.engine.ProcessKeyExt(code, caps, false, shift)
	if h.metrics != nil {
		h.metrics.KeyLatency.ObserveDuration(time.Since(start))
	}

	if r.Action == compose.ActionNone {
		switch code {
		case keys.Return, keys.Enter, keys.Tab, keys.Left, keys.Right, keys.Up, keys.Down:
			h.mirror.Reset()
		default:
			h.mirror.Apply(r, key)
		}
		h.mirror.Keep(mirrorSize)
		return false
	}

	n := h.mirror.Span(r.Backspace)
	h.mirror.Apply(r, key)
	h.mirror.Keep(mirrorSize)
	if n > 0 {
		sink.DeleteBefore(n)
	}
	if len(r.Chars) > 0 {
		sink.Commit(string(r.Chars))
	}
	return true
}

// reset drops the word in progress and forgets the mirrored text, as
// after a focus change or caret move.
func (h *keyHandler) reset() {
	h.engine.ResetWord()
	h.mirror.Reset()
}

// keysymToKey maps an X11 keysym to a key code. key is the rune the
// keystroke types when it passes through, or a control character.
func keysymToKey(keyval uint32) (code keys.Code, caps, shift bool, key rune, ok bool) {
	switch keyval {
	case GDKBackSpace:
		return keys.Delete, false, false, '\b', true
	case GDKReturn:
		return keys.Return, false, false, '\n', true
	case GDKKPEnter:
		return keys.Enter, false, false, '\n', true
	case GDKTab, GDKISOLeftTab:
		return keys.Tab, false, false, '\t', true
	case GDKEscape:
		return keys.Esc, false, false, 0x1b, true
	case GDKLeft:
		return keys.Left, false, false, 0, true
	case GDKRight:
		return keys.Right, false, false, 0, true
	case GDKUp:
		return keys.Up, false, false, 0, true
	case GDKDown:
		return keys.Down, false, false, 0, true
	}

	r := keyvalToRune(keyval)
	if r < 0x20 || r > 0x7e {
		return 0, false, false, 0, false
	}
	code, caps, ok = keys.FromASCII(r)
	if !ok {
		return 0, false, false, 0, false
	}
	return code, caps, keys.IsShifted(r), r, true
}

// keyvalToRune converts X11 keysym to Unicode rune.
func keyvalToRune(keyval uint32) rune {
	// Direct Unicode mapping for Latin-1 range
	if keyval >= 0x20 && keyval <= 0x7e {
		return rune(keyval)
	}

	// Extended Latin (ISO 8859-1)
	if keyval >= 0xa0 && keyval <= 0xff {
		return rune(keyval)
	}

	// Unicode keysyms (0x01000000 + codepoint)
	if keyval >= 0x01000000 && keyval <= 0x0110ffff {
		return rune(keyval - 0x01000000)
	}

	return 0
}

// isModifierKeysym reports whether keyval is a bare modifier press, which
// must not end the word in progress.
func isModifierKeysym(keyval uint32) bool {
	switch {
	case keyval >= gdkShiftL && keyval <= gdkHyperR:
		return true
	case keyval == gdkISOLevel3, keyval == gdkModeSwitch:
		return true
	}
	return false
}
