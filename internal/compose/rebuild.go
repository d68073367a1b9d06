package compose

import (
	"github.com/rivo/uniseg"

	"vietime/internal/viet"
)

// MaxOutput caps the characters returned by one call.
const MaxOutput = 256

// Action tells the host what to do with a Result.
type Action uint8

const (
	// ActionNone means the engine did not consume the key; the host lets
	// it through unchanged.
	ActionNone Action = iota
	// ActionSend means: delete Backspace graphemes before the caret, then
	// insert Chars. The key itself is consumed.
	ActionSend
	// ActionRestore is a Send that replaces composed text with the raw
	// keystrokes.
	ActionRestore
)

func (a Action) String() string {
	switch a {
	case ActionSend:
		return "send"
	case ActionRestore:
		return "restore"
	}
	return "none"
}

// Result is the screen edit produced by one keystroke. Backspace counts
// user-visible graphemes.
type Result struct {
	Action    Action
	Backspace int
	Chars     []rune
}

// Text returns Chars as a string.
func (r Result) Text() string { return string(r.Chars) }

func send(backspace int, text string) Result {
	return Result{Action: ActionSend, Backspace: backspace, Chars: capped(text)}
}

func capped(s string) []rune {
	r := []rune(s)
	if len(r) > MaxOutput {
		r = r[:MaxOutput]
	}
	return r
}

func graphemes(s string) int { return uniseg.GraphemeClusterCount(s) }

// snapshot is the buffer as displayed before a mutation.
type snapshot struct {
	chars [MaxBuffer]viet.Char
	n     int
}

func (c *Composer) save() *snapshot {
	s := &snapshot{n: len(c.buf)}
	copy(s.chars[:], c.buf)
	return s
}

// restore puts the buffer back to s. Raw entries appended since are
// dropped; trails are never touched by a tentative transform.
func (c *Composer) restore(s *snapshot) {
	c.buf = append(c.buf[:0], s.chars[:s.n]...)
	if len(c.raw) > s.n {
		c.raw = c.raw[:s.n]
	}
}

// edit computes the screen update from the displayed buffer old to the
// current buffer. Every buffer position renders as exactly one grapheme,
// so lengths are grapheme counts.
//
// An append, or removal of the last position, with nothing else changed
// is emitted directly. Any other change re-renders from the start of the
// current syllable, or earlier if an earlier position changed.
func (c *Composer) edit(old *snapshot) Result {
	c.settle()

	prev := old.chars[:old.n]
	n := min(len(prev), len(c.buf))
	i := 0
	for i < n && prev[i] == c.buf[i] {
		i++
	}

	switch {
	case i == len(prev) && i == len(c.buf):
		return Result{Action: ActionSend}
	case i == len(prev):
		return send(0, viet.Render(c.buf[i:], c.opts.Form))
	case i == len(c.buf) && len(prev) == i+1:
		return Result{Action: ActionSend, Backspace: 1}
	}

	from := min(i, c.boundary)
	return send(len(prev)-from, viet.Render(c.buf[from:], c.opts.Form))
}
