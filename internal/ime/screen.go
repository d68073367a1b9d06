package ime

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"vietime/internal/compose"
	"vietime/internal/keys"
)

// Screen simulates the text field of a host application. It applies engine
// results the way a frontend does: Send and Restore delete graphemes
// before the caret and insert text, and None lets the key through.
type Screen struct {
	text strings.Builder
	last Result
}

// NewScreen returns a screen already showing text.
func NewScreen(text string) *Screen {
	s := &Screen{}
	s.text.WriteString(text)
	return s
}

// Text returns the simulated line.
func (s *Screen) Text() string { return s.text.String() }

// Last returns the result of the most recent key.
func (s *Screen) Last() Result { return s.last }

// Reset empties the line.
func (s *Screen) Reset() {
	s.text.Reset()
	s.last = Result{}
}

// Apply updates the line with r, the engine's answer to key.
func (s *Screen) Apply(r Result, key rune) {
	s.last = r
	if r.Action != compose.ActionNone {
		s.replace(DropGraphemes(s.text.String(), r.Backspace) + string(r.Chars))
		return
	}
	switch key {
	case '\b':
		s.replace(DropGraphemes(s.text.String(), 1))
	case 0x1b, 0:
	default:
		s.text.WriteRune(key)
	}
}

func (s *Screen) replace(text string) {
	s.text.Reset()
	s.text.WriteString(text)
}

// Type feeds input to e one rune at a time and applies each result. '\b'
// is backspace and '\x1b' is escape. Runes with no key on a US layout are
// inserted directly and end the word in progress.
func (s *Screen) Type(e *Engine, input string) {
	for _, r := range input {
		code, caps, ok := keys.FromASCII(r)
		if !ok {
			e.ResetWord()
			s.Apply(Result{}, r)
			continue
		}
		s.Apply(e.ProcessKeyExt(code, caps, false, keys.IsShifted(r)), r)
	}
}

// Transcribe types input into e on an empty screen and returns the line.
func Transcribe(e *Engine, input string) string {
	var s Screen
	s.Type(e, input)
	return s.Text()
}

// DropGraphemes removes the last n user-visible characters of text.
func DropGraphemes(text string, n int) string {
	if n <= 0 {
		return text
	}
	var starts []int
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		from, _ := g.Positions()
		starts = append(starts, from)
	}
	if n >= len(starts) {
		return ""
	}
	return text[:starts[len(starts)-n]]
}

// Span returns how many code points the last n graphemes of the line hold.
// Graphemes before the start of the line count as one code point each.
func (s *Screen) Span(n int) int {
	if n <= 0 {
		return 0
	}
	text := s.text.String()
	kept := DropGraphemes(text, n)
	span := utf8.RuneCountInString(text) - utf8.RuneCountInString(kept)
	if extra := n - uniseg.GraphemeClusterCount(text); extra > 0 {
		span += extra
	}
	return span
}

// Keep drops everything but the last n graphemes of the line.
func (s *Screen) Keep(n int) {
	text := s.text.String()
	drop := uniseg.GraphemeClusterCount(text) - n
	if drop <= 0 {
		return
	}
	to := 0
	g := uniseg.NewGraphemes(text)
	for i := 0; i < drop && g.Next(); i++ {
		_, to = g.Positions()
	}
	s.replace(text[to:])
}
