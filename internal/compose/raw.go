package compose

import (
	"strings"

	"vietime/internal/keys"
	"vietime/internal/viet"
)

// MaxTrail bounds the transform keys remembered per position.
const MaxTrail = 4

// Keystroke is one raw key as typed.
type Keystroke struct {
	Code keys.Code
	Caps bool
}

// Rune returns the literal character of the keystroke.
func (k Keystroke) Rune() rune {
	r, _ := keys.Char(k.Code, k.Caps, false)
	return r
}

// rawEntry is the RawInputBuffer slot parallel to one buffer position: the
// key that created the position plus the transform keys consumed while it
// was the last position. Concatenating every entry reproduces the
// keystrokes that built the word.
type rawEntry struct {
	key   Keystroke
	trail [MaxTrail]Keystroke
	n     uint8
}

func (e *rawEntry) push(k Keystroke) {
	if int(e.n) < MaxTrail {
		e.trail[e.n] = k
		e.n++
	}
}

// drop removes the last trail key with the given code.
func (e *rawEntry) drop(code keys.Code) bool {
	for i := int(e.n) - 1; i >= 0; i-- {
		if e.trail[i].Code == code {
			copy(e.trail[i:e.n], e.trail[i+1:e.n])
			e.n--
			return true
		}
	}
	return false
}

func (e *rawEntry) appendTo(b *strings.Builder) {
	b.WriteRune(e.key.Rune())
	for _, k := range e.trail[:e.n] {
		b.WriteRune(k.Rune())
	}
}

// dropConsumed removes the most recent consumed key with code from any
// trail, searching backwards from the end of the word.
func dropConsumed(raw []rawEntry, code keys.Code) {
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i].drop(code) {
			return
		}
	}
}

func rawString(raw []rawEntry) string {
	var b strings.Builder
	b.Grow(len(raw) * 2)
	for i := range raw {
		raw[i].appendTo(&b)
	}
	return b.String()
}

// synthesize builds a raw log for chars that would produce them under
// scheme. It is used when a composed word is loaded rather than typed.
func synthesize(chars []viet.Char, scheme keys.Scheme) []rawEntry {
	raw := make([]rawEntry, len(chars))
	for i, c := range chars {
		e := &raw[i]
		e.key = keyFor(c.Base, c.Caps)
		if c.Stroke {
			if scheme == keys.VNI {
				e.push(keyFor('9', false))
			} else {
				e.push(keyFor('d', false))
			}
		}
		// ươ is typed with a single horn key after the o.
		pairHead := c.Base == 'u' && c.Modifier == viet.ModHorn && i+1 < len(chars) &&
			chars[i+1].Base == 'o' && chars[i+1].Modifier == viet.ModHorn
		if c.Modifier != viet.ModNone && c.Accepts(c.Modifier) && !pairHead {
			e.push(modifierKey(c, scheme))
		}
		if c.Tone != viet.ToneNone {
			e.push(toneKey(c.Tone, scheme))
		}
	}
	return raw
}

func keyFor(r rune, caps bool) Keystroke {
	code, _, ok := keys.FromASCII(r)
	if !ok {
		return Keystroke{}
	}
	return Keystroke{Code: code, Caps: caps}
}

func modifierKey(c viet.Char, scheme keys.Scheme) Keystroke {
	if scheme == keys.VNI {
		switch c.Modifier {
		case viet.ModCircumflex:
			return keyFor('6', false)
		case viet.ModHorn:
			return keyFor('7', false)
		default:
			return keyFor('8', false)
		}
	}
	if c.Modifier == viet.ModCircumflex {
		return keyFor(c.Base, false)
	}
	return keyFor('w', false)
}

var (
	telexToneKeys = [...]rune{0, 's', 'f', 'r', 'x', 'j'}
	vniToneKeys   = [...]rune{0, '1', '2', '3', '4', '5'}
)

func toneKey(t viet.Tone, scheme keys.Scheme) Keystroke {
	if int(t) >= len(telexToneKeys) {
		return Keystroke{}
	}
	if scheme == keys.VNI {
		return keyFor(vniToneKeys[t], false)
	}
	return keyFor(telexToneKeys[t], false)
}
