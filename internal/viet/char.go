// Package viet models a composed Vietnamese letter: an ASCII base letter
// carrying an optional tone mark, vowel modifier and stroke.
//
// Rendering goes through Unicode normalization. Every vowel/modifier/tone
// combination is composed once with NFC at package init, so rendering a
// character at runtime is a table lookup.
package viet

import "unicode"

// Tone is one of the five Vietnamese tone marks, or ToneNone for the level tone.
type Tone uint8

// Tones.
const (
	ToneNone Tone = iota
	ToneSac
	ToneHuyen
	ToneHoi
	ToneNga
	ToneNang
)

var toneNames = [...]string{"none", "sac", "huyen", "hoi", "nga", "nang"}

func (t Tone) String() string {
	if int(t) < len(toneNames) {
		return toneNames[t]
	}
	return "unknown"
}

// Modifier is a vowel modifier diacritic.
type Modifier uint8

// Modifiers.
const (
	ModNone Modifier = iota
	ModCircumflex
	ModBreve
	ModHorn
)

var modifierNames = [...]string{"none", "circumflex", "breve", "horn"}

func (m Modifier) String() string {
	if int(m) < len(modifierNames) {
		return modifierNames[m]
	}
	return "unknown"
}

// Char is one position of the composition buffer.
type Char struct {
	// Base is the lowercase ASCII letter or digit the character is built on.
	Base rune
	Tone Tone
	// Modifier is only meaningful on a, e, o and u.
	Modifier Modifier
	// Stroke is only meaningful on d.
	Stroke bool
	Caps   bool
}

// NewChar returns a plain character for an ASCII rune, folding case into Caps.
func NewChar(r rune) Char {
	if unicode.IsUpper(r) {
		return Char{Base: unicode.ToLower(r), Caps: true}
	}
	return Char{Base: r}
}

// IsVowel reports whether r is one of the six Vietnamese vowel letters.
func IsVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// IsVowel reports whether the character's base is a vowel letter.
func (c Char) IsVowel() bool { return IsVowel(c.Base) }

// IsLetter reports whether the base is an ASCII letter.
func (c Char) IsLetter() bool { return c.Base >= 'a' && c.Base <= 'z' }

// Accepts reports whether modifier m can be placed on the character.
func (c Char) Accepts(m Modifier) bool {
	switch m {
	case ModNone:
		return true
	case ModCircumflex:
		return c.Base == 'a' || c.Base == 'e' || c.Base == 'o'
	case ModBreve:
		return c.Base == 'a'
	case ModHorn:
		return c.Base == 'o' || c.Base == 'u'
	}
	return false
}

// Transformed reports whether the character carries any diacritic.
func (c Char) Transformed() bool {
	return c.Tone != ToneNone || c.Modifier != ModNone || c.Stroke
}

// Letter returns the base with its case applied, ignoring diacritics.
func (c Char) Letter() rune {
	if c.Caps {
		return unicode.ToUpper(c.Base)
	}
	return c.Base
}

// Key returns the base with stroke folded in, used by phonotactic tables:
// 'đ' for a stroked d and the plain base otherwise.
func (c Char) Key() rune {
	if c.Stroke && c.Base == 'd' {
		return 'đ'
	}
	return c.Base
}

// Rune returns the NFC rendering of the character as a single rune.
func (c Char) Rune() rune {
	s := c.Render(FormNFC)
	for _, r := range s {
		return r
	}
	return c.Letter()
}

// Render returns the character in the requested normalization form.
func (c Char) Render(f Form) string {
	if c.Stroke && c.Base == 'd' {
		if c.Caps {
			return "Đ"
		}
		return "đ"
	}
	if idx := vowelIndex(c.Base); idx >= 0 && int(c.Modifier) < modifierCount && int(c.Tone) < toneCount {
		caps := 0
		if c.Caps {
			caps = 1
		}
		e := &renderTable[idx][c.Modifier][c.Tone][caps]
		if f == FormNFD {
			return e.nfd
		}
		return e.nfc
	}
	return string(c.Letter())
}

// Render concatenates the rendering of chars.
func Render(chars []Char, f Form) string {
	buf := make([]byte, 0, len(chars)*3)
	for _, c := range chars {
		buf = append(buf, c.Render(f)...)
	}
	return string(buf)
}
