package syllable

import (
	"strings"

	"vietime/internal/viet"
)

// Style selects where tones go on the oa, oe and uy clusters.
type Style uint8

const (
	// Modern places the tone on the second vowel: hoà, thuý.
	Modern Style = iota
	// Traditional places it on the first: hòa, thúy.
	Traditional
)

func (s Style) String() string {
	if s == Traditional {
		return "traditional"
	}
	return "modern"
}

// ParseStyle maps a configuration string to a Style.
func ParseStyle(s string) (Style, bool) {
	switch strings.ToLower(s) {
	case "", "modern", "new":
		return Modern, true
	case "traditional", "old":
		return Traditional, true
	}
	return Modern, false
}

// TonePosition returns the index within nucleus that carries the tone, or
// -1 for an empty nucleus.
//
// A vowel bearing a modifier always wins (the last one for ươ). Otherwise
// a single vowel takes it, a triphthong takes the middle vowel, and a
// diphthong takes the second vowel when closed by a final consonant. Open
// oa, oe and uy depend on style; every other open diphthong takes the first.
func TonePosition(nucleus []viet.Char, hasFinal bool, style Style) int {
	n := len(nucleus)
	if n == 0 {
		return -1
	}
	for i := n - 1; i >= 0; i-- {
		if nucleus[i].Modifier != viet.ModNone && nucleus[i].Accepts(nucleus[i].Modifier) {
			return i
		}
	}
	switch {
	case n == 1:
		return 0
	case n >= 3:
		return 1
	case hasFinal:
		return 1
	}
	switch string([]rune{nucleus[0].Base, nucleus[1].Base}) {
	case "oa", "oe", "uy":
		if style == Modern {
			return 1
		}
	}
	return 0
}

// ToneTarget returns the absolute index in chars where the tone of the
// syllable belongs, or -1 when there is no vowel.
func ToneTarget(chars []viet.Char, style Style) int {
	s := Parse(chars)
	if !s.HasNucleus() {
		// gi and qu followed by nothing else keep the tone on their vowel.
		if s.InitialEnd == 2 && len(chars) >= 2 && chars[1].IsVowel() {
			return 1
		}
		return -1
	}
	pos := TonePosition(s.Nucleus(chars), s.HasFinal(), style)
	return s.InitialEnd + pos
}
