// Package syllable decomposes a run of composed characters into the
// Vietnamese initial / nucleus / final structure and answers legality
// questions about it. Everything here is a pure function of its input.
package syllable

import (
	"strings"

	"vietime/internal/viet"
)

// Syllable is the decomposition of a character run. Indices are relative
// to the slice passed to Parse: chars[:InitialEnd] is the initial,
// chars[InitialEnd:NucleusEnd] the vowel nucleus and
// chars[NucleusEnd:FinalEnd] the final consonant.
type Syllable struct {
	InitialEnd int
	NucleusEnd int
	FinalEnd   int
	// Trailing is set when characters follow the final consonant, or when
	// the run contains something other than letters.
	Trailing bool
}

// HasNucleus reports whether the syllable has at least one vowel.
func (s Syllable) HasNucleus() bool { return s.NucleusEnd > s.InitialEnd }

// HasFinal reports whether a final consonant closes the syllable.
func (s Syllable) HasFinal() bool { return s.FinalEnd > s.NucleusEnd }

// Parse decomposes chars. The "gi" and "qu" initials absorb their vowel
// letter when another vowel follows.
func Parse(chars []viet.Char) Syllable {
	var s Syllable
	n := len(chars)
	i := 0
	for i < n && chars[i].IsLetter() && !chars[i].IsVowel() {
		i++
	}
	if i == 1 && i < n {
		switch {
		case chars[0].Key() == 'q' && chars[i].Base == 'u':
			i++
		case chars[0].Key() == 'g' && chars[i].Base == 'i' && i+1 < n && chars[i+1].IsVowel():
			i++
		}
	}
	s.InitialEnd = i
	for i < n && chars[i].IsVowel() {
		i++
	}
	s.NucleusEnd = i
	for i < n && chars[i].IsLetter() && !chars[i].IsVowel() {
		i++
	}
	s.FinalEnd = i
	s.Trailing = i < n
	return s
}

func keyString(chars []viet.Char) string {
	var b strings.Builder
	for _, c := range chars {
		b.WriteRune(c.Key())
	}
	return b.String()
}

// Initial returns the initial consonant cluster, with đ for a stroked d.
func (s Syllable) Initial(chars []viet.Char) string { return keyString(chars[:s.InitialEnd]) }

// Final returns the final consonant cluster.
func (s Syllable) Final(chars []viet.Char) string {
	return keyString(chars[s.NucleusEnd:s.FinalEnd])
}

// Nucleus returns the vowel nucleus.
func (s Syllable) Nucleus(chars []viet.Char) []viet.Char {
	return chars[s.InitialEnd:s.NucleusEnd]
}

// IsValidPrefix reports whether chars can still grow into a legal
// syllable. An empty run is a valid prefix.
func IsValidPrefix(chars []viet.Char) bool {
	s := Parse(chars)
	if s.Trailing {
		return false
	}
	initial := s.Initial(chars)
	if !s.HasNucleus() {
		return initial == "" || initialPrefix[initial]
	}
	if initial != "" && !initialSet[initial] {
		return false
	}
	nuc := s.Nucleus(chars)
	if !spellingOK(initial, nuc[0]) {
		return false
	}
	if !s.HasFinal() {
		for _, n := range nuclei {
			if matches(nuc, n.chars) {
				return true
			}
		}
		return false
	}
	final := s.Final(chars)
	if !finalPrefix[final] || !toneOK(nuc, final) {
		return false
	}
	return closable(nuc)
}

// IsValid reports whether chars form a complete legal syllable.
func IsValid(chars []viet.Char) bool {
	s := Parse(chars)
	if s.Trailing || !s.HasNucleus() {
		return false
	}
	initial := s.Initial(chars)
	if initial != "" && !initialSet[initial] {
		return false
	}
	nuc := s.Nucleus(chars)
	if !spellingOK(initial, nuc[0]) {
		return false
	}
	final := s.Final(chars)
	if final != "" && !finalSet[final] {
		return false
	}
	if (final == "ch" || final == "nh") && !palatalOK(nuc[len(nuc)-1]) {
		return false
	}
	if !toneOK(nuc, final) {
		return false
	}
	for _, n := range nuclei {
		if len(n.chars) != len(nuc) || !matches(nuc, n.chars) {
			continue
		}
		switch {
		case n.rule == finalRequired && final == "":
		case n.rule == finalForbidden && final != "":
		default:
			return true
		}
	}
	return false
}

// Closed reports whether chars ends in a complete final consonant, after
// which no vowel modifier or stroke may be added.
func Closed(chars []viet.Char) bool {
	s := Parse(chars)
	return s.HasNucleus() && s.HasFinal() && !s.Trailing && finalSet[s.Final(chars)]
}

// toneOK enforces that syllables closed by c, ch, p or t only carry the
// sắc or nặng tone.
func toneOK(nuc []viet.Char, final string) bool {
	if final == "" {
		return true
	}
	switch final[0] {
	case 'c', 'p', 't':
	default:
		return true
	}
	for _, c := range nuc {
		switch c.Tone {
		case viet.ToneNone, viet.ToneSac, viet.ToneNang:
		default:
			return false
		}
	}
	return true
}

// closable reports whether some nucleus matching nuc exactly in length
// accepts a final consonant.
func closable(nuc []viet.Char) bool {
	for _, n := range nuclei {
		if len(n.chars) == len(nuc) && matches(nuc, n.chars) && n.rule != finalForbidden {
			return true
		}
	}
	return false
}

// ch and nh only close front vowels and a.
func palatalOK(last viet.Char) bool {
	switch last.Base {
	case 'a':
		return last.Modifier == viet.ModNone
	case 'e', 'i', 'y':
		return true
	}
	return false
}

// Boundary returns the index where the last syllable of chars starts.
// Consonants between two vowel runs are split so the later syllable
// receives the longest legal initial.
func Boundary(chars []viet.Char) int {
	last := -1
	for i := len(chars) - 1; i >= 0; i-- {
		if chars[i].IsVowel() {
			last = i
			break
		}
	}
	if last < 0 {
		return 0
	}
	start := last
	for start > 0 && chars[start-1].IsVowel() {
		start--
	}
	cons := start
	for cons > 0 && !chars[cons-1].IsVowel() {
		cons--
	}
	if cons == 0 {
		return 0
	}
	for k := cons; k < start; k++ {
		init := keyString(chars[k:start])
		if initialSet[init] || init == "q" {
			return k
		}
	}
	return start
}
