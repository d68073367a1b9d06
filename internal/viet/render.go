package viet

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Form selects the Unicode normalization form of rendered output.
type Form uint8

const (
	// FormNFC renders precomposed characters (one rune per letter).
	FormNFC Form = iota
	// FormNFD renders a base letter followed by combining marks.
	FormNFD
)

// ParseForm maps a configuration string to a Form.
func ParseForm(s string) (Form, bool) {
	switch s {
	case "", "nfc", "unicode":
		return FormNFC, true
	case "nfd", "decomposed":
		return FormNFD, true
	}
	return FormNFC, false
}

func (f Form) String() string {
	if f == FormNFD {
		return "nfd"
	}
	return "nfc"
}

// Combining marks.
const (
	markCircumflex = '\u0302'
	markBreve      = '\u0306'
	markHorn       = '\u031B'
	markAcute      = '\u0301'
	markGrave      = '\u0300'
	markHook       = '\u0309'
	markTilde      = '\u0303'
	markDotBelow   = '\u0323'
)

var modifierMarks = [...]rune{0, markCircumflex, markBreve, markHorn}
var toneMarks = [...]rune{0, markAcute, markGrave, markHook, markTilde, markDotBelow}

const (
	vowels        = "aeiouy"
	modifierCount = len(modifierMarks)
	toneCount     = len(toneMarks)
)

type rendered struct {
	nfc string
	nfd string
}

var renderTable [len(vowels)][modifierCount][toneCount][2]rendered

func init() {
	for vi, v := range vowels {
		for m := 0; m < modifierCount; m++ {
			for t := 0; t < toneCount; t++ {
				for caps := 0; caps < 2; caps++ {
					base := v
					if caps == 1 {
						base = unicode.ToUpper(v)
					}
					seq := []rune{base}
					if m != 0 && (Char{Base: v}).Accepts(Modifier(m)) {
						seq = append(seq, modifierMarks[m])
					}
					if t != 0 {
						seq = append(seq, toneMarks[t])
					}
					s := string(seq)
					renderTable[vi][m][t][caps] = rendered{
						nfc: norm.NFC.String(s),
						nfd: norm.NFD.String(s),
					}
				}
			}
		}
	}
}

func vowelIndex(r rune) int {
	for i, v := range vowels {
		if v == r {
			return i
		}
	}
	return -1
}

// Decompose splits composed Vietnamese text into characters. It reports
// false when s contains anything other than ASCII letters and digits with
// Vietnamese diacritics.
func Decompose(s string) ([]Char, bool) {
	var out []Char
	for _, r := range norm.NFD.String(s) {
		switch r {
		case markCircumflex, markBreve, markHorn:
			if len(out) == 0 {
				return nil, false
			}
			last := &out[len(out)-1]
			switch r {
			case markCircumflex:
				last.Modifier = ModCircumflex
			case markBreve:
				last.Modifier = ModBreve
			default:
				last.Modifier = ModHorn
			}
			if !last.Accepts(last.Modifier) {
				return nil, false
			}
			continue
		case markAcute, markGrave, markHook, markTilde, markDotBelow:
			if len(out) == 0 || !out[len(out)-1].IsVowel() {
				return nil, false
			}
			out[len(out)-1].Tone = toneForMark(r)
			continue
		case 'đ', 'Đ':
			out = append(out, Char{Base: 'd', Stroke: true, Caps: r == 'Đ'})
			continue
		}
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return nil, false
		}
		out = append(out, NewChar(r))
	}
	return out, true
}

func toneForMark(r rune) Tone {
	for i, m := range toneMarks {
		if m == r && i != 0 {
			return Tone(i)
		}
	}
	return ToneNone
}
