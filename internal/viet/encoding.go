package viet

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encoding is a charset committed text can be converted to for hosts that
// predate Unicode. The numeric values are stable across the C ABI.
type Encoding uint8

// Encodings.
const (
	EncodingUnicode Encoding = iota
	// EncodingTCVN3 is the single-byte TCVN 5712 VN3 (ABC) charset.
	EncodingTCVN3
	// EncodingVNI is the VNI-Windows font encoding: a base letter followed
	// by one byte for its marks.
	EncodingVNI
	// EncodingCP1258 is Windows-1258: precomposed where the code page has
	// the letter, a combining tone mark otherwise.
	EncodingCP1258
)

var encodingNames = [...]string{"unicode", "tcvn3", "vni", "cp1258"}

func (e Encoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return "unknown"
}

// ParseEncoding maps a configuration string to an Encoding.
func ParseEncoding(s string) (Encoding, bool) {
	switch s {
	case "", "unicode", "utf8", "utf-8":
		return EncodingUnicode, true
	case "tcvn3", "abc":
		return EncodingTCVN3, true
	case "vni", "vni-windows":
		return EncodingVNI, true
	case "cp1258", "windows-1258":
		return EncodingCP1258, true
	}
	return EncodingUnicode, false
}

// EncodingByID maps a numeric encoding to an Encoding.
func EncodingByID(id int) (Encoding, bool) {
	if id < 0 || id >= len(encodingNames) {
		return EncodingUnicode, false
	}
	return Encoding(id), true
}

// unmappable replaces characters a legacy charset cannot hold.
const unmappable = '?'

// Encode converts text to enc. Unicode input may be in either
// normalization form.
func Encode(text string, enc Encoding) []byte {
	if enc == EncodingUnicode {
		return []byte(text)
	}
	text = norm.NFC.String(text)
	out := make([]byte, 0, len(text)+len(text)/2)
	for _, r := range text {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		switch enc {
		case EncodingTCVN3:
			out = appendTCVN3(out, r)
		case EncodingVNI:
			out = appendVNI(out, r)
		case EncodingCP1258:
			out = appendCP1258(out, r)
		default:
			out = append(out, unmappable)
		}
	}
	return out
}

// letterOf returns the Vietnamese letter a precomposed rune renders.
func letterOf(r rune) (Char, bool) {
	chars, ok := Decompose(string(r))
	if !ok || len(chars) != 1 {
		return Char{}, false
	}
	return chars[0], true
}

// Rows of the TCVN3 and VNI tables.
const (
	rowA = iota
	rowABreve
	rowACircumflex
	rowE
	rowECircumflex
	rowI
	rowO
	rowOCircumflex
	rowOHorn
	rowU
	rowUHorn
	rowY
	rowCount
)

func row(c Char) int {
	switch c.Base {
	case 'a':
		switch c.Modifier {
		case ModBreve:
			return rowABreve
		case ModCircumflex:
			return rowACircumflex
		}
		return rowA
	case 'e':
		if c.Modifier == ModCircumflex {
			return rowECircumflex
		}
		return rowE
	case 'i':
		return rowI
	case 'o':
		switch c.Modifier {
		case ModCircumflex:
			return rowOCircumflex
		case ModHorn:
			return rowOHorn
		}
		return rowO
	case 'u':
		if c.Modifier == ModHorn {
			return rowUHorn
		}
		return rowU
	case 'y':
		return rowY
	}
	return -1
}

// tcvn3 is indexed by row and tone. Uppercase letters with a tone have no
// code of their own: the VN3 capital fonts draw the lowercase codes.
var tcvn3 = [rowCount][toneCount]byte{
	rowA:           {'a', 0xB8, 0xB5, 0xB6, 0xB7, 0xB9},
	rowABreve:      {0xA8, 0xBE, 0xBB, 0xBC, 0xBD, 0xC6},
	rowACircumflex: {0xA9, 0xCA, 0xC7, 0xC8, 0xC9, 0xCB},
	rowE:           {'e', 0xD0, 0xCC, 0xCE, 0xCF, 0xD1},
	rowECircumflex: {0xAA, 0xD5, 0xD2, 0xD3, 0xD4, 0xD6},
	rowI:           {'i', 0xDD, 0xD7, 0xD8, 0xDC, 0xDE},
	rowO:           {'o', 0xE3, 0xDF, 0xE1, 0xE2, 0xE4},
	rowOCircumflex: {0xAB, 0xE8, 0xE5, 0xE6, 0xE7, 0xE9},
	rowOHorn:       {0xAC, 0xED, 0xEA, 0xEB, 0xEC, 0xEE},
	rowU:           {'u', 0xF3, 0xEF, 0xF1, 0xF2, 0xF4},
	rowUHorn:       {0xAD, 0xF8, 0xF5, 0xF6, 0xF7, 0xF9},
	rowY:           {'y', 0xFD, 0xFA, 0xFB, 0xFC, 0xFE},
}

// tcvn3Capitals holds the uppercase letters VN3 does encode.
var tcvn3Capitals = [rowCount]byte{
	rowABreve:      0xA1,
	rowACircumflex: 0xA2,
	rowECircumflex: 0xA3,
	rowOCircumflex: 0xA4,
	rowOHorn:       0xA5,
	rowUHorn:       0xA6,
}

func appendTCVN3(out []byte, r rune) []byte {
	c, ok := letterOf(r)
	if !ok {
		return append(out, unmappable)
	}
	if c.Stroke {
		if c.Caps {
			return append(out, 0xA7)
		}
		return append(out, 0xAE)
	}
	i := row(c)
	if i < 0 {
		return append(out, unmappable)
	}
	if c.Caps && c.Tone == ToneNone && tcvn3Capitals[i] != 0 {
		return append(out, tcvn3Capitals[i])
	}
	return append(out, tcvn3[i][c.Tone])
}

// VNI-Windows mark bytes for lowercase letters. The capital form of every
// mark byte is 0x20 lower.
var (
	vniTone       = [toneCount]byte{0, 0xF9, 0xF8, 0xFB, 0xF5, 0xEF}
	vniCircumflex = [toneCount]byte{0xE2, 0xE1, 0xE0, 0xE5, 0xE3, 0xE4}
	vniBreve      = [toneCount]byte{0xEA, 0xE9, 0xE8, 0xFA, 0xFC, 0xEB}
	// i and the dotted y are single bytes.
	vniI = [toneCount]byte{'i', 0xED, 0xEC, 0xE6, 0xF3, 0xF2}
)

const (
	vniOHorn  = 0xF4
	vniUHorn  = 0xF6
	vniStroke = 0xF1
	vniYDot   = 0xEE
	vniCaps   = 0x20
)

func appendVNI(out []byte, r rune) []byte {
	c, ok := letterOf(r)
	if !ok {
		return append(out, unmappable)
	}
	capital := func(b byte) byte {
		if c.Caps && b >= 0x80 {
			return b - vniCaps
		}
		return b
	}
	base := byte(c.Letter())

	switch {
	case c.Stroke:
		return append(out, capital(vniStroke))
	case c.Base == 'i' && c.Tone != ToneNone:
		return append(out, capital(vniI[c.Tone]))
	case c.Base == 'y' && c.Tone == ToneNang:
		return append(out, capital(vniYDot))
	case c.Modifier == ModCircumflex:
		return append(out, base, capital(vniCircumflex[c.Tone]))
	case c.Modifier == ModBreve:
		return append(out, base, capital(vniBreve[c.Tone]))
	case c.Modifier == ModHorn:
		horn := byte(vniUHorn)
		if c.Base == 'o' {
			horn = vniOHorn
		}
		out = append(out, capital(horn))
	default:
		out = append(out, base)
	}
	if c.Tone != ToneNone {
		out = append(out, capital(vniTone[c.Tone]))
	}
	return out
}

func appendCP1258(out []byte, r rune) []byte {
	cp := charmap.Windows1258
	if b, ok := cp.EncodeRune(r); ok {
		return append(out, b)
	}
	c, ok := letterOf(r)
	if !ok || c.Tone == ToneNone {
		return append(out, unmappable)
	}
	tone := c.Tone
	c.Tone = ToneNone
	b, ok := cp.EncodeRune(c.Rune())
	if !ok {
		return append(out, unmappable)
	}
	mark, ok := cp.EncodeRune(toneMarks[tone])
	if !ok {
		return append(out, unmappable)
	}
	return append(out, b, mark)
}
