// Package keys defines the virtual key codes the engine accepts and
// classifies a keystroke into a closed set of semantic actions.
//
// Key codes follow the macOS virtual keycode layout, which is what the
// native frontends deliver. Other frontends translate into it with
// FromASCII.
package keys

import "unicode"

// Code is a virtual key code.
type Code uint16

// Letter keys.
const (
	A Code = 0
	S Code = 1
	D Code = 2
	F Code = 3
	H Code = 4
	G Code = 5
	Z Code = 6
	X Code = 7
	C Code = 8
	V Code = 9
	B Code = 11
	Q Code = 12
	W Code = 13
	E Code = 14
	R Code = 15
	Y Code = 16
	T Code = 17
	O Code = 31
	U Code = 32
	I Code = 34
	P Code = 35
	L Code = 37
	J Code = 38
	K Code = 40
	N Code = 45
	M Code = 46
)

// Digit keys.
const (
	N1 Code = 18
	N2 Code = 19
	N3 Code = 20
	N4 Code = 21
	N6 Code = 22
	N5 Code = 23
	N9 Code = 25
	N7 Code = 26
	N8 Code = 28
	N0 Code = 29
)

// Punctuation keys.
const (
	Equal        Code = 24
	Minus        Code = 27
	RightBracket Code = 30
	LeftBracket  Code = 33
	Quote        Code = 39
	Semicolon    Code = 41
	Backslash    Code = 42
	Comma        Code = 43
	Slash        Code = 44
	Dot          Code = 47
	Backquote    Code = 50
)

// Control keys.
const (
	Return Code = 36
	Tab    Code = 48
	Space  Code = 49
	Delete Code = 51
	Esc    Code = 53
	Enter  Code = 76
	Left   Code = 123
	Right  Code = 124
	Down   Code = 125
	Up     Code = 126
)

type keyInfo struct {
	lower rune
	upper rune
}

var layout = map[Code]keyInfo{
	A: {'a', 'A'}, B: {'b', 'B'}, C: {'c', 'C'}, D: {'d', 'D'}, E: {'e', 'E'},
	F: {'f', 'F'}, G: {'g', 'G'}, H: {'h', 'H'}, I: {'i', 'I'}, J: {'j', 'J'},
	K: {'k', 'K'}, L: {'l', 'L'}, M: {'m', 'M'}, N: {'n', 'N'}, O: {'o', 'O'},
	P: {'p', 'P'}, Q: {'q', 'Q'}, R: {'r', 'R'}, S: {'s', 'S'}, T: {'t', 'T'},
	U: {'u', 'U'}, V: {'v', 'V'}, W: {'w', 'W'}, X: {'x', 'X'}, Y: {'y', 'Y'},
	Z: {'z', 'Z'},

	N1: {'1', '!'}, N2: {'2', '@'}, N3: {'3', '#'}, N4: {'4', '$'}, N5: {'5', '%'},
	N6: {'6', '^'}, N7: {'7', '&'}, N8: {'8', '*'}, N9: {'9', '('}, N0: {'0', ')'},

	Equal: {'=', '+'}, Minus: {'-', '_'}, RightBracket: {']', '}'},
	LeftBracket: {'[', '{'}, Quote: {'\'', '"'}, Semicolon: {';', ':'},
	Backslash: {'\\', '|'}, Comma: {',', '<'}, Slash: {'/', '?'},
	Dot: {'.', '>'}, Backquote: {'`', '~'},

	Space: {' ', ' '}, Tab: {'\t', '\t'}, Return: {'\n', '\n'}, Enter: {'\n', '\n'},
}

var reverse = func() map[rune]Code {
	m := make(map[rune]Code, len(layout)*2)
	for code, info := range layout {
		if code == Enter {
			continue
		}
		m[info.lower] = code
		if info.upper != info.lower {
			m[info.upper] = code
		}
	}
	return m
}()

// IsLetter reports whether code is an alphabetic key.
func IsLetter(code Code) bool {
	info, ok := layout[code]
	return ok && info.lower >= 'a' && info.lower <= 'z'
}

// Digit returns the numeric value of a digit key.
func Digit(code Code) (int, bool) {
	info, ok := layout[code]
	if !ok || info.lower < '0' || info.lower > '9' {
		return 0, false
	}
	return int(info.lower - '0'), true
}

// IsPunctuation reports whether code produces a printable symbol.
func IsPunctuation(code Code) bool {
	switch code {
	case Equal, Minus, RightBracket, LeftBracket, Quote, Semicolon,
		Backslash, Comma, Slash, Dot, Backquote:
		return true
	}
	return false
}

// Char returns the character a key produces under a US layout.
// Letters follow caps; digits and punctuation follow shift.
func Char(code Code, caps, shift bool) (rune, bool) {
	info, ok := layout[code]
	if !ok {
		return 0, false
	}
	if IsLetter(code) {
		if caps {
			return info.upper, true
		}
		return info.lower, true
	}
	if shift {
		return info.upper, true
	}
	return info.lower, true
}

// FromASCII maps a character to its key code and caps state. Control
// characters map to the matching control key.
func FromASCII(r rune) (code Code, caps bool, ok bool) {
	switch r {
	case 0x08, 0x7f:
		return Delete, false, true
	case '\r', '\n':
		return Return, false, true
	case 0x1b:
		return Esc, false, true
	}
	code, ok = reverse[r]
	if !ok {
		return 0, false, false
	}
	return code, unicode.IsUpper(r), true
}

// IsShifted reports whether a non-letter character needs shift to type.
func IsShifted(r rune) bool {
	code, ok := reverse[r]
	if !ok || IsLetter(code) {
		return false
	}
	return layout[code].upper == r && layout[code].lower != r
}
