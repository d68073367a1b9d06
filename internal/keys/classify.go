package keys

import (
	"strings"

	"vietime/internal/viet"
)

// Scheme is a mnemonic input scheme.
type Scheme uint8

// Schemes.
const (
	Telex Scheme = iota
	VNI
)

func (s Scheme) String() string {
	if s == VNI {
		return "vni"
	}
	return "telex"
}

// ParseScheme maps a configuration string to a Scheme.
func ParseScheme(s string) (Scheme, bool) {
	switch strings.ToLower(s) {
	case "telex", "":
		return Telex, true
	case "vni":
		return VNI, true
	}
	return Telex, false
}

// Kind enumerates the semantic actions a keystroke can have.
type Kind uint8

// Action kinds.
const (
	KindOther Kind = iota
	KindLetter
	KindTone
	KindToneRemoval
	KindModifier
	KindStroke
	KindBackspace
	KindWordDelete
	KindCommit
	KindEscRestore
)

var kindNames = [...]string{
	"other", "letter", "tone", "tone-removal", "modifier", "stroke",
	"backspace", "word-delete", "commit", "esc-restore",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// CommitKind says which boundary key ended a word.
type CommitKind uint8

// Commit kinds.
const (
	CommitSpace CommitKind = iota
	CommitEnter
	CommitPunctuation
	CommitTab
)

// Action is the classified meaning of one keystroke.
type Action struct {
	Kind Kind
	Code Code
	// Char is the literal character of the key. Transform keys that cannot
	// apply fall back to inserting it.
	Char rune
	Caps bool

	Tone     viet.Tone
	Modifier viet.Modifier
	// Target limits a modifier to one base vowel (Telex doubled vowels).
	// Zero means any eligible vowel.
	Target rune
	// Flex marks the Telex w key: horn on o/u, breve on a.
	Flex bool

	Commit CommitKind
}

// Transform reports whether the action asks for a diacritic change.
func (a Action) Transform() bool {
	switch a.Kind {
	case KindTone, KindToneRemoval, KindModifier, KindStroke:
		return true
	}
	return false
}

var telexTones = map[rune]viet.Tone{
	's': viet.ToneSac,
	'f': viet.ToneHuyen,
	'r': viet.ToneHoi,
	'x': viet.ToneNga,
	'j': viet.ToneNang,
}

var vniTones = [...]viet.Tone{
	1: viet.ToneSac,
	2: viet.ToneHuyen,
	3: viet.ToneHoi,
	4: viet.ToneNga,
	5: viet.ToneNang,
}

// Classify maps a raw keystroke to its action under scheme. It never
// fails: unknown codes classify as KindOther.
func Classify(code Code, caps, ctrl, shift bool, scheme Scheme) Action {
	a := Action{Kind: KindOther, Code: code, Caps: caps}

	switch code {
	case Delete:
		if ctrl {
			a.Kind = KindWordDelete
		} else {
			a.Kind = KindBackspace
		}
		return a
	case Esc:
		a.Kind = KindEscRestore
		return a
	}
	if ctrl {
		return a
	}

	switch code {
	case Space:
		a.Kind, a.Commit, a.Char = KindCommit, CommitSpace, ' '
		return a
	case Return, Enter:
		a.Kind, a.Commit, a.Char = KindCommit, CommitEnter, '\n'
		return a
	case Tab:
		a.Kind, a.Commit, a.Char = KindCommit, CommitTab, '\t'
		return a
	}

	if IsLetter(code) {
		a.Char, _ = Char(code, caps, shift)
		a.Kind = KindLetter
		if scheme == Telex {
			classifyTelex(&a)
		}
		return a
	}

	if d, ok := Digit(code); ok {
		a.Char, _ = Char(code, caps, shift)
		if scheme == VNI && !shift {
			classifyVNI(&a, d)
			return a
		}
		a.Kind, a.Commit = KindCommit, CommitPunctuation
		return a
	}

	if IsPunctuation(code) {
		a.Char, _ = Char(code, caps, shift)
		a.Kind, a.Commit = KindCommit, CommitPunctuation
	}
	return a
}

func classifyTelex(a *Action) {
	lower := a.Char | 0x20
	if t, ok := telexTones[lower]; ok {
		a.Kind, a.Tone = KindTone, t
		return
	}
	switch lower {
	case 'z':
		a.Kind = KindToneRemoval
	case 'a', 'e', 'o':
		a.Kind, a.Modifier, a.Target = KindModifier, viet.ModCircumflex, lower
	case 'w':
		a.Kind, a.Modifier, a.Flex = KindModifier, viet.ModHorn, true
	case 'd':
		a.Kind = KindStroke
	}
}

func classifyVNI(a *Action, d int) {
	switch {
	case d >= 1 && d <= 5:
		a.Kind, a.Tone = KindTone, vniTones[d]
	case d == 0:
		a.Kind = KindToneRemoval
	case d == 6:
		a.Kind, a.Modifier = KindModifier, viet.ModCircumflex
	case d == 7:
		a.Kind, a.Modifier = KindModifier, viet.ModHorn
	case d == 8:
		a.Kind, a.Modifier = KindModifier, viet.ModBreve
	case d == 9:
		a.Kind = KindStroke
	}
}
