package syllable

import "vietime/internal/viet"

var initials = []string{
	"b", "c", "ch", "d", "đ", "g", "gh", "gi", "h", "k", "kh", "l", "m",
	"n", "ng", "ngh", "nh", "p", "ph", "qu", "r", "s", "t", "th", "tr", "v", "x",
}

var finals = []string{"c", "ch", "m", "n", "ng", "nh", "p", "t"}

// finalRule says whether a nucleus may, must, or must not be closed by a
// final consonant.
type finalRule uint8

const (
	finalOptional finalRule = iota
	finalRequired
	finalForbidden
)

type nucleus struct {
	chars []viet.Char
	rule  finalRule
}

var nucleusSpecs = []struct {
	text string
	rule finalRule
}{
	{"a", finalOptional}, {"ă", finalRequired}, {"â", finalRequired},
	{"e", finalOptional}, {"ê", finalOptional}, {"i", finalOptional},
	{"o", finalOptional}, {"ô", finalOptional}, {"ơ", finalOptional},
	{"u", finalOptional}, {"ư", finalOptional}, {"y", finalOptional},

	{"ai", finalForbidden}, {"ao", finalForbidden}, {"au", finalForbidden},
	{"ay", finalForbidden}, {"âu", finalForbidden}, {"ây", finalForbidden},
	{"eo", finalForbidden}, {"êu", finalForbidden}, {"ia", finalForbidden},
	{"iê", finalRequired}, {"iu", finalForbidden}, {"oa", finalOptional},
	{"oă", finalRequired}, {"oe", finalOptional}, {"oi", finalForbidden},
	{"ôi", finalForbidden}, {"ơi", finalForbidden}, {"oo", finalRequired},
	{"ua", finalForbidden}, {"uâ", finalRequired}, {"uê", finalOptional},
	{"ui", finalForbidden}, {"uô", finalRequired}, {"uơ", finalForbidden},
	{"uy", finalOptional}, {"ưa", finalForbidden}, {"ưi", finalForbidden},
	{"ươ", finalRequired}, {"ưu", finalForbidden}, {"yê", finalRequired},

	{"iêu", finalForbidden}, {"yêu", finalForbidden}, {"oai", finalForbidden},
	{"oay", finalForbidden}, {"oao", finalForbidden}, {"oeo", finalForbidden},
	{"uây", finalForbidden}, {"uôi", finalForbidden}, {"uya", finalForbidden},
	{"uyê", finalRequired}, {"uyu", finalForbidden}, {"ươi", finalForbidden},
	{"ươu", finalForbidden},
}

var (
	nuclei         []nucleus
	initialSet     = map[string]bool{}
	initialPrefix  = map[string]bool{}
	finalSet       = map[string]bool{}
	finalPrefix    = map[string]bool{}
	maxNucleusSize int
)

func init() {
	for _, s := range nucleusSpecs {
		chars, ok := viet.Decompose(s.text)
		if !ok {
			panic("syllable: bad nucleus " + s.text)
		}
		nuclei = append(nuclei, nucleus{chars: chars, rule: s.rule})
		maxNucleusSize = max(maxNucleusSize, len(chars))
	}
	for _, s := range initials {
		initialSet[s] = true
		addPrefixes(initialPrefix, s)
	}
	for _, s := range finals {
		finalSet[s] = true
		addPrefixes(finalPrefix, s)
	}
}

func addPrefixes(m map[string]bool, s string) {
	r := []rune(s)
	for i := 1; i <= len(r); i++ {
		m[string(r[:i])] = true
	}
}

// matches reports whether cur agrees with pattern on its first len(cur)
// positions. A vowel without a modifier matches any modifier so that
// syllables stay legal while their diacritics are still being typed.
func matches(cur, pattern []viet.Char) bool {
	if len(cur) > len(pattern) {
		return false
	}
	for i, c := range cur {
		p := pattern[i]
		if c.Base != p.Base {
			return false
		}
		if c.Modifier != viet.ModNone && c.Modifier != p.Modifier {
			return false
		}
	}
	return true
}

// spellingOK applies the c/k, g/gh and ng/ngh spelling rules.
func spellingOK(initial string, first viet.Char) bool {
	front := first.Base == 'e' || first.Base == 'i' || first.Base == 'y'
	switch initial {
	case "k", "gh", "ngh":
		return front
	case "c", "ng":
		return !front
	case "g":
		return first.Base != 'e' && first.Base != 'y'
	}
	return true
}
