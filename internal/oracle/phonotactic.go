package oracle

import "strings"

// Phonotactic flags raw keystrokes holding letter sequences that no
// Vietnamese syllable, nor its Telex or VNI spelling, can contain: English
// onsets such as "wh" or "str", doubled consonants, consonant clusters
// closing on l and the -tion/-sion endings.
//
// Tone, modifier and stroke keys never count as cluster members, so dd,
// ss, ww and a final followed by a tone key stay Vietnamese. VNI digits
// are ignored.
type Phonotactic struct{}

const (
	// doubled lists the consonants that never repeat in a Telex spelling.
	// d (stroke), c and g (shortcut spellings) are left out.
	doubled = "bhklmnpqtv"
	// clusterHeads are consonants that cannot start a Vietnamese onset
	// when followed by another consonant.
	clusterHeads = "bcdghklmnpqtv"
	vowelLetters = "aeiouy"
)

// IsForeign implements Oracle.
func (Phonotactic) IsForeign(raw string) bool {
	w := letters(raw)
	if len(w) < 2 {
		return false
	}
	return foreignOnset(w) || foreignCluster(w) || foreignEnding(w)
}

func letters(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i] | 0x20
		if c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && strings.IndexByte(vowelLetters, c) < 0
}

func foreignOnset(w string) bool {
	switch w[0] {
	case 'e':
		// e followed by the x tone key and a consonant: export, extra.
		return len(w) >= 3 && w[1] == 'x' && strings.IndexByte(clusterHeads, w[2]) >= 0
	case 'w':
		// A leading w is ư in Telex, which never precedes these.
		return strings.IndexByte("eihl", w[1]) >= 0
	case 's':
		return strings.IndexByte(clusterHeads, w[1]) >= 0
	case 'b', 'c', 'd', 'f', 'g', 'k', 'p', 'v':
		if w[1] == 'r' {
			return true
		}
	}
	for _, onset := range [...]string{"thr", "chr", "phr", "kn", "gn", "pn", "ps", "pt", "mn"} {
		if strings.HasPrefix(w, onset) {
			return true
		}
	}
	return false
}

func foreignCluster(w string) bool {
	for i := 0; i+1 < len(w); i++ {
		a, b := w[i], w[i+1]
		switch {
		case a == b && strings.IndexByte(doubled, a) >= 0:
			return true
		case b == 'l' && isConsonant(a):
			return true
		case a == 'c' && b == 'k':
			return true
		case a == 'g' && b == 'h' && i > 0 && w[i-1] != 'n':
			return true
		}
	}
	return false
}

func foreignEnding(w string) bool {
	return len(w) >= 4 && (strings.HasSuffix(w, "tion") || strings.HasSuffix(w, "sion"))
}
