// Package oracle provides pluggable foreign-word oracles.
//
// An oracle looks at the literal keystrokes typed so far for a word and
// says whether they spell a word that should not be transformed as
// Vietnamese. The engine consults it before applying a tone, modifier or
// stroke and after every letter, and a nil oracle never objects.
package oracle

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Oracle judges raw keystroke text.
type Oracle interface {
	IsForeign(raw string) bool
}

// Func adapts a plain function to Oracle.
type Func func(raw string) bool

// IsForeign calls f.
func (f Func) IsForeign(raw string) bool { return f(raw) }

// Chain reports foreign when any member does. Nil members are skipped.
type Chain []Oracle

// IsForeign implements Oracle.
func (c Chain) IsForeign(raw string) bool {
	for _, o := range c {
		if o != nil && o.IsForeign(raw) {
			return true
		}
	}
	return false
}

// MaxWordLen bounds stored words. Longer words cannot fit the
// composition buffer's practical range and are ignored.
const MaxWordLen = 32

// WordList is a length-bucketed set of lowercase ASCII words. Each bucket
// is kept sorted so lookups are binary searches.
type WordList struct {
	buckets [MaxWordLen + 1][]string
	n       int
}

// NewWordList returns a list holding words.
func NewWordList(words ...string) *WordList {
	w := &WordList{}
	for _, word := range words {
		w.Add(word)
	}
	return w
}

// Normalize lowercases word and reports whether a WordList can store it.
func Normalize(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if len(word) < 2 || len(word) > MaxWordLen {
		return "", false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return "", false
		}
	}
	return word, true
}

// Add inserts word and reports whether it was new. Words shorter than two
// letters, longer than MaxWordLen or containing non-letters are ignored.
func (w *WordList) Add(word string) bool {
	word, ok := Normalize(word)
	if !ok {
		return false
	}
	b := w.buckets[len(word)]
	i, found := slices.BinarySearch(b, word)
	if found {
		return false
	}
	w.buckets[len(word)] = slices.Insert(b, i, word)
	w.n++
	return true
}

// Len returns the number of words.
func (w *WordList) Len() int {
	if w == nil {
		return 0
	}
	return w.n
}

// Contains reports whether word is in the list exactly.
func (w *WordList) Contains(word string) bool {
	if w == nil {
		return false
	}
	word = strings.ToLower(word)
	if len(word) > MaxWordLen {
		return false
	}
	_, found := slices.BinarySearch(w.buckets[len(word)], word)
	return found
}

// IsForeign reports whether raw is a listed word. Only whole words match:
// a listed word's prefix is often a legal Vietnamese spelling in its own
// right ("ban" of "banana").
func (w *WordList) IsForeign(raw string) bool {
	if w == nil || w.n == 0 {
		return false
	}
	return w.Contains(raw)
}

// Words returns the listed words of length n in sorted order.
func (w *WordList) Words(n int) []string {
	if w == nil || n < 0 || n > MaxWordLen {
		return nil
	}
	return slices.Clone(w.buckets[n])
}

// ReadFrom adds one word per line from r. Blank lines and lines starting
// with # are skipped.
func (w *WordList) ReadFrom(r io.Reader) (int64, error) {
	sc := bufio.NewScanner(r)
	var added int64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if w.Add(line) {
			added++
		}
	}
	if err := sc.Err(); err != nil {
		return added, fmt.Errorf("read word list: %w", err)
	}
	return added, nil
}
