package compose

import (
	"slices"

	"vietime/internal/viet"
)

// HistorySize is the number of committed words remembered.
const HistorySize = 20

// historyEntry is a committed word: its buffers, its flags and the exact
// text that was left on screen, commit character included.
type historyEntry struct {
	chars       []viet.Char
	raw         []rawEntry
	screen      string
	foreign     bool
	transformed bool
}

// History is a bounded ring of committed words. Pushing onto a full ring
// evicts the oldest entry.
type History struct {
	ring [HistorySize]historyEntry
	head int // next write position
	n    int
}

func (h *History) push(e historyEntry) {
	e.chars = slices.Clone(e.chars)
	e.raw = slices.Clone(e.raw)
	h.ring[h.head] = e
	h.head = (h.head + 1) % HistorySize
	if h.n < HistorySize {
		h.n++
	}
}

func (h *History) pop() (historyEntry, bool) {
	if h.n == 0 {
		return historyEntry{}, false
	}
	h.head = (h.head - 1 + HistorySize) % HistorySize
	e := h.ring[h.head]
	h.ring[h.head] = historyEntry{}
	h.n--
	return e, true
}

// Len returns the number of remembered words.
func (h *History) Len() int { return h.n }

// Clear forgets every word.
func (h *History) Clear() { *h = History{} }
