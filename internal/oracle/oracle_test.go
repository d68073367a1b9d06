package oracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordListAdd(t *testing.T) {
	w := NewWordList("test", "Bank", "test", "a", "co-op", strings.Repeat("x", MaxWordLen+1))

	assert.Equal(t, 2, w.Len())
	assert.True(t, w.Contains("bank"))
	assert.True(t, w.Contains("TEST"))
	assert.False(t, w.Add("bank"))
	assert.True(t, w.Add("of"))
	assert.Equal(t, []string{"bank", "test"}, w.Words(4))
}

func TestWordListIsForeign(t *testing.T) {
	w := NewWordList("test", "string", "of", "window")

	tests := []struct {
		raw  string
		want bool
	}{
		{"of", true},
		{"o", false},
		{"te", false},
		{"tes", false},
		{"test", true},
		{"tests", false},
		{"str", false},
		{"string", true},
		{"wind", false},
		{"window", true},
		{"Test", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, w.IsForeign(tt.raw))
		})
	}
}

func TestWordListKeepsVietnamesePrefixes(t *testing.T) {
	w := NewWordList("banana", "control", "tail", "mayday")

	for _, raw := range []string{"ban", "bans", "con", "cons", "tai", "taif", "may", "mays"} {
		assert.False(t, w.IsForeign(raw), raw)
	}
	assert.True(t, w.IsForeign("banana"))
}

func TestNilWordList(t *testing.T) {
	var w *WordList
	assert.False(t, w.IsForeign("test"))
	assert.Equal(t, 0, w.Len())
	assert.Nil(t, w.Words(4))
}

func TestChain(t *testing.T) {
	c := Chain{
		nil,
		NewWordList("hello"),
		Func(func(raw string) bool { return strings.HasSuffix(raw, "q") }),
	}

	assert.True(t, c.IsForeign("hello"))
	assert.False(t, c.IsForeign("hel"))
	assert.True(t, c.IsForeign("abq"))
	assert.False(t, c.IsForeign("viet"))
	assert.False(t, Chain{}.IsForeign("anything"))
}

func TestReadFrom(t *testing.T) {
	w := NewWordList()
	n, err := w.ReadFrom(strings.NewReader("# common words\nhello\n\nworld\nhello\n  tab  \n"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 3, w.Len())
	assert.True(t, w.Contains("tab"))
}

func TestPhonotactic(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"wi", true},
		{"windows", true},
		{"exp", true},
		{"export", true},
		{"googl", true},
		{"google", true},
		{"shop", true},
		{"street", true},
		{"bring", true},
		{"three", true},
		{"knife", true},
		{"hello", true},
		{"back", true},
		{"night", true},
		{"action", true},
		{"vision", true},
		{"Windows", true},
		// Telex spellings of Vietnamese words.
		{"w", false},
		{"ws", false},
		{"wa", false},
		{"exo", false},
		{"exj", false},
		{"tas", false},
		{"test", false},
		{"vieetj", false},
		{"nguwowif", false},
		{"dduwowngf", false},
		{"truwowngf", false},
		{"nghieeng", false},
		{"ghees", false},
		{"khoong", false},
		{"ddaauf", false},
		{"tass", false},
		{"cungx", false},
		{"songaa", false},
		{"thw", false},
		{"sw", false},
		// VNI digits are skipped.
		{"vie65t", false},
		{"d9a6u2", false},
		{"", false},
	}

	var p Phonotactic
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsForeign(tt.raw))
		})
	}
}
