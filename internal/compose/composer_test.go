package compose

import (
	"strings"
	"testing"

	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"vietime/internal/keys"
	"vietime/internal/oracle"
	"vietime/internal/shortcut"
	"vietime/internal/syllable"
	"vietime/internal/viet"
)

// line mimics a host text field: results are applied to it, and keys the
// composer lets through are typed natively.
type line struct {
	text string
	last Result
}

func dropGraphemes(s string, n int) string {
	if n <= 0 {
		return s
	}
	var bounds []int
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		from, _ := g.Positions()
		bounds = append(bounds, from)
	}
	if n >= len(bounds) {
		return ""
	}
	return s[:bounds[len(bounds)-n]]
}

func (l *line) apply(r Result, key rune) {
	l.last = r
	if r.Action != ActionNone {
		l.text = dropGraphemes(l.text, r.Backspace) + string(r.Chars)
		return
	}
	switch key {
	case '\b':
		l.text = dropGraphemes(l.text, 1)
	case 0x1b:
	default:
		l.text += string(key)
	}
}

func press(t *testing.T, c *Composer, l *line, input string) {
	t.Helper()
	for _, r := range input {
		code, caps, ok := keys.FromASCII(r)
		require.True(t, ok, "unmapped key %q", r)
		a := keys.Classify(code, caps, false, keys.IsShifted(r), c.Options().Scheme)
		l.apply(c.Apply(a), r)
	}
}

func typed(t *testing.T, opts Options, input string) (*Composer, *line) {
	t.Helper()
	c := New(opts)
	l := &line{}
	press(t, c, l, input)
	return c, l
}

func telex() Options { return DefaultOptions() }

func vni() Options {
	o := DefaultOptions()
	o.Scheme = keys.VNI
	return o
}

func TestTelexWords(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"tas", "tá"},
		{"vieetj", "việt"},
		{"nguwowif", "người"},
		{"nguoiwf", "người"},
		{"dduwowngf", "đường"},
		{"ddaays", "đấy"},
		{"hoaf", "hoà"},
		{"thuys", "thuý"},
		{"quoocs", "quốc"},
		{"gias", "giá"},
		{"khuyeenr", "khuyển"},
		{"ruwowuj", "rượu"},
		{"tieengs", "tiếng"},
		{"Vieetj", "Việt"},
		{"VIEETJ", "VIỆT"},
		{"w", "ư"},
		{"tw", "tư"},
		{"ww", "w"},
		{"uw", "ư"},
		{"oaw", "oă"},
		{"muaw", "mưa"},
		{"quaw", "quă"},
		{"ass", "as"},
		{"aaa", "aa"},
		{"ddd", "dd"},
		{"uww", "uw"},
		{"asf", "à"},
		{"tasz", "ta"},
		{"taz", "ta"},
		{"tazz", "ta"},
		{"vieje", "việ"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, l := typed(t, telex(), tt.input)
			assert.Equal(t, tt.want, l.text)
			assert.Equal(t, tt.want, c.Snapshot().Text)
		})
	}
}

func TestSkipWShortcut(t *testing.T) {
	o := telex()
	o.SkipWShortcut = true
	_, l := typed(t, o, "tw")
	assert.Equal(t, "tw", l.text)

	_, l = typed(t, o, "tuw")
	assert.Equal(t, "tư", l.text)
}

func TestVNIWords(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ta1", "tá"},
		{"ta10", "ta"},
		{"vie65t", "việt"},
		{"d9uo7ng2", "đường"},
		{"a8n", "ăn"},
		{"mu7a", "mưa"},
		{"hoa2", "hoà"},
		{"a66", "a6"},
		{"d99", "d9"},
		{"1", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, l := typed(t, vni(), tt.input)
			assert.Equal(t, tt.want, l.text)
		})
	}
}

func TestTraditionalStyle(t *testing.T) {
	o := telex()
	o.Style = syllable.Traditional

	_, l := typed(t, o, "hoaf")
	assert.Equal(t, "hòa", l.text)

	// A final consonant moves the tone onto the second vowel.
	_, l = typed(t, o, "hoafn")
	assert.Equal(t, "hoàn", l.text)

	_, l = typed(t, o, "thuys")
	assert.Equal(t, "thúy", l.text)
}

func TestToneRemoval(t *testing.T) {
	c, l := typed(t, telex(), "tas")
	require.Equal(t, "tá", l.text)

	press(t, c, l, "z")
	assert.Equal(t, "ta", l.text)

	// Removing an absent tone changes nothing.
	press(t, c, l, "z")
	assert.Equal(t, "ta", l.text)
	assert.Equal(t, ActionSend, l.last.Action)
	assert.Zero(t, l.last.Backspace)
	assert.Empty(t, l.last.Chars)
}

func TestToneReplaces(t *testing.T) {
	c, l := typed(t, telex(), "tasfrxj")
	assert.Equal(t, "tạ", l.text)

	tones := 0
	for _, ch := range c.Snapshot().Chars {
		if ch.Tone != viet.ToneNone {
			tones++
		}
	}
	assert.Equal(t, 1, tones)
}

func TestClosedFinalRejectsModifier(t *testing.T) {
	c, l := typed(t, telex(), "song")
	press(t, c, l, "o")
	assert.Equal(t, "song", l.text)
	assert.Equal(t, ActionSend, l.last.Action)
	assert.Equal(t, "songo", c.Snapshot().Raw)

	// A doubled vowel key finds no vowel to modify behind the final.
	c, l = typed(t, telex(), "songaa")
	assert.Equal(t, "song", l.text)
	assert.Equal(t, "songaa", c.Snapshot().Raw)
	assert.False(t, c.Snapshot().Foreign)

	_, l = typed(t, telex(), "songaa ")
	assert.Equal(t, "song ", l.text)

	// Without a final the same key is a letter.
	_, l = typed(t, telex(), "soa")
	assert.Equal(t, "soa", l.text)

	_, l = typed(t, vni(), "dan9")
	assert.Equal(t, "dan", l.text)
}

func TestBackspace(t *testing.T) {
	c, l := typed(t, telex(), "vieetj")
	require.Equal(t, "việt", l.text)

	press(t, c, l, "\b")
	assert.Equal(t, "việ", l.text)
	assert.Equal(t, Result{Action: ActionSend, Backspace: 1}, l.last)

	press(t, c, l, "\b\b\b")
	assert.Equal(t, "", l.text)
	assert.Zero(t, c.Len())
	assert.False(t, c.Snapshot().Foreign)
}

func TestBackspaceRepositionsTone(t *testing.T) {
	o := telex()
	o.Style = syllable.Traditional
	c, l := typed(t, o, "hoafn")
	require.Equal(t, "hoàn", l.text)

	press(t, c, l, "\b")
	assert.Equal(t, "hòa", l.text)
}

func TestAutoRestoreWithOracle(t *testing.T) {
	c := New(telex())
	c.SetOracle(oracle.NewWordList("test"))
	l := &line{}

	press(t, c, l, "test")
	assert.Equal(t, "test", l.text)
	assert.True(t, c.Snapshot().Foreign)

	press(t, c, l, " ")
	assert.Equal(t, "test ", l.text)
	assert.Equal(t, ActionRestore, l.last.Action)
	assert.Equal(t, 4, l.last.Backspace)
}

func TestOracleKeepsVietnamesePrefixes(t *testing.T) {
	c := New(telex())
	c.SetOracle(oracle.NewWordList("banana", "control", "tail", "mayday"))
	l := &line{}

	press(t, c, l, "bans cons taif mays ")
	assert.Equal(t, "bán cón tài máy ", l.text)

	press(t, c, l, "control ")
	assert.Equal(t, "bán cón tài máy control ", l.text)
}

func TestRespellRecognizedWord(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"windows ", "windows "},
		{"Windows ", "Windows "},
		{"export ", "export "},
		{"google ", "google "},
		{"test ", "tét "},
		{"vieetj ", "việt "},
		{"dduwowngf ", "đường "},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := New(telex())
			c.SetOracle(oracle.Phonotactic{})
			l := &line{}
			press(t, c, l, tt.input)
			assert.Equal(t, tt.want, l.text)
		})
	}

	t.Run("shown while typing", func(t *testing.T) {
		c := New(telex())
		c.SetOracle(oracle.Phonotactic{})
		l := &line{}
		press(t, c, l, "w")
		require.Equal(t, "ư", l.text)

		press(t, c, l, "i")
		assert.Equal(t, "wi", l.text)
		assert.True(t, c.Snapshot().Foreign)
		assert.False(t, c.Snapshot().Transformed)
		assert.Equal(t, "wi", c.Snapshot().Raw)
	})

	t.Run("auto-restore off", func(t *testing.T) {
		o := telex()
		o.AutoRestore = false
		c := New(o)
		c.SetOracle(oracle.Phonotactic{})
		l := &line{}
		press(t, c, l, "windows ")
		assert.Equal(t, "ưindows ", l.text)
	})
}

func TestNoRestoreAfterTransform(t *testing.T) {
	_, l := typed(t, telex(), "test ")
	assert.Equal(t, "tét ", l.text)
	assert.Equal(t, ActionNone, l.last.Action)
}

func TestAutoRestoreInvalidWord(t *testing.T) {
	_, l := typed(t, telex(), "bank ")
	assert.Equal(t, "bank ", l.text)
	assert.Equal(t, ActionRestore, l.last.Action)

	o := telex()
	o.AutoRestore = false
	_, l = typed(t, o, "bank ")
	assert.Equal(t, ActionNone, l.last.Action)
}

func TestAutoRestoreRawAfterAbsorb(t *testing.T) {
	// A valid word stays as displayed even with absorbed keys in its raw log.
	_, l := typed(t, telex(), "songoo.")
	assert.Equal(t, "song.", l.text)
}

func TestHistoryRestore(t *testing.T) {
	c, l := typed(t, telex(), "tas ")
	require.Equal(t, "tá ", l.text)

	press(t, c, l, "\b")
	assert.Equal(t, "tá", l.text)
	assert.Equal(t, Result{Action: ActionSend, Backspace: 1}, l.last)
	assert.Equal(t, 2, c.Len())

	press(t, c, l, "z")
	assert.Equal(t, "ta", l.text)
}

func TestHistoryRestoreAfterRestore(t *testing.T) {
	c, l := typed(t, telex(), "bank,")
	require.Equal(t, "bank,", l.text)

	press(t, c, l, "\b")
	assert.Equal(t, "bank", l.text)
	assert.True(t, c.Snapshot().Foreign)
}

func TestHistoryNeedsImmediateBackspace(t *testing.T) {
	c, l := typed(t, telex(), "tas x\b\b")
	assert.Equal(t, "tá", l.text)
	assert.Zero(t, c.Len())
}

func TestHistoryRing(t *testing.T) {
	c := New(telex())
	l := &line{}
	for j := 0; j < HistorySize+5; j++ {
		press(t, c, l, "a ")
	}
	assert.Equal(t, HistorySize, c.Snapshot().History)

	var h History
	_, ok := h.pop()
	assert.False(t, ok)
}

func TestEnterDoesNotArm(t *testing.T) {
	c, l := typed(t, telex(), "tas\n")
	assert.Equal(t, "tá\n", l.text)
	assert.False(t, c.Snapshot().Armed)
	assert.Equal(t, 1, c.Snapshot().History)
}

func TestEscRestore(t *testing.T) {
	c, l := typed(t, telex(), "vieetj\x1b")
	assert.Equal(t, "vieetj", l.text)
	assert.Equal(t, ActionRestore, l.last.Action)
	assert.Zero(t, c.Len())

	o := telex()
	o.EscRestore = false
	_, l = typed(t, o, "vieetj\x1b")
	assert.Equal(t, "việt", l.text)
	assert.Equal(t, ActionNone, l.last.Action)
}

func TestRawMatchesRestore(t *testing.T) {
	for _, input := range []string{"vieetj", "ass", "dduwowngf", "tesst", "songo", "hoafn"} {
		c, _ := typed(t, telex(), input)
		raw := c.Snapshot().Raw

		r := c.Apply(keys.Action{Kind: keys.KindEscRestore})
		assert.Equal(t, raw, r.Text(), input)

		// Typing the raw log literally with transforms off gives it back.
		plain := New(telex())
		for _, ch := range raw {
			code, caps, ok := keys.FromASCII(ch)
			require.True(t, ok)
			plain.Apply(keys.Action{Kind: keys.KindLetter, Code: code, Caps: caps, Char: ch})
		}
		assert.Equal(t, raw, plain.Snapshot().Raw, input)
		assert.Equal(t, raw, plain.Snapshot().Text, input)
	}
}

func TestRawAfterRevert(t *testing.T) {
	tests := map[string]string{
		"ass":  "as",
		"aaa":  "aa",
		"ddd":  "dd",
		"uww":  "uw",
		"ww":   "w",
		"taz":  "taz",
		"tasz": "tasz",
	}
	for input, want := range tests {
		c, _ := typed(t, telex(), input)
		assert.Equal(t, want, c.Snapshot().Raw, input)
	}
}

func TestBufferBound(t *testing.T) {
	c := New(telex())
	l := &line{}
	for j := 0; j < MaxBuffer; j++ {
		press(t, c, l, "b")
	}
	assert.Equal(t, MaxBuffer, c.Len())

	press(t, c, l, "b")
	assert.Equal(t, ActionNone, l.last.Action)
	assert.LessOrEqual(t, c.Len(), MaxBuffer)
}

func TestRevertOnFullBuffer(t *testing.T) {
	o := telex()
	o.FreeTone = true
	c, l := typed(t, o, strings.Repeat("ta", MaxBuffer/2)+"s")
	require.Equal(t, MaxBuffer, c.Len())
	require.Equal(t, viet.ToneSac, c.Snapshot().Chars[MaxBuffer-1].Tone)

	// Undoing the tone needs a slot for the literal key; the word is
	// dropped from tracking and the key passes through.
	press(t, c, l, "s")
	assert.Equal(t, ActionNone, l.last.Action)
	assert.Zero(t, c.Len())
	assert.True(t, strings.HasSuffix(l.text, "tás"), l.text)
}

func TestShortcuts(t *testing.T) {
	var tbl shortcut.Table
	require.NoError(t, tbl.Add(shortcut.New("vn", "Việt Nam")))
	require.NoError(t, tbl.Add(shortcut.Shortcut{Trigger: "brb", Replacement: "be right back", Enabled: true, Condition: shortcut.Immediate}))

	c := New(telex())
	c.SetShortcuts(&tbl)
	l := &line{}

	press(t, c, l, "vn ")
	assert.Equal(t, "Việt Nam ", l.text)

	press(t, c, l, "\b")
	assert.Equal(t, "vn", l.text)

	press(t, c, l, "\b\bbrb")
	assert.Equal(t, "be right back", l.text)
	assert.Zero(t, c.Len())
}

func TestRestoreRaw(t *testing.T) {
	c := New(telex())
	require.True(t, c.RestoreRaw("vieetj"))
	s := c.Snapshot()
	assert.Equal(t, "việt", s.Text)
	assert.Equal(t, "vieetj", s.Raw)
	assert.True(t, s.Transformed)

	l := &line{text: "việt"}
	press(t, c, l, "\b")
	assert.Equal(t, "việ", l.text)

	assert.False(t, c.RestoreRaw("two words"))
	assert.Zero(t, c.Len())
	assert.False(t, c.RestoreRaw(""))
}

func TestLoadWord(t *testing.T) {
	tests := []struct {
		word   string
		scheme keys.Scheme
		raw    string
	}{
		{"việt", keys.Telex, "vieejt"},
		{"người", keys.Telex, "nguowfi"},
		{"đường", keys.Telex, "dduowfng"},
		{"Tá", keys.Telex, "Tas"},
		{"việt", keys.VNI, "vie65t"},
		{"ăn", keys.VNI, "a8n"},
	}

	for _, tt := range tests {
		t.Run(tt.word+"/"+tt.scheme.String(), func(t *testing.T) {
			o := telex()
			o.Scheme = tt.scheme
			c := New(o)
			require.True(t, c.LoadWord(tt.word))
			s := c.Snapshot()
			assert.Equal(t, tt.word, s.Text)
			assert.Equal(t, tt.raw, s.Raw)

			// The synthesized log types the same word.
			replay := New(o)
			require.True(t, replay.RestoreRaw(tt.raw))
			assert.Equal(t, tt.word, replay.Snapshot().Text)
		})
	}

	c := New(telex())
	assert.False(t, c.LoadWord("hai từ"))
	assert.False(t, c.LoadWord(""))
}

func TestNFDOutput(t *testing.T) {
	o := telex()
	o.Form = viet.FormNFD
	c, l := typed(t, o, "vieetj")
	assert.Equal(t, norm.NFD.String("việt"), l.text)
	assert.Equal(t, 4, uniseg.GraphemeClusterCount(l.text))

	press(t, c, l, "\b\b")
	assert.Equal(t, "vi", l.text)
}

func TestOptionsDoNotClearWord(t *testing.T) {
	c, l := typed(t, telex(), "vie")
	c.SetOptions(vni())
	assert.Equal(t, 3, c.Len())

	press(t, c, l, "6")
	assert.Equal(t, "viê", l.text)
}

func TestOtherKeyResets(t *testing.T) {
	c, _ := typed(t, telex(), "vie")
	r := c.Apply(keys.Classify(keys.Left, false, false, false, keys.Telex))
	assert.Equal(t, ActionNone, r.Action)
	assert.Zero(t, c.Len())

	c, _ = typed(t, telex(), "vie")
	r = c.Apply(keys.Classify(keys.Delete, false, true, false, keys.Telex))
	assert.Equal(t, ActionNone, r.Action)
	assert.Zero(t, c.Len())
}

type counter map[Event]int

func (c counter) Observe(e Event) { c[e]++ }

func TestObserver(t *testing.T) {
	c := New(telex())
	seen := counter{}
	c.SetObserver(seen)
	l := &line{}

	press(t, c, l, "vieetj bank \b")
	assert.Equal(t, 1, seen[EventTone])
	assert.Equal(t, 1, seen[EventModifier])
	assert.Equal(t, 2, seen[EventCommit])
	assert.Equal(t, 1, seen[EventAutoRestore])
	assert.Equal(t, 1, seen[EventForeign])
	assert.Equal(t, 1, seen[EventHistoryRestore])
	assert.Equal(t, "tone", EventTone.String())
	assert.Len(t, Events(), 11)
}

func FuzzComposer(f *testing.F) {
	for _, seed := range []string{"vieetj", "dduwowngf ", "ass\b\b", "test ", "ww\x1bw", "ta1 0", "aaaaaaa"} {
		f.Add(seed, false)
	}
	f.Fuzz(func(t *testing.T, input string, useVNI bool) {
		o := telex()
		if useVNI {
			o.Scheme = keys.VNI
		}
		c := New(o)
		for _, r := range input {
			code, caps, ok := keys.FromASCII(r)
			if !ok {
				continue
			}
			c.Apply(keys.Classify(code, caps, false, keys.IsShifted(r), o.Scheme))
			if c.Len() > MaxBuffer || len(c.buf) != len(c.raw) {
				t.Fatalf("buffer invariant broken after %q", input)
			}
			if toneCount(c.buf) > 1 {
				t.Fatalf("more than one tone after %q", input)
			}
		}
	})
}

func toneCount(chars []viet.Char) int {
	n := 0
	for _, ch := range chars {
		if ch.Tone != viet.ToneNone {
			n++
		}
	}
	return n
}
