package compose

import (
	"vietime/internal/keys"
	"vietime/internal/viet"
)

// RestoreRaw starts a new word by replaying raw ASCII keystrokes under the
// current scheme, as if they had just been typed. Nothing is emitted and
// immediate shortcuts do not fire. It reports false, leaving the buffer
// empty, if raw holds anything but letters and scheme digits or does not
// fit the buffer.
func (c *Composer) RestoreRaw(raw string) bool {
	c.Reset()
	if raw == "" || len(raw) > MaxBuffer*(MaxTrail+1) {
		return false
	}
	c.replaying = true
	defer func() { c.replaying = false }()

	for _, r := range raw {
		code, caps, ok := keys.FromASCII(r)
		if !ok {
			c.Reset()
			return false
		}
		a := keys.Classify(code, caps, false, keys.IsShifted(r), c.opts.Scheme)
		switch a.Kind {
		case keys.KindLetter, keys.KindTone, keys.KindToneRemoval, keys.KindModifier, keys.KindStroke:
		default:
			c.Reset()
			return false
		}
		if len(c.buf) >= MaxBuffer && a.Kind == keys.KindLetter {
			c.Reset()
			return false
		}
		c.Apply(a)
	}
	return len(c.buf) > 0
}

// LoadWord starts a new word from composed Vietnamese text, for example
// when the caret moves back into a word typed earlier. A raw log that
// would type the word under the current scheme is synthesized. Nothing is
// emitted. It reports false, leaving the buffer empty, if text is not a
// single word of letters and digits that fits the buffer.
func (c *Composer) LoadWord(text string) bool {
	c.Reset()
	chars, ok := viet.Decompose(text)
	if !ok || len(chars) == 0 || len(chars) > MaxBuffer {
		return false
	}
	c.buf = append(c.buf, chars...)
	c.raw = append(c.raw, synthesize(chars, c.opts.Scheme)...)
	c.transformed = anyTransformed(c.buf)
	c.foreign = c.judge()
	c.settle()
	return true
}
