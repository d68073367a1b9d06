package compose

import (
	"vietime/internal/keys"
	"vietime/internal/syllable"
	"vietime/internal/viet"
)

// target is one position a modifier key changes.
type target struct {
	pos int
	mod viet.Modifier
}

func (c *Composer) transform(a keys.Action) Result {
	if c.foreign || (len(c.buf) == 0 && !a.Flex) {
		return c.letter(a)
	}
	switch a.Kind {
	case keys.KindTone:
		return c.applyTone(a)
	case keys.KindToneRemoval:
		return c.removeTone(a)
	case keys.KindModifier:
		return c.applyModifier(a)
	case keys.KindStroke:
		return c.applyStroke(a)
	}
	return c.letter(a)
}

// accept validates the buffer after a tentative transform keyed by a.
func (c *Composer) accept(a keys.Action) bool {
	if c.oracle != nil {
		raw := rawString(c.raw) + string(a.Char)
		if c.oracle.IsForeign(raw) {
			return false
		}
	}
	return c.opts.FreeTone || syllable.IsValidPrefix(c.buf)
}

// reject undoes a tentative transform and inserts the key literally.
func (c *Composer) reject(a keys.Action, old *snapshot) Result {
	c.restore(old)
	c.markForeign()
	return c.letter(a)
}

// absorb consumes a transform key that cannot apply without changing the
// buffer. The key is still logged so a raw restore reproduces it.
func (c *Composer) absorb(a keys.Action) Result {
	c.pushTrail(a)
	return Result{Action: ActionSend}
}

func (c *Composer) pushTrail(a keys.Action) {
	if n := len(c.raw); n > 0 {
		c.raw[n-1].push(Keystroke{Code: a.Code, Caps: a.Caps})
	}
}

// applied finishes a successful transform.
func (c *Composer) applied(a keys.Action, e Event) {
	c.transformed = true
	c.pushTrail(a)
	c.reposition()
	c.observe(e)
}

// revert finishes undoing a transform that was already present: the key
// that produced it leaves the raw log and the new key is typed literally.
// A full buffer drops the word from tracking and lets the key through, as
// letter does.
func (c *Composer) revert(a keys.Action, old *snapshot) Result {
	if len(c.buf) >= MaxBuffer {
		c.Reset()
		return Result{}
	}
	dropConsumed(c.raw, a.Code)
	c.appendLetter(a)
	c.transformed = anyTransformed(c.buf)
	c.observe(EventRevert)
	return c.edit(old)
}

func toneIndex(chars []viet.Char) int {
	for i, ch := range chars {
		if ch.Tone != viet.ToneNone {
			return i
		}
	}
	return -1
}

// reposition moves the tone of the current syllable to where the resolver
// places it for the syllable's present shape.
func (c *Composer) reposition() {
	i := toneIndex(c.buf)
	if i < 0 {
		return
	}
	b := syllable.Boundary(c.buf)
	if i < b {
		return
	}
	t := syllable.ToneTarget(c.buf[b:], c.opts.Style)
	if t < 0 {
		return
	}
	if t += b; t != i {
		c.buf[t].Tone, c.buf[i].Tone = c.buf[i].Tone, viet.ToneNone
	}
}

func (c *Composer) applyTone(a keys.Action) Result {
	b := c.boundary
	t := syllable.ToneTarget(c.buf[b:], c.opts.Style)
	if t < 0 {
		return c.letter(a)
	}
	t += b

	old := c.save()
	cur := toneIndex(c.buf)
	if cur >= b && c.buf[cur].Tone == a.Tone {
		c.buf[cur].Tone = viet.ToneNone
		return c.revert(a, old)
	}
	if cur >= 0 {
		c.buf[cur].Tone = viet.ToneNone
	}
	c.buf[t].Tone = a.Tone
	if !c.accept(a) {
		return c.reject(a, old)
	}
	c.applied(a, EventTone)
	return c.edit(old)
}

// removeTone clears the tone. Without a tone it is a no-op on any word
// holding a vowel, and a literal key otherwise.
func (c *Composer) removeTone(a keys.Action) Result {
	i := toneIndex(c.buf)
	if i < 0 {
		for _, ch := range c.buf {
			if ch.IsVowel() {
				return c.absorb(a)
			}
		}
		return c.letter(a)
	}
	old := c.save()
	c.buf[i].Tone = viet.ToneNone
	c.pushTrail(a)
	c.observe(EventToneRemoval)
	return c.edit(old)
}

func (c *Composer) applyModifier(a keys.Action) Result {
	b := c.boundary
	var buf [2]target
	targets := c.modifierTargets(a, b, buf[:0])
	closed := !c.opts.FreeTone && syllable.Closed(c.buf[b:])
	if len(targets) == 0 {
		switch {
		case a.Flex && !c.opts.SkipWShortcut:
			return c.insertHornU(a)
		case a.Target != 0 && closed:
			// A doubled vowel key after a final consonant.
			return c.absorb(a)
		}
		return c.letter(a)
	}
	if closed {
		return c.absorb(a)
	}

	old := c.save()
	present := true
	for _, t := range targets {
		if c.buf[t.pos].Modifier != t.mod {
			present = false
		}
	}
	if present {
		if len(targets) == 1 && c.isInsertedHornU(targets[0].pos) {
			return c.revertHornU(a, targets[0].pos, old)
		}
		for _, t := range targets {
			c.buf[t.pos].Modifier = viet.ModNone
		}
		return c.revert(a, old)
	}

	for _, t := range targets {
		c.buf[t.pos].Modifier = t.mod
	}
	if !c.accept(a) {
		return c.reject(a, old)
	}
	c.applied(a, EventModifier)
	return c.edit(old)
}

// modifierTargets finds the nucleus positions a modifier key acts on.
func (c *Composer) modifierTargets(a keys.Action, b int, out []target) []target {
	s := syllable.Parse(c.buf[b:])
	start, end := b+s.InitialEnd, b+s.NucleusEnd
	if start >= end {
		return out
	}
	last := func(accept func(viet.Char) bool, mod viet.Modifier) []target {
		for i := end - 1; i >= start; i-- {
			if accept(c.buf[i]) {
				return append(out, target{i, mod})
			}
		}
		return out
	}

	switch {
	case a.Target != 0:
		return last(func(ch viet.Char) bool { return ch.Base == a.Target }, viet.ModCircumflex)
	case a.Flex:
		return c.hornTargets(start, end, true, out)
	case a.Modifier == viet.ModCircumflex:
		return last(func(ch viet.Char) bool { return ch.Accepts(viet.ModCircumflex) }, viet.ModCircumflex)
	case a.Modifier == viet.ModHorn:
		return c.hornTargets(start, end, false, out)
	case a.Modifier == viet.ModBreve:
		return last(func(ch viet.Char) bool { return ch.Base == 'a' }, viet.ModBreve)
	}
	return out
}

// hornTargets places a horn (or, for the Telex w key, a breve on a):
// uo takes it on both vowels, ua and uu on the u, oa on the a, and any
// other nucleus on its last eligible vowel.
func (c *Composer) hornTargets(start, end int, flex bool, out []target) []target {
	nuc := c.buf[start:end]
	for i := 0; i+1 < len(nuc); i++ {
		if nuc[i].Base == 'u' && nuc[i+1].Base == 'o' {
			return append(out, target{start + i, viet.ModHorn}, target{start + i + 1, viet.ModHorn})
		}
	}
	if len(nuc) >= 2 && nuc[0].Base == 'u' && (nuc[1].Base == 'a' || nuc[1].Base == 'u') {
		return append(out, target{start, viet.ModHorn})
	}
	if flex {
		for i := 0; i+1 < len(nuc); i++ {
			if nuc[i].Base == 'o' && nuc[i+1].Base == 'a' {
				return append(out, target{start + i + 1, viet.ModBreve})
			}
		}
	}
	for i := len(nuc) - 1; i >= 0; i-- {
		switch nuc[i].Base {
		case 'o', 'u':
			return append(out, target{start + i, viet.ModHorn})
		case 'a':
			if flex {
				return append(out, target{start + i, viet.ModBreve})
			}
		}
	}
	return out
}

// insertHornU handles a Telex w with nothing to modify: it types ư when
// that keeps the word Vietnamese.
func (c *Composer) insertHornU(a keys.Action) Result {
	if len(c.buf) >= MaxBuffer {
		return c.letter(a)
	}
	old := c.save()
	c.buf = append(c.buf, viet.Char{Base: 'u', Modifier: viet.ModHorn, Caps: a.Caps})
	c.raw = append(c.raw, rawEntry{key: Keystroke{Code: a.Code, Caps: a.Caps}})
	valid := c.opts.FreeTone || syllable.IsValidPrefix(c.buf)
	if !valid || (c.oracle != nil && c.oracle.IsForeign(rawString(c.raw))) {
		return c.reject(a, old)
	}
	c.transformed = true
	c.reposition()
	c.observe(EventModifier)
	return c.edit(old)
}

// isInsertedHornU reports whether the ư at pos was typed as a bare w.
func (c *Composer) isInsertedHornU(pos int) bool {
	return c.raw[pos].key.Code == keys.W && c.buf[pos].Base == 'u'
}

// revertHornU turns an inserted ư back into the literal w that typed it.
func (c *Composer) revertHornU(a keys.Action, pos int, old *snapshot) Result {
	caps := c.buf[pos].Caps
	c.buf[pos] = viet.Char{Base: 'w', Caps: caps}
	c.transformed = anyTransformed(c.buf)
	if c.judge() {
		c.markForeign()
	}
	c.observe(EventRevert)
	return c.edit(old)
}

func (c *Composer) applyStroke(a keys.Action) Result {
	b := c.boundary
	t := -1
	if c.opts.Scheme == keys.VNI {
		s := syllable.Parse(c.buf[b:])
		if s.InitialEnd > 0 && c.buf[b].Base == 'd' {
			t = b
		}
	} else if last := len(c.buf) - 1; c.buf[last].Base == 'd' {
		t = last
		for _, ch := range c.buf[b:last] {
			if ch.IsVowel() {
				t = -1
				break
			}
		}
	}
	if t < 0 {
		return c.letter(a)
	}
	if !c.opts.FreeTone && syllable.Closed(c.buf[b:]) {
		return c.absorb(a)
	}

	old := c.save()
	if c.buf[t].Stroke {
		c.buf[t].Stroke = false
		return c.revert(a, old)
	}
	c.buf[t].Stroke = true
	if !c.accept(a) {
		return c.reject(a, old)
	}
	c.applied(a, EventStroke)
	return c.edit(old)
}
