package keys

import (
	"testing"

	"vietime/internal/viet"
)

func TestFromASCII(t *testing.T) {
	tests := []struct {
		in   rune
		code Code
		caps bool
	}{
		{'a', A, false},
		{'A', A, true},
		{'w', W, false},
		{'1', N1, false},
		{'!', N1, false},
		{' ', Space, false},
		{'\n', Return, false},
		{0x7f, Delete, false},
		{0x1b, Esc, false},
		{'.', Dot, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			code, caps, ok := FromASCII(tt.in)
			if !ok {
				t.Fatalf("FromASCII(%q) not ok", tt.in)
			}
			if code != tt.code || caps != tt.caps {
				t.Errorf("FromASCII(%q) = %d,%v want %d,%v", tt.in, code, caps, tt.code, tt.caps)
			}
		})
	}

	if _, _, ok := FromASCII('é'); ok {
		t.Error("non-ASCII rune should not map")
	}
}

func TestCharRoundTrip(t *testing.T) {
	for r := rune(0x20); r < 0x7f; r++ {
		code, caps, ok := FromASCII(r)
		if !ok {
			continue
		}
		got, ok := Char(code, caps, IsShifted(r))
		if !ok || got != r {
			t.Errorf("Char(FromASCII(%q)) = %q", r, got)
		}
	}
}

func TestClassifyTelex(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want Action
	}{
		{"plain letter", B, Action{Kind: KindLetter, Code: B, Char: 'b'}},
		{"sac", S, Action{Kind: KindTone, Code: S, Char: 's', Tone: viet.ToneSac}},
		{"nang", J, Action{Kind: KindTone, Code: J, Char: 'j', Tone: viet.ToneNang}},
		{"removal", Z, Action{Kind: KindToneRemoval, Code: Z, Char: 'z'}},
		{"circumflex", A, Action{Kind: KindModifier, Code: A, Char: 'a', Modifier: viet.ModCircumflex, Target: 'a'}},
		{"w", W, Action{Kind: KindModifier, Code: W, Char: 'w', Modifier: viet.ModHorn, Flex: true}},
		{"stroke", D, Action{Kind: KindStroke, Code: D, Char: 'd'}},
		{"digit commits", N1, Action{Kind: KindCommit, Code: N1, Char: '1', Commit: CommitPunctuation}},
		{"space", Space, Action{Kind: KindCommit, Code: Space, Char: ' ', Commit: CommitSpace}},
		{"backspace", Delete, Action{Kind: KindBackspace, Code: Delete}},
		{"esc", Esc, Action{Kind: KindEscRestore, Code: Esc}},
		{"arrow", Left, Action{Kind: KindOther, Code: Left}},
		{"unknown", 200, Action{Kind: KindOther, Code: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.code, false, false, false, Telex)
			if got != tt.want {
				t.Errorf("Classify = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyTelexCaps(t *testing.T) {
	got := Classify(S, true, false, false, Telex)
	if got.Kind != KindTone || got.Char != 'S' || !got.Caps {
		t.Errorf("Classify(S caps) = %+v", got)
	}
	got = Classify(A, true, false, false, Telex)
	if got.Target != 'a' {
		t.Errorf("target should be lowercase, got %q", got.Target)
	}
}

func TestClassifyVNI(t *testing.T) {
	tests := []struct {
		code     Code
		kind     Kind
		tone     viet.Tone
		modifier viet.Modifier
	}{
		{N1, KindTone, viet.ToneSac, viet.ModNone},
		{N5, KindTone, viet.ToneNang, viet.ModNone},
		{N0, KindToneRemoval, viet.ToneNone, viet.ModNone},
		{N6, KindModifier, viet.ToneNone, viet.ModCircumflex},
		{N7, KindModifier, viet.ToneNone, viet.ModHorn},
		{N8, KindModifier, viet.ToneNone, viet.ModBreve},
		{N9, KindStroke, viet.ToneNone, viet.ModNone},
		{S, KindLetter, viet.ToneNone, viet.ModNone},
		{W, KindLetter, viet.ToneNone, viet.ModNone},
	}

	for _, tt := range tests {
		got := Classify(tt.code, false, false, false, VNI)
		if got.Kind != tt.kind || got.Tone != tt.tone || got.Modifier != tt.modifier {
			t.Errorf("Classify(%d, VNI) = %+v", tt.code, got)
		}
	}

	shifted := Classify(N1, false, false, true, VNI)
	if shifted.Kind != KindCommit || shifted.Char != '!' {
		t.Errorf("shift+1 = %+v, want punctuation commit", shifted)
	}
}

func TestClassifyCtrl(t *testing.T) {
	if got := Classify(A, false, true, false, Telex); got.Kind != KindOther {
		t.Errorf("ctrl+a = %v", got.Kind)
	}
	if got := Classify(Delete, false, true, false, Telex); got.Kind != KindWordDelete {
		t.Errorf("ctrl+delete = %v", got.Kind)
	}
}

func TestParseScheme(t *testing.T) {
	if s, ok := ParseScheme("VNI"); !ok || s != VNI {
		t.Errorf("ParseScheme(VNI) = %v, %v", s, ok)
	}
	if _, ok := ParseScheme("viqr"); ok {
		t.Error("viqr should be rejected")
	}
}
