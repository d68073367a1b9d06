package viet

import (
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		c    Char
		want string
	}{
		{"plain", Char{Base: 'a'}, "a"},
		{"caps", Char{Base: 'a', Caps: true}, "A"},
		{"acute", Char{Base: 'a', Tone: ToneSac}, "á"},
		{"circumflex dot", Char{Base: 'e', Modifier: ModCircumflex, Tone: ToneNang}, "ệ"},
		{"horn hook caps", Char{Base: 'u', Modifier: ModHorn, Tone: ToneHoi, Caps: true}, "Ử"},
		{"breve tilde", Char{Base: 'a', Modifier: ModBreve, Tone: ToneNga}, "ẵ"},
		{"horn o grave", Char{Base: 'o', Modifier: ModHorn, Tone: ToneHuyen}, "ờ"},
		{"stroke", Char{Base: 'd', Stroke: true}, "đ"},
		{"stroke caps", Char{Base: 'd', Stroke: true, Caps: true}, "Đ"},
		{"y acute", Char{Base: 'y', Tone: ToneSac}, "ý"},
		{"consonant", Char{Base: 'n'}, "n"},
		{"digit", Char{Base: '7'}, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Render(FormNFC); got != tt.want {
				t.Errorf("Render(NFC) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderNFD(t *testing.T) {
	c := Char{Base: 'e', Modifier: ModCircumflex, Tone: ToneNang}
	got := c.Render(FormNFD)
	if got != "e\u0323\u0302" {
		t.Errorf("Render(NFD) = %+q", got)
	}
	if c.Rune() != 'ệ' {
		t.Errorf("Rune() = %q", c.Rune())
	}
}

func TestRenderIgnoresInvalidModifier(t *testing.T) {
	c := Char{Base: 'i', Modifier: ModHorn}
	if got := c.Render(FormNFC); got != "i" {
		t.Errorf("Render = %q, want i", got)
	}
}

func TestDecompose(t *testing.T) {
	chars, ok := Decompose("Việt")
	if !ok {
		t.Fatal("Decompose failed")
	}
	if len(chars) != 4 {
		t.Fatalf("len = %d, want 4", len(chars))
	}
	if !chars[0].Caps || chars[0].Base != 'v' {
		t.Errorf("chars[0] = %+v", chars[0])
	}
	e := chars[2]
	if e.Base != 'e' || e.Modifier != ModCircumflex || e.Tone != ToneNang {
		t.Errorf("chars[2] = %+v", e)
	}
	if Render(chars, FormNFC) != "Việt" {
		t.Errorf("round trip = %q", Render(chars, FormNFC))
	}

	chars, ok = Decompose("đường")
	if !ok || !chars[0].Stroke || chars[2].Modifier != ModHorn || chars[2].Tone != ToneHuyen {
		t.Errorf("Decompose(đường) = %+v, %v", chars, ok)
	}

	if _, ok := Decompose("naïve"); ok {
		t.Error("expected diaeresis to be rejected")
	}
	if _, ok := Decompose("a b"); ok {
		t.Error("expected space to be rejected")
	}
}

func TestAccepts(t *testing.T) {
	if !(Char{Base: 'a'}).Accepts(ModBreve) {
		t.Error("a should accept breve")
	}
	if (Char{Base: 'e'}).Accepts(ModHorn) {
		t.Error("e should not accept horn")
	}
	if !(Char{Base: 'u'}).Accepts(ModHorn) {
		t.Error("u should accept horn")
	}
}

func TestParseForm(t *testing.T) {
	if f, ok := ParseForm("nfd"); !ok || f != FormNFD {
		t.Errorf("ParseForm(nfd) = %v, %v", f, ok)
	}
	if _, ok := ParseForm("tcvn3"); ok {
		t.Error("unexpected form accepted")
	}
}
