package syllable

import (
	"testing"

	"vietime/internal/viet"
)

func chars(t *testing.T, s string) []viet.Char {
	t.Helper()
	c, ok := viet.Decompose(s)
	if !ok {
		t.Fatalf("Decompose(%q) failed", s)
	}
	return c
}

func TestParse(t *testing.T) {
	tests := []struct {
		word    string
		initial string
		nucleus string
		final   string
	}{
		{"nghieng", "ngh", "ie", "ng"},
		{"gia", "gi", "a", ""},
		{"gin", "g", "i", "n"},
		{"quoc", "qu", "o", "c"},
		{"qu", "qu", "", ""},
		{"oan", "", "oa", "n"},
		{"đươc", "đ", "ươ", "c"},
		{"tr", "tr", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			c := chars(t, tt.word)
			s := Parse(c)
			if s.Trailing {
				t.Fatalf("unexpected trailing in %q", tt.word)
			}
			if got := s.Initial(c); got != tt.initial {
				t.Errorf("initial = %q, want %q", got, tt.initial)
			}
			if got := viet.Render(s.Nucleus(c), viet.FormNFC); got != tt.nucleus {
				t.Errorf("nucleus = %q, want %q", got, tt.nucleus)
			}
			if got := s.Final(c); got != tt.final {
				t.Errorf("final = %q, want %q", got, tt.final)
			}
		})
	}
}

func TestIsValidPrefix(t *testing.T) {
	valid := []string{
		"", "n", "ng", "ngh", "tr", "q", "qu", "vie", "viet", "nguoi", "ruou",
		"khuy", "khuya", "đ", "gi", "toa", "tien", "tuan", "xoong", "oa", "a",
	}
	invalid := []string{
		"str", "bl", "tes", "bank", "vietn", "ka", "ce", "ge", "ngi",
		"viet nam", "a1", "ea", "you", "thanhk", "tàc", "hỏp",
	}

	for _, w := range valid {
		if !IsValidPrefix(chars(t, w)) {
			t.Errorf("IsValidPrefix(%q) = false, want true", w)
		}
	}
	for _, w := range invalid {
		c, ok := viet.Decompose(w)
		if !ok {
			// Spaces fail decomposition; model them as trailing junk.
			c = append(chars(t, "viet"), viet.Char{Base: ' '})
		}
		if IsValidPrefix(c) {
			t.Errorf("IsValidPrefix(%q) = true, want false", w)
		}
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{
		"việt", "người", "rượu", "khuya", "quốc", "gì", "già", "nghiêng",
		"thanh", "ăn", "ân", "kê", "hoà", "hòa", "xoong", "yêu", "oai", "tiên", "tạp", "tác", "hàng",
	}
	invalid := []string{
		"ng", "tie", "ăi", "bank", "kan", "ănh", "ươ", "ămm", "tàc", "mãt",
	}

	for _, w := range valid {
		if !IsValid(chars(t, w)) {
			t.Errorf("IsValid(%q) = false, want true", w)
		}
	}
	for _, w := range invalid {
		if IsValid(chars(t, w)) {
			t.Errorf("IsValid(%q) = true, want false", w)
		}
	}
}

func TestTonePosition(t *testing.T) {
	tests := []struct {
		word  string
		style Style
		want  int
	}{
		{"ta", Modern, 1},
		{"hoa", Modern, 2},
		{"hoa", Traditional, 1},
		{"hoan", Traditional, 2},
		{"thuy", Modern, 3},
		{"thuy", Traditional, 2},
		{"mua", Modern, 1},
		{"mia", Modern, 1},
		{"tai", Modern, 1},
		{"viêt", Modern, 2},
		{"người", Modern, 3},
		{"rươu", Modern, 2},
		{"ưu", Modern, 0},
		{"oai", Modern, 1},
		{"khuyên", Modern, 4},
		{"quy", Modern, 2},
		{"quê", Modern, 2},
		{"gia", Modern, 2},
		{"gi", Modern, 1},
		{"muôn", Modern, 2},
		{"thuơ", Modern, 3},
		{"toan", Modern, 2},
		{"bcd", Modern, -1},
	}

	for _, tt := range tests {
		t.Run(tt.word+"/"+tt.style.String(), func(t *testing.T) {
			if got := ToneTarget(chars(t, tt.word), tt.style); got != tt.want {
				t.Errorf("ToneTarget(%q) = %d, want %d", tt.word, got, tt.want)
			}
		})
	}
}

func TestTonePositionTable(t *testing.T) {
	tests := []struct {
		nucleus  string
		hasFinal bool
		style    Style
		want     int
	}{
		{"a", false, Modern, 0},
		{"oa", false, Modern, 1},
		{"oa", false, Traditional, 0},
		{"oa", true, Traditional, 1},
		{"oe", false, Modern, 1},
		{"uy", false, Traditional, 0},
		{"ai", false, Modern, 0},
		{"ươ", true, Modern, 1},
		{"ưa", false, Modern, 0},
		{"uyê", true, Modern, 2},
		{"oay", false, Modern, 1},
	}

	for _, tt := range tests {
		got := TonePosition(chars(t, tt.nucleus), tt.hasFinal, tt.style)
		if got != tt.want {
			t.Errorf("TonePosition(%q, %v, %v) = %d, want %d", tt.nucleus, tt.hasFinal, tt.style, got, tt.want)
		}
	}
	if TonePosition(nil, false, Modern) != -1 {
		t.Error("empty nucleus should return -1")
	}
}

func TestBoundary(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"viet", 0},
		{"vietnam", 4},
		{"quoc", 0},
		{"nhanhthanh", 5},
		{"bcd", 0},
		{"", 0},
		{"ab", 0},
		{"anhqua", 3},
	}

	for _, tt := range tests {
		c, _ := viet.Decompose(tt.word)
		if got := Boundary(c); got != tt.want {
			t.Errorf("Boundary(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestClosed(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"song", true},
		{"son", true},
		{"so", false},
		{"ad", false},
		{"ng", false},
		{"tiêc", true},
	}

	for _, tt := range tests {
		if got := Closed(chars(t, tt.word)); got != tt.want {
			t.Errorf("Closed(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestParseStyle(t *testing.T) {
	if s, ok := ParseStyle("Traditional"); !ok || s != Traditional {
		t.Errorf("ParseStyle = %v, %v", s, ok)
	}
	if _, ok := ParseStyle("sideways"); ok {
		t.Error("unknown style accepted")
	}
}
