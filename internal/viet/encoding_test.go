package viet

import (
	"bytes"
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoding
		in   string
		want []byte
	}{
		{"unicode", EncodingUnicode, "Việt", []byte("Việt")},

		{"tcvn3 word", EncodingTCVN3, "Việt Nam", []byte{'V', 'i', 0xD6, 't', ' ', 'N', 'a', 'm'}},
		{"tcvn3 tones", EncodingTCVN3, "àáảãạ", []byte{0xB5, 0xB8, 0xB6, 0xB7, 0xB9}},
		{"tcvn3 modifiers", EncodingTCVN3, "ăâêôơưđ", []byte{0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE}},
		{"tcvn3 capitals", EncodingTCVN3, "ĂÂÊÔƠƯĐ", []byte{0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7}},
		{"tcvn3 toned capital", EncodingTCVN3, "Ệ", []byte{0xD6}},
		{"tcvn3 unmapped", EncodingTCVN3, "€", []byte{'?'}},

		{"vni word", EncodingVNI, "Việt Nam", []byte{'V', 'i', 'e', 0xE4, 't', ' ', 'N', 'a', 'm'}},
		{"vni horn pair", EncodingVNI, "đường", []byte{0xF1, 0xF6, 0xF4, 0xF8, 'n', 'g'}},
		{"vni capitals", EncodingVNI, "ĐƯỜNG", []byte{0xD1, 0xD6, 0xD4, 0xD8, 'N', 'G'}},
		{"vni i", EncodingVNI, "kí", []byte{'k', 0xED}},
		{"vni breve", EncodingVNI, "ắ", []byte{'a', 0xE9}},
		{"vni dotted y", EncodingVNI, "ỵ", []byte{0xEE}},

		{"cp1258 precomposed", EncodingCP1258, "áĐơ", []byte{0xE1, 0xD0, 0xF5}},
		{"cp1258 combining", EncodingCP1258, "Việt", []byte{'V', 'i', 0xEA, 0xF2, 't'}},
		{"cp1258 hook", EncodingCP1258, "ả", []byte{'a', 0xD2}},
		{"cp1258 euro", EncodingCP1258, "€", []byte{0x80}},
		{"cp1258 unmapped", EncodingCP1258, "中", []byte{'?'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in, tt.enc); !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%q, %s) = % X, want % X", tt.in, tt.enc, got, tt.want)
			}
		})
	}
}

func TestEncodeAcceptsNFD(t *testing.T) {
	nfd := norm.NFD.String("Việt")
	for _, enc := range []Encoding{EncodingTCVN3, EncodingVNI, EncodingCP1258} {
		if got, want := Encode(nfd, enc), Encode("Việt", enc); !bytes.Equal(got, want) {
			t.Errorf("%s: NFD input = % X, want % X", enc, got, want)
		}
	}
}

func TestParseEncoding(t *testing.T) {
	for _, s := range []string{"", "unicode", "tcvn3", "vni", "cp1258"} {
		enc, ok := ParseEncoding(s)
		if !ok {
			t.Errorf("ParseEncoding(%q) failed", s)
			continue
		}
		if s != "" && enc.String() != s {
			t.Errorf("ParseEncoding(%q) = %s", s, enc)
		}
	}
	if _, ok := ParseEncoding("latin1"); ok {
		t.Error("ParseEncoding(latin1) succeeded")
	}

	if enc, ok := EncodingByID(2); !ok || enc != EncodingVNI {
		t.Errorf("EncodingByID(2) = %s, %v", enc, ok)
	}
	if _, ok := EncodingByID(4); ok {
		t.Error("EncodingByID(4) succeeded")
	}
}
