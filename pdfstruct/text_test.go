package pdfstruct

import "testing"

func TestDecodeTextString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"\xfe\xff\x00H\x00i", "Hi"},
		{"\xff\xfeH\x00i\x00", "Hi"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DecodeTextString(tt.in); got != tt.want {
			t.Errorf("DecodeTextString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
