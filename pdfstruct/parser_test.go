package pdfstruct

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parse(t *testing.T, src string) Object {
	t.Helper()
	s := &scanner{by: []byte(src)}
	obj, err := s.readObject()
	if err != nil {
		t.Fatalf("readObject(%q): %s", src, err)
	}
	return obj
}

func TestReadScalars(t *testing.T) {
	tests := []struct {
		src  string
		want Object
	}{
		{"null", nil},
		{"true", true},
		{"false", false},
		{"42", 42},
		{"-17", -17},
		{"3.5", 3.5},
		{"(hello)", "hello"},
		{`(a\(b\)c)`, "a(b)c"},
		{`(line\nbreak)`, "line\nbreak"},
		{`(\101bc)`, "Abc"},
		{"(nested (parens) kept)", "nested (parens) kept"},
		{"<48692A>", []byte{0x48, 0x69, 0x2a}},
		{"<4869 2A>", []byte{0x48, 0x69, 0x2a}},
		{"<486ical>", nil}, // invalid hex digit; expect error below
		{"/Name", Name("Name")},
		{"/With#20Space", Name("With Space")},
		{"7 0 R", Reference{Number: 7}},
		{"7 2 R", Reference{Number: 7, Generation: 2}},
		{"7 0 obj (wrapped) endobj", "wrapped"},
	}
	for _, tt := range tests {
		s := &scanner{by: []byte(tt.src)}
		got, err := s.readObject()
		if tt.src == "<486ical>" {
			if err == nil {
				t.Errorf("readObject(%q) = %v, want error", tt.src, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("readObject(%q): %s", tt.src, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("readObject(%q) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestReadArray(t *testing.T) {
	got := parse(t, "[ 0 0 612 792 ]")
	want := Array{0, 0, 612, 792}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("array mismatch (-want +got):\n%s", diff)
	}
	// "1 2 R" inside an array is a single reference, not three tokens.
	got = parse(t, "[ 1 2 R 3 ]")
	want = Array{Reference{Number: 1, Generation: 2}, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("array mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDict(t *testing.T) {
	got := parse(t, "<< /A 1 /B [ true ] /C << /D null >> >>")
	want := Dict{"A": 1, "B": Array{true}, "C": Dict{"D": nil}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dict mismatch (-want +got):\n%s", diff)
	}
}

func TestReadStream(t *testing.T) {
	got := parse(t, "<< /Length 5 >>\nstream\nhello\nendstream")
	want := Stream{Dict: Dict{"Length": 5}, Data: []byte("hello")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stream mismatch (-want +got):\n%s", diff)
	}
}

func TestReadStreamWithoutLength(t *testing.T) {
	// An indirect /Length forces the parser to locate "endstream" itself.
	got := parse(t, "<< /Length 9 0 R >>\nstream\nabcde\nendstream")
	want := Stream{Dict: Dict{"Length": Reference{Number: 9}}, Data: []byte("abcde")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stream mismatch (-want +got):\n%s", diff)
	}
}

func TestReadComments(t *testing.T) {
	got := parse(t, "% a comment\r\n  42")
	if got != 42 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestReadErrors(t *testing.T) {
	for _, src := range []string{"", "]", ">", "(unterminated", "frob", "<< /A >>", "7 0 obj 1 2 3"} {
		s := &scanner{by: []byte(src)}
		if obj, err := s.readObject(); err == nil {
			t.Errorf("readObject(%q) = %v, want error", src, obj)
		}
	}
}
