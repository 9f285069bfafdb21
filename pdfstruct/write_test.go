package pdfstruct

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteObject(t *testing.T) {
	var buf bytes.Buffer
	err := WriteObject(&buf, Reference{Number: 7}, Dict{"B": 1, "A": Name("X")})
	if err != nil {
		t.Fatal(err)
	}
	want := "7 0 obj << /A /X /B 1 >> endobj\r\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteRawArray(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRaw(&buf, Array{1, 2.5, "a(b", Name("N"), []byte{0xab}, Reference{Number: 3}, nil, true})
	if err != nil {
		t.Fatal(err)
	}
	want := `[ 1 2.500000 (a\(b) /N <ab> 3 0 R null true ]`
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteStreamSetsLength(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRaw(&buf, Stream{Dict: Dict{"A": 1}, Data: []byte("data")})
	if err != nil {
		t.Fatal(err)
	}
	want := "<< /A 1 /Length 4 >> stream\ndata\nendstream"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteNameEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRaw(&buf, Name("A B#C")); err != nil {
		t.Fatal(err)
	}
	want := "/A#20B#23C"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	objs := []Object{
		Dict{"Key": "val\rue", "N": Name("With Space"), "L": Array{1, nil, false}},
		Stream{Dict: Dict{"Kind": Name("Test")}, Data: []byte("payload")},
		Array{Reference{Number: 9, Generation: 1}, "x", []byte{1, 2, 3}},
	}
	for _, obj := range objs {
		var buf bytes.Buffer
		if err := WriteObject(&buf, Reference{Number: 1}, obj); err != nil {
			t.Fatal(err)
		}
		s := &scanner{by: buf.Bytes()}
		got, err := s.readObject()
		if err != nil {
			t.Fatalf("parsing %q: %s", buf.String(), err)
		}
		want := obj
		if str, ok := obj.(Stream); ok {
			// serialization adds the /Length entry
			str.Dict["Length"] = len(str.Data)
			want = str
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}
