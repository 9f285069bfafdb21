package pdfmerge

import (
	"bytes"
	"fmt"

	"github.com/rothskeller/pdfmerge/pdfstruct"
)

// A writer owns the output object space: it hands out object numbers, appends
// serialized objects to the output buffer, and records the byte offset of each
// one for the cross-reference table.  The buffer is append-only, so a recorded
// offset is final; an object that must be cited before its content exists is
// handled by reserving its number first and writing it later.
type writer struct {
	buf     bytes.Buffer
	next    int           // next free object number
	offsets map[int]int64 // object number -> byte offset, set once at write time
}

func newWriter() *writer {
	return &writer{next: 1, offsets: make(map[int]int64)}
}

// reserve allocates the next free object number without writing anything.
func (w *writer) reserve() pdfstruct.Reference {
	ref := pdfstruct.Reference{Number: w.next}
	w.next++
	return ref
}

// write appends obj to the output as the indirect object identified by ref,
// which must have been reserved and not yet written.
func (w *writer) write(ref pdfstruct.Reference, obj pdfstruct.Object) error {
	if ref.Number < 1 || ref.Number >= w.next {
		return fmt.Errorf("object number %d was never reserved", ref.Number)
	}
	if _, ok := w.offsets[ref.Number]; ok {
		return fmt.Errorf("object number %d written twice", ref.Number)
	}
	w.offsets[ref.Number] = int64(w.buf.Len())
	return pdfstruct.WriteObject(&w.buf, ref, obj)
}

// add reserves a fresh object number, writes obj under it, and returns the
// reference.
func (w *writer) add(obj pdfstruct.Object) (pdfstruct.Reference, error) {
	ref := w.reserve()
	if err := w.write(ref, obj); err != nil {
		return pdfstruct.Reference{}, err
	}
	return ref, nil
}
