// Package pdfmerge combines multiple PDF documents into a single document.
//
// Each source document's page tree is re-created under a new aggregate page
// tree root, with every object it references copied into a fresh object space.
// The sources are never modified; the output is a complete, freshly numbered
// PDF written in one pass.  Encrypted source documents are not supported and
// are rejected outright.
package pdfmerge

import (
	"errors"
	"fmt"
	"os"

	"github.com/rothskeller/pdfmerge/pdfstruct"
)

// Errors that callers may want to distinguish.  Any of these, and any other
// error returned while merging, is fatal to the whole merge: a Merger never
// produces partial output.
var (
	// ErrEncrypted is returned when a source document declares an
	// encryption dictionary.
	ErrEncrypted = errors.New("pdfmerge: source document is encrypted")
	// ErrFinished is returned by any call made after Finish.
	ErrFinished = errors.New("pdfmerge: merger has already been finished")
	// ErrNoPages is returned by Finish when nothing was merged.
	ErrNoPages = errors.New("pdfmerge: merged document would have no pages")
)

// The output header: version line, then a comment with four bytes above 127 to
// mark the file as binary per convention.
const header = "%PDF-1.7\r\n%\xe2\xe3\xcf\xd3\r\n"

// A Merger accumulates source documents and assembles the merged output.  It
// is single-use: after Finish, every call fails with ErrFinished.  A Merger
// must not be used from multiple goroutines; independent Mergers are fine.
type Merger struct {
	w     *writer
	pages pdfstruct.Reference // reserved number of the aggregate page tree root
	kids  pdfstruct.Array     // rebuilt root-pages reference per source, in order
	count int                 // total leaf pages so far
	err   error               // set when an Append fails; poisons the merge
	done  bool
}

// New returns a Merger with the output header written and the aggregate page
// tree root reserved, so that every copied page can point to it before it is
// written.
func New() *Merger {
	m := &Merger{w: newWriter()}
	m.w.buf.WriteString(header)
	m.pages = m.w.reserve()
	return m
}

// Append copies the page tree of src, and everything it references, to the end
// of the output.  Page order within the document is preserved; documents
// appear in Append order.  If Append returns an error, the whole merge has
// failed and Finish will refuse to produce output.
func (m *Merger) Append(src *pdfstruct.PDF) error {
	if m.done {
		return ErrFinished
	}
	if m.err != nil {
		return m.err
	}
	if src == nil {
		return errors.New("pdfmerge: nil source document")
	}
	if src.Encrypted() {
		m.err = ErrEncrypted
		return m.err
	}
	root, _, err := src.Pages()
	if err != nil {
		m.err = fmt.Errorf("pdfmerge: %s", err)
		return m.err
	}
	c := newCopier(src, m.w)
	ref, count, err := rebuildPageTree(c, root, m.pages)
	if err != nil {
		m.err = fmt.Errorf("pdfmerge: copying page tree: %s", err)
		return m.err
	}
	m.kids = append(m.kids, ref)
	m.count += count
	return nil
}

// Finish writes the aggregate page tree root, the catalog, the cross-reference
// table, and the trailer, and returns the complete merged document.  The
// Merger is inert afterwards.
func (m *Merger) Finish() ([]byte, error) {
	if m.done {
		return nil, ErrFinished
	}
	m.done = true
	if m.err != nil {
		return nil, m.err
	}
	if len(m.kids) == 0 || m.count == 0 {
		return nil, ErrNoPages
	}
	err := m.w.write(m.pages, pdfstruct.Dict{
		"Type":  pdfstruct.Name("Pages"),
		"Kids":  m.kids,
		"Count": m.count,
	})
	if err != nil {
		return nil, fmt.Errorf("pdfmerge: %s", err)
	}
	catalog, err := m.w.add(pdfstruct.Dict{
		"Type":  pdfstruct.Name("Catalog"),
		"Pages": m.pages,
	})
	if err != nil {
		return nil, fmt.Errorf("pdfmerge: %s", err)
	}
	if err = m.writeTrailer(catalog); err != nil {
		return nil, fmt.Errorf("pdfmerge: %s", err)
	}
	out := m.w.buf.Bytes()
	m.w = nil // release the buffer
	return out, nil
}

// writeTrailer emits the classical cross-reference table covering every
// written object, the trailer naming catalog as the document root, and the
// startxref line.
func (m *Merger) writeTrailer(catalog pdfstruct.Reference) error {
	w := m.w
	size := w.next
	start := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\r\n0 %d\r\n", size)
	w.buf.WriteString("0000000000 65535 f\r\n")
	for num := 1; num < size; num++ {
		offset, ok := w.offsets[num]
		if !ok {
			return fmt.Errorf("object number %d was reserved but never written", num)
		}
		fmt.Fprintf(&w.buf, "%010d %05d n\r\n", offset, 0)
	}
	w.buf.WriteString("trailer\r\n")
	err := pdfstruct.WriteRaw(&w.buf, pdfstruct.Dict{
		"Size": size,
		"Root": catalog,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(&w.buf, "\r\nstartxref\r\n%d\r\n%%%%EOF\r\n", start)
	return nil
}

// Merge combines the given PDF documents, in order, into a single document.
// Sources are parsed leniently; any parse or merge failure aborts the whole
// operation.
func Merge(inputs ...[]byte) ([]byte, error) {
	if len(inputs) == 0 {
		return nil, errors.New("pdfmerge: no input documents")
	}
	m := New()
	for i, data := range inputs {
		src, err := pdfstruct.OpenLenient(data)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		if err = m.Append(src); err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
	}
	return m.Finish()
}

// MergeFiles merges the named PDF files, in order, and writes the result to
// outPath.
func MergeFiles(outPath string, inPaths ...string) error {
	var inputs = make([][]byte, len(inPaths))
	for i, path := range inPaths {
		var err error
		if inputs[i], err = os.ReadFile(path); err != nil {
			return err
		}
	}
	merged, err := Merge(inputs...)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, merged, 0666)
}
