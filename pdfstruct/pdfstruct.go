// Package pdfstruct provides methods for reading the basic object structure of
// a PDF, and for serializing objects back out.  It doesn't understand the
// semantics of the PDF at all; it just knows how to locate, parse, and write
// objects.  The whole document is held in memory.
package pdfstruct

import (
	"bytes"
	"errors"
	"fmt"
)

// An Object is an object as defined by the PDF specification.  While an Object
// is defined as "any", it will in fact be one of the following:
//   - nil (a null object)
//   - bool
//   - int
//   - float64
//   - string
//   - []byte (a hex string)
//   - Name
//   - Array
//   - Dict
//   - Stream
//   - Reference
type Object any

// A Name is a PDF/Postscript name, without the leading slash.
type Name string

// An Array is an array of objects.
type Array []Object

// A Dict is a map from Name to Object.
type Dict map[Name]Object

// A Stream is a Dict followed by a block of arbitrary data.  The data is kept
// in whatever encoding the file uses; call Decompress to decode it.
type Stream struct {
	Dict Dict
	Data []byte
}

// A Reference is an indirect reference to an Object.
type Reference struct {
	Number     int
	Generation int
}

// Cross-reference table entry kinds.
const (
	xrefNone = iota // object number never seen
	xrefFree
	xrefInUse
	xrefInStream
)

// An xrefEntry locates one object.  For in-use objects, offset is the byte
// offset of the object and gen its generation.  For objects held in an object
// stream, offset is the containing stream's object number and gen the index
// within the stream.  For free objects, offset is the next free object number.
type xrefEntry struct {
	kind   int
	offset int
	gen    int
}

// A PDF is a parsed PDF document.
type PDF struct {
	data    []byte
	start   int
	version string
	xref    []xrefEntry
	cache   map[int]Object
	Trailer Dict
	Catalog Dict
}

// Open parses a PDF document held in memory.  The cross-reference chain must
// be intact; damaged documents are rejected.
func Open(data []byte) (*PDF, error) {
	return open(data, false)
}

// OpenLenient parses a PDF document held in memory.  If the cross-reference
// chain is damaged, it rebuilds the table by scanning the file for object
// headers.
func OpenLenient(data []byte) (*PDF, error) {
	return open(data, true)
}

func open(data []byte, lenient bool) (p *PDF, err error) {
	p = &PDF{data: data, Trailer: make(Dict), cache: make(map[int]Object)}
	if err = p.readHeader(); err != nil {
		return nil, err
	}
	if err = p.readXRef(); err != nil {
		if !lenient {
			return nil, err
		}
		if rerr := p.rebuildXRef(); rerr != nil {
			return nil, fmt.Errorf("%s (recovery failed: %s)", err, rerr)
		}
	}
	root, ok := p.Trailer["Root"].(Reference)
	if !ok {
		return nil, fmt.Errorf("document /Root is %T, not a reference", p.Trailer["Root"])
	}
	obj, err := p.Get(root)
	if err != nil {
		return nil, fmt.Errorf("reading document catalog: %s", err)
	}
	if catalog, ok := obj.(Dict); ok {
		p.Catalog = catalog
	} else {
		return nil, fmt.Errorf("document catalog is %T, not a Dict", obj)
	}
	return p, nil
}

func (p *PDF) readHeader() error {
	if !bytes.HasPrefix(p.data, []byte("%PDF-")) {
		return errors.New("not a PDF file")
	}
	i := 5
	for i < len(p.data) && isRegularChar(p.data[i]) {
		i++
	}
	p.version = string(p.data[5:i])
	return nil
}

// Version returns the version number from the document header, e.g. "1.7".
func (p *PDF) Version() string { return p.version }

// Encrypted reports whether the document trailer declares an encryption
// dictionary.
func (p *PDF) Encrypted() bool { return p.Trailer["Encrypt"] != nil }

// Pages returns the root node of the document's page tree, along with the
// reference to it.
func (p *PDF) Pages() (Dict, Reference, error) {
	ref, ok := p.Catalog["Pages"].(Reference)
	if !ok {
		return nil, Reference{}, fmt.Errorf("catalog /Pages is %T, not a reference", p.Catalog["Pages"])
	}
	dict, err := p.GetDict(ref)
	if err != nil {
		return nil, Reference{}, fmt.Errorf("reading page tree root: %s", err)
	}
	return dict, ref, nil
}

// setXRef records the location of an object, unless a later cross-reference
// section has already recorded one.  (Sections are read newest first.)
func (p *PDF) setXRef(num int, e xrefEntry) {
	p.growXRef(num)
	if p.xref[num].kind == xrefNone {
		p.xref[num] = e
	}
}

func (p *PDF) growXRef(num int) {
	if num >= len(p.xref) {
		t := make([]xrefEntry, num+1)
		copy(t, p.xref)
		p.xref = t
	}
}
