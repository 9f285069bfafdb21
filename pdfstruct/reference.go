package pdfstruct

import (
	"errors"
	"fmt"
)

// GetArray gets the array object specified by the reference.
func (p *PDF) GetArray(r Reference) (Array, error) {
	obj, err := p.Get(r)
	if err != nil {
		return nil, err
	}
	if array, ok := obj.(Array); ok {
		return array, nil
	}
	return nil, fmt.Errorf("object %d %d is %T, not an Array", r.Number, r.Generation, obj)
}

// GetDict gets the dict object specified by the reference.
func (p *PDF) GetDict(r Reference) (Dict, error) {
	obj, err := p.Get(r)
	if err != nil {
		return nil, err
	}
	if dict, ok := obj.(Dict); ok {
		return dict, nil
	}
	return nil, fmt.Errorf("object %d %d is %T, not a Dict", r.Number, r.Generation, obj)
}

// GetStream gets the stream object specified by the reference.
func (p *PDF) GetStream(r Reference) (Stream, error) {
	obj, err := p.Get(r)
	if err != nil {
		return Stream{}, err
	}
	if stream, ok := obj.(Stream); ok {
		return stream, nil
	}
	return Stream{}, fmt.Errorf("object %d %d is %T, not a Stream", r.Number, r.Generation, obj)
}

// GetInt gets the integer object specified by the reference.
func (p *PDF) GetInt(r Reference) (int, error) {
	obj, err := p.Get(r)
	if err != nil {
		return 0, err
	}
	if num, ok := obj.(int); ok {
		return num, nil
	}
	return 0, fmt.Errorf("object %d %d is %T, not an int", r.Number, r.Generation, obj)
}

// Get returns the object specified by the reference.  If the stored object is
// itself a reference, that reference is returned without further resolution;
// chasing such chains is the caller's decision.
func (p *PDF) Get(r Reference) (obj Object, err error) {
	if r.Number < 1 || r.Number >= len(p.xref) {
		return nil, fmt.Errorf("object number %d is out of range for document (max %d)", r.Number, len(p.xref)-1)
	}
	if obj, ok := p.cache[r.Number]; ok {
		return obj, nil
	}
	e := p.xref[r.Number]
	switch e.kind {
	case xrefFree:
		return nil, fmt.Errorf("object number %d is on the free list", r.Number)
	case xrefInUse:
		if e.gen != r.Generation {
			return nil, fmt.Errorf("object number %d has generation %d but %d was requested", r.Number, e.gen, r.Generation)
		}
		if obj, err = p.readObjectAt(e.offset); err != nil {
			return nil, fmt.Errorf("reading object number %d: %s", r.Number, err)
		}
	case xrefInStream:
		if r.Generation != 0 {
			return nil, fmt.Errorf("object number %d is in an object stream but has a nonzero generation number", r.Number)
		}
		container, cerr := p.objectStream(e.offset)
		if cerr != nil {
			return nil, fmt.Errorf("reading stream %d containing object %d: %s", e.offset, r.Number, cerr)
		}
		if obj, err = extractFromObjectStream(container, e.gen); err != nil {
			return nil, fmt.Errorf("extracting object %d from stream %d at index %d: %s", r.Number, e.offset, e.gen, err)
		}
	default:
		return nil, fmt.Errorf("object number %d does not exist in the document", r.Number)
	}
	p.cache[r.Number] = obj
	return obj, nil
}

// objectStream returns the decompressed object stream with the given object
// number, caching the result so that repeated extractions decode it only once.
func (p *PDF) objectStream(num int) (Stream, error) {
	if obj, ok := p.cache[num]; ok {
		if str, ok := obj.(Stream); ok {
			return str, nil
		}
		return Stream{}, fmt.Errorf("object %d is not a stream", num)
	}
	if num < 1 || num >= len(p.xref) || p.xref[num].kind != xrefInUse {
		return Stream{}, fmt.Errorf("object stream %d does not exist in the document", num)
	}
	obj, err := p.readObjectAt(p.xref[num].offset)
	if err != nil {
		return Stream{}, err
	}
	str, ok := obj.(Stream)
	if !ok {
		return Stream{}, fmt.Errorf("object %d is %T, not a Stream", num, obj)
	}
	if err = str.Decompress(0); err != nil {
		return Stream{}, err
	}
	p.cache[num] = str
	return str, nil
}

// extractFromObjectStream returns the object at the given index within a
// decompressed object stream.  The stream data starts with N pairs of
// integers giving each object's number and its offset relative to /First.
func extractFromObjectStream(str Stream, idx int) (Object, error) {
	if ty, _ := str.Dict["Type"].(Name); ty != "ObjStm" {
		return nil, errors.New("stream is not an object stream")
	}
	n, ok := str.Dict["N"].(int)
	if !ok || idx < 0 || idx >= n {
		return nil, errors.New("index out of range for object stream")
	}
	first, ok := str.Dict["First"].(int)
	if !ok {
		return nil, errors.New("object stream is missing /First")
	}
	s := &scanner{by: str.Data}
	var offset int
	for i := 0; i <= idx*2+1; i++ {
		obj, err := s.readObject()
		if err != nil {
			return nil, fmt.Errorf("reading object stream header: %s", err)
		}
		num, ok := obj.(int)
		if !ok {
			return nil, errors.New("object stream header holds a non-integer")
		}
		offset = num
	}
	s = &scanner{by: str.Data, pos: first + offset}
	return s.readObject()
}
