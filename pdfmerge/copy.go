package pdfmerge

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/rothskeller/pdfmerge/pdfstruct"
)

// A copier deep-copies objects out of one source document into the output
// object space, resolving and rewriting every indirect reference along the
// way.  Each reference occurrence gets its own fresh copy: no attempt is made
// to share a subgraph that the source cites from multiple places, which keeps
// every document's subtree fully isolated in the output.
type copier struct {
	src    *pdfstruct.PDF
	w      *writer
	active map[pdfstruct.Reference]bool // references currently being copied
}

func newCopier(src *pdfstruct.PDF, w *writer) *copier {
	return &copier{src: src, w: w, active: make(map[pdfstruct.Reference]bool)}
}

// copyObject returns a copy of obj that is valid in the output object space.
func (c *copier) copyObject(obj pdfstruct.Object) (pdfstruct.Object, error) {
	switch obj := obj.(type) {
	case nil, bool, int, float64, string, []byte, pdfstruct.Name:
		return obj, nil
	case pdfstruct.Array:
		return c.copyArray(obj)
	case pdfstruct.Dict:
		return c.copyDict(obj)
	case pdfstruct.Stream:
		return c.copyStream(obj)
	case pdfstruct.Reference:
		return c.copyReference(obj)
	default:
		return nil, fmt.Errorf("unexpected object type %T", obj)
	}
}

func (c *copier) copyArray(old pdfstruct.Array) (pdfstruct.Array, error) {
	var na = make(pdfstruct.Array, 0, len(old))
	for i, ov := range old {
		nv, err := c.copyObject(ov)
		if err != nil {
			return nil, fmt.Errorf("element %d: %s", i, err)
		}
		na = append(na, nv)
	}
	return na, nil
}

func (c *copier) copyDict(old pdfstruct.Dict) (pdfstruct.Dict, error) {
	var nd = make(pdfstruct.Dict, len(old))
	// Visit keys in sorted order so that output object numbers, which are
	// assigned as references are first reached, are deterministic.
	keys := maps.Keys(old)
	slices.Sort(keys)
	for _, key := range keys {
		nv, err := c.copyObject(old[key])
		if err != nil {
			return nil, fmt.Errorf("/%s: %s", key, err)
		}
		nd[key] = nv
	}
	return nd, nil
}

func (c *copier) copyStream(old pdfstruct.Stream) (pdfstruct.Stream, error) {
	dict, err := c.copyDict(old.Dict)
	if err != nil {
		return pdfstruct.Stream{}, err
	}
	// The payload stays in its original encoding; only the dict needs
	// rewriting.
	return pdfstruct.Stream{Dict: dict, Data: old.Data}, nil
}

// copyReference resolves old against the source document, copies the resolved
// object into the output under a freshly reserved number, and returns the new
// reference.  A reference that resolves directly to another reference means
// the source is malformed, and a reference reached again while it is still
// being copied means the source graph has a cycle; both are fatal.
func (c *copier) copyReference(old pdfstruct.Reference) (pdfstruct.Reference, error) {
	if c.active[old] {
		return pdfstruct.Reference{}, fmt.Errorf("reference cycle through object %d %d", old.Number, old.Generation)
	}
	c.active[old] = true
	defer delete(c.active, old)
	obj, err := c.src.Get(old)
	if err != nil {
		return pdfstruct.Reference{}, err
	}
	if _, ok := obj.(pdfstruct.Reference); ok {
		return pdfstruct.Reference{}, fmt.Errorf("object %d %d resolves to another reference", old.Number, old.Generation)
	}
	ref := c.w.reserve()
	copied, err := c.copyObject(obj)
	if err != nil {
		return pdfstruct.Reference{}, fmt.Errorf("object %d %d: %s", old.Number, old.Generation, err)
	}
	if err = c.w.write(ref, copied); err != nil {
		return pdfstruct.Reference{}, err
	}
	return ref, nil
}
