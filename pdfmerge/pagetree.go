package pdfmerge

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/rothskeller/pdfmerge/pdfstruct"
)

// rebuildPageTree re-creates the page tree rooted at node in the output object
// space, with parent as the new parent reference, and returns the reference to
// the rebuilt node along with the number of leaf pages below it.  The shape of
// the hierarchy is preserved exactly; only object identities and parent
// linkage change.
//
// The node's own number is reserved before its children are copied, so that
// each child can carry a /Parent reference to content that hasn't been written
// yet.
func rebuildPageTree(c *copier, node pdfstruct.Dict, parent pdfstruct.Reference) (pdfstruct.Reference, int, error) {
	ref := c.w.reserve()
	switch node["Type"] {
	case pdfstruct.Name("Pages"):
		kidsObj := node["Kids"]
		if kidsRef, ok := kidsObj.(pdfstruct.Reference); ok {
			var err error
			if kidsObj, err = c.src.Get(kidsRef); err != nil {
				return pdfstruct.Reference{}, 0, fmt.Errorf("reading /Kids: %s", err)
			}
		}
		kids, ok := kidsObj.(pdfstruct.Array)
		if !ok {
			return pdfstruct.Reference{}, 0, fmt.Errorf("/Kids is %T, not an Array", kidsObj)
		}
		var newKids = make(pdfstruct.Array, 0, len(kids))
		var count int
		for i, kid := range kids {
			kidRef, ok := kid.(pdfstruct.Reference)
			if !ok {
				return pdfstruct.Reference{}, 0, fmt.Errorf("/Kids element %d is %T, not a reference", i, kid)
			}
			kidDict, err := c.src.GetDict(kidRef)
			if err != nil {
				return pdfstruct.Reference{}, 0, fmt.Errorf("reading /Kids element %d: %s", i, err)
			}
			newKidRef, n, err := rebuildPageTree(c, kidDict, ref)
			if err != nil {
				return pdfstruct.Reference{}, 0, err
			}
			newKids = append(newKids, newKidRef)
			count += n
		}
		err := c.w.write(ref, pdfstruct.Dict{
			"Type":   pdfstruct.Name("Pages"),
			"Kids":   newKids,
			"Count":  count,
			"Parent": parent,
		})
		if err != nil {
			return pdfstruct.Reference{}, 0, err
		}
		return ref, count, nil
	case pdfstruct.Name("Page"):
		var nd = make(pdfstruct.Dict, len(node))
		// Visit keys in sorted order so that output object numbers,
		// which are assigned as references are first reached, are
		// deterministic.
		keys := maps.Keys(node)
		slices.Sort(keys)
		for _, key := range keys {
			if key == "Parent" {
				continue
			}
			nv, err := c.copyObject(node[key])
			if err != nil {
				return pdfstruct.Reference{}, 0, fmt.Errorf("copying page /%s: %s", key, err)
			}
			nd[key] = nv
		}
		nd["Parent"] = parent
		if err := c.w.write(ref, nd); err != nil {
			return pdfstruct.Reference{}, 0, err
		}
		return ref, 1, nil
	default:
		return pdfstruct.Reference{}, 0, fmt.Errorf("page tree node /Type is %v, not /Pages or /Page", node["Type"])
	}
}
