package pdfstruct

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
)

var objHeaderRE = regexp.MustCompile(`([0-9]{1,10})[\x00\t ]+([0-9]{1,5})[\x00\t ]+obj[\x00\t\n\f\r ()<>\[\]{}/%]`)

// rebuildXRef reconstructs the cross-reference table of a document whose xref
// chain could not be read, by scanning the whole file for "N G obj" headers.
// Where the same object number appears more than once, the later occurrence
// wins, matching the behavior of incremental updates.
func (p *PDF) rebuildXRef() error {
	p.xref = nil
	p.cache = make(map[int]Object)
	for _, loc := range objHeaderRE.FindAllSubmatchIndex(p.data, -1) {
		if loc[2] > 0 && isRegularChar(p.data[loc[2]-1]) {
			continue // matched inside a longer token
		}
		num, _ := strconv.Atoi(string(p.data[loc[2]:loc[3]]))
		gen, _ := strconv.Atoi(string(p.data[loc[4]:loc[5]]))
		if num < 1 {
			continue
		}
		p.growXRef(num)
		p.xref[num] = xrefEntry{kind: xrefInUse, offset: loc[2], gen: gen}
	}
	if len(p.xref) == 0 {
		return errors.New("no object headers found in file")
	}
	// If a trailer dict survives anywhere in the file, mine it for the
	// document information the xref chain would have supplied.
	if idx := bytes.LastIndex(p.data, []byte("trailer")); idx >= 0 {
		s := &scanner{by: p.data, pos: idx + 7}
		if obj, err := s.readObject(); err == nil {
			if trailer, ok := obj.(Dict); ok {
				for key, val := range trailer {
					if key == "Prev" || key == "XRefStm" {
						continue
					}
					if _, ok := p.Trailer[key]; !ok {
						p.Trailer[key] = val
					}
				}
			}
		}
	}
	if _, ok := p.Trailer["Root"].(Reference); ok {
		return nil
	}
	// No usable trailer; last resort is to find the document catalog among
	// the recovered objects.
	for num := len(p.xref) - 1; num >= 1; num-- {
		if p.xref[num].kind != xrefInUse {
			continue
		}
		ref := Reference{Number: num, Generation: p.xref[num].gen}
		obj, err := p.Get(ref)
		if err != nil {
			continue
		}
		if dict, ok := obj.(Dict); ok && dict["Type"] == Name("Catalog") {
			p.Trailer["Root"] = ref
			return nil
		}
	}
	return errors.New("could not locate the document catalog")
}
