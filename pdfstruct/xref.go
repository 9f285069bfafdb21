package pdfstruct

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// readXRef reads all of the cross-reference sections from the document and
// builds a merged cross-reference table.
func (p *PDF) readXRef() (err error) {
	if err = p.readStartXRef(); err != nil {
		return fmt.Errorf(`reading "startxref": %s`, err)
	}
	var seen = make(map[int]bool)
	var addr = p.start
	for addr != 0 {
		if seen[addr] {
			return fmt.Errorf("cross-reference sections form a loop at offset %d", addr)
		}
		seen[addr] = true
		var next int
		if next, err = p.readXRefSection(addr); err != nil {
			return fmt.Errorf("reading xref section at offset %d: %s", addr, err)
		}
		addr = next
	}
	return nil
}

var startXRefRE = regexp.MustCompile(`startxref[\r\n]+(\d+)[\r\n]+%%EOF`)

// readStartXRef finds the "startxref" keyword near the end of the file and
// reads the integer after it, which is the offset of the newest
// cross-reference section.
func (p *PDF) readStartXRef() error {
	tail := p.data
	if len(tail) > 128 {
		tail = tail[len(tail)-128:]
	}
	matches := startXRefRE.FindAllSubmatch(tail, -1)
	if matches == nil {
		return errors.New(`no "startxref" found at end of file`)
	}
	p.start, _ = strconv.Atoi(string(matches[len(matches)-1][1]))
	return nil
}

// readXRefSection reads the cross-reference section at the specified offset.
// It returns the offset of the next older section, which is zero for the
// oldest one.
func (p *PDF) readXRefSection(addr int) (prev int, err error) {
	if addr < 0 || addr+5 > len(p.data) {
		return 0, errors.New("section offset is outside the file")
	}
	// There are two kinds of cross-reference section: tables, which start
	// with the keyword "xref", and streams.
	if bytes.HasPrefix(p.data[addr:], []byte("xref")) && isWhite(p.data[addr+4]) {
		return p.readXRefTable(addr)
	}
	return p.readXRefStream(addr)
}

// readXRefTable reads an old-style cross-reference table and the trailer dict
// after it.
func (p *PDF) readXRefTable(addr int) (prev int, err error) {
	s := &scanner{by: p.data, pos: addr + 4}
	for {
		s.skipSpace()
		if bytes.HasPrefix(s.by[s.pos:], []byte("trailer")) {
			s.pos += 7
			break
		}
		if err = p.readXRefTableSection(s); err != nil {
			return 0, err
		}
	}
	obj, err := s.readObject()
	if err != nil {
		return 0, fmt.Errorf("reading trailer dict: %s", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return 0, fmt.Errorf(`expected dict after "trailer", got %T`, obj)
	}
	// Merge the trailer data into the document trailer, except for two
	// special-case keys: Prev gets returned, and XRefStm points to a
	// hybrid-file cross-reference stream that gets read now.
	for key, val := range trailer {
		switch key {
		case "Prev":
			if val, ok := val.(int); ok {
				prev = val
			} else {
				return 0, errors.New("trailer /Prev is not an integer")
			}
		case "XRefStm":
			if val, ok := val.(int); ok {
				if _, err = p.readXRefStream(val); err != nil {
					return 0, fmt.Errorf("reading hybrid xref stream at offset %d: %s", val, err)
				}
			} else {
				return 0, errors.New("trailer /XRefStm is not an integer")
			}
		default:
			if _, ok := p.Trailer[key]; !ok {
				p.Trailer[key] = val
			}
		}
	}
	return prev, nil
}

// readXRefTableSection reads a single subsection of an xref table: a line with
// a starting object number and a count, followed by count 20-byte entries.
func (p *PDF) readXRefTableSection(s *scanner) error {
	start, err := s.readObject()
	if err != nil {
		return fmt.Errorf("reading xref subsection header: %s", err)
	}
	count, err := s.readObject()
	if err != nil {
		return fmt.Errorf("reading xref subsection header: %s", err)
	}
	first, ok1 := start.(int)
	num, ok2 := count.(int)
	if !ok1 || !ok2 || first < 0 || num < 0 {
		return errors.New("invalid xref subsection header")
	}
	s.skipSpace()
	for i := 0; i < num; i++ {
		if s.pos+18 > len(s.by) {
			return errors.New("truncated xref subsection")
		}
		line := s.by[s.pos : s.pos+18]
		offset, err1 := strconv.Atoi(string(line[:10]))
		gen, err2 := strconv.Atoi(string(line[11:16]))
		if err1 != nil || err2 != nil {
			return fmt.Errorf("invalid xref entry for object %d", first+i)
		}
		switch line[17] {
		case 'n':
			p.setXRef(first+i, xrefEntry{kind: xrefInUse, offset: offset, gen: gen})
		case 'f':
			p.setXRef(first+i, xrefEntry{kind: xrefFree, offset: offset, gen: gen})
		default:
			return fmt.Errorf("invalid xref entry for object %d", first+i)
		}
		// Each entry is exactly 20 bytes; the last two are some mix of
		// space, CR, and LF.
		s.pos += 18
		for j := 0; j < 2 && s.pos < len(s.by); j++ {
			if b := s.by[s.pos]; b == ' ' || b == '\r' || b == '\n' {
				s.pos++
			}
		}
	}
	return nil
}

// readXRefStream reads a cross-reference stream and adds its entries to the
// document cross-reference table.
func (p *PDF) readXRefStream(addr int) (prev int, err error) {
	obj, err := p.readObjectAt(addr)
	if err != nil {
		return 0, err
	}
	str, ok := obj.(Stream)
	if !ok {
		return 0, fmt.Errorf("expected xref stream, got %T", obj)
	}
	if str.Dict["Type"] != Name("XRef") {
		return 0, errors.New(`xref stream /Type is not "XRef"`)
	}
	var index, widths []int
	for key, val := range str.Dict {
		switch key {
		case "Prev":
			if val, ok := val.(int); ok {
				prev = val
			} else {
				return 0, errors.New("xref stream /Prev is not an integer")
			}
		case "Index":
			val, ok := val.(Array)
			if !ok {
				return 0, errors.New("xref stream /Index is not an array")
			}
			for _, vi := range val {
				if vi, ok := vi.(int); ok {
					index = append(index, vi)
				} else {
					return 0, errors.New("xref stream /Index element is not an integer")
				}
			}
			if len(index) < 2 || len(index)%2 != 0 {
				return 0, errors.New("xref stream /Index has wrong number of elements")
			}
		case "W":
			val, ok := val.(Array)
			if !ok || len(val) != 3 {
				return 0, errors.New("xref stream /W is not an array of length 3")
			}
			for _, vi := range val {
				if vi, ok := vi.(int); ok {
					widths = append(widths, vi)
				} else {
					return 0, errors.New("xref stream /W element is not an integer")
				}
			}
		case "Type", "Length", "Filter", "DecodeParms", "F", "FFilter", "FDecodeParms", "DL":
			// structural, not document information
		default:
			if _, ok := p.Trailer[key]; !ok {
				p.Trailer[key] = val
			}
		}
	}
	if len(index) == 0 {
		size, ok := str.Dict["Size"].(int)
		if !ok {
			return 0, errors.New("xref stream has neither /Index nor /Size")
		}
		index = []int{0, size}
	}
	if len(widths) == 0 {
		return 0, errors.New("xref stream is missing /W")
	}
	if err = str.Decompress(widths[0] + widths[1] + widths[2]); err != nil {
		return 0, fmt.Errorf("decompressing xref stream: %s", err)
	}
	data := str.Data
	for len(index) != 0 {
		var first, count int
		first, count, index = index[0], index[1], index[2:]
		for i := first; i < first+count; i++ {
			var kind int
			data, kind = getStreamField(data, widths[0], 1)
			var e xrefEntry
			switch kind {
			case 0:
				e.kind = xrefFree
			case 1:
				e.kind = xrefInUse
			case 2:
				e.kind = xrefInStream
			default:
				return 0, fmt.Errorf("invalid type %d in xref stream for object %d", kind, i)
			}
			data, e.offset = getStreamField(data, widths[1], 0)
			data, e.gen = getStreamField(data, widths[2], 0)
			p.setXRef(i, e)
		}
	}
	if len(data) != 0 {
		return 0, errors.New("extra data at end of xref stream")
	}
	return prev, nil
}

// getStreamField reads one big-endian field of an xref stream entry.  A zero
// field size means the field is absent and the default applies.
func getStreamField(data []byte, size, def int) (_ []byte, val int) {
	if size == 0 {
		return data, def
	}
	for i := 0; i < size && len(data) > 0; i++ {
		val = val*256 + int(data[0])
		data = data[1:]
	}
	return data, val
}
