package pdfstruct

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// readObjectAt parses the object at the specified offset in the file.  If the
// offset holds an indirect object ("N G obj ... endobj"), the wrapped value is
// returned.
func (p *PDF) readObjectAt(addr int) (Object, error) {
	if addr < 0 || addr >= len(p.data) {
		return nil, fmt.Errorf("object offset %d is outside the file", addr)
	}
	s := &scanner{by: p.data, pos: addr}
	obj, err := s.readObject()
	if err != nil {
		return nil, fmt.Errorf("reading object at offset %d: %s", addr, err)
	}
	return obj, nil
}

// A scanner walks a byte buffer, producing Objects.
type scanner struct {
	by  []byte
	pos int
}

func (s *scanner) errf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", s.pos, fmt.Sprintf(format, args...))
}

func (s *scanner) eof() bool { return s.pos >= len(s.by) }

// skipSpace advances past whitespace and comments.
func (s *scanner) skipSpace() {
	for s.pos < len(s.by) {
		b := s.by[s.pos]
		if isWhite(b) {
			s.pos++
			continue
		}
		if b == '%' {
			for s.pos < len(s.by) && s.by[s.pos] != '\r' && s.by[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		break
	}
}

// readObject parses the next object in the buffer.
func (s *scanner) readObject() (Object, error) {
	s.skipSpace()
	if s.eof() {
		return nil, io.ErrUnexpectedEOF
	}
	switch b := s.by[s.pos]; {
	case b == '(':
		s.pos++
		return s.readString()
	case b == '<':
		if s.pos+1 < len(s.by) && s.by[s.pos+1] == '<' {
			s.pos += 2
			return s.readDict()
		}
		s.pos++
		return s.readHex()
	case b == '/':
		s.pos++
		return s.readName()
	case b == '[':
		s.pos++
		return s.readArray()
	case b == ')' || b == '>' || b == ']' || b == '{' || b == '}':
		return nil, s.errf("unexpected %q", string(b))
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return s.readNumber()
	default:
		return s.readKeyword()
	}
}

// refObjRE matches the "N G R" and "N G obj" forms, which can only be
// distinguished from a plain number by lookahead.
var refObjRE = regexp.MustCompile(`^([0-9]+)[\x00\t\n\f\r ]+([0-9]+)[\x00\t\n\f\r ]+(R|obj)(?:[\x00\t\n\f\r ()<>\[\]{}/%]|$)`)

func (s *scanner) readNumber() (Object, error) {
	if loc := refObjRE.FindSubmatchIndex(s.by[s.pos:]); loc != nil {
		num, _ := strconv.Atoi(string(s.by[s.pos+loc[2] : s.pos+loc[3]]))
		gen, _ := strconv.Atoi(string(s.by[s.pos+loc[4] : s.pos+loc[5]]))
		keyword := string(s.by[s.pos+loc[6] : s.pos+loc[7]])
		s.pos += loc[7] // keyword consumed, trailing delimiter not
		if keyword == "R" {
			return Reference{Number: num, Generation: gen}, nil
		}
		return s.readIndirectBody()
	}
	start := s.pos
	for s.pos < len(s.by) && isRegularChar(s.by[s.pos]) {
		s.pos++
	}
	tok := string(s.by[start:s.pos])
	if num, err := strconv.Atoi(tok); err == nil {
		return num, nil
	}
	if num, err := strconv.ParseFloat(tok, 64); err == nil {
		return num, nil
	}
	return nil, s.errf("invalid numeric constant %q", tok)
}

// readIndirectBody parses the value between "obj" and "endobj".
func (s *scanner) readIndirectBody() (Object, error) {
	obj, err := s.readObject()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if !bytes.HasPrefix(s.by[s.pos:], []byte("endobj")) {
		return nil, s.errf(`expected "endobj" after indirect object`)
	}
	if s.pos+6 < len(s.by) && isRegularChar(s.by[s.pos+6]) {
		return nil, s.errf(`expected "endobj" after indirect object`)
	}
	s.pos += 6
	return obj, nil
}

func (s *scanner) readString() (Object, error) {
	var out []byte
	var depth = 1
	for {
		if s.eof() {
			return nil, io.ErrUnexpectedEOF
		}
		b := s.by[s.pos]
		s.pos++
		switch b {
		case '(':
			depth++
			out = append(out, b)
		case ')':
			depth--
			if depth == 0 {
				return string(out), nil
			}
			out = append(out, b)
		case '\\':
			if s.eof() {
				return nil, io.ErrUnexpectedEOF
			}
			e := s.by[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if !s.eof() && s.by[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
				// escaped newline: line continuation, no output
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := e - '0'
				for i := 0; i < 2 && !s.eof() && s.by[s.pos] >= '0' && s.by[s.pos] <= '7'; i++ {
					v = v*8 + s.by[s.pos] - '0'
					s.pos++
				}
				out = append(out, v)
			default:
				out = append(out, e)
			}
		case '\r':
			if !s.eof() && s.by[s.pos] == '\n' {
				s.pos++
			}
			out = append(out, '\n')
		default:
			out = append(out, b)
		}
	}
}

func (s *scanner) readHex() (Object, error) {
	var out []byte
	var cur byte
	var half bool
	for {
		if s.eof() {
			return nil, io.ErrUnexpectedEOF
		}
		b := s.by[s.pos]
		s.pos++
		if b == '>' {
			if half {
				out = append(out, cur<<4)
			}
			if out == nil {
				out = []byte{}
			}
			return out, nil
		}
		if isWhite(b) {
			continue
		}
		v, ok := hexVal(b)
		if !ok {
			return nil, s.errf("invalid character %q in hex string", string(b))
		}
		if half {
			out = append(out, cur<<4|v)
			half = false
		} else {
			cur, half = v, true
		}
	}
}

func (s *scanner) readName() (Object, error) {
	var out []byte
	for s.pos < len(s.by) {
		b := s.by[s.pos]
		if b == '#' && s.pos+2 < len(s.by) {
			h1, ok1 := hexVal(s.by[s.pos+1])
			h2, ok2 := hexVal(s.by[s.pos+2])
			if !ok1 || !ok2 {
				return nil, s.errf("invalid hex escape in name")
			}
			out = append(out, h1<<4|h2)
			s.pos += 3
			continue
		}
		if !isRegularChar(b) {
			break
		}
		out = append(out, b)
		s.pos++
	}
	return Name(out), nil
}

func (s *scanner) readArray() (Object, error) {
	var a Array
	for {
		s.skipSpace()
		if s.eof() {
			return nil, io.ErrUnexpectedEOF
		}
		if s.by[s.pos] == ']' {
			s.pos++
			return a, nil
		}
		obj, err := s.readObject()
		if err != nil {
			return nil, fmt.Errorf("reading array element: %s", err)
		}
		a = append(a, obj)
	}
}

func (s *scanner) readDict() (Object, error) {
	var d = make(Dict)
	for {
		s.skipSpace()
		if s.pos+1 < len(s.by) && s.by[s.pos] == '>' && s.by[s.pos+1] == '>' {
			s.pos += 2
			break
		}
		if s.eof() {
			return nil, io.ErrUnexpectedEOF
		}
		if s.by[s.pos] != '/' {
			return nil, s.errf("expected /Name key in dict")
		}
		s.pos++
		keyObj, err := s.readName()
		if err != nil {
			return nil, err
		}
		key := keyObj.(Name)
		val, err := s.readObject()
		if err != nil {
			return nil, fmt.Errorf("reading value for /%s in dict: %s", key, err)
		}
		d[key] = val
	}
	// The dict may be the first half of a stream object.
	save := s.pos
	s.skipSpace()
	if !bytes.HasPrefix(s.by[s.pos:], []byte("stream")) {
		s.pos = save
		return d, nil
	}
	if s.pos+6 >= len(s.by) || (s.by[s.pos+6] != '\r' && s.by[s.pos+6] != '\n') {
		s.pos = save
		return d, nil
	}
	s.pos += 6
	if s.by[s.pos] == '\r' {
		s.pos++
	}
	if !s.eof() && s.by[s.pos] == '\n' {
		s.pos++
	}
	var size int
	switch l := d["Length"].(type) {
	case int:
		size = l
		if s.pos+size > len(s.by) {
			return nil, s.errf("stream overruns end of file")
		}
	default:
		// Length missing or indirect; fall back to locating "endstream".
		idx := bytes.Index(s.by[s.pos:], []byte("endstream"))
		if idx < 0 {
			return nil, s.errf(`missing "endstream"`)
		}
		size = idx
		if size > 0 && s.by[s.pos+size-1] == '\n' {
			size--
		}
		if size > 0 && s.by[s.pos+size-1] == '\r' {
			size--
		}
	}
	str := Stream{Dict: d, Data: s.by[s.pos : s.pos+size]}
	s.pos += size
	if !s.eof() && s.by[s.pos] == '\r' {
		s.pos++
	}
	if !s.eof() && s.by[s.pos] == '\n' {
		s.pos++
	}
	if !bytes.HasPrefix(s.by[s.pos:], []byte("endstream")) {
		return nil, s.errf(`expected "endstream" at end of stream`)
	}
	s.pos += 9
	return str, nil
}

func (s *scanner) readKeyword() (Object, error) {
	start := s.pos
	for s.pos < len(s.by) && isRegularChar(s.by[s.pos]) {
		s.pos++
	}
	switch kw := string(s.by[start:s.pos]); kw {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return nil, s.errf("unexpected keyword %q", kw)
	}
}

const nonRegularChars = "\x00\t\n\f\r ()<>[]{}/%"

func isRegularChar(b byte) bool {
	return strings.IndexByte(nonRegularChars, b) < 0
}

func isWhite(b byte) bool {
	return b == 0 || b == '\t' || b == '\n' || b == '\f' || b == '\r' || b == ' '
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}
