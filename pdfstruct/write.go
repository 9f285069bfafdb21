package pdfstruct

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

// WriteObject serializes obj to wr as the indirect object identified by ref.
func WriteObject(wr io.Writer, ref Reference, obj Object) (err error) {
	if _, err = fmt.Fprintf(wr, "%d %d obj ", ref.Number, ref.Generation); err != nil {
		return err
	}
	if err = WriteRaw(wr, obj); err != nil {
		return err
	}
	_, err = fmt.Fprint(wr, " endobj\r\n")
	return err
}

// WriteRaw serializes obj to wr.  Dict keys are written in sorted order so
// that the byte output for a given object is deterministic.
func WriteRaw(wr io.Writer, obj Object) (err error) {
	switch obj := obj.(type) {
	case nil:
		_, err = fmt.Fprint(wr, "null")
	case bool, int:
		_, err = fmt.Fprint(wr, obj)
	case float64:
		_, err = fmt.Fprintf(wr, "%f", obj)
	case string:
		_, err = fmt.Fprint(wr, encodeString(obj))
	case []byte:
		_, err = fmt.Fprint(wr, encodeHexString(obj))
	case Name:
		_, err = fmt.Fprint(wr, encodeName(obj))
	case Array:
		if _, err = fmt.Fprint(wr, "[ "); err != nil {
			return err
		}
		for i, o := range obj {
			if i != 0 {
				if _, err = fmt.Fprint(wr, " "); err != nil {
					return err
				}
			}
			if err = WriteRaw(wr, o); err != nil {
				return err
			}
		}
		_, err = fmt.Fprint(wr, " ]")
	case Dict:
		if err = writeDictBody(wr, obj); err != nil {
			return err
		}
	case Stream:
		obj.Dict["Length"] = len(obj.Data)
		if err = writeDictBody(wr, obj.Dict); err != nil {
			return err
		}
		if _, err = fmt.Fprint(wr, " stream\n"); err != nil {
			return err
		}
		if _, err = wr.Write(obj.Data); err != nil {
			return err
		}
		_, err = fmt.Fprint(wr, "\nendstream")
	case Reference:
		_, err = fmt.Fprintf(wr, "%d %d R", obj.Number, obj.Generation)
	default:
		return errors.New("unsupported object type")
	}
	return err
}

func writeDictBody(wr io.Writer, d Dict) (err error) {
	if _, err = fmt.Fprint(wr, "<<"); err != nil {
		return err
	}
	keys := maps.Keys(d)
	slices.Sort(keys)
	for _, key := range keys {
		if _, err = fmt.Fprintf(wr, " %s ", encodeName(key)); err != nil {
			return err
		}
		if err = WriteRaw(wr, d[key]); err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(wr, " >>")
	return err
}

func encodeString(s string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, b := range []byte(s) {
		switch b {
		case '\r':
			sb.WriteByte('\\')
			sb.WriteByte('r')
		case '\\', '(', ')':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func encodeHexString(by []byte) string {
	return "<" + hex.EncodeToString(by) + ">"
}

func encodeName(n Name) string {
	var sb strings.Builder
	sb.WriteByte('/')
	for _, b := range []byte(string(n)) {
		if isRegularChar(b) && b != '#' {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "#%02X", b)
		}
	}
	return sb.String()
}
