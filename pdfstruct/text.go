package pdfstruct

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// DecodeTextString converts a PDF text string to UTF-8.  Text strings with a
// UTF-16 byte order mark are transcoded; anything else is assumed to be in
// PDFDocEncoding and returned unchanged.
func DecodeTextString(s string) string {
	var dec *encoding.Decoder
	switch {
	case strings.HasPrefix(s, "\xfe\xff"):
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case strings.HasPrefix(s, "\xff\xfe"):
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	default:
		return s
	}
	if out, err := dec.String(s); err == nil {
		return out
	}
	return s
}
