package pdfstruct

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// Decompress removes any compression and/or encoding from the stream data.
// Some encoding methods need to know the size (in bytes) of a "row" in the
// data for decoding, so that is a parameter.
func (s *Stream) Decompress(rowsize int) error {
	var filters []string
	var parms []Dict

	switch flist := s.Dict["Filter"].(type) {
	case nil:
		return nil // not encoded
	case Name:
		filters = []string{string(flist)}
		switch dp := s.Dict["DecodeParms"].(type) {
		case nil:
			break
		case Dict:
			parms = []Dict{dp}
		default:
			return errors.New("stream /DecodeParms is not a dict")
		}
	case Array:
		for _, f := range flist {
			if f, ok := f.(Name); ok {
				filters = append(filters, string(f))
			} else {
				return errors.New("stream /Filter entry is not a /Name")
			}
		}
		switch dp := s.Dict["DecodeParms"].(type) {
		case nil:
			break
		case Array:
			if len(dp) != len(flist) {
				return errors.New("stream /DecodeParms is an array of the wrong length")
			}
			parms = make([]Dict, len(dp))
			for i, d := range dp {
				if d, ok := d.(Dict); ok {
					parms[i] = d
				} else if d != nil {
					return errors.New("stream /DecodeParms entry is not a dict")
				}
			}
		default:
			return errors.New("stream /DecodeParms is not an array")
		}
	default:
		return errors.New("stream /Filter is not a /Name or array")
	}
	for i, filter := range filters {
		var dp Dict
		if parms != nil {
			dp = parms[i]
		}
		switch filter {
		case "FlateDecode":
			if err := decompressFlateStream(s, dp, rowsize); err != nil {
				return err
			}
		default:
			return fmt.Errorf("stream /Filter encoding /%s is not supported", filter)
		}
	}
	delete(s.Dict, "Filter") // so we don't do it again
	return nil
}

// decompressFlateStream applies the "FlateDecode" method to the stream.
func decompressFlateStream(s *Stream, parms Dict, rowsize int) error {
	zr, err := zlib.NewReader(bytes.NewReader(s.Data))
	if err != nil {
		return fmt.Errorf("running FlateDecode on stream: %s", err)
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, zr); err != nil {
		return fmt.Errorf("running FlateDecode on stream: %s", err)
	}
	zr.Close()
	s.Data = buf.Bytes()
	if parms == nil {
		return nil
	}
	switch pred := parms["Predictor"].(type) {
	case nil:
		return nil
	case int:
		switch pred {
		case 1:
			return nil // identity
		case 10, 11, 12, 13, 14, 15:
			// PNG predictor algorithms.  Which one doesn't matter;
			// each row carries its own filter type byte.
			if rowsize == 0 {
				return errors.New("rowsize is needed for stream decoding and was not provided")
			}
			s.Data, err = unpredictPNG(s.Data, rowsize)
			return err
		default:
			return fmt.Errorf("FlateDecode predictor %d is not supported", pred)
		}
	default:
		return errors.New("FlateDecode /Predictor is not an integer")
	}
}

// unpredictPNG reverses the PNG predictor algorithm on the data.  Each row of
// the data is preceded by a byte saying how that row was encoded.
func unpredictPNG(data []byte, rowsize int) ([]byte, error) {
	if len(data)%(rowsize+1) != 0 {
		return nil, errors.New("stream length is not a multiple of row length")
	}
	rows := len(data) / (rowsize + 1)
	var out int
	for row := 0; row < rows; row++ {
		in := row * (rowsize + 1)
		switch data[in] {
		case 0:
			copy(data[out:], data[in+1:in+rowsize+1])
		case 2:
			// "Up" filter: each byte is a delta from the byte above.
			if row == 0 {
				copy(data[out:], data[in+1:in+rowsize+1])
			} else {
				for b := 0; b < rowsize; b++ {
					data[out+b] = data[in+b+1] + data[out+b-rowsize]
				}
			}
		default:
			return nil, fmt.Errorf("unexpected PNG filter type %d", data[in])
		}
		out += rowsize
	}
	return data[:out], nil
}
