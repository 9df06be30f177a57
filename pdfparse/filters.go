package pdfparse

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// decodeStream applies every filter named in the stream dictionary's
// /Filter entry to raw, in order, and returns the result. FlateDecode is
// the only filter pdfwrite ever emits, so it's the only one this parser
// inflates; DCTDecode (baseline JPEG) is left untouched here and decoded
// later by image/jpeg once the bytes are known to back an Image XObject —
// zlib-inflating a JPEG stream would be wrong, since DCTDecode's payload
// is never Flate-wrapped. Any other filter name (CCITTFaxDecode, JPXDecode,
// ...) is out of scope per spec.md's baseline and is returned unmodified so
// callers can surface an explicit unsupported-codec error instead of this
// package silently mangling bytes it doesn't understand.
//
// Determinism only binds pdfwrite's encoder (spec.md 4.8); this decoder
// reads arbitrary, possibly third-party-authored PDF bytes, so it uses the
// standard library's zlib implementation rather than a hand-rolled
// inflater — there is no byte-identical-output requirement to protect here,
// only correctness against whatever a real FlateDecode stream contains.
func decodeStream(d *Dict, raw []byte) ([]byte, error) {
	names, err := filterNames(d)
	if err != nil {
		return nil, err
	}
	out := raw
	for _, name := range names {
		switch name {
		case "FlateDecode", "Fl":
			zr, err := zlib.NewReader(bytes.NewReader(out))
			if err != nil {
				return nil, fmt.Errorf("pdfparse: FlateDecode: %w", err)
			}
			decoded, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return nil, fmt.Errorf("pdfparse: FlateDecode: %w", err)
			}
			out = decoded
		case "DCTDecode", "DCT":
			// left raw; decoded by image/jpeg at XObject-decode time.
		default:
			// unsupported filter: left raw, caller decides whether that's fatal.
		}
	}
	return out, nil
}

// filterNames normalizes /Filter (absent, a single Name, or an Array of
// Names) into a slice, applied in order.
func filterNames(d *Dict) ([]string, error) {
	v, ok := d.Get("Filter")
	if !ok {
		return nil, nil
	}
	switch v.Kind {
	case KindName:
		return []string{v.Name}, nil
	case KindArray:
		names := make([]string, 0, len(v.Array))
		for _, e := range v.Array {
			if e.Kind != KindName {
				return nil, fmt.Errorf("pdfparse: /Filter array entry is not a name")
			}
			names = append(names, e.Name)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("pdfparse: /Filter is neither a name nor an array")
	}
}

// StreamFilterName reports the last filter name on a stream dict's
// /Filter entry (the one whose encoding remains after decodeStream), or ""
// when absent — used by XObject image decode to tell
// FlateDecode-compressed raw samples from a deferred DCTDecode payload.
func StreamFilterName(d *Dict) string {
	names, err := filterNames(d)
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}
