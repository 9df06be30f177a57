package pdfwrite

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fullbleed/fullbleed/deflate"
)

// Version selects the PDF file-level version banner.
type Version int

const (
	Version17 Version = iota
	Version20
)

func (v Version) header() []byte {
	switch v {
	case Version20:
		return []byte("%PDF-2.0\n%\xE2\xE3\xCF\xD3\n")
	default:
		return []byte("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
	}
}

// flateThreshold is the minimum stream byte length before Flate compression
// is applied; below it, raw storage avoids compression overhead for no
// real size benefit, per spec.md 4.7's "Streams" rule.
const flateThreshold = 256

// Writer builds a PDF object graph in fixed traversal order: AllocID hands
// out the next object number, objects are rendered to their final byte
// offsets in a single forward pass, and Write emits header, objects, xref
// table, and trailer in that fixed sequence. No timestamp is ever written
// unless the caller puts one explicitly into a Dict.
type Writer struct {
	version Version
	objects map[int][]byte
	nextID  int
	order   []int // traversal order objects were allocated in
}

// NewWriter returns an empty object graph. Object id 0 is reserved (the
// PDF free-list head); allocation starts at 1.
func NewWriter(version Version) *Writer {
	return &Writer{version: version, objects: map[int][]byte{}, nextID: 1}
}

// AllocID reserves the next object number without writing a body yet,
// used when a later object needs to reference an id before its content is
// known (e.g. a page referencing its not-yet-rendered content stream).
func (w *Writer) AllocID() int {
	id := w.nextID
	w.nextID++
	w.order = append(w.order, id)
	return id
}

// AllocIDs reserves n consecutive object numbers and returns the first.
func (w *Writer) AllocIDs(n int) int {
	first := w.nextID
	for i := 0; i < n; i++ {
		w.AllocID()
	}
	return first
}

// SetObject renders a non-stream object body ("<< ... >>", an array, etc.)
// at the given previously-allocated id.
func (w *Writer) SetObject(id int, body string) {
	w.objects[id] = []byte(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", id, body))
}

// SetStream renders a stream object: dict augmented with /Length (and
// /Filter /FlateDecode when compression is applied), followed by the raw
// or compressed bytes between stream/endstream markers. Compression is
// applied only when raw is at least flateThreshold bytes and the encoded
// bytes come out shorter than raw.
func (w *Writer) SetStream(ctx context.Context, id int, dict *Dict, raw []byte) error {
	payload := raw
	compressed := false
	if len(raw) >= flateThreshold {
		enc, err := deflate.ZlibDeflate(ctx, raw)
		if err != nil {
			return err
		}
		if len(enc) < len(raw) {
			payload = enc
			compressed = true
		}
	}
	d := cloneDict(dict)
	if compressed {
		d.SetName("Filter", "FlateDecode")
	}
	d.SetInt("Length", len(payload))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d 0 obj\n%s\nstream\n", id, d.String())
	buf.Write(payload)
	buf.WriteString("\nendstream\nendobj\n")
	w.objects[id] = buf.Bytes()
	return nil
}

func cloneDict(d *Dict) *Dict {
	c := NewDict()
	c.entries = append(c.entries, d.entries...)
	return c
}

// Write serializes header, every allocated object (in allocation order),
// the xref table, and the trailer, returning the final PDF bytes. An
// object id allocated but never given a body (AllocID called, SetObject/
// SetStream never) is an internal error — every reservation must resolve.
func (w *Writer) Write(rootID, infoID int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(w.version.header())

	offsets := make(map[int]int, len(w.order))
	for _, id := range w.order {
		body, ok := w.objects[id]
		if !ok {
			return nil, fmt.Errorf("pdfwrite: object %d allocated but never written", id)
		}
		offsets[id] = buf.Len()
		buf.Write(body)
	}

	xrefOffset := buf.Len()
	maxID := 0
	for _, id := range w.order {
		if id > maxID {
			maxID = id
		}
	}
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxID+1)
	buf.WriteString("0000000000 65535 f \n")
	for id := 1; id <= maxID; id++ {
		off, ok := offsets[id]
		if !ok {
			buf.WriteString("0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := NewDict()
	trailer.SetInt("Size", maxID+1)
	trailer.SetRef("Root", rootID)
	if infoID > 0 {
		trailer.SetRef("Info", infoID)
	}
	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.String(), xrefOffset)
	return buf.Bytes(), nil
}
