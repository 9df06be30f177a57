// Package pdfparse implements the PDF re-parser (C10): it walks an
// existing PDF's page tree, tokenizes each page's content stream back into
// a canvasstream.Stream, and recursively resolves the Form XObject and
// Image XObject resources those operators reference. It is pdfwrite run in
// reverse — the object model, dictionary shape, and content-stream
// operator set here mirror pdfwrite's exactly, since every byte this
// package needs to read is, in the round-trip case, a byte pdfwrite wrote.
package pdfparse

import "fmt"

// Kind discriminates the PDF object variants this parser represents.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindName
	KindArray
	KindDict
	KindRef
	KindStream
)

// Ref is an indirect object reference ("12 0 R"). Generation is carried for
// fidelity but this parser, like the writer, only ever produces/consumes
// generation 0.
type Ref struct {
	Num int
	Gen int
}

// Object is a tagged union over every PDF object type the re-parser deals
// with. Only the fields matching Kind are populated.
type Object struct {
	Kind Kind

	Bool bool
	Int  int64
	Real float64
	Str  []byte
	Name string

	Array []Object
	Dict  *Dict
	Ref   Ref

	// StreamDict/StreamRaw are populated when Kind == KindStream: the
	// dictionary preceding "stream", and the payload with every /Filter
	// already applied (so callers never see compressed bytes).
	StreamDict *Dict
	StreamRaw  []byte
}

// Number reports an Int or Real object as float64, for callers that don't
// care which literal form produced it (PDF itself treats them
// interchangeably in most contexts, e.g. MediaBox entries).
func (o Object) Number() (float64, bool) {
	switch o.Kind {
	case KindInt:
		return float64(o.Int), true
	case KindReal:
		return o.Real, true
	default:
		return 0, false
	}
}

func (o Object) String() string {
	switch o.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", o.Bool)
	case KindInt:
		return fmt.Sprintf("%d", o.Int)
	case KindReal:
		return fmt.Sprintf("%v", o.Real)
	case KindString:
		return string(o.Str)
	case KindName:
		return "/" + o.Name
	case KindRef:
		return fmt.Sprintf("%d %d R", o.Ref.Num, o.Ref.Gen)
	case KindArray:
		return fmt.Sprintf("array[%d]", len(o.Array))
	case KindDict:
		return "dict"
	case KindStream:
		return fmt.Sprintf("stream[%d bytes]", len(o.StreamRaw))
	default:
		return "?"
	}
}

// dictEntry is one key/value pair, kept in insertion order so a Dict that
// was built by walking a serialized PDF dictionary preserves its key order
// (nothing here depends on that order for correctness, but it keeps
// round-tripped output stable for anything that re-serializes a Dict).
type dictEntry struct {
	Key   string
	Value Object
}

// Dict is an ordered PDF dictionary, mirroring pdfwrite.Dict's shape but
// holding parsed Objects rather than pre-formatted strings.
type Dict struct {
	entries []dictEntry
}

// NewDict returns an empty ordered dictionary.
func NewDict() *Dict { return &Dict{} }

// Set appends key/value, or overwrites the value in place if key is
// already present.
func (d *Dict) Set(key string, v Object) {
	for i := range d.entries {
		if d.entries[i].Key == key {
			d.entries[i].Value = v
			return
		}
	}
	d.entries = append(d.entries, dictEntry{Key: key, Value: v})
}

// Get returns the value for key and whether it was present.
func (d *Dict) Get(key string) (Object, bool) {
	for _, e := range d.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Object{}, false
}

// Keys returns the dictionary's keys in insertion order.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// GetName is a convenience accessor for a /Name-valued entry.
func (d *Dict) GetName(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok || v.Kind != KindName {
		return "", false
	}
	return v.Name, true
}

// GetInt is a convenience accessor for an integer-valued entry.
func (d *Dict) GetInt(key string) (int64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.Number()
	return int64(n), ok
}
