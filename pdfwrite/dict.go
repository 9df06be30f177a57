package pdfwrite

import (
	"strconv"
	"strings"
)

// entry is one key/value pair in a Dict, kept in insertion order so callers
// control the fixed key order spec.md's determinism invariants require.
type entry struct {
	key   string
	value string
}

// Dict is an ordered PDF dictionary. Unlike a Go map, iteration order is
// exactly insertion order, never randomized.
type Dict struct {
	entries []entry
}

// NewDict returns an empty ordered dictionary.
func NewDict() *Dict { return &Dict{} }

// Set appends key/value, or overwrites value in place if key was already
// set (keeping its original position — callers that need explicit
// reordering should build a fresh Dict instead).
func (d *Dict) Set(key, value string) *Dict {
	for i := range d.entries {
		if d.entries[i].key == key {
			d.entries[i].value = value
			return d
		}
	}
	d.entries = append(d.entries, entry{key: key, value: value})
	return d
}

// SetName sets key to a PDF name value (/Value).
func (d *Dict) SetName(key, name string) *Dict { return d.Set(key, FormatName(name)) }

// SetInt sets key to an integer value.
func (d *Dict) SetInt(key string, v int) *Dict { return d.Set(key, strconv.Itoa(v)) }

// SetRef sets key to an indirect reference "<id> 0 R".
func (d *Dict) SetRef(key string, id int) *Dict { return d.Set(key, Ref(id)) }

// SetBool sets key to true/false.
func (d *Dict) SetBool(key string, v bool) *Dict {
	if v {
		return d.Set(key, "true")
	}
	return d.Set(key, "false")
}

// Ref renders an indirect object reference.
func Ref(id int) string { return strconv.Itoa(id) + " 0 R" }

// String renders the dictionary as "<< /K1 v1 /K2 v2 ... >>".
func (d *Dict) String() string {
	var b strings.Builder
	b.WriteString("<<")
	for _, e := range d.entries {
		b.WriteByte(' ')
		b.WriteString(FormatName(e.key))
		b.WriteByte(' ')
		b.WriteString(e.value)
	}
	b.WriteString(" >>")
	return b.String()
}

// Array renders a fixed-order PDF array from pre-formatted element strings.
func Array(elems ...string) string {
	return "[" + strings.Join(elems, " ") + "]"
}
