package pdfparse

import (
	"bytes"
	"fmt"
	"strconv"
)

// Document is a parsed PDF: object offsets discovered from its
// cross-reference table, a lazily-populated decode cache, and the
// trailer dictionary.
type Document struct {
	data    []byte
	offsets map[int]int // object number -> byte offset of "N G obj"
	cache   map[int]Object
	trailer *Dict
}

// ParseDocument parses a PDF's classic cross-reference table and trailer.
// Only the classic "xref\n0 N\n..." table format is supported — pdfwrite
// never emits cross-reference streams, and the vendored templates this
// package is the other consumer for are expected to be equally simple,
// non-linearized files. A document built on a cross-reference stream
// (PDF 1.5+'s compressed xref) is rejected with a structured error rather
// than silently misparsed.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{data: data, offsets: map[int]int{}, cache: map[int]Object{}}
	startOffset, err := findStartXref(data)
	if err != nil {
		return nil, err
	}
	trailer, err := doc.readXrefChain(startOffset)
	if err != nil {
		return nil, err
	}
	doc.trailer = trailer
	if _, ok := trailer.Get("Encrypt"); ok {
		return nil, &TemplateError{Reason: "encrypted PDF templates are rejected"}
	}
	if _, ok := trailer.Get("Root"); !ok {
		return nil, &TemplateError{Reason: "trailer missing /Root"}
	}
	return doc, nil
}

func findStartXref(data []byte) (int, error) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return 0, &TemplateError{Reason: "missing startxref"}
	}
	p := &parser{data: data, pos: idx + len("startxref")}
	p.skipWhite()
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, &TemplateError{Reason: "malformed startxref offset"}
	}
	n, err := strconv.Atoi(string(p.data[start:p.pos]))
	if err != nil {
		return 0, &TemplateError{Reason: "malformed startxref offset"}
	}
	return n, nil
}

// readXrefChain parses one "xref" table section at offset plus its
// trailer, recording any object-number -> byte-offset entry not already
// known (so the most recently written section — visited first — always
// wins), then follows /Prev if present. visited guards against a cyclic
// chain in a malformed/adversarial template.
func (doc *Document) readXrefChain(offset int) (*Dict, error) {
	return doc.readXrefChainVisited(offset, map[int]bool{})
}

func (doc *Document) readXrefChainVisited(offset int, visited map[int]bool) (*Dict, error) {
	if visited[offset] {
		return nil, &TemplateError{Reason: "cyclic cross-reference chain"}
	}
	visited[offset] = true

	p := &parser{data: doc.data, pos: offset}
	p.skipWhite()
	if !p.matchKeyword("xref") {
		return nil, &TemplateError{Reason: "expected xref table, found a cross-reference stream or corrupt offset"}
	}
	for {
		p.skipWhite()
		if p.matchKeyword("trailer") {
			break
		}
		start, n, err := readSubsectionHeader(p)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			p.skipWhite()
			if p.pos+20 > len(p.data) {
				return nil, &TemplateError{Reason: "truncated xref entry"}
			}
			entry := p.data[p.pos : p.pos+20]
			p.pos += 20
			objNum := start + i
			if _, known := doc.offsets[objNum]; known {
				continue
			}
			kind := entry[17]
			if kind == 'n' {
				off, err := strconv.Atoi(string(bytes.TrimSpace(entry[0:10])))
				if err != nil {
					return nil, &TemplateError{Reason: "malformed xref offset"}
				}
				doc.offsets[objNum] = off
			}
		}
	}
	trailerObj, err := p.parseObject()
	if err != nil {
		return nil, fmt.Errorf("pdfparse: trailer: %w", err)
	}
	if trailerObj.Kind != KindDict {
		return nil, &TemplateError{Reason: "trailer is not a dictionary"}
	}
	if prev, ok := trailerObj.Dict.Get("Prev"); ok {
		if n, ok := prev.Number(); ok {
			if _, err := doc.readXrefChainVisited(int(n), visited); err != nil {
				return nil, err
			}
		}
	}
	return trailerObj.Dict, nil
}

func readSubsectionHeader(p *parser) (start, count int, err error) {
	p.skipWhite()
	s, isInt, err := p.scanNumber()
	if err != nil || !isInt {
		return 0, 0, &TemplateError{Reason: "malformed xref subsection header"}
	}
	p.skipWhite()
	c, isInt, err := p.scanNumber()
	if err != nil || !isInt {
		return 0, 0, &TemplateError{Reason: "malformed xref subsection header"}
	}
	return int(s), int(c), nil
}

// Resolve looks up an indirect object by reference, parsing and caching it
// on first access.
func (doc *Document) Resolve(ref Ref) (Object, bool) {
	if obj, ok := doc.cache[ref.Num]; ok {
		return obj, true
	}
	offset, ok := doc.offsets[ref.Num]
	if !ok {
		return Object{}, false
	}
	p := &parser{data: doc.data, pos: offset, resolve: doc.Resolve}
	p.skipWhite()
	if _, _, err := p.scanNumber(); err != nil {
		return Object{}, false
	}
	p.skipWhite()
	if _, _, err := p.scanNumber(); err != nil {
		return Object{}, false
	}
	p.skipWhite()
	if !p.matchKeyword("obj") {
		return Object{}, false
	}
	obj, err := p.parseObject()
	if err != nil {
		return Object{}, false
	}
	doc.cache[ref.Num] = obj
	return obj, true
}

// Deref follows a single indirect reference if v is one, otherwise returns
// v unchanged — a convenience for the many dictionary values that are
// allowed to be either direct or indirect.
func (doc *Document) Deref(v Object) Object {
	if v.Kind == KindRef {
		if resolved, ok := doc.Resolve(v.Ref); ok {
			return resolved
		}
	}
	return v
}

// Trailer returns the parsed trailer dictionary.
func (doc *Document) Trailer() *Dict { return doc.trailer }

// Root resolves and returns the document Catalog.
func (doc *Document) Root() (*Dict, error) {
	rootRef, ok := doc.trailer.Get("Root")
	if !ok {
		return nil, &TemplateError{Reason: "trailer missing /Root"}
	}
	root := doc.Deref(rootRef)
	if root.Kind != KindDict {
		return nil, &TemplateError{Reason: "/Root does not resolve to a dictionary"}
	}
	return root.Dict, nil
}
