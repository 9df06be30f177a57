package pdfparse

import (
	"bytes"
	"fmt"

	"github.com/fullbleed/fullbleed/numeric"
)

// ParsedPage is one page recovered from a document's page tree: its
// physical size, the concatenated (already filter-decoded) bytes of its
// content stream(s), and its (possibly inherited) resource dictionary.
type ParsedPage struct {
	Size      numeric.Size
	Content   []byte
	Resources *Dict
}

// inherited carries the page-tree attributes that /Pages nodes may push
// down to their descendants (PDF 1.7 §7.7.3.4): a /Page node that omits
// one of these takes it from the nearest ancestor that sets it.
type inherited struct {
	resources *Dict
	mediaBox  [4]float64
	hasBox    bool
}

// Pages walks the document's page tree in document order and returns every
// leaf /Page node, with /Resources and /MediaBox inheritance resolved.
func (doc *Document) Pages() ([]ParsedPage, error) {
	root, err := doc.Root()
	if err != nil {
		return nil, err
	}
	pagesRef, ok := root.Get("Pages")
	if !ok {
		return nil, &TemplateError{Reason: "catalog missing /Pages"}
	}
	pagesObj := doc.Deref(pagesRef)
	if pagesObj.Kind != KindDict {
		return nil, &TemplateError{Reason: "/Pages does not resolve to a dictionary"}
	}
	var out []ParsedPage
	if err := doc.walkPagesNode(pagesObj.Dict, inherited{}, &out, map[*Dict]bool{}); err != nil {
		return nil, err
	}
	return out, nil
}

func (doc *Document) walkPagesNode(d *Dict, parent inherited, out *[]ParsedPage, seen map[*Dict]bool) error {
	if seen[d] {
		return &TemplateError{Reason: "cyclic page tree"}
	}
	seen[d] = true

	cur := parent
	if res, ok := d.Get("Resources"); ok {
		resolved := doc.Deref(res)
		if resolved.Kind == KindDict {
			cur.resources = resolved.Dict
		}
	}
	if box, ok := d.Get("MediaBox"); ok {
		resolved := doc.Deref(box)
		if arr, err := numberArray(resolved, 4); err == nil {
			cur.mediaBox = [4]float64{arr[0], arr[1], arr[2], arr[3]}
			cur.hasBox = true
		}
	}

	typeName, _ := d.GetName("Type")
	if typeName == "Page" {
		return doc.collectPage(d, cur, out)
	}

	kidsObj, ok := d.Get("Kids")
	if !ok {
		// No /Type and no /Kids: treat as a leaf page, matching how real
		// viewers tolerate templates that omit /Type /Page.
		return doc.collectPage(d, cur, out)
	}
	kids := doc.Deref(kidsObj)
	if kids.Kind != KindArray {
		return &TemplateError{Reason: "/Kids is not an array"}
	}
	for _, kidRef := range kids.Array {
		kid := doc.Deref(kidRef)
		if kid.Kind != KindDict {
			return &TemplateError{Reason: "page tree kid does not resolve to a dictionary"}
		}
		if err := doc.walkPagesNode(kid.Dict, cur, out, seen); err != nil {
			return err
		}
	}
	return nil
}

func (doc *Document) collectPage(d *Dict, cur inherited, out *[]ParsedPage) error {
	if !cur.hasBox {
		return &TemplateError{Reason: "page has no MediaBox (direct or inherited)"}
	}
	content, err := doc.pageContent(d)
	if err != nil {
		return err
	}
	w := cur.mediaBox[2] - cur.mediaBox[0]
	h := cur.mediaBox[3] - cur.mediaBox[1]
	*out = append(*out, ParsedPage{
		Size:      numeric.Size{W: numeric.FromPoints(w), H: numeric.FromPoints(h)},
		Content:   content,
		Resources: cur.resources,
	})
	return nil
}

// pageContent resolves /Contents, which may be a single stream reference
// or an array of them; per PDF 1.7 §7.8.2, array entries concatenate into
// one logical content stream, and a newline is inserted between entries
// since nothing else guarantees the last operator of one stream and the
// first token of the next aren't adjacent on the same line.
func (doc *Document) pageContent(d *Dict) ([]byte, error) {
	contentsObj, ok := d.Get("Contents")
	if !ok {
		return nil, nil
	}
	contents := doc.Deref(contentsObj)
	switch contents.Kind {
	case KindStream:
		return contents.StreamRaw, nil
	case KindArray:
		var buf bytes.Buffer
		for _, ref := range contents.Array {
			s := doc.Deref(ref)
			if s.Kind != KindStream {
				return nil, &TemplateError{Reason: "/Contents array entry is not a stream"}
			}
			buf.Write(s.StreamRaw)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	default:
		return nil, &TemplateError{Reason: "/Contents is neither a stream nor an array"}
	}
}

func numberArray(o Object, n int) ([]float64, error) {
	if o.Kind != KindArray || len(o.Array) != n {
		return nil, fmt.Errorf("pdfparse: expected a %d-element numeric array", n)
	}
	out := make([]float64, n)
	for i, e := range o.Array {
		v, ok := e.Number()
		if !ok {
			return nil, fmt.Errorf("pdfparse: array element %d is not a number", i)
		}
		out[i] = v
	}
	return out, nil
}
