package paginate

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/numeric"
)

// DocContext is handed to a page template's OnPage callback, grounded on
// original_source/src/doc_context.rs's DocContext.
type DocContext struct {
	PageNumber   int
	TemplateName string
}

// OnPageFunc paints page-level background content (watermarks, page
// furniture) before the body story is placed.
type OnPageFunc func(s *canvasstream.Stream, ctx DocContext)

// PageTemplate describes one page layout: its size and the rectangular
// frames flow content is poured into, in order. Grounded on
// original_source/src/page_template.rs's PageTemplate/FrameSpec.
type PageTemplate struct {
	Name     string
	PageSize numeric.Size
	frames   []numeric.Rect
	onPage   OnPageFunc
}

// NewPageTemplate builds an empty template with the given page size.
func NewPageTemplate(name string, size numeric.Size) PageTemplate {
	return PageTemplate{Name: name, PageSize: size}
}

// WithFrame appends a content frame in pour order and returns the template
// (builder-style, matching the teacher's chained-setter idiom).
func (t PageTemplate) WithFrame(r numeric.Rect) PageTemplate {
	t.frames = append(t.frames, r)
	return t
}

// WithOnPage attaches a per-page-instantiation paint callback.
func (t PageTemplate) WithOnPage(fn OnPageFunc) PageTemplate {
	t.onPage = fn
	return t
}

// OnPage returns the attached callback, or nil.
func (t PageTemplate) OnPage() OnPageFunc { return t.onPage }

// InstantiateFrames returns one fresh, empty Frame per configured rect.
func (t PageTemplate) InstantiateFrames() []*Frame {
	out := make([]*Frame, len(t.frames))
	for i, r := range t.frames {
		out[i] = NewFrame(r)
	}
	return out
}

// SelectTemplate implements templates[min(page_index, templates.len-1)]:
// the last template repeats for every page beyond the configured list.
func SelectTemplate(templates []PageTemplate, pageNumber int) PageTemplate {
	idx := pageNumber - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(templates)-1 {
		idx = len(templates) - 1
	}
	return templates[idx]
}

// Margin groups per-edge overrides for a page; MarginSchedule resolves
// overrides keyed "1", "2", ... "n" (n meaning "each remaining"), falling
// back to Base when no override applies to a given page.
type Margin struct {
	Top, Right, Bottom, Left numeric.Length
}

// MarginSchedule resolves per-page margin overrides declared with keys "1",
// "2", ..., "n" where "n" means "each remaining page"; a page number with no
// matching key falls back to Base.
type MarginSchedule struct {
	Base      Margin
	Overrides map[string]Margin // "1", "2", ... explicit 1-based page keys
	Remaining *Margin           // override for every page beyond the explicit keys
}

// Resolve returns the margin that applies to pageNumber (1-based).
func (ms MarginSchedule) Resolve(pageNumber int) Margin {
	key := itoa(pageNumber)
	if m, ok := ms.Overrides[key]; ok {
		return m
	}
	if ms.Remaining != nil && pageNumber > len(ms.Overrides) {
		return *ms.Remaining
	}
	return ms.Base
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
