package paginate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/flow"
	"github.com/fullbleed/fullbleed/numeric"
)

// ErrMissingPageTemplate reports an empty template list or a template with
// no frames at all, mirroring original_source's FullBleedError::MissingPageTemplate.
var ErrMissingPageTemplate = errors.New("paginate: no page template with frames available")

// UnplaceableFlowableError reports a flowable that cannot be placed even on
// an otherwise-empty final frame, mirroring
// FullBleedError::UnplaceableFlowable.
type UnplaceableFlowableError struct {
	Detail string
}

func (e *UnplaceableFlowableError) Error() string {
	return fmt.Sprintf("paginate: unplaceable flowable: %s", e.Detail)
}

// StoryItem pairs a body flowable with the data-* aggregation entries it
// contributes once placed.
type StoryItem struct {
	Flowable flow.Flowable
	Meta     []MetaEntry
}

// Page is one finished, fully-composed page: template decoration,
// watermarks, fixed overlays, body content, and header/footer all flattened
// into a single command stream in final paint order.
type Page struct {
	Number   int
	Template PageTemplate
	Stream   *canvasstream.Stream
}

// Document is the pagination state machine's final output.
type Document struct {
	Pages       []Page
	Aggregates  *AggregateContext
	Diagnostics []ConvergenceDiagnostic
}

// DocTemplate assembles a document from a body story, page templates,
// header/footer definitions, and watermark layers. Grounded end to end on
// original_source/src/doc_template.rs's DocTemplate::build.
type DocTemplate struct {
	Templates   []PageTemplate
	Story       []StoryItem
	Headers     []HeaderFooterSpec
	Footers     []HeaderFooterSpec
	Watermarks  []Watermark
	Aggregators AggregatorSpec
}

// NewDocTemplate builds an empty document template over the given page
// template rotation.
func NewDocTemplate(templates []PageTemplate) *DocTemplate {
	return &DocTemplate{Templates: templates}
}

// AddFlowable appends one body flowable (with optional aggregation meta)
// to the story.
func (d *DocTemplate) AddFlowable(f flow.Flowable, meta ...MetaEntry) {
	d.Story = append(d.Story, StoryItem{Flowable: f, Meta: meta})
}

type pageBuild struct {
	number   int
	template PageTemplate
	deco     *canvasstream.Stream // template.OnPage decoration
	body     *canvasstream.Stream
	meta     []MetaEntry
}

// Build runs the full pagination state machine: body placement with
// break-before/after/inside control and frame/page-template rotation, then
// a finalize pass that composes watermarks, fixed position:fixed overlays,
// and header/footer substitution (which needs the final page count, known
// only once body placement completes).
func (d *DocTemplate) Build(m flow.Measurer) (*Document, error) {
	if len(d.Templates) == 0 {
		return nil, ErrMissingPageTemplate
	}

	var fixedOverlays []StoryItem
	var story []StoryItem
	for _, item := range d.Story {
		if item.Flowable.IsFixed() {
			fixedOverlays = append(fixedOverlays, item)
		} else {
			story = append(story, item)
		}
	}

	pageNumber := 1
	template := SelectTemplate(d.Templates, pageNumber)
	frames := template.InstantiateFrames()
	frameIndex := 0
	placedOnPage := false

	var pages []*pageBuild
	newPage := func(num int, tmpl PageTemplate) *pageBuild {
		pb := &pageBuild{number: num, template: tmpl, deco: canvasstream.New(), body: canvasstream.New()}
		if tmpl.OnPage() != nil {
			tmpl.OnPage()(pb.deco, DocContext{PageNumber: num, TemplateName: tmpl.Name})
		}
		return pb
	}
	current := newPage(pageNumber, template)

	finishPage := func() {
		if len(current.body.Commands) == 0 && len(current.deco.Commands) == 0 {
			return
		}
		pages = append(pages, current)
	}

	advancePage := func() {
		finishPage()
		pageNumber++
		template = SelectTemplate(d.Templates, pageNumber)
		frames = template.InstantiateFrames()
		frameIndex = 0
		placedOnPage = false
		current = newPage(pageNumber, template)
	}

	for _, item := range story {
		cur := item.Flowable
		suppressBreakBefore := false
		metaRecorded := false
	placeLoop:
		for {
			if len(frames) == 0 {
				return nil, ErrMissingPageTemplate
			}
			breakBefore := cur.BreakBefore()
			if !suppressBreakBefore && (breakBefore == cssom.BreakAlways || breakBefore == cssom.BreakPage) &&
				(placedOnPage || frameIndex > 0) {
				advancePage()
			}
			if frameIndex >= len(frames) {
				advancePage()
			}

			isLastFrame := frameIndex+1 >= len(frames)
			result, remainder := frames[frameIndex].Add(cur, current.body, m)
			switch result {
			case Placed:
				placedOnPage = true
				if !metaRecorded {
					current.meta = append(current.meta, item.Meta...)
					metaRecorded = true
				}
				if cur.BreakAfter() == cssom.BreakAlways || cur.BreakAfter() == cssom.BreakPage {
					advancePage()
				}
				break placeLoop
			case Split:
				placedOnPage = true
				if !metaRecorded {
					current.meta = append(current.meta, item.Meta...)
					metaRecorded = true
				}
				suppressBreakBefore = true
				cur = remainder
				frameIndex++
			case Overflow:
				if !placedOnPage && isLastFrame {
					return nil, &UnplaceableFlowableError{Detail: fmt.Sprintf("frame %d too small for flowable", frameIndex)}
				}
				cur = remainder
				frameIndex++
			}
		}
	}

	if len(pages) == 0 || len(current.body.Commands) > 0 || len(current.deco.Commands) > 0 {
		finishPage()
	}
	if len(pages) == 0 {
		pages = append(pages, current)
	}

	pageCount := len(pages)
	perPageMeta := make([][]MetaEntry, pageCount)
	for i, pb := range pages {
		perPageMeta[i] = pb.meta
	}
	aggCtx := ComputeAggregateContext(perPageMeta, d.Aggregators)

	doc := &Document{Aggregates: aggCtx}
	for _, pb := range pages {
		final := canvasstream.New()
		composePage(final, pb, fixedOverlays, d.Watermarks, d.Headers, d.Footers, pageCount, aggCtx, m)
		doc.Pages = append(doc.Pages, Page{Number: pb.number, Template: pb.template, Stream: final})
	}
	return doc, nil
}

// composePage flattens one page's layers into final paint order: page
// decoration, background watermarks, underlay fixed overlays (z<0), body,
// overlay fixed overlays (z>=0), overlay watermarks, then header/footer.
func composePage(final *canvasstream.Stream, pb *pageBuild, fixedOverlays []StoryItem, watermarks []Watermark,
	headers, footers []HeaderFooterSpec, pageCount int, aggCtx *AggregateContext, m flow.Measurer) {

	pageRect := numeric.Rect{W: pb.template.PageSize.W, H: pb.template.PageSize.H}

	final.Append(pb.deco)

	for _, w := range watermarks {
		if w.Layer == WatermarkBackground && w.AppliesTo(pb.number, pageCount) {
			drawFullPage(final, w.Content, pageRect, m)
		}
	}

	underlay, overlay := splitFixedLanes(fixedOverlays)
	for _, it := range underlay {
		drawFullPage(final, it.Flowable, pageRect, m)
	}

	final.Append(pb.body)

	for _, it := range overlay {
		drawFullPage(final, it.Flowable, pageRect, m)
	}

	for _, w := range watermarks {
		if w.Layer == WatermarkOverlay && w.AppliesTo(pb.number, pageCount) {
			drawFullPage(final, w.Content, pageRect, m)
		}
	}

	if hf, ok := SelectHeaderFooter(headers, pb.number, pageCount); ok {
		drawHeaderFooter(final, hf, pb.number, pageCount, aggCtx, m)
	}
	if hf, ok := SelectHeaderFooter(footers, pb.number, pageCount); ok {
		drawHeaderFooter(final, hf, pb.number, pageCount, aggCtx, m)
	}
}

func drawFullPage(s *canvasstream.Stream, f flow.Flowable, pageRect numeric.Rect, m flow.Measurer) {
	if f == nil {
		return
	}
	size := f.Wrap(numeric.Size{W: pageRect.W, H: pageRect.H}, m)
	f.Draw(s, numeric.Point{X: pageRect.X, Y: pageRect.Y}, size, m)
}

func drawHeaderFooter(s *canvasstream.Stream, hf HeaderFooterSpec, pageNumber, pageCount int, aggCtx *AggregateContext, m flow.Measurer) {
	text := Substitute(hf.Template, pageNumber, pageCount, aggCtx)
	p := flow.NewParagraph(hf.Style, text)
	size := p.Wrap(numeric.Size{W: hf.Frame.W, H: hf.Frame.H}, m)
	p.Draw(s, numeric.Point{X: hf.Frame.X, Y: hf.Frame.Y}, size, m)
}

// splitFixedLanes partitions position:fixed flowables by z-index sign
// (underlay z<0, overlay z>=0), each lane ordered by ascending z then
// source order, per spec.md 4.5's Positioning section.
func splitFixedLanes(items []StoryItem) (underlay, overlay []StoryItem) {
	for _, it := range items {
		if it.Flowable.ZIndex() < 0 {
			underlay = append(underlay, it)
		} else {
			overlay = append(overlay, it)
		}
	}
	sort.SliceStable(underlay, func(i, j int) bool { return underlay[i].Flowable.ZIndex() < underlay[j].Flowable.ZIndex() })
	sort.SliceStable(overlay, func(i, j int) bool { return overlay[i].Flowable.ZIndex() < overlay[j].Flowable.ZIndex() })
	return
}
