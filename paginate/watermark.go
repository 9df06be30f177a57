package paginate

import "github.com/fullbleed/fullbleed/flow"

// WatermarkLayer selects whether a watermark paints below or above the body
// flow for a page.
type WatermarkLayer int

const (
	WatermarkBackground WatermarkLayer = iota
	WatermarkOverlay
)

// WatermarkKind enumerates the supported watermark content kinds.
type WatermarkKind int

const (
	WatermarkText WatermarkKind = iota
	WatermarkHTML
	WatermarkImage
)

// WatermarkSemantic tags how a watermark should be treated by a consuming
// PDF viewer/printer, per spec.md 4.5.
type WatermarkSemantic int

const (
	SemanticVisual WatermarkSemantic = iota
	SemanticArtifact
	SemanticOCG
)

// Watermark is one watermark layer applied on every page unless filtered.
type Watermark struct {
	Layer    WatermarkLayer
	Kind     WatermarkKind
	Semantic WatermarkSemantic
	Content  flow.Flowable
	// Filter, when non-nil, suppresses this watermark on pages for which it
	// returns false.
	Filter func(pageNumber, pageCount int) bool
}

// AppliesTo reports whether the watermark should be painted on pageNumber.
func (w Watermark) AppliesTo(pageNumber, pageCount int) bool {
	if w.Filter == nil {
		return true
	}
	return w.Filter(pageNumber, pageCount)
}
