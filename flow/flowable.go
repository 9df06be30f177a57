// Package flow implements the layout core (C4): a closed set of Flowable
// variants, each wrapping the capability contract wrap/split/draw over a
// fixed-point geometry (numeric.Length). Flowables never measure text
// themselves; a Measurer is injected by the caller so flow stays agnostic
// to whichever font backend raster/pdfwrite end up using, mirroring the
// teacher's own Typesetter seam (layout.BuildOptions.Typesetter).
package flow

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// Measurer resolves font metrics for text layout; raster/pdfwrite implement
// it over their concrete font registries.
type Measurer interface {
	MeasureText(font cssom.Font, text string) numeric.Length
	LineHeight(font cssom.Font) numeric.Length
	Ascent(font cssom.Font) numeric.Length
}

// Flowable is the layout capability contract every box-generating node
// implements: Wrap measures at an available size, Split divides at a
// vertical boundary for pagination, Draw emits canvasstream commands at a
// resolved position.
type Flowable interface {
	Wrap(avail numeric.Size, m Measurer) numeric.Size
	// Split divides the flowable at the given height boundary. ok is false
	// when the flowable cannot be split at all (it must move to the next
	// page/frame whole) or when boundary lands before any content fits.
	Split(boundary numeric.Length, m Measurer) (head, tail Flowable, ok bool)
	Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer)

	// IntrinsicWidth reports a preferred width when the flowable has one
	// independent of its container (e.g. an image), zero otherwise.
	IntrinsicWidth(m Measurer) numeric.Length
	OutOfFlow() bool
	// IsFixed reports position:fixed, the out-of-flow subset painted on
	// every page rather than once at its resolved position (spec's
	// underlay/overlay watermark-like lane split).
	IsFixed() bool
	ZIndex() int
	BreakBefore() cssom.BreakMode
	BreakAfter() cssom.BreakMode
	BreakInside() cssom.BreakMode
}

// baseFlowable centralizes the break-mode/z-index bookkeeping shared by
// every concrete variant, the way the teacher's flowables share a plain
// embedded struct for common fields rather than duplicating accessors.
type baseFlowable struct {
	style cssom.ComputedStyle
}

func (b baseFlowable) OutOfFlow() bool {
	return b.style.Position == cssom.PositionAbsolute || b.style.Position == cssom.PositionFixed
}

func (b baseFlowable) IsFixed() bool {
	return b.style.Position == cssom.PositionFixed
}

func (b baseFlowable) ZIndex() int {
	if b.style.ZIndexSet {
		return b.style.ZIndex
	}
	return 0
}

func (b baseFlowable) BreakBefore() cssom.BreakMode { return b.style.BreakBefore }
func (b baseFlowable) BreakAfter() cssom.BreakMode  { return b.style.BreakAfter }
func (b baseFlowable) BreakInside() cssom.BreakMode { return b.style.BreakInside }

func (b baseFlowable) IntrinsicWidth(Measurer) numeric.Length { return 0 }

// Style exposes the computed style every variant embeds, letting a parent
// (Container's margin collapse, Flex's grow-factor lookup) read a child's
// box properties without a type switch over the closed Flowable set.
func (b baseFlowable) Style() cssom.ComputedStyle { return b.style }
