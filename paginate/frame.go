// Package paginate implements the pagination state machine (C5): frame
// placement (Placed/Split/Overflow), page-template rotation, header/footer
// substitution, watermark layering, and the paginated aggregation context
// that feeds {sum:key}/{total:key} substitutions.
package paginate

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/flow"
	"github.com/fullbleed/fullbleed/numeric"
)

// AddResult is the outcome of placing one flowable into a Frame.
type AddResult int

const (
	// Placed reports the flowable fit entirely; the frame cursor advanced.
	Placed AddResult = iota
	// Split reports the flowable partially fit; the returned remainder
	// carries to the next frame.
	Split
	// Overflow reports nothing fit; the whole flowable carries to the next
	// frame unplaced.
	Overflow
)

func (r AddResult) String() string {
	switch r {
	case Placed:
		return "placed"
	case Split:
		return "split"
	case Overflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Frame is one rectangular placement region on a page (the body flow region
// or a header/footer sub-frame), tracking a single top-down content cursor.
// Grounded on original_source/src/frame.rs's Frame/AddResult.
type Frame struct {
	Rect    numeric.Rect
	cursorY numeric.Length
}

// NewFrame builds a frame over r with an empty cursor.
func NewFrame(r numeric.Rect) *Frame {
	return &Frame{Rect: r}
}

// RemainingHeight reports the unused vertical space in the frame.
func (f *Frame) RemainingHeight() numeric.Length {
	return numeric.Max(0, f.Rect.H.Sub(f.cursorY))
}

// IsEmpty reports whether nothing has been placed in this frame yet.
func (f *Frame) IsEmpty() bool { return f.cursorY <= 0 }

// Add attempts to place fl into the frame, drawing as much as fits.
// It mirrors frame.rs's add(): try whole, then try split, then (only on an
// otherwise-empty frame) force-place an overfull flowable so pagination
// always makes forward progress.
func (f *Frame) Add(fl flow.Flowable, s *canvasstream.Stream, m flow.Measurer) (AddResult, flow.Flowable) {
	availWidth := f.Rect.W
	availHeight := f.RemainingHeight()
	if availHeight <= 0 {
		return Overflow, fl
	}

	size := fl.Wrap(numeric.Size{W: availWidth, H: availHeight}, m)

	if fl.BreakInside() == cssom.BreakAvoid && size.H > availHeight && size.H <= f.Rect.H && !f.IsEmpty() {
		return Overflow, fl
	}

	if size.H <= availHeight {
		origin := numeric.Point{X: f.Rect.X, Y: f.Rect.Y.Add(f.cursorY)}
		fl.Draw(s, origin, numeric.Size{W: availWidth, H: availHeight}, m)
		f.cursorY = f.cursorY.Add(size.H)
		return Placed, nil
	}

	if head, tail, ok := fl.Split(availHeight, m); ok && head != nil {
		headSize := head.Wrap(numeric.Size{W: availWidth, H: availHeight}, m)
		if headSize.H > 0 && headSize.H <= availHeight {
			origin := numeric.Point{X: f.Rect.X, Y: f.Rect.Y.Add(f.cursorY)}
			head.Draw(s, origin, numeric.Size{W: availWidth, H: availHeight}, m)
			f.cursorY = f.cursorY.Add(headSize.H)
			return Split, tail
		}
	}

	// An overfull, unsplittable flowable is force-placed on an otherwise
	// empty frame rather than looping forever trying to fit it somewhere.
	if f.IsEmpty() {
		origin := numeric.Point{X: f.Rect.X, Y: f.Rect.Y}
		fl.Draw(s, origin, numeric.Size{W: availWidth, H: availHeight}, m)
		f.cursorY = f.Rect.H
		return Placed, nil
	}

	return Overflow, fl
}
