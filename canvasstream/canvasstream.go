// Package canvasstream implements the append-only drawing-command log (C6)
// that sits between layout and the two paint backends: the PDF content-
// stream writer (pdfwrite) and the rasterizer (raster). Every draw
// operation a Flowable emits becomes one Command here; neither backend
// walks the flow tree directly, which keeps both backends' output
// identical regardless of which one consumes a given page.
package canvasstream

import (
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// Op enumerates the command kinds. The set is closed and mirrors the PDF
// content-stream operators this log ultimately lowers to.
type Op int

const (
	OpSaveState Op = iota
	OpRestoreState
	OpConcatMatrix
	OpSetFillColor
	OpSetStrokeColor
	OpSetLineWidth
	OpSetOpacity
	OpClipRect
	OpFillRect
	OpStrokeRect
	OpFillPath
	OpStrokePath
	OpBeginText
	OpSetFont
	OpShowText
	OpEndText
	OpDrawImage
	OpDrawForm
	// OpMeta is a non-painting marker recording a data-* aggregation
	// contribution at the point in the stream it was drawn; paint backends
	// skip it, paginate's aggregate pass reads it back out.
	OpMeta
)

// PathSegment is one moveto/lineto/curveto/close instruction in a filled or
// stroked path, in millipoint canvas space.
type PathSegmentKind int

const (
	SegMoveTo PathSegmentKind = iota
	SegLineTo
	SegCubicTo
	SegClose
)

type PathSegment struct {
	Kind           PathSegmentKind
	X, Y           numeric.Length
	C1X, C1Y       numeric.Length
	C2X, C2Y       numeric.Length
}

// Command is one entry in the stream. Only the fields relevant to Op are
// populated; the rest are zero.
type Command struct {
	Op Op

	Rect   numeric.Rect
	Matrix numeric.Matrix2D
	Color  cssom.RGBA
	Width  numeric.Length
	Opacity float64

	Path []PathSegment

	FontKey  string
	FontSize numeric.Length
	Text     string
	TextX, TextY numeric.Length

	ImageKey string
	FormKey  string

	MetaKey   string
	MetaValue string
}

// Stream is the append-only command log for one page (or one Form
// XObject). State-stack discipline (Save/Restore must nest correctly) is
// enforced by Stream itself so a malformed Flowable.Draw can't desync the
// two paint backends relative to each other.
type Stream struct {
	Commands []Command
	depth    int
}

// New returns an empty stream.
func New() *Stream { return &Stream{} }

// Save pushes a graphics-state save (`q` in PDF terms).
func (s *Stream) Save() {
	s.depth++
	s.Commands = append(s.Commands, Command{Op: OpSaveState})
}

// Restore pops a graphics-state save (`Q`). Panics on underflow: a
// Flowable.Draw implementation that restores without a matching save is a
// programming error, not a recoverable runtime condition.
func (s *Stream) Restore() {
	if s.depth == 0 {
		panic("canvasstream: Restore without matching Save")
	}
	s.depth--
	s.Commands = append(s.Commands, Command{Op: OpRestoreState})
}

// Depth reports the current open-save nesting depth; callers that build a
// Stream incrementally use it to assert balance before handing off.
func (s *Stream) Depth() int { return s.depth }

// Balanced reports whether every Save has a matching Restore.
func (s *Stream) Balanced() bool { return s.depth == 0 }

func (s *Stream) Concat(m numeric.Matrix2D) {
	s.Commands = append(s.Commands, Command{Op: OpConcatMatrix, Matrix: m})
}

func (s *Stream) SetFillColor(c cssom.RGBA) {
	s.Commands = append(s.Commands, Command{Op: OpSetFillColor, Color: c})
}

func (s *Stream) SetStrokeColor(c cssom.RGBA) {
	s.Commands = append(s.Commands, Command{Op: OpSetStrokeColor, Color: c})
}

func (s *Stream) SetLineWidth(w numeric.Length) {
	s.Commands = append(s.Commands, Command{Op: OpSetLineWidth, Width: w})
}

func (s *Stream) SetOpacity(o float64) {
	s.Commands = append(s.Commands, Command{Op: OpSetOpacity, Opacity: o})
}

func (s *Stream) ClipRect(r numeric.Rect) {
	s.Commands = append(s.Commands, Command{Op: OpClipRect, Rect: r})
}

func (s *Stream) FillRect(r numeric.Rect) {
	s.Commands = append(s.Commands, Command{Op: OpFillRect, Rect: r})
}

func (s *Stream) StrokeRect(r numeric.Rect) {
	s.Commands = append(s.Commands, Command{Op: OpStrokeRect, Rect: r})
}

func (s *Stream) FillPath(p []PathSegment) {
	s.Commands = append(s.Commands, Command{Op: OpFillPath, Path: p})
}

func (s *Stream) StrokePath(p []PathSegment) {
	s.Commands = append(s.Commands, Command{Op: OpStrokePath, Path: p})
}

// ShowText emits a single run of shaped text at (x, y) in the current
// coordinate space, bracketed by BeginText/EndText/SetFont by the caller
// (flow's text-draw path keeps one open text object per contiguous run,
// matching the PDF content-stream convention).
func (s *Stream) BeginText() { s.Commands = append(s.Commands, Command{Op: OpBeginText}) }
func (s *Stream) EndText()   { s.Commands = append(s.Commands, Command{Op: OpEndText}) }

func (s *Stream) SetFont(key string, size numeric.Length) {
	s.Commands = append(s.Commands, Command{Op: OpSetFont, FontKey: key, FontSize: size})
}

func (s *Stream) ShowText(text string, x, y numeric.Length) {
	s.Commands = append(s.Commands, Command{Op: OpShowText, Text: text, TextX: x, TextY: y})
}

func (s *Stream) DrawImage(key string, r numeric.Rect) {
	s.Commands = append(s.Commands, Command{Op: OpDrawImage, ImageKey: key, Rect: r})
}

func (s *Stream) DrawForm(key string, m numeric.Matrix2D) {
	s.Commands = append(s.Commands, Command{Op: OpDrawForm, FormKey: key, Matrix: m})
}

// Meta records a data-* aggregation contribution without affecting paint.
func (s *Stream) Meta(key, value string) {
	s.Commands = append(s.Commands, Command{Op: OpMeta, MetaKey: key, MetaValue: value})
}

// Append splices another independently-built, self-balanced stream's
// commands onto the end of s, used by paginate to compose a page's final
// command order (underlay, body, overlay, header/footer) from layers built
// as separate streams.
func (s *Stream) Append(other *Stream) {
	s.Commands = append(s.Commands, other.Commands...)
}
