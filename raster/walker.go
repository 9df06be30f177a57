package raster

import (
	"image/color"

	"github.com/tdewolff/canvas"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// drawState is the graphics-state fields OpSaveState/OpRestoreState push and
// pop. Transform composition is tracked alongside it (not inside
// canvas.Context's own stack) so every coordinate can be pre-transformed
// before reaching canvas, which keeps DrawForm's recursive re-basing simple
// and sidesteps needing canvas's own view-matrix API.
type drawState struct {
	fill, stroke cssom.RGBA
	lineWidth    numeric.Length
	opacity      float64
	fontKey      string
	fontSize     numeric.Length
}

// walker replays one command stream (and any Form XObjects it references)
// onto a single canvas.Context, accumulating glyph-coverage misses.
type walker struct {
	r      *Renderer
	cc     *canvas.Context
	report *GlyphCoverageReport
}

func (w *walker) run(s *canvasstream.Stream, base numeric.Matrix2D, state drawState) {
	type frame struct {
		matrix numeric.Matrix2D
		state  drawState
	}
	stack := []frame{}
	current := base

	for _, cmd := range s.Commands {
		switch cmd.Op {
		case canvasstream.OpSaveState:
			stack = append(stack, frame{matrix: current, state: state})
		case canvasstream.OpRestoreState:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			current = top.matrix
			state = top.state
		case canvasstream.OpConcatMatrix:
			current = current.Mul(cmd.Matrix)
		case canvasstream.OpSetFillColor:
			state.fill = cmd.Color
		case canvasstream.OpSetStrokeColor:
			state.stroke = cmd.Color
		case canvasstream.OpSetLineWidth:
			state.lineWidth = cmd.Width
		case canvasstream.OpSetOpacity:
			state.opacity = cmd.Opacity
		case canvasstream.OpClipRect:
			// Not honored at pixel level: flow's wrap/split already confines
			// children to their measured box in the common case, and
			// canvas.Context exposes no public clip-path API to intersect
			// against here. Documented simplification, not a crash risk.
		case canvasstream.OpFillRect:
			w.fillPolygon(rectCorners(current, cmd.Rect), withOpacity(state.fill, state.opacity))
		case canvasstream.OpStrokeRect:
			w.strokePolygon(rectCorners(current, cmd.Rect), withOpacity(state.stroke, state.opacity), state.lineWidth)
		case canvasstream.OpFillPath:
			w.fillPath(current, cmd.Path, withOpacity(state.fill, state.opacity))
		case canvasstream.OpStrokePath:
			w.strokePath(current, cmd.Path, withOpacity(state.stroke, state.opacity), state.lineWidth)
		case canvasstream.OpBeginText, canvasstream.OpEndText:
			// brackets only; no pixel-level state needed.
		case canvasstream.OpSetFont:
			state.fontKey = cmd.FontKey
			state.fontSize = cmd.FontSize
		case canvasstream.OpShowText:
			w.showText(current, state, cmd.Text, cmd.TextX, cmd.TextY)
		case canvasstream.OpDrawImage:
			w.drawImage(current, cmd.ImageKey, cmd.Rect)
		case canvasstream.OpDrawForm:
			if w.r.forms == nil {
				continue
			}
			sub, ok := w.r.forms(cmd.FormKey)
			if !ok || sub == nil {
				continue
			}
			w.run(sub, current.Mul(cmd.Matrix), state)
		case canvasstream.OpMeta:
			// non-painting.
		}
	}
}

func withOpacity(c cssom.RGBA, opacity float64) color.Color {
	a := c.A * opacity
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return canvas.RGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, a)
}

func transformPoint(m numeric.Matrix2D, x, y numeric.Length) (float64, float64) {
	xp, yp := x.Points(), y.Points()
	tx := m.A*xp + m.C*yp + m.E
	ty := m.B*xp + m.D*yp + m.F
	return tx * mmPerPt, ty * mmPerPt
}

func rectCorners(m numeric.Matrix2D, r numeric.Rect) [][2]float64 {
	x0, y0 := transformPoint(m, r.X, r.Y)
	x1, y1 := transformPoint(m, r.Right(), r.Y)
	x2, y2 := transformPoint(m, r.Right(), r.Bottom())
	x3, y3 := transformPoint(m, r.X, r.Bottom())
	return [][2]float64{{x0, y0}, {x1, y1}, {x2, y2}, {x3, y3}}
}

func (w *walker) fillPolygon(pts [][2]float64, c color.Color) {
	if len(pts) == 0 {
		return
	}
	p := &canvas.Path{}
	p.MoveTo(pts[0][0], pts[0][1])
	for _, pt := range pts[1:] {
		p.LineTo(pt[0], pt[1])
	}
	p.Close()
	w.cc.SetFillColor(c)
	w.cc.SetStrokeColor(color.Transparent)
	w.cc.DrawPath(0, 0, p)
}

func (w *walker) strokePolygon(pts [][2]float64, c color.Color, lineWidth numeric.Length) {
	if len(pts) == 0 {
		return
	}
	p := &canvas.Path{}
	p.MoveTo(pts[0][0], pts[0][1])
	for _, pt := range pts[1:] {
		p.LineTo(pt[0], pt[1])
	}
	p.Close()
	w.cc.SetFillColor(color.Transparent)
	w.cc.SetStrokeColor(c)
	w.cc.SetStrokeWidth(lineWidth.Millimeters())
	w.cc.DrawPath(0, 0, p)
}

func (w *walker) fillPath(m numeric.Matrix2D, segs []canvasstream.PathSegment, c color.Color) {
	p := buildPath(m, segs)
	if p == nil {
		return
	}
	w.cc.SetFillColor(c)
	w.cc.SetStrokeColor(color.Transparent)
	w.cc.DrawPath(0, 0, p)
}

func (w *walker) strokePath(m numeric.Matrix2D, segs []canvasstream.PathSegment, c color.Color, lineWidth numeric.Length) {
	p := buildPath(m, segs)
	if p == nil {
		return
	}
	w.cc.SetFillColor(color.Transparent)
	w.cc.SetStrokeColor(c)
	w.cc.SetStrokeWidth(lineWidth.Millimeters())
	w.cc.DrawPath(0, 0, p)
}

func buildPath(m numeric.Matrix2D, segs []canvasstream.PathSegment) *canvas.Path {
	if len(segs) == 0 {
		return nil
	}
	p := &canvas.Path{}
	for _, s := range segs {
		switch s.Kind {
		case canvasstream.SegMoveTo:
			x, y := transformPoint(m, s.X, s.Y)
			p.MoveTo(x, y)
		case canvasstream.SegLineTo:
			x, y := transformPoint(m, s.X, s.Y)
			p.LineTo(x, y)
		case canvasstream.SegCubicTo:
			c1x, c1y := transformPoint(m, s.C1X, s.C1Y)
			c2x, c2y := transformPoint(m, s.C2X, s.C2Y)
			x, y := transformPoint(m, s.X, s.Y)
			p.CubeTo(c1x, c1y, c2x, c2y, x, y)
		case canvasstream.SegClose:
			p.Close()
		}
	}
	return p
}

func (w *walker) showText(m numeric.Matrix2D, state drawState, text string, x, y numeric.Length) {
	if text == "" {
		return
	}
	face, ok := w.r.faceFor(state.fontKey, state.fontSize.Points(), withOpacity(state.fill, state.opacity))
	if !ok {
		w.report.record(state.fontKey, text)
		return
	}
	tx, ty := transformPoint(m, x, y)
	tl := canvas.NewTextLine(face, text, canvas.Left)
	w.cc.DrawText(tx, ty, tl)
}

func (w *walker) drawImage(m numeric.Matrix2D, key string, rect numeric.Rect) {
	if key == "" {
		return
	}
	img, ok := w.r.imageFor(key)
	if !ok {
		return
	}
	widthMM := rect.W.Millimeters()
	if widthMM <= 0 {
		return
	}
	pxWidth := img.Bounds().Dx()
	dpmm := float64(pxWidth) / widthMM
	if dpmm <= 0 {
		dpmm = 1
	}
	x, y := transformPoint(m, rect.X, rect.Y)
	w.cc.DrawImage(x, y, img, canvas.DPMM(dpmm))
}
