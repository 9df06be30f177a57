package flow

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// Positioned wraps a flowable whose box is placed via inset offsets instead
// of normal flow (position: relative/absolute/fixed). Relative positioning
// offsets the box after normal-flow placement without removing it from
// flow; absolute/fixed are reported via OutOfFlow so the parent stacking
// loop skips them, and the containing page/frame places them directly.
type Positioned struct {
	baseFlowable
	Inner Flowable

	resolvedSize numeric.Size
}

func NewPositioned(style cssom.ComputedStyle, inner Flowable) *Positioned {
	return &Positioned{baseFlowable: baseFlowable{style: style}, Inner: inner}
}

func (p *Positioned) Wrap(avail numeric.Size, m Measurer) numeric.Size {
	size := p.Inner.Wrap(avail, m)
	p.resolvedSize = size
	return size
}

func (p *Positioned) Split(boundary numeric.Length, m Measurer) (Flowable, Flowable, bool) {
	if p.style.Position != cssom.PositionStatic && p.style.Position != cssom.PositionRelative {
		return p, nil, true // out-of-flow boxes never split against body flow
	}
	h, t, ok := p.Inner.Split(boundary, m)
	if !ok {
		return nil, nil, false
	}
	var head, tail Flowable
	if h != nil {
		head = NewPositioned(p.style, h)
	}
	if t != nil {
		tail = NewPositioned(p.style, t)
	}
	return head, tail, true
}

// Offset resolves the relative/absolute inset offsets against a containing
// block size, used by the caller placing out-of-flow boxes directly onto a
// page/frame.
func (p *Positioned) Offset(containing numeric.Size) numeric.Point {
	in := p.style.Inset
	x, y := numeric.Zero, numeric.Zero
	if !in.LeftAuto {
		x = in.Left
	} else if !in.RightAuto {
		x = containing.W.Sub(p.resolvedSize.W).Sub(in.Right)
	}
	if !in.TopAuto {
		y = in.Top
	} else if !in.BottomAuto {
		y = containing.H.Sub(p.resolvedSize.H).Sub(in.Bottom)
	}
	return numeric.Point{X: x, Y: y}
}

func (p *Positioned) Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer) {
	drawOrigin := origin
	if p.style.Position == cssom.PositionRelative {
		off := p.Offset(avail)
		drawOrigin = numeric.Point{X: origin.X.Add(off.X), Y: origin.Y.Add(off.Y)}
	}
	p.Inner.Draw(s, drawOrigin, p.resolvedSize, m)
}

// Transformed wraps a flowable with a composed 2D transform list applied
// purely at paint time: the transform never changes the box's layout size
// or position (CSS's "transforms don't affect layout" rule), only how it is
// painted via a Concat around the inner Draw.
type Transformed struct {
	baseFlowable
	Inner  Flowable
	Matrix numeric.Matrix2D
}

func NewTransformed(style cssom.ComputedStyle, inner Flowable) *Transformed {
	m := numeric.Identity()
	for _, op := range style.Transform {
		m = m.Mul(transformOpMatrix(op))
	}
	return &Transformed{baseFlowable: baseFlowable{style: style}, Inner: inner, Matrix: m}
}

func transformOpMatrix(op cssom.TransformOp) numeric.Matrix2D {
	switch op.Kind {
	case cssom.TransformTranslate:
		return numeric.Translate(op.X.Points(), op.Y.Points())
	case cssom.TransformScale:
		return numeric.Scale(op.SX, op.SY)
	case cssom.TransformRotate:
		return numeric.Rotate(op.AngleRadians)
	case cssom.TransformSkew:
		return numeric.Skew(op.AX, op.AY)
	case cssom.TransformSkewX:
		return numeric.Skew(op.AX, 0)
	case cssom.TransformSkewY:
		return numeric.Skew(0, op.AY)
	case cssom.TransformMatrix:
		return numeric.Matrix2D{A: op.A, B: op.B, C: op.C, D: op.D, E: op.E, F: op.F}
	default:
		return numeric.Identity()
	}
}

func (t *Transformed) Wrap(avail numeric.Size, m Measurer) numeric.Size {
	return t.Inner.Wrap(avail, m)
}

func (t *Transformed) Split(boundary numeric.Length, m Measurer) (Flowable, Flowable, bool) {
	h, tail, ok := t.Inner.Split(boundary, m)
	if !ok {
		return nil, nil, false
	}
	var head, tailF Flowable
	if h != nil {
		head = NewTransformed(t.style, h)
	}
	if tail != nil {
		tailF = NewTransformed(t.style, tail)
	}
	return head, tailF, true
}

func (t *Transformed) Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer) {
	s.Save()
	originX := origin.X.Add(t.style.TransformOriginX)
	originY := origin.Y.Add(t.style.TransformOriginY)
	s.Concat(numeric.Translate(originX.Points(), originY.Points()))
	s.Concat(t.Matrix)
	s.Concat(numeric.Translate(-originX.Points(), -originY.Points()))
	t.Inner.Draw(s, origin, avail, m)
	s.Restore()
}
