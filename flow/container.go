package flow

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// Container is the Block flowable variant: a box with margin/padding/border
// stacking its in-flow children vertically (the only display mode the
// teacher's own builder needs, generalized here to arbitrary child
// flowables instead of the teacher's fixed TextBox/ImageBox/TableBox set).
type Container struct {
	baseFlowable
	Children []Flowable

	resolvedSize numeric.Size
	childBoxes   []childBox
}

type childBox struct {
	f      Flowable
	origin numeric.Point
	size   numeric.Size
}

// NewContainer builds a Container from computed style and children.
func NewContainer(style cssom.ComputedStyle, children []Flowable) *Container {
	return &Container{baseFlowable: baseFlowable{style: style}, Children: children}
}

// contentBox shrinks avail by padding+border, per spec.md's box model (the
// margin itself is applied by the parent stacking loop, not here).
func (c *Container) contentBox(avail numeric.Size) numeric.Rect {
	s := c.style
	top := s.Padding.Top.Add(s.Border.Top.Width)
	right := s.Padding.Right.Add(s.Border.Right.Width)
	bottom := s.Padding.Bottom.Add(s.Border.Bottom.Width)
	left := s.Padding.Left.Add(s.Border.Left.Width)
	return numeric.Rect{W: avail.W, H: avail.H}.Inset(top, right, bottom, left)
}

// Wrap stacks in-flow children top to bottom with adjacent-margin
// collapsing between block siblings (the simple, single-box-per-element
// form of CSS margin collapse: the larger of two touching margins wins).
func (c *Container) Wrap(avail numeric.Size, m Measurer) numeric.Size {
	box := c.contentBox(avail)
	c.childBoxes = c.childBoxes[:0]

	y := numeric.Zero
	prevMarginBottom := numeric.Zero
	maxWidth := numeric.Zero
	for _, child := range c.Children {
		if child.OutOfFlow() {
			c.childBoxes = append(c.childBoxes, childBox{f: child, origin: numeric.Point{}, size: numeric.Size{}})
			continue
		}
		cm := childMargins(child)
		gap := numeric.Max(prevMarginBottom, cm.top)
		y = y.Add(gap)
		childAvail := numeric.Size{W: box.W.Sub(cm.left).Sub(cm.right), H: numeric.Max(0, avail.H.Sub(y))}
		size := child.Wrap(childAvail, m)
		c.childBoxes = append(c.childBoxes, childBox{
			f:      child,
			origin: numeric.Point{X: box.X.Add(cm.left), Y: box.Y.Add(y)},
			size:   size,
		})
		y = y.Add(size.H)
		prevMarginBottom = cm.bottom
		if w := size.W.Add(cm.left).Add(cm.right); w > maxWidth {
			maxWidth = w
		}
	}
	y = y.Add(prevMarginBottom)

	total := numeric.Size{
		W: avail.W,
		H: y.Add(c.style.Padding.Top).Add(c.style.Padding.Bottom).
			Add(c.style.Border.Top.Width).Add(c.style.Border.Bottom.Width),
	}
	if !c.style.HeightAuto && !c.style.Height.IsZero() {
		total.H = c.style.Height
	}
	c.resolvedSize = total
	return total
}

type edgeMargins struct{ top, right, bottom, left numeric.Length }

func childMargins(f Flowable) edgeMargins {
	type styled interface{ Style() cssom.ComputedStyle }
	if s, ok := f.(styled); ok {
		st := s.Style()
		return edgeMargins{top: st.Margin.Top, right: st.Margin.Right, bottom: st.Margin.Bottom, left: st.Margin.Left}
	}
	return edgeMargins{}
}

// Split divides the container at boundary, recursively splitting whichever
// child straddles the cut and moving every later child wholesale to tail.
func (c *Container) Split(boundary numeric.Length, m Measurer) (Flowable, Flowable, bool) {
	if c.style.BreakInside == cssom.BreakAvoid {
		return nil, nil, false
	}
	var headChildren, tailChildren []Flowable
	split := false
	for _, cb := range c.childBoxes {
		bottom := cb.origin.Y.Add(cb.size.H)
		switch {
		case split:
			tailChildren = append(tailChildren, cb.f)
		case bottom <= boundary:
			headChildren = append(headChildren, cb.f)
		default:
			localBoundary := boundary.Sub(cb.origin.Y)
			if localBoundary <= 0 {
				tailChildren = append(tailChildren, cb.f)
				split = true
				continue
			}
			h, t, ok := cb.f.Split(localBoundary, m)
			if !ok {
				tailChildren = append(tailChildren, cb.f)
				split = true
				continue
			}
			if h != nil {
				headChildren = append(headChildren, h)
			}
			if t != nil {
				tailChildren = append(tailChildren, t)
			}
			split = true
		}
	}
	if len(tailChildren) == 0 {
		return c, nil, true
	}
	if len(headChildren) == 0 {
		return nil, c, true
	}
	return NewContainer(c.style, headChildren), NewContainer(c.style, tailChildren), true
}

// Draw paints the container's own background/border then each child at its
// resolved box.
func (c *Container) Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer) {
	s.Save()
	drawBoxBackground(s, c.style, numeric.Rect{X: origin.X, Y: origin.Y, W: avail.W, H: c.resolvedSize.H})
	for _, cb := range c.childBoxes {
		childOrigin := numeric.Point{X: origin.X.Add(cb.origin.X), Y: origin.Y.Add(cb.origin.Y)}
		cb.f.Draw(s, childOrigin, cb.size, m)
	}
	s.Restore()
}

func drawBoxBackground(s *canvasstream.Stream, style cssom.ComputedStyle, r numeric.Rect) {
	for _, sh := range style.BoxShadows {
		drawBoxShadow(s, sh, r)
	}
	if style.Background.Color.A > 0 {
		s.SetFillColor(style.Background.Color)
		s.FillRect(r)
	}
	drawBorderEdge(s, style.Border.Top, numeric.Rect{X: r.X, Y: r.Y, W: r.W, H: style.Border.Top.Width})
	drawBorderEdge(s, style.Border.Bottom, numeric.Rect{X: r.X, Y: r.Bottom().Sub(style.Border.Bottom.Width), W: r.W, H: style.Border.Bottom.Width})
	drawBorderEdge(s, style.Border.Left, numeric.Rect{X: r.X, Y: r.Y, W: style.Border.Left.Width, H: r.H})
	drawBorderEdge(s, style.Border.Right, numeric.Rect{X: r.Right().Sub(style.Border.Right.Width), Y: r.Y, W: style.Border.Right.Width, H: r.H})
}

// drawBoxShadow paints one shadow layer as a solid offset+spread rect behind
// the box. canvasstream has no blur primitive, so blur is approximated
// deterministically: it widens the shadow by half the blur radius (matching
// the CSS spread-from-blur behavior at the edges) and fades opacity with it
// rather than rendering a soft edge. Inset shadows fall outside the box's
// own painted area under this box-model (they'd need to clip to the padding
// box and paint inward) and are skipped rather than drawn wrong.
func drawBoxShadow(s *canvasstream.Stream, sh cssom.BoxShadow, r numeric.Rect) {
	if sh.Inset || sh.Color.A == 0 {
		return
	}
	grow := sh.Spread.Add(sh.Blur.MulScalar(0.5))
	shadowRect := numeric.Rect{
		X: r.X.Add(sh.OffsetX).Sub(grow),
		Y: r.Y.Add(sh.OffsetY).Sub(grow),
		W: r.W.Add(grow.MulScalar(2)),
		H: r.H.Add(grow.MulScalar(2)),
	}
	opacity := 1.0
	if sh.Blur > 0 {
		opacity = 0.6
	}
	s.Save()
	s.SetOpacity(opacity)
	s.SetFillColor(sh.Color)
	s.FillRect(shadowRect)
	s.Restore()
}

func drawBorderEdge(s *canvasstream.Stream, e cssom.BoxEdge, r numeric.Rect) {
	if e.Width.IsZero() {
		return
	}
	s.SetFillColor(e.Color)
	s.FillRect(r)
}
