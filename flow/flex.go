package flow

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// Flex is the Flex flowable variant: main-axis distribution with
// grow/shrink, multi-line wrapping, and the full justify-content/
// align-items/align-content/align-self set per spec.md 4.4.
type Flex struct {
	baseFlowable
	Items []Flowable

	resolvedSize numeric.Size
	itemBoxes    []childBox
}

func NewFlex(style cssom.ComputedStyle, items []Flowable) *Flex {
	return &Flex{baseFlowable: baseFlowable{style: style}, Items: items}
}

func (f *Flex) isRow() bool {
	return f.style.Flex.Direction == cssom.FlexRow || f.style.Flex.Direction == cssom.FlexRowReverse
}

func (f *Flex) isReverse() bool {
	return f.style.Flex.Direction == cssom.FlexRowReverse || f.style.Flex.Direction == cssom.FlexColumnReverse
}

// flexItem tracks one item's axis-resolved extents (main/cross, rather than
// W/H) so grow/shrink/stretch math never needs to branch on direction.
type flexItem struct {
	flow      Flowable
	main      numeric.Length
	cross     numeric.Length
	grow      float64
	shrink    float64
	alignSelf cssom.Align
}

type flexLine struct {
	items []flexItem
	main  numeric.Length // total main-axis extent used, including inter-item gaps
	cross numeric.Length // line's own cross-axis extent (max item cross size)
}

func flexPropsOf(fl Flowable) (grow, shrink float64, alignSelf cssom.Align) {
	type styled interface{ Style() cssom.ComputedStyle }
	if s, ok := fl.(styled); ok {
		st := s.Style()
		return st.Flex.Grow, st.Flex.Shrink, st.Flex.AlignSelf
	}
	return 0, 0, cssom.AlignAuto
}

// Wrap lays out items along the main axis, wrapping onto additional lines
// per flex-wrap, then resolves justify-content (main axis, per line),
// align-items/align-self (cross axis, per item within its line), and
// align-content (cross axis, across lines) in that order.
func (f *Flex) Wrap(avail numeric.Size, m Measurer) numeric.Size {
	row := f.isRow()
	wrap := f.style.Flex.Wrap != cssom.FlexNoWrap
	wrapReverse := f.style.Flex.Wrap == cssom.FlexWrapReverse

	mainAvail, mainGap, crossGap := avail.W, f.style.Gap.Column, f.style.Gap.Row
	if !row {
		mainAvail, mainGap, crossGap = avail.H, f.style.Gap.Row, f.style.Gap.Column
	}

	items := make([]flexItem, 0, len(f.Items))
	for _, it := range f.Items {
		size := it.Wrap(avail, m)
		grow, shrink, alignSelf := flexPropsOf(it)
		main, cross := size.W, size.H
		if !row {
			main, cross = size.H, size.W
		}
		items = append(items, flexItem{flow: it, main: main, cross: cross, grow: grow, shrink: shrink, alignSelf: alignSelf})
	}
	if f.isReverse() {
		reverseItems(items)
	}

	lines := packLines(items, mainAvail, mainGap, wrap)
	for i := range lines {
		distributeMainAxis(&lines[i], mainAvail, mainGap)
	}

	contentCross := sumLineCross(lines, crossGap)
	containerCross := contentCross
	if row && !f.style.HeightAuto && !f.style.Height.IsZero() {
		containerCross = f.style.Height
	} else if !row && !f.style.WidthAuto && !f.style.Width.IsZero() {
		containerCross = f.style.Width
	}

	stretchLines(lines, f.style.Flex.AlignContent, containerCross, contentCross)
	contentCross = sumLineCross(lines, crossGap)
	if containerCross < contentCross {
		containerCross = contentCross
	}

	if wrapReverse {
		reverseLines(lines)
	}

	f.itemBoxes = f.itemBoxes[:0]
	lineStart, lineStep := distribute(len(lines), crossGap, containerCross.Sub(contentCross), f.style.Flex.AlignContent)
	cross := lineStart
	for _, ln := range lines {
		placeLine(f, ln, row, mainAvail, mainGap, cross)
		cross = cross.Add(ln.cross).Add(lineStep)
	}

	var total numeric.Size
	if row {
		total = numeric.Size{W: avail.W, H: containerCross}
	} else {
		total = numeric.Size{W: containerCross, H: avail.H}
	}
	f.resolvedSize = total
	return total
}

func reverseItems(items []flexItem) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func reverseLines(lines []flexLine) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}

func sumLineCross(lines []flexLine, gap numeric.Length) numeric.Length {
	total := numeric.Zero
	for i, ln := range lines {
		if i > 0 {
			total = total.Add(gap)
		}
		total = total.Add(ln.cross)
	}
	return total
}

// packLines groups items into lines, starting a new line whenever adding
// the next item would exceed mainAvail (flex-wrap: wrap/wrap-reverse); with
// wrap disabled every item lands on a single, possibly overflowing line.
func packLines(items []flexItem, mainAvail, mainGap numeric.Length, wrap bool) []flexLine {
	var lines []flexLine
	cur := flexLine{}
	for _, it := range items {
		next := it.main
		if len(cur.items) > 0 {
			next = cur.main.Add(mainGap).Add(it.main)
		}
		if wrap && len(cur.items) > 0 && next > mainAvail {
			lines = append(lines, cur)
			cur = flexLine{}
			next = it.main
		}
		cur.items = append(cur.items, it)
		cur.main = next
		if it.cross > cur.cross {
			cur.cross = it.cross
		}
	}
	if len(cur.items) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// distributeMainAxis applies flex-grow/flex-shrink to fill or shrink into
// mainAvail, then recomputes the line's used main extent.
func distributeMainAxis(ln *flexLine, mainAvail, mainGap numeric.Length) {
	leftover := mainAvail.Sub(ln.main)
	switch {
	case leftover > 0:
		totalGrow := 0.0
		for _, it := range ln.items {
			totalGrow += it.grow
		}
		if totalGrow > 0 {
			for i := range ln.items {
				if ln.items[i].grow <= 0 {
					continue
				}
				extra := leftover.MulScalar(ln.items[i].grow / totalGrow)
				ln.items[i].main = ln.items[i].main.Add(extra)
			}
		}
	case leftover < 0:
		totalShrink := 0.0
		for _, it := range ln.items {
			totalShrink += it.shrink * float64(it.main)
		}
		if totalShrink > 0 {
			for i := range ln.items {
				weight := ln.items[i].shrink * float64(ln.items[i].main)
				if weight <= 0 {
					continue
				}
				extra := leftover.MulScalar(weight / totalShrink)
				ln.items[i].main = numeric.Max(0, ln.items[i].main.Add(extra))
			}
		}
	}
	ln.main = numeric.Zero
	for i, it := range ln.items {
		if i > 0 {
			ln.main = ln.main.Add(mainGap)
		}
		ln.main = ln.main.Add(it.main)
	}
}

// stretchLines grows every line's cross size evenly to fill containerCross
// when align-content is stretch (the CSS default) or auto; a single line
// takes all of the extra cross space.
func stretchLines(lines []flexLine, alignContent cssom.Align, containerCross, contentCross numeric.Length) {
	if alignContent != cssom.AlignStretch && alignContent != cssom.AlignAuto {
		return
	}
	if len(lines) == 0 {
		return
	}
	extra := containerCross.Sub(contentCross)
	if extra <= 0 {
		return
	}
	share := extra.DivScalar(float64(len(lines)))
	for i := range lines {
		lines[i].cross = lines[i].cross.Add(share)
	}
}

// distribute returns the leading offset and per-element step (gap plus any
// distributed extra space) for laying out n elements across `remaining`
// slack, per the justify-content/align-content keyword semantics.
func distribute(n int, gap numeric.Length, remaining numeric.Length, align cssom.Align) (start, step numeric.Length) {
	if remaining < 0 {
		remaining = 0
	}
	switch align {
	case cssom.AlignEnd:
		return remaining, gap
	case cssom.AlignCenter:
		return remaining.DivScalar(2), gap
	case cssom.AlignSpaceBetween:
		if n > 1 {
			return numeric.Zero, gap.Add(remaining.DivScalar(float64(n - 1)))
		}
		return remaining.DivScalar(2), gap
	case cssom.AlignSpaceAround:
		if n > 0 {
			extra := remaining.DivScalar(float64(n))
			return extra.DivScalar(2), gap.Add(extra)
		}
		return numeric.Zero, gap
	case cssom.AlignSpaceEvenly:
		extra := remaining.DivScalar(float64(n + 1))
		return extra, gap.Add(extra)
	default: // AlignStart, AlignAuto, AlignStretch, AlignBaseline
		return numeric.Zero, gap
	}
}

// placeLine positions one line's items along the main axis (justify-content)
// and, within the line, along the cross axis (align-items/align-self),
// appending each item's box (relative to the flex's content origin) to
// f.itemBoxes.
func placeLine(f *Flex, ln flexLine, row bool, mainAvail, mainGap, crossOrigin numeric.Length) {
	start, step := distribute(len(ln.items), mainGap, mainAvail.Sub(ln.main), f.style.Flex.Justify)
	cursor := start
	for _, it := range ln.items {
		align := it.alignSelf
		if align == cssom.AlignAuto {
			align = f.style.Flex.AlignItems
		}
		offset, cross := itemCrossOffset(align, it.cross, ln.cross)

		var size numeric.Size
		var origin numeric.Point
		if row {
			size = numeric.Size{W: it.main, H: cross}
			origin = numeric.Point{X: cursor, Y: crossOrigin.Add(offset)}
		} else {
			size = numeric.Size{W: cross, H: it.main}
			origin = numeric.Point{X: crossOrigin.Add(offset), Y: cursor}
		}
		cursor = cursor.Add(it.main).Add(step)
		f.itemBoxes = append(f.itemBoxes, childBox{f: it.flow, origin: origin, size: size})
	}
}

func itemCrossOffset(align cssom.Align, itemCross, lineCross numeric.Length) (offset, size numeric.Length) {
	switch align {
	case cssom.AlignCenter:
		return lineCross.Sub(itemCross).DivScalar(2), itemCross
	case cssom.AlignEnd:
		return lineCross.Sub(itemCross), itemCross
	case cssom.AlignStretch, cssom.AlignAuto:
		return numeric.Zero, lineCross
	default: // AlignStart, AlignBaseline (approximated as start)
		return numeric.Zero, itemCross
	}
}

// Split divides the flex at boundary using each item's already-resolved
// box: items ending at or above the boundary stay in the head, and the
// first item that straddles it moves whole to the tail with every later
// item (items are not split themselves, unlike Container.Split); a
// single-line container where every item shares the same vertical span
// therefore moves whole.
func (f *Flex) Split(boundary numeric.Length, m Measurer) (Flowable, Flowable, bool) {
	if f.style.BreakInside == cssom.BreakAvoid {
		return nil, nil, false
	}
	var head, tail []Flowable
	split := false
	for _, cb := range f.itemBoxes {
		bottom := cb.origin.Y.Add(cb.size.H)
		switch {
		case split:
			tail = append(tail, cb.f)
		case bottom <= boundary:
			head = append(head, cb.f)
		default:
			tail = append(tail, cb.f)
			split = true
		}
	}
	if len(tail) == 0 {
		return f, nil, true
	}
	if len(head) == 0 {
		return nil, f, true
	}
	return NewFlex(f.style, head), NewFlex(f.style, tail), true
}

func (f *Flex) Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer) {
	s.Save()
	drawBoxBackground(s, f.style, numeric.Rect{X: origin.X, Y: origin.Y, W: f.resolvedSize.W, H: f.resolvedSize.H})
	for _, cb := range f.itemBoxes {
		childOrigin := numeric.Point{X: origin.X.Add(cb.origin.X), Y: origin.Y.Add(cb.origin.Y)}
		cb.f.Draw(s, childOrigin, cb.size, m)
	}
	s.Restore()
}
