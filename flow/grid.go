package flow

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// gridPlacement carries one item's explicit grid-column-start/grid-row-start
// request (0 meaning auto on that axis), read off the child's own style
// before Build collapses it into a Flowable.
type gridPlacement struct {
	ColumnStart, RowStart int
}

// Grid is the Grid flowable variant: baseline track sizing (fixed lengths,
// percentages, fr units, repeat(n, T) already expanded by cssom) plus
// deterministic slot placement per spec.md 4.4.
type Grid struct {
	baseFlowable
	Items      []Flowable
	Placements []gridPlacement

	resolvedSize numeric.Size
	itemBoxes    []childBox
}

func NewGrid(style cssom.ComputedStyle, items []Flowable, placements []gridPlacement) *Grid {
	return &Grid{baseFlowable: baseFlowable{style: style}, Items: items, Placements: placements}
}

type gridSlot struct{ col, row int } // 1-based

// resolveTracks returns the column/row track lists to solve against: the
// author's explicit template if given, otherwise a synthesized list sized
// to fit every item — one implicit column (stacked like a block) when
// neither axis is specified, or an implicit cross axis derived from the
// explicit one when only one axis is given (4.4(d)).
func (g *Grid) resolveTracks() (cols, rows []cssom.TrackSize) {
	cols = g.style.Grid.TemplateColumns
	rows = g.style.Grid.TemplateRows
	n := len(g.Items)

	switch {
	case len(cols) == 0 && len(rows) == 0:
		cols = []cssom.TrackSize{{Auto: true}}
	case len(cols) == 0:
		numCols := ceilDiv(n, len(rows))
		cols = autoTracks(numCols)
	case len(rows) == 0:
		numRows := ceilDiv(n, len(cols))
		rows = autoTracks(numRows)
	}
	return cols, rows
}

func autoTracks(n int) []cssom.TrackSize {
	if n < 1 {
		n = 1
	}
	tracks := make([]cssom.TrackSize, n)
	for i := range tracks {
		tracks[i] = cssom.TrackSize{Auto: true}
	}
	return tracks
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// place assigns every item a 1-based (col, row) slot: explicit placements
// land on their requested slot or, on conflict, migrate forward row-major
// to the next free slot (4.4(b)); everything else auto-places row-major
// from wherever the placement cursor last left off (4.4(c)). Rows beyond
// the initially known track count grow the grid rather than wrapping.
func place(items []Flowable, placements []gridPlacement, numCols int) ([]gridSlot, int) {
	occupied := map[gridSlot]bool{}
	slots := make([]gridSlot, len(items))
	cursorCol, cursorRow := 1, 1
	maxRow := 1

	nextFree := func(col, row int) gridSlot {
		for {
			if col > numCols {
				col = 1
				row++
			}
			if !occupied[gridSlot{col, row}] {
				return gridSlot{col, row}
			}
			col++
		}
	}

	for i := range items {
		var want gridPlacement
		if i < len(placements) {
			want = placements[i]
		}

		var slot gridSlot
		switch {
		case want.ColumnStart > 0 && want.RowStart > 0:
			slot = nextFree(want.ColumnStart, want.RowStart)
		case want.ColumnStart > 0:
			slot = nextFree(want.ColumnStart, cursorRow)
		case want.RowStart > 0:
			slot = placeInRow(occupied, want.RowStart, numCols)
		default:
			slot = nextFree(cursorCol, cursorRow)
		}

		occupied[slot] = true
		slots[i] = slot
		if slot.row > maxRow {
			maxRow = slot.row
		}

		cursorCol, cursorRow = slot.col+1, slot.row
		if cursorCol > numCols {
			cursorCol, cursorRow = 1, slot.row+1
		}
	}
	return slots, maxRow
}

// placeInRow finds the first free column in the requested row, migrating to
// the next row on conflict (an explicit row with no explicit column still
// fills left-to-right like an auto-placed item would).
func placeInRow(occupied map[gridSlot]bool, row, numCols int) gridSlot {
	for {
		for col := 1; col <= numCols; col++ {
			if !occupied[gridSlot{col, row}] {
				return gridSlot{col, row}
			}
		}
		row++
	}
}

// sizeTracks resolves fixed/percentage/fr/auto tracks against avail: fixed
// and percentage tracks take their length outright; the remaining space is
// then split among fr and auto tracks, auto weighted as a 1fr track so an
// unspecified axis still fills the container deterministically.
func sizeTracks(tracks []cssom.TrackSize, avail numeric.Length, gap numeric.Length) []numeric.Length {
	n := len(tracks)
	sizes := make([]numeric.Length, n)
	if n == 0 {
		return sizes
	}
	totalGap := gap.MulScalar(float64(n - 1))
	remaining := avail.Sub(totalGap)

	totalFr := 0.0
	for _, t := range tracks {
		switch {
		case t.IsPct:
			size := numeric.Length(float64(avail) * t.Percent / 100)
			remaining = remaining.Sub(size)
		case !t.IsFr && !t.Auto:
			remaining = remaining.Sub(t.Fixed)
		}
	}
	for _, t := range tracks {
		if t.IsFr {
			totalFr += t.Fr
		} else if t.Auto {
			totalFr += 1
		}
	}
	if remaining < 0 {
		remaining = 0
	}

	for i, t := range tracks {
		switch {
		case t.IsPct:
			sizes[i] = numeric.Length(float64(avail) * t.Percent / 100)
		case t.IsFr:
			if totalFr > 0 {
				sizes[i] = remaining.MulScalar(t.Fr / totalFr)
			}
		case t.Auto:
			if totalFr > 0 {
				sizes[i] = remaining.MulScalar(1 / totalFr)
			}
		default:
			sizes[i] = t.Fixed
		}
	}
	return sizes
}

func trackOffsets(sizes []numeric.Length, gap numeric.Length) []numeric.Length {
	offsets := make([]numeric.Length, len(sizes))
	cursor := numeric.Zero
	for i, s := range sizes {
		offsets[i] = cursor
		cursor = cursor.Add(s).Add(gap)
	}
	return offsets
}

func (g *Grid) Wrap(avail numeric.Size, m Measurer) numeric.Size {
	cols, rows := g.resolveTracks()
	slots, placedRows := place(g.Items, g.Placements, len(cols))
	if placedRows > len(rows) {
		rows = append(rows, autoTracks(placedRows-len(rows))...)
	}

	colWidths := sizeTracks(cols, avail.W, g.style.Gap.Column)
	colOffsets := trackOffsets(colWidths, g.style.Gap.Column)

	// Row heights need each item measured first since "auto" rows size to
	// content; measure every item at its column's width, then take the
	// tallest item per row as that row's auto height.
	rowHeights := make([]numeric.Length, len(rows))
	itemSizes := make([]numeric.Size, len(g.Items))
	for i, it := range g.Items {
		slot := slots[i]
		colW := numeric.Zero
		if slot.col-1 < len(colWidths) {
			colW = colWidths[slot.col-1]
		}
		size := it.Wrap(numeric.Size{W: colW, H: avail.H}, m)
		itemSizes[i] = size
		if slot.row-1 < len(rowHeights) && size.H > rowHeights[slot.row-1] {
			rowHeights[slot.row-1] = size.H
		}
	}
	for i, t := range rows {
		if !t.Auto && !t.IsFr {
			if t.IsPct {
				rowHeights[i] = numeric.Length(float64(avail.H) * t.Percent / 100)
			} else {
				rowHeights[i] = t.Fixed
			}
		}
	}
	rowOffsets := trackOffsets(rowHeights, g.style.Gap.Row)

	g.itemBoxes = g.itemBoxes[:0]
	for i, it := range g.Items {
		slot := slots[i]
		var origin numeric.Point
		if slot.col-1 < len(colOffsets) {
			origin.X = colOffsets[slot.col-1]
		}
		if slot.row-1 < len(rowOffsets) {
			origin.Y = rowOffsets[slot.row-1]
		}
		g.itemBoxes = append(g.itemBoxes, childBox{f: it, origin: origin, size: itemSizes[i]})
	}

	height := numeric.Zero
	if len(rowOffsets) > 0 {
		height = rowOffsets[len(rowOffsets)-1].Add(rowHeights[len(rowHeights)-1])
	}
	total := numeric.Size{W: avail.W, H: height}
	if !g.style.HeightAuto && !g.style.Height.IsZero() {
		total.H = g.style.Height
	}
	g.resolvedSize = total
	return total
}

// Split divides the grid at boundary in item order: items ending at or
// above the boundary stay in the head, and the first item that straddles
// it moves whole to the tail with every later item (unlike Container.Split,
// no item is split itself).
func (g *Grid) Split(boundary numeric.Length, m Measurer) (Flowable, Flowable, bool) {
	if g.style.BreakInside == cssom.BreakAvoid {
		return nil, nil, false
	}
	var head, tail []Flowable
	split := false
	for _, cb := range g.itemBoxes {
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
		return g, nil, true
	}
	if len(head) == 0 {
		return nil, g, true
	}
	return NewGrid(g.style, head, nil), NewGrid(g.style, tail, nil), true
}

func (g *Grid) Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer) {
	s.Save()
	drawBoxBackground(s, g.style, numeric.Rect{X: origin.X, Y: origin.Y, W: g.resolvedSize.W, H: g.resolvedSize.H})
	for _, cb := range g.itemBoxes {
		childOrigin := numeric.Point{X: origin.X.Add(cb.origin.X), Y: origin.Y.Add(cb.origin.Y)}
		cb.f.Draw(s, childOrigin, cb.size, m)
	}
	s.Restore()
}
