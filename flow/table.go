package flow

import (
	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// TableCell is one cell's content flowable plus its header flag, mirroring
// the teacher's TableCell (layout/types.go) generalized to hold any
// Flowable instead of a bare TextBox.
type TableCell struct {
	Content  Flowable
	IsHeader bool
}

// TableRow is one row of cells. FromHeader marks a row that came from a
// thead row-group, the set that repeats at the top of every page the table
// spills onto. Splittable mirrors the row's own break-inside: avoid fails
// it, so a single row taller than a frame can still give up its cells to
// the next page instead of forcing the whole table to overflow whole.
type TableRow struct {
	Cells      []TableCell
	IsHeader   bool
	FromHeader bool
	Splittable bool
}

// Table is the Table flowable variant: table-layout-aware column widths
// (equal distribution under fixed, content-driven under auto, unless
// explicit widths are supplied) with per-row height driven by the tallest
// cell, matching the teacher's TableBox model (layout/types.go) generalized
// from float64-mm to numeric.Length and from a flat struct to a Flowable.
type Table struct {
	baseFlowable
	Rows         []TableRow
	ColumnWidths []numeric.Length // empty = derive from TableLayout

	resolvedRows []resolvedRow
	resolvedSize numeric.Size
	headerRows   int
}

type resolvedRow struct {
	y      numeric.Length
	height numeric.Length
	cells  []resolvedCell
}

type resolvedCell struct {
	x, w numeric.Length
	size numeric.Size
	flow Flowable
}

func NewTable(style cssom.ComputedStyle, rows []TableRow, columnWidths []numeric.Length) *Table {
	t := &Table{baseFlowable: baseFlowable{style: style}, Rows: rows, ColumnWidths: columnWidths}
	for _, r := range rows {
		if !r.FromHeader {
			break
		}
		t.headerRows++
	}
	return t
}

func (t *Table) numColumns() int {
	n := 0
	for _, r := range t.Rows {
		if len(r.Cells) > n {
			n = len(r.Cells)
		}
	}
	return n
}

// columnWidths resolves one width per column. table-layout: fixed (the CSS
// default once any column width is known) distributes avail evenly among
// every column; auto sizes each column to its widest cell's intrinsic
// width, then scales the whole set down proportionally if it overflows
// avail or grows it proportionally to fill any leftover space.
func (t *Table) columnWidths(avail numeric.Length, m Measurer) []numeric.Length {
	if len(t.ColumnWidths) > 0 {
		return t.ColumnWidths
	}
	n := t.numColumns()
	if n == 0 {
		return nil
	}
	if t.style.TableLayout != cssom.TableLayoutAuto {
		w := avail.DivScalar(float64(n))
		cols := make([]numeric.Length, n)
		for i := range cols {
			cols[i] = w
		}
		return cols
	}

	cols := make([]numeric.Length, n)
	for _, r := range t.Rows {
		for ci, cell := range r.Cells {
			if cell.Content == nil || ci >= n {
				continue
			}
			if w := cell.Content.IntrinsicWidth(m); w > cols[ci] {
				cols[ci] = w
			}
		}
	}
	total := numeric.Zero
	for _, w := range cols {
		total = total.Add(w)
	}
	if total <= 0 {
		w := avail.DivScalar(float64(n))
		for i := range cols {
			cols[i] = w
		}
		return cols
	}
	scale := float64(avail) / float64(total)
	for i := range cols {
		cols[i] = cols[i].MulScalar(scale)
	}
	return cols
}

func (t *Table) Wrap(avail numeric.Size, m Measurer) numeric.Size {
	cols := t.columnWidths(avail.W, m)
	t.resolvedRows = t.resolvedRows[:0]
	y := numeric.Zero
	for _, row := range t.Rows {
		x := numeric.Zero
		rowHeight := numeric.Zero
		cells := make([]resolvedCell, 0, len(row.Cells))
		for ci, cell := range row.Cells {
			w := numeric.Zero
			if ci < len(cols) {
				w = cols[ci]
			}
			size := numeric.Size{}
			if cell.Content != nil {
				size = cell.Content.Wrap(numeric.Size{W: w, H: avail.H}, m)
			}
			if size.H > rowHeight {
				rowHeight = size.H
			}
			cells = append(cells, resolvedCell{x: x, w: w, size: size, flow: cell.Content})
			x = x.Add(w)
		}
		t.resolvedRows = append(t.resolvedRows, resolvedRow{y: y, height: rowHeight, cells: cells})
		y = y.Add(rowHeight)
	}
	t.resolvedSize = numeric.Size{W: avail.W, H: y}
	return t.resolvedSize
}

// Split divides the table at a row boundary, the pagination-friendly
// convention named in spec.md 4.5's Placed/Split state machine. A row
// marked Splittable (break-inside not avoid) may itself give up a partial
// row rather than move whole to the next frame; every other row is atomic.
// When the table carries header rows (from a thead row-group) those rows
// are repeated at the top of the tail so a table spilling across pages
// keeps its header in view.
func (t *Table) Split(boundary numeric.Length, m Measurer) (Flowable, Flowable, bool) {
	cut := -1
	for i, r := range t.resolvedRows {
		if r.y.Add(r.height) > boundary {
			cut = i
			break
		}
	}
	if cut < 0 {
		return t, nil, true
	}

	headRows := append([]TableRow{}, t.Rows[:cut]...)
	tailRows := append([]TableRow{}, t.Rows[cut+1:]...)
	row := t.Rows[cut]

	if row.Splittable {
		inner := boundary.Sub(t.resolvedRows[cut].y)
		if hr, tr, ok := splitRow(row, inner, m); ok {
			if len(hr.Cells) > 0 {
				headRows = append(headRows, hr)
			}
			tailRows = append([]TableRow{tr}, tailRows...)
			return t.finishSplit(headRows, tailRows)
		}
	}

	tailRows = append([]TableRow{row}, tailRows...)
	if len(headRows) == 0 {
		return nil, t, false
	}
	return t.finishSplit(headRows, tailRows)
}

func (t *Table) finishSplit(headRows, tailRows []TableRow) (Flowable, Flowable, bool) {
	if len(tailRows) == 0 {
		return t, nil, true
	}
	if len(headRows) == 0 {
		return nil, t, true
	}
	if t.headerRows > 0 {
		repeated := append([]TableRow{}, t.Rows[:t.headerRows]...)
		tailRows = append(repeated, tailRows...)
	}
	head := NewTable(t.style, headRows, t.ColumnWidths)
	tail := NewTable(t.style, tailRows, t.ColumnWidths)
	return head, tail, true
}

// splitRow divides a single row at an intra-row boundary by splitting each
// cell's own flowable; ok is false if any non-empty cell refuses to split,
// in which case the caller keeps the row atomic.
func splitRow(row TableRow, boundary numeric.Length, m Measurer) (head, tail TableRow, ok bool) {
	head.IsHeader, tail.IsHeader = row.IsHeader, row.IsHeader
	head.FromHeader, tail.FromHeader = row.FromHeader, row.FromHeader
	head.Splittable, tail.Splittable = row.Splittable, row.Splittable
	for _, cell := range row.Cells {
		if cell.Content == nil {
			head.Cells = append(head.Cells, cell)
			tail.Cells = append(tail.Cells, TableCell{IsHeader: cell.IsHeader})
			continue
		}
		h, tl, cok := cell.Content.Split(boundary, m)
		if !cok {
			return TableRow{}, TableRow{}, false
		}
		head.Cells = append(head.Cells, TableCell{Content: h, IsHeader: cell.IsHeader})
		tail.Cells = append(tail.Cells, TableCell{Content: tl, IsHeader: cell.IsHeader})
	}
	return head, tail, true
}

func (t *Table) Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer) {
	s.Save()
	drawBoxBackground(s, t.style, numeric.Rect{X: origin.X, Y: origin.Y, W: t.resolvedSize.W, H: t.resolvedSize.H})
	for _, row := range t.resolvedRows {
		for _, cell := range row.cells {
			if cell.flow == nil {
				continue
			}
			childOrigin := numeric.Point{X: origin.X.Add(cell.x), Y: origin.Y.Add(row.y)}
			cell.flow.Draw(s, childOrigin, numeric.Size{W: cell.w, H: row.height}, m)
		}
	}
	s.Restore()
}
