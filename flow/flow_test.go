package flow

import (
	"testing"

	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// fakeMeasurer charges a fixed per-rune advance so wrap-width math in tests
// is exact and independent of any real font backend.
type fakeMeasurer struct {
	advance numeric.Length
	line    numeric.Length
	ascent  numeric.Length
}

func newFakeMeasurer() fakeMeasurer {
	return fakeMeasurer{
		advance: numeric.FromPoints(6),
		line:    numeric.FromPoints(14),
		ascent:  numeric.FromPoints(10),
	}
}

func (f fakeMeasurer) MeasureText(font cssom.Font, text string) numeric.Length {
	return f.advance.MulScalar(float64(len([]rune(text))))
}

func (f fakeMeasurer) LineHeight(font cssom.Font) numeric.Length { return f.line }
func (f fakeMeasurer) Ascent(font cssom.Font) numeric.Length     { return f.ascent }

func TestParagraphWrapsGreedilyByToken(t *testing.T) {
	m := newFakeMeasurer()
	style := cssom.DefaultComputedStyle()
	p := NewParagraph(style, "the quick brown fox jumps")
	size := p.Wrap(numeric.Size{W: numeric.FromPoints(60), H: numeric.FromPoints(1000)}, m)
	if len(p.lines) < 2 {
		t.Fatalf("expected multiple wrapped lines, got %d", len(p.lines))
	}
	if size.H <= 0 {
		t.Fatalf("expected positive wrapped height, got %v", size.H)
	}
}

func TestParagraphSplitNeverBreaksMidLine(t *testing.T) {
	m := newFakeMeasurer()
	style := cssom.DefaultComputedStyle()
	p := NewParagraph(style, "alpha beta gamma delta epsilon zeta")
	p.Wrap(numeric.Size{W: numeric.FromPoints(40), H: numeric.FromPoints(1000)}, m)
	total := numeric.Zero
	for range p.lines {
		total = total.Add(p.lineHeight)
	}
	boundary := total.DivScalar(2)
	head, tail, ok := p.Split(boundary, m)
	if !ok {
		t.Fatalf("expected split to succeed")
	}
	hp := head.(*Paragraph)
	tp := tail.(*Paragraph)
	if len(hp.lines)+len(tp.lines) != len(p.lines) {
		t.Fatalf("split lost lines: head=%d tail=%d original=%d", len(hp.lines), len(tp.lines), len(p.lines))
	}
}

func TestContainerStacksChildrenWithMarginCollapse(t *testing.T) {
	m := newFakeMeasurer()
	style := cssom.DefaultComputedStyle()
	child1 := NewContainer(childStyleWithMargin(10, 20), nil)
	child2 := NewContainer(childStyleWithMargin(15, 5), nil)
	c := NewContainer(style, []Flowable{child1, child2})
	avail := numeric.Size{W: numeric.FromPoints(200), H: numeric.FromPoints(500)}
	c.Wrap(avail, m)
	if len(c.childBoxes) != 2 {
		t.Fatalf("expected 2 child boxes, got %d", len(c.childBoxes))
	}
	// The collapsed gap between child1's bottom margin (20) and child2's top
	// margin (15) must be max(20,15)=20, not their sum.
	gap := c.childBoxes[1].origin.Y.Sub(c.childBoxes[0].origin.Y)
	if gap != numeric.FromPoints(20) {
		t.Fatalf("expected collapsed margin gap of 20pt, got %v", gap.Points())
	}
}

func childStyleWithMargin(top, bottom float64) cssom.ComputedStyle {
	s := cssom.DefaultComputedStyle()
	s.Margin.Top = numeric.FromPoints(top)
	s.Margin.Bottom = numeric.FromPoints(bottom)
	return s
}

func TestFlexDistributesGrow(t *testing.T) {
	m := newFakeMeasurer()
	style := cssom.DefaultComputedStyle()
	style.Flex.Direction = cssom.FlexRow

	grow1 := cssom.DefaultComputedStyle()
	grow1.Flex.Grow = 1
	grow2 := cssom.DefaultComputedStyle()
	grow2.Flex.Grow = 3

	a := NewContainer(grow1, nil)
	b := NewContainer(grow2, nil)
	f := NewFlex(style, []Flowable{a, b})
	avail := numeric.Size{W: numeric.FromPoints(400), H: numeric.FromPoints(100)}
	f.Wrap(avail, m)
	if len(f.itemBoxes) != 2 {
		t.Fatalf("expected 2 item boxes, got %d", len(f.itemBoxes))
	}
	if f.itemBoxes[1].size.W <= f.itemBoxes[0].size.W {
		t.Fatalf("expected item with larger grow factor to end up wider: %v vs %v",
			f.itemBoxes[1].size.W.Points(), f.itemBoxes[0].size.W.Points())
	}
}

func TestTableRowHeightIsTallestCell(t *testing.T) {
	m := newFakeMeasurer()
	style := cssom.DefaultComputedStyle()
	short := NewParagraph(style, "a")
	tall := NewParagraph(style, "a b c d e f g h i j k l m n o p")
	rows := []TableRow{{Cells: []TableCell{{Content: short}, {Content: tall}}}}
	tbl := NewTable(style, rows, []numeric.Length{numeric.FromPoints(40), numeric.FromPoints(40)})
	avail := numeric.Size{W: numeric.FromPoints(80), H: numeric.FromPoints(500)}
	tbl.Wrap(avail, m)
	if len(tbl.resolvedRows) != 1 {
		t.Fatalf("expected 1 resolved row, got %d", len(tbl.resolvedRows))
	}
	row := tbl.resolvedRows[0]
	if row.height != row.cells[1].size.H {
		t.Fatalf("expected row height to equal the taller cell's height: row=%v tall=%v",
			row.height.Points(), row.cells[1].size.H.Points())
	}
}

func TestTableSplitIsRowAtomic(t *testing.T) {
	m := newFakeMeasurer()
	style := cssom.DefaultComputedStyle()
	mkRow := func(text string) TableRow {
		return TableRow{Cells: []TableCell{{Content: NewParagraph(style, text)}}}
	}
	rows := []TableRow{mkRow("row one"), mkRow("row two"), mkRow("row three")}
	tbl := NewTable(style, rows, []numeric.Length{numeric.FromPoints(100)})
	avail := numeric.Size{W: numeric.FromPoints(100), H: numeric.FromPoints(500)}
	tbl.Wrap(avail, m)
	boundary := tbl.resolvedRows[0].height.Add(tbl.resolvedRows[1].height)
	head, tail, ok := tbl.Split(boundary, m)
	if !ok {
		t.Fatalf("expected split to succeed")
	}
	ht := head.(*Table)
	tt := tail.(*Table)
	if len(ht.Rows) != 2 || len(tt.Rows) != 1 {
		t.Fatalf("expected head=2 rows tail=1 row, got head=%d tail=%d", len(ht.Rows), len(tt.Rows))
	}
}

func TestPositionedRelativeOffsetsAtDrawTime(t *testing.T) {
	m := newFakeMeasurer()
	style := cssom.DefaultComputedStyle()
	style.Position = cssom.PositionRelative
	style.Inset.Top = numeric.FromPoints(5)
	style.Inset.TopAuto = false
	style.Inset.Left = numeric.FromPoints(3)
	style.Inset.LeftAuto = false
	style.Inset.RightAuto = true
	style.Inset.BottomAuto = true

	inner := NewContainer(cssom.DefaultComputedStyle(), nil)
	p := NewPositioned(style, inner)
	p.Wrap(numeric.Size{W: numeric.FromPoints(100), H: numeric.FromPoints(100)}, m)
	off := p.Offset(numeric.Size{W: numeric.FromPoints(100), H: numeric.FromPoints(100)})
	if off.X != numeric.FromPoints(3) || off.Y != numeric.FromPoints(5) {
		t.Fatalf("expected offset (3,5), got (%v,%v)", off.X.Points(), off.Y.Points())
	}
}

func TestTransformedComposesMatrixList(t *testing.T) {
	style := cssom.DefaultComputedStyle()
	style.Transform = []cssom.TransformOp{
		{Kind: cssom.TransformTranslate, X: numeric.FromPoints(10), Y: numeric.FromPoints(0)},
		{Kind: cssom.TransformScale, SX: 2, SY: 2},
	}
	inner := NewContainer(cssom.DefaultComputedStyle(), nil)
	tr := NewTransformed(style, inner)
	if tr.Matrix.A != 2 || tr.Matrix.D != 2 {
		t.Fatalf("expected composed scale of 2, got A=%v D=%v", tr.Matrix.A, tr.Matrix.D)
	}
}
