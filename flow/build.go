package flow

import (
	"strings"

	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/htmldom"
)

// Build lowers a styled htmldom.Node tree into the concrete Flowable tree
// consumed by paginate, dispatching on each node's computed Display value.
// Callers must run htmldom.ApplyCascade (and htmldom.SynthesizePseudoContent,
// if generated content is wanted) before calling Build so every node already
// carries a non-nil Style.
func Build(n *htmldom.Node) Flowable {
	if n == nil || n.Style == nil {
		return nil
	}
	f := buildElement(n)
	if f == nil {
		return nil
	}
	if n.Style.Position != cssom.PositionStatic {
		f = NewPositioned(*n.Style, f)
	}
	if len(n.Style.Transform) > 0 {
		f = NewTransformed(*n.Style, f)
	}
	return f
}

func buildElement(n *htmldom.Node) Flowable {
	style := *n.Style
	if style.Display == cssom.DisplayNone {
		return nil
	}

	switch style.Display {
	case cssom.DisplayFlex:
		return buildFlex(n, style)
	case cssom.DisplayGrid:
		return buildGrid(n, style)
	case cssom.DisplayTable:
		return buildTable(n, style)
	default:
		if isTextOnly(n) {
			return NewParagraph(style, textContentOf(n))
		}
		return buildContainer(n, style)
	}
}

// isTextOnly reports whether every element child of n is itself a leaf of
// text (no nested block/flex/table children) so the whole subtree collapses
// to a single Paragraph run instead of a Container of Paragraphs.
func isTextOnly(n *htmldom.Node) bool {
	for _, c := range n.Children {
		if c.Kind != htmldom.KindElement {
			continue
		}
		if c.Style == nil || c.Style.Display != cssom.DisplayInline {
			return false
		}
		if !isTextOnly(c) {
			return false
		}
	}
	return true
}

func textContentOf(n *htmldom.Node) string {
	var b strings.Builder
	var walk func(*htmldom.Node)
	walk = func(cur *htmldom.Node) {
		switch cur.Kind {
		case htmldom.KindText:
			b.WriteString(cur.Text)
		case htmldom.KindElement:
			for _, c := range cur.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

func buildContainer(n *htmldom.Node, style cssom.ComputedStyle) Flowable {
	var children []Flowable
	for _, c := range n.Children {
		switch c.Kind {
		case htmldom.KindText:
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			children = append(children, NewParagraph(style, c.Text))
		case htmldom.KindElement:
			if child := Build(c); child != nil {
				children = append(children, child)
			}
		}
	}
	return NewContainer(style, children)
}

func buildFlex(n *htmldom.Node, style cssom.ComputedStyle) Flowable {
	var items []Flowable
	for _, c := range n.Children {
		if c.Kind != htmldom.KindElement {
			continue
		}
		if item := Build(c); item != nil {
			items = append(items, item)
		}
	}
	return NewFlex(style, items)
}

func buildGrid(n *htmldom.Node, style cssom.ComputedStyle) Flowable {
	var items []Flowable
	var placements []gridPlacement
	for _, c := range n.Children {
		if c.Kind != htmldom.KindElement {
			continue
		}
		item := Build(c)
		if item == nil {
			continue
		}
		items = append(items, item)
		colStart, rowStart := 0, 0
		if c.Style != nil {
			colStart, rowStart = c.Style.Grid.ColumnStart, c.Style.Grid.RowStart
		}
		placements = append(placements, gridPlacement{ColumnStart: colStart, RowStart: rowStart})
	}
	return NewGrid(style, items, placements)
}

// buildTable walks a <table> element's row-group structure (thead/tbody/
// tfoot are transparent containers here; only tr/td/th carry layout
// meaning), generalizing the teacher's flat TableBox builder.
func buildTable(n *htmldom.Node, style cssom.ComputedStyle) Flowable {
	var rows []TableRow
	var walkRows func(cur *htmldom.Node, fromHeader bool)
	walkRows = func(cur *htmldom.Node, fromHeader bool) {
		for _, c := range cur.Children {
			if c.Kind != htmldom.KindElement {
				continue
			}
			switch strings.ToLower(c.Tag) {
			case "tr":
				rows = append(rows, buildRow(c, fromHeader))
			case "thead":
				walkRows(c, true)
			case "tbody", "tfoot":
				walkRows(c, false)
			}
		}
	}
	walkRows(n, false)
	return NewTable(style, rows, nil)
}

func buildRow(n *htmldom.Node, fromHeader bool) TableRow {
	row := TableRow{FromHeader: fromHeader, Splittable: true}
	if n.Style != nil && n.Style.BreakInside == cssom.BreakAvoid {
		row.Splittable = false
	}
	for _, c := range n.Children {
		if c.Kind != htmldom.KindElement {
			continue
		}
		tag := strings.ToLower(c.Tag)
		if tag != "td" && tag != "th" {
			continue
		}
		if tag == "th" {
			row.IsHeader = true
		}
		row.Cells = append(row.Cells, TableCell{Content: Build(c), IsHeader: tag == "th"})
	}
	return row
}
