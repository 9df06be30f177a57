package htmldom

import (
	"strings"
	"testing"

	"github.com/fullbleed/fullbleed/cssom"
)

func TestParseBuildsElementTree(t *testing.T) {
	doc, err := Parse(`<div id="a" class="x y"><p>Hello  world</p></div>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if doc.Root.Tag != "body" {
		t.Fatalf("expected body root, got %q", doc.Root.Tag)
	}
	div := doc.Root.Children[0]
	if div.Tag != "div" || div.ID() != "a" {
		t.Fatalf("unexpected div node: %+v", div)
	}
	classes := div.ClassList()
	if len(classes) != 2 || classes[0] != "x" || classes[1] != "y" {
		t.Fatalf("unexpected class list: %v", classes)
	}
	p := div.Children[0]
	if p.Tag != "p" {
		t.Fatalf("expected p child, got %q", p.Tag)
	}
	text := TextContent(p)
	if text != "Hello world" {
		t.Fatalf("expected collapsed whitespace, got %q", text)
	}
}

func TestParseWarnsOnIgnoredAssets(t *testing.T) {
	doc, err := Parse(`<html><head><link rel="stylesheet" href="a.css"></head><body><script src="x.js"></script><style>p{}</style></body></html>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(doc.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %+v", len(doc.Warnings), doc.Warnings)
	}
}

func TestApplyCascadeInheritsAndMatches(t *testing.T) {
	doc, err := Parse(`<div class="box"><span>text</span></div>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	sheet := cssom.ParseStylesheet(`.box { color: #ff0000; } span { display: inline-block; }`)
	cascade := cssom.NewCascade(sheet)
	ApplyCascade(doc.Root, cascade, nil)

	div := doc.Root.Children[0]
	if div.Style.Color != cssom.Opaque(255, 0, 0) {
		t.Fatalf("expected div color red, got %+v", div.Style.Color)
	}
	span := div.Children[0]
	if span.Style.Color != div.Style.Color {
		t.Fatalf("expected span to inherit color, got %+v vs %+v", span.Style.Color, div.Style.Color)
	}
	if span.Style.Display != cssom.DisplayInlineBlock {
		t.Fatalf("expected span display inline-block, got %v", span.Style.Display)
	}
}

func TestSynthesizePseudoContent(t *testing.T) {
	doc, err := Parse(`<p data-tag="NOTE">body</p>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	sheet := cssom.ParseStylesheet(`p::before { content: "["; } p::after { content: attr(data-tag); }`)
	cascade := cssom.NewCascade(sheet)
	ApplyCascade(doc.Root, cascade, nil)
	p := doc.Root.Children[0]
	SynthesizePseudoContent(p, cascade)
	if len(p.Children) != 3 {
		t.Fatalf("expected before+text+after, got %d children", len(p.Children))
	}
	if p.Children[0].Text != "[" {
		t.Fatalf("unexpected before content: %q", p.Children[0].Text)
	}
	if p.Children[2].Text != "NOTE" {
		t.Fatalf("unexpected after content: %q", p.Children[2].Text)
	}
	if !strings.Contains(TextContent(p), "body") {
		t.Fatalf("expected original text preserved")
	}
}
