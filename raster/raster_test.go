package raster

import (
	"context"
	"testing"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

func rectPage() Page {
	s := canvasstream.New()
	s.Save()
	s.SetFillColor(cssom.RGBA{R: 200, G: 20, B: 20, A: 1})
	s.FillRect(numeric.Rect{X: numeric.FromMillimeters(5), Y: numeric.FromMillimeters(5), W: numeric.FromMillimeters(20), H: numeric.FromMillimeters(10)})
	s.Restore()
	return Page{Size: numeric.Size{W: numeric.FromMillimeters(100), H: numeric.FromMillimeters(150)}, Stream: s}
}

func TestRenderPageProducesExpectedPixelDimensions(t *testing.T) {
	r := NewRenderer(nil, nil, nil)
	img, report, err := r.RenderPage(context.Background(), rectPage(), Options{DotsPerMM: 4})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	wantW := int(100 * 4)
	wantH := int(150 * 4)
	if img.Bounds().Dx() < wantW-4 || img.Bounds().Dx() > wantW+4 {
		t.Fatalf("unexpected width: got %d want ~%d", img.Bounds().Dx(), wantW)
	}
	if img.Bounds().Dy() < wantH-4 || img.Bounds().Dy() > wantH+4 {
		t.Fatalf("unexpected height: got %d want ~%d", img.Bounds().Dy(), wantH)
	}
	if !report.Empty() {
		t.Fatalf("expected no glyph-coverage misses for a rect-only page")
	}
}

func TestRenderPageRejectsNonPositiveResolution(t *testing.T) {
	r := NewRenderer(nil, nil, nil)
	if _, _, err := r.RenderPage(context.Background(), rectPage(), Options{DotsPerMM: 0}); err == nil {
		t.Fatalf("expected an error for DotsPerMM=0")
	}
}

func TestShowTextWithNoFontRecordsGlyphCoverage(t *testing.T) {
	s := canvasstream.New()
	s.BeginText()
	s.SetFont("Body", numeric.FromPoints(12))
	s.ShowText("hi", numeric.FromPoints(10), numeric.FromPoints(10))
	s.EndText()
	page := Page{Size: numeric.Size{W: numeric.FromMillimeters(50), H: numeric.FromMillimeters(50)}, Stream: s}

	r := NewRenderer(nil, nil, nil)
	_, report, err := r.RenderPage(context.Background(), page, Options{DotsPerMM: 2})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if report.Empty() {
		t.Fatalf("expected glyph-coverage misses when no FontSource is configured")
	}
	if !report.Missing["Body"]['h'] || !report.Missing["Body"]['i'] {
		t.Fatalf("expected both runes recorded as missing, got %v", report.Missing["Body"])
	}
}

func TestRenderPagesPreservesOrder(t *testing.T) {
	r := NewRenderer(nil, nil, nil)
	pages := []Page{rectPage(), rectPage(), rectPage()}
	results, err := r.RenderPages(context.Background(), pages, Options{DotsPerMM: 2})
	if err != nil {
		t.Fatalf("RenderPages: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Image == nil {
			t.Fatalf("page %d: nil image", i)
		}
	}
}

func TestEncodePNGRoundTripsDeterministically(t *testing.T) {
	r := NewRenderer(nil, nil, nil)
	img, _, err := r.RenderPage(context.Background(), rectPage(), Options{DotsPerMM: 2})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	a, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	b, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if len(a) == 0 || string(a) != string(b) {
		t.Fatalf("expected deterministic PNG encoding across calls")
	}
}

func TestMergeCoverageCombinesPerPageReports(t *testing.T) {
	r1 := newGlyphCoverageReport()
	r1.record("Body", "ab")
	r2 := newGlyphCoverageReport()
	r2.record("Body", "c")
	r2.record("Heading", "x")

	merged := MergeCoverage([]PageResult{{Coverage: r1}, {Coverage: r2}})
	if merged.Empty() {
		t.Fatalf("expected merged report to be non-empty")
	}
	for _, r := range "abc" {
		if !merged.Missing["Body"][r] {
			t.Fatalf("expected rune %q recorded under Body", r)
		}
	}
	if !merged.Missing["Heading"]['x'] {
		t.Fatalf("expected rune 'x' recorded under Heading")
	}
}
