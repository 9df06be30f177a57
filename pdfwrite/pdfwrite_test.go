package pdfwrite

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

func samplePage() Page {
	s := canvasstream.New()
	s.Save()
	s.SetFillColor(cssom.RGBA{R: 10, G: 20, B: 30, A: 1})
	s.FillRect(numeric.Rect{X: numeric.FromPoints(10), Y: numeric.FromPoints(10), W: numeric.FromPoints(100), H: numeric.FromPoints(50)})
	s.BeginText()
	s.SetFont("Body", numeric.FromPoints(12))
	s.ShowText("hello", numeric.FromPoints(10), numeric.FromPoints(700))
	s.EndText()
	s.Restore()
	return Page{Size: numeric.Size{W: numeric.FromPoints(612), H: numeric.FromPoints(792)}, Stream: s}
}

func TestWriteProducesValidHeaderAndTrailer(t *testing.T) {
	out, counters, err := Write(context.Background(), []Page{samplePage()}, Options{Version: Version17})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.7\n")) {
		t.Fatalf("missing PDF-1.7 header")
	}
	if !bytes.Contains(out, []byte("trailer")) || !bytes.Contains(out, []byte("startxref")) {
		t.Fatalf("missing trailer/startxref")
	}
	if counters.PageCount != 1 {
		t.Fatalf("expected 1 page counted, got %d", counters.PageCount)
	}
	if !bytes.Contains(out, []byte("%%EOF")) {
		t.Fatalf("missing EOF marker")
	}
}

func TestWriteIsDeterministicAcrossRuns(t *testing.T) {
	pages := []Page{samplePage(), samplePage()}
	a, _, err := Write(context.Background(), pages, Options{Version: Version17})
	if err != nil {
		t.Fatalf("Write a: %v", err)
	}
	pages2 := []Page{samplePage(), samplePage()}
	b, _, err := Write(context.Background(), pages2, Options{Version: Version17})
	if err != nil {
		t.Fatalf("Write b: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected byte-identical output across independent runs")
	}
}

func TestWriteDedupsIdenticalImageBytes(t *testing.T) {
	imgData := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	reg := NewRegistry()
	n1 := reg.Image(ImageResource{Data: imgData, Width: 2, Height: 1, ColorSpace: "DeviceGray"})
	n2 := reg.Image(ImageResource{Data: append([]byte{}, imgData...), Width: 2, Height: 1, ColorSpace: "DeviceGray"})
	if n1 != n2 {
		t.Fatalf("expected identical image bytes to dedup to the same resource name, got %q and %q", n1, n2)
	}
	if len(reg.images) != 1 {
		t.Fatalf("expected exactly one registered image, got %d", len(reg.images))
	}
}

func TestFlattenContentEmitsExpectedOperators(t *testing.T) {
	reg := NewRegistry()
	got := FlattenContent(samplePage().Stream, reg, nil, nil, nil)
	for _, want := range []string{"q\n", "rg\n", "re\n", "f\n", "BT\n", "Tf\n", "Tj\n", "ET\n", "Q\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected content stream to contain %q, got:\n%s", want, got)
		}
	}
}

func TestFormatNumberCanonicalizesTrailingZeros(t *testing.T) {
	cases := map[float64]string{
		1.0:    "1",
		1.5:    "1.5",
		0.0:    "0",
		100.25: "100.25",
		-3.0:   "-3",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNameEscapesReservedBytes(t *testing.T) {
	if got := FormatName("My Font#1"); got != "/My#20Font#231" {
		t.Fatalf("FormatName = %q", got)
	}
}

func TestWriteTaggedIncludesStructTreeRoot(t *testing.T) {
	out, _, err := Write(context.Background(), []Page{samplePage()}, Options{Version: Version17, Tagged: true, Lang: "en-US"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Contains(out, []byte("StructTreeRoot")) {
		t.Fatalf("expected StructTreeRoot in tagged output")
	}
	if !bytes.Contains(out, []byte("/Lang (en-US)")) {
		t.Fatalf("expected /Lang entry in catalog")
	}
}
