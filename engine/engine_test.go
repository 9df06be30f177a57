package engine

import (
	"context"
	"testing"
)

func TestAssetRegistryRejectsDuplicateName(t *testing.T) {
	reg := NewAssetRegistry()
	if err := reg.Register(Asset{Name: "a", Kind: AssetCSS, Bytes: []byte("p{color:red}")}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(Asset{Name: "a", Kind: AssetCSS, Bytes: []byte("p{color:blue}")}); err == nil {
		t.Fatalf("expected duplicate-name error, got nil")
	}
}

func TestAssetRegistryRejectsEmptyName(t *testing.T) {
	reg := NewAssetRegistry()
	if err := reg.Register(Asset{Kind: AssetCSS, Bytes: []byte("p{}")}); err == nil {
		t.Fatalf("expected empty-name error, got nil")
	}
}

func TestAssetRegistryRejectsMalformedFont(t *testing.T) {
	reg := NewAssetRegistry()
	err := reg.Register(Asset{Name: "body", Kind: AssetFont, Bytes: []byte("not a font")})
	if err == nil {
		t.Fatalf("expected font-parse error, got nil")
	}
	if _, ok := err.(*AssetError); !ok {
		t.Fatalf("expected *AssetError, got %T", err)
	}
}

func TestAssetRegistryConcatenatedCSSPreservesOrder(t *testing.T) {
	reg := NewAssetRegistry()
	if err := reg.Register(Asset{Name: "first", Kind: AssetCSS, Bytes: []byte("a{}")}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(Asset{Name: "second", Kind: AssetCSS, Bytes: []byte("b{}")}); err != nil {
		t.Fatal(err)
	}
	got := reg.ConcatenatedCSS()
	want := "a{}\nb{}\n"
	if got != want {
		t.Fatalf("ConcatenatedCSS() = %q, want %q", got, want)
	}
}

func TestAssetRegistryImageBytesRejectsWrongKind(t *testing.T) {
	reg := NewAssetRegistry()
	if err := reg.Register(Asset{Name: "sheet", Kind: AssetCSS, Bytes: []byte("a{}")}); err != nil {
		t.Fatal(err)
	}
	if _, ok := reg.ImageBytes("sheet"); ok {
		t.Fatalf("expected ImageBytes to reject a CSS-kind asset")
	}
}

func TestDiagnosticsAccumulatesWithoutGate(t *testing.T) {
	diag := newDiagnostics(Options{})
	if err := diag.Add(KindKnownLoss, 0, "dropped %s", "script tag"); err != nil {
		t.Fatalf("expected no fail-fast error, got %v", err)
	}
	if len(diag.All()) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diag.All()))
	}
	if !diag.HasKind(KindKnownLoss) {
		t.Fatalf("expected HasKind(KindKnownLoss) true")
	}
}

func TestDiagnosticsFailFastOverflowTrips(t *testing.T) {
	diag := newDiagnostics(Options{FailFastOverflow: true})
	err := diag.Add(KindLayoutOverflow, 3, "content overflowed frame")
	if err == nil {
		t.Fatalf("expected fail-fast error, got nil")
	}
	ffe, ok := err.(*FailFastError)
	if !ok {
		t.Fatalf("expected *FailFastError, got %T", err)
	}
	if ffe.Diagnostic.Page != 3 {
		t.Fatalf("expected page 3, got %d", ffe.Diagnostic.Page)
	}
}

func TestDiagnosticsAllowFallbacksSuppressesGlyphGate(t *testing.T) {
	diag := newDiagnostics(Options{FailFastMissingGlyph: true, AllowFallbacks: true})
	if err := diag.Add(KindGlyphCoverage, 0, "missing glyph"); err != nil {
		t.Fatalf("expected AllowFallbacks to suppress the gate, got %v", err)
	}
}

func TestRenderBatchPreservesOrderAndIsolatesFailures(t *testing.T) {
	jobs := []BatchJob{
		{HTML: "<p>one</p>"},
		{HTML: "<<not html at all"}, // x/net/html's forgiving parser still succeeds on this
		{HTML: "<p>three</p>"},
	}
	results := RenderBatch(context.Background(), jobs)
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("job %d: unexpected error %v", i, r.Err)
		}
		if r.Result == nil {
			t.Fatalf("job %d: nil result", i)
		}
	}
}

func TestRenderProducesWellFormedPDF(t *testing.T) {
	assets := NewAssetRegistry()
	html := `<html><body><p>hello world</p></body></html>`
	css := `p { font-size: 12pt; }`

	result, err := Render(context.Background(), html, css, assets, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(result.PDF) == 0 {
		t.Fatalf("expected non-empty PDF bytes")
	}
	if result.PDFSHA256 == "" {
		t.Fatalf("expected a populated digest")
	}
	if string(result.PDF[:5]) != "%PDF-" {
		t.Fatalf("expected PDF header, got %q", result.PDF[:5])
	}
}

func TestRenderIsDeterministicAcrossRuns(t *testing.T) {
	assets := NewAssetRegistry()
	html := `<html><body><p>repeatable</p></body></html>`

	a, err := Render(context.Background(), html, "", assets, Options{})
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := Render(context.Background(), html, "", assets, Options{})
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if a.PDFSHA256 != b.PDFSHA256 {
		t.Fatalf("expected identical digests across runs, got %s and %s", a.PDFSHA256, b.PDFSHA256)
	}
}

func TestRenderHonorsMaxPagesBudget(t *testing.T) {
	assets := NewAssetRegistry()
	html := `<html><body><p>short</p></body></html>`

	_, err := Render(context.Background(), html, "", assets, Options{MaxPages: 0, FailFastBudget: true})
	if err != nil {
		t.Fatalf("expected a one-page render to stay under an unset budget, got %v", err)
	}

	_, err = Render(context.Background(), html, "", assets, Options{MaxPages: 1, FailFastBudget: true})
	if err != nil {
		t.Fatalf("expected a one-page render to stay within MaxPages=1, got %v", err)
	}
}

func TestStandardFontNameFallsBackToHelvetica(t *testing.T) {
	if got := standardFontName("Comic Sans MS"); got != "Helvetica" {
		t.Fatalf("expected Helvetica fallback, got %q", got)
	}
	if got := standardFontName("monospace"); got != "Courier" {
		t.Fatalf("expected Courier for monospace, got %q", got)
	}
}
