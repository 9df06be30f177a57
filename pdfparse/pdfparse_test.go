package pdfparse

import (
	"context"
	"math"
	"testing"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
	"github.com/fullbleed/fullbleed/pdfwrite"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestParseDocument_RoundTripsTextAndRect(t *testing.T) {
	s := canvasstream.New()
	s.Save()
	s.SetFillColor(cssom.RGBA{R: 10, G: 20, B: 30, A: 1})
	s.FillRect(numeric.Rect{X: numeric.FromPoints(10), Y: numeric.FromPoints(20), W: numeric.FromPoints(100), H: numeric.FromPoints(50)})
	s.BeginText()
	s.SetFont("Body", numeric.FromPoints(12))
	s.ShowText("hello world", numeric.FromPoints(15), numeric.FromPoints(700))
	s.EndText()
	s.Restore()
	page := pdfwrite.Page{Size: numeric.Size{W: numeric.FromPoints(612), H: numeric.FromPoints(792)}, Stream: s}

	out, _, err := pdfwrite.Write(context.Background(), []pdfwrite.Page{page}, pdfwrite.Options{Version: pdfwrite.Version17})
	if err != nil {
		t.Fatalf("pdfwrite.Write: %v", err)
	}

	doc, err := ParseDocument(out)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if !approx(pages[0].Size.W.Points(), 612) || !approx(pages[0].Size.H.Points(), 792) {
		t.Fatalf("unexpected page size: %+v", pages[0].Size)
	}

	stream, _, _, err := doc.DecodePage(pages[0])
	if err != nil {
		t.Fatalf("DecodePage: %v", err)
	}
	if !stream.Balanced() {
		t.Fatalf("decoded stream has unbalanced save/restore")
	}

	var gotRect *canvasstream.Command
	var gotText *canvasstream.Command
	for i, c := range stream.Commands {
		switch c.Op {
		case canvasstream.OpFillRect:
			gotRect = &stream.Commands[i]
		case canvasstream.OpShowText:
			gotText = &stream.Commands[i]
		}
	}
	if gotRect == nil {
		t.Fatalf("no OpFillRect recovered")
	}
	if !approx(gotRect.Rect.X.Points(), 10) || !approx(gotRect.Rect.Y.Points(), 20) ||
		!approx(gotRect.Rect.W.Points(), 100) || !approx(gotRect.Rect.H.Points(), 50) {
		t.Fatalf("rect mismatch: %+v", gotRect.Rect)
	}
	if gotText == nil || gotText.Text != "hello world" {
		t.Fatalf("text mismatch: %+v", gotText)
	}
	if !approx(gotText.TextX.Points(), 15) || !approx(gotText.TextY.Points(), 700) {
		t.Fatalf("text position mismatch: %+v", gotText)
	}
}

func buildImagePDF(t *testing.T, cm string) []byte {
	t.Helper()
	w := pdfwrite.NewWriter(pdfwrite.Version17)

	// 2x1 raw 8-bit DeviceRGB image: one red pixel, one blue pixel.
	imgData := []byte{255, 0, 0, 0, 0, 255}
	imageID := w.AllocID()
	imgDict := pdfwrite.NewDict()
	imgDict.SetName("Type", "XObject")
	imgDict.SetName("Subtype", "Image")
	imgDict.SetInt("Width", 2)
	imgDict.SetInt("Height", 1)
	imgDict.SetInt("BitsPerComponent", 8)
	imgDict.SetName("ColorSpace", "DeviceRGB")
	if err := w.SetStream(context.Background(), imageID, imgDict, imgData); err != nil {
		t.Fatalf("SetStream image: %v", err)
	}

	xobjDict := pdfwrite.NewDict()
	xobjDict.SetRef("Im1", imageID)
	resDict := pdfwrite.NewDict()
	resDict.Set("XObject", xobjDict.String())
	resourcesID := w.AllocID()
	w.SetObject(resourcesID, resDict.String())

	content := []byte(cm)
	contentID := w.AllocID()
	if err := w.SetStream(context.Background(), contentID, pdfwrite.NewDict(), content); err != nil {
		t.Fatalf("SetStream content: %v", err)
	}

	pageID := w.AllocID()
	pagesID := w.AllocID()
	pageDict := pdfwrite.NewDict()
	pageDict.SetName("Type", "Page")
	pageDict.SetRef("Parent", pagesID)
	pageDict.Set("MediaBox", pdfwrite.Array("0", "0", "200", "100"))
	pageDict.SetRef("Resources", resourcesID)
	pageDict.SetRef("Contents", contentID)
	w.SetObject(pageID, pageDict.String())

	pagesDict := pdfwrite.NewDict()
	pagesDict.SetName("Type", "Pages")
	pagesDict.Set("Kids", pdfwrite.Array(pdfwrite.Ref(pageID)))
	pagesDict.SetInt("Count", 1)
	w.SetObject(pagesID, pagesDict.String())

	catalogID := w.AllocID()
	catalogDict := pdfwrite.NewDict()
	catalogDict.SetName("Type", "Catalog")
	catalogDict.SetRef("Pages", pagesID)
	w.SetObject(catalogID, catalogDict.String())

	out, err := w.Write(catalogID, 0)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	return out
}

func TestParseDocument_CollapsesImageXObjectBracket(t *testing.T) {
	out := buildImagePDF(t, "q 40 0 0 30 10 20 cm /Im1 Do Q\n")

	doc, err := ParseDocument(out)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	stream, _, images, err := doc.DecodePage(pages[0])
	if err != nil {
		t.Fatalf("DecodePage: %v", err)
	}

	var draw *canvasstream.Command
	for i, c := range stream.Commands {
		if c.Op == canvasstream.OpDrawImage {
			draw = &stream.Commands[i]
		}
		// the bracket must collapse straight to OpDrawImage, never a bare
		// OpConcatMatrix for this 'cm' immediately preceding a Do.
	}
	if draw == nil {
		t.Fatalf("no OpDrawImage recovered; commands=%+v", stream.Commands)
	}
	if !approx(draw.Rect.X.Points(), 10) || !approx(draw.Rect.Y.Points(), 20) ||
		!approx(draw.Rect.W.Points(), 40) || !approx(draw.Rect.H.Points(), 30) {
		t.Fatalf("image rect mismatch: %+v", draw.Rect)
	}
	asset, ok := images[draw.ImageKey]
	if !ok {
		t.Fatalf("image asset %q not found in %v", draw.ImageKey, images)
	}
	if asset.Width != 2 || asset.Height != 1 || asset.ColorSpace != "DeviceRGB" {
		t.Fatalf("unexpected image asset: %+v", asset)
	}
	img, err := asset.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Fatalf("decoded image has wrong bounds: %v", img.Bounds())
	}
}

func TestParseDocument_NonAxisAlignedImageFallsBackGenerically(t *testing.T) {
	// A rotated placement (B/C nonzero) can't collapse to OpDrawImage's
	// Rect-only model; it must not be silently dropped either.
	out := buildImagePDF(t, "q 0 30 -40 0 10 20 cm /Im1 Do Q\n")
	doc, err := ParseDocument(out)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	stream, _, _, err := doc.DecodePage(pages[0])
	if err != nil {
		t.Fatalf("DecodePage: %v", err)
	}
	if !stream.Balanced() {
		t.Fatalf("unbalanced stream from generic fallback path")
	}
	found := false
	for _, c := range stream.Commands {
		if c.Op == canvasstream.OpDrawImage {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a generic-path OpDrawImage, got none: %+v", stream.Commands)
	}
}

func streamWithMeta(entries ...canvasstream.Command) *canvasstream.Stream {
	s := canvasstream.New()
	s.Commands = append(s.Commands, entries...)
	return s
}

func meta(key, value string) canvasstream.Command {
	return canvasstream.Command{Op: canvasstream.OpMeta, MetaKey: key, MetaValue: value}
}

func TestCollectPageFeatureFlags_TruthyValues(t *testing.T) {
	pages := []*canvasstream.Stream{
		streamWithMeta(meta("fb.feature.cover", "true"), meta("fb.feature.watermark", "0")),
		streamWithMeta(meta("fb.feature.cover", ""), meta("unrelated.key", "yes")),
	}
	flags := CollectPageFeatureFlags(pages, "fb.feature.")
	if !flags[0]["cover"] || flags[0]["watermark"] {
		t.Fatalf("page 0 flags wrong: %+v", flags[0])
	}
	if !flags[1]["cover"] {
		t.Fatalf("page 1 flags wrong (blank value should be truthy): %+v", flags[1])
	}
	if len(flags[1]) != 1 {
		t.Fatalf("page 1 should ignore keys outside the feature prefix: %+v", flags[1])
	}
}

func TestCollectPageTemplateNames_FirstNonBlankWins(t *testing.T) {
	pages := []*canvasstream.Stream{
		streamWithMeta(meta(MetaPageTemplateKey, "  "), meta(MetaPageTemplateKey, "invoice")),
		streamWithMeta(),
	}
	names := CollectPageTemplateNames(pages, MetaPageTemplateKey)
	if names[0] != "invoice" {
		t.Fatalf("expected first non-blank template name, got %q", names[0])
	}
	if names[1] != "" {
		t.Fatalf("expected empty template name for page with no meta, got %q", names[1])
	}
}

func TestResolveTemplateBindings_Precedence(t *testing.T) {
	spec := TemplateBindingSpec{
		DefaultTemplateID: "plain",
		ByPageTemplate:    map[string]string{"invoice": "invoice-template"},
		ByFeature:         map[string]string{"cover": "cover-template"},
	}
	names := []string{"invoice", "invoice", ""}
	features := []map[string]bool{
		{"cover": true},
		{},
		{},
	}
	got, err := ResolveTemplateBindings(spec, names, features)
	if err != nil {
		t.Fatalf("ResolveTemplateBindings: %v", err)
	}
	if got[0].TemplateID != "cover-template" || got[0].Source != BindingFeature {
		t.Fatalf("page 0 should bind by feature: %+v", got[0])
	}
	if got[1].TemplateID != "invoice-template" || got[1].Source != BindingPageTemplate {
		t.Fatalf("page 1 should bind by page template: %+v", got[1])
	}
	if got[2].TemplateID != "plain" || got[2].Source != BindingDefault {
		t.Fatalf("page 2 should bind by default: %+v", got[2])
	}
}

func TestResolveTemplateBindings_AmbiguousFeatureIsAnError(t *testing.T) {
	spec := TemplateBindingSpec{
		ByFeature: map[string]string{"cover": "a", "special": "b"},
	}
	names := []string{""}
	features := []map[string]bool{{"cover": true, "special": true}}
	if _, err := ResolveTemplateBindings(spec, names, features); err == nil {
		t.Fatalf("expected an ambiguous-feature-binding error")
	}
}

func TestResolveTemplateBindings_NoMatchIsAnError(t *testing.T) {
	spec := TemplateBindingSpec{}
	names := []string{""}
	features := []map[string]bool{{}}
	if _, err := ResolveTemplateBindings(spec, names, features); err == nil {
		t.Fatalf("expected a no-binding error")
	}
}

func TestComposeTemplateOverlay_OrderAndTranslation(t *testing.T) {
	template := canvasstream.New()
	template.Save()
	template.FillRect(numeric.Rect{W: numeric.FromPoints(10), H: numeric.FromPoints(10)})
	template.Restore()

	overlay := canvasstream.New()
	overlay.BeginText()
	overlay.ShowText("overlay text", 0, 0)
	overlay.EndText()

	composed, err := ComposeTemplateOverlay(template, overlay, numeric.FromPoints(5), numeric.FromPoints(7))
	if err != nil {
		t.Fatalf("ComposeTemplateOverlay: %v", err)
	}
	if !composed.Balanced() {
		t.Fatalf("composed stream is unbalanced")
	}
	// Template commands must come first (it's the background); the overlay's
	// translate bracket and commands follow.
	if composed.Commands[0].Op != canvasstream.OpSaveState {
		t.Fatalf("expected template's own Save first, got %+v", composed.Commands[0])
	}
	foundConcat := false
	for _, c := range composed.Commands {
		if c.Op == canvasstream.OpConcatMatrix {
			foundConcat = true
			if !approx(c.Matrix.E, 5) || !approx(c.Matrix.F, 7) {
				t.Fatalf("translation mismatch: %+v", c.Matrix)
			}
		}
	}
	if !foundConcat {
		t.Fatalf("expected a translating OpConcatMatrix bracketing the overlay")
	}
	lastOp := composed.Commands[len(composed.Commands)-1].Op
	if lastOp != canvasstream.OpRestoreState {
		t.Fatalf("expected the composed stream to end with the overlay bracket's Restore, got %v", lastOp)
	}
}

func TestDefaultPageMap_RejectsPageCountMismatch(t *testing.T) {
	if _, err := DefaultPageMap(2, 3); err == nil {
		t.Fatalf("expected an error for mismatched page counts")
	}
	plan, err := DefaultPageMap(2, 2)
	if err != nil {
		t.Fatalf("DefaultPageMap: %v", err)
	}
	if len(plan) != 2 || plan[0].TemplatePageIndex != 0 || plan[1].OverlayPageIndex != 1 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}
