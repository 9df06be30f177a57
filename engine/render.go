package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/flow"
	"github.com/fullbleed/fullbleed/htmldom"
	"github.com/fullbleed/fullbleed/numeric"
	"github.com/fullbleed/fullbleed/paginate"
	"github.com/fullbleed/fullbleed/pdfwrite"
	"github.com/fullbleed/fullbleed/raster"
)

// Result is one Render call's output, per spec.md §6.4's surface: the PDF
// bytes, optional per-page PNGs, optional sidecar reports, and a digest so
// callers can cheaply detect a byte-identical re-render.
type Result struct {
	PDF          []byte
	PDFSHA256    string
	PageImages   [][]byte // PNG-encoded, nil unless Options.RasterDotsPerMM > 0
	Coverage     *raster.GlyphCoverageReport
	PageData     *paginate.AggregateContext
	JIT          *JITReport
	Perf         *PerfReport
	Diagnostics  []Diagnostic
	Counters     pdfwrite.Counters
}

// Render runs the full pipeline: forgiving HTML parse, cascade resolution,
// flow lowering, pagination, and PDF (plus optional raster) emission. It
// mirrors main.go's run() generalized from one fixed DSL source to the
// HTML+CSS input and builder-configured options spec.md §6 describes.
func Render(ctx context.Context, html, css string, assets *AssetRegistry, opts Options) (*Result, error) {
	if assets == nil {
		assets = NewAssetRegistry()
	}
	perf := newPerfRecorder(opts)
	jit := newJITRecorder(opts.JITMode)
	diag := newDiagnostics(opts)
	if opts.ColorSpace == ColorSpaceCMYK {
		diag.Add(KindKnownLoss, 0, "color_space cmyk requested but writer/rasterizer only model RGB; colors downgraded to RGB")
	}

	perf.start("parse")
	doc, err := htmldom.Parse(html)
	perf.end("parse")
	if err != nil {
		return nil, &InputError{Reason: "html parse failed: " + err.Error()}
	}
	for range doc.Warnings {
		// Ignored-content notes (link/style/script) surface as KnownLoss so
		// a caller that cares can inspect them; they never fail a render.
		diag.Add(KindKnownLoss, 0, "ignored HTML construct during parse")
	}

	perf.start("cascade")
	fullCSS := assets.ConcatenatedCSS() + "\n" + css
	sheet := cssom.ParseStylesheet(fullCSS)
	cascade := cssom.NewCascade(sheet)
	htmldom.ApplyCascade(doc.Root, cascade, nil)
	htmldom.SynthesizePseudoContent(doc.Root, cascade)
	for range cascade.Diagnostics() {
		diag.Add(KindKnownLoss, 0, "css cascade diagnostic")
	}
	perf.end("cascade")

	fontSource := func(family string, bold, italic bool) ([]byte, bool) {
		return assets.FontBytes(family)
	}
	measurer := newCanvasMeasurer(fontSource, "sans-serif", diag)

	perf.start("lower")
	jit.notePlan("document")
	root := flow.Build(doc.Root)
	perf.end("lower")

	pageSize := opts.resolvedPageSize()
	templates := buildPageTemplates(opts, pageSize)

	dt := paginate.NewDocTemplate(templates)
	dt.Aggregators = opts.PaginatedContext
	if root != nil {
		dt.AddFlowable(root)
	}
	for _, w := range opts.Watermarks {
		dt.Watermarks = append(dt.Watermarks, buildWatermark(w))
	}
	for _, h := range opts.Headers {
		dt.Headers = append(dt.Headers, buildHeaderFooter(h))
	}
	for _, f := range opts.Footers {
		dt.Footers = append(dt.Footers, buildHeaderFooter(f))
	}

	perf.start("paginate")
	jit.noteLayout("paginate")
	pdoc, err := dt.Build(measurer)
	perf.end("paginate")
	if err != nil {
		diag.Add(KindLayoutOverflow, 0, "pagination failed: %v", err)
		return nil, err
	}
	for range pdoc.Diagnostics {
		diag.Add(KindNonConvergence, 0, "pagination convergence diagnostic")
	}
	for _, e := range diag.All() {
		if e.Kind == KindFontSubstitution && diag.gateTrips(e.Kind) {
			return nil, &FailFastError{Diagnostic: e}
		}
	}

	if opts.MaxPages > 0 && len(pdoc.Pages) > opts.MaxPages {
		if err := diag.Add(KindBudget, 0, "page count %d exceeds max_pages %d", len(pdoc.Pages), opts.MaxPages); err != nil {
			return nil, err
		}
	}

	perf.start("paint")
	jit.notePaint("pdf")
	pages := make([]pdfwrite.Page, len(pdoc.Pages))
	rpages := make([]raster.Page, len(pdoc.Pages))
	for i, p := range pdoc.Pages {
		pages[i] = pdfwrite.Page{Size: p.Template.PageSize, Stream: p.Stream}
		rpages[i] = raster.Page{Size: p.Template.PageSize, Stream: p.Stream}
	}
	perf.end("paint")

	perf.start("serialize")
	wopts := pdfwrite.Options{
		Version:      opts.PDFVersion,
		Tagged:       opts.PDFProfile == ProfileTagged,
		Lang:         opts.DocumentLang,
		Title:        opts.DocumentTitle,
		ResolveFont:  fontResolverFor(opts),
		ResolveImage: imageResolverFor(assets),
	}
	if opts.OutputIntent != nil {
		wopts.OutputIntent = &pdfwrite.OutputIntent{
			NComponents: opts.OutputIntent.NComponents,
			Identifier:  opts.OutputIntent.Identifier,
			Info:        opts.OutputIntent.Info,
		}
		if data, ok := assets.ImageBytes(opts.OutputIntent.ICCProfilePath); ok {
			wopts.OutputIntent.ICCProfile = data
		}
	}
	pdfBytes, counters, err := pdfwrite.Write(ctx, pages, wopts)
	perf.end("serialize")
	if err != nil {
		return nil, err
	}
	if opts.MaxBytes > 0 && len(pdfBytes) > opts.MaxBytes {
		if err := diag.Add(KindBudget, 0, "pdf size %d bytes exceeds max_bytes %d", len(pdfBytes), opts.MaxBytes); err != nil {
			return nil, err
		}
	}

	sum := sha256.Sum256(pdfBytes)

	result := &Result{
		PDF:         pdfBytes,
		PDFSHA256:   hex.EncodeToString(sum[:]),
		PageData:    pdoc.Aggregates,
		JIT:         jit.report(),
		Perf:        perf.report(),
		Diagnostics: diag.All(),
		Counters:    counters,
	}

	if opts.RasterDotsPerMM > 0 {
		renderer := raster.NewRenderer(
			func(key string) ([]byte, bool, bool, bool) {
				data, ok := assets.FontBytes(key)
				return data, false, false, ok
			},
			func(key string) ([]byte, bool) { return assets.ImageBytes(key) },
			nil,
		)
		results, err := renderer.RenderPages(ctx, rpages, raster.Options{DotsPerMM: opts.RasterDotsPerMM})
		if err != nil {
			return nil, err
		}
		pngs, err := raster.EncodePNGPages(results)
		if err != nil {
			return nil, err
		}
		result.PageImages = pngs
		result.Coverage = raster.MergeCoverage(results)
		if !result.Coverage.Empty() {
			if err := diag.Add(KindGlyphCoverage, 0, "missing glyphs across %d font key(s)", len(result.Coverage.SortedFontKeys())); err != nil {
				return nil, err
			}
			result.Diagnostics = diag.All()
		}
	}

	return result, nil
}

func fontResolverFor(opts Options) pdfwrite.FontResolver {
	return func(fontKey string) string {
		return standardFontName(fontKey)
	}
}

// standardFontName maps a CSS font-family value onto the nearest PDF
// standard-14 BaseFont, the same fallback main.go's canvas renderer leaned
// on before any font is embedded.
func standardFontName(family string) string {
	switch family {
	case "serif", "Times New Roman", "Times":
		return "Times-Roman"
	case "monospace", "Courier New", "Courier":
		return "Courier"
	default:
		return "Helvetica"
	}
}

func imageResolverFor(assets *AssetRegistry) pdfwrite.ImageResolver {
	return func(imageKey string) (pdfwrite.ImageResource, bool) {
		data, ok := assets.ImageBytes(imageKey)
		if !ok {
			return pdfwrite.ImageResource{}, false
		}
		return decodeForEmbedding(data)
	}
}

func buildWatermark(w WatermarkOption) paginate.Watermark {
	style := cssom.DefaultComputedStyle()
	style.Font = cssom.Font{Family: []string{w.FontFamily}, Size: numeric.FromPoints(24)}
	style.Color = w.Color
	if w.Opacity > 0 {
		style.Opacity = w.Opacity
	}
	return paginate.Watermark{
		Layer:    w.Layer,
		Kind:     w.Kind,
		Semantic: w.Semantic,
		Content:  flow.NewParagraph(style, w.Text),
	}
}

// buildPageTemplates expands Options into paginate.PageTemplates: one per
// explicitly overridden page number in PageMargins, followed by one trailing
// template that paginate.SelectTemplate repeats for every page beyond the
// explicit list — matching MarginSchedule's "n means every remaining page"
// semantics without needing pagination itself to know about margin
// schedules. When PageMargins carries any override, its own Base field (not
// Margin) governs non-overridden pages; set PageMargins.Base == Margin when
// combining both.
func buildPageTemplates(opts Options, pageSize numeric.Size) []paginate.PageTemplate {
	frameFor := func(margin paginate.Margin) numeric.Rect {
		return numeric.Rect{
			X: margin.Left,
			Y: margin.Top,
			W: pageSize.W.Sub(margin.Left).Sub(margin.Right),
			H: pageSize.H.Sub(margin.Top).Sub(margin.Bottom),
		}
	}
	base := paginate.Margin{Top: opts.Margin.Top, Right: opts.Margin.Right, Bottom: opts.Margin.Bottom, Left: opts.Margin.Left}

	if len(opts.PageMargins.Overrides) == 0 {
		return []paginate.PageTemplate{
			paginate.NewPageTemplate("default", pageSize).WithFrame(frameFor(base)),
		}
	}

	maxExplicit := 0
	for key := range opts.PageMargins.Overrides {
		if n, ok := parsePositiveInt(key); ok && n > maxExplicit {
			maxExplicit = n
		}
	}

	var templates []paginate.PageTemplate
	for n := 1; n <= maxExplicit; n++ {
		margin := opts.PageMargins.Resolve(n)
		templates = append(templates, paginate.NewPageTemplate("default", pageSize).WithFrame(frameFor(margin)))
	}
	trailing := opts.PageMargins.Resolve(maxExplicit + 1)
	templates = append(templates, paginate.NewPageTemplate("default", pageSize).WithFrame(frameFor(trailing)))
	return templates
}

func parsePositiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

func buildHeaderFooter(h HeaderFooterOption) paginate.HeaderFooterSpec {
	return paginate.HeaderFooterSpec{
		Variant: h.Variant,
		Template: h.Template,
		Frame: numeric.Rect{X: h.X, Y: h.Y, W: h.Width, H: h.Height},
		Style: h.Style,
	}
}
