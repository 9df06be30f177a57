// Package engine wires the pipeline stages (C2 through C10) behind the
// builder/asset/diagnostics surface spec.md §6 describes, the way
// main.go's run() strings the teacher's parse/layout/render stages
// together — generalized from one fixed DSL-to-PDF path into a
// configurable HTML+CSS render with batch and diagnostics support.
package engine

import (
	"go.uber.org/zap"

	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
	"github.com/fullbleed/fullbleed/paginate"
	"github.com/fullbleed/fullbleed/pdfwrite"
)

// PDFProfile selects the catalog-level conformance features a render emits.
type PDFProfile int

const (
	ProfileNone PDFProfile = iota
	ProfileTagged
	ProfilePDFX4Like
)

// ColorSpace selects the default color interpretation for unspecified
// colors; both PDF writer and rasterizer currently only model RGB, so
// ColorSpaceCMYK is accepted but downgrades to RGB with a KnownLoss
// diagnostic rather than silently misrendering.
type ColorSpace int

const (
	ColorSpaceRGB ColorSpace = iota
	ColorSpaceCMYK
)

// JITMode selects how much per-flowable timing/cache detail the JIT
// recorder captures, per spec.md §6.1's jit_mode.
type JITMode int

const (
	JITOff JITMode = iota
	JITPlan
	JITLayout
	JITPaint
)

// OutputIntent carries an ICC profile for a pdfx4-like PDFProfile, mirroring
// pdfwrite.OutputIntent.
type OutputIntent struct {
	ICCProfilePath string
	Identifier     string
	Info           string
	NComponents    int
}

// HeaderFooterOption configures one header or footer variant from the
// builder surface, resolved into a paginate.HeaderFooterSpec once the page
// size is known.
type HeaderFooterOption struct {
	Variant  paginate.HeaderFooterVariant
	Template string
	X, Y     numeric.Length
	Width, Height numeric.Length
	Style    cssom.ComputedStyle
}

// WatermarkOption configures one watermark layer from the builder surface,
// before its Content flowable is built.
type WatermarkOption struct {
	Layer    paginate.WatermarkLayer
	Kind     paginate.WatermarkKind
	Semantic paginate.WatermarkSemantic
	Text     string
	Opacity  float64
	RotationDegrees float64
	FontFamily string
	Color      cssom.RGBA
}

// Options configures one Render call, mirroring spec.md §6.1's builder
// surface field for field.
type Options struct {
	PageWidth, PageHeight numeric.Length
	Margin                cssom.BoxSides
	// PageMargins overrides Margin on a per-page-number basis, keyed "1",
	// "2", ... with "n" meaning every page beyond the explicit keys.
	PageMargins paginate.MarginSchedule

	ReuseXObjects      bool
	SVGFormXObjects    bool
	SVGRasterFallback  bool

	UnicodeSupport bool
	ShapeText      bool
	UnicodeMetrics bool

	PDFVersion pdfwrite.Version
	PDFProfile PDFProfile
	ColorSpace ColorSpace

	OutputIntent *OutputIntent

	DocumentLang  string
	DocumentTitle string

	Headers []HeaderFooterOption
	Footers []HeaderFooterOption

	PaginatedContext paginate.AggregatorSpec

	Watermarks []WatermarkOption

	JITMode JITMode
	Debug, DebugOut string
	Perf, PerfOut   string

	// RasterDotsPerMM, when > 0, additionally rasterizes every page to PNG
	// per spec.md §6.4's "optional per-page PNG octet streams".
	RasterDotsPerMM float64

	// FailFast gates a render to return an error on the first occurrence
	// of any listed diagnostic kind instead of only accumulating it,
	// per spec.md §7's gating policy.
	FailFastOverflow     bool
	FailFastMissingGlyph bool
	FailFastFontSubst    bool
	FailFastBudget       bool
	// AllowFallbacks keeps missing-glyph/font-subst diagnostics
	// informational even under FailFast*, per spec.md §7.
	AllowFallbacks bool

	// MaxPages and MaxBytes are Budget diagnostic thresholds that Render
	// checks against the page count and the PDF size; zero means unbounded.
	// MaxMillis is carried on Options but Render does not check it.
	MaxPages int
	MaxBytes int
	MaxMillis int64

	// Logger receives one structured log entry per Diagnostic as it's
	// raised, in addition to the Diagnostics slice returned in Result.
	// Nil (the default) disables logging entirely.
	Logger *zap.Logger
}

// resolvedPageSize returns the configured page size, substituting US
// Letter (612x792pt) for whichever of PageWidth/PageHeight is zero.
func (o Options) resolvedPageSize() numeric.Size {
	w, h := o.PageWidth, o.PageHeight
	if w == 0 {
		w = numeric.FromPoints(612)
	}
	if h == 0 {
		h = numeric.FromPoints(792)
	}
	return numeric.Size{W: w, H: h}
}
