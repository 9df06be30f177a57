// Package raster renders a command stream (canvasstream.Stream) to a pixmap
// at a target resolution, for PDF preview and template-composition workflows.
// It paints with tdewolff/canvas and consumes the same Command log as
// pdfwrite's content-stream serializer, so both backends take identical
// input.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// mmPerPt converts PDF points (the unit canvasstream coordinates are
// expressed in once float64-ified) to millimeters, the unit tdewolff/canvas
// itself works in.
const mmPerPt = 25.4 / 72

// Page is one page's command stream plus its physical size, the same shape
// pdfwrite.Page carries so both backends consume identical input.
type Page struct {
	Size   numeric.Size
	Stream *canvasstream.Stream
}

// FontSource resolves a canvasstream font key to an embedded TrueType/
// OpenType font program. ok is false when no font bytes are registered for
// that key; the rasterizer then records a GlyphCoverage diagnostic instead
// of fabricating placeholder glyphs, since canvas.FontFamily has no
// built-in standard-14 outlines the way a PDF viewer does.
type FontSource func(fontKey string) (data []byte, bold, italic bool, ok bool)

// ImageSource resolves a canvasstream image key to decodable image bytes.
type ImageSource func(imageKey string) (data []byte, ok bool)

// FormSource resolves a canvasstream form key to the Form XObject's own
// command stream, played back recursively under the invoking transform.
type FormSource func(formKey string) (*canvasstream.Stream, bool)

// Options configures one render pass.
type Options struct {
	// DotsPerMM is the target raster resolution, dots per millimeter.
	// 1 dot/mm ≈ 25.4 DPI; callers typically derive this from a DPI config
	// value via DotsPerMM = dpi / 25.4.
	DotsPerMM float64
	// Background fills the page before painting; nil defaults to opaque
	// white, matching a printed page.
	Background color.Color
}

// GlyphCoverageReport records, per font key, the runes a ShowText call
// could not paint because no font was resolved for that key.
type GlyphCoverageReport struct {
	Missing map[string]map[rune]bool
}

func newGlyphCoverageReport() *GlyphCoverageReport {
	return &GlyphCoverageReport{Missing: map[string]map[rune]bool{}}
}

func (g *GlyphCoverageReport) record(fontKey, text string) {
	set := g.Missing[fontKey]
	if set == nil {
		set = map[rune]bool{}
		g.Missing[fontKey] = set
	}
	for _, r := range text {
		set[r] = true
	}
}

// Empty reports whether no missing glyphs were recorded.
func (g *GlyphCoverageReport) Empty() bool {
	for _, set := range g.Missing {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

// SortedFontKeys returns the font keys with missing-glyph entries, sorted,
// for stable diagnostic output.
func (g *GlyphCoverageReport) SortedFontKeys() []string {
	keys := make([]string, 0, len(g.Missing))
	for k, set := range g.Missing {
		if len(set) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Renderer owns the read-mostly font/image caches shared across a batch of
// page renders, per spec's "font face data and glyph outlines are shared
// read-only across raster page workers" resource model: caches are built
// insert-only during a render and never mutated concurrently for the same
// key (sync.Mutex guards first-insert races only).
type Renderer struct {
	fonts  FontSource
	images ImageSource
	forms  FormSource

	mu            sync.Mutex
	families      map[string]*canvas.FontFamily
	familyOK      map[string]bool
	familyBold    map[string]bool
	familyItalic  map[string]bool
	decodedImgs   map[string]image.Image
}

// NewRenderer builds a Renderer backed by the given resolvers. Any resolver
// may be nil, in which case that resource kind always misses.
func NewRenderer(fonts FontSource, images ImageSource, forms FormSource) *Renderer {
	return &Renderer{
		fonts:        fonts,
		images:       images,
		forms:        forms,
		families:     map[string]*canvas.FontFamily{},
		familyOK:     map[string]bool{},
		familyBold:   map[string]bool{},
		familyItalic: map[string]bool{},
		decodedImgs:  map[string]image.Image{},
	}
}

// RenderPage rasterizes one page to an RGBA pixmap. The returned
// GlyphCoverageReport is always non-nil, empty when every text run resolved
// a font.
func (r *Renderer) RenderPage(ctx context.Context, page Page, opts Options) (*image.RGBA, *GlyphCoverageReport, error) {
	if opts.DotsPerMM <= 0 {
		return nil, nil, fmt.Errorf("raster: DotsPerMM must be positive, got %v", opts.DotsPerMM)
	}
	if page.Stream == nil {
		return nil, nil, fmt.Errorf("raster: page has a nil command stream")
	}

	widthMM := page.Size.W.Millimeters()
	heightMM := page.Size.H.Millimeters()
	c := canvas.New(widthMM, heightMM)
	cc := canvas.NewContext(c)
	cc.SetCoordSystem(canvas.CartesianIV)

	bg := opts.Background
	if bg == nil {
		bg = canvas.White
	}
	cc.SetFillColor(bg)
	cc.SetStrokeColor(color.Transparent)
	cc.DrawPath(0, 0, canvas.Rectangle(widthMM, heightMM))

	report := newGlyphCoverageReport()
	w := &walker{r: r, cc: cc, report: report}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	w.run(page.Stream, numeric.Identity(), drawState{fill: cssom.Opaque(0, 0, 0), stroke: cssom.Opaque(0, 0, 0), opacity: 1})

	img := rasterizer.Draw(c, canvas.DPMM(opts.DotsPerMM), canvas.DefaultColorSpace)
	return img, report, nil
}
