package engine

import (
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"

	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// FontSource resolves a font family name (as named in CSS font-family) plus
// a bold/italic pair to the raw font bytes to load, mirroring the
// raster.Renderer's fonts callback so both the layout and paint stages
// agree on what "the bold Helvetica" means.
type FontSource func(family string, bold, italic bool) ([]byte, bool)

// canvasMeasurer is the flow.Measurer backing Render: it resolves
// cssom.Font to a tdewolff/canvas font family/face pair and reports widths
// and line metrics in fixed-point numeric.Length, converting from canvas's
// millimeter-based API the same way raster's painter does when it sizes
// glyphs for drawing.
type canvasMeasurer struct {
	fonts FontSource

	mu       sync.Mutex
	families map[string]*canvas.FontFamily
	failed   map[string]bool

	fallbackFamily string
	diag           *Diagnostics
}

func newCanvasMeasurer(fonts FontSource, fallbackFamily string, diag *Diagnostics) *canvasMeasurer {
	return &canvasMeasurer{
		fonts:          fonts,
		families:       map[string]*canvas.FontFamily{},
		failed:         map[string]bool{},
		fallbackFamily: fallbackFamily,
		diag:           diag,
	}
}

func familyKey(name string, bold, italic bool) string {
	key := name
	if bold {
		key += "|b"
	}
	if italic {
		key += "|i"
	}
	return key
}

func fontStyleOf(font cssom.Font) (bold, italic bool) {
	return font.Weight >= 600, font.Style != cssom.FontStyleNormal
}

// faceFor resolves and caches the canvas.FontFace for font, trying each
// family name in font.Family in order before falling back to
// m.fallbackFamily, matching CSS font-family's fallback-list semantics.
func (m *canvasMeasurer) faceFor(font cssom.Font) (*canvas.FontFace, bool) {
	bold, italic := fontStyleOf(font)
	names := font.Family
	if len(names) == 0 {
		names = []string{m.fallbackFamily}
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if family, ok := m.familyFor(name, bold, italic); ok {
			return m.faceAt(family, font, bold, italic), true
		}
	}
	if m.fallbackFamily != "" {
		if family, ok := m.familyFor(m.fallbackFamily, bold, italic); ok {
			if m.diag != nil {
				m.diag.Add(KindFontSubstitution, 0, "font family %v not available, substituted %q", font.Family, m.fallbackFamily)
			}
			return m.faceAt(family, font, bold, italic), true
		}
	}
	return nil, false
}

func (m *canvasMeasurer) faceAt(family *canvas.FontFamily, font cssom.Font, bold, italic bool) *canvas.FontFace {
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	return family.Face(font.Size.Points(), color.Black, style, canvas.FontNormal)
}

func (m *canvasMeasurer) familyFor(name string, bold, italic bool) (*canvas.FontFamily, bool) {
	key := familyKey(name, bold, italic)

	m.mu.Lock()
	if fam, ok := m.families[key]; ok {
		m.mu.Unlock()
		return fam, true
	}
	if m.failed[key] {
		m.mu.Unlock()
		return nil, false
	}
	m.mu.Unlock()

	if m.fonts == nil {
		m.markFailed(key)
		return nil, false
	}
	data, ok := m.fonts(name, bold, italic)
	if !ok || len(data) == 0 {
		m.markFailed(key)
		return nil, false
	}

	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, style); err != nil {
		if m.diag != nil {
			m.diag.Add(KindAssetError, 0, "font %q failed to load: %v", name, err)
		}
		m.markFailed(key)
		return nil, false
	}

	m.mu.Lock()
	m.families[key] = family
	m.mu.Unlock()
	return family, true
}

func (m *canvasMeasurer) markFailed(key string) {
	m.mu.Lock()
	m.failed[key] = true
	m.mu.Unlock()
}

func (m *canvasMeasurer) MeasureText(font cssom.Font, text string) numeric.Length {
	face, ok := m.faceFor(font)
	if !ok {
		return estimateWidth(font, text)
	}
	return numeric.FromMillimeters(face.TextWidth(text))
}

func (m *canvasMeasurer) LineHeight(font cssom.Font) numeric.Length {
	face, ok := m.faceFor(font)
	if !ok {
		return font.Size.MulScalar(1.2) // CSS's normal line-height default
	}
	return numeric.FromMillimeters(face.Metrics().LineHeight)
}

func (m *canvasMeasurer) Ascent(font cssom.Font) numeric.Length {
	face, ok := m.faceFor(font)
	if !ok {
		return font.Size.MulScalar(0.8)
	}
	return numeric.FromMillimeters(face.Metrics().Ascent)
}

// estimateWidth is the no-font-available fallback: a fixed per-character
// advance at 0.6em, used only when neither the requested family nor the
// fallback family could be loaded at all (missing assets, not missing
// glyphs — FontCoverage tracking happens at paint time against the glyphs
// the face actually contains).
func estimateWidth(font cssom.Font, text string) numeric.Length {
	advance := font.Size.MulScalar(0.6)
	return advance.MulScalar(float64(len([]rune(text))))
}
