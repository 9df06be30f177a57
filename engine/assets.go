package engine

import (
	"fmt"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/fullbleed/fullbleed/pdfparse"
)

// AssetKind classifies a registered Asset, per spec.md §6.2.
type AssetKind int

const (
	AssetCSS AssetKind = iota
	AssetFont
	AssetImage
	AssetSVG
	AssetPDF
	AssetOther
)

func (k AssetKind) String() string {
	switch k {
	case AssetCSS:
		return "css"
	case AssetFont:
		return "font"
	case AssetImage:
		return "image"
	case AssetSVG:
		return "svg"
	case AssetPDF:
		return "pdf"
	default:
		return "other"
	}
}

// Asset is one input blob handed to a render: raw bytes plus the metadata
// needed to place it (its kind, a caller-chosen name used to reference it
// from CSS/templates, and whether it's trusted enough to run through
// XObject-form embedding rather than only raster fallback).
type Asset struct {
	Bytes   []byte
	Kind    AssetKind
	Name    string
	Trusted bool
}

// AssetRegistry accumulates Assets for one Render call, validating each on
// registration so a bad asset fails before layout starts rather than
// mid-page.
type AssetRegistry struct {
	byName map[string]Asset
	order  []string // registration order, for css concatenation
}

// NewAssetRegistry returns an empty registry ready for Register calls.
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{byName: map[string]Asset{}}
}

// Register validates and stores a, keyed by a.Name. A duplicate name is an
// InputError: fullbleed never silently shadows an earlier asset.
func (r *AssetRegistry) Register(a Asset) error {
	if a.Name == "" {
		return &InputError{Reason: "asset registered with empty name"}
	}
	if _, exists := r.byName[a.Name]; exists {
		return &InputError{Reason: fmt.Sprintf("duplicate asset name: %s", a.Name)}
	}
	if err := r.validate(a); err != nil {
		return err
	}
	r.byName[a.Name] = a
	r.order = append(r.order, a.Name)
	return nil
}

func (r *AssetRegistry) validate(a Asset) error {
	switch a.Kind {
	case AssetFont:
		return validateFontAsset(a)
	case AssetPDF:
		return validatePDFAsset(a)
	default:
		return nil
	}
}

// validateFontAsset requires the glyph table to parse at all; it does not
// require any particular glyph coverage, which is checked later against
// the text actually laid out.
func validateFontAsset(a Asset) error {
	family := canvas.NewFontFamily(a.Name)
	if err := family.LoadFont(a.Bytes, 0, canvas.FontRegular); err != nil {
		return &AssetError{Resource: a.Name, Reason: fmt.Sprintf("font glyph table failed to parse: %v", err)}
	}
	return nil
}

// validatePDFAsset requires the template PDF to parse, be unencrypted (a
// TemplateError pdfparse.ParseDocument already raises), and expose a
// resolvable page tree.
func validatePDFAsset(a Asset) error {
	doc, err := pdfparse.ParseDocument(a.Bytes)
	if err != nil {
		return err
	}
	pages, err := doc.Pages()
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return &pdfparse.TemplateError{Reason: fmt.Sprintf("template %q has no pages", a.Name)}
	}
	return nil
}

// Get returns the asset registered under name.
func (r *AssetRegistry) Get(name string) (Asset, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names returns every asset kind's names of the given kind, in
// registration order.
func (r *AssetRegistry) Names(kind AssetKind) []string {
	var out []string
	for _, name := range r.order {
		if r.byName[name].Kind == kind {
			out = append(out, name)
		}
	}
	return out
}

// ConcatenatedCSS concatenates every AssetCSS asset's bytes in registration
// order, separated by a newline, per spec.md §6.2's "CSS assets are
// concatenated in registration order" rule.
func (r *AssetRegistry) ConcatenatedCSS() string {
	var b strings.Builder
	for _, name := range r.Names(AssetCSS) {
		b.Write(r.byName[name].Bytes)
		b.WriteByte('\n')
	}
	return b.String()
}

// FontBytes resolves a font by name for use as a FontSource; bold/italic
// selection among multiple registered assets of the same family is the
// caller's responsibility via distinct asset names (e.g. "body-bold").
func (r *AssetRegistry) FontBytes(name string) ([]byte, bool) {
	a, ok := r.byName[name]
	if !ok || a.Kind != AssetFont {
		return nil, false
	}
	return a.Bytes, true
}

// ImageBytes resolves an image asset by name.
func (r *AssetRegistry) ImageBytes(name string) ([]byte, bool) {
	a, ok := r.byName[name]
	if !ok || (a.Kind != AssetImage && a.Kind != AssetSVG) {
		return nil, false
	}
	return a.Bytes, true
}
