package pdfwrite

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ResourceKind distinguishes the PDF resource-dictionary sub-category a
// registered resource belongs to.
type ResourceKind int

const (
	ResourceFont ResourceKind = iota
	ResourceImage
	ResourceForm
	ResourceExtGState
	ResourceShading
)

// FontResource describes one font as used in content streams: its logical
// key (the canvasstream FontKey), the PDF BaseFont name it maps to, and an
// optional embedded TrueType program (nil selects a standard-14 font,
// which needs no embedded FontFile and always resolves at any renderer).
type FontResource struct {
	Key       string
	BaseFont  string
	Embedded  []byte
	Bold      bool
	Italic    bool
}

// ImageResource is raw, already-decoded image data ready for an XObject.
type ImageResource struct {
	Data       []byte // content-hash key: identical bytes always dedup
	Width      int
	Height     int
	ColorSpace string // DeviceRGB, DeviceGray, DeviceCMYK
	BitsPerComponent int
	SMask      []byte // optional separate alpha channel, 8-bit gray
}

// FormResource is a pre-flattened Form XObject content stream plus its
// bounding box and form matrix.
type FormResource struct {
	Content []byte
	BBox    [4]float64
	Matrix  [6]float64
}

// Registry deduplicates resources by stable content key and assigns PDF
// resource names (/F1, /Im1, /Fm1, /GS1, ...) in first-reference
// order, per spec.md 4.7's "Resource deduplication" rule: "Ordering is
// fully determined by first-reference order across pages in page order."
// Callers must process pages in order and call Font/Image/Form/ExtGState while flattening
// each page's content stream so that order is preserved.
type Registry struct {
	fonts      []FontResource
	fontByKey  map[string]string // logical font key -> resource name

	images     []ImageResource
	imageName  map[string]string // content hash -> resource name

	forms      []FormResource
	formName   map[string]string

	extGStates []float64 // opacity values
	gsName     map[string]string

	nextFont, nextImage, nextForm, nextGS int
}

// NewRegistry returns an empty resource registry.
func NewRegistry() *Registry {
	return &Registry{
		fontByKey: map[string]string{},
		imageName: map[string]string{},
		formName:  map[string]string{},
		gsName:    map[string]string{},
	}
}

// Font returns the resource name for logical key, registering it with
// baseFont on first reference.
func (r *Registry) Font(key, baseFont string) string {
	if name, ok := r.fontByKey[key]; ok {
		return name
	}
	r.nextFont++
	name := fmt.Sprintf("F%d", r.nextFont)
	r.fontByKey[key] = name
	r.fonts = append(r.fonts, FontResource{Key: key, BaseFont: baseFont})
	return name
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Image registers image bytes, deduplicating by content hash, and returns
// its resource name.
func (r *Registry) Image(img ImageResource) string {
	key := contentHash(img.Data)
	if name, ok := r.imageName[key]; ok {
		return name
	}
	r.nextImage++
	name := fmt.Sprintf("Im%d", r.nextImage)
	r.imageName[key] = name
	r.images = append(r.images, img)
	return name
}

// Form registers a Form XObject, deduplicating by its flattened content
// bytes, and returns its resource name.
func (r *Registry) Form(f FormResource) string {
	key := contentHash(f.Content)
	if name, ok := r.formName[key]; ok {
		return name
	}
	r.nextForm++
	name := fmt.Sprintf("Fm%d", r.nextForm)
	r.formName[key] = name
	r.forms = append(r.forms, f)
	return name
}

// ExtGState registers a constant-alpha graphics state, deduplicating by
// the opacity value, and returns its resource name.
func (r *Registry) ExtGState(opacity float64) string {
	key := FormatNumber(opacity)
	if name, ok := r.gsName[key]; ok {
		return name
	}
	r.nextGS++
	name := fmt.Sprintf("GS%d", r.nextGS)
	r.gsName[key] = name
	r.extGStates = append(r.extGStates, opacity)
	return name
}
