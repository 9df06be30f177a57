package raster

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"image/color"

	"github.com/tdewolff/canvas"
)

// faceFor resolves (and caches) the canvas.FontFamily for fontKey, then
// derives a sized, colored FontFace from it. The family itself is built
// once per key and reused across every page a Renderer handles — font
// parsing (table decode) is the expensive step, not Face's per-call sizing.
func (r *Renderer) faceFor(fontKey string, sizePt float64, col color.Color) (*canvas.FontFace, bool) {
	family, bold, italic, ok := r.familyFor(fontKey)
	if !ok {
		return nil, false
	}
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	return family.Face(sizePt, col, style, canvas.FontNormal), true
}

func (r *Renderer) familyFor(fontKey string) (*canvas.FontFamily, bool, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fam, seen := r.families[fontKey]; seen {
		return fam, r.familyBold[fontKey], r.familyItalic[fontKey], r.familyOK[fontKey]
	}
	if r.fonts == nil {
		r.familyOK[fontKey] = false
		return nil, false, false, false
	}
	data, bold, italic, ok := r.fonts(fontKey)
	if !ok || len(data) == 0 {
		r.familyOK[fontKey] = false
		return nil, false, false, false
	}
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	if italic {
		style |= canvas.FontItalic
	}
	family := canvas.NewFontFamily(fontKey)
	if err := family.LoadFont(data, 0, style); err != nil {
		r.familyOK[fontKey] = false
		return nil, false, false, false
	}
	r.families[fontKey] = family
	r.familyBold[fontKey] = bold
	r.familyItalic[fontKey] = italic
	r.familyOK[fontKey] = true
	return family, bold, italic, true
}

// imageFor resolves (and caches) the decoded image for key.
func (r *Renderer) imageFor(key string) (image.Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if img, ok := r.decodedImgs[key]; ok {
		return img, img != nil
	}
	if r.images == nil {
		r.decodedImgs[key] = nil
		return nil, false
	}
	data, ok := r.images(key)
	if !ok || len(data) == 0 {
		r.decodedImgs[key] = nil
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		r.decodedImgs[key] = nil
		return nil, false
	}
	r.decodedImgs[key] = img
	return img, true
}
