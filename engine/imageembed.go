package engine

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fullbleed/fullbleed/pdfwrite"
)

// decodeForEmbedding decodes an arbitrary registered image asset (PNG,
// JPEG, GIF — whatever the stdlib's image.Decode recognizes) into the raw
// 8-bit DeviceRGB sample layout pdfwrite.ImageResource expects; pdfwrite's
// object writer applies its own FlateDecode to whatever bytes it's handed,
// so there's no benefit to keeping a source-encoded (e.g. already-JPEG)
// byte stream around here.
func decodeForEmbedding(data []byte) (pdfwrite.ImageResource, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return pdfwrite.ImageResource{}, false
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return pdfwrite.ImageResource{}, false
	}
	raw := make([]byte, w*h*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			raw[i] = byte(r >> 8)
			raw[i+1] = byte(g >> 8)
			raw[i+2] = byte(b >> 8)
			i += 3
		}
	}
	return pdfwrite.ImageResource{
		Data:             raw,
		Width:            w,
		Height:           h,
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
	}, true
}
