package raster

import (
	"bytes"
	"image"
	"image/png"
)

// EncodePNG encodes img deterministically: Go's image/png encoder is a pure
// function of pixel data and CompressionLevel, so pinning the level
// explicitly (rather than leaving the zero value implicit) is the whole of
// what "byte-identical across runs" requires here — no timestamps or
// encoder-local randomness are in the format.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNGPages encodes every page result in order, matching spec.md
// §6.4's "optional per-page PNG octet streams, ordered".
func EncodePNGPages(results []PageResult) ([][]byte, error) {
	out := make([][]byte, len(results))
	for i, res := range results {
		b, err := EncodePNG(res.Image)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
