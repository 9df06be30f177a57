package pdfparse

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
)

// Decode turns an ImageAsset into a Go image.Image: a baseline JPEG
// (DCTDecode) is handed to the standard library's decoder unchanged;
// everything else is this parser's own raw-sample unpacker, which only
// needs to understand the colorspace/bit-depth combinations pdfwrite's
// own Registry.Image ever writes — 8-bit DeviceRGB, DeviceGray, and
// DeviceCMYK, byte-aligned per scanline. CCITT/JPX-encoded images are out
// of scope per the baseline, and a vendored template using a more exotic
// encoding (indexed or other array color spaces except CalGray, sub-byte
// depths) surfaces as an AssetError rather than silently misrendering. A
// separate /SMask is not read: the base samples decode without their mask.
func (a ImageAsset) Decode() (image.Image, error) {
	if a.IsJPEG {
		img, err := jpeg.Decode(bytes.NewReader(a.Data))
		if err != nil {
			return nil, &AssetError{Resource: "image", Reason: "baseline JPEG decode failed: " + err.Error()}
		}
		return img, nil
	}
	if a.BitsPerComponent != 8 {
		return nil, &AssetError{Resource: "image", Reason: "unsupported bit depth (only 8-bit raw samples and DCTDecode are supported)"}
	}
	switch a.ColorSpace {
	case "DeviceRGB":
		return decodeRawRGB(a)
	case "DeviceGray", "CalGray":
		return decodeRawGray(a)
	case "DeviceCMYK":
		return decodeRawCMYK(a)
	default:
		return nil, &AssetError{Resource: "image", Reason: "unsupported colorspace " + a.ColorSpace}
	}
}

func decodeRawRGB(a ImageAsset) (image.Image, error) {
	stride := a.Width * 3
	if len(a.Data) < stride*a.Height {
		return nil, &AssetError{Resource: "image", Reason: "raw DeviceRGB sample data shorter than Width*Height*3"}
	}
	img := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	for y := 0; y < a.Height; y++ {
		row := a.Data[y*stride : (y+1)*stride]
		for x := 0; x < a.Width; x++ {
			r, g, b := row[x*3], row[x*3+1], row[x*3+2]
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img, nil
}

func decodeRawGray(a ImageAsset) (image.Image, error) {
	stride := a.Width
	if len(a.Data) < stride*a.Height {
		return nil, &AssetError{Resource: "image", Reason: "raw DeviceGray sample data shorter than Width*Height"}
	}
	img := image.NewGray(image.Rect(0, 0, a.Width, a.Height))
	copy(img.Pix, a.Data[:stride*a.Height])
	img.Stride = stride
	return img, nil
}

func decodeRawCMYK(a ImageAsset) (image.Image, error) {
	stride := a.Width * 4
	if len(a.Data) < stride*a.Height {
		return nil, &AssetError{Resource: "image", Reason: "raw DeviceCMYK sample data shorter than Width*Height*4"}
	}
	img := image.NewCMYK(image.Rect(0, 0, a.Width, a.Height))
	copy(img.Pix, a.Data[:stride*a.Height])
	img.Stride = stride
	return img, nil
}
