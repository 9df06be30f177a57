package pdfparse

import (
	"fmt"
)

type xobjectKindT int

const (
	xobjectNone xobjectKindT = iota
	xobjectImage
	xobjectForm
)

// xobjectKind resolves /Resources/XObject/<name> and reports whether it's
// an Image or Form XObject, returning the resolved stream object itself
// (so callers don't re-resolve it).
func (doc *Document) xobjectKind(res *Dict, name string) (xobjectKindT, Object, error) {
	if res == nil {
		return xobjectNone, Object{}, &AssetError{Resource: name, Reason: "no resource dictionary to resolve XObject against"}
	}
	xobjDictObj, ok := res.Get("XObject")
	if !ok {
		return xobjectNone, Object{}, &AssetError{Resource: name, Reason: "resources have no /XObject dictionary"}
	}
	xobjDict := doc.Deref(xobjDictObj)
	if xobjDict.Kind != KindDict {
		return xobjectNone, Object{}, &AssetError{Resource: name, Reason: "/XObject is not a dictionary"}
	}
	entryObj, ok := xobjDict.Dict.Get(name)
	if !ok {
		return xobjectNone, Object{}, &AssetError{Resource: name, Reason: "XObject not found in resources"}
	}
	entry := doc.Deref(entryObj)
	if entry.Kind != KindStream {
		return xobjectNone, Object{}, &AssetError{Resource: name, Reason: "XObject does not resolve to a stream"}
	}
	subtype, _ := entry.StreamDict.GetName("Subtype")
	switch subtype {
	case "Image":
		return xobjectImage, entry, nil
	case "Form":
		return xobjectForm, entry, nil
	default:
		return xobjectNone, entry, &AssetError{Resource: name, Reason: fmt.Sprintf("unsupported XObject subtype %q", subtype)}
	}
}

// resolveImage decodes (or returns the already-cached key for) an Image
// XObject stream, deduplicating by the stream dictionary's identity so a
// template that references the same image from several pages only decodes
// it once.
func (ctx *decodeContext) resolveImage(xobj Object) (string, error) {
	if key, ok := ctx.imageName[xobj.StreamDict]; ok {
		return key, nil
	}
	width, _ := xobj.StreamDict.GetInt("Width")
	height, _ := xobj.StreamDict.GetInt("Height")
	bpc, ok := xobj.StreamDict.GetInt("BitsPerComponent")
	if !ok {
		bpc = 8
	}
	colorSpace := "DeviceRGB"
	if csObj, ok := xobj.StreamDict.Get("ColorSpace"); ok {
		cs := ctx.doc.Deref(csObj)
		switch {
		case cs.Kind == KindName:
			colorSpace = cs.Name
		case cs.Kind == KindArray && len(cs.Array) > 0 && cs.Array[0].Kind == KindName:
			colorSpace = cs.Array[0].Name // family name, e.g. Indexed, CalGray, ICCBased
		}
	}
	isJPEG := StreamFilterName(xobj.StreamDict) == "DCTDecode" || StreamFilterName(xobj.StreamDict) == "DCT"

	ctx.imageCount++
	key := fmt.Sprintf("Im%d", ctx.imageCount)
	ctx.imageName[xobj.StreamDict] = key
	ctx.images[key] = ImageAsset{
		Data:             xobj.StreamRaw,
		IsJPEG:           isJPEG,
		Width:            int(width),
		Height:           int(height),
		BitsPerComponent: int(bpc),
		ColorSpace:       colorSpace,
	}
	return key, nil
}

// resolveForm recursively decodes a Form XObject's own content stream into
// a sub-stream recorded in ctx.forms, returning its stable key. fallbackRes
// supplies a resource dictionary when the form's own /Resources entry is
// absent, which PDF tolerates by falling back to whatever resources were
// in scope at the point of reference.
func (ctx *decodeContext) resolveForm(xobj Object, fallbackRes *Dict) (string, error) {
	if key, ok := ctx.formName[xobj.StreamDict]; ok {
		return key, nil
	}
	if ctx.seenForms[xobj.StreamDict] {
		return "", &TemplateError{Reason: "cyclic Form XObject reference"}
	}
	ctx.seenForms[xobj.StreamDict] = true

	formRes := fallbackRes
	if resObj, ok := xobj.StreamDict.Get("Resources"); ok {
		resolved := ctx.doc.Deref(resObj)
		if resolved.Kind == KindDict {
			formRes = resolved.Dict
		}
	}

	ctx.formCount++
	key := fmt.Sprintf("Fm%d", ctx.formCount)
	ctx.formName[xobj.StreamDict] = key

	sub, err := ctx.decodeContent(xobj.StreamRaw, formRes)
	if err != nil {
		return "", fmt.Errorf("pdfparse: decoding Form XObject: %w", err)
	}
	ctx.forms[key] = sub
	return key, nil
}
