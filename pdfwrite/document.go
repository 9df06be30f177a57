package pdfwrite

import (
	"context"
	"fmt"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/numeric"
)

// Page is one page's already-composed command stream (paginate's finalize
// pass output) plus its physical size.
type Page struct {
	Size   numeric.Size
	Stream *canvasstream.Stream
}

// OutputIntent carries an ICC profile for PDF/X-4-like color management,
// per spec.md 4.7's "Metadata" clause.
type OutputIntent struct {
	ICCProfile      []byte
	NComponents     int
	Identifier      string
	Info            string
}

// Options configures document-level PDF emission.
type Options struct {
	Version      Version
	Tagged       bool // emit a minimal StructTreeRoot + /MarkInfo
	Lang         string
	Title        string
	OutputIntent *OutputIntent
	ResolveFont  FontResolver
	ResolveImage ImageResolver
	ResolveForm  FormResolver
}

// Counters reports the byte-accounting metrics spec.md 4.7 calls for.
type Counters struct {
	RawBytes        int
	EncodedBytes    int
	ObjectCount     int
	PageCount       int
}

// Write renders pages into a complete PDF byte stream. Object numbering
// order is fixed: Catalog, Pages, Resources, then each page's content and
// page-dict objects in page order, then every registered font/image/form/
// ExtGState object in first-reference order, then (if Tagged) the
// structure tree — a single deterministic traversal for any given input,
// satisfying spec.md 4.7's numbering invariant.
func Write(ctx context.Context, pages []Page, opts Options) ([]byte, Counters, error) {
	reg := NewRegistry()
	contents := make([]string, len(pages))
	rawTotal := 0
	for i, p := range pages {
		contents[i] = FlattenContent(p.Stream, reg, opts.ResolveFont, opts.ResolveImage, opts.ResolveForm)
		rawTotal += len(contents[i])
	}

	w := NewWriter(opts.Version)
	catalogID := w.AllocID()
	pagesID := w.AllocID()
	resourcesID := w.AllocID()

	pageIDs := make([]int, len(pages))
	encodedTotal := 0
	for i, p := range pages {
		contentID := w.AllocID()
		pageID := w.AllocID()
		pageIDs[i] = pageID

		streamDict := NewDict()
		if err := w.SetStream(ctx, contentID, streamDict, []byte(contents[i])); err != nil {
			return nil, Counters{}, err
		}

		pageDict := NewDict()
		pageDict.SetName("Type", "Page")
		pageDict.SetRef("Parent", pagesID)
		pageDict.Set("MediaBox", Array("0", "0", FormatNumber(p.Size.W.Points()), FormatNumber(p.Size.H.Points())))
		pageDict.SetRef("Resources", resourcesID)
		pageDict.SetRef("Contents", contentID)
		if opts.Tagged {
			pageDict.SetInt("StructParents", i)
			pageDict.Set("Tabs", "/S")
		}
		w.SetObject(pageID, pageDict.String())
	}

	fontIDs := make([]int, len(reg.fonts))
	for i, f := range reg.fonts {
		id := w.AllocID()
		fontIDs[i] = id
		w.SetObject(id, fontObjectBody(f))
	}
	imageIDs := make([]int, len(reg.images))
	for i, img := range reg.images {
		id := w.AllocID()
		imageIDs[i] = id
		if err := w.SetStream(ctx, id, imageDict(img), img.Data); err != nil {
			return nil, Counters{}, err
		}
	}
	formIDs := make([]int, len(reg.forms))
	for i, f := range reg.forms {
		id := w.AllocID()
		formIDs[i] = id
		if err := w.SetStream(ctx, id, formDict(f), f.Content); err != nil {
			return nil, Counters{}, err
		}
	}
	gsIDs := make([]int, len(reg.extGStates))
	for i, opacity := range reg.extGStates {
		id := w.AllocID()
		gsIDs[i] = id
		w.SetObject(id, extGStateBody(opacity))
	}

	resDict := NewDict()
	if len(reg.fonts) > 0 {
		fontDict := NewDict()
		for i := range reg.fonts {
			fontDict.SetRef(fmt.Sprintf("F%d", i+1), fontIDs[i])
		}
		resDict.Set("Font", fontDict.String())
	}
	if len(reg.images) > 0 || len(reg.forms) > 0 {
		xDict := NewDict()
		for i := range reg.images {
			xDict.SetRef(fmt.Sprintf("Im%d", i+1), imageIDs[i])
		}
		for i := range reg.forms {
			xDict.SetRef(fmt.Sprintf("Fm%d", i+1), formIDs[i])
		}
		resDict.Set("XObject", xDict.String())
	}
	if len(reg.extGStates) > 0 {
		gsDict := NewDict()
		for i := range reg.extGStates {
			gsDict.SetRef(fmt.Sprintf("GS%d", i+1), gsIDs[i])
		}
		resDict.Set("ExtGState", gsDict.String())
	}
	w.SetObject(resourcesID, resDict.String())

	kids := make([]string, len(pageIDs))
	for i, id := range pageIDs {
		kids[i] = Ref(id)
	}
	pagesDict := NewDict()
	pagesDict.SetName("Type", "Pages")
	pagesDict.Set("Kids", Array(kids...))
	pagesDict.SetInt("Count", len(pageIDs))
	w.SetObject(pagesID, pagesDict.String())

	catalog := NewDict()
	catalog.SetName("Type", "Catalog")
	catalog.SetRef("Pages", pagesID)
	if opts.Lang != "" {
		catalog.Set("Lang", FormatString(opts.Lang))
	}

	var structRootID int
	if opts.Tagged {
		structRootID = w.AllocID()
		structDict := NewDict()
		structDict.SetName("Type", "StructTreeRoot")
		structDict.Set("K", Array())
		w.SetObject(structRootID, structDict.String())
		catalog.SetRef("StructTreeRoot", structRootID)
		markInfo := NewDict()
		markInfo.SetBool("Marked", true)
		catalog.Set("MarkInfo", markInfo.String())
	}

	var oiID int
	if opts.OutputIntent != nil {
		oiID = w.AllocID()
		iccID := w.AllocID()
		iccDict := NewDict()
		iccDict.SetInt("N", opts.OutputIntent.NComponents)
		if err := w.SetStream(ctx, iccID, iccDict, opts.OutputIntent.ICCProfile); err != nil {
			return nil, Counters{}, err
		}
		oiDict := NewDict()
		oiDict.SetName("Type", "OutputIntent")
		oiDict.SetName("S", "GTS_PDFX")
		oiDict.Set("OutputConditionIdentifier", FormatString(opts.OutputIntent.Identifier))
		if opts.OutputIntent.Info != "" {
			oiDict.Set("Info", FormatString(opts.OutputIntent.Info))
		}
		oiDict.SetRef("DestOutputProfile", iccID)
		w.SetObject(oiID, oiDict.String())
		catalog.Set("OutputIntents", Array(Ref(oiID)))
	}
	w.SetObject(catalogID, catalog.String())

	var infoID int
	if opts.Title != "" {
		infoID = w.AllocID()
		infoDict := NewDict()
		infoDict.Set("Title", FormatString(opts.Title))
		w.SetObject(infoID, infoDict.String())
	}

	out, err := w.Write(catalogID, infoID)
	if err != nil {
		return nil, Counters{}, err
	}
	encodedTotal = len(out)

	return out, Counters{
		RawBytes:     rawTotal,
		EncodedBytes: encodedTotal,
		ObjectCount:  len(w.order),
		PageCount:    len(pages),
	}, nil
}

func fontObjectBody(f FontResource) string {
	d := NewDict()
	d.SetName("Type", "Font")
	if len(f.Embedded) == 0 {
		d.SetName("Subtype", "Type1")
		d.SetName("BaseFont", f.BaseFont)
		d.SetName("Encoding", "WinAnsiEncoding")
		return d.String()
	}
	d.SetName("Subtype", "TrueType")
	d.SetName("BaseFont", f.BaseFont)
	d.SetName("Encoding", "WinAnsiEncoding")
	return d.String()
}

func imageDict(img ImageResource) *Dict {
	d := NewDict()
	d.SetName("Type", "XObject")
	d.SetName("Subtype", "Image")
	d.SetInt("Width", img.Width)
	d.SetInt("Height", img.Height)
	d.SetName("ColorSpace", img.ColorSpace)
	bpc := img.BitsPerComponent
	if bpc == 0 {
		bpc = 8
	}
	d.SetInt("BitsPerComponent", bpc)
	return d
}

func formDict(f FormResource) *Dict {
	d := NewDict()
	d.SetName("Type", "XObject")
	d.SetName("Subtype", "Form")
	bbox := f.BBox
	d.Set("BBox", Array(FormatNumber(bbox[0]), FormatNumber(bbox[1]), FormatNumber(bbox[2]), FormatNumber(bbox[3])))
	if f.Matrix != [6]float64{} {
		m := f.Matrix
		d.Set("Matrix", Array(FormatNumber(m[0]), FormatNumber(m[1]), FormatNumber(m[2]), FormatNumber(m[3]), FormatNumber(m[4]), FormatNumber(m[5])))
	}
	return d
}

func extGStateBody(opacity float64) string {
	d := NewDict()
	d.SetName("Type", "ExtGState")
	d.Set("ca", FormatNumber(opacity))
	d.Set("CA", FormatNumber(opacity))
	return d.String()
}
