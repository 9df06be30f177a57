package pdfparse

import (
	"fmt"
	"io"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// ImageAsset is one decoded Image XObject: either raw, filter-decoded
// sample bytes (FlateDecode case) or an untouched baseline-JPEG payload
// (DCTDecode case, decoded by image/jpeg at raster/compose time).
type ImageAsset struct {
	Data             []byte
	IsJPEG           bool
	Width, Height    int
	BitsPerComponent int
	ColorSpace       string
}

// decodeContext is shared by a page's top-level decode and every Form
// XObject it (recursively) references, so form/image resource keys stay
// unique across a whole page rather than just within one content stream.
type decodeContext struct {
	doc        *Document
	forms      map[string]*canvasstream.Stream
	images     map[string]ImageAsset
	formName   map[*Dict]string // xobject stream dict -> assigned FormKey, for dedup across references
	imageName  map[*Dict]string
	formCount  int
	imageCount int
	seenForms  map[*Dict]bool
}

// DecodePage tokenizes one page's content stream into a command stream,
// recursively resolving every Form XObject it references into its own
// entry in the returned forms map (keyed the way canvasstream's
// OpDrawForm.FormKey and raster.FormSource/pdfwrite.Registry.Form expect),
// and every Image XObject into the returned images map.
func (doc *Document) DecodePage(page ParsedPage) (*canvasstream.Stream, map[string]*canvasstream.Stream, map[string]ImageAsset, error) {
	ctx := &decodeContext{
		doc:       doc,
		forms:     map[string]*canvasstream.Stream{},
		images:    map[string]ImageAsset{},
		formName:  map[*Dict]string{},
		imageName: map[*Dict]string{},
		seenForms: map[*Dict]bool{},
	}
	s, err := ctx.decodeContent(page.Content, page.Resources)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, ctx.forms, ctx.images, nil
}

// token is one lexical item from a content stream: either an operand
// (isOp == false) or an operator keyword.
type token struct {
	isOp bool
	op   string
	obj  Object
}

func tokenizeContent(content []byte, resolve resolver) ([]token, error) {
	p := &parser{data: content, resolve: resolve}
	var toks []token
	for {
		operand, opName, isOp, err := readContentToken(p)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isOp {
			toks = append(toks, token{isOp: true, op: opName})
		} else {
			toks = append(toks, token{obj: operand})
		}
	}
	return toks, nil
}

func readContentToken(p *parser) (operand Object, opName string, isOperator bool, err error) {
	p.skipWhite()
	if p.pos >= len(p.data) {
		return Object{}, "", false, io.EOF
	}
	b := p.data[p.pos]
	switch {
	case b == '/' || b == '(' || b == '[' || b == '<' ||
		b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		obj, err := p.parseObject()
		return obj, "", false, err
	default:
		start := p.pos
		for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
			p.pos++
		}
		if p.pos == start {
			return Object{}, "", false, fmt.Errorf("pdfparse: unexpected byte %q in content stream", p.data[p.pos])
		}
		word := string(p.data[start:p.pos])
		switch word {
		case "true":
			return Object{Kind: KindBool, Bool: true}, "", false, nil
		case "false":
			return Object{Kind: KindBool, Bool: false}, "", false, nil
		case "null":
			return Object{Kind: KindNull}, "", false, nil
		default:
			return Object{}, word, true, nil
		}
	}
}

func numVal(t token) float64 {
	v, _ := t.obj.Number()
	return v
}

func isNumberToken(t token) bool {
	return !t.isOp && (t.obj.Kind == KindInt || t.obj.Kind == KindReal)
}

// decodeContent tokenizes content against one resource dictionary and
// replays it onto a fresh stream, recursing into Form XObjects through
// ctx so keys stay unique page-wide.
func (ctx *decodeContext) decodeContent(content []byte, res *Dict) (*canvasstream.Stream, error) {
	toks, err := tokenizeContent(content, ctx.doc.Resolve)
	if err != nil {
		return nil, err
	}
	d := &contentDecoder{ctx: ctx, stream: canvasstream.New()}
	i := 0
	var operands []token
	for i < len(toks) {
		t := toks[i]
		if !t.isOp {
			operands = append(operands, t)
			i++
			continue
		}
		if t.op == "q" {
			if next, handled, err := d.tryCollapseXObjectBracket(toks, i, res); err != nil {
				return nil, err
			} else if handled {
				i = next
				operands = operands[:0]
				continue
			}
		}
		if err := d.apply(t.op, operands, res); err != nil {
			return nil, err
		}
		operands = operands[:0]
		i++
	}
	if !d.stream.Balanced() {
		return nil, &TemplateError{Reason: "unbalanced q/Q in content stream"}
	}
	return d.stream, nil
}

// tryCollapseXObjectBracket recognizes the one idiom pdfwrite's
// FlattenContent ever emits around a Do: "q <6 numbers> cm /Name Do Q",
// where the cm exists only to re-express an OpDrawImage/OpDrawForm
// command's own placement data in PDF's CTM-based XObject convention, not
// to change the ambient graphics state for anything after the bracket.
// Collapsing it back to a single DrawImage/DrawForm call (instead of
// faithfully replaying Save/Concat/Restore plus a unit-square image) is
// what keeps a parse-then-reemit round trip stable, since raster's image
// placement takes width/height from the Rect operand directly rather than
// scaling it through the accumulated transform. A non-axis-aligned cm (a
// rotated/skewed image placement a vendored template might use) can't be
// represented by canvasstream's Rect-only OpDrawImage, so that case falls
// through to the generic per-operator replay below instead.
func (d *contentDecoder) tryCollapseXObjectBracket(toks []token, i int, res *Dict) (next int, handled bool, err error) {
	if i+10 >= len(toks) {
		return i, false, nil
	}
	for k := 0; k < 6; k++ {
		if !isNumberToken(toks[i+1+k]) {
			return i, false, nil
		}
	}
	if !toks[i+7].isOp || toks[i+7].op != "cm" {
		return i, false, nil
	}
	if toks[i+8].isOp || toks[i+8].obj.Kind != KindName {
		return i, false, nil
	}
	if !toks[i+9].isOp || toks[i+9].op != "Do" {
		return i, false, nil
	}
	if !toks[i+10].isOp || toks[i+10].op != "Q" {
		return i, false, nil
	}

	m := numeric.Matrix2D{
		A: numVal(toks[i+1]), B: numVal(toks[i+2]), C: numVal(toks[i+3]),
		D: numVal(toks[i+4]), E: numVal(toks[i+5]), F: numVal(toks[i+6]),
	}
	name := toks[i+8].obj.Name
	kind, xobj, err := d.ctx.doc.xobjectKind(res, name)
	if err != nil {
		return i, false, err
	}
	switch kind {
	case xobjectImage:
		if m.B != 0 || m.C != 0 {
			return i, false, nil
		}
		key, err := d.ctx.resolveImage(xobj)
		if err != nil {
			return i, false, err
		}
		rect := numeric.Rect{X: numeric.FromPoints(m.E), Y: numeric.FromPoints(m.F), W: numeric.FromPoints(m.A), H: numeric.FromPoints(m.D)}
		d.stream.DrawImage(key, rect)
		return i + 11, true, nil
	case xobjectForm:
		key, err := d.ctx.resolveForm(xobj, res)
		if err != nil {
			return i, false, err
		}
		d.stream.DrawForm(key, m)
		return i + 11, true, nil
	default:
		return i, false, nil
	}
}

// contentDecoder replays one content stream's remaining (non-collapsed)
// operators onto a canvasstream.Stream.
type contentDecoder struct {
	ctx    *decodeContext
	stream *canvasstream.Stream

	path        []canvasstream.PathSegment
	pendingRect *numeric.Rect
	pendingClip bool

	textX, textY numeric.Length
	fontKey      string
}

func (d *contentDecoder) resetPath() {
	d.path = nil
	d.pendingRect = nil
	d.pendingClip = false
}

func (d *contentDecoder) apply(op string, toks []token, res *Dict) error {
	args := make([]Object, len(toks))
	for i, t := range toks {
		args[i] = t.obj
	}
	switch op {
	case "q":
		d.stream.Save()
	case "Q":
		d.stream.Restore()
	case "cm":
		if len(args) < 6 {
			return fmt.Errorf("pdfparse: cm requires 6 operands")
		}
		d.stream.Concat(numeric.Matrix2D{A: num(args, 0), B: num(args, 1), C: num(args, 2), D: num(args, 3), E: num(args, 4), F: num(args, 5)})
	case "rg":
		d.stream.SetFillColor(colorFromRGB(args))
	case "RG":
		d.stream.SetStrokeColor(colorFromRGB(args))
	case "g":
		d.stream.SetFillColor(colorFromGray(args))
	case "G":
		d.stream.SetStrokeColor(colorFromGray(args))
	case "w":
		d.stream.SetLineWidth(numeric.FromPoints(num(args, 0)))
	case "gs":
		if len(args) < 1 || args[0].Kind != KindName {
			return fmt.Errorf("pdfparse: gs requires a name operand")
		}
		if opacity, ok := resolveExtGStateOpacity(d.ctx.doc, res, args[0].Name); ok {
			d.stream.SetOpacity(opacity)
		}
	case "re":
		if len(args) < 4 {
			return fmt.Errorf("pdfparse: re requires 4 operands")
		}
		r := numeric.Rect{X: numeric.FromPoints(num(args, 0)), Y: numeric.FromPoints(num(args, 1)), W: numeric.FromPoints(num(args, 2)), H: numeric.FromPoints(num(args, 3))}
		d.pendingRect = &r
		d.path = nil
	case "m":
		d.pendingRect = nil
		d.path = append(d.path, canvasstream.PathSegment{Kind: canvasstream.SegMoveTo, X: numeric.FromPoints(num(args, 0)), Y: numeric.FromPoints(num(args, 1))})
	case "l":
		d.pendingRect = nil
		d.path = append(d.path, canvasstream.PathSegment{Kind: canvasstream.SegLineTo, X: numeric.FromPoints(num(args, 0)), Y: numeric.FromPoints(num(args, 1))})
	case "c":
		d.pendingRect = nil
		d.path = append(d.path, canvasstream.PathSegment{
			Kind: canvasstream.SegCubicTo,
			C1X:  numeric.FromPoints(num(args, 0)), C1Y: numeric.FromPoints(num(args, 1)),
			C2X: numeric.FromPoints(num(args, 2)), C2Y: numeric.FromPoints(num(args, 3)),
			X: numeric.FromPoints(num(args, 4)), Y: numeric.FromPoints(num(args, 5)),
		})
	case "h":
		d.path = append(d.path, canvasstream.PathSegment{Kind: canvasstream.SegClose})
	case "f", "F", "f*":
		if d.pendingRect != nil {
			d.stream.FillRect(*d.pendingRect)
		} else if len(d.path) > 0 {
			d.stream.FillPath(d.path)
		}
		d.resetPath()
	case "S":
		if d.pendingRect != nil {
			d.stream.StrokeRect(*d.pendingRect)
		} else if len(d.path) > 0 {
			d.stream.StrokePath(d.path)
		}
		d.resetPath()
	case "B", "B*":
		if d.pendingRect != nil {
			d.stream.FillRect(*d.pendingRect)
			d.stream.StrokeRect(*d.pendingRect)
		} else if len(d.path) > 0 {
			d.stream.FillPath(d.path)
			d.stream.StrokePath(d.path)
		}
		d.resetPath()
	case "W", "W*":
		d.pendingClip = true
	case "n":
		if d.pendingClip && d.pendingRect != nil {
			d.stream.ClipRect(*d.pendingRect)
		}
		d.resetPath()
	case "BT":
		d.stream.BeginText()
		d.textX, d.textY = 0, 0
	case "ET":
		d.stream.EndText()
	case "Tf":
		if len(args) < 2 || args[0].Kind != KindName {
			return fmt.Errorf("pdfparse: Tf requires a name and a size")
		}
		d.fontKey = resolveFontKey(d.ctx.doc, res, args[0].Name)
		d.stream.SetFont(d.fontKey, numeric.FromPoints(num(args, 1)))
	case "Tm":
		if len(args) < 6 {
			return fmt.Errorf("pdfparse: Tm requires 6 operands")
		}
		d.textX = numeric.FromPoints(num(args, 4))
		d.textY = numeric.FromPoints(num(args, 5))
	case "Tj":
		if len(args) < 1 || args[0].Kind != KindString {
			return fmt.Errorf("pdfparse: Tj requires a string operand")
		}
		d.stream.ShowText(string(args[0].Str), d.textX, d.textY)
	case "Do":
		if len(args) < 1 || args[0].Kind != KindName {
			return fmt.Errorf("pdfparse: Do requires a name operand")
		}
		return d.drawXObjectGeneric(res, args[0].Name)
	default:
		// Unrecognized operator (a marked-content tag like BDC/EMC, a
		// dash/line-cap setter, ...): no canvasstream equivalent, ignored.
	}
	return nil
}

// drawXObjectGeneric handles a bare Do not wrapped in the canonical
// "q cm Do Q" bracket tryCollapseXObjectBracket already handles. Forms
// replay correctly here since the ambient CTM was already faithfully
// built up via genuinely-replayed Concat commands; a bare image Do falls
// back to a unit-square placement at the current origin, a known-lossy
// edge case for non-canonical content.
func (d *contentDecoder) drawXObjectGeneric(res *Dict, name string) error {
	kind, xobj, err := d.ctx.doc.xobjectKind(res, name)
	if err != nil {
		return err
	}
	switch kind {
	case xobjectForm:
		key, err := d.ctx.resolveForm(xobj, res)
		if err != nil {
			return err
		}
		m := numeric.Identity()
		if mat, ok := xobj.StreamDict.Get("Matrix"); ok {
			if arr, err := numberArray(mat, 6); err == nil {
				m = numeric.Matrix2D{A: arr[0], B: arr[1], C: arr[2], D: arr[3], E: arr[4], F: arr[5]}
			}
		}
		d.stream.DrawForm(key, m)
	case xobjectImage:
		key, err := d.ctx.resolveImage(xobj)
		if err != nil {
			return err
		}
		d.stream.DrawImage(key, numeric.Rect{W: numeric.FromPoints(1), H: numeric.FromPoints(1)})
	}
	return nil
}

func num(args []Object, i int) float64 {
	if i < 0 || i >= len(args) {
		return 0
	}
	v, _ := args[i].Number()
	return v
}

func colorFromRGB(args []Object) cssom.RGBA {
	clamp := func(v float64) uint8 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(v*255 + 0.5)
	}
	return cssom.RGBA{R: clamp(num(args, 0)), G: clamp(num(args, 1)), B: clamp(num(args, 2)), A: 1}
}

func colorFromGray(args []Object) cssom.RGBA {
	v := num(args, 0)
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	g := uint8(v*255 + 0.5)
	return cssom.RGBA{R: g, G: g, B: g, A: 1}
}

// resolveExtGStateOpacity looks up /Resources/ExtGState/<name>/ca.
func resolveExtGStateOpacity(doc *Document, res *Dict, name string) (float64, bool) {
	if res == nil {
		return 0, false
	}
	gsDictObj, ok := res.Get("ExtGState")
	if !ok {
		return 0, false
	}
	gsDict := doc.Deref(gsDictObj)
	if gsDict.Kind != KindDict {
		return 0, false
	}
	entryObj, ok := gsDict.Dict.Get(name)
	if !ok {
		return 0, false
	}
	entry := doc.Deref(entryObj)
	if entry.Kind != KindDict {
		return 0, false
	}
	if ca, ok := entry.Dict.Get("ca"); ok {
		if v, ok := ca.Number(); ok {
			return v, true
		}
	}
	return 1, true
}

// resolveFontKey looks up /Resources/Font/<name>/BaseFont, falling back to
// the raw resource name when the font dict is missing a BaseFont (e.g. a
// composite/Type0 font this baseline doesn't fully model).
func resolveFontKey(doc *Document, res *Dict, name string) string {
	if res == nil {
		return name
	}
	fontDictObj, ok := res.Get("Font")
	if !ok {
		return name
	}
	fontDict := doc.Deref(fontDictObj)
	if fontDict.Kind != KindDict {
		return name
	}
	entryObj, ok := fontDict.Dict.Get(name)
	if !ok {
		return name
	}
	entry := doc.Deref(entryObj)
	if entry.Kind != KindDict {
		return name
	}
	if base, ok := entry.Dict.GetName("BaseFont"); ok {
		return base
	}
	return name
}
