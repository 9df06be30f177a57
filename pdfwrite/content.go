package pdfwrite

import (
	"strings"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// FontResolver maps a canvasstream font key (flow's fontKey, a family
// name) to the PDF BaseFont name used for it, e.g. standard-14 "Helvetica"
// or "Helvetica-Bold" depending on weight/style carried separately by the
// caller's style pass. A nil resolver falls back to Helvetica for every key.
type FontResolver func(fontKey string) string

// ImageResolver maps a canvasstream image key to the decoded image bytes
// behind it. A nil resolver (or one that returns ok=false) draws an empty
// 1x1 placeholder so the page still emits a well-formed XObject reference.
type ImageResolver func(imageKey string) (ImageResource, bool)

// FormResolver maps a canvasstream form key to its flattened Form XObject
// content. A nil resolver (or ok=false) draws an empty form.
type FormResolver func(formKey string) (FormResource, bool)

// FlattenContent renders one command stream into PDF content-stream
// operator text, registering every font/image/form/opacity resource it
// references into reg (in first-reference order) as it goes. Grounded on
// canvasstream's closed Op set — every Op has exactly one operator
// rendering, so this switch is total and never needs a default fallback.
func FlattenContent(s *canvasstream.Stream, reg *Registry, resolveFont FontResolver, resolveImage ImageResolver, resolveForm FormResolver) string {
	if resolveFont == nil {
		resolveFont = func(string) string { return "Helvetica" }
	}
	if resolveImage == nil {
		resolveImage = func(string) (ImageResource, bool) { return ImageResource{}, false }
	}
	if resolveForm == nil {
		resolveForm = func(string) (FormResource, bool) { return FormResource{}, false }
	}
	var b strings.Builder
	for _, c := range s.Commands {
		switch c.Op {
		case canvasstream.OpSaveState:
			b.WriteString("q\n")
		case canvasstream.OpRestoreState:
			b.WriteString("Q\n")
		case canvasstream.OpConcatMatrix:
			writeMatrix(&b, c.Matrix)
			b.WriteString(" cm\n")
		case canvasstream.OpSetFillColor:
			writeColor(&b, c.Color, "rg")
		case canvasstream.OpSetStrokeColor:
			writeColor(&b, c.Color, "RG")
		case canvasstream.OpSetLineWidth:
			b.WriteString(FormatNumber(c.Width.Points()))
			b.WriteString(" w\n")
		case canvasstream.OpSetOpacity:
			name := reg.ExtGState(c.Opacity)
			b.WriteString("/")
			b.WriteString(name)
			b.WriteString(" gs\n")
		case canvasstream.OpClipRect:
			writeRectPath(&b, c.Rect)
			b.WriteString("W n\n")
		case canvasstream.OpFillRect:
			writeRectPath(&b, c.Rect)
			b.WriteString("f\n")
		case canvasstream.OpStrokeRect:
			writeRectPath(&b, c.Rect)
			b.WriteString("S\n")
		case canvasstream.OpFillPath:
			writePath(&b, c.Path)
			b.WriteString("f\n")
		case canvasstream.OpStrokePath:
			writePath(&b, c.Path)
			b.WriteString("S\n")
		case canvasstream.OpBeginText:
			b.WriteString("BT\n")
		case canvasstream.OpEndText:
			b.WriteString("ET\n")
		case canvasstream.OpSetFont:
			name := reg.Font(c.FontKey, resolveFont(c.FontKey))
			b.WriteString("/")
			b.WriteString(name)
			b.WriteByte(' ')
			b.WriteString(FormatNumber(c.FontSize.Points()))
			b.WriteString(" Tf\n")
		case canvasstream.OpShowText:
			b.WriteString("1 0 0 1 ")
			b.WriteString(FormatNumber(c.TextX.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(c.TextY.Points()))
			b.WriteString(" Tm ")
			b.WriteString(FormatString(c.Text))
			b.WriteString(" Tj\n")
		case canvasstream.OpDrawImage:
			img, ok := resolveImage(c.ImageKey)
			if !ok {
				img = ImageResource{Data: []byte{0xff}, Width: 1, Height: 1, ColorSpace: "DeviceGray", BitsPerComponent: 8}
			}
			name := reg.Image(img)
			b.WriteString("q ")
			b.WriteString(FormatNumber(c.Rect.W.Points()))
			b.WriteString(" 0 0 ")
			b.WriteString(FormatNumber(c.Rect.H.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(c.Rect.X.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(c.Rect.Y.Points()))
			b.WriteString(" cm /")
			b.WriteString(name)
			b.WriteString(" Do Q\n")
		case canvasstream.OpDrawForm:
			form, _ := resolveForm(c.FormKey)
			name := reg.Form(form)
			b.WriteString("q ")
			writeMatrix(&b, c.Matrix)
			b.WriteString(" cm /")
			b.WriteString(name)
			b.WriteString(" Do Q\n")
		case canvasstream.OpMeta:
			// non-painting: no content-stream operator.
		}
	}
	return b.String()
}

func writeMatrix(b *strings.Builder, m numeric.Matrix2D) {
	b.WriteString(FormatNumber(m.A))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(m.B))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(m.C))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(m.D))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(m.E))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(m.F))
}

func writeColor(b *strings.Builder, c cssom.RGBA, op string) {
	b.WriteString(FormatNumber(float64(c.R) / 255))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(float64(c.G) / 255))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(float64(c.B) / 255))
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteByte('\n')
}

func writeRectPath(b *strings.Builder, r numeric.Rect) {
	b.WriteString(FormatNumber(r.X.Points()))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(r.Y.Points()))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(r.W.Points()))
	b.WriteByte(' ')
	b.WriteString(FormatNumber(r.H.Points()))
	b.WriteString(" re\n")
}

func writePath(b *strings.Builder, segs []canvasstream.PathSegment) {
	for _, s := range segs {
		switch s.Kind {
		case canvasstream.SegMoveTo:
			b.WriteString(FormatNumber(s.X.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.Y.Points()))
			b.WriteString(" m\n")
		case canvasstream.SegLineTo:
			b.WriteString(FormatNumber(s.X.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.Y.Points()))
			b.WriteString(" l\n")
		case canvasstream.SegCubicTo:
			b.WriteString(FormatNumber(s.C1X.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.C1Y.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.C2X.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.C2Y.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.X.Points()))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.Y.Points()))
			b.WriteString(" c\n")
		case canvasstream.SegClose:
			b.WriteString("h\n")
		}
	}
}
