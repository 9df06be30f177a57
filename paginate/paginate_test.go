package paginate

import (
	"testing"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/flow"
	"github.com/fullbleed/fullbleed/numeric"
)

type fakeMeasurer struct{}

func (fakeMeasurer) MeasureText(font cssom.Font, text string) numeric.Length {
	return numeric.FromPoints(6 * float64(len([]rune(text))))
}
func (fakeMeasurer) LineHeight(cssom.Font) numeric.Length { return numeric.FromPoints(14) }
func (fakeMeasurer) Ascent(cssom.Font) numeric.Length     { return numeric.FromPoints(10) }

func tallParagraph(lines int) flow.Flowable {
	text := ""
	for i := 0; i < lines; i++ {
		if i > 0 {
			text += "\n"
		}
		text += "line"
	}
	style := cssom.DefaultComputedStyle()
	style.Overflow = cssom.OverflowHidden // forces break-word, deterministic per-line wrap
	p := flow.NewParagraph(style, text)
	return p
}

func simplePageTemplate() PageTemplate {
	size := numeric.Size{W: numeric.FromPoints(200), H: numeric.FromPoints(100)}
	return NewPageTemplate("default", size).WithFrame(numeric.Rect{W: size.W, H: size.H})
}

func TestFrameAddPlacesWithinAvailableHeight(t *testing.T) {
	m := fakeMeasurer{}
	f := NewFrame(numeric.Rect{W: numeric.FromPoints(100), H: numeric.FromPoints(50)})
	style := cssom.DefaultComputedStyle()
	p := flow.NewParagraph(style, "hi")
	s := canvasstream.New()
	result, remainder := f.Add(p, s, m)
	if result != Placed {
		t.Fatalf("expected Placed, got %v", result)
	}
	if remainder != nil {
		t.Fatalf("expected nil remainder on Placed")
	}
}

func TestFrameAddOverflowsWhenNoRoomLeft(t *testing.T) {
	m := fakeMeasurer{}
	f := NewFrame(numeric.Rect{W: numeric.FromPoints(100), H: numeric.FromPoints(50)})
	f.cursorY = numeric.FromPoints(50) // already full
	style := cssom.DefaultComputedStyle()
	p := flow.NewParagraph(style, "hi")
	s := canvasstream.New()
	result, remainder := f.Add(p, s, m)
	if result != Overflow {
		t.Fatalf("expected Overflow, got %v", result)
	}
	if remainder == nil {
		t.Fatalf("expected remainder on Overflow")
	}
}

func TestSelectTemplateRepeatsLastTemplate(t *testing.T) {
	templates := []PageTemplate{simplePageTemplate(), simplePageTemplate()}
	templates[1].Name = "second"
	if got := SelectTemplate(templates, 1).Name; got != "default" {
		t.Fatalf("page 1 expected default, got %s", got)
	}
	if got := SelectTemplate(templates, 2).Name; got != "second" {
		t.Fatalf("page 2 expected second, got %s", got)
	}
	if got := SelectTemplate(templates, 5).Name; got != "second" {
		t.Fatalf("page 5 expected repeated last template, got %s", got)
	}
}

func TestSubstitutePageTokens(t *testing.T) {
	got := Substitute("Page {page} of {pages}", 2, 5, nil)
	if got != "Page 2 of 5" {
		t.Fatalf("got %q", got)
	}
}

func TestSubstituteAggregateTokens(t *testing.T) {
	spec := AggregatorSpec{"items.cost": AggSum}
	perPage := [][]MetaEntry{
		{{Key: "items.cost", Value: "$1.00"}, {Key: "items.cost", Value: "$2.50"}},
		{{Key: "items.cost", Value: "$3.25"}},
	}
	ctx := ComputeAggregateContext(perPage, spec)
	got := Substitute("sum={sum:items.cost} total={total:items.cost}", 1, 2, ctx)
	if got != "sum=3.50 total=6.75" {
		t.Fatalf("got %q", got)
	}
	got2 := Substitute("sum={sum:items.cost} total={total:items.cost}", 2, 2, ctx)
	if got2 != "sum=3.25 total=6.75" {
		t.Fatalf("got %q", got2)
	}
}

func TestParseAndFormatScaledInt(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"$35.07", 3507},
		{"35.07", 3507},
		{"1,234.56", 123456},
		{"-0.10", -10},
		{"10", 1000},
	}
	for _, c := range cases {
		got, ok := ParseScaledInt(c.in, 2)
		if !ok || got != c.want {
			t.Fatalf("ParseScaledInt(%q) = %d,%v want %d", c.in, got, ok, c.want)
		}
	}
	if got := FormatScaledInt(3507, 2); got != "35.07" {
		t.Fatalf("FormatScaledInt(3507,2) = %q", got)
	}
	if got := FormatScaledInt(-10, 2); got != "-0.10" {
		t.Fatalf("FormatScaledInt(-10,2) = %q", got)
	}
}

func TestDocTemplateBuildPlacesAcrossPages(t *testing.T) {
	m := fakeMeasurer{}
	dt := NewDocTemplate([]PageTemplate{simplePageTemplate()})
	for i := 0; i < 10; i++ {
		dt.AddFlowable(tallParagraph(3), MetaEntry{Key: "rows", Value: "1"})
	}
	dt.Aggregators = AggregatorSpec{"rows": AggCount}

	doc, err := dt.Build(m)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(doc.Pages) < 2 {
		t.Fatalf("expected content to overflow onto multiple pages, got %d", len(doc.Pages))
	}
	if got := doc.Aggregates.Totals["rows"]; got != "10" {
		t.Fatalf("expected rows total 10, got %q", got)
	}
}

func TestDocTemplateMissingTemplateErrors(t *testing.T) {
	dt := NewDocTemplate(nil)
	_, err := dt.Build(fakeMeasurer{})
	if err != ErrMissingPageTemplate {
		t.Fatalf("expected ErrMissingPageTemplate, got %v", err)
	}
}

func TestHeaderFooterVariantSelection(t *testing.T) {
	specs := []HeaderFooterSpec{
		{Variant: VariantFirst, Template: "first"},
		{Variant: VariantEach, Template: "each"},
		{Variant: VariantLast, Template: "last"},
	}
	if hf, ok := SelectHeaderFooter(specs, 1, 3); !ok || hf.Template != "first" {
		t.Fatalf("page 1 expected first, got %+v", hf)
	}
	if hf, ok := SelectHeaderFooter(specs, 2, 3); !ok || hf.Template != "each" {
		t.Fatalf("page 2 expected each, got %+v", hf)
	}
	if hf, ok := SelectHeaderFooter(specs, 3, 3); !ok || hf.Template != "last" {
		t.Fatalf("page 3 expected last, got %+v", hf)
	}
}

func TestConvergeStopsOnStable(t *testing.T) {
	calls := 0
	iterations, converged := Converge(5, func(i int) bool {
		calls++
		return i >= 2
	})
	if !converged || iterations != 3 || calls != 3 {
		t.Fatalf("converged=%v iterations=%d calls=%d", converged, iterations, calls)
	}
}

func TestConvergeReportsNonConvergence(t *testing.T) {
	_, converged := Converge(3, func(int) bool { return false })
	if converged {
		t.Fatalf("expected non-convergence")
	}
}
