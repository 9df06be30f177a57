package paginate

import (
	"strings"

	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// HeaderFooterVariant selects which pages a header/footer definition applies
// to, per spec.md 4.5.
type HeaderFooterVariant int

const (
	VariantFirst HeaderFooterVariant = iota
	VariantEach
	VariantLast
)

// HeaderFooterSpec is one header or footer definition: a string template
// (laid out inside its own sub-frame, given explicit rect and text style)
// whose {page}/{pages}/{sum:key}/{total:key} tokens Substitute resolves.
type HeaderFooterSpec struct {
	Variant  HeaderFooterVariant
	Template string
	Frame    numeric.Rect
	Style    cssom.ComputedStyle
}

// AppliesTo reports whether this spec's variant governs pageNumber out of
// pageCount pages, given whether first/last specs are present at all:
// "each" is used whenever neither a first nor a last spec claims the page.
func (h HeaderFooterSpec) AppliesTo(pageNumber, pageCount int, hasFirst, hasLast bool) bool {
	switch h.Variant {
	case VariantFirst:
		return pageNumber == 1
	case VariantLast:
		return pageNumber == pageCount
	default: // VariantEach
		if hasFirst && pageNumber == 1 {
			return false
		}
		if hasLast && pageNumber == pageCount {
			return false
		}
		return true
	}
}

// SelectHeaderFooter picks the applicable spec for pageNumber out of specs,
// preferring first/last over each when both match (pageCount==1).
func SelectHeaderFooter(specs []HeaderFooterSpec, pageNumber, pageCount int) (HeaderFooterSpec, bool) {
	hasFirst, hasLast := false, false
	for _, s := range specs {
		switch s.Variant {
		case VariantFirst:
			hasFirst = true
		case VariantLast:
			hasLast = true
		}
	}
	var first, last, each *HeaderFooterSpec
	for i := range specs {
		s := &specs[i]
		switch s.Variant {
		case VariantFirst:
			first = s
		case VariantLast:
			last = s
		case VariantEach:
			each = s
		}
	}
	if pageNumber == 1 && first != nil {
		return *first, true
	}
	if pageNumber == pageCount && last != nil {
		return *last, true
	}
	if each != nil && each.AppliesTo(pageNumber, pageCount, hasFirst, hasLast) {
		return *each, true
	}
	return HeaderFooterSpec{}, false
}

// Substitute resolves {page}, {pages}, {sum:key}, and {total:key} tokens in
// template against the given page number/count and aggregate context (nil
// ctx leaves sum/total tokens unresolved, left verbatim in the output).
// Grounded on original_source/src/page_data.rs's substitute_placeholders.
func Substitute(template string, pageNumber, pageCount int, ctx *AggregateContext) string {
	rendered := strings.ReplaceAll(template, "{page}", itoa(pageNumber))
	rendered = strings.ReplaceAll(rendered, "{pages}", itoa(pageCount))

	var out strings.Builder
	rest := rendered
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		rest = rest[start+1:]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			out.WriteByte('{')
			out.WriteString(rest)
			break
		}
		token := rest[:end]
		if rep, ok := resolveToken(token, pageNumber, ctx); ok {
			out.WriteString(rep)
		} else {
			out.WriteByte('{')
			out.WriteString(token)
			out.WriteByte('}')
		}
		rest = rest[end+1:]
	}
	return out.String()
}

func resolveToken(token string, pageNumber int, ctx *AggregateContext) (string, bool) {
	if ctx == nil {
		return "", false
	}
	kind, key, ok := strings.Cut(token, ":")
	if !ok {
		return "", false
	}
	kind = strings.TrimSpace(kind)
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	pageIndex := pageNumber - 1
	switch kind {
	case "sum":
		if pageIndex < 0 || pageIndex >= len(ctx.Pages) {
			return "", false
		}
		v, ok := ctx.Pages[pageIndex][key]
		return v, ok
	case "total":
		v, ok := ctx.Totals[key]
		return v, ok
	default:
		return "", false
	}
}
