package cssom

import (
	"strings"

	"github.com/fullbleed/fullbleed/numeric"
)

// typedProperties lists the property names that get a Value lane on top of
// the raw token lane; everything else stays Raw-only (fallback territory
// per spec.md 3 "unparsed lane").
var typedProperties = map[string]bool{
	"color": true, "background-color": true,
	"width": true, "height": true, "min-width": true, "max-width": true,
	"min-height": true, "max-height": true,
	"margin-top": true, "margin-right": true, "margin-bottom": true, "margin-left": true,
	"padding-top": true, "padding-right": true, "padding-bottom": true, "padding-left": true,
	"top": true, "right": true, "bottom": true, "left": true,
	"font-size": true, "opacity": true, "z-index": true,
	"display": true, "position": true, "overflow": true,
	"flex-grow": true, "flex-shrink": true, "row-gap": true, "column-gap": true,
}

// resolveTyped attempts to build a Value from a declaration's raw tokens.
// Unrecognized properties or malformed token runs leave Typed nil; the
// cascade then falls back to the Raw lane, which is always populated.
func resolveTyped(prop string, raw []Token) *Value {
	if !typedProperties[prop] {
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	if isCSSWideKeyword(raw[0]) {
		return &Value{HasKeyword: true, Keyword: strings.ToLower(raw[0].Text)}
	}
	switch prop {
	case "color", "background-color":
		if c, ok := ParseColor(raw); ok {
			return &Value{HasColor: true, Color: c}
		}
		return nil
	case "display", "position", "overflow":
		return &Value{HasKeyword: true, Keyword: strings.ToLower(raw[0].Text)}
	case "opacity", "flex-grow", "flex-shrink":
		if n, ok := numericToken(raw[0]); ok {
			return &Value{HasNumber: true, Number: n}
		}
		return nil
	case "z-index":
		if raw[0].Kind == TokenIdent && strings.EqualFold(raw[0].Text, "auto") {
			return &Value{HasKeyword: true, Keyword: "auto"}
		}
		if n, ok := numericToken(raw[0]); ok {
			return &Value{HasNumber: true, Number: n}
		}
		return nil
	default:
		return resolveLengthValue(raw)
	}
}

// isCSSWideKeyword reports whether tok is one of the CSS-wide keywords
// (initial, inherit, unset, revert, revert-layer) or auto/none, all of which
// are carried as keyword values rather than parsed further.
func isCSSWideKeyword(tok Token) bool {
	if tok.Kind != TokenIdent {
		return false
	}
	switch strings.ToLower(tok.Text) {
	case "initial", "inherit", "unset", "revert", "revert-layer", "auto", "none":
		return true
	default:
		return false
	}
}

func numericToken(t Token) (float64, bool) {
	if t.Kind == TokenNumber {
		return t.Num, true
	}
	return 0, false
}

// resolveLengthValue resolves a length-or-percentage value, evaluating
// calc()-family expressions via the participle grammar when the property's
// value is itself a function call, and a direct dimension/percentage token
// otherwise.
func resolveLengthValue(raw []Token) *Value {
	if len(raw) == 1 {
		switch raw[0].Kind {
		case TokenPercentage:
			return &Value{HasLength: true, LengthPct: true, Pct: raw[0].Num}
		case TokenDimension:
			if l, ok := lengthFromDimensionToken(raw[0]); ok {
				return &Value{HasLength: true, Length: l}
			}
		case TokenNumber:
			if raw[0].Num == 0 {
				return &Value{HasLength: true}
			}
		}
	}
	if raw[0].Kind == TokenFunctionStart {
		expr := serializeTokens(raw)
		if l, isPct, err := ResolveLengthExpr(expr, 0); err == nil {
			return &Value{HasLength: true, Length: l, LengthPct: isPct}
		}
	}
	return nil
}

func lengthFromDimensionToken(t Token) (numeric.Length, bool) {
	return parseDimensionText(t.Text)
}

// parseDimensionText splits a raw dimension token's text ("12.5px") into
// magnitude + unit and resolves it to a Length, mirroring the unit switch
// in value.go's calc() number resolver.
func parseDimensionText(text string) (numeric.Length, bool) {
	i := 0
	for i < len(text) && (text[i] == '-' || text[i] == '.' || (text[i] >= '0' && text[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, false
	}
	mag := parseFloatSafe(text[:i])
	unit := strings.ToLower(text[i:])
	switch unit {
	case "px":
		return numeric.FromPoints(mag * 72 / 96), true
	case "pt":
		return numeric.FromPoints(mag), true
	case "mm":
		return numeric.FromMillimeters(mag), true
	case "cm":
		return numeric.FromMillimeters(mag * 10), true
	case "in":
		return numeric.FromInches(mag), true
	case "pc":
		return numeric.FromPoints(mag * 12), true
	default:
		return 0, false
	}
}

func serializeTokens(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		switch t.Kind {
		case TokenParenClose:
			b.WriteString(")")
		case TokenFunctionStart:
			b.WriteString(t.Text)
			b.WriteString("(")
		case TokenComma:
			b.WriteString(",")
		default:
			b.WriteString(t.Text)
		}
	}
	return b.String()
}
