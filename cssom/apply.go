package cssom

import (
	"strconv"
	"strings"

	"github.com/fullbleed/fullbleed/numeric"
)

// applyProperty writes one property's resolved value onto style. Typed
// carries the pre-resolved Value when resolveTyped succeeded; raw always
// carries the original token run, used directly for properties this
// function still needs to interpret token-by-token (shorthands, transform
// lists, gradients) rather than through the single-value Value lane.
func applyProperty(style *ComputedStyle, prop string, typed *Value, raw []Token, customProps map[string]string) *Diagnostic {
	raw = substituteVar(raw, customProps)
	switch prop {
	case "display":
		if typed != nil && typed.HasKeyword {
			style.Display = parseDisplay(typed.Keyword)
		}
	case "position":
		if typed != nil && typed.HasKeyword {
			style.Position = parsePosition(typed.Keyword)
		}
	case "overflow":
		if typed != nil && typed.HasKeyword {
			style.Overflow = parseOverflow(typed.Keyword)
		}
	case "table-layout":
		if typed != nil && typed.HasKeyword && typed.Keyword == "fixed" {
			style.TableLayout = TableLayoutFixed
		} else if typed != nil && typed.HasKeyword && typed.Keyword == "auto" {
			style.TableLayout = TableLayoutAuto
		}
	case "color":
		if typed != nil && typed.HasColor {
			style.Color = typed.Color
		}
	case "background-color":
		if typed != nil && typed.HasColor {
			style.Background.Color = typed.Color
		}
	case "background", "background-image":
		applyBackground(style, raw)
	case "opacity":
		if typed != nil && typed.HasNumber {
			style.Opacity = numeric0to1(typed.Number)
		}
	case "z-index":
		if typed != nil {
			if typed.HasKeyword && typed.Keyword == "auto" {
				style.ZIndexSet = false
			} else if typed.HasNumber {
				style.ZIndex = int(typed.Number)
				style.ZIndexSet = true
			}
		}
	case "width":
		applyAxisLength(&style.Width, &style.WidthAuto, typed)
	case "height":
		applyAxisLength(&style.Height, &style.HeightAuto, typed)
	case "min-width":
		applyLengthField(&style.MinWidth, typed)
	case "max-width":
		applyLengthField(&style.MaxWidth, typed)
	case "min-height":
		applyLengthField(&style.MinHeight, typed)
	case "max-height":
		applyLengthField(&style.MaxHeight, typed)
	case "margin":
		applyBoxShorthand(&style.Margin, raw)
	case "margin-top":
		applyLengthField(&style.Margin.Top, typed)
	case "margin-right":
		applyLengthField(&style.Margin.Right, typed)
	case "margin-bottom":
		applyLengthField(&style.Margin.Bottom, typed)
	case "margin-left":
		applyLengthField(&style.Margin.Left, typed)
	case "padding":
		applyBoxShorthand(&style.Padding, raw)
	case "padding-top":
		applyLengthField(&style.Padding.Top, typed)
	case "padding-right":
		applyLengthField(&style.Padding.Right, typed)
	case "padding-bottom":
		applyLengthField(&style.Padding.Bottom, typed)
	case "padding-left":
		applyLengthField(&style.Padding.Left, typed)
	case "top":
		applyInsetField(&style.Inset.Top, &style.Inset.TopAuto, typed)
	case "right":
		applyInsetField(&style.Inset.Right, &style.Inset.RightAuto, typed)
	case "bottom":
		applyInsetField(&style.Inset.Bottom, &style.Inset.BottomAuto, typed)
	case "left":
		applyInsetField(&style.Inset.Left, &style.Inset.LeftAuto, typed)
	case "border-width":
		applyBorderWidthShorthand(style, raw)
	case "border-color":
		applyBorderColorShorthand(style, raw)
	case "border":
		applyBorderShorthand(style, raw)
	case "font-size":
		applyLengthField(&style.Font.Size, typed)
	case "font-weight":
		applyFontWeight(style, raw)
	case "font-style":
		applyFontStyle(style, raw)
	case "font-family":
		style.Font.Family = splitFontFamily(raw)
	case "flex-direction":
		style.Flex.Direction = parseFlexDirection(firstIdent(raw))
	case "flex-wrap":
		style.Flex.Wrap = parseFlexWrap(firstIdent(raw))
	case "flex-grow":
		if typed != nil && typed.HasNumber {
			style.Flex.Grow = typed.Number
		}
	case "flex-shrink":
		if typed != nil && typed.HasNumber {
			style.Flex.Shrink = typed.Number
		}
	case "flex-basis":
		applyFlexBasis(style, typed, raw)
	case "justify-content":
		style.Flex.Justify = parseAlign(firstIdent(raw))
	case "align-items":
		style.Flex.AlignItems = parseAlign(firstIdent(raw))
	case "align-content":
		style.Flex.AlignContent = parseAlign(firstIdent(raw))
	case "align-self":
		style.Flex.AlignSelf = parseAlign(firstIdent(raw))
	case "row-gap":
		applyLengthField(&style.Gap.Row, typed)
	case "column-gap":
		applyLengthField(&style.Gap.Column, typed)
	case "gap":
		applyGapShorthand(style, raw)
	case "grid-template-columns":
		style.Grid.TemplateColumns = parseTrackList(raw)
	case "grid-template-rows":
		style.Grid.TemplateRows = parseTrackList(raw)
	case "grid-column-start":
		style.Grid.ColumnStart = intFromToken(raw)
	case "grid-row-start":
		style.Grid.RowStart = intFromToken(raw)
	case "transform":
		style.Transform = parseTransformList(raw)
	case "break-before":
		style.BreakBefore = parseBreakMode(firstIdent(raw))
	case "break-after":
		style.BreakAfter = parseBreakMode(firstIdent(raw))
	case "break-inside":
		style.BreakInside = parseBreakMode(firstIdent(raw))
	case "widows":
		if n, ok := intFromTokenOK(raw); ok && n > 0 {
			style.Widows = n
		}
	case "orphans":
		if n, ok := intFromTokenOK(raw); ok && n > 0 {
			style.Orphans = n
		}
	case "box-shadow":
		style.BoxShadows = append(style.BoxShadows, parseBoxShadowList(raw)...)
	case "clip-path":
		style.ClipPath = parseClipPath(raw)
	case "filter":
		f, fallback := parseFilter(raw)
		style.Filter = f
		if fallback {
			d := diag(DiagFilterEffectFallback, prop, "", "unsupported filter function fell back to no-op")
			return &d
		}
	case "backdrop-filter":
		f, fallback := parseFilter(raw)
		style.BackdropFilter = f
		if fallback {
			d := diag(DiagFilterEffectFallback, prop, "", "unsupported backdrop-filter function fell back to no-op")
			return &d
		}
	case "mix-blend-mode":
		style.MixBlendMode = firstIdent(raw)
	case "content":
		if s, ok := parseContentValue(raw); ok {
			style.Content = s
			style.ContentSet = true
		}
	case "writing-mode":
		if !strings.EqualFold(firstIdent(raw), "horizontal-tb") && firstIdent(raw) != "" {
			style.WritingModeRejected = true
			d := diag(DiagWritingModeRejected, prop, "", "only horizontal-tb writing-mode is supported")
			return &d
		}
	default:
		// Unmodeled property: retained in Custom only when it is itself a
		// custom property (handled by the caller, apply() skips "--" here).
	}
	return nil
}

func numeric0to1(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func applyAxisLength(field *numeric.Length, autoFlag *bool, typed *Value) {
	if typed == nil {
		return
	}
	if typed.HasKeyword && typed.Keyword == "auto" {
		*autoFlag = true
		return
	}
	if typed.HasLength {
		*autoFlag = false
		*field = typed.Length
	}
}

func applyLengthField(field *numeric.Length, typed *Value) {
	if typed != nil && typed.HasLength {
		*field = typed.Length
	}
}

func applyInsetField(field *numeric.Length, autoFlag *bool, typed *Value) {
	if typed == nil {
		return
	}
	if typed.HasKeyword && typed.Keyword == "auto" {
		*autoFlag = true
		return
	}
	if typed.HasLength {
		*autoFlag = false
		*field = typed.Length
	}
}

func applyBoxShorthand(box *BoxSides, raw []Token) {
	vals := lengthsFromTokens(raw)
	switch len(vals) {
	case 1:
		box.Top, box.Right, box.Bottom, box.Left = vals[0], vals[0], vals[0], vals[0]
	case 2:
		box.Top, box.Bottom = vals[0], vals[0]
		box.Right, box.Left = vals[1], vals[1]
	case 3:
		box.Top, box.Right, box.Bottom = vals[0], vals[1], vals[2]
		box.Left = vals[1]
	case 4:
		box.Top, box.Right, box.Bottom, box.Left = vals[0], vals[1], vals[2], vals[3]
	}
}

func lengthsFromTokens(raw []Token) []numeric.Length {
	var out []numeric.Length
	for _, t := range raw {
		if t.Kind == TokenDimension {
			if l, ok := parseDimensionText(t.Text); ok {
				out = append(out, l)
			}
		} else if t.Kind == TokenNumber && t.Num == 0 {
			out = append(out, 0)
		}
	}
	return out
}

func applyBorderWidthShorthand(style *ComputedStyle, raw []Token) {
	vals := lengthsFromTokens(raw)
	set := func(e *BoxEdge, l numeric.Length) { e.Width = l }
	switch len(vals) {
	case 1:
		set(&style.Border.Top, vals[0])
		set(&style.Border.Right, vals[0])
		set(&style.Border.Bottom, vals[0])
		set(&style.Border.Left, vals[0])
	case 4:
		set(&style.Border.Top, vals[0])
		set(&style.Border.Right, vals[1])
		set(&style.Border.Bottom, vals[2])
		set(&style.Border.Left, vals[3])
	}
}

func applyBorderColorShorthand(style *ComputedStyle, raw []Token) {
	if c, ok := ParseColor(raw); ok {
		style.Border.Top.Color = c
		style.Border.Right.Color = c
		style.Border.Bottom.Color = c
		style.Border.Left.Color = c
	}
}

func applyBorderShorthand(style *ComputedStyle, raw []Token) {
	var widthToks, colorToks []Token
	for _, t := range raw {
		if t.Kind == TokenDimension || (t.Kind == TokenNumber && t.Num == 0) {
			widthToks = append(widthToks, t)
		} else if t.Kind == TokenHash || t.Kind == TokenIdent || t.Kind == TokenFunctionStart {
			colorToks = append(colorToks, t)
		}
	}
	applyBorderWidthShorthand(style, widthToks)
	applyBorderColorShorthand(style, colorToks)
}

func applyBackground(style *ComputedStyle, raw []Token) {
	if c, ok := ParseColor(raw); ok {
		style.Background.Color = c
		return
	}
	for i, t := range raw {
		if t.Kind != TokenFunctionStart {
			continue
		}
		name := strings.ToLower(t.Text)
		if !strings.Contains(name, "gradient") {
			continue
		}
		g := Gradient{}
		switch {
		case strings.HasPrefix(name, "linear"):
			g.Kind = GradientLinear
		case strings.HasPrefix(name, "radial"):
			g.Kind = GradientRadial
		case strings.HasPrefix(name, "conic"):
			g.Kind = GradientConic
		default:
			continue
		}
		args := splitTokenArgs(raw[i+1:])
		if len(args) > 0 && g.Kind == GradientLinear {
			if ang, ok := angleFromTokens(args[0]); ok {
				g.AngleDeg = ang
				args = args[1:]
			}
		}
		for _, a := range args {
			if c, _, ok := colorWithWeight(a); ok {
				pos := 0.0
				if len(a) > 0 && a[len(a)-1].Kind == TokenPercentage {
					pos = a[len(a)-1].Num / 100
				}
				g.Stops = append(g.Stops, GradientStop{Color: c, Position: pos})
			}
		}
		style.Background.Gradients = append(style.Background.Gradients, g)
	}
}

func angleFromTokens(toks []Token) (float64, bool) {
	for _, t := range toks {
		if t.Kind == TokenDimension && strings.HasSuffix(t.Text, "deg") {
			return parseFloatSafe(strings.TrimSuffix(t.Text, "deg")), true
		}
	}
	return 0, false
}

func applyFontWeight(style *ComputedStyle, raw []Token) {
	name := firstIdent(raw)
	switch strings.ToLower(name) {
	case "normal":
		style.Font.Weight = 400
	case "bold":
		style.Font.Weight = 700
	case "":
		if len(raw) > 0 && raw[0].Kind == TokenNumber {
			style.Font.Weight = int(raw[0].Num)
		}
	}
}

func applyFontStyle(style *ComputedStyle, raw []Token) {
	switch strings.ToLower(firstIdent(raw)) {
	case "italic":
		style.Font.Style = FontStyleItalic
	case "oblique":
		style.Font.Style = FontStyleOblique
	default:
		style.Font.Style = FontStyleNormal
	}
}

func splitFontFamily(raw []Token) []string {
	var out []string
	for _, t := range raw {
		if t.Kind == TokenIdent || t.Kind == TokenString {
			out = append(out, t.Text)
		}
	}
	return out
}

func firstIdent(raw []Token) string {
	for _, t := range raw {
		if t.Kind == TokenIdent {
			return t.Text
		}
	}
	return ""
}

func intFromToken(raw []Token) int {
	n, _ := intFromTokenOK(raw)
	return n
}

func intFromTokenOK(raw []Token) (int, bool) {
	for _, t := range raw {
		if t.Kind == TokenNumber {
			return int(t.Num), true
		}
	}
	return 0, false
}

func applyFlexBasis(style *ComputedStyle, typed *Value, raw []Token) {
	if firstIdent(raw) == "auto" {
		style.Flex.BasisAuto = true
		return
	}
	if typed != nil && typed.HasLength {
		style.Flex.BasisAuto = false
		style.Flex.Basis = typed.Length
	}
}

func applyGapShorthand(style *ComputedStyle, raw []Token) {
	vals := lengthsFromTokens(raw)
	switch len(vals) {
	case 1:
		style.Gap.Row, style.Gap.Column = vals[0], vals[0]
	case 2:
		style.Gap.Row, style.Gap.Column = vals[0], vals[1]
	}
}

func parseTrackList(raw []Token) []TrackSize {
	var out []TrackSize
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		switch t.Kind {
		case TokenFunctionStart:
			if strings.EqualFold(t.Text, "repeat") {
				tracks, end := parseRepeatTrack(raw[i+1:])
				out = append(out, tracks...)
				i += end
				continue
			}
		case TokenDimension:
			if strings.HasSuffix(t.Text, "fr") {
				out = append(out, TrackSize{IsFr: true, Fr: parseFloatSafe(strings.TrimSuffix(t.Text, "fr"))})
			} else if l, ok := parseDimensionText(t.Text); ok {
				out = append(out, TrackSize{Fixed: l})
			}
		case TokenPercentage:
			out = append(out, TrackSize{IsPct: true, Percent: t.Num})
		case TokenIdent:
			if strings.EqualFold(t.Text, "auto") {
				out = append(out, TrackSize{Auto: true})
			}
		}
	}
	return out
}

// parseRepeatTrack expands repeat(n, T) into n copies of the single track
// T, returning the expanded tracks plus how many tokens (from just past the
// "repeat(") were consumed so the caller can skip past the closing paren.
func parseRepeatTrack(inner []Token) (tracks []TrackSize, consumed int) {
	depth := 1
	end := 0
	for end < len(inner) {
		switch inner[end].Kind {
		case TokenParenClose:
			depth--
			if depth == 0 {
				goto done
			}
		case TokenFunctionStart:
			depth++
		}
		end++
	}
done:
	args := splitTokenArgs(inner[:end+1])
	if len(args) < 2 {
		return nil, end
	}
	count, _ := intFromTokenOK(args[0])
	if count <= 0 {
		count = 1
	}
	track := parseTrackList(args[1])
	for i := 0; i < count; i++ {
		tracks = append(tracks, track...)
	}
	return tracks, end
}

func parseTransformList(raw []Token) []TransformOp {
	var out []TransformOp
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		if t.Kind != TokenFunctionStart {
			continue
		}
		var args [][]Token
		j := i + 1
		depth := 1
		var cur []Token
		for ; j < len(raw) && depth > 0; j++ {
			switch raw[j].Kind {
			case TokenParenClose:
				depth--
				if depth == 0 {
					args = append(args, cur)
				}
			case TokenComma:
				if depth == 1 {
					args = append(args, cur)
					cur = nil
					continue
				}
				cur = append(cur, raw[j])
			default:
				cur = append(cur, raw[j])
			}
		}
		if op, ok := transformOpFromFunc(strings.ToLower(t.Text), args); ok {
			out = append(out, op)
		}
		i = j - 1
	}
	return out
}

func transformOpFromFunc(name string, args [][]Token) (TransformOp, bool) {
	lenOf := func(toks []Token) numeric.Length {
		if len(toks) == 0 {
			return 0
		}
		if toks[0].Kind == TokenDimension {
			l, _ := parseDimensionText(toks[0].Text)
			return l
		}
		return 0
	}
	numOf := func(toks []Token) float64 {
		if len(toks) == 0 {
			return 0
		}
		return toks[0].Num
	}
	degOf := func(toks []Token) float64 {
		if len(toks) == 0 {
			return 0
		}
		if toks[0].Kind == TokenDimension && strings.HasSuffix(toks[0].Text, "deg") {
			return parseFloatSafe(strings.TrimSuffix(toks[0].Text, "deg")) * 3.14159265358979 / 180
		}
		return 0
	}
	switch name {
	case "translate", "translatex":
		x := lenOf(arg(args, 0))
		y := numeric.Zero
		if name == "translate" {
			y = lenOf(arg(args, 1))
		}
		return TransformOp{Kind: TransformTranslate, X: x, Y: y}, true
	case "translatey":
		return TransformOp{Kind: TransformTranslate, Y: lenOf(arg(args, 0))}, true
	case "scale":
		sx := numOf(arg(args, 0))
		sy := sx
		if len(args) > 1 {
			sy = numOf(arg(args, 1))
		}
		return TransformOp{Kind: TransformScale, SX: sx, SY: sy}, true
	case "rotate":
		return TransformOp{Kind: TransformRotate, AngleRadians: degOf(arg(args, 0))}, true
	case "skew":
		return TransformOp{Kind: TransformSkew, AX: degOf(arg(args, 0)), AY: degOf(arg(args, 1))}, true
	case "skewx":
		return TransformOp{Kind: TransformSkewX, AX: degOf(arg(args, 0))}, true
	case "skewy":
		return TransformOp{Kind: TransformSkewY, AY: degOf(arg(args, 0))}, true
	case "matrix":
		if len(args) != 6 {
			return TransformOp{}, false
		}
		return TransformOp{
			Kind: TransformMatrix,
			A:    numOf(arg(args, 0)), B: numOf(arg(args, 1)), C: numOf(arg(args, 2)),
			D: numOf(arg(args, 3)), E: numOf(arg(args, 4)), F: numOf(arg(args, 5)),
		}, true
	default:
		return TransformOp{}, false
	}
}

func arg(args [][]Token, i int) []Token {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

func parseBreakMode(kw string) BreakMode {
	switch strings.ToLower(kw) {
	case "always":
		return BreakAlways
	case "page":
		return BreakPage
	case "avoid":
		return BreakAvoid
	default:
		return BreakAuto
	}
}

func parseBoxShadowList(raw []Token) []BoxShadow {
	var out []BoxShadow
	for _, group := range splitTokenArgs(raw) {
		lens := lengthsFromTokens(group)
		sh := BoxShadow{}
		for _, t := range group {
			if t.Kind == TokenIdent && strings.EqualFold(t.Text, "inset") {
				sh.Inset = true
			}
		}
		if c, ok := ParseColor(group); ok {
			sh.Color = c
		}
		if len(lens) > 0 {
			sh.OffsetX = lens[0]
		}
		if len(lens) > 1 {
			sh.OffsetY = lens[1]
		}
		if len(lens) > 2 {
			sh.Blur = lens[2]
		}
		if len(lens) > 3 {
			sh.Spread = lens[3]
		}
		out = append(out, sh)
	}
	return out
}

func parseClipPath(raw []Token) ClipPath {
	for i, t := range raw {
		if t.Kind == TokenFunctionStart && strings.EqualFold(t.Text, "inset") {
			args := splitTokenArgs(raw[i+1:])
			cp := ClipPath{Set: true}
			if len(args) > 0 {
				if l, ok := parseDimensionText(textOf(args[0])); ok {
					cp.Top = l
				}
			}
			if len(args) > 1 {
				if l, ok := parseDimensionText(textOf(args[1])); ok {
					cp.Right = l
				}
			}
			if len(args) > 2 {
				if l, ok := parseDimensionText(textOf(args[2])); ok {
					cp.Bottom = l
				}
			}
			if len(args) > 3 {
				if l, ok := parseDimensionText(textOf(args[3])); ok {
					cp.Left = l
				}
			}
			return cp
		}
	}
	return ClipPath{}
}

func textOf(toks []Token) string {
	if len(toks) == 0 {
		return ""
	}
	return toks[0].Text
}

// parseFilter reads a filter/backdrop-filter function list. blur() and
// saturate() are modeled; every other function name (drop-shadow,
// hue-rotate, contrast, url(), ...) is dropped and reported via fallback
// so the caller can raise DiagFilterEffectFallback rather than silently
// rendering as if the effect had been honored.
func parseFilter(raw []Token) (f Filter, fallback bool) {
	for i, t := range raw {
		if t.Kind != TokenFunctionStart {
			continue
		}
		args := splitTokenArgs(raw[i+1:])
		switch strings.ToLower(t.Text) {
		case "blur":
			if l, ok := parseDimensionText(textOf(arg(args, 0))); ok {
				f.BlurPx = l.Points() * 96 / 72
				f.HasBlur = true
			}
		case "saturate":
			if len(args) > 0 && len(args[0]) > 0 {
				f.SaturatePct = args[0][0].Num
				f.HasSaturate = true
			}
		default:
			fallback = true
		}
	}
	return f, fallback
}

func parseDisplay(kw string) Display {
	switch kw {
	case "none":
		return DisplayNone
	case "block":
		return DisplayBlock
	case "inline-block":
		return DisplayInlineBlock
	case "flex":
		return DisplayFlex
	case "grid":
		return DisplayGrid
	case "table":
		return DisplayTable
	case "table-row":
		return DisplayTableRow
	case "table-cell":
		return DisplayTableCell
	case "table-header-group":
		return DisplayTableHeaderGroup
	case "table-row-group":
		return DisplayTableRowGroup
	case "list-item":
		return DisplayListItem
	default:
		return DisplayInline
	}
}

func parsePosition(kw string) Position {
	switch kw {
	case "relative":
		return PositionRelative
	case "absolute":
		return PositionAbsolute
	case "fixed":
		return PositionFixed
	default:
		return PositionStatic
	}
}

func parseOverflow(kw string) Overflow {
	switch kw {
	case "hidden":
		return OverflowHidden
	case "clip":
		return OverflowClip
	default:
		return OverflowVisible
	}
}

func parseFlexDirection(kw string) FlexDirection {
	switch kw {
	case "row-reverse":
		return FlexRowReverse
	case "column":
		return FlexColumn
	case "column-reverse":
		return FlexColumnReverse
	default:
		return FlexRow
	}
}

func parseFlexWrap(kw string) FlexWrap {
	switch kw {
	case "wrap":
		return FlexWrapOn
	case "wrap-reverse":
		return FlexWrapReverse
	default:
		return FlexNoWrap
	}
}

func parseAlign(kw string) Align {
	switch kw {
	case "flex-start", "start":
		return AlignStart
	case "flex-end", "end":
		return AlignEnd
	case "center":
		return AlignCenter
	case "stretch":
		return AlignStretch
	case "space-between":
		return AlignSpaceBetween
	case "space-around":
		return AlignSpaceAround
	case "space-evenly":
		return AlignSpaceEvenly
	case "baseline":
		return AlignBaseline
	default:
		return AlignAuto
	}
}

func itoa(i int) string { return strconv.Itoa(i) }

// parseContentValue resolves the `content` property's baseline forms:
// a quoted string, `none`/`normal` (no generated content), and `attr(name)`
// (left unresolved here; the caller substitutes the live attribute value
// since cssom has no access to the element's attribute map).
func parseContentValue(raw []Token) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0].Kind {
	case TokenString:
		return raw[0].Text, true
	case TokenIdent:
		if strings.EqualFold(raw[0].Text, "none") || strings.EqualFold(raw[0].Text, "normal") {
			return "", false
		}
	case TokenFunctionStart:
		if strings.EqualFold(raw[0].Text, "attr") && len(raw) > 1 {
			return "\x00attr:" + raw[1].Text, true
		}
	}
	return "", false
}
