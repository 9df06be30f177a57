package cssom

import "sort"

// matchedDeclaration pairs a declaration with the specificity/order context
// needed to sort it into final cascade position (4.1: specificity, then
// source order, with the !important lane sorted as a separate, higher-
// priority pass).
type matchedDeclaration struct {
	decl        *Declaration
	specificity Specificity
	order       int
}

// Cascade holds a stylesheet plus any inline/author overrides and exposes
// Resolve to compute one element's ComputedStyle.
type Cascade struct {
	sheet       *Stylesheet
	inherited   map[string]bool // properties that inherit by default (color, font-*)
	diagnostics []Diagnostic
}

func inheritedProperties() map[string]bool {
	return map[string]bool{
		"color": true, "font-size": true, "font-family": true, "font-weight": true,
		"font-style": true, "line-height": true,
	}
}

// NewCascade builds a Cascade over a parsed stylesheet.
func NewCascade(sheet *Stylesheet) *Cascade {
	return &Cascade{sheet: sheet, inherited: inheritedProperties()}
}

// Diagnostics returns diagnostics accumulated across all Resolve calls plus
// the stylesheet's own parse-time diagnostics.
func (c *Cascade) Diagnostics() []Diagnostic {
	all := append([]Diagnostic{}, c.sheet.Diagnostics...)
	return append(all, c.diagnostics...)
}

// Resolve computes el's ComputedStyle: collect matching declarations across
// both lanes, sort by cascade priority, run the custom-property graph, then
// apply the declarations in order over the parent's inherited subset (apply
// handles var() substitution and CSS-wide keywords per declaration).
func (c *Cascade) Resolve(el Element, parent *ComputedStyle, inlineDecls []*Declaration) ComputedStyle {
	style := baseStyle(parent, c.inherited)

	normal, important := c.collectMatches(el)
	for _, d := range inlineDecls {
		// Inline declarations behave as specificity (1,0,0,0) i.e. highest
		// non-important normal-lane priority; modeled by appending last.
		md := matchedDeclaration{decl: d, specificity: Specificity{IDs: 1 << 30}, order: 1 << 30}
		if d.Important {
			important = append(important, md)
		} else {
			normal = append(normal, md)
		}
	}

	sortCascade(normal)
	sortCascade(important)

	customProps := c.resolveCustomProperties(normal, important)

	for _, md := range normal {
		c.apply(&style, parent, md.decl, customProps)
	}
	for _, md := range important {
		c.apply(&style, parent, md.decl, customProps)
	}
	return style
}

func baseStyle(parent *ComputedStyle, inherited map[string]bool) ComputedStyle {
	s := DefaultComputedStyle()
	if parent == nil {
		return s
	}
	s.Color = parent.Color
	s.Font = parent.Font
	for k, v := range parent.Custom {
		s.Custom[k] = v
	}
	_ = inherited
	return s
}

// ResolvePseudoElement computes the style a ::before/::after rule targeting
// el would produce, or false if no rule in the sheet targets that
// pseudo-element on el. The pseudo style inherits from el's own resolved
// style, matching CSS's "generated content boxes inherit from their
// originating element" rule.
func (c *Cascade) ResolvePseudoElement(el Element, elStyle *ComputedStyle, which PseudoElement) (ComputedStyle, bool) {
	style := baseStyle(elStyle, c.inherited)
	var normal, important []matchedDeclaration
	matched := false
	for _, rule := range c.sheet.Rules {
		if !mediaApplies(rule.MediaScoped) {
			continue
		}
		for _, s := range rule.Selectors {
			if s.PseudoElement != which {
				continue
			}
			if !s.Matches(el) {
				continue
			}
			matched = true
			for _, d := range rule.Normal {
				normal = append(normal, matchedDeclaration{decl: d, specificity: s.Specificity(), order: rule.SourceOrder})
			}
			for _, d := range rule.Important {
				important = append(important, matchedDeclaration{decl: d, specificity: s.Specificity(), order: rule.SourceOrder})
			}
		}
	}
	if !matched {
		return ComputedStyle{}, false
	}
	sortCascade(normal)
	sortCascade(important)
	customProps := c.resolveCustomProperties(normal, important)
	for _, md := range normal {
		c.apply(&style, elStyle, md.decl, customProps)
	}
	for _, md := range important {
		c.apply(&style, elStyle, md.decl, customProps)
	}
	return style, true
}

func (c *Cascade) collectMatches(el Element) (normal, important []matchedDeclaration) {
	for _, rule := range c.sheet.Rules {
		if !mediaApplies(rule.MediaScoped) {
			continue
		}
		best, matched := bestSelectorSpecificity(rule.Selectors, el)
		if !matched {
			continue
		}
		for _, d := range rule.Normal {
			normal = append(normal, matchedDeclaration{decl: d, specificity: best, order: rule.SourceOrder})
		}
		for _, d := range rule.Important {
			important = append(important, matchedDeclaration{decl: d, specificity: best, order: rule.SourceOrder})
		}
	}
	return normal, important
}

// mediaApplies honors unconditional rules (including the always-true
// placeholder @supports scoping produced by the parser) and @media print;
// any other @media condition is treated as print-incompatible and
// skipped, matching spec.md's "never matched" fallback for conditions this
// engine can't evaluate against a live viewport.
func mediaApplies(scope string) bool {
	return scope == "" || scope == "print"
}

func bestSelectorSpecificity(sels []*Selector, el Element) (Specificity, bool) {
	var best Specificity
	matched := false
	for _, s := range sels {
		if s.PseudoElement != PseudoElementNone {
			continue // pseudo-element generation handled in htmldom, not cascade
		}
		if !s.Matches(el) {
			continue
		}
		sp := s.Specificity()
		if !matched || best.Less(sp) {
			best = sp
			matched = true
		}
	}
	return best, matched
}

func sortCascade(ms []matchedDeclaration) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].specificity != ms[j].specificity {
			return ms[i].specificity.Less(ms[j].specificity)
		}
		return ms[i].order < ms[j].order
	})
}

// apply writes one declaration's resolved value onto style, handling
// custom-property substitution (var()) first, then CSS-wide keywords, then
// the typed/raw property dispatch. parent is the element's parent style (or
// the originating element's style for a pseudo-element), used to resolve
// `inherit` and `unset` on properties baseStyle doesn't already forward.
func (c *Cascade) apply(style *ComputedStyle, parent *ComputedStyle, decl *Declaration, customProps map[string]string) {
	if len(decl.Property) > 2 && decl.Property[:2] == "--" {
		return // custom properties are written by resolveCustomProperties, not here
	}
	if decl.Typed != nil && decl.Typed.HasKeyword {
		switch decl.Typed.Keyword {
		case "inherit":
			inheritProperty(style, parent, decl.Property)
			return
		case "unset":
			if c.inherited[decl.Property] {
				inheritProperty(style, parent, decl.Property)
			} else {
				applyInitial(style, decl.Property)
			}
			return
		case "initial", "revert", "revert-layer":
			applyInitial(style, decl.Property)
			return
		}
	}
	if d := applyProperty(style, decl.Property, decl.Typed, decl.Raw, customProps); d != nil {
		c.diagnostics = append(c.diagnostics, *d)
	}
}

// inheritProperty copies prop's resolved value from parent onto style,
// honoring an explicit `inherit` keyword regardless of whether prop is in
// the default-inherited set. Every modeled property, including the color
// and font-* fields baseStyle already forwards, is copied field-by-field;
// custom properties never reach here (apply skips them).
func inheritProperty(style *ComputedStyle, parent *ComputedStyle, prop string) {
	if parent == nil {
		applyInitial(style, prop)
		return
	}
	switch prop {
	case "color":
		style.Color = parent.Color
	case "font-size":
		style.Font.Size = parent.Font.Size
	case "font-family":
		style.Font.Family = parent.Font.Family
	case "font-weight":
		style.Font.Weight = parent.Font.Weight
	case "font-style":
		style.Font.Style = parent.Font.Style
	case "line-height":
		// no ComputedStyle field models line-height independent of font
		// metrics; nothing to copy.
	case "display":
		style.Display = parent.Display
	case "position":
		style.Position = parent.Position
	case "overflow":
		style.Overflow = parent.Overflow
	case "table-layout":
		style.TableLayout = parent.TableLayout
	case "background-color":
		style.Background.Color = parent.Background.Color
	case "background", "background-image":
		style.Background = parent.Background
	case "opacity":
		style.Opacity = parent.Opacity
	case "z-index":
		style.ZIndex, style.ZIndexSet = parent.ZIndex, parent.ZIndexSet
	case "width":
		style.Width, style.WidthAuto = parent.Width, parent.WidthAuto
	case "height":
		style.Height, style.HeightAuto = parent.Height, parent.HeightAuto
	case "min-width":
		style.MinWidth = parent.MinWidth
	case "max-width":
		style.MaxWidth = parent.MaxWidth
	case "min-height":
		style.MinHeight = parent.MinHeight
	case "max-height":
		style.MaxHeight = parent.MaxHeight
	case "margin":
		style.Margin = parent.Margin
	case "margin-top":
		style.Margin.Top = parent.Margin.Top
	case "margin-right":
		style.Margin.Right = parent.Margin.Right
	case "margin-bottom":
		style.Margin.Bottom = parent.Margin.Bottom
	case "margin-left":
		style.Margin.Left = parent.Margin.Left
	case "padding":
		style.Padding = parent.Padding
	case "padding-top":
		style.Padding.Top = parent.Padding.Top
	case "padding-right":
		style.Padding.Right = parent.Padding.Right
	case "padding-bottom":
		style.Padding.Bottom = parent.Padding.Bottom
	case "padding-left":
		style.Padding.Left = parent.Padding.Left
	case "top":
		style.Inset.Top, style.Inset.TopAuto = parent.Inset.Top, parent.Inset.TopAuto
	case "right":
		style.Inset.Right, style.Inset.RightAuto = parent.Inset.Right, parent.Inset.RightAuto
	case "bottom":
		style.Inset.Bottom, style.Inset.BottomAuto = parent.Inset.Bottom, parent.Inset.BottomAuto
	case "left":
		style.Inset.Left, style.Inset.LeftAuto = parent.Inset.Left, parent.Inset.LeftAuto
	case "border-width":
		style.Border.Top.Width = parent.Border.Top.Width
		style.Border.Right.Width = parent.Border.Right.Width
		style.Border.Bottom.Width = parent.Border.Bottom.Width
		style.Border.Left.Width = parent.Border.Left.Width
	case "border-color":
		style.Border.Top.Color = parent.Border.Top.Color
		style.Border.Right.Color = parent.Border.Right.Color
		style.Border.Bottom.Color = parent.Border.Bottom.Color
		style.Border.Left.Color = parent.Border.Left.Color
	case "border":
		style.Border = parent.Border
	case "flex-direction":
		style.Flex.Direction = parent.Flex.Direction
	case "flex-wrap":
		style.Flex.Wrap = parent.Flex.Wrap
	case "flex-grow":
		style.Flex.Grow = parent.Flex.Grow
	case "flex-shrink":
		style.Flex.Shrink = parent.Flex.Shrink
	case "flex-basis":
		style.Flex.Basis, style.Flex.BasisAuto = parent.Flex.Basis, parent.Flex.BasisAuto
	case "justify-content":
		style.Flex.Justify = parent.Flex.Justify
	case "align-items":
		style.Flex.AlignItems = parent.Flex.AlignItems
	case "align-content":
		style.Flex.AlignContent = parent.Flex.AlignContent
	case "align-self":
		style.Flex.AlignSelf = parent.Flex.AlignSelf
	case "row-gap":
		style.Gap.Row = parent.Gap.Row
	case "column-gap":
		style.Gap.Column = parent.Gap.Column
	case "gap":
		style.Gap = parent.Gap
	case "grid-template-columns":
		style.Grid.TemplateColumns = parent.Grid.TemplateColumns
	case "grid-template-rows":
		style.Grid.TemplateRows = parent.Grid.TemplateRows
	case "grid-column-start":
		style.Grid.ColumnStart = parent.Grid.ColumnStart
	case "grid-row-start":
		style.Grid.RowStart = parent.Grid.RowStart
	case "transform":
		style.Transform = parent.Transform
	case "break-before":
		style.BreakBefore = parent.BreakBefore
	case "break-after":
		style.BreakAfter = parent.BreakAfter
	case "break-inside":
		style.BreakInside = parent.BreakInside
	case "widows":
		style.Widows = parent.Widows
	case "orphans":
		style.Orphans = parent.Orphans
	case "box-shadow":
		style.BoxShadows = parent.BoxShadows
	case "clip-path":
		style.ClipPath = parent.ClipPath
	case "filter":
		style.Filter = parent.Filter
	case "backdrop-filter":
		style.BackdropFilter = parent.BackdropFilter
	case "mix-blend-mode":
		style.MixBlendMode = parent.MixBlendMode
	case "content":
		style.Content, style.ContentSet = parent.Content, parent.ContentSet
	case "writing-mode":
		style.WritingModeRejected = parent.WritingModeRejected
	}
}

// applyInitial resets prop on style to its CSS initial value. Most
// properties' initial value coincides with DefaultComputedStyle's
// zero/default state; a handful (flex-shrink, align-items,
// justify-content/align-content, width/height's auto-ness) don't, since
// Go's zero value for those fields isn't CSS's initial keyword, so those
// are special-cased against a fresh DefaultComputedStyle rather than
// trusting applyProperty(nil) to leave the right zero value behind.
func applyInitial(style *ComputedStyle, prop string) {
	def := DefaultComputedStyle()
	switch prop {
	case "color":
		style.Color = def.Color
	case "display":
		style.Display = def.Display
	case "position":
		style.Position = def.Position
	case "overflow":
		style.Overflow = def.Overflow
	case "table-layout":
		style.TableLayout = def.TableLayout
	case "background-color":
		style.Background.Color = def.Background.Color
	case "background", "background-image":
		style.Background = def.Background
	case "opacity":
		style.Opacity = def.Opacity
	case "z-index":
		style.ZIndex, style.ZIndexSet = def.ZIndex, def.ZIndexSet
	case "width":
		style.Width, style.WidthAuto = def.Width, def.WidthAuto
	case "height":
		style.Height, style.HeightAuto = def.Height, def.HeightAuto
	case "min-width":
		style.MinWidth = def.MinWidth
	case "max-width":
		style.MaxWidth = def.MaxWidth
	case "min-height":
		style.MinHeight = def.MinHeight
	case "max-height":
		style.MaxHeight = def.MaxHeight
	case "margin":
		style.Margin = def.Margin
	case "margin-top":
		style.Margin.Top = def.Margin.Top
	case "margin-right":
		style.Margin.Right = def.Margin.Right
	case "margin-bottom":
		style.Margin.Bottom = def.Margin.Bottom
	case "margin-left":
		style.Margin.Left = def.Margin.Left
	case "padding":
		style.Padding = def.Padding
	case "padding-top":
		style.Padding.Top = def.Padding.Top
	case "padding-right":
		style.Padding.Right = def.Padding.Right
	case "padding-bottom":
		style.Padding.Bottom = def.Padding.Bottom
	case "padding-left":
		style.Padding.Left = def.Padding.Left
	case "top":
		style.Inset.Top, style.Inset.TopAuto = def.Inset.Top, def.Inset.TopAuto
	case "right":
		style.Inset.Right, style.Inset.RightAuto = def.Inset.Right, def.Inset.RightAuto
	case "bottom":
		style.Inset.Bottom, style.Inset.BottomAuto = def.Inset.Bottom, def.Inset.BottomAuto
	case "left":
		style.Inset.Left, style.Inset.LeftAuto = def.Inset.Left, def.Inset.LeftAuto
	case "border-width":
		style.Border.Top.Width = def.Border.Top.Width
		style.Border.Right.Width = def.Border.Right.Width
		style.Border.Bottom.Width = def.Border.Bottom.Width
		style.Border.Left.Width = def.Border.Left.Width
	case "border-color":
		style.Border.Top.Color = def.Border.Top.Color
		style.Border.Right.Color = def.Border.Right.Color
		style.Border.Bottom.Color = def.Border.Bottom.Color
		style.Border.Left.Color = def.Border.Left.Color
	case "border":
		style.Border = def.Border
	case "font-size":
		style.Font.Size = def.Font.Size
	case "font-weight":
		style.Font.Weight = def.Font.Weight
	case "font-style":
		style.Font.Style = def.Font.Style
	case "font-family":
		style.Font.Family = def.Font.Family
	case "flex-direction":
		style.Flex.Direction = def.Flex.Direction
	case "flex-wrap":
		style.Flex.Wrap = def.Flex.Wrap
	case "flex-grow":
		style.Flex.Grow = def.Flex.Grow
	case "flex-shrink":
		style.Flex.Shrink = def.Flex.Shrink
	case "flex-basis":
		style.Flex.Basis, style.Flex.BasisAuto = def.Flex.Basis, def.Flex.BasisAuto
	case "justify-content":
		style.Flex.Justify = def.Flex.Justify
	case "align-items":
		style.Flex.AlignItems = def.Flex.AlignItems
	case "align-content":
		style.Flex.AlignContent = def.Flex.AlignContent
	case "align-self":
		style.Flex.AlignSelf = AlignAuto // "auto" defers to the container's align-items
	case "row-gap":
		style.Gap.Row = def.Gap.Row
	case "column-gap":
		style.Gap.Column = def.Gap.Column
	case "gap":
		style.Gap = def.Gap
	case "grid-template-columns":
		style.Grid.TemplateColumns = def.Grid.TemplateColumns
	case "grid-template-rows":
		style.Grid.TemplateRows = def.Grid.TemplateRows
	case "grid-column-start":
		style.Grid.ColumnStart = def.Grid.ColumnStart
	case "grid-row-start":
		style.Grid.RowStart = def.Grid.RowStart
	case "transform":
		style.Transform = def.Transform
	case "break-before":
		style.BreakBefore = def.BreakBefore
	case "break-after":
		style.BreakAfter = def.BreakAfter
	case "break-inside":
		style.BreakInside = def.BreakInside
	case "widows":
		style.Widows = def.Widows
	case "orphans":
		style.Orphans = def.Orphans
	case "box-shadow":
		style.BoxShadows = nil
	case "clip-path":
		style.ClipPath = def.ClipPath
	case "filter":
		style.Filter = def.Filter
	case "backdrop-filter":
		style.BackdropFilter = def.BackdropFilter
	case "mix-blend-mode":
		style.MixBlendMode = def.MixBlendMode
	case "content":
		style.Content, style.ContentSet = def.Content, def.ContentSet
	case "writing-mode":
		style.WritingModeRejected = def.WritingModeRejected
	}
}
