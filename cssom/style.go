// Package cssom implements the deterministic CSS cascade: parsing,
// selector matching, cascade resolution, custom-property graph resolution,
// and the computed-style snapshot consumed by htmldom/flow.
package cssom

import "github.com/fullbleed/fullbleed/numeric"

// Display enumerates the lowering-relevant display modes (4.1/4.2).
type Display int

const (
	DisplayNone Display = iota
	DisplayBlock
	DisplayInline
	DisplayInlineBlock
	DisplayFlex
	DisplayGrid
	DisplayTable
	DisplayTableRow
	DisplayTableCell
	DisplayTableHeaderGroup
	DisplayTableRowGroup
	DisplayListItem
)

// Position enumerates the CSS position modes.
type Position int

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
)

// FlexDirection enumerates main-axis direction.
type FlexDirection int

const (
	FlexRow FlexDirection = iota
	FlexRowReverse
	FlexColumn
	FlexColumnReverse
)

// FlexWrap enumerates wrap behavior.
type FlexWrap int

const (
	FlexNoWrap FlexWrap = iota
	FlexWrapOn
	FlexWrapReverse
)

// Align enumerates justify/align keyword values used across flex/grid.
type Align int

const (
	AlignAuto Align = iota
	AlignStart
	AlignEnd
	AlignCenter
	AlignStretch
	AlignSpaceBetween
	AlignSpaceAround
	AlignSpaceEvenly
	AlignBaseline
)

// BreakMode enumerates break-before/after/inside values.
type BreakMode int

const (
	BreakAuto BreakMode = iota
	BreakAlways
	BreakPage
	BreakAvoid
)

// Overflow enumerates overflow handling.
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowClip
)

// TableLayout enumerates table-layout: auto measures column widths from
// cell content, fixed sizes columns from the first row (or explicit
// widths) alone so wide later rows never reflow earlier columns.
type TableLayout int

const (
	TableLayoutAuto TableLayout = iota
	TableLayoutFixed
)

// FontStyle enumerates font-style.
type FontStyle int

const (
	FontStyleNormal FontStyle = iota
	FontStyleItalic
	FontStyleOblique
)

// RGBA is a straightforward 0-255 (0-1 for alpha) color; matches
// layout.Color in the teacher generalized with an alpha channel.
type RGBA struct {
	R, G, B uint8
	A       float64
}

// Opaque returns the fully-opaque black-safe default used when a color
// fails to resolve.
func Opaque(r, g, b uint8) RGBA { return RGBA{R: r, G: g, B: b, A: 1} }

// GradientKind enumerates background gradient operators.
type GradientKind int

const (
	GradientLinear GradientKind = iota
	GradientRadial
	GradientConic
)

// GradientStop is one color-stop in a gradient op.
type GradientStop struct {
	Color    RGBA
	Position float64 // 0..1, along gradient axis
}

// Gradient describes one background gradient layer.
type Gradient struct {
	Kind    GradientKind
	AngleDeg float64 // linear: rotation; conic: starting angle
	Stops   []GradientStop
}

// BoxEdge carries a length + a per-edge color for border edges.
type BoxEdge struct {
	Width numeric.Length
	Color RGBA
}

// BoxSides groups the four edges of margin/padding/border.
type BoxSides struct {
	Top, Right, Bottom, Left numeric.Length
}

// BorderSides groups border edges with color.
type BorderSides struct {
	Top, Right, Bottom, Left BoxEdge
}

// Inset groups top/right/bottom/left offsets for positioned elements.
type Inset struct {
	Top, Right, Bottom, Left numeric.Length
	TopAuto, RightAuto, BottomAuto, LeftAuto bool
}

// TrackSize describes one grid track (fixed length, percentage, fr unit, or
// auto); baseline solver per 4.4 supports fixed/percentage/repeat(n,T).
type TrackSize struct {
	Fixed   numeric.Length
	Percent float64
	Fr      float64
	Auto    bool
	IsFr    bool
	IsPct   bool
}

// FlexProps groups the flex-related computed properties.
type FlexProps struct {
	Direction    FlexDirection
	Wrap         FlexWrap
	Grow         float64
	Shrink       float64
	BasisAuto    bool
	Basis        numeric.Length
	Justify      Align
	AlignItems   Align
	AlignContent Align
	AlignSelf    Align
}

// GridProps groups grid-related computed properties.
type GridProps struct {
	TemplateRows    []TrackSize
	TemplateColumns []TrackSize
	ColumnStart, RowStart int // 0 = auto
}

// Gap groups row/column gap lengths shared by flex and grid.
type Gap struct {
	Row, Column numeric.Length
}

// Font groups computed font properties.
type Font struct {
	Family []string
	Size   numeric.Length
	Weight int // 100-900, CSS numeric weight
	Style  FontStyle
}

// Background groups computed background properties.
type Background struct {
	Color     RGBA
	Gradients []Gradient
}

// Transform is one function in the `transform` list.
type TransformKind int

const (
	TransformTranslate TransformKind = iota
	TransformScale
	TransformRotate
	TransformSkew
	TransformSkewX
	TransformSkewY
	TransformMatrix
)

// TransformOp is a single transform-list function with resolved operands.
type TransformOp struct {
	Kind             TransformKind
	X, Y             numeric.Length // translate
	SX, SY           float64        // scale
	AngleRadians     float64        // rotate
	AX, AY           float64        // skew
	A, B, C, D, E, F float64        // matrix
}

// Filter groups blur/saturate filter operations (4.1 KnownLoss fallback
// territory: unsupported filter functions degrade deterministically).
type Filter struct {
	BlurPx      float64
	SaturatePct float64
	HasBlur     bool
	HasSaturate bool
}

// BoxShadow is one shadow layer.
type BoxShadow struct {
	OffsetX, OffsetY, Blur, Spread numeric.Length
	Color                          RGBA
	Inset                          bool
}

// ClipPath models the baseline inset() clip-path form named in 3.
type ClipPath struct {
	Set                      bool
	Top, Right, Bottom, Left numeric.Length
}

// ComputedStyle is the per-element immutable snapshot produced by the
// cascade (4.1), matching the field list in spec.md 3.
type ComputedStyle struct {
	Display Display

	Margin  BoxSides
	Padding BoxSides
	Border  BorderSides

	Width, MinWidth, MaxWidth    numeric.Length
	Height, MinHeight, MaxHeight numeric.Length
	WidthAuto, HeightAuto        bool

	Position Position
	Inset    Inset

	Flex FlexProps
	Grid GridProps
	Gap  Gap

	Font  Font
	Color RGBA

	Background Background

	Transform       []TransformOp
	TransformOriginX, TransformOriginY numeric.Length

	Opacity float64

	Overflow Overflow

	BreakBefore, BreakAfter, BreakInside BreakMode

	ZIndex    int
	ZIndexSet bool

	ClipPath ClipPath
	Filter   Filter
	BackdropFilter Filter
	MixBlendMode   string
	BoxShadows     []BoxShadow

	TableLayout TableLayout

	// Widows and Orphans set the minimum line counts a paragraph split may
	// leave on either side of a page break (4.5); CSS initial value is 2.
	Widows, Orphans int

	// Custom carries unknown/custom-property tokens retained verbatim for
	// fallback per 3 "Unknown tokens retained as raw custom-property
	// strings".
	Custom map[string]string

	// WritingModeRejected records the Open Question (b) decision: non
	// horizontal-tb writing modes are diagnosed and ignored rather than
	// modeled.
	WritingModeRejected bool

	// Content holds the resolved `content` property value for ::before/
	// ::after pseudo-elements; empty (and ContentSet false) means no
	// generated content.
	Content    string
	ContentSet bool
}

// DefaultComputedStyle returns the initial values used as the root of
// inheritance (CSS-wide keyword `initial` targets, and the base the cascade
// starts every element from before inherited properties are copied down).
func DefaultComputedStyle() ComputedStyle {
	return ComputedStyle{
		Display:    DisplayInline,
		Color:      Opaque(0, 0, 0),
		Opacity:    1,
		WidthAuto:  true,
		HeightAuto: true,
		Font: Font{
			Family: []string{"sans-serif"},
			Size:   numeric.FromPoints(12),
			Weight: 400,
			Style:  FontStyleNormal,
		},
		Flex: FlexProps{
			Shrink:       1,
			Justify:      AlignStart,
			AlignItems:   AlignStretch,
			AlignContent: AlignStretch,
		},
		Widows:  2,
		Orphans: 2,
		Custom:  map[string]string{},
	}
}
