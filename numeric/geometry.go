package numeric

import "math"

// Point is a 2D point in millipoint space.
type Point struct {
	X, Y Length
}

// Size is a width/height pair in millipoint space.
type Size struct {
	W, H Length
}

// Rect is an axis-aligned box with origin + size, millipoint space.
type Rect struct {
	X, Y, W, H Length
}

// Right returns the rectangle's right edge coordinate.
func (r Rect) Right() Length { return r.X.Add(r.W) }

// Bottom returns the rectangle's bottom edge coordinate.
func (r Rect) Bottom() Length { return r.Y.Add(r.H) }

// Inset shrinks the rect by the given edge insets (CSS box-edge order).
func (r Rect) Inset(top, right, bottom, left Length) Rect {
	return Rect{
		X: r.X.Add(left),
		Y: r.Y.Add(top),
		W: r.W.Sub(left).Sub(right),
		H: r.H.Sub(top).Sub(bottom),
	}
}

// Unit records the original author-specified CSS unit, kept alongside
// resolved Length values so diagnostics/debug output can report what the
// author actually wrote (mirrors layout.Unit in the teacher, generalized to
// the full CSS unit set).
type Unit int

const (
	UnitNone Unit = iota
	UnitPX
	UnitPT
	UnitMM
	UnitCM
	UnitIN
	UnitPC
	UnitPercent
	UnitEM
	UnitREM
	UnitVW
	UnitVH
)

// String returns the canonical CSS unit suffix.
func (u Unit) String() string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPC:
		return "pc"
	case UnitPercent:
		return "%"
	case UnitEM:
		return "em"
	case UnitREM:
		return "rem"
	case UnitVW:
		return "vw"
	case UnitVH:
		return "vh"
	default:
		return ""
	}
}

// Matrix2D is a 2x3 affine transform matrix (a b c d e f), row-major as PDF's
// `cm` operator expects: x' = a*x + c*y + e, y' = b*x + d*y + f.
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix2D { return Matrix2D{A: 1, D: 1} }

// Mul composes m then other (other applied first, as in `this * other`
// meaning points are transformed by other, then by this).
func (m Matrix2D) Mul(o Matrix2D) Matrix2D {
	return Matrix2D{
		A: m.A*o.A + m.C*o.B,
		B: m.B*o.A + m.D*o.B,
		C: m.A*o.C + m.C*o.D,
		D: m.B*o.C + m.D*o.D,
		E: m.A*o.E + m.C*o.F + m.E,
		F: m.B*o.E + m.D*o.F + m.F,
	}
}

// Translate returns a translation matrix.
func Translate(dx, dy float64) Matrix2D { return Matrix2D{A: 1, D: 1, E: dx, F: dy} }

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D { return Matrix2D{A: sx, D: sy} }

// Rotate returns a rotation matrix for angle radians, counter-clockwise
// (PDF user-space convention, y axis up).
func Rotate(radians float64) Matrix2D {
	s, c := sincos(radians)
	return Matrix2D{A: c, B: s, C: -s, D: c}
}

// Skew returns a skew matrix for ax,ay radians along x and y respectively.
func Skew(axRadians, ayRadians float64) Matrix2D {
	return Matrix2D{A: 1, D: 1, B: math.Tan(ayRadians), C: math.Tan(axRadians)}
}

func sincos(r float64) (float64, float64) {
	return math.Sin(r), math.Cos(r)
}
