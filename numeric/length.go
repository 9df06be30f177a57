// Package numeric implements the fixed-point scalar used by every geometry
// decision in the layout core. All arithmetic here is integer and saturating
// so that wrap/split results never depend on float rounding order.
package numeric

import (
	"fmt"
	"math"
)

// Length is a millipoint scalar: 1 unit = 1/1000 of a PDF point. Layout
// arithmetic stays in this type from cascade-resolved lengths through
// wrap/split; conversion to float64 only happens at paint/PDF emission.
type Length int64

const (
	// Zero is the additive identity.
	Zero Length = 0

	millisPerPoint = 1000
	millisPerInch  = 72 * millisPerPoint
	millisPerCM    = millisPerInch * 100 / 254.0
	millisPerMM    = millisPerCM / 10
)

// FromPoints builds a Length from a point value (used at CSS value-resolution
// boundaries where the source is already a float).
func FromPoints(pt float64) Length {
	return Length(roundHalfEven(pt * millisPerPoint))
}

// FromMillimeters builds a Length from millimeters.
func FromMillimeters(mm float64) Length {
	return Length(roundHalfEven(mm * float64(millisPerMM)))
}

// FromInches builds a Length from inches.
func FromInches(in float64) Length {
	return Length(roundHalfEven(in * float64(millisPerInch)))
}

// FromMillis builds a Length directly from a millipoint integer count.
func FromMillis(m int64) Length { return Length(m) }

// Millis returns the raw millipoint count.
func (l Length) Millis() int64 { return int64(l) }

// Points converts to a float64 point value. Only used at draw/paint and PDF
// emission boundaries, never inside wrap/split decisions.
func (l Length) Points() float64 { return float64(l) / millisPerPoint }

// Millimeters converts to a float64 millimeter value.
func (l Length) Millimeters() float64 { return float64(l) / float64(millisPerMM) }

// IsZero reports whether the length is exactly zero.
func (l Length) IsZero() bool { return l == 0 }

// Add returns l+r, saturating at the int64 bounds instead of wrapping.
func (l Length) Add(r Length) Length {
	sum := int64(l) + int64(r)
	if (r > 0 && sum < int64(l)) || (r < 0 && sum > int64(l)) {
		return saturate(r > 0)
	}
	return Length(sum)
}

// Sub returns l-r, saturating at the int64 bounds.
func (l Length) Sub(r Length) Length { return l.Add(-r) }

// Neg returns -l.
func (l Length) Neg() Length {
	if l == math.MinInt64 {
		return math.MaxInt64
	}
	return -l
}

// MulScalar scales l by a float factor (used for flex grow/shrink ratios,
// percentage basis resolution, and line-height factors), rounding
// half-to-even at the boundary.
func (l Length) MulScalar(factor float64) Length {
	return Length(roundHalfEven(float64(l) * factor))
}

// DivScalar divides l by a float factor.
func (l Length) DivScalar(factor float64) Length {
	if factor == 0 {
		return 0
	}
	return Length(roundHalfEven(float64(l) / factor))
}

// Percent resolves a percentage against an explicit containing-block basis,
// per spec.md 4.3 "Percentages resolve against an explicit containing-block
// basis passed by parents during wrap."
func Percent(pct float64, basis Length) Length {
	return basis.MulScalar(pct / 100)
}

// Min returns the smaller of a, b.
func Min(a, b Length) Length {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a, b.
func Max(a, b Length) Length {
	if a > b {
		return a
	}
	return b
}

// Clamp restricts v to [lo, hi]; if lo > hi, lo wins (matches CSS clamp()'s
// defined behavior of using min as the floor unconditionally).
func Clamp(v, lo, hi Length) Length {
	if hi < lo {
		hi = lo
	}
	return Max(lo, Min(v, hi))
}

// Abs returns the absolute value.
func (l Length) Abs() Length {
	if l < 0 {
		return l.Neg()
	}
	return l
}

func (l Length) String() string {
	return fmt.Sprintf("%.3fpt", l.Points())
}

func saturate(positive bool) Length {
	if positive {
		return math.MaxInt64
	}
	return math.MinInt64
}

// roundHalfEven implements banker's rounding, the canonical rounding rule
// spec.md 3 mandates at paint/PDF emission boundaries.
func roundHalfEven(v float64) int64 {
	floor := math.Floor(v)
	diff := v - floor
	switch {
	case diff < 0.5:
		return int64(floor)
	case diff > 0.5:
		return int64(floor) + 1
	default:
		// Exactly .5: round to even.
		fi := int64(floor)
		if fi%2 == 0 {
			return fi
		}
		return fi + 1
	}
}
