package cssom

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/fullbleed/fullbleed/numeric"
)

// Value is the resolved form of a typed declaration's value, after
// calc()/min()/max()/clamp() arithmetic and unit resolution. Exactly one of
// the Has* flags is set per value shape; the zero value is "unset".
type Value struct {
	HasLength bool
	Length    numeric.Length
	LengthPct bool // the length came from a bare percentage, basis not yet applied
	Pct       float64

	HasNumber bool
	Number    float64

	HasKeyword bool
	Keyword    string

	HasColor bool
	Color    RGBA

	HasStringList bool
	Strings       []string
}

var (
	valueLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)`},
		{Name: "Unit", Pattern: `(?:px|pt|mm|cm|in|pc|em|rem|vw|vh|%|deg|rad|grad|turn)`},
		{Name: "Ident", Pattern: `[A-Za-z_-][A-Za-z0-9_-]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"|'(?:\\.|[^'])*'`},
		{Name: "Symbol", Pattern: `[(),/+*]`},
	})

	exprParser = participle.MustBuild[calcExpr](
		participle.Lexer(valueLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

// calcExpr is the grammar for the calc()/min()/max()/clamp() arithmetic
// subset named in spec.md 3: sums and products of dimensioned numbers,
// mirroring the teacher's dsl grammar idiom (lexer.MustSimple +
// participle.MustBuild) generalized to CSS arithmetic.
type calcExpr struct {
	Sum *calcSum `parser:"@@"`
}

type calcSum struct {
	Left  *calcProduct   `parser:"@@"`
	Ops   []string       `parser:"( @('+' | '-')"`
	Right []*calcProduct `parser:"  @@ )*"`
}

type calcProduct struct {
	Left  *calcAtom   `parser:"@@"`
	Ops   []string    `parser:"( @('*' | '/')"`
	Right []*calcAtom `parser:"  @@ )*"`
}

type calcAtom struct {
	Func   *calcFunc   `parser:"  @@"`
	Number *calcNumber `parser:"| @@"`
	Paren  *calcExpr   `parser:"| '(' @@ ')'"`
}

type calcFunc struct {
	Name string      `parser:"@Ident '('"`
	Args []*calcExpr `parser:"@@ (',' @@)* ')'"`
}

type calcNumber struct {
	Sign  string `parser:"@'-'?"`
	Value string `parser:"@Number"`
	Unit  string `parser:"@Unit?"`
}

// resolvedScalar is an intermediate calc evaluation result: a magnitude plus
// the unit kind it was computed in (lengths and bare numbers don't mix).
type resolvedScalar struct {
	isLength bool
	isPct    bool
	millis   numeric.Length
	pct      float64
	bare     float64
}

func scalarFromNumber(n *calcNumber) resolvedScalar {
	v := parseFloatSafe(n.Value)
	if n.Sign == "-" {
		v = -v
	}
	switch n.Unit {
	case "":
		return resolvedScalar{bare: v}
	case "%":
		return resolvedScalar{isPct: true, pct: v}
	case "px":
		return resolvedScalar{isLength: true, millis: numeric.FromPoints(v * 72 / 96)}
	case "pt":
		return resolvedScalar{isLength: true, millis: numeric.FromPoints(v)}
	case "mm":
		return resolvedScalar{isLength: true, millis: numeric.FromMillimeters(v)}
	case "cm":
		return resolvedScalar{isLength: true, millis: numeric.FromMillimeters(v * 10)}
	case "in":
		return resolvedScalar{isLength: true, millis: numeric.FromInches(v)}
	case "pc":
		return resolvedScalar{isLength: true, millis: numeric.FromPoints(v * 12)}
	default:
		// deg/rad/grad/turn and em/rem/vw/vh pass through as bare magnitudes;
		// no font or viewport context is applied to em/rem/vw/vh here.
		return resolvedScalar{bare: v}
	}
}

func (a resolvedScalar) add(b resolvedScalar, sub bool) resolvedScalar {
	sign := 1.0
	if sub {
		sign = -1
	}
	switch {
	case a.isLength || b.isLength:
		bm := b.millis
		if sub {
			bm = bm.Neg()
		}
		return resolvedScalar{isLength: true, millis: a.millis.Add(bm)}
	case a.isPct || b.isPct:
		return resolvedScalar{isPct: true, pct: a.pct + sign*b.pct}
	default:
		return resolvedScalar{bare: a.bare + sign*b.bare}
	}
}

func (a resolvedScalar) mulDiv(b resolvedScalar, div bool) resolvedScalar {
	factor := b.bare
	if div && factor != 0 {
		factor = 1 / factor
	} else if div {
		factor = 0
	}
	if !div {
		factor = b.bare
	}
	switch {
	case a.isLength:
		return resolvedScalar{isLength: true, millis: a.millis.MulScalar(factor)}
	case a.isPct:
		return resolvedScalar{isPct: true, pct: a.pct * factor}
	default:
		if div {
			if b.bare == 0 {
				return resolvedScalar{bare: 0}
			}
			return resolvedScalar{bare: a.bare / b.bare}
		}
		return resolvedScalar{bare: a.bare * b.bare}
	}
}

func evalSum(s *calcSum) resolvedScalar {
	acc := evalProduct(s.Left)
	for i, op := range s.Ops {
		acc = acc.add(evalProduct(s.Right[i]), op == "-")
	}
	return acc
}

func evalProduct(p *calcProduct) resolvedScalar {
	acc := evalAtom(p.Left)
	for i, op := range p.Ops {
		acc = acc.mulDiv(evalAtom(p.Right[i]), op == "/")
	}
	return acc
}

func evalAtom(a *calcAtom) resolvedScalar {
	switch {
	case a.Number != nil:
		return scalarFromNumber(a.Number)
	case a.Paren != nil:
		return evalSum(a.Paren.Sum)
	case a.Func != nil:
		return evalFunc(a.Func)
	default:
		return resolvedScalar{}
	}
}

func evalFunc(f *calcFunc) resolvedScalar {
	vals := make([]resolvedScalar, len(f.Args))
	for i, arg := range f.Args {
		vals[i] = evalSum(arg.Sum)
	}
	switch lowerASCII(f.Name) {
	case "calc":
		if len(vals) == 1 {
			return vals[0]
		}
		return resolvedScalar{}
	case "min":
		return reduceScalars(vals, func(a, b resolvedScalar) bool { return a.compare(b) <= 0 })
	case "max":
		return reduceScalars(vals, func(a, b resolvedScalar) bool { return a.compare(b) >= 0 })
	case "clamp":
		if len(vals) != 3 {
			return resolvedScalar{}
		}
		lo, val, hi := vals[0], vals[1], vals[2]
		if val.compare(lo) < 0 {
			return lo
		}
		if val.compare(hi) > 0 {
			return hi
		}
		return val
	case "abs":
		if len(vals) != 1 {
			return resolvedScalar{}
		}
		v := vals[0]
		if v.isLength {
			v.millis = v.millis.Abs()
		} else if v.isPct {
			if v.pct < 0 {
				v.pct = -v.pct
			}
		} else if v.bare < 0 {
			v.bare = -v.bare
		}
		return v
	default:
		return resolvedScalar{}
	}
}

func (a resolvedScalar) compare(b resolvedScalar) int {
	var av, bv float64
	switch {
	case a.isLength:
		av = float64(a.millis.Millis())
	case a.isPct:
		av = a.pct
	default:
		av = a.bare
	}
	switch {
	case b.isLength:
		bv = float64(b.millis.Millis())
	case b.isPct:
		bv = b.pct
	default:
		bv = b.bare
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func reduceScalars(vals []resolvedScalar, keepLeft func(a, b resolvedScalar) bool) resolvedScalar {
	if len(vals) == 0 {
		return resolvedScalar{}
	}
	acc := vals[0]
	for _, v := range vals[1:] {
		if !keepLeft(acc, v) {
			acc = v
		}
	}
	return acc
}

// ResolveLengthExpr parses and evaluates a calc()-family length expression,
// returning a Length resolved against basis for any percentage terms
// encountered (percentages and lengths may only mix once a basis is known;
// bare percentage results are reported via LengthPct on the caller's Value).
func ResolveLengthExpr(expr string, basis numeric.Length) (numeric.Length, bool, error) {
	ast, err := exprParser.ParseString("", expr)
	if err != nil {
		return 0, false, err
	}
	r := evalSum(ast.Sum)
	switch {
	case r.isLength:
		return r.millis, false, nil
	case r.isPct:
		return numeric.Percent(r.pct, basis), true, nil
	default:
		return numeric.FromPoints(r.bare), false, nil
	}
}

func parseFloatSafe(s string) float64 {
	var sign float64 = 1
	i := 0
	if i < len(s) && s[i] == '-' {
		sign = -1
		i++
	}
	var intPart, fracPart float64
	var fracDiv float64 = 1
	seenDot := false
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			continue
		}
		d := float64(c - '0')
		if seenDot {
			fracDiv *= 10
			fracPart += d / fracDiv
		} else {
			intPart = intPart*10 + d
		}
	}
	return sign * (intPart + fracPart)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
