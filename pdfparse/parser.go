package pdfparse

import (
	"bytes"
	"fmt"
	"strconv"
)

func isWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0a, 0x0c, 0x0d, 0x20:
		return true
	default:
		return false
	}
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return false
	}
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

// resolver looks up an indirect object by reference, used when a stream's
// /Length (or any other value this parser needs eagerly) is itself an
// indirect reference rather than a literal integer.
type resolver func(Ref) (Object, bool)

// parser is a recursive-descent reader over one PDF body (a whole file, or
// the isolated byte range between "obj" and "endobj"). It has no separate
// tokenization pass: parseObject consumes exactly the bytes one object
// occupies and returns the scanner positioned just past it, which keeps
// the ref-vs-two-numbers and dict-vs-stream lookaheads simple.
type parser struct {
	data     []byte
	pos      int
	resolve  resolver
}

func newParser(data []byte, resolve resolver) *parser {
	return &parser{data: data, resolve: resolve}
}

func (p *parser) skipWhite() {
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if b == '%' {
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		if isWhitespace(b) {
			p.pos++
			continue
		}
		break
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

// parseObject parses exactly one object starting at the current position
// (after skipping leading whitespace/comments).
func (p *parser) parseObject() (Object, error) {
	p.skipWhite()
	b, ok := p.peek()
	if !ok {
		return Object{}, fmt.Errorf("pdfparse: unexpected end of input")
	}
	switch {
	case b == '/':
		return p.parseName()
	case b == '(':
		return p.parseLiteralString()
	case b == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			return p.parseDictOrStream()
		}
		return p.parseHexString()
	case b == '[':
		return p.parseArray()
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return p.parseNumberOrRef()
	default:
		return p.parseKeywordObject()
	}
}

func (p *parser) parseName() (Object, error) {
	p.pos++ // consume '/'
	start := p.pos
	var buf []byte
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		if p.data[p.pos] == '#' && p.pos+2 < len(p.data) {
			hi, hiOK := hexDigit(p.data[p.pos+1])
			lo, loOK := hexDigit(p.data[p.pos+2])
			if hiOK && loOK {
				buf = append(buf, p.data[start:p.pos]...)
				buf = append(buf, byte(hi<<4|lo))
				p.pos += 3
				start = p.pos
				continue
			}
		}
		p.pos++
	}
	buf = append(buf, p.data[start:p.pos]...)
	return Object{Kind: KindName, Name: string(buf)}, nil
}

func hexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	default:
		return 0, false
	}
}

func (p *parser) parseLiteralString() (Object, error) {
	p.pos++ // consume '('
	var buf bytes.Buffer
	depth := 1
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.pos >= len(p.data) {
				break
			}
			e := p.data[p.pos]
			switch e {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(e)
			case '\r':
				if p.pos+1 < len(p.data) && p.data[p.pos+1] == '\n' {
					p.pos++
				}
			case '\n':
				// escaped newline: line continuation, emits nothing
			default:
				if e >= '0' && e <= '7' {
					val := 0
					n := 0
					for n < 3 && p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '7' {
						val = val*8 + int(p.data[p.pos]-'0')
						p.pos++
						n++
					}
					p.pos--
					buf.WriteByte(byte(val))
				} else {
					buf.WriteByte(e)
				}
			}
			p.pos++
		case '(':
			depth++
			buf.WriteByte(c)
			p.pos++
		case ')':
			depth--
			p.pos++
			if depth == 0 {
				return Object{Kind: KindString, Str: buf.Bytes()}, nil
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
			p.pos++
		}
	}
	return Object{}, fmt.Errorf("pdfparse: unterminated literal string")
}

func (p *parser) parseHexString() (Object, error) {
	p.pos++ // consume '<'
	var digits []byte
	for p.pos < len(p.data) && p.data[p.pos] != '>' {
		c := p.data[p.pos]
		if !isWhitespace(c) {
			digits = append(digits, c)
		}
		p.pos++
	}
	if p.pos >= len(p.data) {
		return Object{}, fmt.Errorf("pdfparse: unterminated hex string")
	}
	p.pos++ // consume '>'
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		hi, _ := hexDigit(digits[2*i])
		lo, _ := hexDigit(digits[2*i+1])
		out[i] = byte(hi<<4 | lo)
	}
	return Object{Kind: KindString, Str: out}, nil
}

func (p *parser) parseArray() (Object, error) {
	p.pos++ // consume '['
	var elems []Object
	for {
		p.skipWhite()
		b, ok := p.peek()
		if !ok {
			return Object{}, fmt.Errorf("pdfparse: unterminated array")
		}
		if b == ']' {
			p.pos++
			return Object{Kind: KindArray, Array: elems}, nil
		}
		obj, err := p.parseObject()
		if err != nil {
			return Object{}, err
		}
		elems = append(elems, obj)
	}
}

func (p *parser) parseDictOrStream() (Object, error) {
	p.pos += 2 // consume '<<'
	d := NewDict()
	for {
		p.skipWhite()
		b, ok := p.peek()
		if !ok {
			return Object{}, fmt.Errorf("pdfparse: unterminated dictionary")
		}
		if b == '>' {
			if p.pos+1 < len(p.data) && p.data[p.pos+1] == '>' {
				p.pos += 2
				break
			}
			return Object{}, fmt.Errorf("pdfparse: malformed dictionary terminator")
		}
		if b != '/' {
			return Object{}, fmt.Errorf("pdfparse: expected name key in dictionary, got %q", b)
		}
		keyObj, err := p.parseName()
		if err != nil {
			return Object{}, err
		}
		val, err := p.parseObject()
		if err != nil {
			return Object{}, err
		}
		d.Set(keyObj.Name, val)
	}

	save := p.pos
	p.skipWhite()
	if p.matchKeyword("stream") {
		if p.pos < len(p.data) && p.data[p.pos] == '\r' {
			p.pos++
		}
		if p.pos < len(p.data) && p.data[p.pos] == '\n' {
			p.pos++
		}
		length, err := p.streamLength(d)
		if err != nil {
			return Object{}, err
		}
		if p.pos+length > len(p.data) {
			return Object{}, fmt.Errorf("pdfparse: stream length %d overruns object data", length)
		}
		raw := p.data[p.pos : p.pos+length]
		p.pos += length
		p.skipWhite()
		if !p.matchKeyword("endstream") {
			return Object{}, fmt.Errorf("pdfparse: expected endstream")
		}
		decoded, err := decodeStream(d, raw)
		if err != nil {
			return Object{}, err
		}
		return Object{Kind: KindStream, StreamDict: d, StreamRaw: decoded}, nil
	}
	p.pos = save
	return Object{Kind: KindDict, Dict: d}, nil
}

func (p *parser) streamLength(d *Dict) (int, error) {
	v, ok := d.Get("Length")
	if !ok {
		return 0, fmt.Errorf("pdfparse: stream dictionary missing /Length")
	}
	if n, ok := v.Number(); ok {
		return int(n), nil
	}
	if v.Kind == KindRef && p.resolve != nil {
		if resolved, ok := p.resolve(v.Ref); ok {
			if n, ok := resolved.Number(); ok {
				return int(n), nil
			}
		}
	}
	return 0, fmt.Errorf("pdfparse: stream /Length did not resolve to a number")
}

func (p *parser) matchKeyword(kw string) bool {
	if p.pos+len(kw) > len(p.data) {
		return false
	}
	if string(p.data[p.pos:p.pos+len(kw)]) != kw {
		return false
	}
	end := p.pos + len(kw)
	if end < len(p.data) && isRegular(p.data[end]) {
		return false
	}
	p.pos = end
	return true
}

// parseNumberOrRef disambiguates a bare number, a real, and "N G R" by
// scanning ahead: PDF references only ever appear as two non-negative
// integers followed by the literal keyword R.
func (p *parser) parseNumberOrRef() (Object, error) {
	first, isInt, err := p.scanNumber()
	if err != nil {
		return Object{}, err
	}
	if isInt && first >= 0 {
		save := p.pos
		p.skipWhite()
		if b, ok := p.peek(); ok && b >= '0' && b <= '9' {
			secondStart := p.pos
			second, secondIsInt, err2 := p.scanNumber()
			if err2 == nil && secondIsInt && second >= 0 {
				afterSecond := p.pos
				p.skipWhite()
				if p.matchKeyword("R") {
					return Object{Kind: KindRef, Ref: Ref{Num: int(first), Gen: int(second)}}, nil
				}
				p.pos = afterSecond
			}
			p.pos = secondStart
		}
		p.pos = save
	}
	if isInt {
		return Object{Kind: KindInt, Int: int64(first)}, nil
	}
	return Object{Kind: KindReal, Real: first}, nil
}

func (p *parser) scanNumber() (float64, bool, error) {
	start := p.pos
	if b, ok := p.peek(); ok && (b == '+' || b == '-') {
		p.pos++
	}
	isInt := true
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if b >= '0' && b <= '9' {
			p.pos++
			continue
		}
		if b == '.' {
			isInt = false
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, false, fmt.Errorf("pdfparse: expected number")
	}
	text := string(p.data[start:p.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false, fmt.Errorf("pdfparse: malformed number %q: %w", text, err)
	}
	return v, isInt, nil
}

func (p *parser) parseKeywordObject() (Object, error) {
	start := p.pos
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return Object{}, fmt.Errorf("pdfparse: unexpected byte %q at offset %d", p.data[p.pos], p.pos)
	}
	switch string(p.data[start:p.pos]) {
	case "true":
		return Object{Kind: KindBool, Bool: true}, nil
	case "false":
		return Object{Kind: KindBool, Bool: false}, nil
	case "null":
		return Object{Kind: KindNull}, nil
	default:
		return Object{}, fmt.Errorf("pdfparse: unrecognized keyword %q", p.data[start:p.pos])
	}
}
