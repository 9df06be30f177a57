package cssom

import "strings"

// Element is the read-only view of a DOM node the selector matcher needs.
// htmldom implements this over its own node type; cssom never imports
// htmldom, which keeps the cascade package reusable and avoids an import
// cycle (htmldom imports cssom to apply ComputedStyle, not the reverse).
type Element interface {
	TagName() string
	ID() string
	ClassList() []string
	Attr(name string) (string, bool)
	Parent() Element
	PrecedingSiblingCount() int // index among element siblings, 0-based
	FollowingSiblingCount() int
	IsOnlyChild() bool
	HasChildren() bool
	IsRoot() bool
	// PreviousSiblings supports the adjacent/general sibling combinators
	// ("+", "~").
	PreviousSiblings() []Element
}

// ParseSelectorList splits a comma-separated selector-list string and
// parses each entry.
func ParseSelectorList(s string) ([]*Selector, error) {
	var out []*Selector
	for _, part := range splitTopLevelComma(s) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sel, err := parseSelector(part)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

func splitTopLevelComma(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// parseSelector implements the compound-selector grammar from spec.md 3:
// tag/universal + #id + .class* + [attr op val]* + structural pseudo-class,
// joined by combinators (descendant " ", child ">", adjacent "+", general "~").
func parseSelector(s string) (*Selector, error) {
	sel := &Selector{raw: s}
	fields := tokenizeCombinators(s)
	comb := CombinatorNone
	for _, f := range fields {
		switch f {
		case ">":
			comb = CombinatorChild
			continue
		case "+":
			comb = CombinatorAdjacentSibling
			continue
		case "~":
			comb = CombinatorGeneralSibling
			continue
		}
		c, pe, err := parseCompound(f)
		if err != nil {
			return nil, err
		}
		c.Combinator = comb
		sel.Compounds = append(sel.Compounds, c)
		if pe != PseudoElementNone {
			sel.PseudoElement = pe
		}
		comb = CombinatorDescendant
	}
	return sel, nil
}

// tokenizeCombinators splits a selector string on whitespace while keeping
// explicit ">"/"+"/"~" combinators as standalone fields, respecting
// bracket/paren nesting so attribute values with spaces aren't split.
func tokenizeCombinators(s string) []string {
	var fields []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '[' || r == '(':
			depth++
			cur.WriteRune(r)
		case r == ']' || r == ')':
			depth--
			cur.WriteRune(r)
		case depth > 0:
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		case r == '>' || r == '+' || r == '~':
			flush()
			fields = append(fields, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return fields
}

func parseCompound(s string) (Compound, PseudoElement, error) {
	var c Compound
	pe := PseudoElementNone
	i := 0
	n := len(s)

	// Leading tag/universal.
	if i < n && (isNameStart(rune(s[i])) || s[i] == '*') {
		start := i
		if s[i] == '*' {
			i++
			c.Universal = true
		} else {
			for i < n && isNameChar(rune(s[i])) {
				i++
			}
		}
		c.Tag = s[start:i]
	}

	for i < n {
		switch s[i] {
		case '#':
			i++
			start := i
			for i < n && isNameChar(rune(s[i])) {
				i++
			}
			c.IDs = append(c.IDs, s[start:i])
		case '.':
			i++
			start := i
			for i < n && isNameChar(rune(s[i])) {
				i++
			}
			c.Classes = append(c.Classes, s[start:i])
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, pe, errSelectorSyntax(s)
			}
			attr := s[i+1 : i+end]
			c.Attrs = append(c.Attrs, parseAttrMatcher(attr))
			i += end + 1
		case ':':
			// Pseudo-class or pseudo-element (double colon, or single-colon
			// legacy ::before/::after spelling).
			j := i + 1
			double := false
			if j < n && s[j] == ':' {
				double = true
				j++
			}
			start := j
			for j < n && (isNameChar(rune(s[j])) || s[j] == '(') {
				if s[j] == '(' {
					depth := 1
					j++
					for j < n && depth > 0 {
						if s[j] == '(' {
							depth++
						} else if s[j] == ')' {
							depth--
						}
						j++
					}
					break
				}
				j++
			}
			name := s[start:j]
			switch lowerASCII(stripArgs(name)) {
			case "before":
				pe = PseudoElementBefore
			case "after":
				pe = PseudoElementAfter
			case "marker":
				pe = PseudoElementMarker
			case "first-child":
				c.Structural = PseudoFirstChild
			case "last-child":
				c.Structural = PseudoLastChild
			case "only-child":
				c.Structural = PseudoOnlyChild
			case "empty":
				c.Structural = PseudoEmpty
			case "root":
				c.Structural = PseudoRoot
			default:
				if strings.HasPrefix(lowerASCII(name), "nth-child(") {
					a, b := parseNth(argsOf(name))
					c.Structural = PseudoNthChild
					c.NthA, c.NthB = a, b
				}
			}
			_ = double
			i = j
			continue
		default:
			return c, pe, errSelectorSyntax(s)
		}
	}
	return c, pe, nil
}

func stripArgs(name string) string {
	if idx := strings.IndexByte(name, '('); idx >= 0 {
		return name[:idx]
	}
	return name
}

func argsOf(name string) string {
	start := strings.IndexByte(name, '(')
	end := strings.LastIndexByte(name, ')')
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return name[start+1 : end]
}

// parseNth parses the an+b micro-syntax, including "odd"/"even" keywords.
func parseNth(s string) (a, b int) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "odd":
		return 2, 1
	case "even":
		return 2, 0
	}
	idx := strings.IndexByte(s, 'n')
	if idx < 0 {
		return 0, atoiSafe(s)
	}
	aPart := strings.TrimSpace(s[:idx])
	switch aPart {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		a = atoiSafe(aPart)
	}
	rest := strings.TrimSpace(s[idx+1:])
	if rest == "" {
		return a, 0
	}
	rest = strings.ReplaceAll(rest, " ", "")
	return a, atoiSafe(rest)
}

func atoiSafe(s string) int {
	neg := false
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	v := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		v = v*10 + int(s[i]-'0')
	}
	if neg {
		return -v
	}
	return v
}

func parseAttrMatcher(s string) AttrMatcher {
	ops := []string{"~=", "|=", "^=", "$=", "*=", "="}
	for _, op := range ops {
		if idx := strings.Index(s, op); idx >= 0 {
			name := strings.TrimSpace(s[:idx])
			val := strings.Trim(strings.TrimSpace(s[idx+len(op):]), `"'`)
			var kind AttrOp
			switch op {
			case "~=":
				kind = AttrIncludesWord
			case "|=":
				kind = AttrDashMatch
			case "^=":
				kind = AttrPrefix
			case "$=":
				kind = AttrSuffix
			case "*=":
				kind = AttrSubstring
			default:
				kind = AttrEquals
			}
			return AttrMatcher{Name: name, Op: kind, Value: val}
		}
	}
	return AttrMatcher{Name: strings.TrimSpace(s), Op: AttrPresent}
}

func isNameStart(r rune) bool {
	return r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameChar(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9')
}

type selectorSyntaxError string

func (e selectorSyntaxError) Error() string { return "cssom: invalid selector: " + string(e) }

func errSelectorSyntax(s string) error { return selectorSyntaxError(s) }

// Matches reports whether el satisfies the full selector, walking up the
// ancestor/sibling chain for combinators right to left (the conventional
// selector-matching direction: cheapest rightmost compound first).
func (sel *Selector) Matches(el Element) bool {
	if len(sel.Compounds) == 0 {
		return false
	}
	return matchFrom(sel.Compounds, len(sel.Compounds)-1, el)
}

func matchFrom(compounds []Compound, idx int, el Element) bool {
	if el == nil {
		return false
	}
	c := compounds[idx]
	if !matchCompound(c, el) {
		return false
	}
	if idx == 0 {
		return true
	}
	switch c.Combinator {
	case CombinatorChild:
		return matchFrom(compounds, idx-1, el.Parent())
	case CombinatorDescendant:
		for p := el.Parent(); p != nil; p = p.Parent() {
			if matchFrom(compounds, idx-1, p) {
				return true
			}
		}
		return false
	case CombinatorAdjacentSibling:
		sibs := el.PreviousSiblings()
		if len(sibs) == 0 {
			return false
		}
		return matchFrom(compounds, idx-1, sibs[len(sibs)-1])
	case CombinatorGeneralSibling:
		for _, s := range el.PreviousSiblings() {
			if matchFrom(compounds, idx-1, s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchCompound(c Compound, el Element) bool {
	if c.Tag != "" && !c.Universal && !strings.EqualFold(c.Tag, el.TagName()) {
		return false
	}
	for _, id := range c.IDs {
		if el.ID() != id {
			return false
		}
	}
	if len(c.Classes) > 0 {
		have := el.ClassList()
		for _, want := range c.Classes {
			if !containsClass(have, want) {
				return false
			}
		}
	}
	for _, am := range c.Attrs {
		if !matchAttr(am, el) {
			return false
		}
	}
	switch c.Structural {
	case PseudoFirstChild:
		if el.PrecedingSiblingCount() != 0 {
			return false
		}
	case PseudoLastChild:
		if el.FollowingSiblingCount() != 0 {
			return false
		}
	case PseudoOnlyChild:
		if !el.IsOnlyChild() {
			return false
		}
	case PseudoEmpty:
		if el.HasChildren() {
			return false
		}
	case PseudoRoot:
		if !el.IsRoot() {
			return false
		}
	case PseudoNthChild:
		pos := el.PrecedingSiblingCount() + 1
		if !nthMatches(c.NthA, c.NthB, pos) {
			return false
		}
	}
	return true
}

func nthMatches(a, b, pos int) bool {
	if a == 0 {
		return pos == b
	}
	k := pos - b
	if a > 0 {
		return k >= 0 && k%a == 0
	}
	return k <= 0 && k%a == 0
}

func containsClass(have []string, want string) bool {
	for _, h := range have {
		if h == want {
			return true
		}
	}
	return false
}

func matchAttr(am AttrMatcher, el Element) bool {
	v, ok := el.Attr(am.Name)
	if !ok {
		return false
	}
	switch am.Op {
	case AttrPresent:
		return true
	case AttrEquals:
		return v == am.Value
	case AttrIncludesWord:
		for _, w := range strings.Fields(v) {
			if w == am.Value {
				return true
			}
		}
		return false
	case AttrDashMatch:
		return v == am.Value || strings.HasPrefix(v, am.Value+"-")
	case AttrPrefix:
		return strings.HasPrefix(v, am.Value)
	case AttrSuffix:
		return strings.HasSuffix(v, am.Value)
	case AttrSubstring:
		return strings.Contains(v, am.Value)
	default:
		return false
	}
}
