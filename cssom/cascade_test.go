package cssom

import "testing"

// fakeElement is a minimal Element for cascade/selector tests.
type fakeElement struct {
	tag      string
	id       string
	classes  []string
	attrs    map[string]string
	parent   *fakeElement
	index    int
	siblings int
}

func (e *fakeElement) TagName() string    { return e.tag }
func (e *fakeElement) ID() string         { return e.id }
func (e *fakeElement) ClassList() []string { return e.classes }
func (e *fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}
func (e *fakeElement) Parent() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}
func (e *fakeElement) PrecedingSiblingCount() int { return e.index }
func (e *fakeElement) FollowingSiblingCount() int { return e.siblings - e.index - 1 }
func (e *fakeElement) IsOnlyChild() bool          { return e.siblings == 1 }
func (e *fakeElement) HasChildren() bool          { return false }
func (e *fakeElement) IsRoot() bool               { return e.parent == nil }
func (e *fakeElement) PreviousSiblings() []Element {
	var out []Element
	for i := 0; i < e.index; i++ {
		out = append(out, &fakeElement{tag: e.tag, parent: e.parent, index: i, siblings: e.siblings})
	}
	return out
}

func TestSelectorSpecificityOrdering(t *testing.T) {
	sels, err := ParseSelectorList("div, .cls, #id, div.cls")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sels) != 4 {
		t.Fatalf("expected 4 selectors, got %d", len(sels))
	}
	if sels[0].Specificity().Less(sels[2].Specificity()) != true {
		t.Fatalf("expected #id to outrank div")
	}
	if sels[0].Specificity().Less(sels[1].Specificity()) != true {
		t.Fatalf("expected .cls to outrank div")
	}
	if sels[1].Specificity().Less(sels[3].Specificity()) != true {
		t.Fatalf("expected div.cls to outrank .cls")
	}
}

func TestSelectorMatchesDescendantCombinator(t *testing.T) {
	sels, err := ParseSelectorList("section p")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	root := &fakeElement{tag: "section"}
	child := &fakeElement{tag: "p", parent: root}
	if !sels[0].Matches(child) {
		t.Fatalf("expected descendant selector to match")
	}
	sibling := &fakeElement{tag: "p"}
	if sels[0].Matches(sibling) {
		t.Fatalf("expected selector not to match without ancestor")
	}
}

func TestSelectorChildCombinator(t *testing.T) {
	sels, _ := ParseSelectorList("ul > li")
	root := &fakeElement{tag: "ul"}
	mid := &fakeElement{tag: "div", parent: root}
	leaf := &fakeElement{tag: "li", parent: mid}
	if sels[0].Matches(leaf) {
		t.Fatalf("child combinator should not match through an intermediate element")
	}
	direct := &fakeElement{tag: "li", parent: root}
	if !sels[0].Matches(direct) {
		t.Fatalf("child combinator should match a direct child")
	}
}

func TestCascadeAppliesHighestSpecificity(t *testing.T) {
	sheet := ParseStylesheet(`
		p { color: red; }
		#hero { color: blue; }
	`)
	c := NewCascade(sheet)
	el := &fakeElement{tag: "p", id: "hero"}
	style := c.Resolve(el, nil, nil)
	if style.Color != Opaque(0, 0, 255) {
		t.Fatalf("expected id selector to win cascade, got %+v", style.Color)
	}
}

func TestCascadeImportantOverridesSpecificity(t *testing.T) {
	sheet := ParseStylesheet(`
		#hero { color: blue; }
		p { color: red !important; }
	`)
	c := NewCascade(sheet)
	el := &fakeElement{tag: "p", id: "hero"}
	style := c.Resolve(el, nil, nil)
	if style.Color != Opaque(255, 0, 0) {
		t.Fatalf("expected !important to win over higher specificity, got %+v", style.Color)
	}
}

func TestCascadeInheritsColorFromParent(t *testing.T) {
	sheet := ParseStylesheet(`body { color: #112233; }`)
	c := NewCascade(sheet)
	body := &fakeElement{tag: "body"}
	parentStyle := c.Resolve(body, nil, nil)
	span := &fakeElement{tag: "span", parent: body}
	childStyle := c.Resolve(span, &parentStyle, nil)
	if childStyle.Color != parentStyle.Color {
		t.Fatalf("expected span to inherit color from body, got %+v vs %+v", childStyle.Color, parentStyle.Color)
	}
}

func TestParseColorHexAndRGB(t *testing.T) {
	c, ok := ParseColor([]Token{{Kind: TokenHash, Text: "ff0000"}})
	if !ok || c != Opaque(255, 0, 0) {
		t.Fatalf("hex color parse failed: %+v ok=%v", c, ok)
	}
	c2, ok := ParseColor([]Token{
		{Kind: TokenFunctionStart, Text: "rgb"},
		{Kind: TokenNumber, Num: 10},
		{Kind: TokenComma},
		{Kind: TokenNumber, Num: 20},
		{Kind: TokenComma},
		{Kind: TokenNumber, Num: 30},
		{Kind: TokenParenClose},
	})
	if !ok || c2.R != 10 || c2.G != 20 || c2.B != 30 {
		t.Fatalf("rgb() parse failed: %+v ok=%v", c2, ok)
	}
}

func TestResolveLengthExprCalc(t *testing.T) {
	l, isPct, err := ResolveLengthExpr("calc(10pt + 5pt)", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isPct {
		t.Fatalf("expected a resolved length, not a percentage")
	}
	if l.Points() != 15 {
		t.Fatalf("calc(10pt + 5pt) = %v, want 15pt", l)
	}
}

func TestNthChildMatching(t *testing.T) {
	sels, _ := ParseSelectorList("li:nth-child(2n+1)")
	for i := 0; i < 4; i++ {
		el := &fakeElement{tag: "li", index: i, siblings: 4}
		want := i%2 == 0
		if got := sels[0].Matches(el); got != want {
			t.Fatalf("nth-child(2n+1) at index %d = %v, want %v", i, got, want)
		}
	}
}
