// Package htmldom lowers forgiving-parsed HTML into a DOM usable by cssom
// selector matching and flow lowering. It never interprets <style> or
// <link rel=stylesheet> content; embedded/external CSS only ever reaches an
// AssetWarning, per spec.md's "CSS comes from AssetBundle, not HTML".
package htmldom

import (
	"strings"

	"github.com/fullbleed/fullbleed/cssom"
)

// NodeKind enumerates the handled node categories.
type NodeKind int

const (
	KindElement NodeKind = iota
	KindText
	KindDocument
)

// Node is one DOM node. It implements cssom.Element directly so the cascade
// never needs a wrapper type.
type Node struct {
	Kind     NodeKind
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
	parent   *Node

	// Style is filled in by the caller (engine/flow) after running the
	// cascade; htmldom only carries the DOM shape.
	Style *cssom.ComputedStyle
}

func (n *Node) TagName() string { return n.Tag }

func (n *Node) ID() string { return n.Attrs["id"] }

func (n *Node) ClassList() []string {
	v, ok := n.Attrs["class"]
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *Node) Parent() cssom.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) elementSiblings() []*Node {
	if n.parent == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.parent.Children {
		if c.Kind == KindElement {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) siblingIndex() int {
	for i, s := range n.elementSiblings() {
		if s == n {
			return i
		}
	}
	return 0
}

func (n *Node) PrecedingSiblingCount() int { return n.siblingIndex() }

func (n *Node) FollowingSiblingCount() int {
	sibs := n.elementSiblings()
	return len(sibs) - n.siblingIndex() - 1
}

func (n *Node) IsOnlyChild() bool { return len(n.elementSiblings()) == 1 }

func (n *Node) HasChildren() bool {
	for _, c := range n.Children {
		if c.Kind == KindElement || (c.Kind == KindText && strings.TrimSpace(c.Text) != "") {
			return true
		}
	}
	return false
}

func (n *Node) IsRoot() bool { return n.parent == nil || n.parent.Kind == KindDocument }

func (n *Node) PreviousSiblings() []cssom.Element {
	idx := n.siblingIndex()
	sibs := n.elementSiblings()
	out := make([]cssom.Element, 0, idx)
	for i := 0; i < idx; i++ {
		out = append(out, sibs[i])
	}
	return out
}

// InlineStyleDeclarations parses the node's `style="..."` attribute, if
// present, into declarations the cascade applies at inline-style priority.
func (n *Node) InlineStyleDeclarations() []*cssom.Declaration {
	raw, ok := n.Attrs["style"]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	sheet := cssom.ParseStylesheet("x{" + raw + "}")
	for _, r := range sheet.Rules {
		return append(r.Normal, r.Important...)
	}
	return nil
}

// Walk visits n and every descendant in document order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
