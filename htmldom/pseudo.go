package htmldom

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/fullbleed/fullbleed/cssom"
)

// SynthesizePseudoContent computes ::before/::after for n, if any rule in c
// targets it, and splices the resulting text node(s) into n.Children at the
// front (::before) or back (::after). attr(name) content resolves against
// n's own attributes, the one piece cssom can't do without an Element.
func SynthesizePseudoContent(n *Node, c *cssom.Cascade) {
	if n.Kind != KindElement || n.Style == nil {
		return
	}
	before := pseudoTextNode(n, c, cssom.PseudoElementBefore)
	after := pseudoTextNode(n, c, cssom.PseudoElementAfter)
	if before == nil && after == nil {
		return
	}
	var children []*Node
	if before != nil {
		children = append(children, before)
	}
	children = append(children, n.Children...)
	if after != nil {
		children = append(children, after)
	}
	n.Children = children
}

func pseudoTextNode(n *Node, c *cssom.Cascade, which cssom.PseudoElement) *Node {
	style, ok := c.ResolvePseudoElement(n, n.Style, which)
	if !ok || !style.ContentSet || style.Content == "" {
		return nil
	}
	text := resolveContentText(n, style.Content)
	if text == "" {
		return nil
	}
	return &Node{Kind: KindText, Text: text, parent: n, Style: &style}
}

func resolveContentText(n *Node, content string) string {
	const attrMarker = "\x00attr:"
	if strings.HasPrefix(content, attrMarker) {
		name := strings.TrimPrefix(content, attrMarker)
		v, _ := n.Attr(name)
		return norm.NFC.String(v)
	}
	return norm.NFC.String(content)
}
