package htmldom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/fullbleed/fullbleed/cssom"
)

// AssetWarningKind enumerates the ignored-content categories callers should
// surface as diagnostics (htmldom never resolves these itself).
type AssetWarningKind int

const (
	WarnStylesheetLink AssetWarningKind = iota
	WarnFontPreload
	WarnStyleTag
	WarnScript
)

// AssetWarning is one ignored-content note, mirroring the teacher-adjacent
// original's HtmlAssetWarning shape (scan_html_asset_warnings).
type AssetWarning struct {
	Kind    AssetWarningKind
	Message string
	Details []string
}

// Document is the parsed result: a root element node plus any asset
// warnings collected during the walk.
type Document struct {
	Root     *Node
	Warnings []AssetWarning
}

// Parse forgivingly parses an HTML fragment/document via the HTML5
// tokenizer in golang.org/x/net/html (promoted here from the teacher's
// indirect dependency, since no pack repo happened to use it directly), and
// scans for the handful of HTML constructs fullbleed deliberately ignores:
// <link rel=stylesheet>, font preloads, <style> blocks and <script src>.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	bodyNode := findBody(root)
	if bodyNode == nil {
		bodyNode = root
	}
	doc.Root = convert(bodyNode, nil)
	doc.Warnings = scanAssetWarnings(root)
	return doc, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}

func convert(n *html.Node, parent *Node) *Node {
	switch n.Type {
	case html.ElementNode:
		node := &Node{Kind: KindElement, Tag: strings.ToLower(n.Data), Attrs: map[string]string{}, parent: parent}
		for _, a := range n.Attr {
			node.Attrs[strings.ToLower(a.Key)] = a.Val
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convertSkippingIgnored(c, node); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	case html.TextNode:
		return &Node{Kind: KindText, Text: NormalizeWhitespace(n.Data), parent: parent}
	default:
		var firstElement *Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convertSkippingIgnored(c, parent); child != nil {
				if firstElement == nil {
					firstElement = child
				}
			}
		}
		return firstElement
	}
}

func convertSkippingIgnored(n *html.Node, parent *Node) *Node {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "style", "script", "link", "meta", "head", "title":
			return nil
		}
	}
	if n.Type == html.CommentNode || n.Type == html.DoctypeNode {
		return nil
	}
	return convert(n, parent)
}

// NormalizeWhitespace collapses runs of HTML whitespace into a single
// space, matching the forgiving-parse requirement that inline text
// collapses the way a browser's `white-space: normal` does.
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func scanAssetWarnings(root *html.Node) []AssetWarning {
	var (
		stylesheetLinks []string
		fontLinks       []string
		styleTagCount   int
		scriptSrcs      []string
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				rel := strings.ToLower(attrOf(n, "rel"))
				href := attrOf(n, "href")
				if strings.Contains(rel, "stylesheet") {
					stylesheetLinks = append(stylesheetLinks, href)
				} else if strings.Contains(rel, "preload") || strings.Contains(rel, "prefetch") {
					as := strings.ToLower(attrOf(n, "as"))
					typ := strings.ToLower(attrOf(n, "type"))
					if as == "font" || strings.HasPrefix(typ, "font/") {
						fontLinks = append(fontLinks, href)
					}
				}
			case "style":
				styleTagCount++
			case "script":
				if src := attrOf(n, "src"); src != "" {
					scriptSrcs = append(scriptSrcs, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var warnings []AssetWarning
	if len(stylesheetLinks) > 0 {
		warnings = append(warnings, AssetWarning{
			Kind:    WarnStylesheetLink,
			Message: "HTML <link rel=\"stylesheet\"> detected; external CSS is ignored, register styles via AssetRegistry instead.",
			Details: stylesheetLinks,
		})
	}
	if len(fontLinks) > 0 {
		warnings = append(warnings, AssetWarning{
			Kind:    WarnFontPreload,
			Message: "HTML font preload detected; font preloads are ignored, register fonts via AssetRegistry instead.",
			Details: fontLinks,
		})
	}
	if styleTagCount > 0 {
		warnings = append(warnings, AssetWarning{
			Kind:    WarnStyleTag,
			Message: "HTML contains embedded <style> blocks; embedded CSS is ignored, register styles via AssetRegistry instead.",
		})
	}
	if len(scriptSrcs) > 0 {
		warnings = append(warnings, AssetWarning{
			Kind:    WarnScript,
			Message: "HTML <script src=...> detected; scripts are never executed.",
			Details: scriptSrcs,
		})
	}
	return warnings
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// ApplyCascade computes and attaches ComputedStyle to every node in the
// tree, in document order so a parent's style is always resolved before its
// children (required for property inheritance).
func ApplyCascade(n *Node, c *cssom.Cascade, parentStyle *cssom.ComputedStyle) {
	if n.Kind != KindElement {
		return
	}
	style := c.Resolve(n, parentStyle, n.InlineStyleDeclarations())
	n.Style = &style
	for _, child := range n.Children {
		ApplyCascade(child, c, n.Style)
	}
}

// TextContent concatenates the text of every descendant text node in
// document order; it does no whitespace collapsing of its own (Parse has
// already normalized each text node).
func TextContent(n *Node) string {
	var b strings.Builder
	n.Walk(func(c *Node) {
		if c.Kind == KindText {
			b.WriteString(c.Text)
		}
	})
	return b.String()
}
