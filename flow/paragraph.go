package flow

import (
	"strings"
	"unicode"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/cssom"
	"github.com/fullbleed/fullbleed/numeric"
)

// WrapMode enumerates the line-breaking strategies recognized on text runs,
// generalizing the teacher's anywhere/break-word/nowrap `wrap` string into
// a closed enum.
type WrapMode int

const (
	WrapAnywhere WrapMode = iota
	WrapBreakWord
	WrapNoWrap
)

// textLine is one laid-out physical line of a paragraph.
type textLine struct {
	Content   string
	Width     numeric.Length
	GapBefore numeric.Length
}

// Paragraph is the TextRun/Paragraph flowable variant: a run of shaped text
// laid out via greedy line-breaking against an available width, grounded on
// the teacher's greedyWrapTokens/LayoutLines (renderer/canvas/renderer.go).
type Paragraph struct {
	baseFlowable
	Text  string
	Font  cssom.Font
	Color cssom.RGBA
	Align cssom.Align
	WrapMode WrapMode

	lines      []textLine
	lineHeight numeric.Length
}

// NewParagraph builds a Paragraph flowable from computed style and text
// content (already whitespace-normalized by htmldom).
func NewParagraph(style cssom.ComputedStyle, text string) *Paragraph {
	wrap := WrapAnywhere
	if style.Overflow == cssom.OverflowHidden {
		wrap = WrapBreakWord
	}
	return &Paragraph{
		baseFlowable: baseFlowable{style: style},
		Text:         text,
		Font:         style.Font,
		Color:        style.Color,
		WrapMode:     wrap,
	}
}

// Wrap lays out the paragraph's lines against avail.W and returns the used
// size; width is avail.W (text always fills its line box), height is the
// sum of line heights.
func (p *Paragraph) Wrap(avail numeric.Size, m Measurer) numeric.Size {
	p.lineHeight = m.LineHeight(p.Font)
	p.lines = greedyWrapLines(p.Text, avail.W, p.Font, p.WrapMode, m)
	h := numeric.Zero
	for i := range p.lines {
		h = h.Add(p.lineHeight).Add(p.lines[i].GapBefore)
	}
	return numeric.Size{W: avail.W, H: h}
}

func greedyWrapLines(content string, limit numeric.Length, font cssom.Font, wrap WrapMode, m Measurer) []textLine {
	if limit <= 0 {
		limit = numeric.FromPoints(1e9)
	}

	switch wrap {
	case WrapNoWrap:
		var lines []textLine
		for _, part := range strings.Split(content, "\n") {
			lines = append(lines, textLine{Content: part, Width: m.MeasureText(font, part)})
		}
		return lines
	case WrapBreakWord:
		return wrapByRune(content, limit, font, m)
	default:
		return wrapByToken(content, limit, font, m)
	}
}

func wrapByRune(content string, limit numeric.Length, font cssom.Font, m Measurer) []textLine {
	var lines []textLine
	var b strings.Builder
	cur := numeric.Zero
	emit := func(force bool) {
		if b.Len() == 0 {
			if force {
				lines = append(lines, textLine{})
			}
			return
		}
		lines = append(lines, textLine{Content: b.String(), Width: cur})
		b.Reset()
		cur = 0
	}
	for _, r := range content {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			emit(true)
			continue
		}
		s := string(r)
		w := m.MeasureText(font, s)
		if cur > 0 && cur.Add(w) > limit {
			emit(false)
		}
		b.WriteString(s)
		cur = cur.Add(w)
	}
	emit(true)
	return lines
}

func wrapByToken(content string, limit numeric.Length, font cssom.Font, m Measurer) []textLine {
	tokens := tokenizeContent(content)
	var lines []textLine
	var b strings.Builder
	cur := numeric.Zero
	emit := func(force bool) {
		if b.Len() == 0 {
			if force {
				lines = append(lines, textLine{})
			}
			return
		}
		lines = append(lines, textLine{Content: b.String(), Width: cur})
		b.Reset()
		cur = 0
	}
	appendTok := func(tok string) {
		b.WriteString(tok)
		cur = cur.Add(m.MeasureText(font, tok))
	}
	for _, tok := range tokens {
		if tok == "\n" {
			emit(true)
			continue
		}
		tw := m.MeasureText(font, tok)
		if cur > 0 && cur.Add(tw) > limit {
			emit(false)
		}
		if tw <= limit || strings.TrimSpace(tok) == "" {
			appendTok(tok)
			continue
		}
		// The token alone exceeds the line width; split it rune by rune
		// (same fallback the teacher's greedyWrapTokens uses for
		// over-long words).
		for _, sub := range wrapByRune(tok, limit, font, m) {
			if cur > 0 {
				emit(false)
			}
			appendTok(sub.Content)
			emit(false)
		}
	}
	emit(true)
	return lines
}

// tokenizeContent splits on whitespace/non-whitespace runs while keeping
// explicit newlines as standalone tokens, mirroring renderer/canvas's
// tokenizeContent.
func tokenizeContent(s string) []string {
	var tokens []string
	var b strings.Builder
	lastSpace := false
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tokens = append(tokens, b.String())
		b.Reset()
	}
	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if b.Len() == 0 {
			lastSpace = isSpace
		} else if lastSpace != isSpace {
			flush()
			lastSpace = isSpace
		}
		b.WriteRune(r)
	}
	flush()
	return tokens
}

// Split divides the paragraph at the line boundary nearest boundary,
// producing a head Paragraph with the lines that fit and a tail with the
// remainder. Splitting mid-line is never attempted (text lines are atomic).
// The cut also honors widows/orphans (4.5): it never leaves fewer than
// style.Orphans lines before the break or fewer than style.Widows lines
// after it, pulling the break forward to satisfy widows when there's room,
// or refusing to split at all and pushing the whole paragraph onward when
// the paragraph is too short to satisfy both.
func (p *Paragraph) Split(boundary numeric.Length, m Measurer) (Flowable, Flowable, bool) {
	if len(p.lines) == 0 {
		return nil, nil, false
	}
	used := numeric.Zero
	cut := 0
	for i, l := range p.lines {
		next := used.Add(p.lineHeight).Add(l.GapBefore)
		if next > boundary && i > 0 {
			break
		}
		used = next
		cut = i + 1
	}
	if cut == 0 {
		return nil, nil, false
	}
	if cut == len(p.lines) {
		return p, nil, true
	}

	orphans, widows := p.style.Orphans, p.style.Widows
	if orphans < 1 {
		orphans = 1
	}
	if widows < 1 {
		widows = 1
	}
	if len(p.lines) < orphans+widows || cut < orphans {
		return nil, nil, false
	}
	if len(p.lines)-cut < widows {
		cut = len(p.lines) - widows
	}
	head := &Paragraph{baseFlowable: p.baseFlowable, Font: p.Font, Color: p.Color, Align: p.Align, WrapMode: p.WrapMode,
		lines: p.lines[:cut], lineHeight: p.lineHeight}
	tail := &Paragraph{baseFlowable: p.baseFlowable, Font: p.Font, Color: p.Color, Align: p.Align, WrapMode: p.WrapMode,
		lines: p.lines[cut:], lineHeight: p.lineHeight}
	head.Text = linesText(head.lines)
	tail.Text = linesText(tail.lines)
	return head, tail, true
}

func linesText(lines []textLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Content
	}
	return strings.Join(parts, "\n")
}

// Draw emits ShowText commands for every laid-out line, honoring Align
// within avail.W.
func (p *Paragraph) Draw(s *canvasstream.Stream, origin numeric.Point, avail numeric.Size, m Measurer) {
	ascent := m.Ascent(p.Font)
	s.Save()
	s.SetFillColor(p.Color)
	s.BeginText()
	s.SetFont(fontKey(p.Font), p.Font.Size)
	y := origin.Y
	for _, l := range p.lines {
		y = y.Add(p.lineHeight).Add(l.GapBefore)
		x := origin.X
		switch p.Align {
		case cssom.AlignCenter:
			x = x.Add(avail.W.Sub(l.Width).DivScalar(2))
		case cssom.AlignEnd:
			x = x.Add(avail.W.Sub(l.Width))
		}
		s.ShowText(l.Content, x, y.Sub(ascent))
	}
	s.EndText()
	s.Restore()
}

func fontKey(f cssom.Font) string {
	family := "sans-serif"
	if len(f.Family) > 0 {
		family = f.Family[0]
	}
	return family
}
