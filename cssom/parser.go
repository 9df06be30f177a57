package cssom

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ParseStylesheet tokenizes and structures a CSS source into a Stylesheet,
// using tdewolff/parse/v2/css at the grammar level (the same tokenizer
// tdewolff/minify drives internally, promoted here from a transitive
// dependency of the teacher's tdewolff/canvas stack to a direct one).
func ParseStylesheet(src string) *Stylesheet {
	sheet := &Stylesheet{}
	p := css.NewParser(parse.NewInputString(src), false)

	var mediaStack []string
	sourceOrder := 0
	var pendingSelectors []*Selector
	var pendingSelectorRaw string

	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return sheet
		case css.AtRuleGrammar:
			name := strings.ToLower(strings.TrimPrefix(string(data), "@"))
			switch name {
			case "font-face":
				// handled as BeginAtRuleGrammar below in most inputs; a
				// bodyless @font-face (malformed) is simply ignored.
			default:
				sheet.Diagnostics = append(sheet.Diagnostics, diag(DiagUnknownAtRule, "", "", string(data)))
			}
		case css.BeginAtRuleGrammar:
			name := strings.ToLower(string(data))
			switch {
			case strings.HasPrefix(name, "@media"):
				cond := strings.TrimSpace(strings.TrimPrefix(string(p.Values()[0].Data), ""))
				mediaStack = append(mediaStack, mediaCondText(p))
				_ = cond
			case strings.HasPrefix(name, "@page"):
				pr := &PageRule{Selector: pageSelectorText(p)}
				collectPageBody(p, pr)
				sheet.PageRules = append(sheet.PageRules, pr)
			case strings.HasPrefix(name, "@font-face"):
				fr := &FontFaceRule{}
				collectFontFaceBody(p, fr)
				sheet.FontFaces = append(sheet.FontFaces, fr)
			case strings.HasPrefix(name, "@supports"):
				mediaStack = append(mediaStack, "") // unconditionally honored: treated as always-matching
			default:
				sheet.Diagnostics = append(sheet.Diagnostics, diag(DiagUnknownAtRule, "", "", name))
				skipAtRuleBody(p)
			}
		case css.EndAtRuleGrammar:
			if len(mediaStack) > 0 {
				mediaStack = mediaStack[:len(mediaStack)-1]
			}
		case css.BeginRulesetGrammar:
			pendingSelectorRaw = selectorText(p)
			sels, err := ParseSelectorList(pendingSelectorRaw)
			if err != nil {
				sheet.Diagnostics = append(sheet.Diagnostics, diag(DiagParsedNoEffect, "", pendingSelectorRaw, err.Error()))
				pendingSelectors = nil
				continue
			}
			pendingSelectors = sels
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			// Declarations inside an unclosed ruleset accumulate lazily via
			// collectRuleBody below; Next() already advanced past this
			// grammar, so this branch only triggers for stray top-level
			// declarations (CSS error recovery), which are diagnosed.
			sheet.Diagnostics = append(sheet.Diagnostics, diag(DiagParsedNoEffect, string(data), "", "declaration outside rule body"))
		case css.EndRulesetGrammar:
			// handled by collectRuleBody's own loop; unreachable in this
			// top-level switch because BeginRulesetGrammar consumes the body.
		}
		if gt == css.BeginRulesetGrammar {
			rule := &Rule{Selectors: pendingSelectors, SourceOrder: sourceOrder}
			if len(mediaStack) > 0 {
				rule.MediaScoped = mediaStack[len(mediaStack)-1]
			}
			collectRuleBody(p, rule)
			if len(rule.Selectors) > 0 {
				sheet.Rules = append(sheet.Rules, rule)
				sourceOrder++
			}
		}
	}
}

func selectorText(p *css.Parser) string {
	var b strings.Builder
	for _, v := range p.Values() {
		b.Write(v.Data)
	}
	return strings.TrimSpace(b.String())
}

func mediaCondText(p *css.Parser) string { return selectorText(p) }

func pageSelectorText(p *css.Parser) string {
	s := selectorText(p)
	return strings.TrimPrefix(s, ":")
}

// collectRuleBody reads declarations until the matching EndRulesetGrammar,
// splitting normal vs !important into the two cascade lanes up front.
func collectRuleBody(p *css.Parser, rule *Rule) {
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decl := buildDeclaration(string(data), p.Values())
			if decl.Important {
				rule.Important = append(rule.Important, decl)
			} else {
				rule.Normal = append(rule.Normal, decl)
			}
		}
	}
}

func collectPageBody(p *css.Parser, pr *PageRule) {
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return
		case css.DeclarationGrammar:
			pr.Declarations = append(pr.Declarations, buildDeclaration(string(data), p.Values()))
		}
	}
}

func collectFontFaceBody(p *css.Parser, fr *FontFaceRule) {
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return
		case css.DeclarationGrammar:
			fr.Declarations = append(fr.Declarations, buildDeclaration(string(data), p.Values()))
		}
	}
}

func skipAtRuleBody(p *css.Parser) {
	depth := 0
	for {
		gt, _, _ := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			if depth == 0 {
				return
			}
			depth--
		}
	}
}

func buildDeclaration(prop string, values []css.Token) *Declaration {
	prop = strings.TrimSpace(strings.ToLower(prop))
	decl := &Declaration{Property: prop}
	important := false
	n := len(values)
	if n >= 2 && values[n-1].TokenType == css.IdentToken && strings.EqualFold(string(values[n-1].Data), "important") {
		// preceding delim is '!'
		if n >= 2 {
			values = values[:n-2]
			important = true
		}
	}
	decl.Important = important
	decl.Raw = tokensFromCSS(values)
	decl.Typed = resolveTyped(prop, decl.Raw)
	return decl
}

func tokensFromCSS(values []css.Token) []Token {
	out := make([]Token, 0, len(values))
	for _, v := range values {
		switch v.TokenType {
		case css.WhitespaceToken:
			continue
		case css.CommaToken:
			out = append(out, Token{Kind: TokenComma, Text: ","})
		case css.StringToken:
			out = append(out, Token{Kind: TokenString, Text: strings.Trim(string(v.Data), `"'`)})
		case css.HashToken:
			out = append(out, Token{Kind: TokenHash, Text: string(v.Data)})
		case css.FunctionToken:
			out = append(out, Token{Kind: TokenFunctionStart, Text: strings.TrimSuffix(string(v.Data), "(")})
		case css.RightParenthesisToken:
			out = append(out, Token{Kind: TokenParenClose, Text: ")"})
		case css.NumberToken:
			out = append(out, Token{Kind: TokenNumber, Num: parseFloatSafe(string(v.Data)), Text: string(v.Data)})
		case css.PercentageToken:
			out = append(out, Token{Kind: TokenPercentage, Num: parseFloatSafe(strings.TrimSuffix(string(v.Data), "%")), Text: string(v.Data)})
		case css.DimensionToken:
			out = append(out, Token{Kind: TokenDimension, Text: string(v.Data)})
		default:
			out = append(out, Token{Kind: TokenIdent, Text: string(v.Data)})
		}
	}
	return out
}
