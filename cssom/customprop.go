package cssom

import "strings"

// resolveCustomProperties builds the final name->serialized-value map for
// one element's custom properties declared in matched rules (normal lane,
// then important), detecting dependency cycles per spec.md 3's "custom
// property dependency graph with cycle detection and fallback chains".
func (c *Cascade) resolveCustomProperties(normal, important []matchedDeclaration) map[string]string {
	raw := map[string][]Token{}
	for _, md := range normal {
		if strings.HasPrefix(md.decl.Property, "--") {
			raw[md.decl.Property] = md.decl.Raw
		}
	}
	for _, md := range important {
		if strings.HasPrefix(md.decl.Property, "--") {
			raw[md.decl.Property] = md.decl.Raw
		}
	}

	resolved := map[string]string{}
	visiting := map[string]bool{}
	var resolve func(name string) string
	resolve = func(name string) string {
		if v, ok := resolved[name]; ok {
			return v
		}
		if visiting[name] {
			c.diagnostics = append(c.diagnostics, diag(DiagCustomPropertyCycle, name, "", "custom property cycle detected"))
			resolved[name] = ""
			return ""
		}
		toks, ok := raw[name]
		if !ok {
			resolved[name] = ""
			return ""
		}
		visiting[name] = true
		out := substituteVarWith(toks, resolve)
		visiting[name] = false
		resolved[name] = out
		return out
	}
	for name := range raw {
		resolve(name)
	}
	return resolved
}

// substituteVar rewrites var(--x, fallback) occurrences in a declaration's
// raw token run using an already-resolved custom-property map, returning a
// flattened token slice (var() calls replaced by an Ident carrying the
// substituted text, good enough for the token-scanning helpers in apply.go).
func substituteVar(raw []Token, customProps map[string]string) []Token {
	if len(raw) == 0 || customProps == nil {
		return raw
	}
	lookup := func(name string) string {
		if v, ok := customProps[name]; ok {
			return v
		}
		return ""
	}
	text := substituteVarWith(raw, lookup)
	return tokenizeSubstituted(raw, text)
}

// substituteVarWith walks tok, replacing each `var(--name[, fallback])`
// function call with lookup(name), falling back to the fallback token text
// when lookup returns empty and a fallback was supplied.
func substituteVarWith(toks []Token, lookup func(string) string) string {
	var b strings.Builder
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == TokenFunctionStart && strings.EqualFold(t.Text, "var") {
			depth := 1
			j := i + 1
			var nameTok Token
			var fallback []Token
			gotName := false
			for ; j < len(toks) && depth > 0; j++ {
				switch toks[j].Kind {
				case TokenParenClose:
					depth--
				case TokenComma:
					if depth == 1 {
						gotName = true
						continue
					}
					fallback = append(fallback, toks[j])
				default:
					if depth == 1 && !gotName {
						nameTok = toks[j]
					} else if gotName {
						fallback = append(fallback, toks[j])
					}
				}
			}
			val := lookup(nameTok.Text)
			if val == "" && len(fallback) > 0 {
				val = substituteVarWith(fallback, lookup)
			}
			b.WriteString(val)
			i = j - 1
			continue
		}
		b.WriteString(serializeTokens([]Token{t}))
	}
	return b.String()
}

// tokenizeSubstituted is a conservative fallback: when no var() occurred,
// the original tokens pass through unchanged (the common case); otherwise
// the substituted text is treated as a single opaque ident, which is
// sufficient for the color/keyword/ident consumers in apply.go and
// correctly inert for anything else (Raw-lane fallback still has the
// original tokens for diagnostics).
func tokenizeSubstituted(original []Token, substituted string) []Token {
	hasVar := false
	for _, t := range original {
		if t.Kind == TokenFunctionStart && strings.EqualFold(t.Text, "var") {
			hasVar = true
			break
		}
	}
	if !hasVar {
		return original
	}
	if strings.HasPrefix(substituted, "#") {
		return []Token{{Kind: TokenHash, Text: strings.TrimPrefix(substituted, "#")}}
	}
	return []Token{{Kind: TokenIdent, Text: substituted}}
}
