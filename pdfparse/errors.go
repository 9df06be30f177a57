package pdfparse

import "fmt"

// TemplateError reports a template PDF rejected by validation or parsing —
// an encrypted catalog, a malformed cross-reference section, a page tree
// that doesn't resolve. Mirrors spec.md's TemplateError taxonomy entry.
type TemplateError struct {
	Reason string
}

func (e *TemplateError) Error() string { return "pdfparse: template error: " + e.Reason }

// AssetError reports an unreadable or unsupported XObject — a codec this
// baseline doesn't decode (CCITT/JPX), a corrupt image stream, a Form
// XObject whose content stream doesn't tokenize.
type AssetError struct {
	Resource string
	Reason   string
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("pdfparse: asset error (%s): %s", e.Resource, e.Reason)
}
