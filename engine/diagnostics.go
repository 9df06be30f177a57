package engine

import (
	"fmt"

	"go.uber.org/zap"
)

// DiagnosticKind enumerates the error taxonomy spec.md §7 names. Every
// pipeline stage reports into this one closed set rather than inventing
// its own per-package severity scheme.
type DiagnosticKind int

const (
	KindInputError DiagnosticKind = iota
	KindAssetError
	KindLayoutOverflow
	KindGlyphCoverage
	KindFontSubstitution
	KindKnownLoss
	KindBudget
	KindTemplateError
	KindNonConvergence
)

func (k DiagnosticKind) String() string {
	switch k {
	case KindInputError:
		return "InputError"
	case KindAssetError:
		return "AssetError"
	case KindLayoutOverflow:
		return "LayoutOverflow"
	case KindGlyphCoverage:
		return "GlyphCoverage"
	case KindFontSubstitution:
		return "FontSubstitution"
	case KindKnownLoss:
		return "KnownLoss"
	case KindBudget:
		return "Budget"
	case KindTemplateError:
		return "TemplateError"
	case KindNonConvergence:
		return "NonConvergence"
	default:
		return "Unknown"
	}
}

// Diagnostic is one accumulated report entry, attached to the render
// output regardless of success (spec.md §7 "Propagation").
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Page    int // 0 when not page-scoped
}

func (d Diagnostic) String() string {
	if d.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", d.Kind, d.Page, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// FailFastError is returned by Render when a diagnostic kind gated by
// Options.FailFast* occurs; the triggering Diagnostic is attached so
// callers don't have to re-scan Diagnostics to find it.
type FailFastError struct {
	Diagnostic Diagnostic
}

func (e *FailFastError) Error() string {
	return "engine: fail-fast gate tripped: " + e.Diagnostic.String()
}

// Diagnostics accumulates every Diagnostic raised during one Render call,
// and applies Options' fail-fast gating policy as entries are added.
type Diagnostics struct {
	entries []Diagnostic
	opts    Options
}

func newDiagnostics(opts Options) *Diagnostics {
	return &Diagnostics{opts: opts}
}

// Add records one diagnostic and returns a *FailFastError if it trips a
// configured gate; callers that get a non-nil error should abort the
// render immediately rather than continuing to accumulate.
func (d *Diagnostics) Add(kind DiagnosticKind, page int, format string, args ...any) error {
	entry := Diagnostic{Kind: kind, Page: page, Message: fmt.Sprintf(format, args...)}
	d.entries = append(d.entries, entry)
	if d.opts.Logger != nil {
		logDiagnostic(d.opts.Logger, entry)
	}
	if d.gateTrips(kind) {
		return &FailFastError{Diagnostic: entry}
	}
	return nil
}

// logDiagnostic mirrors the gate severity: kinds that can trip a fail-fast
// gate log at Warn, the three unconditional input/asset/template failure
// kinds at Error, everything else (informational KnownLoss/NonConvergence notes) at
// Info.
func logDiagnostic(logger *zap.Logger, d Diagnostic) {
	fields := []zap.Field{zap.Stringer("kind", d.Kind), zap.String("message", d.Message)}
	if d.Page > 0 {
		fields = append(fields, zap.Int("page", d.Page))
	}
	switch d.Kind {
	case KindInputError, KindAssetError, KindTemplateError:
		logger.Error("render diagnostic", fields...)
	case KindLayoutOverflow, KindGlyphCoverage, KindFontSubstitution, KindBudget:
		logger.Warn("render diagnostic", fields...)
	default:
		logger.Info("render diagnostic", fields...)
	}
}

func (d *Diagnostics) gateTrips(kind DiagnosticKind) bool {
	switch kind {
	case KindLayoutOverflow:
		return d.opts.FailFastOverflow
	case KindGlyphCoverage:
		return d.opts.FailFastMissingGlyph && !d.opts.AllowFallbacks
	case KindFontSubstitution:
		return d.opts.FailFastFontSubst && !d.opts.AllowFallbacks
	case KindBudget:
		return d.opts.FailFastBudget
	default:
		return false
	}
}

// All returns every accumulated diagnostic, in the order raised.
func (d *Diagnostics) All() []Diagnostic { return d.entries }

// HasKind reports whether any diagnostic of kind was recorded.
func (d *Diagnostics) HasKind(kind DiagnosticKind) bool {
	for _, e := range d.entries {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
