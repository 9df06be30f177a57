package pdfparse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fullbleed/fullbleed/canvasstream"
	"github.com/fullbleed/fullbleed/numeric"
	"github.com/fullbleed/fullbleed/paginate"
)

// MetaPageTemplateKey is the OpMeta key a flowable sets to name the
// template a page should bind to; CollectPageTemplateNames only looks at
// this key.
const MetaPageTemplateKey = "fb.page_template"

// defaultFeaturePrefix is the feature-flag OpMeta key prefix a
// TemplateBindingSpec uses when FeaturePrefix is left blank.
const defaultFeaturePrefix = "fb.feature."

// BindingSource records which rule of TemplateBindingSpec's precedence
// chain produced a PageBindingDecision.
type BindingSource int

const (
	BindingFeature BindingSource = iota
	BindingPageTemplate
	BindingDefault
)

func (s BindingSource) String() string {
	switch s {
	case BindingFeature:
		return "feature"
	case BindingPageTemplate:
		return "page_template"
	case BindingDefault:
		return "default"
	default:
		return "unknown"
	}
}

// PageBindingDecision is the resolved template choice for one page, plus
// the evidence that produced it (for diagnostics and for Compose, which
// needs to know exactly which template asset backs each page).
type PageBindingDecision struct {
	PageIndex        int
	PageTemplateName string // empty if the page set no fb.page_template meta
	FeatureHits      []string
	TemplateID       string
	Source           BindingSource
}

// TemplateBindingSpec configures how pages are matched to template assets.
// Precedence, highest first: a feature flag in ByFeature, a page template
// name in ByPageTemplate, then DefaultTemplateID. A page matching none of
// these, with no default configured, is a hard error — fullbleed never
// silently drops a page's background.
type TemplateBindingSpec struct {
	DefaultTemplateID string // empty means "no default"
	ByPageTemplate    map[string]string
	ByFeature         map[string]string
	FeaturePrefix     string // defaults to "fb.feature." if empty
}

func (spec TemplateBindingSpec) featurePrefix() string {
	if spec.FeaturePrefix == "" {
		return defaultFeaturePrefix
	}
	return spec.FeaturePrefix
}

func isTruthyFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// CollectPageFeatureFlags scans each page's OpMeta markers for keys under
// featurePrefix whose value is_truthy_flag, returning the set of feature
// names (without the prefix) each page raised.
func CollectPageFeatureFlags(pages []*canvasstream.Stream, featurePrefix string) []map[string]bool {
	out := make([]map[string]bool, len(pages))
	for i, page := range pages {
		features := map[string]bool{}
		for _, m := range paginate.ExtractMeta(page) {
			if !strings.HasPrefix(m.Key, featurePrefix) {
				continue
			}
			name := strings.TrimSpace(m.Key[len(featurePrefix):])
			if name == "" {
				continue
			}
			if isTruthyFlag(m.Value) {
				features[name] = true
			}
		}
		out[i] = features
	}
	return out
}

// CollectPageTemplateNames scans each page's OpMeta markers for the first
// non-blank value of templateKey, usually MetaPageTemplateKey.
func CollectPageTemplateNames(pages []*canvasstream.Stream, templateKey string) []string {
	out := make([]string, len(pages))
	for i, page := range pages {
		for _, m := range paginate.ExtractMeta(page) {
			if m.Key == templateKey && strings.TrimSpace(m.Value) != "" {
				out[i] = m.Value
				break
			}
		}
	}
	return out
}

// ResolveTemplateBindings applies spec's precedence chain to every page,
// given the page template names and feature sets already extracted (by
// CollectPageTemplateNames / CollectPageFeatureFlags, or
// ResolveTemplateBindingsForDocument's own call to both). A page whose
// raised features map to more than one distinct template ID is an
// ambiguity error: fullbleed never picks a winner among conflicting
// feature bindings.
func ResolveTemplateBindings(spec TemplateBindingSpec, pageTemplateNames []string, pageFeatures []map[string]bool) ([]PageBindingDecision, error) {
	if len(pageTemplateNames) != len(pageFeatures) {
		return nil, fmt.Errorf("pdfparse: binding mismatch: %d page template names, %d page feature sets", len(pageTemplateNames), len(pageFeatures))
	}

	out := make([]PageBindingDecision, 0, len(pageTemplateNames))
	for idx := range pageTemplateNames {
		templateName := pageTemplateNames[idx]
		features := pageFeatures[idx]

		var matchedFeatures []string
		for f := range features {
			if _, ok := spec.ByFeature[f]; ok {
				matchedFeatures = append(matchedFeatures, f)
			}
		}
		sort.Strings(matchedFeatures)

		if len(matchedFeatures) > 0 {
			matchedIDs := map[string]bool{}
			for _, f := range matchedFeatures {
				matchedIDs[spec.ByFeature[f]] = true
			}
			if len(matchedIDs) > 1 {
				ids := make([]string, 0, len(matchedIDs))
				for id := range matchedIDs {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				return nil, fmt.Errorf("pdfparse: ambiguous feature bindings on page %d: features=%v template_ids=%v", idx+1, matchedFeatures, ids)
			}
			var templateID string
			for id := range matchedIDs {
				templateID = id
			}
			out = append(out, PageBindingDecision{
				PageIndex:        idx,
				PageTemplateName: templateName,
				FeatureHits:      matchedFeatures,
				TemplateID:       templateID,
				Source:           BindingFeature,
			})
			continue
		}

		if templateName != "" {
			if templateID, ok := spec.ByPageTemplate[templateName]; ok {
				out = append(out, PageBindingDecision{
					PageIndex:        idx,
					PageTemplateName: templateName,
					TemplateID:       templateID,
					Source:           BindingPageTemplate,
				})
				continue
			}
		}

		if spec.DefaultTemplateID != "" {
			out = append(out, PageBindingDecision{
				PageIndex:        idx,
				PageTemplateName: templateName,
				TemplateID:       spec.DefaultTemplateID,
				Source:           BindingDefault,
			})
			continue
		}

		return nil, &TemplateError{Reason: fmt.Sprintf("no template binding for page %d (page_template=%q)", idx+1, templateName)}
	}
	return out, nil
}

// ResolveTemplateBindingsForDocument extracts both feature flags and page
// template names from pages and resolves bindings in one call.
func ResolveTemplateBindingsForDocument(pages []*canvasstream.Stream, spec TemplateBindingSpec) ([]PageBindingDecision, error) {
	names := CollectPageTemplateNames(pages, MetaPageTemplateKey)
	features := CollectPageFeatureFlags(pages, spec.featurePrefix())
	return ResolveTemplateBindings(spec, names, features)
}

// TemplateAsset is one background template registered in a TemplateCatalog:
// a parsed, already-decoded set of per-page command streams, keyed by
// TemplateID and indexed by page.
type TemplateAsset struct {
	TemplateID string
	Pages      []*canvasstream.Stream
}

// TemplateCatalog is the set of background templates available to Compose,
// keyed by template ID.
type TemplateCatalog struct {
	byID map[string]TemplateAsset
}

func NewTemplateCatalog() *TemplateCatalog {
	return &TemplateCatalog{byID: map[string]TemplateAsset{}}
}

func (c *TemplateCatalog) Register(asset TemplateAsset) error {
	if asset.TemplateID == "" {
		return fmt.Errorf("pdfparse: template asset has no TemplateID")
	}
	if _, exists := c.byID[asset.TemplateID]; exists {
		return fmt.Errorf("pdfparse: duplicate template_id in catalog: %s", asset.TemplateID)
	}
	c.byID[asset.TemplateID] = asset
	return nil
}

func (c *TemplateCatalog) Get(templateID string) (TemplateAsset, bool) {
	a, ok := c.byID[templateID]
	return a, ok
}

// ValidateBindingsAgainstCatalog reports the first binding decision whose
// TemplateID isn't present in the catalog, so a missing template surfaces
// before Compose runs rather than mid-page.
func ValidateBindingsAgainstCatalog(bindings []PageBindingDecision, catalog *TemplateCatalog) error {
	for _, b := range bindings {
		if _, ok := catalog.Get(b.TemplateID); !ok {
			return &TemplateError{Reason: fmt.Sprintf("missing template_id in catalog for page %d: %s", b.PageIndex+1, b.TemplateID)}
		}
	}
	return nil
}

// ComposePagePlan pairs one overlay (body) page with one template
// (background) page, and the translation ComposeTemplateOverlay applies to
// the overlay content drawn on top of it.
type ComposePagePlan struct {
	TemplateID       string
	TemplatePageIndex int
	OverlayPageIndex  int
	Dx, Dy            numeric.Length
}

// DefaultPageMap pairs template and overlay pages 1:1 in document order,
// which requires equal page counts; fullbleed never guesses a mapping
// across documents of different length.
func DefaultPageMap(templatePages, overlayPages int) ([]ComposePagePlan, error) {
	if templatePages != overlayPages {
		return nil, &TemplateError{Reason: fmt.Sprintf("template/overlay page count mismatch without explicit page map (template=%d, overlay=%d)", templatePages, overlayPages)}
	}
	plan := make([]ComposePagePlan, templatePages)
	for i := range plan {
		plan[i] = ComposePagePlan{TemplatePageIndex: i, OverlayPageIndex: i}
	}
	return plan, nil
}

// ComposeTemplateOverlay lays the overlay's command stream on top of the
// template's, translated by (dx, dy): the template forms the background of
// the composed page, and the overlay is appended last so it always paints
// over it, bracketed in its own save/restore so the translation can't leak
// into commands that follow.
func ComposeTemplateOverlay(template, overlay *canvasstream.Stream, dx, dy numeric.Length) (*canvasstream.Stream, error) {
	if !template.Balanced() {
		return nil, &TemplateError{Reason: "template command stream has unbalanced save/restore"}
	}
	if !overlay.Balanced() {
		return nil, &TemplateError{Reason: "overlay command stream has unbalanced save/restore"}
	}
	out := canvasstream.New()
	out.Append(template)
	out.Save()
	out.Concat(numeric.Matrix2D{A: 1, D: 1, E: dx.Points(), F: dy.Points()})
	out.Append(overlay)
	out.Restore()
	return out, nil
}

// ComposeDocument composes a full overlay document against a single
// template asset's pages, following plan in order; plan entries index into
// template.Pages and overlay respectively.
func ComposeDocument(template TemplateAsset, overlay []*canvasstream.Stream, plan []ComposePagePlan) ([]*canvasstream.Stream, error) {
	out := make([]*canvasstream.Stream, 0, len(plan))
	for i, p := range plan {
		if p.TemplatePageIndex < 0 || p.TemplatePageIndex >= len(template.Pages) {
			return nil, &TemplateError{Reason: fmt.Sprintf("compose plan item %d: template page index out of range", i)}
		}
		if p.OverlayPageIndex < 0 || p.OverlayPageIndex >= len(overlay) {
			return nil, &TemplateError{Reason: fmt.Sprintf("compose plan item %d: overlay page index out of range", i)}
		}
		composed, err := ComposeTemplateOverlay(template.Pages[p.TemplatePageIndex], overlay[p.OverlayPageIndex], p.Dx, p.Dy)
		if err != nil {
			return nil, err
		}
		out = append(out, composed)
	}
	return out, nil
}
