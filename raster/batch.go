package raster

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"
)

// PageResult is one page's raster output, paired with its coverage report.
type PageResult struct {
	Image    *image.RGBA
	Coverage *GlyphCoverageReport
}

// RenderPages rasterizes every page concurrently (page-level parallel, per
// spec's §5 raster concurrency scope) while keeping the returned slice
// ordered by page index regardless of goroutine completion order — the
// font/image caches on r are insert-only and guarded by r's mutex, which is
// held across a first decode, so each key is decoded once.
func (r *Renderer) RenderPages(ctx context.Context, pages []Page, opts Options) ([]PageResult, error) {
	results := make([]PageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pages {
		i, p := i, p
		g.Go(func() error {
			img, report, err := r.RenderPage(gctx, p, opts)
			if err != nil {
				return err
			}
			results[i] = PageResult{Image: img, Coverage: report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MergeCoverage combines every page's glyph-coverage report into one,
// matching spec.md §6.4's single glyph-coverage-report output surface.
func MergeCoverage(results []PageResult) *GlyphCoverageReport {
	merged := newGlyphCoverageReport()
	for _, res := range results {
		if res.Coverage == nil {
			continue
		}
		for fontKey, runes := range res.Coverage.Missing {
			for r := range runes {
				merged.record(fontKey, string(r))
			}
		}
	}
	return merged
}
