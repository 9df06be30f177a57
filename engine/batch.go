package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchJob is one document in a batch Render call.
type BatchJob struct {
	HTML   string
	CSS    string
	Assets *AssetRegistry
	Opts   Options
}

// BatchResult holds one job's outcome; RenderBatch returns it at the same
// index as its job, so a caller iterating results can still report which
// input document failed.
type BatchResult struct {
	Result *Result
	Err    error
}

// RenderBatch runs N documents concurrently (per spec.md §5's "N documents
// concurrent, order preserved" batch scope), returning one BatchResult per
// job in the same order jobs were given regardless of completion order. One
// job's error does not cancel its siblings — each job gets its own outcome
// slot, the way a batch of independent documents should fail independently.
func RenderBatch(ctx context.Context, jobs []BatchJob) []BatchResult {
	results := make([]BatchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := Render(gctx, job.HTML, job.CSS, job.Assets, job.Opts)
			results[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
