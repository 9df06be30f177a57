package paginate

// Converge runs step repeatedly, bounded by maxIterations, until it reports
// a stable layout. Used where percent resolution depends on a flowable's
// own resolved content size (layout must re-wrap against its own prior
// result), per spec.md 4.5's "Convergence" note. Non-convergence is not an
// error: the caller uses the last iteration's result and should record a
// diagnostic via the returned converged=false.
func Converge(maxIterations int, step func(iteration int) (stable bool)) (iterations int, converged bool) {
	if maxIterations < 1 {
		maxIterations = 1
	}
	for i := 0; i < maxIterations; i++ {
		iterations = i + 1
		if step(i) {
			return iterations, true
		}
	}
	return iterations, false
}

// ConvergenceDiagnostic records a bounded-iteration cap being hit without
// reaching a stable layout.
type ConvergenceDiagnostic struct {
	Subject    string
	Iterations int
}
