package assembly

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunBatch assembles every config with at most workers running at once
// (workers < 1 means one per config). A failing assembly does not stop
// the others. Results are returned in input order.
func RunBatch(ctx context.Context, a *Assembler, cfgs []Config, workers int) []Result {
	results := make([]Result, len(cfgs))
	if len(cfgs) == 0 {
		return results
	}
	if workers < 1 {
		workers = len(cfgs)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, cfg := range cfgs {
		g.Go(func() error {
			results[i] = a.Assemble(ctx, cfg)
			return nil
		})
	}
	g.Wait()
	return results
}

// Failed counts results that produced no output.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
