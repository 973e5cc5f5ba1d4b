package stages

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// decodeReencode runs transform over each item in src concurrently,
// bounded to workers goroutines, and returns the results in the same
// order as src. This is the Go substitute for the original toolbox's
// rayon into_par_iter().collect_into_vec(): decode and re-encode run
// in parallel, but the caller always drains the output serially and
// in order, preserving the destination's append-order requirement.
func decodeReencode[S any, D any](ctx context.Context, workers int, src []S, transform func(S) (D, error)) ([]D, error) {
	out := make([]D, len(src))
	if len(src) == 0 {
		return out, nil
	}
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range src {
		i, item := i, item
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			d, err := transform(item)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
