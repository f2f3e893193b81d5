package ensemble

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// shardsPerWorker oversubscribes the pool so that uneven shards even out.
const shardsPerWorker = 4

// Workers resolves a configured worker count; zero or negative means one per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// FillRows calls fill once per member of e with that member's row, spreading
// contiguous shards of members over a bounded worker pool. The first error
// cancels the remaining shards and is returned.
func FillRows(ctx context.Context, e *Ensemble, workers int, fill func(m int, row []float64) error) error {
	return ForMembers(ctx, e.Members(), workers, func(m int) error {
		return fill(m, e.Row(m))
	})
}

// ForMembers runs fn for members 0..n-1 on a bounded worker pool.
func ForMembers(ctx context.Context, n, workers int, fn func(m int) error) error {
	workers = Workers(workers)
	size := n / (workers * shardsPerWorker)
	if size < 1 {
		size = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for m := lo; m < hi; m++ {
				if err := fn(m); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
