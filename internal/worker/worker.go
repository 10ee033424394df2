// Package worker fans per-entity analysis out over a bounded set of goroutines.
package worker

import (
	"context"
	"runtime"

	"github.com/OCAP2/courtstats/pkg/core"
	"golang.org/x/sync/errgroup"
)

// DefaultLimit is used when PerEntity is given a non-positive limit.
func DefaultLimit() int {
	return runtime.GOMAXPROCS(0)
}

// PerEntity runs fn once per id with at most limit calls in flight and returns the results
// in the order of ids. The first error cancels ctx for the remaining calls and is returned.
func PerEntity[T any](ctx context.Context, ids []core.EntityID, limit int, fn func(ctx context.Context, id core.EntityID) (T, error)) ([]T, error) {
	if limit <= 0 {
		limit = DefaultLimit()
	}

	results := make([]T, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, id)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
