package analytics

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds the concurrent requests of a fan-out
const DefaultParallelism = 8

// FetchResult is the joined result of a per-device fan-out
type FetchResult struct {
	Summary Summary
	// Errors holds the failure of every device that could not be fetched
	Errors map[string]error
}

// FetchAll runs the query for every device with at most limit requests in
// flight and joins the results. A failing device never fails the others; its
// error is recorded in the result. Only a cancelled ctx returns an error.
func FetchAll(ctx context.Context, src Source, deviceIDs []string, tmpl Query, limit int) (FetchResult, error) {
	if limit <= 0 {
		limit = DefaultParallelism
	}

	ret := FetchResult{Errors: map[string]error{}}
	acc := NewAccumulator()

	var lock sync.Mutex
	var g errgroup.Group
	g.SetLimit(limit)

	for _, id := range deviceIDs {
		id := id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			pts, err := src.Aggregate(ctx, tmpl.For(id))

			lock.Lock()
			defer lock.Unlock()
			if err != nil {
				ret.Errors[id] = err
				return nil
			}
			if acc.AddPoints(pts) > 0 {
				ret.Summary.Devices++
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}

	devices := ret.Summary.Devices
	ret.Summary = acc.Summary()
	ret.Summary.Devices = devices
	return ret, nil
}
