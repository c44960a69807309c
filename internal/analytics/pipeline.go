package analytics

import (
	"context"
	"sync"
)

// FetchWindows runs the current-period and previous-period fetches
// concurrently and waits for both. The two reads are independent, nothing
// is shared between them before both complete. The current fetch error
// wins when both fail; either error aborts the pipeline.
func FetchWindows[C any, P any](
	ctx context.Context,
	fetchCurrent func(context.Context) (C, error),
	fetchPrevious func(context.Context) (P, error),
) (C, P, error) {
	var (
		wg      sync.WaitGroup
		current C
		prev    P
		curErr  error
		prevErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, curErr = fetchCurrent(ctx)
	}()
	go func() {
		defer wg.Done()
		prev, prevErr = fetchPrevious(ctx)
	}()
	wg.Wait()

	if curErr != nil {
		return current, prev, curErr
	}
	if prevErr != nil {
		return current, prev, prevErr
	}
	return current, prev, nil
}

// MetricsByKey reduces aggregated states to the single comparison metric
// used for trend matching against the opposite period.
func MetricsByKey[K comparable, S any](states map[K]S, metric func(S) float64) map[K]float64 {
	metrics := make(map[K]float64, len(states))
	for k, state := range states {
		metrics[k] = metric(state)
	}
	return metrics
}
