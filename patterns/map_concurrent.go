// Package patterns implements the graph-runtime building blocks spec
// §4.4 describes on top of flow.Graph: bounded concurrent map, k-way
// join, predicate/union routers, and subflow invocation.
package patterns

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// ItemError attributes a map_concurrent failure to its input index, per
// spec §4.4's "failures surface as exceptions attributed to their item
// index".
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string { return fmt.Sprintf("item %d: %v", e.Index, e.Err) }
func (e *ItemError) Unwrap() error { return e.Err }

// MapConcurrent runs worker(item) for every item in items with at most
// maxConcurrency in flight, preserving input order in the returned slice.
// Cancelling ctx propagates to every in-flight worker call. The first
// worker error cancels the context shared by the workers; MapConcurrent
// still waits for every launched worker to finish, then returns the error
// recorded at the lowest item index (an *ItemError, or the context error
// for an item that could not be launched) and discards all results.
//
// Grounded on dshills-langgraph-go's concurrent-branch dispatch idiom
// (goroutine-per-branch with a result channel) and
// jemygraw-langgraphgo/prebuilt's parallel tool-call fan-out, rebuilt on
// golang.org/x/sync/semaphore (also transitively required by the teacher
// and goa-ai) instead of a hand-rolled channel-based semaphore.
func MapConcurrent[In, Out any](ctx context.Context, items []In, maxConcurrency int, worker func(context.Context, In) (Out, error)) ([]Out, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = len(items)
		if maxConcurrency == 0 {
			maxConcurrency = 1
		}
	}

	sem := semaphore.NewWeighted(int64(maxConcurrency))
	results := make([]Out, len(items))
	errs := make([]error, len(items))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{}, len(items))
	for i, item := range items {
		if err := sem.Acquire(runCtx, 1); err != nil {
			errs[i] = err
			done <- struct{}{}
			continue
		}
		go func(i int, item In) {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			out, err := worker(runCtx, item)
			if err != nil {
				errs[i] = &ItemError{Index: i, Err: err}
				cancel()
				return
			}
			results[i] = out
		}(i, item)
	}

	for range items {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
