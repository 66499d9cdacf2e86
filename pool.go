package notion

import (
	"context"
	"sync"
)

// ProcessConcurrently runs processor over items with at most numWorkers in
// flight. Results come back in input order; a failed item carries its error
// in place so one bad ID does not discard the rest of a batch.
//
// Example:
//
//	results := ProcessConcurrently(ctx, ids, func(ctx context.Context, id types.PageID) (*types.Page, error) {
//	    return client.Pages().Get(ctx, id)
//	}, 10)
func ProcessConcurrently[T any, U any](
	ctx context.Context,
	items []T,
	processor func(context.Context, T) (U, error),
	numWorkers int,
) []Result[U] {
	if len(items) == 0 {
		return nil
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}

	sem := make(chan struct{}, numWorkers)
	results := make([]Result[U], len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = Error[U](ctx.Err())
				return
			}
			defer func() { <-sem }()

			data, err := processor(ctx, item)
			if err != nil {
				results[i] = Error[U](err)
				return
			}
			results[i] = Success(data)
		}(i, item)
	}
	wg.Wait()

	return results
}

// CollectConcurrent splits the outcome of ProcessConcurrently into the
// successful values and the errors encountered.
func CollectConcurrent[U any](results []Result[U]) ([]U, []error) {
	var values []U
	var errs []error
	for _, r := range results {
		if r.IsError() {
			errs = append(errs, r.Error)
			continue
		}
		values = append(values, r.Data)
	}
	return values, errs
}
