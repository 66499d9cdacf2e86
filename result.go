package notion

import (
	"context"
	"time"
)

// Result carries one outcome of an asynchronous operation. It is the element
// type of every streaming channel in this package.
type Result[T any] struct {
	// Data contains the successful result of the operation.
	Data T

	// Error contains any error that occurred during the operation.
	// Data is the zero value when Error is not nil.
	Error error

	// Metadata contains additional information about the operation.
	Metadata *ResultMetadata
}

// ResultMetadata contains observability information about an operation.
type ResultMetadata struct {
	// RequestID is a unique identifier for this request, useful for tracing.
	RequestID string

	// Attempt is the number of attempts made (1-based).
	Attempt int

	// Duration is the total time taken for the operation including retries.
	Duration time.Duration

	// RateLimited indicates if the request was rate limited.
	RateLimited bool

	// FromStream indicates if this result came from a streaming operation.
	FromStream bool

	// StreamPosition is the position in the stream (for paginated results).
	StreamPosition int

	// PageInfo contains pagination information if applicable.
	PageInfo *PageInfo
}

// PageInfo contains pagination metadata for streaming operations.
type PageInfo struct {
	// HasMore indicates if there are more pages available.
	HasMore bool

	// NextCursor is the cursor for the next page.
	NextCursor *string

	// PageSize is the size of the current page.
	PageSize int

	// PageNumber is the current page number (1-based).
	PageNumber int
}

// IsSuccess returns true if the result represents a successful operation.
func (r *Result[T]) IsSuccess() bool {
	return r.Error == nil
}

// IsError returns true if the result represents a failed operation.
func (r *Result[T]) IsError() bool {
	return r.Error != nil
}

// Success creates a successful result with the given data.
func Success[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Error creates an error result with the given error.
func Error[T any](err error) Result[T] {
	var zero T
	return Result[T]{Data: zero, Error: err}
}

// SuccessWithMetadata creates a successful result with data and metadata.
func SuccessWithMetadata[T any](data T, metadata *ResultMetadata) Result[T] {
	return Result[T]{Data: data, Metadata: metadata}
}

// ErrorWithMetadata creates an error result with an error and metadata.
func ErrorWithMetadata[T any](err error, metadata *ResultMetadata) Result[T] {
	var zero T
	return Result[T]{Data: zero, Error: err, Metadata: metadata}
}

// CollectResults drains a result channel into a slice, stopping at the first
// error.
//
// Example:
//
//	pages, err := CollectResults(ctx, client.Search().Iterate(ctx, req))
func CollectResults[T any](ctx context.Context, resultCh <-chan Result[T]) ([]T, error) {
	var results []T

	for {
		select {
		case result, ok := <-resultCh:
			if !ok {
				return results, nil
			}

			if result.IsError() {
				return results, result.Error
			}

			results = append(results, result.Data)

		case <-ctx.Done():
			return results, ctx.Err()
		}
	}
}

// CollectAllResults drains a result channel keeping both the successes and
// every error encountered.
func CollectAllResults[T any](ctx context.Context, resultCh <-chan Result[T]) ([]T, []error) {
	var results []T
	var errors []error

	for {
		select {
		case result, ok := <-resultCh:
			if !ok {
				return results, errors
			}

			if result.IsError() {
				errors = append(errors, result.Error)
			} else {
				results = append(results, result.Data)
			}

		case <-ctx.Done():
			return results, errors
		}
	}
}

// FilterResults forwards only the results that pass the predicate. Errors
// always pass through.
func FilterResults[T any](ctx context.Context, resultCh <-chan Result[T], predicate func(T) bool) <-chan Result[T] {
	outputCh := make(chan Result[T])

	go func() {
		defer close(outputCh)

		for {
			select {
			case result, ok := <-resultCh:
				if !ok {
					return
				}

				if result.IsError() || predicate(result.Data) {
					select {
					case outputCh <- result:
					case <-ctx.Done():
						return
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return outputCh
}
