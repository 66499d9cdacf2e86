package notion

import (
	"context"
	"net/url"
	"strconv"
)

// PaginationResponse is the list envelope the Notion API wraps every
// paginated result set in.
type PaginationResponse[T any] struct {
	// Results contains the items in this page.
	Results []T `json:"results"`

	// NextCursor is the cursor for the next page (nil if no more pages).
	NextCursor *string `json:"next_cursor"`

	// HasMore indicates if there are more pages available.
	HasMore bool `json:"has_more"`

	// Object is the type of the response object, always "list".
	Object string `json:"object"`

	// Type is the specific type of the paginated response.
	Type string `json:"type,omitempty"`
}

// pageFetcher retrieves one page for the given cursor. Implementations close
// over the endpoint specifics (path, query or body, HTTP verb).
type pageFetcher[T any] func(ctx context.Context, cursor *string, pageSize int) (*PaginationResponse[T], error)

// Paginator walks a cursor-paginated endpoint lazily. Each Next call issues
// exactly one request; nothing is fetched ahead of what the caller consumes.
// Not safe for concurrent use.
type Paginator[T any] struct {
	fetch    pageFetcher[T]
	pageSize int

	cursor  *string
	done    bool
	pageNum int
}

// HasMore reports whether another Next call can produce items. True before
// the first fetch.
func (p *Paginator[T]) HasMore() bool {
	return !p.done
}

// Next fetches and returns the next page of items. After the final page it
// returns (nil, nil); use HasMore to drive the loop.
//
// Example:
//
//	pager := client.Databases().IteratePages(databaseID, nil)
//	for pager.HasMore() {
//	    pages, err := pager.Next(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    // process pages
//	}
func (p *Paginator[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}

	p.pageNum++
	resp, err := p.fetch(ctx, p.cursor, p.pageSize)
	if err != nil {
		p.done = true
		pagErr := &PaginationError{
			Message:   err.Error(),
			Page:      p.pageNum,
			Operation: "next",
		}
		if p.cursor != nil {
			pagErr.Cursor = *p.cursor
		}
		return nil, pagErr
	}

	if resp.HasMore && resp.NextCursor != nil {
		p.cursor = resp.NextCursor
	} else {
		p.done = true
	}

	return resp.Results, nil
}

// CollectAll drains the paginator into a single slice.
func (p *Paginator[T]) CollectAll(ctx context.Context) ([]T, error) {
	var all []T
	for p.HasMore() {
		items, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		all = append(all, items...)
	}
	return all, nil
}

// Stream walks the paginator in a goroutine and delivers items on a channel
// in the order the API returns them. The channel closes after the last item
// or the first error.
func (p *Paginator[T]) Stream(ctx context.Context, bufferSize int) <-chan Result[T] {
	resultCh := make(chan Result[T], bufferSize)

	go func() {
		defer close(resultCh)

		position := 0
		for p.HasMore() {
			select {
			case <-ctx.Done():
				// The consumer may already be gone; never block on it.
				select {
				case resultCh <- Error[T](ctx.Err()):
				default:
				}
				return
			default:
			}

			items, err := p.Next(ctx)
			if err != nil {
				select {
				case resultCh <- Error[T](err):
				case <-ctx.Done():
				}
				return
			}

			for _, item := range items {
				position++
				metadata := &ResultMetadata{
					FromStream:     true,
					StreamPosition: position,
					PageInfo: &PageInfo{
						HasMore:    p.HasMore(),
						NextCursor: p.cursor,
						PageSize:   len(items),
						PageNumber: p.pageNum,
					},
				}

				select {
				case resultCh <- SuccessWithMetadata(item, metadata):
				case <-ctx.Done():
					select {
					case resultCh <- Error[T](ctx.Err()):
					default:
					}
					return
				}
			}
		}
	}()

	return resultCh
}

// NewGetPaginator builds a paginator over a GET endpoint. The cursor and page
// size travel as start_cursor and page_size query parameters.
func NewGetPaginator[T any](c *HTTPClient, path string, query url.Values, pageSize int) *Paginator[T] {
	if pageSize <= 0 {
		pageSize = c.config.PageSize
	}

	return &Paginator[T]{
		pageSize: pageSize,
		fetch: func(ctx context.Context, cursor *string, size int) (*PaginationResponse[T], error) {
			q := make(url.Values, len(query)+2)
			for key, values := range query {
				q[key] = values
			}
			q.Set("page_size", strconv.Itoa(size))
			if cursor != nil {
				q.Set("start_cursor", *cursor)
			}

			var resp PaginationResponse[T]
			if err := c.GetJSON(ctx, path, q, &resp); err != nil {
				return nil, err
			}
			return &resp, nil
		},
	}
}

// NewPostPaginator builds a paginator over a query-style POST endpoint
// (database query, search). The cursor and page size are injected as
// start_cursor and page_size body keys; the caller's body map is not mutated.
func NewPostPaginator[T any](c *HTTPClient, path string, body map[string]any, pageSize int) *Paginator[T] {
	if pageSize <= 0 {
		pageSize = c.config.PageSize
	}

	return &Paginator[T]{
		pageSize: pageSize,
		fetch: func(ctx context.Context, cursor *string, size int) (*PaginationResponse[T], error) {
			payload := make(map[string]any, len(body)+2)
			for key, value := range body {
				payload[key] = value
			}
			payload["page_size"] = size
			if cursor != nil {
				payload["start_cursor"] = *cursor
			}

			var resp PaginationResponse[T]
			if err := c.PostQueryJSON(ctx, path, payload, &resp); err != nil {
				return nil, err
			}
			return &resp, nil
		},
	}
}

// GetPaginated streams every item of a GET-paginated endpoint.
func GetPaginated[T any](c *HTTPClient, ctx context.Context, path string, query url.Values, pageSize int) <-chan Result[T] {
	return NewGetPaginator[T](c, path, query, pageSize).Stream(ctx, c.config.BufferSize)
}

// PostPaginated streams every item of a query-style POST endpoint.
func PostPaginated[T any](c *HTTPClient, ctx context.Context, path string, body map[string]any, pageSize int) <-chan Result[T] {
	return NewPostPaginator[T](c, path, body, pageSize).Stream(ctx, c.config.BufferSize)
}
