package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notioncodes/notion/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userListHandler serves a cursor-paginated /users endpoint over total
// synthetic users, honoring page_size and start_cursor query parameters.
func userListHandler(total int, requests *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if pageSize <= 0 {
			pageSize = 100
		}
		offset := 0
		if cursor := r.URL.Query().Get("start_cursor"); cursor != "" {
			offset, _ = strconv.Atoi(cursor)
		}

		end := offset + pageSize
		if end > total {
			end = total
		}

		results := make([]map[string]any, 0, end-offset)
		for i := offset; i < end; i++ {
			results = append(results, map[string]any{
				"object": "user",
				"id":     fmt.Sprintf("%032x", i+1),
				"type":   "person",
				"name":   fmt.Sprintf("User %d", i),
				"person": map[string]any{"email": fmt.Sprintf("user%d@example.com", i)},
			})
		}

		resp := map[string]any{
			"object":   "list",
			"type":     "user",
			"results":  results,
			"has_more": end < total,
		}
		if end < total {
			resp["next_cursor"] = strconv.Itoa(end)
		} else {
			resp["next_cursor"] = nil
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestPaginatorIsLazy(t *testing.T) {
	var requests int32
	client := newTestClient(t, userListHandler(10, &requests))

	pager := NewGetPaginator[types.User](client.HTTP(), "/users", nil, 4)

	// Building the paginator costs nothing
	assert.True(t, pager.HasMore())
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))

	items, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)

	// Exactly one request per Next call, no prefetching
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.True(t, pager.HasMore())
}

func TestPaginatorWalksAllPages(t *testing.T) {
	var requests int32
	client := newTestClient(t, userListHandler(10, &requests))

	pager := NewGetPaginator[types.User](client.HTTP(), "/users", nil, 4)

	var all []types.User
	for pager.HasMore() {
		items, err := pager.Next(context.Background())
		require.NoError(t, err)
		all = append(all, items...)
	}

	// 4 + 4 + 2
	assert.Len(t, all, 10)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
	assert.Equal(t, "User 0", all[0].Name)
	assert.Equal(t, "User 9", all[9].Name)

	// Past the final page Next is a no-op
	items, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, items)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestPaginatorCollectAll(t *testing.T) {
	var requests int32
	client := newTestClient(t, userListHandler(137, &requests))

	all, err := NewGetPaginator[types.User](client.HTTP(), "/users", nil, 0).CollectAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, all, 137)
	// Default page size is 100, so 137 items take two requests
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestPaginatorStream(t *testing.T) {
	var requests int32
	client := newTestClient(t, userListHandler(7, &requests))

	var names []string
	var lastPosition int
	for result := range NewGetPaginator[types.User](client.HTTP(), "/users", nil, 3).Stream(context.Background(), 10) {
		require.NoError(t, result.Error)
		names = append(names, result.Data.Name)

		require.NotNil(t, result.Metadata)
		assert.True(t, result.Metadata.FromStream)
		assert.Greater(t, result.Metadata.StreamPosition, lastPosition)
		lastPosition = result.Metadata.StreamPosition
	}

	assert.Len(t, names, 7)
	assert.Equal(t, "User 0", names[0])
	assert.Equal(t, "User 6", names[6])
}

func TestPaginatorStreamShutsDownAfterCancel(t *testing.T) {
	var requests int32
	client := newTestClient(t, userListHandler(6, &requests))

	ctx, cancel := context.WithCancel(context.Background())
	stream := NewGetPaginator[types.User](client.HTTP(), "/users", nil, 3).Stream(ctx, 0)

	first, ok := <-stream
	require.True(t, ok)
	require.NoError(t, first.Error)

	// The consumer walks away after canceling; the stream goroutine must
	// still close the channel instead of blocking on a final send.
	cancel()
	time.Sleep(50 * time.Millisecond)

	result, ok := <-stream
	assert.False(t, ok, "stream should be closed, got %+v", result)
}

func TestPaginatorWrapsErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound,
			`{"object":"error","status":404,"code":"object_not_found","message":"no such collection"}`)
	}))

	pager := NewGetPaginator[types.User](client.HTTP(), "/users", nil, 0)
	_, err := pager.Next(context.Background())
	require.Error(t, err)

	pagErr, ok := err.(*PaginationError)
	require.True(t, ok, "expected *PaginationError, got %T", err)
	assert.Equal(t, 1, pagErr.Page)
	assert.False(t, pager.HasMore())
}

func TestPostPaginatorInjectsCursorWithoutMutation(t *testing.T) {
	var bodies []map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)

		if len(bodies) == 1 {
			writeJSON(w, http.StatusOK,
				`{"object":"list","results":[{"object":"page","id":"`+testPageID+`","parent":{"type":"workspace","workspace":true}}],"has_more":true,"next_cursor":"cursor-2"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"object":"list","results":[],"has_more":false,"next_cursor":null}`)
	}))

	callerBody := map[string]any{"filter": map[string]any{"property": "Done"}}
	pager := NewPostPaginator[types.Page](client.HTTP(), "/databases/"+testDatabaseID+"/query", callerBody, 50)

	_, err := pager.CollectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, bodies, 2)

	// First request has the page size but no cursor
	assert.Equal(t, float64(50), bodies[0]["page_size"])
	assert.NotContains(t, bodies[0], "start_cursor")
	assert.Contains(t, bodies[0], "filter")

	// Second request carries the cursor from the first response
	assert.Equal(t, "cursor-2", bodies[1]["start_cursor"])

	// The caller's map is never written to
	assert.NotContains(t, callerBody, "page_size")
	assert.NotContains(t, callerBody, "start_cursor")
}
