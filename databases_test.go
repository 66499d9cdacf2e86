package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/notioncodes/notion/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const databaseJSON = `{
	"object": "database",
	"id": "598337872cf9e074b809e4c748e5ae49",
	"title": [{"type": "text", "text": {"content": "Tasks"}, "plain_text": "Tasks"}],
	"parent": {"type": "page_id", "page_id": "23fd7342e571819596ccfb5fbb9144f7"},
	"properties": {
		"Name": {"id": "title", "name": "Name", "type": "title", "title": {}}
	}
}`

// queryHandler serves a paginated database query over total synthetic pages.
func queryHandler(total int, requests *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		pageSize := 100
		if v, ok := body["page_size"].(float64); ok {
			pageSize = int(v)
		}
		offset := 0
		if cursor, ok := body["start_cursor"].(string); ok {
			fmt.Sscanf(cursor, "%d", &offset)
		}

		end := offset + pageSize
		if end > total {
			end = total
		}

		results := make([]map[string]any, 0, end-offset)
		for i := offset; i < end; i++ {
			results = append(results, map[string]any{
				"object": "page",
				"id":     fmt.Sprintf("%032x", i+1),
				"parent": map[string]any{"type": "database_id", "database_id": testDatabaseID},
			})
		}

		resp := map[string]any{
			"object":   "list",
			"type":     "page_or_database",
			"results":  results,
			"has_more": end < total,
		}
		if end < total {
			resp["next_cursor"] = fmt.Sprintf("%d", end)
		} else {
			resp["next_cursor"] = nil
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestDatabasesGet(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/databases/"+testDatabaseID, r.URL.Path)
		writeJSON(w, http.StatusOK, databaseJSON)
	}))

	db, err := client.Databases().Get(context.Background(), types.DatabaseID(testDatabaseID))
	require.NoError(t, err)
	assert.Equal(t, "Tasks", db.Title())
	assert.Equal(t, "title", db.Properties["Name"].Type)
}

func TestDatabasesGetInvalidID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))

	_, err := client.Databases().Get(context.Background(), "not-a-database")
	require.Error(t, err)
	valErr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	assert.Equal(t, "database_id", valErr.Field)
}

func TestDatabasesQueryAll(t *testing.T) {
	var requests int32
	client := newTestClient(t, queryHandler(137, &requests))

	pages, err := client.Databases().QueryAll(context.Background(), types.DatabaseID(testDatabaseID), nil)
	require.NoError(t, err)

	assert.Len(t, pages, 137)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestDatabasesQuerySendsFilter(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/databases/"+testDatabaseID+"/query", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, `{"object":"list","results":[],"has_more":false,"next_cursor":null}`)
	}))

	filter := map[string]any{"property": "Status", "select": map[string]any{"equals": "Done"}}
	sorts := []map[string]any{{"timestamp": "last_edited_time", "direction": "descending"}}

	_, err := client.Databases().Query(context.Background(), types.DatabaseID(testDatabaseID), &QueryRequest{
		Filter: filter,
		Sorts:  sorts,
	})
	require.NoError(t, err)

	assert.Contains(t, gotBody, "filter")
	assert.Contains(t, gotBody, "sorts")
	assert.Contains(t, gotBody, "page_size")

	gotFilter := gotBody["filter"].(map[string]any)
	assert.Equal(t, "Status", gotFilter["property"])
}

func TestDatabasesQueryResumesFromCursor(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, `{"object":"list","results":[],"has_more":false,"next_cursor":null}`)
	}))

	_, err := client.Databases().Query(context.Background(), types.DatabaseID(testDatabaseID), &QueryRequest{
		StartCursor: "cursor-from-before",
		PageSize:    25,
	})
	require.NoError(t, err)

	assert.Equal(t, "cursor-from-before", gotBody["start_cursor"])
	assert.Equal(t, float64(25), gotBody["page_size"])
}

func TestDatabasesStream(t *testing.T) {
	var requests int32
	client := newTestClient(t, queryHandler(5, &requests))

	var count int
	for result := range client.Databases().Stream(context.Background(), types.DatabaseID(testDatabaseID), nil) {
		require.NoError(t, result.Error)
		count++
	}
	assert.Equal(t, 5, count)
}

func TestDatabasesCreateValidation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))

	_, err := client.Databases().Create(context.Background(), &CreateDatabaseRequest{})
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok, "expected *ValidationError, got %T", err)
}

func TestDatabasesSchemaChanges(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, databaseJSON)
	}))

	dbID := types.DatabaseID(testDatabaseID)

	_, err := client.Databases().AddProperty(context.Background(), dbID, "Priority", map[string]any{
		"select": map[string]any{"options": []map[string]any{{"name": "High"}}},
	})
	require.NoError(t, err)
	props := gotBody["properties"].(map[string]any)
	assert.Contains(t, props, "Priority")

	// Removal is expressed as a null schema
	_, err = client.Databases().RemoveProperty(context.Background(), dbID, "Priority")
	require.NoError(t, err)
	props = gotBody["properties"].(map[string]any)
	require.Contains(t, props, "Priority")
	assert.Nil(t, props["Priority"])

	_, err = client.Databases().RenameProperty(context.Background(), dbID, "Name", "Task")
	require.NoError(t, err)
	props = gotBody["properties"].(map[string]any)
	renamed := props["Name"].(map[string]any)
	assert.Equal(t, "Task", renamed["name"])
}

func TestDatabasesArchiveIdempotent(t *testing.T) {
	// Archiving twice sends the same payload twice; the server treats the
	// second as a no-op and neither call errors
	var bodies []map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		writeJSON(w, http.StatusOK, databaseJSON)
	}))

	dbID := types.DatabaseID(testDatabaseID)
	_, err := client.Databases().Archive(context.Background(), dbID)
	require.NoError(t, err)
	_, err = client.Databases().Archive(context.Background(), dbID)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, true, bodies[0]["archived"])
}
