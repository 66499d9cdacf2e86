package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/notioncodes/notion/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockJSON(id, blockType, text string, hasChildren bool) map[string]any {
	return map[string]any{
		"object":       "block",
		"id":           id,
		"type":         blockType,
		"has_children": hasChildren,
		blockType: map[string]any{
			"rich_text": []map[string]any{
				{"type": "text", "text": map[string]any{"content": text}, "plain_text": text},
			},
		},
	}
}

func blockListJSON(blocks ...map[string]any) string {
	out, _ := json.Marshal(map[string]any{
		"object":      "list",
		"type":        "block",
		"results":     blocks,
		"has_more":    false,
		"next_cursor": nil,
	})
	return string(out)
}

func TestBlocksGet(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks/"+testBlockID, r.URL.Path)
		out, _ := json.Marshal(blockJSON(testBlockID, "paragraph", "hello", false))
		writeJSON(w, http.StatusOK, string(out))
	}))

	block, err := client.Blocks().Get(context.Background(), types.BlockID(testBlockID))
	require.NoError(t, err)
	assert.Equal(t, "paragraph", block.Type)
	assert.Equal(t, "hello", block.PlainText())
}

func TestBlocksGetInvalidID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))

	_, err := client.Blocks().Get(context.Background(), "nope")
	require.Error(t, err)
	valErr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	assert.Equal(t, "block_id", valErr.Field)
}

func TestBlocksDelete(t *testing.T) {
	var gotMethod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		out, _ := json.Marshal(blockJSON(testBlockID, "paragraph", "gone", false))
		writeJSON(w, http.StatusOK, string(out))
	}))

	block, err := client.Blocks().Delete(context.Background(), types.BlockID(testBlockID))
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, types.BlockID(testBlockID), block.ID)
}

func TestBlocksAppendChildren(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/blocks/"+testBlockID+"/children", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, blockListJSON(
			blockJSON("00000000000000000000000000000011", "paragraph", "appended", false),
		))
	}))

	created, err := client.Blocks().AppendChildren(context.Background(), types.BlockID(testBlockID), &AppendChildrenRequest{
		Children: []map[string]any{types.NewParagraphBlock("appended")},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "appended", created[0].PlainText())

	children := gotBody["children"].([]any)
	assert.Len(t, children, 1)
}

func TestBlocksAppendChildrenNotRetriedOnServerError(t *testing.T) {
	// The server may have written the children before failing, so the
	// append is never replayed after a 5xx.
	var attempts int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		writeJSON(w, http.StatusServiceUnavailable,
			`{"object":"error","status":503,"code":"service_unavailable","message":"try later"}`)
	}))

	_, err := client.Blocks().AppendChildren(context.Background(), types.BlockID(testBlockID), &AppendChildrenRequest{
		Children: []map[string]any{types.NewParagraphBlock("appended")},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestBlocksAppendChildrenValidation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	}))

	_, err := client.Blocks().AppendChildren(context.Background(), types.BlockID(testBlockID), &AppendChildrenRequest{})
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok, "expected *ValidationError, got %T", err)
}

func TestBlocksGetAllChildren(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, blockListJSON(
			blockJSON("00000000000000000000000000000021", "heading_1", "Intro", false),
			blockJSON("00000000000000000000000000000022", "paragraph", "Body", false),
		))
	}))

	children, err := client.Blocks().GetAllChildren(context.Background(), types.BlockID(testBlockID))
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Intro", children[0].PlainText())
	assert.Equal(t, "Body", children[1].PlainText())
}

func TestBlocksGetTree(t *testing.T) {
	const (
		rootChild   = "00000000000000000000000000000031"
		leafSibling = "00000000000000000000000000000032"
		nestedChild = "00000000000000000000000000000033"
	)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, testBlockID):
			writeJSON(w, http.StatusOK, blockListJSON(
				blockJSON(rootChild, "toggle", "Details", true),
				blockJSON(leafSibling, "paragraph", "Flat", false),
			))
		case strings.Contains(r.URL.Path, rootChild):
			writeJSON(w, http.StatusOK, blockListJSON(
				blockJSON(nestedChild, "paragraph", "Hidden", false),
			))
		default:
			t.Errorf("unexpected children fetch: %s", r.URL.Path)
		}
	}))

	tree, err := client.Blocks().GetTree(context.Background(), types.BlockID(testBlockID), 0)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	// Only the block reporting has_children was descended into
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Hidden", tree[0].Children[0].PlainText())
	assert.Empty(t, tree[1].Children)
}

func TestBlocksGetTreeDepthLimit(t *testing.T) {
	// Every level claims children; depth 1 must stop after the first fetch
	var fetches int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		writeJSON(w, http.StatusOK, blockListJSON(
			blockJSON("00000000000000000000000000000041", "toggle", "Deeper", true),
		))
	}))

	tree, err := client.Blocks().GetTree(context.Background(), types.BlockID(testBlockID), 1)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Children)
	assert.Equal(t, 1, fetches)
}

func TestBlocksArchive(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		out, _ := json.Marshal(blockJSON(testBlockID, "paragraph", "x", false))
		writeJSON(w, http.StatusOK, string(out))
	}))

	_, err := client.Blocks().Archive(context.Background(), types.BlockID(testBlockID))
	require.NoError(t, err)
	assert.Equal(t, true, gotBody["archived"])
}

func TestBlocksTrashAndRestore(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		out, _ := json.Marshal(blockJSON(testBlockID, "paragraph", "x", false))
		writeJSON(w, http.StatusOK, string(out))
	}))

	_, err := client.Blocks().Trash(context.Background(), types.BlockID(testBlockID))
	require.NoError(t, err)
	assert.Equal(t, true, gotBody["in_trash"])

	_, err = client.Blocks().Restore(context.Background(), types.BlockID(testBlockID))
	require.NoError(t, err)
	assert.Equal(t, false, gotBody["in_trash"])
}
