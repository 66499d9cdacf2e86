package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePageJSON = `{
	"object": "page",
	"id": "23fd7342e571819596ccfb5fbb9144f7",
	"created_time": "2024-01-15T09:00:00.000Z",
	"last_edited_time": "2024-03-02T17:30:00.000Z",
	"parent": {"type": "database_id", "database_id": "598337872cf9e074b809e4c748e5ae49"},
	"archived": false,
	"in_trash": false,
	"url": "https://www.notion.so/Launch-plan-23fd7342e571819596ccfb5fbb9144f7",
	"properties": {
		"Name": {
			"id": "title",
			"type": "title",
			"title": [{"type": "text", "text": {"content": "Launch plan"}, "plain_text": "Launch plan"}]
		},
		"Done": {"id": "ch%3A", "type": "checkbox", "checkbox": true},
		"Effort": {"id": "nm%40", "type": "number", "number": 3.5},
		"Status": {"id": "sl%24", "type": "select", "select": {"id": "opt1", "name": "In progress", "color": "blue"}}
	},
	"request_id": "b6f94f3c-1c9b-4b82-a0b4-0c9e1a67a0f2",
	"developer_survey": {"answered": false}
}`

func TestPageUnmarshalKeepsUnknownKeys(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(samplePageJSON), &page))

	assert.Equal(t, ObjectTypePage, page.Object)
	assert.Equal(t, PageID("23fd7342e571819596ccfb5fbb9144f7"), page.ID)
	assert.Equal(t, ParentTypeDatabase, page.Parent.Type)
	assert.Equal(t, DatabaseID("598337872cf9e074b809e4c748e5ae49"), page.Parent.DatabaseID)

	// Keys the struct does not declare survive in Extra
	require.Contains(t, page.Extra, "request_id")
	require.Contains(t, page.Extra, "developer_survey")
	assert.NotContains(t, page.Extra, "properties")
}

func TestPageMarshalRoundTrip(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(samplePageJSON), &page))

	out, err := json.Marshal(&page)
	require.NoError(t, err)

	var original, reencoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(samplePageJSON), &original))
	require.NoError(t, json.Unmarshal(out, &reencoded))

	// Unknown keys and unmodeled property payloads come back intact
	assert.Equal(t, original["request_id"], reencoded["request_id"])
	assert.Equal(t, original["developer_survey"], reencoded["developer_survey"])
	assert.Equal(t, original["properties"], reencoded["properties"])
	assert.Equal(t, original["url"], reencoded["url"])
}

func TestPageTitle(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(samplePageJSON), &page))
	assert.Equal(t, "Launch plan", page.Title())

	var empty Page
	require.NoError(t, json.Unmarshal([]byte(`{"object":"page","id":"x"}`), &empty))
	assert.Equal(t, "", empty.Title())
}

func TestPagePropertyAccessors(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(samplePageJSON), &page))

	done, ok := page.Property("Done")
	require.True(t, ok)
	assert.Equal(t, "checkbox", done.Type)
	assert.True(t, done.Checkbox())

	effort, ok := page.Property("Effort")
	require.True(t, ok)
	n, ok := effort.Number()
	require.True(t, ok)
	assert.Equal(t, 3.5, n)

	status, ok := page.Property("Status")
	require.True(t, ok)
	opt := status.Select()
	require.NotNil(t, opt)
	assert.Equal(t, "In progress", opt.Name)

	_, ok = page.Property("Missing")
	assert.False(t, ok)
}

func TestPropertyValueRawPreserved(t *testing.T) {
	// A property type this package has no accessor for still round-trips
	payload := `{"id":"fm%3A","type":"formula","formula":{"type":"number","number":42}}`

	var prop PropertyValue
	require.NoError(t, json.Unmarshal([]byte(payload), &prop))
	assert.Equal(t, "formula", prop.Type)

	out, err := json.Marshal(prop)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}

func TestPropertyValueUnsetNumber(t *testing.T) {
	var prop PropertyValue
	require.NoError(t, json.Unmarshal([]byte(`{"id":"n","type":"number","number":null}`), &prop))

	_, ok := prop.Number()
	assert.False(t, ok)
}
