package notion

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Object IDs used across the tests, in undashed and dashed forms.
const (
	testPageID     = "23fd7342e571819596ccfb5fbb9144f7"
	testDatabaseID = "598337872cf9e074b809e4c748e5ae49"
	testBlockID    = "c02fc1d3db8b45c5a222a0404d9b5f08"
	testUserID     = "c2f20311d9ae4f4c9564cf536af4a3e6"
)

// newTestClient wires a client against an httptest server with near-zero
// backoff and an effectively unlimited request rate so retry and pagination
// paths run fast.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.Token = "secret_test_token"
	config.BaseURL = server.URL
	config.RequestsPerSecond = 10000
	config.BaseBackoff = time.Millisecond
	config.MaxBackoff = 2 * time.Millisecond

	client, err := New(config)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
