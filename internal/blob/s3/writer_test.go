package s3blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points the SDK at a local fake endpoint with path-style
// addressing, the same shape as a MinIO deployment.
func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := New(context.Background(), ClientConfig{
		Endpoint:       endpoint,
		Region:         "us-east-1",
		Bucket:         "oddsarb-archive",
		AccessKey:      "test",
		SecretKey:      "test",
		ForcePathStyle: true,
	})
	require.NoError(t, err)
	return c
}

// TestWriterPutDefaultsToJSONL uploads with the JSONL content type when the
// caller does not specify one.
func TestWriterPutDefaultsToJSONL(t *testing.T) {
	var gotPath, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWriter(newTestClient(t, srv.URL))
	err := w.Put(context.Background(), "archive/matches/2025-06.jsonl",
		strings.NewReader(`{"id":"m1"}`+"\n"), "")
	require.NoError(t, err)

	assert.Equal(t, "/oddsarb-archive/archive/matches/2025-06.jsonl", gotPath)
	assert.Equal(t, "application/x-ndjson", gotContentType)
	assert.Contains(t, gotBody, `{"id":"m1"}`)
}

// TestClientHealthChecksBucket surfaces a missing or unreachable bucket.
func TestClientHealthChecksBucket(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.Health(context.Background()))

	status = http.StatusNotFound
	err := c.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oddsarb-archive")
}
