package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
)

// fakeES answers just enough of the Elasticsearch API for ESIndex.
func fakeES(t *testing.T) (*ESIndex, *[]string, *[]map[string]any) {
	t.Helper()
	var (
		mu    sync.Mutex
		paths []string
		docs  []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/reports/_doc/7":
			var d map[string]any
			_ = json.Unmarshal(body, &d)
			mu.Lock()
			docs = append(docs, d)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/reports":
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		case r.URL.Path == "/reports/_search":
			_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[{"_source":{"id":7}},{"_source":{"id":3}}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &ESIndex{ES: es, Index: "reports"}, &paths, &docs
}

func TestESIndex_IndexReport(t *testing.T) {
	t.Parallel()
	idx, _, docs := fakeES(t)

	desc := "big hole"
	err := idx.IndexReport(context.Background(), models.Report{
		ID: 7, Title: "Pothole", Description: &desc, Type: "labour", Status: "pending",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, *docs, 1)
	assert.Equal(t, "Pothole", (*docs)[0]["title"])
	assert.Equal(t, "big hole", (*docs)[0]["description"])
	assert.Equal(t, "2025-01-02T03:04:05Z", (*docs)[0]["created_at"])
}

func TestESIndex_Search(t *testing.T) {
	t.Parallel()
	idx, _, _ := fakeES(t)

	total, ids, err := idx.Search(context.Background(), "pothole", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{7, 3}, ids)
}

func TestESIndex_EnsureIndexCreatesMissing(t *testing.T) {
	t.Parallel()
	idx, paths, _ := fakeES(t)

	// HEAD /reports answers 404 so the index is created
	require.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Contains(t, *paths, "HEAD /reports")
	assert.Contains(t, *paths, "PUT /reports")
}
