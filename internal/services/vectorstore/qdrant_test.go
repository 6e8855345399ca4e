package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// newTestIndex starts a fake Qdrant server and returns an index pointed at it
func newTestIndex(t *testing.T, handler http.HandlerFunc) (*QdrantIndex, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&body)
		}
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
		})
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	index, err := NewQdrantIndex(Config{
		URL:        server.URL,
		APIKey:     "test-key",
		Collection: "ai_docs",
		Timeout:    5 * time.Second,
	}, arbor.NewLogger())
	require.NoError(t, err)

	return index, &requests
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, index.EnsureCollection(context.Background(), 1536))

	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodGet, (*requests)[0].Method)
	assert.Equal(t, http.MethodPut, (*requests)[1].Method)
	assert.Equal(t, "/collections/ai_docs", (*requests)[1].Path)

	vectors := (*requests)[1].Body["vectors"].(map[string]any)
	assert.Equal(t, float64(1536), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollection_IdempotentWhenExists(t *testing.T) {
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, index.EnsureCollection(context.Background(), 1536))

	// Existing collection means no create call
	require.Len(t, *requests, 1)
	assert.Equal(t, http.MethodGet, (*requests)[0].Method)
}

func TestEnsureCollection_InvalidDimension(t *testing.T) {
	index, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.Error(t, index.EnsureCollection(context.Background(), 0))
}

func TestUpsert_SingleBatchWithPayload(t *testing.T) {
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	chunks := []models.DocumentChunk{
		{ID: "11111111-1111-1111-1111-111111111111", SourceID: "pdf_a", Text: "page one", Page: 1, Embedding: []float32{0.1, 0.2}},
		{ID: "22222222-2222-2222-2222-222222222222", SourceID: "pdf_a", Text: "page two", Page: 2, Embedding: []float32{0.3, 0.4}},
	}
	require.NoError(t, index.Upsert(context.Background(), chunks))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/collections/ai_docs/points", req.Path)
	assert.Equal(t, "wait=true", req.Query)

	points := req.Body["points"].([]any)
	require.Len(t, points, 2)

	first := points[0].(map[string]any)
	payload := first["payload"].(map[string]any)
	assert.Equal(t, "pdf_a", payload["source_id"])
	assert.Equal(t, "page one", payload["text"])
	assert.Equal(t, float64(1), payload["page"])
}

func TestUpsert_EmptyAndUnembedded(t *testing.T) {
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Empty batch is a no-op, not a request
	require.NoError(t, index.Upsert(context.Background(), nil))
	assert.Empty(t, *requests)

	// Chunks without embeddings are rejected before any request
	err := index.Upsert(context.Background(), []models.DocumentChunk{{ID: "x", SourceID: "pdf_a", Text: "t", Page: 1}})
	assert.Error(t, err)
	assert.Empty(t, *requests)
}

func TestSearch_ScopedToSource(t *testing.T) {
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.92,
					"payload": map[string]any{
						"source_id": "pdf_a",
						"text":      "relevant passage",
						"page":      3,
					},
				},
			},
		})
	})

	results, err := index.Search(context.Background(), []float32{0.1, 0.2}, 4, "pdf_a")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "pdf_a", results[0].SourceID)
	assert.Equal(t, "relevant passage", results[0].Text)
	assert.Equal(t, 3, results[0].Page)
	assert.InDelta(t, 0.92, results[0].Score, 0.001)

	req := (*requests)[0]
	assert.Equal(t, "/collections/ai_docs/points/search", req.Path)
	assert.Equal(t, float64(4), req.Body["limit"])

	filter := req.Body["filter"].(map[string]any)
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	assert.Equal(t, "source_id", cond["key"])
	assert.Equal(t, map[string]any{"value": "pdf_a"}, cond["match"])
}

func TestSearch_NoFilterWithoutSource(t *testing.T) {
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	})

	_, err := index.Search(context.Background(), []float32{0.1}, 4, "")
	require.NoError(t, err)

	_, hasFilter := (*requests)[0].Body["filter"]
	assert.False(t, hasFilter)
}

func TestFetchBySource_Paginates(t *testing.T) {
	call := 0
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		call++
		if call == 1 {
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"points": []map[string]any{
						{"payload": map[string]any{"source_id": "pdf_a", "text": "first", "page": 1}},
					},
					"next_page_offset": "cursor-1",
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"points": []map[string]any{
					{"payload": map[string]any{"source_id": "pdf_a", "text": "second", "page": 2}},
				},
				"next_page_offset": nil,
			},
		})
	})

	results, err := index.FetchBySource(context.Background(), "pdf_a")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Text)
	assert.Equal(t, "second", results[1].Text)

	// Second scroll carries the offset cursor
	require.Len(t, *requests, 2)
	assert.Equal(t, "cursor-1", (*requests)[1].Body["offset"])
}

func TestDeleteBySource(t *testing.T) {
	index, requests := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, index.DeleteBySource(context.Background(), "pdf_a"))

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/collections/ai_docs/points/delete", req.Path)
	assert.Contains(t, req.Body, "filter")
}

func TestAPIKeyHeader(t *testing.T) {
	var gotKey string
	index, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, index.DeleteBySource(context.Background(), "pdf_a"))
	assert.Equal(t, "test-key", gotKey)
}

func TestServerError(t *testing.T) {
	index, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := index.Search(context.Background(), []float32{0.1}, 4, "pdf_a")
	assert.Error(t, err)
}
