package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/aidocify/docify/internal/interfaces"
	"github.com/aidocify/docify/internal/models"
)

const scrollPageSize = 256

// QdrantIndex is a minimal REST client to Qdrant. It assumes cosine distance
// and tags every point with a source_id payload field so retrieval can be
// scoped to a single document.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	logger     arbor.ILogger
}

var _ interfaces.VectorIndex = (*QdrantIndex)(nil)

// Config holds Qdrant connection settings
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewQdrantIndex creates a Qdrant-backed vector index
func NewQdrantIndex(cfg Config, logger arbor.ILogger) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &QdrantIndex{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if it does not exist. Safe to call
// on every ingest: an existing collection is left untouched.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid embedding dimension")
	}

	exists, err := q.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := q.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", q.collection), body, nil); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", q.collection, err)
	}

	q.logger.Info().Str("collection", q.collection).Int("dimension", dimension).Msg("Created vector collection")
	return nil
}

// Upsert writes all chunks in a single batch call
func (q *QdrantIndex) Upsert(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		points[i] = map[string]any{
			"id":     c.ID,
			"vector": c.Embedding,
			"payload": map[string]any{
				"source_id": c.SourceID,
				"text":      c.Text,
				"page":      c.Page,
			},
		}
	}

	body := map[string]any{"points": points}
	if err := q.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", q.collection), body, nil); err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search returns the top-k chunks nearest to the query vector, restricted to
// sourceID when non-empty.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, k int, sourceID string) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		k = 4
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if sourceID != "" {
		req["filter"] = sourceFilter(sourceID)
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := q.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", q.collection), req, &resp); err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]models.RetrievedChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := payloadToChunk(r.Payload)
		chunk.Score = r.Score
		results = append(results, chunk)
	}
	return results, nil
}

// FetchBySource returns every chunk tagged with the source identifier
func (q *QdrantIndex) FetchBySource(ctx context.Context, sourceID string) ([]models.RetrievedChunk, error) {
	var results []models.RetrievedChunk
	var offset any

	for {
		req := map[string]any{
			"filter":       sourceFilter(sourceID),
			"limit":        scrollPageSize,
			"with_payload": true,
		}
		if offset != nil {
			req["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := q.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", q.collection), req, &resp); err != nil {
			return nil, fmt.Errorf("scroll failed for source %s: %w", sourceID, err)
		}

		for _, p := range resp.Result.Points {
			results = append(results, payloadToChunk(p.Payload))
		}

		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	return results, nil
}

// DeleteBySource removes all chunks tagged with the source identifier
func (q *QdrantIndex) DeleteBySource(ctx context.Context, sourceID string) error {
	req := map[string]any{
		"filter": sourceFilter(sourceID),
	}
	if err := q.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collection), req, nil); err != nil {
		return fmt.Errorf("failed to delete points for source %s: %w", sourceID, err)
	}
	return nil
}

func sourceFilter(sourceID string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   "source_id",
				"match": map[string]any{"value": sourceID},
			},
		},
	}
}

func payloadToChunk(payload map[string]any) models.RetrievedChunk {
	chunk := models.RetrievedChunk{}
	if v, ok := payload["source_id"].(string); ok {
		chunk.SourceID = v
	}
	if v, ok := payload["text"].(string); ok {
		chunk.Text = v
	}
	if v, ok := payload["page"].(float64); ok {
		chunk.Page = int(v)
	}
	return chunk
}

func (q *QdrantIndex) collectionExists(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url+fmt.Sprintf("/collections/%s", q.collection), nil)
	if err != nil {
		return false, err
	}
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("qdrant unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant GET collection failed: %s", resp.Status)
	}
}

func (q *QdrantIndex) doJSON(ctx context.Context, method, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, q.url+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, path, resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (q *QdrantIndex) setHeaders(req *http.Request) {
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
}
