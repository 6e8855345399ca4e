package models

// DocumentChunk is one unit of extracted text: a single PDF page tagged with
// the source identifier of the blob it came from plus its embedding vector.
//
// SourceID is the only mechanism scoping retrieval to one document. A chunk
// with a missing or wrong tag silently leaks into other documents' answers,
// so the ingestion path sets it on every chunk without exception.
type DocumentChunk struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	Text      string    `json:"text"`
	Page      int       `json:"page"` // 1-indexed PDF page number
	Embedding []float32 `json:"embedding,omitempty"`
}

// RetrievedChunk is a chunk returned by similarity search, with its score
type RetrievedChunk struct {
	SourceID string  `json:"source_id"`
	Text     string  `json:"text"`
	Page     int     `json:"page"`
	Score    float64 `json:"score"`
}
