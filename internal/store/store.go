package store

import (
	"context"
	"time"
)

// Record is the persisted form of an ingested document: text, its
// embedding, a versioned content fingerprint and free-form metadata.
// Records are append-only; nothing in the pipeline mutates or deletes
// them after insertion.
type Record struct {
	ID          string            `bson:"_id,omitempty"`
	Text        string            `bson:"text"`
	Vector      []float32         `bson:"vector"`
	Fingerprint string            `bson:"fingerprint"`
	Index       string            `bson:"index"`
	Source      string            `bson:"source,omitempty"`
	Metadata    map[string]string `bson:"metadata,omitempty"`
	CreatedAt   time.Time         `bson:"created_at"`
}

// SearchResult pairs a stored record with its similarity score for one
// query. Higher means more similar; scores at or above the configured
// duplicate threshold mark a likely duplicate.
type SearchResult struct {
	Record Record
	Score  float64
}

// VectorStore persists records and supports nearest-neighbor search.
// Query embedding is computed inside the store with the same embedder
// used at insertion time, so callers never handle raw vectors.
type VectorStore interface {
	// NearestNeighbors returns up to k results ordered best-first. Fewer
	// than k results, including zero, is a valid outcome, not an error.
	NearestNeighbors(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Insert embeds and persists one record. Insertion is idempotent on
	// the record's fingerprint within its index partition.
	Insert(ctx context.Context, rec Record) error

	Close(ctx context.Context) error
}
