package services

import (
	"context"
	"fmt"
	"strings"

	"rag-platform/internal/store"
)

// Passage is one retrieved piece of context with its similarity score.
type Passage struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Retriever fetches the passages most similar to a question.
type Retriever struct {
	store store.VectorStore
	topK  int
}

func NewRetriever(st store.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{store: st, topK: topK}
}

// Retrieve returns up to k passages ordered best-first. k <= 0 uses the
// configured default. An empty store yields an empty slice, not an
// error.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]Passage, error) {
	if k <= 0 {
		k = r.topK
	}
	results, err := r.store.NearestNeighbors(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	passages := make([]Passage, 0, len(results))
	for _, res := range results {
		passages = append(passages, Passage{Text: res.Record.Text, Score: res.Score})
	}
	return passages, nil
}

// BuildContext joins passages into the context block handed to the
// generator, best passage first.
func BuildContext(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}
