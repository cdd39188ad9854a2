package ai

import "context"

// Embedder converts text into a fixed-length vector. Every record written
// to the vector store must be embedded by the same model that embeds
// queries at retrieval time; mixing embedding spaces silently corrupts
// similarity ranking, so a single Embedder handle is constructed at
// startup and injected everywhere.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// GenerateOptions control a single generation call.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	// MaxRetries is the number of transient-failure retries performed by
	// the provider client itself. Pipeline stages never retry.
	MaxRetries int
}

// Generator converts a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string
}

// ProviderError wraps a failed embedding, generation or search call with
// the provider and operation that produced it.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + " " + e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }
