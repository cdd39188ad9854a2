package services

import (
	"context"
	"fmt"
	"strings"

	"rag-platform/internal/ai"
	"rag-platform/internal/telemetry"
)

// NoContextFallback is returned when retrieval produced no usable
// context. The generator is not called in that case.
const NoContextFallback = "I don't have enough information in my knowledge base to answer that question."

// Synthesizer turns a question plus retrieved context into an answer.
type Synthesizer struct {
	gen         ai.Generator
	temperature float64
	maxRetries  int
	metrics     *telemetry.Metrics
}

func NewSynthesizer(gen ai.Generator, temperature float64, maxRetries int, metrics *telemetry.Metrics) *Synthesizer {
	return &Synthesizer{gen: gen, temperature: temperature, maxRetries: maxRetries, metrics: metrics}
}

// Synthesize generates an answer grounded in the context block. A blank
// context short-circuits to NoContextFallback without touching the
// provider.
func (s *Synthesizer) Synthesize(ctx context.Context, question, contextBlock string) (string, error) {
	if strings.TrimSpace(contextBlock) == "" {
		return NoContextFallback, nil
	}

	answer, err := s.gen.Generate(ctx, buildPrompt(question, contextBlock), ai.GenerateOptions{
		Temperature: s.temperature,
		MaxRetries:  s.maxRetries,
	})
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordGeneration(s.gen.ModelName())
	}
	return answer, nil
}

func buildPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`You are an expert assistant. Answer the question completely and informatively, using only the context provided below. If the context does not contain the answer, say so.

Context:
---
%s
---

Question: %s

Detailed answer:`, contextBlock, question)
}
