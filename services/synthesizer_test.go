package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-platform/internal/ai"
)

type fakeGenerator struct {
	calls      int
	lastPrompt string
	answer     string
	err        error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) ModelName() string { return "fake-model" }

func TestSynthesizeEmptyContextShortCircuits(t *testing.T) {
	gen := &fakeGenerator{answer: "should not appear"}
	s := NewSynthesizer(gen, 0, 2, nil)

	for _, contextBlock := range []string{"", "   ", "\n\t\n"} {
		answer, err := s.Synthesize(context.Background(), "who is Erick?", contextBlock)
		if err != nil {
			t.Fatalf("synthesize error: %v", err)
		}
		if answer != NoContextFallback {
			t.Fatalf("got %q, want the no-context fallback", answer)
		}
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times, want 0", gen.calls)
	}
}

func TestSynthesizePromptCarriesQuestionAndContext(t *testing.T) {
	gen := &fakeGenerator{answer: "Erick commented the most."}
	s := NewSynthesizer(gen, 0, 2, nil)

	answer, err := s.Synthesize(context.Background(), "who commented most?", "the author who commented most is Erick")
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if answer != "Erick commented the most." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times, want 1", gen.calls)
	}
	if !strings.Contains(gen.lastPrompt, "who commented most?") {
		t.Fatal("prompt is missing the question")
	}
	if !strings.Contains(gen.lastPrompt, "the author who commented most is Erick") {
		t.Fatal("prompt is missing the context")
	}
}

func TestSynthesizeProviderErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model offline")}
	s := NewSynthesizer(gen, 0, 2, nil)

	if _, err := s.Synthesize(context.Background(), "question", "some context"); err == nil {
		t.Fatal("expected error")
	}
}
