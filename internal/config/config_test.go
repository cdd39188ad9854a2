package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port %q", cfg.Port)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("provider %q", cfg.Provider)
	}
	if cfg.MaxChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunking defaults: size=%d overlap=%d", cfg.MaxChunkSize, cfg.ChunkOverlap)
	}
	if cfg.SimilarityThreshold != 0.9 {
		t.Errorf("threshold %v", cfg.SimilarityThreshold)
	}
	if cfg.RefreshInterval != time.Hour {
		t.Errorf("refresh interval %v", cfg.RefreshInterval)
	}
	if cfg.WebSearchConfigured() {
		t.Error("web search should be off without credentials")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "mystery")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadGoogleProviderNeedsKey(t *testing.T) {
	t.Setenv("AI_PROVIDER", "google")
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without GEMINI_API_KEY")
	}

	t.Setenv("GEMINI_API_KEY", "key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Provider != "google" {
		t.Fatalf("provider %q", cfg.Provider)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	for _, v := range []string{"0", "1.5", "-0.2"} {
		t.Setenv("VECTOR_THRESHOLD", v)
		if _, err := Load(); err == nil {
			t.Fatalf("threshold %s should be rejected", v)
		}
	}
}

func TestLoadRejectsOverlapNotBelowChunkSize(t *testing.T) {
	t.Setenv("MAX_CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when overlap reaches chunk size")
	}
}

func TestLoadWebSearchConfigured(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("GOOGLE_CSE_ID", "cse")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if !cfg.WebSearchConfigured() {
		t.Fatal("web search should be configured")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList("a, b ,,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
	if splitList("") != nil {
		t.Fatal("empty input should return nil")
	}
}
