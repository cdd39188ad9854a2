package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Default Ollama settings.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultEmbedModel    = "nomic-embed-text"
	DefaultNLPModel      = "llama3.2"
	DefaultOllamaTimeout = 120 * time.Second
)

// OllamaConfig holds configuration for the Ollama provider.
type OllamaConfig struct {
	BaseURL    string
	EmbedModel string
	NLPModel   string
	Timeout    time.Duration
	// RequestsPerMinute caps outbound calls; 0 disables the limiter.
	RequestsPerMinute int
}

// OllamaClient talks to a local Ollama server for both embeddings and
// chat-style generation. All calls go through a circuit breaker and an
// optional rate limiter so a struggling model server degrades fast
// instead of piling up blocked requests.
type OllamaClient struct {
	client     *http.Client
	baseURL    string
	embedModel string
	nlpModel   string
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates an Ollama provider handle.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.NLPModel == "" {
		cfg.NLPModel = DefaultNLPModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOllamaTimeout
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "OllamaAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute/10+1)
	}

	return &OllamaClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		embedModel: cfg.EmbedModel,
		nlpModel:   cfg.NLPModel,
		breaker:    breaker,
		limiter:    limiter,
	}
}

// Embed generates a vector embedding for the given text.
func (oc *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("ollama-client")
	ctx, span := tracer.Start(ctx, "ollama.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("ollama.model", oc.embedModel),
		attribute.Int("ollama.text_chars", len(text)),
	)

	var out embedResponse
	err := oc.do(ctx, "/api/embeddings", embedRequest{Model: oc.embedModel, Prompt: text}, &out)
	if err != nil {
		span.SetAttributes(attribute.Bool("ollama.error", true))
		return nil, &ProviderError{Provider: "ollama", Op: "embed", Err: err}
	}
	if len(out.Embedding) == 0 {
		return nil, &ProviderError{Provider: "ollama", Op: "embed", Err: fmt.Errorf("no embedding returned")}
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Generate produces a text completion for the prompt. Transient failures
// are retried up to opts.MaxRetries times; the circuit breaker sees every
// attempt.
func (oc *OllamaClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	tracer := otel.Tracer("ollama-client")
	ctx, span := tracer.Start(ctx, "ollama.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ollama.model", oc.nlpModel),
		attribute.Int("ollama.prompt_chars", len(prompt)),
	)

	req := generateRequest{
		Model:  oc.nlpModel,
		Prompt: prompt,
		Stream: false,
		Options: &generateOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	}

	var lastErr error
	attempts := opts.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", &ProviderError{Provider: "ollama", Op: "generate", Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		var out generateResponse
		lastErr = oc.do(ctx, "/api/generate", req, &out)
		if lastErr == nil {
			span.SetAttributes(attribute.Int("ollama.attempts", attempt+1))
			return out.Response, nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	span.SetAttributes(attribute.Bool("ollama.error", true))
	return "", &ProviderError{Provider: "ollama", Op: "generate", Err: lastErr}
}

// ModelName returns the generation model; the embedding model is exposed
// through EmbedModelName.
func (oc *OllamaClient) ModelName() string { return oc.nlpModel }

// EmbedModelName returns the embedding model in use.
func (oc *OllamaClient) EmbedModelName() string { return oc.embedModel }

// Ping checks connectivity without running inference.
func (oc *OllamaClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oc.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := oc.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: "ollama", Op: "ping", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &ProviderError{Provider: "ollama", Op: "ping", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}

func (oc *OllamaClient) do(ctx context.Context, path string, body any, out any) error {
	if oc.limiter != nil {
		if err := oc.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	_, err := oc.breaker.Execute(func() (interface{}, error) {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, oc.baseURL+path, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := oc.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return nil, fmt.Errorf("status %d: failed to read response", resp.StatusCode)
			}
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
		}
		return nil, nil
	})
	return err
}
