package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
)

// Default Gemini models.
const (
	DefaultGeminiEmbedModel = "text-embedding-004"
	DefaultGeminiNLPModel   = "gemini-2.0-flash"
)

// GeminiProvider is the Google Generative AI alternative to the local
// Ollama provider. The client is constructed once at startup and injected
// into the pipeline; callers must Close it on shutdown.
type GeminiProvider struct {
	client     *genai.Client
	embedModel string
	nlpModel   string
}

// NewGeminiProvider creates a Gemini provider handle.
func NewGeminiProvider(ctx context.Context, apiKey, embedModel, nlpModel string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for gemini provider")
	}
	if embedModel == "" {
		embedModel = DefaultGeminiEmbedModel
	}
	if nlpModel == "" {
		nlpModel = DefaultGeminiNLPModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		embedModel: embedModel,
		nlpModel:   nlpModel,
	}, nil
}

// Embed returns an embedding vector for the given text.
func (gp *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", gp.embedModel))

	model := gp.client.EmbeddingModel(gp.embedModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, &ProviderError{Provider: "gemini", Op: "embed", Err: err}
	}
	if resp.Embedding == nil {
		return nil, &ProviderError{Provider: "gemini", Op: "embed", Err: fmt.Errorf("no embedding returned")}
	}
	return resp.Embedding.Values, nil
}

// Generate produces a text completion for the prompt. Retries are left to
// the SDK's own transport; this layer makes exactly one call.
func (gp *GeminiProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", gp.nlpModel),
		attribute.Int("gemini.prompt_chars", len(prompt)),
	)

	model := gp.client.GenerativeModel(gp.nlpModel)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", &ProviderError{Provider: "gemini", Op: "generate", Err: err}
	}

	text := extractText(resp)
	if text == "" {
		return "", &ProviderError{Provider: "gemini", Op: "generate", Err: fmt.Errorf("empty response")}
	}
	return text, nil
}

// ModelName returns the generation model.
func (gp *GeminiProvider) ModelName() string { return gp.nlpModel }

// Close releases the underlying client.
func (gp *GeminiProvider) Close() error {
	if gp.client != nil {
		return gp.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	out := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	return out
}
