package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Mongo vector store
	MongoURI          string
	DBName            string
	RecordsCollection string
	VectorIndexName   string
	IndexName         string
	WebIndexName      string
	VectorSearch      bool
	VectorDimensions  int
	ScanLimit         int64

	// Similarity
	SimilarityThreshold float64
	TopK                int

	// Chunking
	MaxChunkSize  int
	ChunkOverlap  int
	MinChunkChars int

	// Providers: "ollama" (default) or "google"
	Provider      string
	OllamaBaseURL string
	EmbedModel    string
	NLPModel      string
	Temperature   float64
	MaxRetries    int
	ProviderRPM   int

	GeminiAPIKey     string
	GeminiEmbedModel string
	GeminiNLPModel   string

	// Web search
	GoogleAPIKey      string
	GoogleCSEID       string
	SearchResultCount int

	// Web loading
	FetchTimeout time.Duration
	FetchWorkers int
	RenderJS     bool

	// Redis (asynq queue, ingest locks); empty URL disables it
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Ingestion
	IngestConcurrency int

	// Source refresh
	RefreshSources  []string
	RefreshInterval time.Duration

	// Startup seeding
	SeedFile string

	// Telemetry
	TracingEnabled bool
	OTLPEndpoint   string
}

// Load reads configuration from the environment (and .env when present)
// and fails fast on missing or malformed required settings.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017/rag_platform"),
		DBName:            getEnv("DB_NAME", "rag_platform"),
		RecordsCollection: getEnv("RECORDS_COLLECTION", "records"),
		VectorIndexName:   getEnv("VECTOR_INDEX_NAME", "records_vector"),
		IndexName:         getEnv("INDEX_NAME", "general"),
		WebIndexName:      getEnv("WEB_INDEX_NAME", "web"),
		VectorSearch:      getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorDimensions:  getEnvInt("VECTOR_DIM", 768),
		ScanLimit:         getEnvInt64("VECTOR_SCAN_LIMIT", 0),

		SimilarityThreshold: getEnvFloat64("VECTOR_THRESHOLD", 0.9),
		TopK:                getEnvInt("TOP_K", 5),

		MaxChunkSize:  getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 200),
		MinChunkChars: getEnvInt("MIN_CHUNK_CHARS", 8),

		Provider:      getEnv("AI_PROVIDER", "ollama"),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		EmbedModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		NLPModel:      getEnv("NLP_MODEL", "llama3.2"),
		Temperature:   getEnvFloat64("NLP_TEMPERATURE", 0),
		MaxRetries:    getEnvInt("NLP_MAX_RETRIES", 2),
		ProviderRPM:   getEnvInt("PROVIDER_RPM", 0),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiEmbedModel: getEnv("GEMINI_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiNLPModel:   getEnv("GEMINI_NLP_MODEL", "gemini-2.0-flash"),

		GoogleAPIKey:      getEnv("GOOGLE_API_KEY", ""),
		GoogleCSEID:       getEnv("GOOGLE_CSE_ID", ""),
		SearchResultCount: getEnvInt("SEARCH_RESULT_COUNT", 5),

		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchWorkers: getEnvInt("FETCH_WORKERS", 4),
		RenderJS:     getEnvBool("FETCH_RENDER_JS", false),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		IngestConcurrency: getEnvInt("INGEST_CONCURRENCY", 4),

		RefreshSources:  splitList(getEnv("REFRESH_SOURCES", "")),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", time.Hour),

		SeedFile: getEnv("SEED_FILE", ""),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	switch cfg.Provider {
	case "ollama":
		if cfg.OllamaBaseURL == "" {
			return nil, fmt.Errorf("OLLAMA_BASE_URL is required when AI_PROVIDER=ollama")
		}
	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER=google")
		}
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER: %s", cfg.Provider)
	}

	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("VECTOR_THRESHOLD must be in (0, 1], got %v", cfg.SimilarityThreshold)
	}

	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	return cfg, nil
}

// WebSearchConfigured reports whether the web-augmented pipeline has the
// credentials it needs.
func (c *Config) WebSearchConfigured() bool {
	return c.GoogleAPIKey != "" && c.GoogleCSEID != ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
