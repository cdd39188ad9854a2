package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"rag-platform/internal/ai"
	"rag-platform/internal/config"
	"rag-platform/internal/logger"
	"rag-platform/internal/queue"
	"rag-platform/internal/store"
	"rag-platform/internal/telemetry"
	"rag-platform/internal/webloader"
	"rag-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required for the worker")
	}

	logger.Init(cfg.GinMode != "release")

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Embedding provider; the worker never generates text
	ctx := context.Background()
	var embedder ai.Embedder
	if cfg.Provider == "google" {
		p, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbedModel, cfg.GeminiNLPModel)
		if err != nil {
			log.Fatal("Failed to initialize Gemini provider:", err)
		}
		defer p.Close()
		embedder = p
	} else {
		embedder = ai.NewOllamaClient(ai.OllamaConfig{
			BaseURL:           cfg.OllamaBaseURL,
			EmbedModel:        cfg.EmbedModel,
			NLPModel:          cfg.NLPModel,
			RequestsPerMinute: cfg.ProviderRPM,
		})
	}

	vectorStore := store.NewMongoVectorStore(mongoClient, embedder, store.MongoConfig{
		Database:          cfg.DBName,
		Collection:        cfg.RecordsCollection,
		VectorIndexName:   cfg.VectorIndexName,
		Index:             cfg.IndexName,
		AtlasVectorSearch: cfg.VectorSearch,
		ScanLimit:         cfg.ScanLimit,
	})

	chunker, err := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Invalid chunking configuration:", err)
	}
	ingestor := services.NewIngestor(vectorStore, services.IngestorConfig{
		Threshold:   cfg.SimilarityThreshold,
		Index:       cfg.IndexName,
		Concurrency: cfg.IngestConcurrency,
	}, rdb, metrics)
	pageLoader := webloader.NewLoader(webloader.Config{
		Timeout:     cfg.FetchTimeout,
		Parallelism: cfg.FetchWorkers,
		RenderJS:    cfg.RenderJS,
	})

	// Redis options for Asynq
	var redisOpt asynq.RedisConnOpt = asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		redisOpt, err = asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			log.Fatal("Invalid Redis URL:", err)
		}
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task failed: %s, error: %v", task.Type(), err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(chunker, ingestor, services.FileLoader{}, pageLoader)

	log.Println("Starting ingestion worker...")
	log.Printf("   Queues: critical(6), default(3), low(1)")

	if err := server.Run(processor.Mux()); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
