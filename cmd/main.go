package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"rag-platform/internal/ai"
	"rag-platform/internal/config"
	"rag-platform/internal/logger"
	"rag-platform/internal/search"
	"rag-platform/internal/store"
	"rag-platform/internal/telemetry"
	"rag-platform/internal/webloader"
	"rag-platform/middleware"
	"rag-platform/models"
	"rag-platform/routes"
	"rag-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Init(cfg.GinMode != "release")

	// Tracing
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("rag-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracing:", err)
		}
		defer shutdown()
	}

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

	// Redis is optional; without it ingest locks and the async queue are off
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// AI provider
	ctx := context.Background()
	embedder, generator, closeProvider, err := buildProvider(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize AI provider:", err)
	}
	defer closeProvider()

	// Vector stores: one partition for curated content, one for web finds
	generalStore := store.NewMongoVectorStore(mongoClient, embedder, store.MongoConfig{
		Database:          cfg.DBName,
		Collection:        cfg.RecordsCollection,
		VectorIndexName:   cfg.VectorIndexName,
		Index:             cfg.IndexName,
		AtlasVectorSearch: cfg.VectorSearch,
		ScanLimit:         cfg.ScanLimit,
	})
	webStore := store.NewMongoVectorStore(mongoClient, embedder, store.MongoConfig{
		Database:          cfg.DBName,
		Collection:        cfg.RecordsCollection,
		VectorIndexName:   cfg.VectorIndexName,
		Index:             cfg.WebIndexName,
		AtlasVectorSearch: cfg.VectorSearch,
		ScanLimit:         cfg.ScanLimit,
	})

	// Pipeline services
	chunker, err := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Invalid chunking configuration:", err)
	}
	ingestor := services.NewIngestor(generalStore, services.IngestorConfig{
		Threshold:   cfg.SimilarityThreshold,
		Index:       cfg.IndexName,
		Concurrency: cfg.IngestConcurrency,
	}, rdb, metrics)
	retriever := services.NewRetriever(generalStore, cfg.TopK)
	synth := services.NewSynthesizer(generator, cfg.Temperature, cfg.MaxRetries, metrics)

	pageLoader := webloader.NewLoader(webloader.Config{
		Timeout:     cfg.FetchTimeout,
		Parallelism: cfg.FetchWorkers,
		RenderJS:    cfg.RenderJS,
	})

	var webAnswerer *services.WebAnswerer
	if cfg.WebSearchConfigured() {
		source, err := search.NewGoogleSource(ctx, cfg.GoogleAPIKey, cfg.GoogleCSEID, cfg.SearchResultCount)
		if err != nil {
			log.Fatal("Failed to initialize web search:", err)
		}
		webIngestor := services.NewIngestor(webStore, services.IngestorConfig{
			Threshold:   cfg.SimilarityThreshold,
			Index:       cfg.WebIndexName,
			Concurrency: cfg.IngestConcurrency,
		}, rdb, metrics)
		// Web answers augment what is already known, so their retrieval
		// spans every partition, curated records included.
		combinedStore := store.NewMongoVectorStore(mongoClient, embedder, store.MongoConfig{
			Database:          cfg.DBName,
			Collection:        cfg.RecordsCollection,
			VectorIndexName:   cfg.VectorIndexName,
			AtlasVectorSearch: cfg.VectorSearch,
			ScanLimit:         cfg.ScanLimit,
		})
		webRetriever := services.NewRetriever(combinedStore, cfg.TopK)
		webAnswerer = services.NewWebAnswerer(source, pageLoader, chunker, webIngestor, webRetriever, synth, cfg.TopK, cfg.MinChunkChars, metrics)
	} else {
		logger.Info("web search disabled, GOOGLE_API_KEY or GOOGLE_CSE_ID not set")
	}

	// Async ingestion queue
	var queueClient *asynq.Client
	if cfg.RedisURL != "" {
		opt, err := redisConnOpt(cfg)
		if err != nil {
			log.Fatal("Invalid Redis configuration:", err)
		}
		queueClient = asynq.NewClient(opt)
		defer queueClient.Close()
	}

	// Seed the store before serving so first queries have content
	if cfg.SeedFile != "" {
		seedStore(ctx, cfg.SeedFile, chunker, ingestor, cfg.MinChunkChars)
	}

	// Periodic source refresh
	refresher := services.NewSourceRefresher(pageLoader, chunker, ingestor, cfg.RefreshSources, cfg.MinChunkChars)
	if err := refresher.Start(cfg.RefreshInterval); err != nil {
		log.Fatal("Failed to start source refresher:", err)
	}
	defer refresher.Stop()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.MetricsMiddleware(metrics))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}

	// Setup routes
	routes.SetupHealthRoutes(router)
	routes.SetupRAGRoutes(router, routes.RAGDeps{
		Chunker:       chunker,
		Ingestor:      ingestor,
		Retriever:     retriever,
		Synth:         synth,
		Web:           webAnswerer,
		Files:         services.FileLoader{},
		Queue:         queueClient,
		MinChunkChars: cfg.MinChunkChars,
	})
	routes.SetupEmbedRoutes(router, embedder, ingestor, retriever, synth)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// buildProvider constructs the embedder and generator for the configured
// provider. Ollama serves both roles from one client; the Gemini provider
// needs an explicit Close.
func buildProvider(ctx context.Context, cfg *config.Config) (ai.Embedder, ai.Generator, func(), error) {
	switch cfg.Provider {
	case "google":
		p, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbedModel, cfg.GeminiNLPModel)
		if err != nil {
			return nil, nil, nil, err
		}
		return p, p, func() { p.Close() }, nil
	default:
		client := ai.NewOllamaClient(ai.OllamaConfig{
			BaseURL:           cfg.OllamaBaseURL,
			EmbedModel:        cfg.EmbedModel,
			NLPModel:          cfg.NLPModel,
			RequestsPerMinute: cfg.ProviderRPM,
		})
		return client, client, func() {}, nil
	}
}

func redisConnOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return asynq.ParseRedisURI(cfg.RedisURL)
	}
	return asynq.RedisClientOpt{Addr: cfg.RedisURL, Password: cfg.RedisPassword, DB: cfg.RedisDB}, nil
}

// seedStore ingests the configured seed file. Failures are logged, not
// fatal; duplicate runs are no-ops thanks to fingerprint dedup.
func seedStore(ctx context.Context, path string, chunker *services.Chunker, ingestor *services.Ingestor, minChunkChars int) {
	doc, err := services.FileLoader{}.Load(path)
	if err != nil {
		logger.Warn("seed file not loaded", "path", path, "error", err)
		return
	}

	chunks := services.FilterShort(chunker.Split(doc), minChunkChars)
	batch := make([]models.Document, len(chunks))
	for i, ch := range chunks {
		batch[i] = ch.AsDocument()
	}
	inserted := ingestor.IngestAll(ctx, batch)
	logger.Info("seed ingestion complete", "path", path, "chunks", len(chunks), "inserted", inserted)
}
