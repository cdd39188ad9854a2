package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-platform/internal/ai"
)

// MongoConfig holds the store-schema concerns fixed at connection time:
// which collection records live in, the Atlas vector index to search, and
// the logical partition new records are written to.
type MongoConfig struct {
	Database        string
	Collection      string
	VectorIndexName string
	// Index is the partition searches filter on and the default partition
	// for inserts. Empty searches every partition.
	Index string
	// AtlasVectorSearch selects $vectorSearch aggregation. When false the
	// store falls back to an in-process cosine scan, which is fine for
	// local deployments and tests but does not scale past a few thousand
	// records.
	AtlasVectorSearch bool
	// ScanLimit bounds the fallback scan; 0 means no bound.
	ScanLimit int64
}

// MongoVectorStore persists records in MongoDB and ranks them by cosine
// similarity, either through Atlas $vectorSearch or an in-process scan.
type MongoVectorStore struct {
	client   *mongo.Client
	col      *mongo.Collection
	embedder ai.Embedder
	cfg      MongoConfig
}

// NewMongoVectorStore wires a connected client and an embedding provider
// into a vector store. The embedder handle must be the same one used for
// every prior insertion into this collection.
func NewMongoVectorStore(client *mongo.Client, embedder ai.Embedder, cfg MongoConfig) *MongoVectorStore {
	return &MongoVectorStore{
		client:   client,
		col:      client.Database(cfg.Database).Collection(cfg.Collection),
		embedder: embedder,
		cfg:      cfg,
	}
}

// NearestNeighbors embeds the query and returns up to k records ordered by
// descending similarity.
func (s *MongoVectorStore) NearestNeighbors(ctx context.Context, query string, k int) ([]SearchResult, error) {
	tracer := otel.Tracer("vector-store")
	ctx, span := tracer.Start(ctx, "store.nearest_neighbors")
	defer span.End()
	span.SetAttributes(
		attribute.Int("store.k", k),
		attribute.Bool("store.atlas", s.cfg.AtlasVectorSearch),
	)

	if k <= 0 {
		k = 1
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if s.cfg.AtlasVectorSearch {
		return s.searchAtlas(ctx, vec, k)
	}
	return s.searchScan(ctx, vec, k)
}

func (s *MongoVectorStore) searchAtlas(ctx context.Context, vec []float32, k int) ([]SearchResult, error) {
	queryVector := make([]float64, len(vec))
	for i, v := range vec {
		queryVector[i] = float64(v)
	}

	search := bson.M{
		"index":         s.cfg.VectorIndexName,
		"path":          "vector",
		"queryVector":   queryVector,
		"numCandidates": k * 10,
		"limit":         k,
	}
	if s.cfg.Index != "" {
		search["filter"] = bson.M{"index": s.cfg.Index}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: search}},
		{{Key: "$addFields", Value: bson.M{
			"score": bson.M{"$meta": "vectorSearchScore"},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cursor.Close(ctx)

	var results []SearchResult
	for cursor.Next(ctx) {
		var row struct {
			Record `bson:",inline"`
			Score  float64 `bson:"score"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		results = append(results, SearchResult{Record: row.Record, Score: row.Score})
	}
	return results, cursor.Err()
}

func (s *MongoVectorStore) searchScan(ctx context.Context, vec []float32, k int) ([]SearchResult, error) {
	findOpts := options.Find()
	if s.cfg.ScanLimit > 0 {
		findOpts.SetLimit(s.cfg.ScanLimit)
	}

	filter := bson.M{}
	if s.cfg.Index != "" {
		filter["index"] = s.cfg.Index
	}
	cursor, err := s.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	defer cursor.Close(ctx)

	var results []SearchResult
	for cursor.Next(ctx) {
		var rec Record
		if err := cursor.Decode(&rec); err != nil {
			continue
		}
		results = append(results, SearchResult{Record: rec, Score: cosineSimilarity(vec, rec.Vector)})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Insert embeds the record text and upserts it keyed by fingerprint
// within its index partition. The upsert makes concurrent insertion of
// the same content converge on a single stored record.
func (s *MongoVectorStore) Insert(ctx context.Context, rec Record) error {
	tracer := otel.Tracer("vector-store")
	ctx, span := tracer.Start(ctx, "store.insert")
	defer span.End()

	vec, err := s.embedder.Embed(ctx, rec.Text)
	if err != nil {
		return fmt.Errorf("embed record: %w", err)
	}

	rec.Vector = vec
	if rec.Index == "" {
		rec.Index = s.cfg.Index
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	doc := bson.M{
		"text":        rec.Text,
		"vector":      rec.Vector,
		"fingerprint": rec.Fingerprint,
		"index":       rec.Index,
		"source":      rec.Source,
		"metadata":    rec.Metadata,
		"created_at":  rec.CreatedAt,
	}

	_, err = s.col.UpdateOne(ctx,
		bson.M{"index": rec.Index, "fingerprint": rec.Fingerprint},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoVectorStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
