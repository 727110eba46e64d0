package storage

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yunseo/custombotAI/config"
	"github.com/yunseo/custombotAI/models"
)

const (
	botsCollection      = "bots"
	documentsCollection = "documents"
	chunksCollection    = "chunks"
)

// MongoStore handles MongoDB operations for bots, documents and chunks.
type MongoStore struct {
	client    *mongo.Client
	database  *mongo.Database
	bots      *mongo.Collection
	documents *mongo.Collection
	chunks    *mongo.Collection
}

func NewMongoStore(cfg *config.Config) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.MongoDatabase)
	log.Printf("Connected to MongoDB: %s", cfg.MongoDatabase)

	return &MongoStore{
		client:    client,
		database:  database,
		bots:      database.Collection(botsCollection),
		documents: database.Collection(documentsCollection),
		chunks:    database.Collection(chunksCollection),
	}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the bot-scope indexes used by retrieval and
// document listing.
func (s *MongoStore) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.chunks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bot_id", Value: 1}},
		Options: options.Index().SetName("bot_scope"),
	})
	if err != nil {
		return fmt.Errorf("failed to create chunk index: %w", err)
	}

	_, err = s.documents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bot_id", Value: 1}},
		Options: options.Index().SetName("bot_scope"),
	})
	if err != nil {
		return fmt.Errorf("failed to create document index: %w", err)
	}
	return nil
}

// --- bots ---

func (s *MongoStore) InsertBot(ctx context.Context, bot *models.Bot) error {
	_, err := s.bots.InsertOne(ctx, bot)
	if err != nil {
		return fmt.Errorf("failed to insert bot: %w", err)
	}
	return nil
}

func (s *MongoStore) GetBot(ctx context.Context, id primitive.ObjectID) (*models.Bot, error) {
	var bot models.Bot
	err := s.bots.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&bot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find bot: %w", err)
	}
	return &bot, nil
}

func (s *MongoStore) ListBots(ctx context.Context) ([]models.Bot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.bots.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}
	defer cursor.Close(ctx)

	var bots []models.Bot
	if err := cursor.All(ctx, &bots); err != nil {
		return nil, fmt.Errorf("failed to decode bots: %w", err)
	}
	return bots, nil
}

// --- documents ---

func (s *MongoStore) InsertDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.documents.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (s *MongoStore) MarkDocumentProcessed(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.documents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("document %s not found", id.Hex())
	}
	return nil
}

func (s *MongoStore) DeleteDocument(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.documents.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *MongoStore) ListDocumentsByBotID(ctx context.Context, botID string) ([]models.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.documents.Find(ctx, bson.M{"bot_id": botID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// --- chunks ---

func (s *MongoStore) InsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to insert")
	}

	docs := make([]interface{}, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chunk
	}

	start := time.Now()
	_, err := s.chunks.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	log.Printf("Inserted %d chunks in %v", len(chunks), time.Since(start))
	return nil
}

func (s *MongoStore) DeleteChunksByDocumentID(ctx context.Context, documentID primitive.ObjectID) error {
	_, err := s.chunks.DeleteMany(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *MongoStore) CountChunksByBotID(ctx context.Context, botID string) (int64, error) {
	count, err := s.chunks.CountDocuments(ctx, bson.M{"bot_id": botID})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// SearchChunks ranks the bot's chunks by cosine similarity to the query
// embedding, keeping only results at or above threshold, most similar
// first, capped at limit. Similarity is computed in Go over the bot's
// chunks; works on any MongoDB without Atlas vector search.
func (s *MongoStore) SearchChunks(ctx context.Context, botID string, embedding []float32, threshold float64, limit int) ([]models.SearchResult, error) {
	cursor, err := s.chunks.Find(ctx, bson.M{"bot_id": botID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []models.Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}

	return RankChunks(chunks, embedding, threshold, limit), nil
}

// RankChunks scores chunks against the query embedding and returns the
// top results above threshold in descending similarity order. Chunks
// with a different dimensionality are skipped.
func RankChunks(chunks []models.Chunk, embedding []float32, threshold float64, limit int) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) != len(embedding) {
			continue
		}
		similarity := CosineSimilarity(embedding, chunk.Embedding)
		if similarity < threshold {
			continue
		}
		results = append(results, models.SearchResult{
			ID:         chunk.ID.Hex(),
			Content:    chunk.Content,
			Metadata:   chunk.Metadata,
			Similarity: similarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
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
