package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yunseo/custombotAI/models"
)

// DocumentStore is the slice of the persistence layer the ingestion
// pipeline needs. storage.MongoStore implements it.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	MarkDocumentProcessed(ctx context.Context, id primitive.ObjectID) error
	DeleteDocument(ctx context.Context, id primitive.ObjectID) error
	InsertChunks(ctx context.Context, chunks []models.Chunk) error
	DeleteChunksByDocumentID(ctx context.Context, documentID primitive.ObjectID) error
}

// ChunkSearcher ranks a bot's stored chunks against a query embedding.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, botID string, embedding []float32, threshold float64, limit int) ([]models.SearchResult, error)
}
