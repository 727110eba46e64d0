package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the record of one uploaded file. It is created before the
// ingestion pipeline runs and flipped to Processed once all chunks are
// stored; a failed run deletes it again.
type Document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BotID     string             `bson:"bot_id" json:"bot_id"`
	Filename  string             `bson:"filename" json:"filename"`
	FileType  string             `bson:"file_type" json:"file_type"`
	FileSize  int64              `bson:"file_size" json:"file_size"`
	Processed bool               `bson:"processed" json:"processed"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Chunk is one bounded span of extracted text together with its
// embedding. Embeddings are never mutated after insert; re-ingestion
// writes new chunks.
type Chunk struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BotID      string             `bson:"bot_id" json:"bot_id"`
	DocumentID primitive.ObjectID `bson:"document_id" json:"document_id"`
	Content    string             `bson:"content" json:"content"`
	Embedding  []float32          `bson:"embedding" json:"-"`
	Metadata   ChunkMetadata      `bson:"metadata" json:"metadata"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

type ChunkMetadata struct {
	Filename    string `bson:"filename" json:"filename"`
	FileType    string `bson:"file_type" json:"fileType"`
	ChunkIndex  int    `bson:"chunk_index" json:"chunkIndex"`
	TotalChunks int    `bson:"total_chunks" json:"totalChunks"`
}

// Bot groups the ingested documents and chunks that one assistant
// persona retrieves from, plus its prompt instructions.
type Bot struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Instructions string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// SearchResult is one retrieved chunk with its cosine similarity to the
// query embedding.
type SearchResult struct {
	ID         string        `json:"id"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Similarity float64       `json:"similarity"`
}

type CreateBotRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
}

type UploadResponse struct {
	FileID           string `json:"file_id"`
	Filename         string `json:"filename"`
	ChunksProcessed  int    `json:"chunks_processed"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Message          string `json:"message"`
}

type SearchRequest struct {
	Query     string  `json:"query" binding:"required"`
	Threshold float64 `json:"threshold,omitempty"`
	TopK      int     `json:"top_k,omitempty"`
}

type BotInfo struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions,omitempty"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Bot     BotInfo        `json:"bot"`
}

type QueryRequest struct {
	Question  string  `json:"question" binding:"required"`
	Threshold float64 `json:"threshold,omitempty"`
	TopK      int     `json:"top_k,omitempty"`
}

type QueryResponse struct {
	Answer           string         `json:"answer"`
	Sources          []SearchResult `json:"sources"`
	Grounded         bool           `json:"grounded"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

// ErrorResponse is the wire shape of every API failure.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
