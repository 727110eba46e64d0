package storage

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yunseo/custombotAI/models"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"scaled", []float32{1, 0, 0}, []float32{5, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"dimension mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

// chunkWithEmbedding builds a chunk whose similarity to the unit x-axis
// query vector equals cos(angle).
func chunkWithEmbedding(content string, x, y float32) models.Chunk {
	return models.Chunk{
		ID:        primitive.NewObjectID(),
		Content:   content,
		Embedding: []float32{x, y},
		Metadata:  models.ChunkMetadata{Filename: "source.txt"},
	}
}

func TestRankChunks_TopKDescending(t *testing.T) {
	query := []float32{1, 0}

	// ten chunks at increasing angles from the query; six clear a 0.7
	// threshold
	chunks := make([]models.Chunk, 0, 10)
	for i := 0; i < 10; i++ {
		angle := float64(i) * 0.1 * math.Pi / 2 // 0 .. 81 degrees
		chunks = append(chunks, chunkWithEmbedding(
			fmt.Sprintf("chunk %d", i),
			float32(math.Cos(angle)),
			float32(math.Sin(angle)),
		))
	}

	results := RankChunks(chunks, query, 0.7, 3)

	require.Len(t, results, 3)
	assert.Equal(t, "chunk 0", results[0].Content)
	assert.Equal(t, "chunk 1", results[1].Content)
	assert.Equal(t, "chunk 2", results[2].Content)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, 0.7)
	}
}

func TestRankChunks_ThresholdFiltersAll(t *testing.T) {
	query := []float32{1, 0}
	chunks := []models.Chunk{
		chunkWithEmbedding("far away", 0.1, 0.99),
	}

	results := RankChunks(chunks, query, 0.99, 5)
	assert.Empty(t, results)
}

func TestRankChunks_SkipsDimensionMismatch(t *testing.T) {
	query := []float32{1, 0}
	chunks := []models.Chunk{
		{ID: primitive.NewObjectID(), Content: "wrong dims", Embedding: []float32{1, 0, 0}},
		chunkWithEmbedding("right dims", 1, 0),
	}

	results := RankChunks(chunks, query, 0.5, 5)

	require.Len(t, results, 1)
	assert.Equal(t, "right dims", results[0].Content)
}

func TestRankChunks_CarriesMetadataAndID(t *testing.T) {
	query := []float32{1, 0}
	chunk := chunkWithEmbedding("payload", 1, 0)
	chunk.Metadata = models.ChunkMetadata{
		Filename:    "handbook.pdf",
		FileType:    "application/pdf",
		ChunkIndex:  3,
		TotalChunks: 7,
	}

	results := RankChunks([]models.Chunk{chunk}, query, 0.5, 5)

	require.Len(t, results, 1)
	assert.Equal(t, chunk.ID.Hex(), results[0].ID)
	assert.Equal(t, chunk.Metadata, results[0].Metadata)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestRankChunks_NoLimit(t *testing.T) {
	query := []float32{1, 0}
	chunks := []models.Chunk{
		chunkWithEmbedding("a", 1, 0),
		chunkWithEmbedding("b", 0.9, 0.1),
	}

	results := RankChunks(chunks, query, 0, 0)
	assert.Len(t, results, 2)
}
