package services

import (
	"context"
	"errors"

	"github.com/yunseo/custombotAI/models"
)

// Retrieval defaults used when the caller passes zero values.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultTopK                = 5
)

// Retriever finds the stored chunks most similar to a query:
// it embeds the query with the same model used at ingestion time and
// ranks one bot's chunks by cosine similarity.
type Retriever struct {
	store    ChunkSearcher
	embedder EmbeddingProvider
}

func NewRetriever(store ChunkSearcher, embedder EmbeddingProvider) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
	}
}

// Retrieve returns up to topK chunks of the bot with similarity >=
// threshold, most similar first. No matches is a normal outcome and
// yields an empty slice; an error always means infrastructure trouble.
func (r *Retriever) Retrieve(ctx context.Context, botID, query string, threshold float64, topK int) ([]models.SearchResult, error) {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, asRetrievalUnavailable("embedding provider unreachable", err)
	}

	results, err := r.store.SearchChunks(ctx, botID, queryEmbedding, threshold, topK)
	if err != nil {
		return nil, asRetrievalUnavailable("knowledge store unreachable", err)
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}

// asRetrievalUnavailable folds infrastructure failures into one code at
// the retrieval boundary while keeping the cause chain intact.
func asRetrievalUnavailable(message string, cause error) error {
	var pe *models.PipelineError
	if errors.As(cause, &pe) && pe.Code == models.CodeRetrievalUnavailable {
		return cause
	}
	return models.NewError(models.CodeRetrievalUnavailable, message, cause)
}
