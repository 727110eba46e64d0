package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yunseo/custombotAI/models"
)

// EmbeddingProvider maps text to fixed-dimension vectors. The dimension
// is set by the provider's model and must match across everything stored
// for one bot.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder calls an OpenAI-compatible embeddings endpoint.
type Embedder struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewEmbedder(baseURL, apiKey, model string) *Embedder {
	return &Embedder{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one request and returns one vector per
// input, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.APIKey == "" {
		return nil, models.NewError(models.CodeEmbeddingUnavailable, "embedding API key not configured", nil)
	}
	if len(texts) == 0 {
		return nil, models.NewError(models.CodeEmbeddingRequestFailed, "no texts to embed", nil)
	}

	body, err := json.Marshal(embedRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, models.NewError(models.CodeEmbeddingRequestFailed, "failed to encode embedding request", err)
	}

	url := fmt.Sprintf("%s/embeddings", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewError(models.CodeEmbeddingRequestFailed, "failed to build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, models.NewError(models.CodeEmbeddingRequestFailed, "embedding provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, models.NewError(models.CodeEmbeddingRequestFailed,
			"embedding provider returned an error",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(detail)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, models.NewError(models.CodeEmbeddingRequestFailed, "failed to decode embedding response", err)
	}

	if len(out.Data) != len(texts) {
		return nil, models.NewError(models.CodeEmbeddingRequestFailed,
			"embedding provider returned wrong vector count",
			fmt.Errorf("want %d, got %d", len(texts), len(out.Data)))
	}

	// order by the response index rather than trusting array position
	vectors := make([][]float32, len(texts))
	for _, item := range out.Data {
		if item.Index < 0 || item.Index >= len(vectors) || len(item.Embedding) == 0 {
			return nil, models.NewError(models.CodeEmbeddingRequestFailed,
				"embedding provider returned malformed data", nil)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, models.NewError(models.CodeEmbeddingRequestFailed,
				"embedding provider returned malformed data",
				fmt.Errorf("missing vector for input %d", i))
		}
	}
	return vectors, nil
}
