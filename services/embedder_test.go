package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunseo/custombotAI/models"
)

func TestEmbedBatch_OrdersByResponseIndex(t *testing.T) {
	var gotRequest embedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		// vectors deliberately out of order to prove index-based placement
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0.4,0.5,0.6]},
			{"index":0,"embedding":[0.1,0.2,0.3]}
		]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(server.URL, "test-key", "text-embedding-ada-002")

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, vectors[1])
	assert.Equal(t, "text-embedding-ada-002", gotRequest.Model)
	assert.Equal(t, []string{"first", "second"}, gotRequest.Input)
}

func TestEmbed_SingleText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0,0]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(server.URL, "test-key", "model")

	vector, err := embedder.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vector)
}

func TestEmbedBatch_MissingAPIKey(t *testing.T) {
	embedder := NewEmbedder("http://unused", "", "model")

	_, err := embedder.EmbedBatch(context.Background(), []string{"text"})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeEmbeddingUnavailable))
}

func TestEmbedBatch_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	embedder := NewEmbedder(server.URL, "test-key", "model")

	_, err := embedder.EmbedBatch(context.Background(), []string{"text"})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeEmbeddingRequestFailed))
	assert.Contains(t, err.Error(), "status 500")
}

func TestEmbedBatch_WrongVectorCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(server.URL, "test-key", "model")

	_, err := embedder.EmbedBatch(context.Background(), []string{"one", "two"})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeEmbeddingRequestFailed))
}

func TestEmbedBatch_MalformedIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":5,"embedding":[0.1]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(server.URL, "test-key", "model")

	_, err := embedder.EmbedBatch(context.Background(), []string{"one"})

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeEmbeddingRequestFailed))
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	embedder := NewEmbedder("http://unused", "test-key", "model")

	_, err := embedder.EmbedBatch(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeEmbeddingRequestFailed))
}
