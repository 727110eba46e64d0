package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"custombot"`

	// Embedding provider (OpenAI-compatible API)
	EmbeddingBaseURL string `env:"EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbeddingAPIKey  string `env:"OPENAI_API_KEY"`
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`

	// Generation via Ollama
	OllamaURL      string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaLLMModel string `env:"OLLAMA_LLM_MODEL" envDefault:"llama3.2:3b"`

	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Ingestion / retrieval knobs
	ChunkSize           int     `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap        int     `env:"CHUNK_OVERLAP" envDefault:"200"`
	TopK                int     `env:"TOP_K" envDefault:"5"`
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.7"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
