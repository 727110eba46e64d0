package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yunseo/custombotAI/models"
)

// Generator produces answers through an Ollama generation endpoint.
type Generator struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewGenerator(baseURL, model string) *Generator {
	return &Generator{
		BaseURL: baseURL,
		Model:   model,
		Client: &http.Client{
			Timeout: 120 * time.Second, // generation is slow
		},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// BuildAugmentedPrompt assembles bot instructions, retrieved reference
// blocks and the user question into one generation prompt. Works with an
// empty result set: the model is then asked to answer without grounding.
func BuildAugmentedPrompt(instructions string, results []models.SearchResult, question string) string {
	var sb strings.Builder

	if strings.TrimSpace(instructions) != "" {
		sb.WriteString(strings.TrimSpace(instructions))
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("You are a helpful assistant.\n\n")
	}

	if len(results) > 0 {
		sb.WriteString("Use the following reference passages to answer the question.\n")
		sb.WriteString("If the answer cannot be found in them, say so instead of guessing.\n\n")
		sb.WriteString("References:\n---\n")
		for i, result := range results {
			sb.WriteString(fmt.Sprintf("[%d] (%s) %s\n\n", i+1, result.Metadata.Filename, result.Content))
		}
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("Question: %s\n\n", question))
	sb.WriteString("Answer:")

	return sb.String()
}

// GenerateResponse returns the full answer for a prompt in one shot.
func (g *Generator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	resp, err := g.post(ctx, ollamaGenerateRequest{Model: g.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if out.Response == "" {
		return "", fmt.Errorf("received empty response from generation model")
	}
	return strings.TrimSpace(out.Response), nil
}

// GenerateStream feeds each generated fragment to emit as it arrives and
// returns once the provider signals the end of the stream. An error from
// emit stops the generation.
func (g *Generator) GenerateStream(ctx context.Context, prompt string, emit func(token string) error) error {
	resp, err := g.post(ctx, ollamaGenerateRequest{Model: g.Model, Prompt: prompt, Stream: true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var out ollamaGenerateResponse
		if err := json.Unmarshal(line, &out); err != nil {
			return fmt.Errorf("failed to decode stream fragment: %w", err)
		}
		if out.Response != "" {
			if err := emit(out.Response); err != nil {
				return err
			}
		}
		if out.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("generation stream interrupted: %w", err)
	}
	return fmt.Errorf("generation stream ended without done marker")
}

func (g *Generator) post(ctx context.Context, body ollamaGenerateRequest) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call generation API: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("generation API error (status %d): %s", resp.StatusCode, string(detail))
	}
	return resp, nil
}
