package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultBaseURL points at a local Ollama server, whose all-minilm model
// produces 384-dimensional vectors.
const DefaultBaseURL = "http://localhost:11434/v1"

// OpenAIBackend calls an OpenAI-compatible /embeddings endpoint.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// OpenAIConfig configures an OpenAIBackend.
type OpenAIConfig struct {
	BaseURL string
	Model   string
	// APIKeyEnv names the environment variable holding the bearer token;
	// empty means no Authorization header.
	APIKeyEnv string
	Timeout   time.Duration
	// Warmup embeds a short text while loading so that the first real
	// request does not pay the remote model load.
	Warmup bool
}

// NewOpenAIBackend creates a backend from cfg.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var apiKey string
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIBackend{
		apiKey:  apiKey,
		model:   cfg.Model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// OpenAIFactory returns a Factory creating an OpenAIBackend and, when
// configured, warming it up.
func OpenAIFactory(cfg OpenAIConfig) Factory {
	return func(ctx context.Context) (Backend, error) {
		b, err := NewOpenAIBackend(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Warmup {
			if _, err := b.Embed(ctx, "warmup"); err != nil {
				return nil, fmt.Errorf("warmup failed: %w", err)
			}
		}
		return b, nil
	}
}

// Embed implements Backend.
func (b *OpenAIBackend) Embed(ctx context.Context, text string) (*Output, error) {
	jsonData, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: b.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}
	for _, data := range embResp.Data {
		if data.Index == 0 {
			return &Output{Data: data.Embedding, Dims: []int{1, len(data.Embedding)}}, nil
		}
	}
	// shape-less output is rejected by the Embedder decode step
	return &Output{}, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
