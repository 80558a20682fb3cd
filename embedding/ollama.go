package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// OllamaDefaultURL is the default Ollama API endpoint.
const OllamaDefaultURL = "http://localhost:11434"

// Common Ollama embedding model names.
const (
	OllamaMxbaiEmbedLarge = "mxbai-embed-large"
	OllamaAllMiniLM       = "all-minilm"
	OllamaNomicEmbedText  = "nomic-embed-text"
	OllamaSnowflakeArctic = "snowflake-arctic-embed"
	OllamaBgeSmall        = "bge-small"
	OllamaBgeLarge        = "bge-large"
)

// OllamaProvider implements Provider against a local or remote Ollama
// server's /api/embeddings endpoint.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

func WithOllamaBaseURL(baseURL string) OllamaOption {
	return func(o *OllamaProvider) { o.baseURL = baseURL }
}

func WithOllamaModel(model string) OllamaOption {
	return func(o *OllamaProvider) { o.model = model }
}

func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(o *OllamaProvider) { o.httpClient = client }
}

// NewOllamaProvider creates a new Ollama embedding provider. The base URL
// defaults to OLLAMA_HOST or OllamaDefaultURL.
func NewOllamaProvider(opts ...OllamaOption) *OllamaProvider {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = OllamaDefaultURL
	}

	o := &OllamaProvider{
		baseURL:    baseURL,
		model:      OllamaNomicEmbedText,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (o *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := o.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (o *OllamaProvider) embedOne(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(ollamaEmbeddingRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		o.logger.Error("embed request failed", "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Embedding, nil
}

func (o *OllamaProvider) Info() EmbeddingInfo {
	return ollamaModelInfo(o.model)
}

func ollamaModelInfo(model string) EmbeddingInfo {
	switch model {
	case OllamaMxbaiEmbedLarge:
		return EmbeddingInfo{ModelName: model, Dimensions: 1024, MaxTokens: 512}
	case OllamaAllMiniLM:
		return EmbeddingInfo{ModelName: model, Dimensions: 384, MaxTokens: 256}
	case OllamaNomicEmbedText:
		return EmbeddingInfo{ModelName: model, Dimensions: 768, MaxTokens: 8192}
	case OllamaSnowflakeArctic:
		return EmbeddingInfo{ModelName: model, Dimensions: 1024, MaxTokens: 512}
	case OllamaBgeSmall:
		return EmbeddingInfo{ModelName: model, Dimensions: 384, MaxTokens: 512}
	case OllamaBgeLarge:
		return EmbeddingInfo{ModelName: model, Dimensions: 1024, MaxTokens: 512}
	default:
		return DefaultEmbeddingInfo(model)
	}
}

var _ Provider = (*OllamaProvider)(nil)
