package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider over the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
	info   EmbeddingInfo
	logger *slog.Logger
}

// NewOpenAIProvider creates an OpenAIProvider. If apiKey is empty it is
// read from OPENAI_API_KEY; if modelName is empty it defaults to
// text-embedding-3-small.
func NewOpenAIProvider(apiKey string, modelName string) *OpenAIProvider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return newOpenAIProvider(openai.NewClient(apiKey), modelName)
}

// NewOpenAIProviderWithClient builds an OpenAIProvider around an
// already-configured client, useful for pointing at a compatible gateway.
func NewOpenAIProviderWithClient(client *openai.Client, modelName string) *OpenAIProvider {
	return newOpenAIProvider(client, modelName)
}

func newOpenAIProvider(client *openai.Client, modelName string) *OpenAIProvider {
	model := openai.SmallEmbedding3
	info := OpenAISmallEmbedding3Info()
	if modelName != "" {
		model = openai.EmbeddingModel(modelName)
		info = infoForOpenAIModel(modelName)
	}

	return &OpenAIProvider{
		client: client,
		model:  model,
		info:   info,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

func infoForOpenAIModel(modelName string) EmbeddingInfo {
	switch modelName {
	case string(openai.LargeEmbedding3):
		return OpenAILargeEmbedding3Info()
	case string(openai.AdaEmbeddingV2):
		return OpenAIAdaEmbeddingInfo()
	default:
		return DefaultEmbeddingInfo(modelName)
	}
}

func (o *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: o.model,
	})
	if err != nil {
		o.logger.Error("embed failed", "count", len(texts), "error", err)
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float64, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float64(f)
		}
		out[i] = v
	}
	return out, nil
}

func (o *OpenAIProvider) Info() EmbeddingInfo {
	return o.info
}

var _ Provider = (*OpenAIProvider)(nil)
