package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Bedrock embedding model ids.
const (
	TitanEmbedTextV1          = "amazon.titan-embed-text-v1"
	TitanEmbedTextV2          = "amazon.titan-embed-text-v2:0"
	CohereEmbedEnglishV3      = "cohere.embed-english-v3"
	CohereEmbedMultilingualV3 = "cohere.embed-multilingual-v3"
)

// DefaultBedrockEmbeddingModel is used when no model is specified.
const DefaultBedrockEmbeddingModel = TitanEmbedTextV2

var bedrockModelInfo = map[string]EmbeddingInfo{
	TitanEmbedTextV1:          {ModelName: TitanEmbedTextV1, Dimensions: 1536, MaxTokens: 8192},
	TitanEmbedTextV2:          {ModelName: TitanEmbedTextV2, Dimensions: 1024, MaxTokens: 8192},
	CohereEmbedEnglishV3:      {ModelName: CohereEmbedEnglishV3, Dimensions: 1024, MaxTokens: 512},
	CohereEmbedMultilingualV3: {ModelName: CohereEmbedMultilingualV3, Dimensions: 1024, MaxTokens: 512},
}

// BedrockProvider implements Provider over AWS Bedrock's Titan and Cohere
// embedding models, folded from the teacher's separately-moduled
// llm/bedrock package into this one (the core has no need for Bedrock's
// multi-module release split).
type BedrockProvider struct {
	client     *bedrockruntime.Client
	model      string
	region     string
	dimensions int
	normalize  bool
	logger     *slog.Logger
}

// BedrockOption configures a BedrockProvider.
type BedrockOption func(*BedrockProvider)

func WithBedrockModel(model string) BedrockOption {
	return func(e *BedrockProvider) { e.model = model }
}

func WithBedrockRegion(region string) BedrockOption {
	return func(e *BedrockProvider) { e.region = region }
}

// WithBedrockDimensions sets the output dimensions (Titan V2 only: 256, 512, or 1024).
func WithBedrockDimensions(dimensions int) BedrockOption {
	return func(e *BedrockProvider) { e.dimensions = dimensions }
}

// WithBedrockClient injects a pre-built client, for tests.
func WithBedrockClient(client *bedrockruntime.Client) BedrockOption {
	return func(e *BedrockProvider) { e.client = client }
}

// NewBedrockProvider creates a Bedrock embedding provider, resolving AWS
// credentials/region via the default SDK chain unless overridden.
func NewBedrockProvider(opts ...BedrockOption) *BedrockProvider {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	e := &BedrockProvider{
		model:      DefaultBedrockEmbeddingModel,
		region:     region,
		dimensions: 1024,
		normalize:  true,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(e.region))
		if err == nil {
			e.client = bedrockruntime.NewFromConfig(cfg)
		}
	}
	return e
}

// WithBedrockStaticCredentials builds a client from explicit credentials
// instead of the default SDK resolution chain.
func WithBedrockStaticCredentials(accessKeyID, secretAccessKey, sessionToken, region string) BedrockOption {
	return func(e *BedrockProvider) {
		cfg, err := config.LoadDefaultConfig(context.Background(),
			config.WithRegion(region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)),
		)
		if err == nil {
			e.client = bedrockruntime.NewFromConfig(cfg)
			e.region = region
		}
	}
}

func (e *BedrockProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	provider := e.providerName()

	if provider == "cohere" {
		return e.embedCohereBatch(ctx, texts)
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := e.embedOne(ctx, provider, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *BedrockProvider) embedOne(ctx context.Context, provider, text string) ([]float64, error) {
	body, err := e.buildRequestBody(provider, text)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.model),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		e.logger.Error("bedrock invoke model failed", "error", err)
		return nil, fmt.Errorf("bedrock invoke model failed: %w", err)
	}

	switch provider {
	case "amazon":
		var parsed struct {
			Embedding []float64 `json:"embedding"`
		}
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse titan response: %w", err)
		}
		return parsed.Embedding, nil
	case "cohere":
		embs, err := e.parseCohereEmbeddings(resp.Body)
		if err != nil {
			return nil, err
		}
		if len(embs) == 0 {
			return nil, fmt.Errorf("no embeddings in cohere response")
		}
		return embs[0], nil
	default:
		return nil, fmt.Errorf("unsupported bedrock provider: %s", provider)
	}
}

func (e *BedrockProvider) embedCohereBatch(ctx context.Context, texts []string) ([][]float64, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > 2048 {
			t = t[:2048]
		}
		truncated[i] = t
	}

	body, err := json.Marshal(map[string]interface{}{
		"texts":      truncated,
		"input_type": "search_document",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.model),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		e.logger.Error("bedrock invoke model failed", "error", err)
		return nil, fmt.Errorf("bedrock invoke model failed: %w", err)
	}

	return e.parseCohereEmbeddings(resp.Body)
}

func (e *BedrockProvider) buildRequestBody(provider, text string) ([]byte, error) {
	switch provider {
	case "amazon":
		req := map[string]interface{}{"inputText": text}
		if e.model == TitanEmbedTextV2 {
			req["dimensions"] = e.dimensions
			req["normalize"] = e.normalize
		}
		return json.Marshal(req)
	case "cohere":
		if len(text) > 2048 {
			text = text[:2048]
		}
		return json.Marshal(map[string]interface{}{
			"texts":      []string{text},
			"input_type": "search_document",
		})
	default:
		return nil, fmt.Errorf("unsupported bedrock provider: %s", provider)
	}
}

// parseCohereEmbeddings handles both the v3 ({"embeddings": [[...]]}) and
// v4 ({"embeddings": {"float": [[...]]}}) response shapes.
func (e *BedrockProvider) parseCohereEmbeddings(body []byte) ([][]float64, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse cohere response: %w", err)
	}

	raw, ok := response["embeddings"]
	if !ok {
		return nil, fmt.Errorf("no embeddings field in cohere response")
	}

	if nested, ok := raw.(map[string]interface{}); ok {
		if floatEmb, ok := nested["float"]; ok {
			raw = floatEmb
		}
	}

	arr, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected embeddings shape in cohere response")
	}

	result := make([][]float64, len(arr))
	for i, item := range arr {
		vec, ok := item.([]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected embedding vector shape at index %d", i)
		}
		result[i] = make([]float64, len(vec))
		for j, v := range vec {
			if f, ok := v.(float64); ok {
				result[i][j] = f
			}
		}
	}
	return result, nil
}

func (e *BedrockProvider) providerName() string {
	parts := strings.Split(e.model, ".")
	switch len(parts) {
	case 2:
		return parts[0]
	case 3:
		return parts[1]
	default:
		return "amazon"
	}
}

func (e *BedrockProvider) Info() EmbeddingInfo {
	if info, ok := bedrockModelInfo[e.model]; ok {
		if e.model == TitanEmbedTextV2 {
			info.Dimensions = e.dimensions
		}
		return info
	}
	return DefaultEmbeddingInfo(e.model)
}

var _ Provider = (*BedrockProvider)(nil)
