package embedding

// EmbeddingInfo describes a provider's model and its fixed output shape.
type EmbeddingInfo struct {
	ModelName  string `json:"model_name"`
	Dimensions int    `json:"dimensions"`
	MaxTokens  int    `json:"max_tokens"`
}

// DefaultEmbeddingInfo returns default info for an unrecognized model name.
func DefaultEmbeddingInfo(modelName string) EmbeddingInfo {
	return EmbeddingInfo{
		ModelName:  modelName,
		Dimensions: 1536,
		MaxTokens:  8191,
	}
}

func OpenAISmallEmbedding3Info() EmbeddingInfo {
	return EmbeddingInfo{ModelName: "text-embedding-3-small", Dimensions: 1536, MaxTokens: 8191}
}

func OpenAILargeEmbedding3Info() EmbeddingInfo {
	return EmbeddingInfo{ModelName: "text-embedding-3-large", Dimensions: 3072, MaxTokens: 8191}
}

func OpenAIAdaEmbeddingInfo() EmbeddingInfo {
	return EmbeddingInfo{ModelName: "text-embedding-ada-002", Dimensions: 1536, MaxTokens: 8191}
}
