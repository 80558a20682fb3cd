package embedding

import "context"

// MockProvider is a deterministic stub Provider for tests. Vectors maps an
// exact input text to the vector it should produce; texts not present in
// the map yield a zero vector of Dim dimensions, so tests can exercise the
// "orthogonal to everything" boundary case cheaply.
type MockProvider struct {
	Vectors map[string][]float64
	Dim     int
	Err     error
}

// NewMockProvider creates a MockProvider from a fixed text->vector table.
func NewMockProvider(vectors map[string][]float64, dim int) *MockProvider {
	return &MockProvider{Vectors: vectors, Dim: dim}
}

// NewMockProviderWithError creates a MockProvider that always fails, for
// exercising EmbeddingProviderError propagation.
func NewMockProviderWithError(err error) *MockProvider {
	return &MockProvider{Err: err}
}

func (m *MockProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := m.Vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float64, m.Dim)
	}
	return out, nil
}

func (m *MockProvider) Info() EmbeddingInfo {
	return EmbeddingInfo{ModelName: "mock-embedding-model", Dimensions: m.Dim}
}

var _ Provider = (*MockProvider)(nil)
