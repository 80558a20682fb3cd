// Package embedding implements the Embedding Provider component (C1): it
// maps text to fixed-dimension real vectors for both indexing and
// querying. Implementations are deterministic for a given provider
// configuration and must preserve input order and length.
package embedding

import "context"

// Provider is the embedding provider contract. Embed must return one
// vector per input text, in the same order, all of the same dimension.
// Network/auth/quota failures are fatal for the current call; callers
// wrap them as retriever.EmbeddingProviderError.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Info returns metadata about the provider's model, including its
	// fixed output dimension.
	Info() EmbeddingInfo
}
