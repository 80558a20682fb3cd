package retriever

import "fmt"

// ValidationError reports a caller-supplied input that violates a stated
// precondition: a bad top_k, a duplicate id, an empty content string.
// Never retried internally.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// ConfigurationError reports a construction-time misconfiguration, such
// as both fusion weights being zero. Fatal at construction.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Message)
}

// EmbeddingProviderError wraps a failure from the embedding backend.
type EmbeddingProviderError struct {
	Cause error
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding provider: %s", e.Cause)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Cause }

// DenseIndexError wraps a failure from the dense (vector) index.
type DenseIndexError struct {
	Cause error
}

func (e *DenseIndexError) Error() string {
	return fmt.Sprintf("dense index: %s", e.Cause)
}

func (e *DenseIndexError) Unwrap() error { return e.Cause }

// SparseIndexError wraps a failure from the BM25 sparse index. During
// Retrieve it is recovered locally (dense-only fallback); during
// IndexDocuments it marks the collection degraded.
type SparseIndexError struct {
	Cause error
}

func (e *SparseIndexError) Error() string {
	return fmt.Sprintf("sparse index: %s", e.Cause)
}

func (e *SparseIndexError) Unwrap() error { return e.Cause }

// RetrievalError wraps any of the above when surfaced from Retrieve, with
// the original cause preserved for errors.As/errors.Is.
type RetrievalError struct {
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %s", e.Cause)
}

func (e *RetrievalError) Unwrap() error { return e.Cause }
