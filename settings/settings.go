// Package settings holds the process-wide default embedding provider,
// mirroring the teacher's global settings registry but trimmed to one
// value: a default Provider that callers can read and pass to
// retriever.New. The retriever itself never consults it; retriever.New
// rejects a nil embedder.
package settings

import (
	"sync"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/embedding"
)

var (
	mu            sync.RWMutex
	globalEmbed   embedding.Provider = embedding.NewOpenAIProvider("", "")
)

// SetEmbedProvider sets the global default embedding provider.
func SetEmbedProvider(p embedding.Provider) {
	mu.Lock()
	defer mu.Unlock()
	globalEmbed = p
}

// GetEmbedProvider returns the global default embedding provider.
func GetEmbedProvider() embedding.Provider {
	mu.RLock()
	defer mu.RUnlock()
	return globalEmbed
}
