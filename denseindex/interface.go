// Package denseindex implements the Dense Index component (C2): a
// persistent store of (id, vector, content, metadata) tuples that answers
// cosine-nearest-neighbor queries.
package denseindex

import (
	"context"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/document"
)

// Match is one result of a nearest-neighbor query: the stored item plus
// its cosine distance (in [0, 2]) from the query vector.
type Match struct {
	ID       string
	Content  string
	Metadata document.Metadata
	Distance float64
}

// Index is the dense index contract. Implementations must rank Query
// results by ascending distance with a deterministic tie-break.
type Index interface {
	// Add appends items. Duplicate ids within a single batch are an
	// error. MemoryIndex also rejects ids stored by an earlier batch
	// (see DESIGN.md's Open Question decision on update/delete
	// semantics); the chromem-backed Index does not check ids against
	// earlier batches.
	Add(ctx context.Context, ids []string, vectors [][]float64, contents []string, metadatas []document.Metadata) error
	// Query returns up to nResults items nearest to vector. An empty
	// index yields an empty, non-error result.
	Query(ctx context.Context, vector []float64, nResults int) ([]Match, error)
	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)
}
