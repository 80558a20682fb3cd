package denseindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/document"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/embedding"
)

type memoryItem struct {
	id       string
	vector   []float64
	content  string
	metadata document.Metadata
	seq      int
}

// MemoryIndex is an in-memory Index using brute-force cosine distance.
// Grounded on the teacher's SimpleVectorStore; generalized to return
// distance rather than similarity (per the C2 contract) and to guarantee
// a stable insertion-order tie-break via an explicit sequence counter,
// since Go map iteration order is not itself stable.
type MemoryIndex struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	next  int
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{items: make(map[string]*memoryItem)}
}

func (idx *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float64, contents []string, metadatas []document.Metadata) error {
	if len(ids) != len(vectors) || len(ids) != len(contents) || len(ids) != len(metadatas) {
		return fmt.Errorf("denseindex: mismatched batch lengths")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("denseindex: duplicate id %q within batch", id)
		}
		seen[id] = true
		if _, exists := idx.items[id]; exists {
			return fmt.Errorf("denseindex: id %q already indexed", id)
		}
	}

	for i, id := range ids {
		idx.items[id] = &memoryItem{
			id:       id,
			vector:   vectors[i],
			content:  contents[i],
			metadata: metadatas[i],
			seq:      idx.next,
		}
		idx.next++
	}
	return nil
}

func (idx *MemoryIndex) Query(ctx context.Context, vector []float64, nResults int) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		item     *memoryItem
		distance float64
	}

	scores := make([]scored, 0, len(idx.items))
	for _, item := range idx.items {
		d, err := cosineDistance(vector, item.vector)
		if err != nil {
			return nil, fmt.Errorf("denseindex: %w", err)
		}
		scores = append(scores, scored{item: item, distance: d})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].distance != scores[j].distance {
			return scores[i].distance < scores[j].distance
		}
		return scores[i].item.seq < scores[j].item.seq
	})

	if nResults > len(scores) {
		nResults = len(scores)
	}
	if nResults < 0 {
		nResults = 0
	}

	results := make([]Match, nResults)
	for i := 0; i < nResults; i++ {
		results[i] = Match{
			ID:       scores[i].item.id,
			Content:  scores[i].item.content,
			Metadata: scores[i].item.metadata,
			Distance: scores[i].distance,
		}
	}
	return results, nil
}

func (idx *MemoryIndex) Count(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items), nil
}

// cosineDistance returns 1 - cosine_similarity(a, b), clipped to [0, 2] to
// defend against floating-point drift, matching spec §4.4.3. The
// similarity itself is delegated to embedding.CosineSimilarity rather
// than reimplemented here.
func cosineDistance(a, b []float64) (float64, error) {
	cos, err := embedding.CosineSimilarity(a, b)
	if err != nil {
		if len(a) != len(b) {
			return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
		}
		// CosineSimilarity rejects zero (and empty) vectors; a zero vector
		// shares no direction with anything, so treat it as orthogonal
		// (distance 1, semantic score 0).
		return 1, nil
	}

	d := 1 - cos
	if d < 0 {
		d = 0
	}
	if d > 2 {
		d = 2
	}
	return d, nil
}

var _ Index = (*MemoryIndex)(nil)
