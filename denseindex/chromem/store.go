// Package chromem implements a persistent denseindex.Index backed by
// github.com/philippgille/chromem-go, adapted from the teacher's
// rag/store/chromem/store.go. Embeddings are supplied externally (by the
// retriever), so the collection is created with a nil embedding function.
package chromem

import (
	"context"
	"fmt"
	"runtime"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/document"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/denseindex"
	chromem "github.com/philippgille/chromem-go"
)

const nodeTypeKey = "_cuspera_doc"

// Index is a denseindex.Index backed by a chromem-go collection.
// Reopening the same persistPath reconstructs previously added documents,
// which is how restart recovery (spec §6) is implemented for the dense
// side of the retriever. Index has no method that lists the stored
// documents. Metadata values are stored as strings (formatted with %v),
// so Query returns every metadata value as a string, not its original
// type. Add rejects duplicate ids within one batch but does not check ids
// against earlier batches.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// New creates an Index. If persistPath is empty, the store is in-memory
// only and nothing survives a restart.
func New(persistPath, collectionName string) (*Index, error) {
	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("denseindex/chromem: create persistent db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("denseindex/chromem: get or create collection: %w", err)
	}

	return &Index{db: db, collection: collection}, nil
}

func (idx *Index) Add(ctx context.Context, ids []string, vectors [][]float64, contents []string, metadatas []document.Metadata) error {
	if len(ids) != len(vectors) || len(ids) != len(contents) || len(ids) != len(metadatas) {
		return fmt.Errorf("denseindex/chromem: mismatched batch lengths")
	}

	docs := make([]chromem.Document, len(ids))
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			return fmt.Errorf("denseindex/chromem: duplicate id %q within batch", id)
		}
		seen[id] = true
		if len(vectors[i]) == 0 {
			return fmt.Errorf("denseindex/chromem: document %s has no embedding", id)
		}

		meta := make(map[string]string, len(metadatas[i])+1)
		for k, v := range metadatas[i] {
			meta[k] = fmt.Sprintf("%v", v)
		}
		meta[nodeTypeKey] = "1"

		embedding32 := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			embedding32[j] = float32(v)
		}

		docs[i] = chromem.Document{
			ID:        id,
			Content:   contents[i],
			Metadata:  meta,
			Embedding: embedding32,
		}
	}

	if err := idx.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("denseindex/chromem: add documents: %w", err)
	}
	return nil
}

func (idx *Index) Query(ctx context.Context, vector []float64, nResults int) ([]denseindex.Match, error) {
	if nResults <= 0 {
		return []denseindex.Match{}, nil
	}

	count := idx.collection.Count()
	if count == 0 {
		return []denseindex.Match{}, nil
	}
	if nResults > count {
		nResults = count
	}

	vector32 := make([]float32, len(vector))
	for i, v := range vector {
		vector32[i] = float32(v)
	}

	res, err := idx.collection.QueryEmbedding(ctx, vector32, nResults, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("denseindex/chromem: query embedding: %w", err)
	}

	matches := make([]denseindex.Match, len(res))
	for i, doc := range res {
		meta := make(document.Metadata, len(doc.Metadata))
		for k, v := range doc.Metadata {
			if k == nodeTypeKey {
				continue
			}
			meta[k] = v
		}

		// chromem reports cosine similarity; the C2 contract wants
		// distance, so invert and clip as memory.go does.
		d := 1 - float64(doc.Similarity)
		if d < 0 {
			d = 0
		}
		if d > 2 {
			d = 2
		}

		matches[i] = denseindex.Match{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: meta,
			Distance: d,
		}
	}
	return matches, nil
}

func (idx *Index) Count(ctx context.Context) (int, error) {
	return idx.collection.Count(), nil
}

var _ denseindex.Index = (*Index)(nil)
