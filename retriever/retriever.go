// Package retriever implements the Hybrid Retriever (C4): the component
// that ties an embedding provider, a dense index, and a sparse index
// together into a single IndexDocuments/Retrieve surface, fusing
// semantic and keyword signals into one ranked result list.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/denseindex"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/document"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/embedding"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/validation"
)

// DenseIndex is the dense-index contract the retriever depends on.
// denseindex.Index (both the in-memory and chromem-backed
// implementations) satisfies it directly.
type DenseIndex = denseindex.Index

// DenseMatch is one dense-index query result.
type DenseMatch = denseindex.Match

// SparseScorer is the subset of sparseindex.Index the retriever needs.
type SparseScorer interface {
	Build(docs []document.Document) error
	Score(query string) (map[string]float64, error)
}

// State summarizes a HybridRetriever's operational health.
type State string

const (
	StateEmpty    State = "empty"
	StateReady    State = "ready"
	StateDegraded State = "degraded"
)

// HybridRetriever indexes documents into a dense and a sparse index and
// answers queries by fusing both signals.
type HybridRetriever struct {
	cfg      Config
	embedder embedding.Provider
	dense    DenseIndex
	sparse   SparseScorer
	logger   *slog.Logger

	mu   sync.RWMutex
	docs map[string]document.Document

	degraded atomic.Bool
	warnOnce sync.Once
}

// New builds a HybridRetriever over the given embedder and indexes.
func New(embedder embedding.Provider, dense DenseIndex, sparse SparseScorer, opts ...Option) (*HybridRetriever, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, &ConfigurationError{Message: "embedder must not be nil"}
	}
	if dense == nil {
		return nil, &ConfigurationError{Message: "dense index must not be nil"}
	}
	if sparse == nil {
		return nil, &ConfigurationError{Message: "sparse index must not be nil"}
	}

	return &HybridRetriever{
		cfg:      cfg,
		embedder: embedder,
		dense:    dense,
		sparse:   sparse,
		logger:   slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		docs:     make(map[string]document.Document),
	}, nil
}

// IndexDocuments embeds, dense-indexes, and sparse-rebuilds over docs.
// The whole batch is validated up front: any empty id/content or
// duplicate id (within the batch or against what's already indexed)
// fails the entire call with no partial effect.
func (r *HybridRetriever) IndexDocuments(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return &ValidationError{Field: "documents", Message: "must not be empty"}
	}

	if err := r.validateBatch(docs); err != nil {
		return err
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return &EmbeddingProviderError{Cause: err}
	}
	if len(vectors) != len(docs) {
		return &EmbeddingProviderError{Cause: fmt.Errorf("expected %d vectors, got %d", len(docs), len(vectors))}
	}

	ids := make([]string, len(docs))
	contents := make([]string, len(docs))
	metadatas := make([]document.Metadata, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		contents[i] = d.Content
		metadatas[i] = d.Metadata
	}

	if err := r.dense.Add(ctx, ids, vectors, contents, metadatas); err != nil {
		return &DenseIndexError{Cause: err}
	}

	r.mu.Lock()
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	all := make([]document.Document, 0, len(r.docs))
	for _, d := range r.docs {
		all = append(all, d)
	}
	r.mu.Unlock()

	if err := r.sparse.Build(all); err != nil {
		r.markDegraded(err)
		return nil
	}
	r.degraded.Store(false)
	return nil
}

func (r *HybridRetriever) markDegraded(cause error) {
	r.degraded.Store(true)
	r.warnOnce.Do(func() {
		r.logger.Warn("sparse index rebuild failed; falling back to semantic-only retrieval", "error", cause)
	})
}

func (r *HybridRetriever) validateBatch(docs []document.Document) error {
	v := validation.NewValidator()
	seen := make(map[string]bool, len(docs))

	r.mu.RLock()
	existing := r.docs
	r.mu.RUnlock()

	for i, d := range docs {
		v.RequireNotEmpty(d.ID, fmt.Sprintf("documents[%d].id", i))
		v.RequireNotEmpty(d.Content, fmt.Sprintf("documents[%d].content", i))
		if d.ID != "" {
			if seen[d.ID] {
				v.AddError(fmt.Sprintf("documents[%d].id", i), "duplicate id within batch", d.ID)
			}
			if _, ok := existing[d.ID]; ok {
				v.AddError(fmt.Sprintf("documents[%d].id", i), "id already indexed", d.ID)
			}
			seen[d.ID] = true
		}
	}

	if v.HasErrors() {
		return &ValidationError{Field: "documents", Message: v.Errors().Error()}
	}
	return nil
}

// Retrieve answers a query with up to topK ranked results. topK must be
// positive; callers wanting the configured default pass
// r.Config().DefaultTopK explicitly. If the sparse index is degraded, or
// hybrid mode is disabled, results fall back to semantic-only and
// SearchType reports accordingly.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, topK int) ([]document.Result, error) {
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if topK <= 0 {
		return nil, &ValidationError{Field: "top_k", Message: "must be positive", Value: topK}
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &RetrievalError{Cause: &EmbeddingProviderError{Cause: err}}
	}
	if len(vectors) != 1 {
		return nil, &RetrievalError{Cause: &EmbeddingProviderError{Cause: fmt.Errorf("expected 1 vector, got %d", len(vectors))}}
	}

	candidateK := topK * r.cfg.CandidateMultiplier
	if candidateK > r.cfg.CandidateCap {
		candidateK = r.cfg.CandidateCap
	}
	if candidateK < topK {
		candidateK = topK
	}

	denseMatches, err := r.dense.Query(ctx, vectors[0], candidateK)
	if err != nil {
		return nil, &RetrievalError{Cause: &DenseIndexError{Cause: err}}
	}

	useHybrid := r.cfg.UseHybrid && !r.degraded.Load()
	var sparseScores map[string]float64
	if useHybrid {
		sparseScores, err = r.sparse.Score(query)
		if err != nil {
			r.markDegraded(err)
			useHybrid = false
		}
	}

	results := r.fuse(denseMatches, sparseScores, useHybrid)

	sort.Slice(results, func(i, j int) bool {
		if results[i].Scores.Combined != results[j].Scores.Combined {
			return results[i].Scores.Combined > results[j].Scores.Combined
		}
		return results[i].ID < results[j].ID
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// fuse builds the union U = ids(Ds) ∪ ids(Sm) of dense candidates and
// BM25-scored ids per spec §4.4.4 step 5. A document scored by the
// sparse index but absent from the dense candidate set (a literal
// keyword hit ranked outside candidate_k by embedding distance) still
// competes on combined score; its semantic_score is treated as 0 per
// step 3, and its content/metadata are looked up from the document
// store since the dense index never returned them for this query.
func (r *HybridRetriever) fuse(denseMatches []DenseMatch, sparseScores map[string]float64, useHybrid bool) []document.Result {
	searchType := document.SearchModeSemantic
	if useHybrid {
		searchType = document.SearchModeHybrid
	}

	type fused struct {
		id       string
		content  string
		metadata document.Metadata
		semantic float64
	}

	byID := make(map[string]*fused, len(denseMatches)+len(sparseScores))
	order := make([]string, 0, len(denseMatches)+len(sparseScores))

	for _, m := range denseMatches {
		byID[m.ID] = &fused{
			id:       m.ID,
			content:  m.Content,
			metadata: m.Metadata,
			semantic: scoreSemantic(m.Distance),
		}
		order = append(order, m.ID)
	}

	if useHybrid {
		r.mu.RLock()
		for id := range sparseScores {
			if _, ok := byID[id]; ok {
				continue
			}
			d, ok := r.docs[id]
			if !ok {
				continue
			}
			byID[id] = &fused{id: id, content: d.Content, metadata: d.Metadata, semantic: 0}
			order = append(order, id)
		}
		r.mu.RUnlock()
	}

	results := make([]document.Result, 0, len(order))
	for _, id := range order {
		f := byID[id]

		var keyword *float64
		if useHybrid {
			raw, ok := sparseScores[f.id]
			k := 0.0
			if ok {
				k = scoreKeyword(raw, r.cfg.KeywordNormalizationDivisor)
			}
			keyword = &k
		}

		combined := combine(f.semantic, keyword, r.cfg.SemanticWeight, r.cfg.KeywordWeight)

		results = append(results, document.Result{
			ID:       f.id,
			Content:  f.content,
			Metadata: f.metadata,
			Scores: document.Scores{
				Combined: combined,
				Semantic: f.semantic,
				Keyword:  keyword,
			},
			SearchType: searchType,
		})
	}
	return results
}

// Config returns the retriever's resolved configuration, including the
// default top_k callers should pass to Retrieve when they have no
// preference of their own.
func (r *HybridRetriever) Config() Config {
	return r.cfg
}

// Count returns the number of documents currently indexed.
func (r *HybridRetriever) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// State reports the retriever's current operational state.
func (r *HybridRetriever) State() State {
	if r.Count() == 0 {
		return StateEmpty
	}
	if r.degraded.Load() {
		return StateDegraded
	}
	return StateReady
}

// Recover rebuilds the sparse index from every document currently held
// in the document store, clearing the degraded flag on success. Used
// after restoring a persistent dense index on process restart, when the
// sparse index (always in-memory) needs to be rebuilt from scratch.
func (r *HybridRetriever) Recover(ctx context.Context) error {
	r.mu.RLock()
	all := make([]document.Document, 0, len(r.docs))
	for _, d := range r.docs {
		all = append(all, d)
	}
	r.mu.RUnlock()

	if err := r.sparse.Build(all); err != nil {
		r.markDegraded(err)
		return &SparseIndexError{Cause: err}
	}
	r.degraded.Store(false)
	return nil
}

// LoadRecoveredDocuments seeds the retriever's document store from a
// dense index that was reopened from persistent storage, without
// re-embedding or re-adding to the dense index. Call Recover afterward
// to rebuild the sparse index.
func (r *HybridRetriever) LoadRecoveredDocuments(docs []document.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range docs {
		r.docs[d.ID] = d
	}
}
