// Package sparseindex implements the Sparse Index component (C3): an
// Okapi BM25 index scored against a single query at a time, rebuilt from
// scratch whenever the underlying document set changes. Grounded on the
// teacher's embedding.BM25, adapted from a shared-vocabulary sparse
// embedding (dot-product against a query vector) to the direct
// score(query) -> map[id]score contract this spec calls for, and with
// tokenization pinned to lowercase-plus-whitespace-split, no stopwords
// or punctuation stripping.
package sparseindex

import (
	"math"
	"strings"
	"sync/atomic"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/document"
)

const (
	// DefaultK1 controls term-frequency saturation.
	DefaultK1 = 1.5
	// DefaultB controls document-length normalization.
	DefaultB = 0.75
)

type docStats struct {
	id     string
	tf     map[string]int
	length int
}

// snapshot is the immutable state produced by one Build call. Swapping
// it atomically lets Score run lock-free against a consistent view
// while a rebuild is in progress elsewhere.
type snapshot struct {
	docs         []docStats
	docFreq      map[string]int
	idf          map[string]float64
	avgDocLength float64
	numDocs      int
}

// Index is an Okapi BM25 sparse index.
type Index struct {
	k1   float64
	b    float64
	cur  atomic.Pointer[snapshot]
}

// Option configures an Index.
type Option func(*Index)

// WithK1 overrides the term-frequency saturation parameter.
func WithK1(k1 float64) Option {
	return func(i *Index) { i.k1 = k1 }
}

// WithB overrides the length-normalization parameter.
func WithB(b float64) Option {
	return func(i *Index) { i.b = b }
}

// New creates an empty Index. Call Build to populate it.
func New(opts ...Option) *Index {
	idx := &Index{k1: DefaultK1, b: DefaultB}
	for _, opt := range opts {
		opt(idx)
	}
	idx.cur.Store(&snapshot{docFreq: map[string]int{}, idf: map[string]float64{}})
	return idx
}

// tokenize lowercases and splits on Unicode whitespace. No stopword
// removal or punctuation stripping: tokens are compared exactly as
// they split.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Build replaces the index's contents with a fresh BM25 fit over docs.
// It is safe to call concurrently with Score: readers see either the
// old or the new snapshot, never a partially built one. The error
// return exists so Index satisfies retriever.SparseScorer alongside
// implementations that can fail to rebuild; this one never does.
func (idx *Index) Build(docs []document.Document) error {
	stats := make([]docStats, len(docs))
	docFreq := make(map[string]int)
	var totalLength int

	for i, d := range docs {
		tokens := tokenize(d.Content)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		stats[i] = docStats{id: d.ID, tf: tf, length: len(tokens)}
		totalLength += len(tokens)

		for term := range tf {
			docFreq[term]++
		}
	}

	numDocs := len(docs)
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf[term] = math.Log((float64(numDocs)-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}

	var avgDocLength float64
	if numDocs > 0 {
		avgDocLength = float64(totalLength) / float64(numDocs)
	}

	idx.cur.Store(&snapshot{
		docs:         stats,
		docFreq:      docFreq,
		idf:          idf,
		avgDocLength: avgDocLength,
		numDocs:      numDocs,
	})
	return nil
}

// Score returns the BM25 score of every indexed document against query.
// Documents that share no token with the query are omitted rather than
// scored zero, matching the "no token overlap" edge case in spec §8. The
// error return is always nil; it exists for interface conformance with
// retriever.SparseScorer.
func (idx *Index) Score(query string) (map[string]float64, error) {
	snap := idx.cur.Load()
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || snap.numDocs == 0 {
		return map[string]float64{}, nil
	}

	scores := make(map[string]float64)
	for _, d := range snap.docs {
		var score float64
		for _, term := range queryTokens {
			freq := d.tf[term]
			if freq == 0 {
				continue
			}
			idf, ok := snap.idf[term]
			if !ok || idf == 0 {
				continue
			}
			tfNorm := float64(freq) * (idx.k1 + 1)
			denom := float64(freq) + idx.k1*(1-idx.b+idx.b*float64(d.length)/snap.avgDocLength)
			score += idf * tfNorm / denom
		}
		if score > 0 {
			scores[d.id] = score
		}
	}
	return scores, nil
}

// MaxScore returns the highest score query would achieve against any
// document currently in the index, or 0 if the index is empty or the
// query matches nothing. Exposed for callers that want per-query
// normalization instead of the fixed-divisor scheme Retrieve uses by
// default.
func (idx *Index) MaxScore(query string) float64 {
	scores, _ := idx.Score(query)
	var max float64
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	return max
}

// Count returns the number of documents in the current snapshot.
func (idx *Index) Count() int {
	return idx.cur.Load().numDocs
}
