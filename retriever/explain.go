package retriever

import (
	"context"
	"sort"
)

// rrfK is the rank-damping constant of reciprocal rank fusion, taken
// from the teacher's FusionRetriever default.
const rrfK = 60.0

// Explanation exposes the raw per-component signals behind a query, for
// diagnostics and tuning rather than for ranking results.
type Explanation struct {
	Query          string
	Dense          []DenseMatch
	Sparse         map[string]float64
	SemanticWeight float64
	KeywordWeight  float64
	// ReciprocalRankFusion is an alternative combined ranking computed
	// with rank-based fusion instead of the weighted-score fusion
	// Retrieve uses, included for comparison.
	ReciprocalRankFusion []RankedID
}

// RankedID is one entry of a rank-fused comparison ranking.
type RankedID struct {
	ID    string
	Score float64
}

// Explain runs the same dense/sparse lookups Retrieve does but returns
// the unfused signals instead of a ranked result list.
func (r *HybridRetriever) Explain(ctx context.Context, query string, candidateK int) (*Explanation, error) {
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if candidateK <= 0 {
		candidateK = r.cfg.DefaultTopK * r.cfg.CandidateMultiplier
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &EmbeddingProviderError{Cause: err}
	}

	dense, err := r.dense.Query(ctx, vectors[0], candidateK)
	if err != nil {
		return nil, &DenseIndexError{Cause: err}
	}

	sparse, err := r.sparse.Score(query)
	if err != nil {
		sparse = map[string]float64{}
	}

	return &Explanation{
		Query:                query,
		Dense:                dense,
		Sparse:               sparse,
		SemanticWeight:       r.cfg.SemanticWeight,
		KeywordWeight:        r.cfg.KeywordWeight,
		ReciprocalRankFusion: reciprocalRankFusion(dense, sparse),
	}, nil
}

// reciprocalRankFusion fuses the dense ranking (by ascending distance)
// and the sparse ranking (by descending score) using RRF, adapted from
// the teacher's FusionRetriever.reciprocalRankFusion.
func reciprocalRankFusion(dense []DenseMatch, sparse map[string]float64) []RankedID {
	fused := make(map[string]float64)

	denseRanked := make([]DenseMatch, len(dense))
	copy(denseRanked, dense)
	sort.Slice(denseRanked, func(i, j int) bool { return denseRanked[i].Distance < denseRanked[j].Distance })
	for rank, m := range denseRanked {
		fused[m.ID] += 1.0 / (float64(rank) + rrfK)
	}

	type sparseEntry struct {
		id    string
		score float64
	}
	sparseRanked := make([]sparseEntry, 0, len(sparse))
	for id, score := range sparse {
		sparseRanked = append(sparseRanked, sparseEntry{id, score})
	}
	sort.Slice(sparseRanked, func(i, j int) bool {
		if sparseRanked[i].score != sparseRanked[j].score {
			return sparseRanked[i].score > sparseRanked[j].score
		}
		return sparseRanked[i].id < sparseRanked[j].id
	})
	for rank, e := range sparseRanked {
		fused[e.id] += 1.0 / (float64(rank) + rrfK)
	}

	out := make([]RankedID, 0, len(fused))
	for id, score := range fused {
		out = append(out, RankedID{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}
