package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/denseindex"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/document"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/embedding"
	"github.com/abhishek-a-qbit/cuspera-rag-platform/sparseindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(t *testing.T, vectors map[string][]float64, opts ...Option) *HybridRetriever {
	t.Helper()
	embedder := embedding.NewMockProvider(vectors, 3)
	r, err := New(embedder, denseindex.NewMemoryIndex(), sparseindex.New(), opts...)
	require.NoError(t, err)
	return r
}

func TestConfigNormalizesWeights(t *testing.T) {
	cfg, err := NewConfig(WithWeights(3, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, cfg.SemanticWeight, 1e-9)
	assert.InDelta(t, 0.25, cfg.KeywordWeight, 1e-9)
}

func TestConfigRejectsBothWeightsZero(t *testing.T) {
	_, err := NewConfig(WithWeights(0, 0))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestConfigDisablingHybridForcesSemanticOnly(t *testing.T) {
	cfg, err := NewConfig(WithHybrid(false), WithWeights(0.2, 0.8))
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.SemanticWeight)
	assert.Equal(t, 0.0, cfg.KeywordWeight)
}

func TestKeywordExactMatchDominates(t *testing.T) {
	r := newTestRetriever(t, map[string][]float64{
		"the quick brown fox":  {1, 0, 0},
		"completely different": {0, 1, 0},
		"brown fox":            {0.5, 0.5, 0},
	})

	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, []document.Document{
		{ID: "exact", Content: "the quick brown fox"},
		{ID: "semantic-only", Content: "completely different"},
	}))

	// The query is equidistant from both documents, so only the keyword
	// overlap with "exact" separates them.
	results, err := r.Retrieve(ctx, "brown fox", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].ID)
}

func TestSemanticParaphraseMatch(t *testing.T) {
	r := newTestRetriever(t, map[string][]float64{
		"a car is a vehicle":  {1, 0, 0},
		"tastes like bananas": {0, 1, 0},
		"an automobile":       {0.99, 0.01, 0},
	})

	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, []document.Document{
		{ID: "vehicle", Content: "a car is a vehicle"},
		{ID: "fruit", Content: "tastes like bananas"},
	}))

	results, err := r.Retrieve(ctx, "an automobile", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "vehicle", results[0].ID)
}

func TestWeightSwapChangesRanking(t *testing.T) {
	vectors := map[string][]float64{
		"golang concurrency patterns": {1, 0, 0},
		"python data science":         {0, 1, 0},
		"concurrency":                 {0.45, 0.55, 0},
	}

	ctx := context.Background()
	docs := []document.Document{
		{ID: "go", Content: "golang concurrency patterns"},
		{ID: "py", Content: "python data science"},
	}

	semanticHeavy := newTestRetriever(t, vectors, WithWeights(0.9, 0.1))
	require.NoError(t, semanticHeavy.IndexDocuments(ctx, docs))
	resultsA, err := semanticHeavy.Retrieve(ctx, "concurrency", 2)
	require.NoError(t, err)

	keywordHeavy := newTestRetriever(t, vectors, WithWeights(0.1, 0.9))
	require.NoError(t, keywordHeavy.IndexDocuments(ctx, docs))
	resultsB, err := keywordHeavy.Retrieve(ctx, "concurrency", 2)
	require.NoError(t, err)

	assert.Equal(t, "py", resultsA[0].ID)
	assert.Equal(t, "go", resultsB[0].ID)
}

func TestTopKBoundsResultCount(t *testing.T) {
	vectors := make(map[string][]float64)
	docs := make([]document.Document, 100)
	for i := 0; i < 100; i++ {
		content := "document number"
		vectors[content] = []float64{float64(i) / 100, 1 - float64(i)/100, 0}
		docs[i] = document.Document{ID: string(rune('a' + i%26)) + "-" + string(rune('0'+i/26)), Content: content}
	}
	vectors["query"] = []float64{0.5, 0.5, 0}

	r := newTestRetriever(t, vectors)
	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, docs))

	results, err := r.Retrieve(ctx, "query", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	results, err = r.Retrieve(ctx, "query", 1000)
	require.NoError(t, err)
	assert.Len(t, results, 100)
}

func TestFuseSurfacesSparseOnlyKeywordHitOutsideCandidateK(t *testing.T) {
	// The needle doc sits embedding-wise opposite the query (distance 2,
	// excluded from the dense candidate_k) but every one of its tokens
	// appears in the query (a different exact surface form, so the mock
	// embedder keys it to a different vector), so it must still surface via
	// the sparse side of the union.
	const queryText = "please find needle exact keyword term documents"
	vectors := map[string][]float64{
		queryText:                    {1, 0, 0},
		"needle exact keyword term": {-1, 0, 0},
	}
	docs := make([]document.Document, 0, 21)
	for i := 0; i < 20; i++ {
		content := "filler content " + string(rune('a'+i))
		vectors[content] = []float64{0, 1, 0}
		docs = append(docs, document.Document{ID: "filler-" + string(rune('a'+i)), Content: content})
	}
	docs = append(docs, document.Document{ID: "needle", Content: "needle exact keyword term"})

	r := newTestRetriever(t, vectors, WithDefaultTopK(5), WithCandidateMultiplier(1), WithCandidateCap(5))
	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, docs))

	results, err := r.Retrieve(ctx, queryText, 5)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, "needle", results[0].ID, "sparse-only keyword hit outside candidate_k must still surface via the union")
	require.NotNil(t, results[0].Scores.Keyword)
	assert.Greater(t, *results[0].Scores.Keyword, 0.0)
}

type failingSparse struct{ err error }

func (f *failingSparse) Build(docs []document.Document) error { return f.err }
func (f *failingSparse) Score(query string) (map[string]float64, error) {
	return nil, f.err
}

func TestSparseIndexDegradedFallsBackToSemanticOnly(t *testing.T) {
	embedder := embedding.NewMockProvider(map[string][]float64{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
	}, 3)

	r, err := New(embedder, denseindex.NewMemoryIndex(), &failingSparse{err: errors.New("boom")})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, []document.Document{
		{ID: "a", Content: "alpha"},
		{ID: "b", Content: "beta"},
	}))
	assert.Equal(t, StateDegraded, r.State())

	results, err := r.Retrieve(ctx, "alpha", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, document.SearchModeSemantic, results[0].SearchType)
	assert.Nil(t, results[0].Scores.Keyword)
}

func TestDeterministicRepeatQueries(t *testing.T) {
	r := newTestRetriever(t, map[string][]float64{
		"one":   {1, 0, 0},
		"two":   {0, 1, 0},
		"three": {0, 0, 1},
		"query": {0.5, 0.5, 0.5},
	})

	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, []document.Document{
		{ID: "1", Content: "one"},
		{ID: "2", Content: "two"},
		{ID: "3", Content: "three"},
	}))

	first, err := r.Retrieve(ctx, "query", 3)
	require.NoError(t, err)
	second, err := r.Retrieve(ctx, "query", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetrieveOnEmptyCollectionReturnsEmpty(t *testing.T) {
	r := newTestRetriever(t, nil)
	results, err := r.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	r := newTestRetriever(t, nil)
	_, err := r.Retrieve(context.Background(), "", 5)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestRetrieveRejectsNonPositiveTopK(t *testing.T) {
	r := newTestRetriever(t, map[string][]float64{"a": {1, 0, 0}})
	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, []document.Document{{ID: "1", Content: "a"}}))

	for _, topK := range []int{0, -1, -5} {
		_, err := r.Retrieve(ctx, "a", topK)
		var valErr *ValidationError
		require.ErrorAsf(t, err, &valErr, "topK=%d should be rejected", topK)
	}
}

func TestIndexDocumentsRejectsDuplicateIDs(t *testing.T) {
	r := newTestRetriever(t, nil)
	ctx := context.Background()
	err := r.IndexDocuments(ctx, []document.Document{
		{ID: "dup", Content: "a"},
		{ID: "dup", Content: "b"},
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestIndexDocumentsRejectsDuplicateAcrossBatches(t *testing.T) {
	r := newTestRetriever(t, map[string][]float64{"a": {1, 0, 0}, "b": {0, 1, 0}})
	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, []document.Document{{ID: "1", Content: "a"}}))
	err := r.IndexDocuments(ctx, []document.Document{{ID: "1", Content: "b"}})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestIndexDocumentsRejectsEmptyContent(t *testing.T) {
	r := newTestRetriever(t, nil)
	err := r.IndexDocuments(context.Background(), []document.Document{{ID: "1", Content: ""}})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestRecoverRebuildsSparseIndexFromDocumentStore(t *testing.T) {
	r := newTestRetriever(t, map[string][]float64{"golang": {1, 0, 0}})
	r.LoadRecoveredDocuments([]document.Document{{ID: "1", Content: "golang"}})

	err := r.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count())
}

func TestExplainReturnsUnfusedSignals(t *testing.T) {
	r := newTestRetriever(t, map[string][]float64{
		"golang concurrency": {1, 0, 0},
		"python data science": {0, 1, 0},
		"concurrency":         {0.8, 0.2, 0},
	})

	ctx := context.Background()
	require.NoError(t, r.IndexDocuments(ctx, []document.Document{
		{ID: "go", Content: "golang concurrency"},
		{ID: "py", Content: "python data science"},
	}))

	explain, err := r.Explain(ctx, "concurrency", 0)
	require.NoError(t, err)
	assert.Len(t, explain.Dense, 2)
	assert.Greater(t, explain.Sparse["go"], 0.0)
	_, hasPy := explain.Sparse["py"]
	assert.False(t, hasPy)
	assert.NotEmpty(t, explain.ReciprocalRankFusion)
	assert.Equal(t, "go", explain.ReciprocalRankFusion[0].ID)
}

func TestNewRejectsNilDependencies(t *testing.T) {
	embedder := embedding.NewMockProvider(nil, 3)
	dense := denseindex.NewMemoryIndex()
	sparse := sparseindex.New()

	_, err := New(nil, dense, sparse)
	assert.Error(t, err)
	_, err = New(embedder, nil, sparse)
	assert.Error(t, err)
	_, err = New(embedder, dense, nil)
	assert.Error(t, err)
}
