package chromem

import (
	"context"
	"os"
	"testing"

	"github.com/abhishek-a-qbit/cuspera-rag-platform/document"
	"github.com/stretchr/testify/require"
)

func TestIndexPersistsAcrossReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "denseindex_chromem_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	idx, err := New(tmpDir, "docs")
	require.NoError(t, err)

	err = idx.Add(context.Background(),
		[]string{"1"},
		[][]float64{{0.1, 0.2, 0.3}},
		[]string{"hello persistence"},
		[]document.Metadata{{"foo": "bar"}},
	)
	require.NoError(t, err)

	// Simulate a restart: chromem has no Close, so a new Index pointing
	// at the same directory exercises the recovery path.
	idx2, err := New(tmpDir, "docs")
	require.NoError(t, err)

	count, err := idx2.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	matches, err := idx2.Query(context.Background(), []float64{0.1, 0.2, 0.3}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "1", matches[0].ID)
	require.Equal(t, "hello persistence", matches[0].Content)
	require.InDelta(t, 0, matches[0].Distance, 1e-6)
}

func TestIndexInMemoryQueryEmpty(t *testing.T) {
	idx, err := New("", "docs")
	require.NoError(t, err)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, count)

	matches, err := idx.Query(context.Background(), []float64{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Empty(t, matches)
}
