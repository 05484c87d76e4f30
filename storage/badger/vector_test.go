package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/docflow/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectorIndex(t *testing.T) (*VectorIndex, context.Context) {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewVectorIndex(backend).(*VectorIndex), context.Background()
}

func upsertEntries(t *testing.T, index *VectorIndex, ctx context.Context, sourceKey string, vectors ...[]float32) {
	t.Helper()
	for i, vec := range vectors {
		require.NoError(t, index.Upsert(ctx, &storage.VectorEntry{
			ID:        fmt.Sprintf("%s:%d", sourceKey, i),
			Vector:    vec,
			SourceKey: sourceKey,
			Index:     i,
		}))
	}
}

func TestVectorIndex_UpsertIdempotent(t *testing.T) {
	index, ctx := newTestVectorIndex(t)

	entry := &storage.VectorEntry{
		ID:        "doc:0",
		Vector:    []float32{1, 0, 0},
		SourceKey: "doc",
		Index:     0,
	}
	require.NoError(t, index.Upsert(ctx, entry))

	// Re-upserting the same ID overwrites instead of duplicating.
	entry.Vector = []float32{0, 1, 0}
	require.NoError(t, index.Upsert(ctx, entry))

	matches, err := index.Search(ctx, []float32{0, 1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc:0", matches[0].Entry.ID)
	assert.InDelta(t, 1.0, matches[0].Score, 0.001)
}

func TestVectorIndex_SearchOrderingAndLimit(t *testing.T) {
	index, ctx := newTestVectorIndex(t)

	upsertEntries(t, index, ctx, "doc",
		[]float32{1, 0, 0},
		[]float32{0.9, 0.1, 0},
		[]float32{0, 0, 1},
	)

	matches, err := index.Search(ctx, []float32{1, 0, 0}, 0.1, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "doc:0", matches[0].Entry.ID, "highest score first")
	assert.Equal(t, "doc:1", matches[1].Entry.ID)
}

func TestVectorIndex_SearchThreshold(t *testing.T) {
	index, ctx := newTestVectorIndex(t)

	upsertEntries(t, index, ctx, "doc",
		[]float32{1, 0},
		[]float32{0, 1},
	)

	matches, err := index.Search(ctx, []float32{1, 0}, 0.9, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc:0", matches[0].Entry.ID)
}

func TestVectorIndex_Delete(t *testing.T) {
	index, ctx := newTestVectorIndex(t)

	upsertEntries(t, index, ctx, "doc", []float32{1, 0}, []float32{0, 1})
	upsertEntries(t, index, ctx, "other", []float32{1, 0})

	require.NoError(t, index.Delete(ctx, "doc"))

	matches, err := index.Search(ctx, []float32{1, 0}, 0.0, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "other", matches[0].Entry.SourceKey)
}

func TestVectorIndex_DeleteSeparatorInSourceKey(t *testing.T) {
	index, ctx := newTestVectorIndex(t)

	upsertEntries(t, index, ctx, "a", []float32{1, 0})
	upsertEntries(t, index, ctx, "a:b", []float32{0, 1}, []float32{1, 1})

	require.NoError(t, index.Delete(ctx, "a"))

	matches, err := index.Search(ctx, []float32{1, 1}, 0.0, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.Equal(t, "a:b", match.Entry.SourceKey)
	}
}
