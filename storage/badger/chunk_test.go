package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunkStore(t *testing.T) (*ChunkStore, context.Context) {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewChunkStore(backend).(*ChunkStore), context.Background()
}

func makeChunks(sourceKey string, n int) []*core.ChunkRecord {
	chunks := make([]*core.ChunkRecord, n)
	for i := range chunks {
		chunks[i] = &core.ChunkRecord{
			SourceKey:  sourceKey,
			Index:      i,
			Text:       "chunk text",
			TokenCount: 2,
			Status:     core.ChunkPending,
		}
	}
	return chunks
}

func TestChunkStore_PutGet(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	record := &core.ChunkRecord{
		SourceKey:  "doc",
		Index:      3,
		Text:       "hello world",
		TokenCount: 2,
		Embedding:  []float32{0.1, 0.2, 0.3},
		Tags:       []string{"greeting"},
		Status:     core.ChunkEmbedded,
	}
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "doc", 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Text, got.Text)
	assert.Equal(t, record.Embedding, got.Embedding)
	assert.Equal(t, record.Tags, got.Tags)
	assert.Equal(t, core.ChunkEmbedded, got.Status)
}

func TestChunkStore_GetMissing(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	got, err := store.Get(ctx, "doc", 0)
	require.NoError(t, err)
	assert.Nil(t, got, "missing chunk should return nil, nil")
}

func TestChunkStore_PutBatchAndListAll(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	require.NoError(t, store.PutBatch(ctx, makeChunks("doc", 12)))

	all, err := store.ListAll(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, all, 12)
	for i, record := range all {
		assert.Equal(t, i, record.Index, "ListAll must be sorted by index")
	}
}

func TestChunkStore_ListByStatus(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	chunks := makeChunks("doc", 5)
	chunks[1].Status = core.ChunkEmbedded
	chunks[4].Status = core.ChunkEmbedded
	require.NoError(t, store.PutBatch(ctx, chunks))

	pending, err := store.ListByStatus(ctx, "doc", core.ChunkPending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	embedded, err := store.ListByStatus(ctx, "doc", core.ChunkEmbedded)
	require.NoError(t, err)
	require.Len(t, embedded, 2)
	assert.Equal(t, 1, embedded[0].Index)
	assert.Equal(t, 4, embedded[1].Index)
}

func TestChunkStore_CountByStatus(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	chunks := makeChunks("doc", 6)
	chunks[0].Status = core.ChunkStored
	chunks[1].Status = core.ChunkTagged
	chunks[2].Status = core.ChunkTagged
	require.NoError(t, store.PutBatch(ctx, chunks))

	counts, err := store.CountByStatus(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 3, counts[core.ChunkPending])
	assert.Equal(t, 2, counts[core.ChunkTagged])
	assert.Equal(t, 1, counts[core.ChunkStored])
}

func TestChunkStore_DeleteAll(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	require.NoError(t, store.PutBatch(ctx, makeChunks("doc", 4)))
	require.NoError(t, store.PutBatch(ctx, makeChunks("other", 2)))

	require.NoError(t, store.DeleteAll(ctx, "doc"))

	all, err := store.ListAll(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, all)

	other, err := store.ListAll(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, other, 2, "other document's chunks must be untouched")
}

func TestChunkStore_DocumentIsolation(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	require.NoError(t, store.PutBatch(ctx, makeChunks("a", 3)))
	require.NoError(t, store.PutBatch(ctx, makeChunks("ab", 2)))

	a, err := store.ListAll(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, a, 3, "prefix scan must not leak into other source keys")
}

func TestChunkStore_SeparatorInSourceKey(t *testing.T) {
	store, ctx := newTestChunkStore(t)

	// "a" and "a:b" must stay disjoint even though the key separator
	// appears inside the second source key.
	require.NoError(t, store.PutBatch(ctx, makeChunks("a", 2)))
	require.NoError(t, store.PutBatch(ctx, makeChunks("a:b", 3)))

	a, err := store.ListAll(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, a, 2)

	require.NoError(t, store.DeleteAll(ctx, "a"))

	ab, err := store.ListAll(ctx, "a:b")
	require.NoError(t, err)
	assert.Len(t, ab, 3, "deleting one document must not touch the other")
}
