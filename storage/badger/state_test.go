package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateStore(t *testing.T) (*StateStore, context.Context) {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewStateStore(backend).(*StateStore), context.Background()
}

func TestStateStore_PutGet(t *testing.T) {
	store, ctx := newTestStateStore(t)

	state := core.NewDocumentState("experiments/alpha.md")
	state.CurrentStep = core.StepEmbed
	state.TotalChunks = 25
	state.ProcessedChunks = 5
	state.Meta = &core.DocumentMeta{
		Project:     "alpha",
		Company:     "acme",
		SourceKey:   "experiments/alpha.md",
		ContentHash: "abc123",
	}
	state.RecordError(core.StepEmbed, "rate limit", true)
	state.RetryCount = 1

	require.NoError(t, store.Put(ctx, state))

	got, err := store.Get(ctx, "experiments/alpha.md")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, core.DocStatusProcessing, got.Status)
	assert.Equal(t, core.StepEmbed, got.CurrentStep)
	assert.Equal(t, 25, got.TotalChunks)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.Meta)
	assert.Equal(t, "alpha", got.Meta.Project)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "rate limit", got.Errors[0].Message)
	assert.True(t, got.Errors[0].Retryable)
	assert.False(t, got.StartedAt.IsZero())
	assert.True(t, got.CompletedAt.IsZero(), "zero timestamps must survive a round trip")
	assert.True(t, got.FailedAt.IsZero())
}

func TestStateStore_GetMissing(t *testing.T) {
	store, ctx := newTestStateStore(t)

	got, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStateStore_Overwrite(t *testing.T) {
	store, ctx := newTestStateStore(t)

	state := core.NewDocumentState("doc")
	require.NoError(t, store.Put(ctx, state))

	state.CurrentStep = core.StepTag
	state.ProcessedChunks = 10
	state.TotalChunks = 10
	require.NoError(t, store.Put(ctx, state))

	got, err := store.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, core.StepTag, got.CurrentStep)
	assert.Equal(t, 10, got.ProcessedChunks)
}

func TestStateStore_Delete(t *testing.T) {
	store, ctx := newTestStateStore(t)

	require.NoError(t, store.Put(ctx, core.NewDocumentState("doc")))
	require.NoError(t, store.Delete(ctx, "doc"))

	got, err := store.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "doc"))
}

func TestStateStore_List(t *testing.T) {
	store, ctx := newTestStateStore(t)

	require.NoError(t, store.Put(ctx, core.NewDocumentState("a")))
	require.NoError(t, store.Put(ctx, core.NewDocumentState("b")))

	states, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func TestStateStore_RejectsInvalidState(t *testing.T) {
	store, ctx := newTestStateStore(t)

	state := core.NewDocumentState("doc")
	state.CurrentStep = "bogus"
	assert.Error(t, store.Put(ctx, state))
}
