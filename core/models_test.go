package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash([]byte("# Title\nSome content."))
	b := ContentHash([]byte("# Title\nSome content."))
	assert.Equal(t, a, b, "identical content must hash identically")
	assert.Len(t, a, 64, "BLAKE2b-256 hex digest should be 64 chars")
}

func TestContentHash_DistinctContent(t *testing.T) {
	a := ContentHash([]byte("version one"))
	b := ContentHash([]byte("version two"))
	assert.NotEqual(t, a, b)
}

func TestNewDocumentState(t *testing.T) {
	state := NewDocumentState("experiments/alpha.md")

	assert.Equal(t, "experiments/alpha.md", state.SourceKey)
	assert.Equal(t, DocStatusProcessing, state.Status)
	assert.Equal(t, StepDownload, state.CurrentStep)
	assert.False(t, state.StartedAt.IsZero())
	assert.True(t, state.CompletedAt.IsZero())
	assert.True(t, state.FailedAt.IsZero())
	assert.Zero(t, state.RetryCount)
	assert.Empty(t, state.Errors)
}

func TestRecordError_AppendOnly(t *testing.T) {
	state := NewDocumentState("doc")
	state.RecordError(StepEmbed, "rate limit exceeded", true)
	state.RecordError(StepEmbed, "metadata missing", false)

	require.Len(t, state.Errors, 2)
	assert.Equal(t, StepEmbed, state.Errors[0].Step)
	assert.True(t, state.Errors[0].Retryable)
	assert.False(t, state.Errors[1].Retryable)
	assert.False(t, state.Errors[0].Timestamp.IsZero())
}

func TestProgress(t *testing.T) {
	state := NewDocumentState("doc")
	assert.Zero(t, state.Progress(), "no chunks known yet")

	state.TotalChunks = 25
	state.ProcessedChunks = 10
	assert.InDelta(t, 40.0, state.Progress(), 0.001)

	state.ProcessedChunks = 25
	assert.InDelta(t, 100.0, state.Progress(), 0.001)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "not_started", DocStatusNotStarted.String())
	assert.Equal(t, "processing", DocStatusProcessing.String())
	assert.Equal(t, "completed", DocStatusCompleted.String())
	assert.Equal(t, "failed", DocStatusFailed.String())
	assert.Equal(t, "unknown", DocStatus(42).String())

	assert.Equal(t, "pending", ChunkPending.String())
	assert.Equal(t, "embedding_done", ChunkEmbedded.String())
	assert.Equal(t, "tags_done", ChunkTagged.String())
	assert.Equal(t, "stored", ChunkStored.String())
}
