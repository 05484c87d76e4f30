package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocumentState_Valid(t *testing.T) {
	state := NewDocumentState("doc")
	assert.NoError(t, ValidateDocumentState(state))

	state.TotalChunks = 10
	state.ProcessedChunks = 10
	assert.NoError(t, ValidateDocumentState(state))
}

func TestValidateDocumentState_Invalid(t *testing.T) {
	assert.Error(t, ValidateDocumentState(nil))

	state := NewDocumentState("")
	assert.ErrorIs(t, ValidateDocumentState(state), ErrEmptySourceKey)

	state = NewDocumentState("doc")
	state.Status = DocStatus(99)
	assert.ErrorIs(t, ValidateDocumentState(state), ErrInvalidStatus)

	state = NewDocumentState("doc")
	state.CurrentStep = "teleport"
	assert.ErrorIs(t, ValidateDocumentState(state), ErrInvalidStep)

	state = NewDocumentState("doc")
	state.TotalChunks = -1
	assert.ErrorIs(t, ValidateDocumentState(state), ErrNegativeChunkCount)

	state = NewDocumentState("doc")
	state.TotalChunks = 5
	state.ProcessedChunks = 6
	assert.ErrorIs(t, ValidateDocumentState(state), ErrProcessedExceedsTotal)
}

func TestValidateDocumentState_ProcessedBeforeTotalKnown(t *testing.T) {
	// Before the download step runs TotalChunks is 0; the ordering constraint
	// only applies once the total is known.
	state := NewDocumentState("doc")
	state.ProcessedChunks = 0
	assert.NoError(t, ValidateDocumentState(state))
}

func TestValidateChunkRecord(t *testing.T) {
	record := &ChunkRecord{
		SourceKey:  "doc",
		Index:      0,
		Text:       "chunk text",
		TokenCount: 3,
		Status:     ChunkPending,
	}
	assert.NoError(t, ValidateChunkRecord(record))

	assert.Error(t, ValidateChunkRecord(nil))

	bad := *record
	bad.SourceKey = ""
	assert.ErrorIs(t, ValidateChunkRecord(&bad), ErrEmptySourceKey)

	bad = *record
	bad.Index = -1
	assert.ErrorIs(t, ValidateChunkRecord(&bad), ErrNegativeChunkIndex)

	bad = *record
	bad.Text = ""
	assert.ErrorIs(t, ValidateChunkRecord(&bad), ErrEmptyChunkText)

	bad = *record
	bad.Status = ChunkStatus(9)
	assert.ErrorIs(t, ValidateChunkRecord(&bad), ErrInvalidChunkStatus)
}

func TestValidateStepName(t *testing.T) {
	for _, step := range []StepName{StepDownload, StepEmbed, StepTag, StepStore, StepComplete} {
		assert.NoError(t, ValidateStepName(step))
	}
	assert.Error(t, ValidateStepName("unknown"))
}
