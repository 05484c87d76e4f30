package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docflow/core"
)

func newTestManager(t *testing.T, env *testEnv) *Manager {
	t.Helper()
	cfg := *env.config
	cfg.RetryBackoff = time.Millisecond
	cfg.PoolSize = 4
	m, err := NewManager(env.executor, &cfg)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func waitForStatus(t *testing.T, m *Manager, sourceKey string, want core.DocStatus) *DocumentStatus {
	t.Helper()
	var status *DocumentStatus
	require.Eventually(t, func() bool {
		s, err := m.Status(context.Background(), sourceKey)
		if err != nil {
			return false
		}
		status = s
		return s.Status == want
	}, 5*time.Second, 5*time.Millisecond)
	return status
}

func TestManagerStartToCompletion(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	env.fetcher.set("docs/a.md", markdownWithSections(3))
	require.NoError(t, m.Start(ctx, "docs/a.md", &StartOptions{Project: "handbook", Company: "acme"}))

	status := waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)
	assert.Equal(t, core.StepComplete, status.CurrentStep)
	assert.Equal(t, 3, status.TotalChunks)
	assert.Equal(t, 3, status.ProcessedChunks)
	assert.InDelta(t, 100.0, status.Progress, 0.001)
	assert.NotEmpty(t, status.DocumentID)
	assert.False(t, status.StartedAt.IsZero())
	assert.False(t, status.CompletedAt.IsZero())
}

func TestManagerStartEmptyKey(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)

	assert.ErrorIs(t, m.Start(context.Background(), "", nil), core.ErrEmptySourceKey)
}

func TestManagerStartCompletedIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	env.fetcher.set("docs/a.md", markdownWithSections(1))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)

	env.provider.GetMockEmbedder().Reset()
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))

	// Nothing ran again.
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, env.provider.GetMockEmbedder().CallCount())
}

func TestManagerStartFailedIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	env.fetcher.fetch = func(sourceKey string) ([]byte, error) {
		return nil, errors.New("download exploded")
	}
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	waitForStatus(t, m, "docs/a.md", core.DocStatusFailed)
	require.Eventually(t, m.Idle, time.Second, time.Millisecond)

	// A failed document needs Resume or Reprocess; a second Start must not
	// wipe the history and rerun.
	env.fetcher.fetch = func(sourceKey string) ([]byte, error) {
		return nil, errors.New("different failure")
	}
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	time.Sleep(20 * time.Millisecond)

	status, err := m.Status(ctx, "docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, core.DocStatusFailed, status.Status)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0].Message, "download exploded")
}

func TestManagerSingleFlightPerDocument(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	env.provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1}
		}
		return out, nil
	}

	env.fetcher.set("docs/a.md", markdownWithSections(1))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	<-started

	// A second trigger while processing is a silent no-op, and a reprocess
	// is rejected outright.
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	assert.ErrorIs(t, m.Reprocess(ctx, "docs/a.md", nil), ErrAlreadyProcessing)
	assert.ErrorIs(t, m.Delete(ctx, "docs/a.md"), ErrAlreadyProcessing)

	close(release)
	waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)
}

func TestManagerRetrySchedulesReentry(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	calls := 0
	env.provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, Retryable(errors.New("rate limit"))
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1}
		}
		return out, nil
	}

	env.fetcher.set("docs/a.md", markdownWithSections(1))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))

	status := waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)
	require.Len(t, status.Errors, 1)
	assert.True(t, status.Errors[0].Retryable)
	assert.Equal(t, core.StepEmbed, status.Errors[0].Step)
	assert.Zero(t, status.RetryCount)
}

func TestManagerRetryCapFailsDocument(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	env.provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, Retryable(errors.New("still broken"))
	}

	env.fetcher.set("docs/a.md", markdownWithSections(1))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))

	status := waitForStatus(t, m, "docs/a.md", core.DocStatusFailed)
	assert.Equal(t, env.config.MaxRetryAttempts, status.RetryCount)
	assert.Len(t, status.Errors, env.config.MaxRetryAttempts+1)
	assert.False(t, status.FailedAt.IsZero())

	// No silent recovery past the cap.
	time.Sleep(20 * time.Millisecond)
	again, err := m.Status(ctx, "docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, core.DocStatusFailed, again.Status)
}

func TestManagerResumeFailedDocument(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	broken := true
	env.provider.GetMockTagger().TagTextsFunc = func(ctx context.Context, texts []string) ([][]string, error) {
		if broken {
			return nil, errors.New("model misconfigured")
		}
		out := make([][]string, len(texts))
		for i := range out {
			out[i] = []string{"fixed"}
		}
		return out, nil
	}

	env.fetcher.set("docs/a.md", markdownWithSections(2))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	waitForStatus(t, m, "docs/a.md", core.DocStatusFailed)

	broken = false
	require.NoError(t, m.Resume(ctx, "docs/a.md"))

	status := waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)
	assert.Len(t, status.Errors, 1, "history from the failed run is kept")
	assert.Equal(t, 2, status.ProcessedChunks)
}

func TestManagerResumeUnknownDocument(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)

	assert.ErrorIs(t, m.Resume(context.Background(), "nope"), ErrDocumentNotFound)
}

func TestManagerReprocessRebuildsDocument(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	env.fetcher.set("docs/a.md", markdownWithSections(2))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	first := waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)

	require.Eventually(t, m.Idle, time.Second, time.Millisecond)

	// Content changes; reprocess picks up the new version.
	env.fetcher.set("docs/a.md", markdownWithSections(4))
	require.NoError(t, m.Reprocess(ctx, "docs/a.md", nil))

	require.Eventually(t, func() bool {
		s, err := m.Status(ctx, "docs/a.md")
		return err == nil && s.Status == core.DocStatusCompleted && s.TotalChunks == 4
	}, 5*time.Second, 5*time.Millisecond)

	second, err := m.Status(ctx, "docs/a.md")
	require.NoError(t, err)
	assert.NotEqual(t, first.DocumentID, second.DocumentID, "old catalog rows are dropped")
	assert.Equal(t, 4, second.ProcessedChunks)
	assert.Equal(t, 4, env.vectors.count())

	doc, err := env.cat.GetDocument(ctx, "docs/a.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, second.DocumentID, doc.ID)
}

func TestManagerReprocessUnchangedContentRewritesCatalog(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	env.fetcher.set("docs/a.md", markdownWithSections(2))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)
	require.Eventually(t, m.Idle, time.Second, time.Millisecond)
	require.Equal(t, 1, env.cat.writeCount())

	// Same bytes, so an upsert against surviving rows would short-circuit
	// on the content hash. Reprocess must rewrite the catalog regardless.
	require.NoError(t, m.Reprocess(ctx, "docs/a.md", nil))
	waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)

	assert.Equal(t, 2, env.cat.writeCount())
}

func TestManagerDeleteWipesLocalState(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	env.fetcher.set("docs/a.md", markdownWithSections(2))
	require.NoError(t, m.Start(ctx, "docs/a.md", nil))
	waitForStatus(t, m, "docs/a.md", core.DocStatusCompleted)
	require.Eventually(t, m.Idle, time.Second, time.Millisecond)

	require.NoError(t, m.Delete(ctx, "docs/a.md"))

	_, err := m.Status(ctx, "docs/a.md")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	chunks, err := env.chunks.ListAll(ctx, "docs/a.md")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, env.vectors.count())
}

func TestManagerConcurrentDocuments(t *testing.T) {
	env := newTestEnv(t)
	m := newTestManager(t, env)
	ctx := context.Background()

	keys := make([]string, 6)
	for i := range keys {
		keys[i] = fmt.Sprintf("docs/doc-%d.md", i)
		env.fetcher.set(keys[i], markdownWithSections(3))
		require.NoError(t, m.Start(ctx, keys[i], nil))
	}

	for _, key := range keys {
		status := waitForStatus(t, m, key, core.DocStatusCompleted)
		assert.Equal(t, 3, status.TotalChunks, key)
	}
}

func TestManagerClosedRejectsWork(t *testing.T) {
	env := newTestEnv(t)
	cfg := *env.config
	m, err := NewManager(env.executor, &cfg)
	require.NoError(t, err)
	m.Close()

	env.fetcher.set("docs/a.md", markdownWithSections(1))
	assert.ErrorIs(t, m.Start(context.Background(), "docs/a.md", nil), ErrManagerClosed)
}
