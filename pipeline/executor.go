// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/catalog"
	"github.com/poiesic/docflow/chunker"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/fetch"
	"github.com/poiesic/docflow/storage"
)

// Dependencies are the collaborators the executor hands to step handlers.
type Dependencies struct {
	States   storage.StateStore
	Chunks   storage.ChunkStore
	Vectors  storage.VectorIndex
	Catalog  catalog.Catalog
	Fetcher  fetch.Fetcher
	Chunker  *chunker.Chunker
	Provider ai.Provider
}

func (d *Dependencies) validate() error {
	switch {
	case d.States == nil:
		return ErrStateStoreRequired
	case d.Chunks == nil:
		return ErrChunkStoreRequired
	case d.Vectors == nil:
		return ErrVectorIndexRequired
	case d.Catalog == nil:
		return ErrCatalogRequired
	case d.Fetcher == nil:
		return ErrFetcherRequired
	case d.Chunker == nil:
		return ErrChunkerRequired
	case d.Provider == nil:
		return ErrProviderRequired
	}
	return nil
}

// RunResult reports how an executor run ended.
type RunResult struct {
	// State is the document state as last persisted.
	State *core.DocumentState

	// Suspended is true when the run stopped on a retryable failure and
	// expects to be re-entered after RetryDelay.
	Suspended bool

	// RetryDelay is the backoff before re-entry. Zero unless Suspended.
	RetryDelay time.Duration
}

// Executor drives a document through the step registry. It is the
// state-machine core: it loads persisted state, dispatches the current
// step's handler in an explicit loop, and persists state after every
// handler invocation. Dispatch is iterative, so batch continuations cost
// no stack regardless of chunk count.
//
// The executor is the sole writer of DocumentState. It is safe for
// concurrent use across distinct documents; per-document serialization is
// the Manager's job.
type Executor struct {
	registry *Registry
	deps     Dependencies
	config   *Config
	logger   *slog.Logger
}

// NewExecutor creates an executor over an explicit registry and dependency set.
func NewExecutor(registry *Registry, deps Dependencies, config *Config) (*Executor, error) {
	if registry == nil {
		return nil, ErrNoSteps
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	if config == nil {
		config = DefaultConfig()
	}
	config.normalize()

	return &Executor{
		registry: registry,
		deps:     deps,
		config:   config,
		logger:   slog.Default().With("component", "executor"),
	}, nil
}

// Run executes the document identified by sourceKey from its persisted
// state until it completes, fails terminally, or suspends for a retry.
// Running a completed or failed document is a no-op that returns the
// current state.
func (e *Executor) Run(ctx context.Context, sourceKey string) (*RunResult, error) {
	state, err := e.deps.States.Get(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrDocumentNotFound
	}

	if state.Status != core.DocStatusProcessing {
		return &RunResult{State: state}, nil
	}

	sc := &StepContext{
		State:     state,
		Chunks:    e.deps.Chunks,
		Vectors:   e.deps.Vectors,
		Catalog:   e.deps.Catalog,
		Fetcher:   e.deps.Fetcher,
		Chunker:   e.deps.Chunker,
		Embedder:  e.deps.Provider.Embedder(),
		Tagger:    e.deps.Provider.Tagger(),
		BatchSize: e.config.BatchSize,
		Logger:    e.logger,
	}

	for state.Status == core.DocStatusProcessing {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		handler, ok := e.registry.Handler(state.CurrentStep)
		if !ok {
			// Corrupted or stale persisted step. Not recoverable by retry.
			return e.fail(ctx, state, fmt.Errorf("%w: %q", ErrUnknownStep, state.CurrentStep))
		}

		signal, err := handler(ctx, sc)
		if err != nil {
			return e.fail(ctx, state, err)
		}

		state.RetryCount = 0

		if signal == SignalAdvance {
			next, _ := e.registry.Next(state.CurrentStep)
			if next == state.CurrentStep {
				// Self-looping terminal
				e.markCompleted(state)
			} else {
				state.CurrentStep = next
				if next == e.registry.Terminal() {
					e.markCompleted(state)
				}
			}
		}

		if err := e.deps.States.Put(ctx, state); err != nil {
			return nil, err
		}
	}

	return &RunResult{State: state}, nil
}

// fail routes a handler error: record it, then either suspend for a backed-off
// retry or mark the document terminally failed. The updated state is persisted
// before returning.
func (e *Executor) fail(ctx context.Context, state *core.DocumentState, cause error) (*RunResult, error) {
	retryable := IsRetryable(cause)
	state.RecordError(state.CurrentStep, cause.Error(), retryable)

	if retryable && state.RetryCount < e.config.MaxRetryAttempts {
		delay := backoffDelay(e.config.RetryBackoff, state.RetryCount)
		state.RetryCount++

		if err := e.deps.States.Put(ctx, state); err != nil {
			return nil, err
		}

		e.logger.Warn("step failed, retry scheduled",
			"sourceKey", state.SourceKey,
			"step", state.CurrentStep,
			"retryCount", state.RetryCount,
			"delay", delay,
			"err", cause)

		return &RunResult{State: state, Suspended: true, RetryDelay: delay}, nil
	}

	state.Status = core.DocStatusFailed
	if state.FailedAt.IsZero() {
		state.FailedAt = time.Now().UTC()
	}

	if err := e.deps.States.Put(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Error("document failed",
		"sourceKey", state.SourceKey,
		"step", state.CurrentStep,
		"retryable", retryable,
		"retryCount", state.RetryCount,
		"err", cause)

	return &RunResult{State: state}, nil
}

func (e *Executor) markCompleted(state *core.DocumentState) {
	state.CurrentStep = e.registry.Terminal()
	state.Status = core.DocStatusCompleted
	if state.CompletedAt.IsZero() {
		state.CompletedAt = time.Now().UTC()
	}

	e.logger.Info("document completed",
		"sourceKey", state.SourceKey,
		"chunks", state.TotalChunks,
		"documentId", state.DocumentID)
}
