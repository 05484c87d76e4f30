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
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docflow/core"
)

// StartOptions carries optional document metadata supplied at submission.
type StartOptions struct {
	Project string
	Company string
}

// DocumentStatus is the status snapshot returned by Manager.Status.
type DocumentStatus struct {
	SourceKey       string
	Status          core.DocStatus
	CurrentStep     core.StepName
	Progress        float64
	TotalChunks     int
	ProcessedChunks int
	Errors          []core.ProcessingError
	RetryCount      int
	DocumentID      string
	StartedAt       time.Time
	CompletedAt     time.Time
	FailedAt        time.Time
}

// Manager exposes the pipeline triggers and enforces the concurrency
// contract: at most one execution per document at any time, documents
// independent of each other. Runs are dispatched onto a shared worker pool;
// retryable suspensions re-enter through timers the manager owns.
type Manager struct {
	executor *Executor
	config   *Config
	pool     *ants.Pool
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	timers   map[string]*time.Timer
	closed   bool
}

// NewManager creates a manager around an executor.
func NewManager(executor *Executor, config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.normalize()

	pool, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}

	return &Manager{
		executor: executor,
		config:   config,
		pool:     pool,
		logger:   slog.Default().With("component", "pipeline-manager"),
		inflight: make(map[string]struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start submits a document for processing. Submitting a document that is
// already processing, completed, or failed is a no-op; a failed document
// keeps its error history until it is resumed or reprocessed explicitly.
func (m *Manager) Start(ctx context.Context, sourceKey string, opts *StartOptions) error {
	if sourceKey == "" {
		return core.ErrEmptySourceKey
	}

	existing, err := m.executor.deps.States.Get(ctx, sourceKey)
	if err != nil {
		return err
	}
	if existing != nil {
		switch existing.Status {
		case core.DocStatusProcessing, core.DocStatusCompleted, core.DocStatusFailed:
			m.logger.Debug("start ignored", "sourceKey", sourceKey, "status", existing.Status)
			return nil
		}
	}

	state := core.NewDocumentState(sourceKey)
	if opts != nil {
		state.Meta = &core.DocumentMeta{
			Project:   opts.Project,
			Company:   opts.Company,
			SourceKey: sourceKey,
		}
	}
	if err := m.executor.deps.States.Put(ctx, state); err != nil {
		return err
	}

	return m.dispatch(sourceKey)
}

// Resume re-enters the executor from persisted state. A failed document is
// moved back to processing with its retry budget reset; its error history
// is kept. Resuming a completed document is a no-op run.
func (m *Manager) Resume(ctx context.Context, sourceKey string) error {
	state, err := m.executor.deps.States.Get(ctx, sourceKey)
	if err != nil {
		return err
	}
	if state == nil {
		return ErrDocumentNotFound
	}

	if state.Status == core.DocStatusFailed {
		state.Status = core.DocStatusProcessing
		state.RetryCount = 0
		if err := m.executor.deps.States.Put(ctx, state); err != nil {
			return err
		}
	}

	return m.dispatch(sourceKey)
}

// Reprocess wipes all local state for a document, deletes its catalog rows,
// and starts it from scratch. It is destructive and rejected while a run is
// in flight or the document is marked processing.
func (m *Manager) Reprocess(ctx context.Context, sourceKey string, opts *StartOptions) error {
	m.mu.Lock()
	if _, busy := m.inflight[sourceKey]; busy {
		m.mu.Unlock()
		return ErrAlreadyProcessing
	}
	m.mu.Unlock()

	state, err := m.executor.deps.States.Get(ctx, sourceKey)
	if err != nil {
		return err
	}
	if state != nil && state.Status == core.DocStatusProcessing {
		return ErrAlreadyProcessing
	}

	if err := m.wipe(ctx, sourceKey); err != nil {
		return err
	}
	// The prior version's catalog rows go too, so a reprocess with unchanged
	// content cannot short-circuit on the old hash.
	if err := m.executor.deps.Catalog.DeleteDocument(ctx, sourceKey); err != nil {
		return err
	}

	fresh := core.NewDocumentState(sourceKey)
	if opts != nil {
		fresh.Meta = &core.DocumentMeta{
			Project:   opts.Project,
			Company:   opts.Company,
			SourceKey: sourceKey,
		}
	}
	if err := m.executor.deps.States.Put(ctx, fresh); err != nil {
		return err
	}

	return m.dispatch(sourceKey)
}

// Status returns the latest persisted snapshot for a document, including
// its full error history.
func (m *Manager) Status(ctx context.Context, sourceKey string) (*DocumentStatus, error) {
	state, err := m.executor.deps.States.Get(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrDocumentNotFound
	}

	return &DocumentStatus{
		SourceKey:       state.SourceKey,
		Status:          state.Status,
		CurrentStep:     state.CurrentStep,
		Progress:        state.Progress(),
		TotalChunks:     state.TotalChunks,
		ProcessedChunks: state.ProcessedChunks,
		Errors:          state.Errors,
		RetryCount:      state.RetryCount,
		DocumentID:      state.DocumentID,
		StartedAt:       state.StartedAt,
		CompletedAt:     state.CompletedAt,
		FailedAt:        state.FailedAt,
	}, nil
}

// Delete removes all local state for a document: the state record, the
// chunk records, and the vector entries. Rejected while a run is in flight.
func (m *Manager) Delete(ctx context.Context, sourceKey string) error {
	m.mu.Lock()
	if _, busy := m.inflight[sourceKey]; busy {
		m.mu.Unlock()
		return ErrAlreadyProcessing
	}
	if timer, ok := m.timers[sourceKey]; ok {
		timer.Stop()
		delete(m.timers, sourceKey)
	}
	m.mu.Unlock()

	return m.wipe(ctx, sourceKey)
}

// Idle reports whether no runs are in flight and no retries are pending.
func (m *Manager) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight) == 0 && len(m.timers) == 0
}

// Close stops pending retry timers and releases the worker pool. In-flight
// runs finish on their own; no new work is accepted.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for key, timer := range m.timers {
		timer.Stop()
		delete(m.timers, key)
	}
	m.mu.Unlock()

	m.pool.Release()
}

// dispatch submits a run for sourceKey onto the pool, holding the
// document's single-flight slot for the duration of the run.
func (m *Manager) dispatch(sourceKey string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if _, busy := m.inflight[sourceKey]; busy {
		m.mu.Unlock()
		// Another execution owns this document.
		return nil
	}
	m.inflight[sourceKey] = struct{}{}
	if timer, ok := m.timers[sourceKey]; ok {
		timer.Stop()
		delete(m.timers, sourceKey)
	}
	m.mu.Unlock()

	err := m.pool.Submit(func() {
		m.run(sourceKey)
	})
	if err != nil {
		m.mu.Lock()
		delete(m.inflight, sourceKey)
		m.mu.Unlock()
		return err
	}
	return nil
}

// run executes one document on a pool worker and schedules re-entry when
// the executor suspends for a retry.
func (m *Manager) run(sourceKey string) {
	result, err := m.executor.Run(context.Background(), sourceKey)

	// Release the slot and register the re-entry timer under one lock so
	// Idle never reports true while a retry is pending.
	m.mu.Lock()
	delete(m.inflight, sourceKey)
	if err == nil && result.Suspended && !m.closed {
		m.scheduleReentryLocked(sourceKey, result.RetryDelay)
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("pipeline run aborted", "sourceKey", sourceKey, "err", err)
	}
}

// scheduleReentryLocked arranges a deferred dispatch after the backoff delay.
// Callers must hold m.mu.
func (m *Manager) scheduleReentryLocked(sourceKey string, delay time.Duration) {
	if _, pending := m.timers[sourceKey]; pending {
		return
	}

	m.timers[sourceKey] = time.AfterFunc(delay, func() {
		m.mu.Lock()
		delete(m.timers, sourceKey)
		m.mu.Unlock()

		if err := m.dispatch(sourceKey); err != nil {
			m.logger.Error("retry dispatch failed", "sourceKey", sourceKey, "err", err)
		}
	})
}

// wipe removes chunks, vectors, and the state record for a document.
func (m *Manager) wipe(ctx context.Context, sourceKey string) error {
	if err := m.executor.deps.Chunks.DeleteAll(ctx, sourceKey); err != nil {
		return err
	}
	if err := m.executor.deps.Vectors.Delete(ctx, sourceKey); err != nil {
		return err
	}
	return m.executor.deps.States.Delete(ctx, sourceKey)
}
