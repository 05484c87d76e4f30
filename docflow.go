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


package docflow

import (
	"log/slog"
	"path/filepath"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/ai/openai"
	"github.com/poiesic/docflow/catalog"
	catalogsqlite "github.com/poiesic/docflow/catalog/sqlite"
	"github.com/poiesic/docflow/chunker"
	"github.com/poiesic/docflow/fetch"
	"github.com/poiesic/docflow/pipeline"
	"github.com/poiesic/docflow/storage"
	"github.com/poiesic/docflow/storage/badger"
)

// Docflow owns the full document-processing stack: local badger state,
// the SQLite catalog, the AI provider, and the pipeline manager built on
// top of them.
type Docflow struct {
	backend  *badger.Backend
	chunks   storage.ChunkStore
	states   storage.StateStore
	vectors  storage.VectorIndex
	cat      catalog.Catalog
	provider ai.Provider
	manager  *pipeline.Manager
	logger   *slog.Logger
}

// Option configures a Docflow.
type Option func(*options)

type options struct {
	aiConfig       *ai.Config
	pipelineConfig *pipeline.Config
	maxChunkTokens int
}

// WithAIConfig overrides the default AI service configuration.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithPipelineConfig overrides the default pipeline tuning.
func WithPipelineConfig(config *pipeline.Config) Option {
	return func(o *options) {
		if config != nil {
			o.pipelineConfig = config
		}
	}
}

// WithMaxChunkTokens overrides the chunker's token budget.
func WithMaxChunkTokens(maxTokens int) Option {
	return func(o *options) {
		if maxTokens > 0 {
			o.maxChunkTokens = maxTokens
		}
	}
}

// New opens a Docflow instance. dataDir holds all local state (badger
// tree and catalog database); docsDir is the root the filesystem fetcher
// reads raw documents from.
func New(dataDir, docsDir string, opts ...Option) (*Docflow, error) {
	o := &options{
		aiConfig:       ai.DefaultConfig(),
		pipelineConfig: pipeline.DefaultConfig(),
		maxChunkTokens: chunker.DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "state"), false)
	if err != nil {
		return nil, err
	}

	chunks := badger.NewChunkStore(backend)
	states := badger.NewStateStore(backend)
	vectors := badger.NewVectorIndex(backend)

	cat, err := catalogsqlite.NewStore(filepath.Join(dataDir, "catalog.db"))
	if err != nil {
		backend.Close()
		return nil, err
	}

	fetcher, err := fetch.NewFSFetcher(docsDir)
	if err != nil {
		cat.Close()
		backend.Close()
		return nil, err
	}

	ck, err := chunker.New(o.maxChunkTokens)
	if err != nil {
		cat.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(o.aiConfig)
	if err != nil {
		cat.Close()
		backend.Close()
		return nil, err
	}

	executor, err := pipeline.NewExecutor(pipeline.DefaultRegistry(), pipeline.Dependencies{
		States:   states,
		Chunks:   chunks,
		Vectors:  vectors,
		Catalog:  cat,
		Fetcher:  fetcher,
		Chunker:  ck,
		Provider: provider,
	}, o.pipelineConfig)
	if err != nil {
		provider.Close()
		cat.Close()
		backend.Close()
		return nil, err
	}

	manager, err := pipeline.NewManager(executor, o.pipelineConfig)
	if err != nil {
		provider.Close()
		cat.Close()
		backend.Close()
		return nil, err
	}

	return &Docflow{
		backend:  backend,
		chunks:   chunks,
		states:   states,
		vectors:  vectors,
		cat:      cat,
		provider: provider,
		manager:  manager,
		logger:   slog.Default(),
	}, nil
}

// Manager returns the pipeline manager exposing the processing triggers.
func (d *Docflow) Manager() *pipeline.Manager {
	return d.manager
}

// Catalog returns the relational catalog.
func (d *Docflow) Catalog() catalog.Catalog {
	return d.cat
}

// StateStore returns the document state store.
func (d *Docflow) StateStore() storage.StateStore {
	return d.states
}

// VectorIndex returns the local vector index.
func (d *Docflow) VectorIndex() storage.VectorIndex {
	return d.vectors
}

// Provider returns the AI provider.
func (d *Docflow) Provider() ai.Provider {
	return d.provider
}

// Close shuts down the manager and releases every store.
func (d *Docflow) Close() error {
	d.manager.Close()

	if err := d.provider.Close(); err != nil {
		d.logger.Error("error closing AI provider", "err", err)
	}

	if err := d.cat.Close(); err != nil {
		d.logger.Error("error closing catalog", "err", err)
		return err
	}

	if err := d.backend.Close(); err != nil {
		d.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
