package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/docflow/catalog"
	"github.com/poiesic/docflow/storage"
)

// eventLog records cross-fake call ordering for commit-ordering assertions.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// fakeFetcher serves raw content from an in-memory map.
type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string][]byte
	fetch func(sourceKey string) ([]byte, error)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{docs: make(map[string][]byte)}
}

func (f *fakeFetcher) set(sourceKey, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[sourceKey] = []byte(content)
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceKey string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetch != nil {
		return f.fetch(sourceKey)
	}
	content, ok := f.docs[sourceKey]
	if !ok {
		return nil, fmt.Errorf("no content for %s", sourceKey)
	}
	return content, nil
}

// fakeVectors is an in-memory vector index that records upserts in the
// shared event log.
type fakeVectors struct {
	mu      sync.Mutex
	entries map[string]*storage.VectorEntry
	log     *eventLog
}

func newFakeVectors(log *eventLog) *fakeVectors {
	return &fakeVectors{entries: make(map[string]*storage.VectorEntry), log: log}
}

func (v *fakeVectors) Upsert(ctx context.Context, entry *storage.VectorEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[entry.ID] = entry
	if v.log != nil {
		v.log.add("vector:" + entry.ID)
	}
	return nil
}

func (v *fakeVectors) Delete(ctx context.Context, sourceKey string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, entry := range v.entries {
		if entry.SourceKey == sourceKey {
			delete(v.entries, id)
		}
	}
	return nil
}

func (v *fakeVectors) Search(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.VectorMatch, error) {
	return nil, nil
}

func (v *fakeVectors) Close() error { return nil }

func (v *fakeVectors) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// fakeCatalog is an in-memory catalog.Catalog with failure injection and a
// write counter, so tests can observe the hash short-circuit.
type fakeCatalog struct {
	mu        sync.Mutex
	docs      map[string]*catalog.Document // by source key
	chunks    map[string][]catalog.Chunk   // by document id
	nextID    int
	writes    int // upserts that actually modified rows
	upsertErr error
	log       *eventLog
}

func newFakeCatalog(log *eventLog) *fakeCatalog {
	return &fakeCatalog{
		docs:   make(map[string]*catalog.Document),
		chunks: make(map[string][]catalog.Chunk),
		log:    log,
	}
}

func (c *fakeCatalog) failUpserts(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertErr = err
}

func (c *fakeCatalog) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *fakeCatalog) GetDocument(ctx context.Context, sourceKey string) (*catalog.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[sourceKey]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (c *fakeCatalog) UpsertDocument(ctx context.Context, doc *catalog.Document, chunks []catalog.Chunk) (*catalog.UpsertResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.log != nil {
		c.log.add("catalog:" + doc.SourceKey)
	}
	if c.upsertErr != nil {
		return nil, c.upsertErr
	}

	existing, ok := c.docs[doc.SourceKey]
	if ok && existing.ContentHash == doc.ContentHash {
		return &catalog.UpsertResult{DocumentID: existing.ID, Unchanged: true}, nil
	}

	id := ""
	if ok {
		id = existing.ID
	} else {
		c.nextID++
		id = fmt.Sprintf("doc-%d", c.nextID)
	}

	stored := *doc
	stored.ID = id
	c.docs[doc.SourceKey] = &stored
	c.chunks[id] = chunks
	c.writes++

	return &catalog.UpsertResult{DocumentID: id, Unchanged: false}, nil
}

func (c *fakeCatalog) GetChunks(ctx context.Context, documentID string) ([]catalog.Chunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chunks[documentID], nil
}

func (c *fakeCatalog) DeleteDocument(ctx context.Context, sourceKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.docs[sourceKey]; ok {
		delete(c.chunks, doc.ID)
		delete(c.docs, sourceKey)
	}
	return nil
}

func (c *fakeCatalog) ListDocuments(ctx context.Context) ([]catalog.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]catalog.Document, 0, len(c.docs))
	for _, doc := range c.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (c *fakeCatalog) Close() error { return nil }
