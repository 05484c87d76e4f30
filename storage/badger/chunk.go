package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// ChunkStore implements storage.ChunkStore for BadgerDB.
type ChunkStore struct {
	backend *Backend
}

var _ storage.ChunkStore = (*ChunkStore)(nil)

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(backend *Backend) storage.ChunkStore {
	return &ChunkStore{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (s *ChunkStore) Close() error {
	return nil
}

// Get retrieves a single chunk by document source key and index.
func (s *ChunkStore) Get(ctx context.Context, sourceKey string, index int) (*core.ChunkRecord, error) {
	var result *core.ChunkRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunkRecord(tx, makeChunkKey(sourceKey, index))
		return err
	}, false)
	return result, err
}

// Put writes a single chunk record.
func (s *ChunkStore) Put(ctx context.Context, record *core.ChunkRecord) error {
	if err := core.ValidateChunkRecord(record); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(record.SourceKey, record.Index)
		if err := tx.Set(key, storage.MarshalChunkRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// PutBatch writes multiple chunk records in a single transaction.
func (s *ChunkStore) PutBatch(ctx context.Context, records []*core.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if err := core.ValidateChunkRecord(record); err != nil {
			return err
		}
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeChunkKey(record.SourceKey, record.Index)
			if err := tx.Set(key, storage.MarshalChunkRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ListByStatus returns the document's chunks in the given status, sorted by index.
func (s *ChunkStore) ListByStatus(ctx context.Context, sourceKey string, status core.ChunkStatus) ([]*core.ChunkRecord, error) {
	var results []*core.ChunkRecord
	err := s.forEachChunk(sourceKey, func(record *core.ChunkRecord) {
		if record.Status == status {
			results = append(results, record)
		}
	})
	return results, err
}

// ListAll returns all of the document's chunks, sorted by index.
func (s *ChunkStore) ListAll(ctx context.Context, sourceKey string) ([]*core.ChunkRecord, error) {
	var results []*core.ChunkRecord
	err := s.forEachChunk(sourceKey, func(record *core.ChunkRecord) {
		results = append(results, record)
	})
	return results, err
}

// CountByStatus returns per-status chunk counts for the document.
func (s *ChunkStore) CountByStatus(ctx context.Context, sourceKey string) (map[core.ChunkStatus]int, error) {
	counts := make(map[core.ChunkStatus]int)
	err := s.forEachChunk(sourceKey, func(record *core.ChunkRecord) {
		counts[record.Status]++
	})
	return counts, err
}

// DeleteAll removes every chunk belonging to the document.
func (s *ChunkStore) DeleteAll(ctx context.Context, sourceKey string) error {
	prefix := makeChunkPrefix(sourceKey)
	return s.backend.WithTx(func(tx *badger.Txn) error {
		// Collect keys first; deleting while iterating invalidates the iterator.
		var keys [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// forEachChunk iterates the document's chunks in index order.
// BigEndian index encoding makes badger's lexicographic key order
// identical to numeric index order.
func (s *ChunkStore) forEachChunk(sourceKey string, fn func(*core.ChunkRecord)) error {
	prefix := makeChunkPrefix(sourceKey)
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if !bytes.HasPrefix(item.Key(), prefix) {
				break
			}
			var record *core.ChunkRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil {
				fn(record)
			}
		}
		return nil
	}, false)
}

// readChunkRecord reads a chunk record from the transaction.
// Returns nil, nil if the key does not exist.
func readChunkRecord(tx *badger.Txn, key []byte) (*core.ChunkRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ChunkRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalChunkRecord(val)
		return unmarshalErr
	})
	return record, err
}
