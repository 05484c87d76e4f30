package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docflow/storage"
)

// VectorIndex implements storage.VectorIndex for BadgerDB. Entries are flat
// records scanned linearly on search; at the corpus sizes docflow targets an
// exhaustive scan outperforms the bookkeeping of an approximate index.
type VectorIndex struct {
	backend *Backend
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a new VectorIndex.
func NewVectorIndex(backend *Backend) storage.VectorIndex {
	return &VectorIndex{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (v *VectorIndex) Close() error {
	return nil
}

// Upsert writes or overwrites an entry. Idempotent per (sourceKey, index).
func (v *VectorIndex) Upsert(ctx context.Context, entry *storage.VectorEntry) error {
	return v.backend.WithTx(func(tx *badger.Txn) error {
		key := makeVectorKey(entry.SourceKey, entry.Index)
		if err := tx.Set(key, storage.MarshalVectorEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes every entry belonging to the document.
func (v *VectorIndex) Delete(ctx context.Context, sourceKey string) error {
	prefix := makeVectorPrefix(sourceKey)
	return v.backend.WithTx(func(tx *badger.Txn) error {
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

// Search returns entries with similarity >= minSimilarity, ordered by score
// descending, up to limit results. Vectors are expected to be normalized, so
// the dot product is the cosine similarity.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.VectorMatch, error) {
	var results []*storage.VectorMatch

	err := v.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorEntryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *storage.VectorEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalVectorEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry == nil || len(entry.Vector) == 0 {
				continue
			}

			similarity := dotProduct(vector, entry.Vector)
			if similarity >= minSimilarity {
				results = append(results, &storage.VectorMatch{
					Entry: entry,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *storage.VectorMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
