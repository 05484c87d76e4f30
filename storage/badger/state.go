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


package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// StateStore implements storage.StateStore for BadgerDB.
type StateStore struct {
	backend *Backend
}

var _ storage.StateStore = (*StateStore)(nil)

// NewStateStore creates a new StateStore.
func NewStateStore(backend *Backend) storage.StateStore {
	return &StateStore{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (s *StateStore) Close() error {
	return nil
}

// Get retrieves the state for a document.
// Returns nil, nil if no state exists.
func (s *StateStore) Get(ctx context.Context, sourceKey string) (*core.DocumentState, error) {
	var state *core.DocumentState
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocStateKey(sourceKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalDocumentState(val)
			return unmarshalErr
		})
	}, false)
	return state, err
}

// Put writes the state, replacing any existing record.
func (s *StateStore) Put(ctx context.Context, state *core.DocumentState) error {
	if err := core.ValidateDocumentState(state); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocStateKey(state.SourceKey)
		if err := tx.Set(key, storage.MarshalDocumentState(state)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes the state record. Deleting a missing record is not an error.
func (s *StateStore) Delete(ctx context.Context, sourceKey string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeDocStateKey(sourceKey)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// List returns the states of all known documents.
func (s *StateStore) List(ctx context.Context) ([]*core.DocumentState, error) {
	var results []*core.DocumentState
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docStatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var state *core.DocumentState
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				state, unmarshalErr = storage.UnmarshalDocumentState(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			if state != nil {
				results = append(results, state)
			}
		}
		return nil
	}, false)
	return results, err
}
