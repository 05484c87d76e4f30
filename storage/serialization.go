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


package storage

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docflow/core"
)

// MarshalChunkRecord serializes a ChunkRecord to bytes.
func MarshalChunkRecord(record *core.ChunkRecord) []byte {
	buf := make([]byte, core.ChunkRecordMUS.Size(*record))
	core.ChunkRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*core.ChunkRecord, error) {
	record, _, err := core.ChunkRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalDocumentState serializes a DocumentState to bytes.
func MarshalDocumentState(state *core.DocumentState) []byte {
	buf := make([]byte, core.DocumentStateMUS.Size(*state))
	core.DocumentStateMUS.Marshal(*state, buf)
	return buf
}

// UnmarshalDocumentState deserializes a DocumentState from bytes.
func UnmarshalDocumentState(data []byte) (*core.DocumentState, error) {
	state, _, err := core.DocumentStateMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// MarshalVectorEntry serializes a VectorEntry to bytes.
func MarshalVectorEntry(entry *VectorEntry) []byte {
	size := ord.String.Size(entry.ID) +
		core.Float32SliceMUS.Size(entry.Vector) +
		ord.String.Size(entry.SourceKey) +
		varint.Int.Size(entry.Index)
	buf := make([]byte, size)
	n := ord.String.Marshal(entry.ID, buf)
	n += core.Float32SliceMUS.Marshal(entry.Vector, buf[n:])
	n += ord.String.Marshal(entry.SourceKey, buf[n:])
	varint.Int.Marshal(entry.Index, buf[n:])
	return buf
}

// UnmarshalVectorEntry deserializes a VectorEntry from bytes.
func UnmarshalVectorEntry(data []byte) (*VectorEntry, error) {
	var (
		entry VectorEntry
		n, n1 int
		err   error
	)
	if entry.ID, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, err
	}
	if entry.Vector, n1, err = core.Float32SliceMUS.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	n += n1
	if entry.SourceKey, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	n += n1
	if entry.Index, _, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, err
	}
	return &entry, nil
}
