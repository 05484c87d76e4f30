package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	docStatePrefix    = "docst"
	chunkRecordPrefix = "chkrec"
	vectorEntryPrefix = "vecrec"
)

// makeDocStateKey generates a key for a document state record. State keys
// are only ever matched whole, so the raw source key is fine here.
func makeDocStateKey(sourceKey string) []byte {
	return []byte(docStatePrefix + ":" + sourceKey)
}

// appendSourceKey appends the source key preceded by its length. Composite
// keys are prefix-scanned per document, and a bare separator would let one
// document's prefix cover another's ("a" covering "a:b"); the length field
// keeps the scans disjoint for any source key.
func appendSourceKey(buf []byte, sourceKey string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(sourceKey)))
	return append(buf, sourceKey...)
}

// makeChunkKey generates a composite key for a chunk record.
func makeChunkKey(sourceKey string, index int) []byte {
	buf := makeChunkPrefix(sourceKey)
	// Write in BigEndian order so lexicographic sort matches index order
	return binary.BigEndian.AppendUint64(buf, uint64(index))
}

// makeChunkPrefix generates the key prefix covering all chunks of a document.
func makeChunkPrefix(sourceKey string) []byte {
	buf := make([]byte, 0, len(chunkRecordPrefix)+1+4+len(sourceKey)+8)
	buf = append(buf, chunkRecordPrefix...)
	buf = append(buf, ':')
	return appendSourceKey(buf, sourceKey)
}

// makeVectorKey generates a composite key for a vector entry.
func makeVectorKey(sourceKey string, index int) []byte {
	buf := makeVectorPrefix(sourceKey)
	return binary.BigEndian.AppendUint64(buf, uint64(index))
}

// makeVectorPrefix generates the key prefix covering all vector entries of a
// document.
func makeVectorPrefix(sourceKey string) []byte {
	buf := make([]byte, 0, len(vectorEntryPrefix)+1+4+len(sourceKey)+8)
	buf = append(buf, vectorEntryPrefix...)
	buf = append(buf, ':')
	return appendSourceKey(buf, sourceKey)
}
