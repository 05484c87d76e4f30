package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written mus serializers for the persisted record types. The type set
// is small enough that a generator would be more machinery than payoff.

var (
	// Float32SliceMUS serializes embedding vectors.
	Float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)

	// StringSliceMUS serializes tag lists.
	StringSliceMUS = ord.NewSliceSer[string](ord.String)

	// DocumentMetaMUS is a DocumentMeta serializer.
	DocumentMetaMUS = documentMetaMUS{}

	// MetaPtrMUS serializes the optional Meta pointer on DocumentState.
	MetaPtrMUS = ord.NewPtrSer[DocumentMeta](DocumentMetaMUS)

	// ProcessingErrorMUS is a ProcessingError serializer.
	ProcessingErrorMUS = processingErrorMUS{}

	// ErrorSliceMUS serializes the error history.
	ErrorSliceMUS = ord.NewSliceSer[ProcessingError](ProcessingErrorMUS)

	// ChunkRecordMUS is a ChunkRecord serializer.
	ChunkRecordMUS = chunkRecordMUS{}

	// DocumentStateMUS is a DocumentState serializer.
	DocumentStateMUS = documentStateMUS{}
)

// Timestamps are persisted as UnixMicro. Zero time is stored as 0 so that
// unset CompletedAt/FailedAt fields survive a round trip.

func marshalTime(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

type documentMetaMUS struct{}

func (documentMetaMUS) Marshal(v DocumentMeta, bs []byte) (n int) {
	n = ord.String.Marshal(v.Project, bs)
	n += ord.String.Marshal(v.Company, bs[n:])
	n += ord.String.Marshal(v.SourceKey, bs[n:])
	n += ord.String.Marshal(v.ContentHash, bs[n:])
	return n
}

func (documentMetaMUS) Unmarshal(bs []byte) (v DocumentMeta, n int, err error) {
	var n1 int
	if v.Project, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Company, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SourceKey, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.ContentHash, n1, err = ord.String.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (documentMetaMUS) Size(v DocumentMeta) int {
	return ord.String.Size(v.Project) +
		ord.String.Size(v.Company) +
		ord.String.Size(v.SourceKey) +
		ord.String.Size(v.ContentHash)
}

func (s documentMetaMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type processingErrorMUS struct{}

func (processingErrorMUS) Marshal(v ProcessingError, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Step), bs)
	n += ord.String.Marshal(v.Message, bs[n:])
	n += marshalTime(v.Timestamp, bs[n:])
	n += ord.Bool.Marshal(v.Retryable, bs[n:])
	return n
}

func (processingErrorMUS) Unmarshal(bs []byte) (v ProcessingError, n int, err error) {
	var (
		n1   int
		step string
	)
	if step, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.Step = StepName(step)
	if v.Message, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Timestamp, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.Retryable, n1, err = ord.Bool.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (processingErrorMUS) Size(v ProcessingError) int {
	return ord.String.Size(string(v.Step)) +
		ord.String.Size(v.Message) +
		sizeTime(v.Timestamp) +
		ord.Bool.Size(v.Retryable)
}

func (s processingErrorMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type chunkRecordMUS struct{}

func (chunkRecordMUS) Marshal(v ChunkRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.SourceKey, bs)
	n += varint.Int.Marshal(v.Index, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int.Marshal(v.TokenCount, bs[n:])
	n += Float32SliceMUS.Marshal(v.Embedding, bs[n:])
	n += StringSliceMUS.Marshal(v.Tags, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	return n
}

func (chunkRecordMUS) Unmarshal(bs []byte) (v ChunkRecord, n int, err error) {
	var (
		n1     int
		status int
	)
	if v.SourceKey, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Embedding, n1, err = Float32SliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Tags, n1, err = StringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	v.Status = ChunkStatus(status)
	return v, n + n1, err
}

func (chunkRecordMUS) Size(v ChunkRecord) int {
	return ord.String.Size(v.SourceKey) +
		varint.Int.Size(v.Index) +
		ord.String.Size(v.Text) +
		varint.Int.Size(v.TokenCount) +
		Float32SliceMUS.Size(v.Embedding) +
		StringSliceMUS.Size(v.Tags) +
		varint.Int.Size(int(v.Status))
}

func (s chunkRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type documentStateMUS struct{}

func (documentStateMUS) Marshal(v DocumentState, bs []byte) (n int) {
	n = ord.String.Marshal(v.SourceKey, bs)
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += ord.String.Marshal(string(v.CurrentStep), bs[n:])
	n += MetaPtrMUS.Marshal(v.Meta, bs[n:])
	n += StringSliceMUS.Marshal(v.DocumentTags, bs[n:])
	n += varint.Int.Marshal(v.TotalChunks, bs[n:])
	n += varint.Int.Marshal(v.ProcessedChunks, bs[n:])
	n += ErrorSliceMUS.Marshal(v.Errors, bs[n:])
	n += varint.Int.Marshal(v.RetryCount, bs[n:])
	n += ord.String.Marshal(v.DocumentID, bs[n:])
	n += marshalTime(v.StartedAt, bs[n:])
	n += marshalTime(v.CompletedAt, bs[n:])
	n += marshalTime(v.FailedAt, bs[n:])
	return n
}

func (documentStateMUS) Unmarshal(bs []byte) (v DocumentState, n int, err error) {
	var (
		n1     int
		status int
		step   string
	)
	if v.SourceKey, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if status, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.Status = DocStatus(status)
	if step, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.CurrentStep = StepName(step)
	if v.Meta, n1, err = MetaPtrMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.DocumentTags, n1, err = StringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.TotalChunks, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ProcessedChunks, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Errors, n1, err = ErrorSliceMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.RetryCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.DocumentID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.StartedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CompletedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.FailedAt, n1, err = unmarshalTime(bs[n:])
	return v, n + n1, err
}

func (documentStateMUS) Size(v DocumentState) int {
	return ord.String.Size(v.SourceKey) +
		varint.Int.Size(int(v.Status)) +
		ord.String.Size(string(v.CurrentStep)) +
		MetaPtrMUS.Size(v.Meta) +
		StringSliceMUS.Size(v.DocumentTags) +
		varint.Int.Size(v.TotalChunks) +
		varint.Int.Size(v.ProcessedChunks) +
		ErrorSliceMUS.Size(v.Errors) +
		varint.Int.Size(v.RetryCount) +
		ord.String.Size(v.DocumentID) +
		sizeTime(v.StartedAt) +
		sizeTime(v.CompletedAt) +
		sizeTime(v.FailedAt)
}

func (s documentStateMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
