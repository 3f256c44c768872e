package eventlog

import (
	"fmt"
	"io"
	"time"

	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/internal/metrics"
	"github.com/SlimIO/Winelog/pkg/errors"
)

// RawRecord is one record of a batch. Payload is a copy of the store's raw
// record bytes and stays valid after the handle is released.
type RawRecord struct {
	Handle  evtstore.Handle
	Payload []byte
}

// RecordReader fetches batches of record handles for a session. It keeps one
// buffer across batches, sized on first use and grown only on request.
// RecordReader 为会话分批获取记录句柄，并在批次间复用同一缓冲区。
type RecordReader struct {
	store     evtstore.Store
	buf       []byte
	initial   int
	limit     int
	batchSize int
	timeout   time.Duration
}

// NewRecordReader creates a reader. The buffer is allocated on the first
// NextBatch call.
func NewRecordReader(store evtstore.Store, opts Options) *RecordReader {
	opts = opts.withDefaults()
	return &RecordReader{
		store:     store,
		initial:   opts.BufferSize,
		limit:     opts.MaxBufferSize,
		batchSize: opts.BatchSize,
		timeout:   opts.BatchTimeout,
	}
}

// BufferSize returns the current buffer capacity, 0 before the first fetch.
func (r *RecordReader) BufferSize() int { return len(r.buf) }

// NextBatch returns up to BatchSize records. End of stream is io.EOF. An
// expired wait is returned as an error matching errors.ErrTimeout and is safe
// to retry. Each returned handle must be closed exactly once by the caller.
// NextBatch 返回下一批记录；流结束时返回 io.EOF。
func (r *RecordReader) NextBatch(s *Session) ([]RawRecord, error) {
	if r.buf == nil {
		r.buf = make([]byte, r.initial)
	}
	n, err := growRetry("record", &r.buf, r.limit, func(buf []byte) (int, error) {
		return r.store.Next(s.Handle(), buf, r.batchSize, r.timeout)
	})
	switch {
	case errors.Is(err, errors.ErrNoMoreItems):
		return nil, io.EOF
	case err != nil:
		return nil, err
	}

	batch := make([]RawRecord, 0, n)
	off := 0
	for i := 0; i < n; i++ {
		h, payload, size, err := evtstore.ReadFrame(r.buf[off:])
		if err != nil {
			releaseRecords(r.store, batch)
			return nil, fmt.Errorf("%w: record %d of %d: %v", errors.ErrMalformedBlock, i+1, n, err)
		}
		batch = append(batch, RawRecord{Handle: h, Payload: append([]byte(nil), payload...)})
		off += size
	}
	metrics.BatchRecords.Observe(float64(n))
	return batch, nil
}

func releaseRecords(store evtstore.Store, records []RawRecord) {
	for _, rec := range records {
		_ = store.Close(rec.Handle)
	}
}
