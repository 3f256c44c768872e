package eventlog

import (
	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/internal/metrics"
	"github.com/SlimIO/Winelog/pkg/errors"
)

// growRetry runs op against *buf. When op reports *InsufficientBufferError,
// *buf is replaced by a buffer of exactly the reported size and op runs once
// more. A requirement above limit, or a second report, is a *BufferError.
// The buffer is never shrunk.
// growRetry 在缓冲区不足时按报告大小重新分配并重试一次。
func growRetry[T any](name string, buf *[]byte, limit int, op func([]byte) (T, error)) (T, error) {
	var zero T

	out, err := op(*buf)
	var ibe *evtstore.InsufficientBufferError
	if !errors.As(err, &ibe) {
		return out, err
	}
	if limit > 0 && ibe.Required > limit {
		return zero, &BufferError{Buffer: name, Required: ibe.Required, Limit: limit, Err: errors.ErrBufferLimit}
	}
	if ibe.Required <= len(*buf) {
		// The store asked for no more than it already had.
		return zero, &BufferError{Buffer: name, Required: ibe.Required, Limit: limit, Err: errors.ErrBufferUnstable}
	}

	*buf = make([]byte, ibe.Required)
	metrics.BufferGrowthsTotal.WithLabelValues(name).Inc()

	out, err = op(*buf)
	if errors.As(err, &ibe) {
		return zero, &BufferError{Buffer: name, Required: ibe.Required, Limit: limit, Err: errors.ErrBufferUnstable}
	}
	return out, err
}
