package eventlog

import (
	"fmt"
	"time"
)

// Defaults used when an Options field is zero.
const (
	DefaultBatchSize        = 10
	DefaultBufferSize       = 64 * 1024
	DefaultRenderBufferSize = 2 * 1024
	DefaultMaxBufferSize    = 16 * 1024 * 1024
	DefaultBatchTimeout     = time.Second
	DefaultLogDirectory     = `C:\Windows\System32\winevt\Logs`
)

// DecodePolicy decides what the pipeline does with a record that fails to
// decode.
type DecodePolicy int

const (
	// DecodeAbort fails the stream with the DecodeError.
	DecodeAbort DecodePolicy = iota
	// DecodeSkip releases the record, logs a warning and keeps streaming.
	DecodeSkip
)

func (p DecodePolicy) String() string {
	if p == DecodeSkip {
		return "skip"
	}
	return "abort"
}

// ParseDecodePolicy accepts "abort" or "skip"; an empty string is DecodeAbort.
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch s {
	case "", "abort":
		return DecodeAbort, nil
	case "skip":
		return DecodeSkip, nil
	default:
		return DecodeAbort, fmt.Errorf("invalid decode error policy %q (must be abort or skip)", s)
	}
}

// Options tunes an Engine.
// Options 调整引擎参数。
type Options struct {
	// BatchSize is the maximum number of records per fetch.
	BatchSize int
	// BufferSize is the initial record buffer size in bytes.
	BufferSize int
	// RenderBufferSize is the initial per-record render buffer size in bytes.
	RenderBufferSize int
	// MaxBufferSize caps buffer growth; negative disables the cap.
	MaxBufferSize int
	// BatchTimeout bounds each blocking fetch; negative waits forever.
	BatchTimeout time.Duration
	// LogDirectory resolves logical file targets.
	LogDirectory string
	DecodePolicy DecodePolicy
}

// DefaultOptions returns the options used by the CLI when no config is given.
func DefaultOptions() Options {
	return Options{
		BatchSize:        DefaultBatchSize,
		BufferSize:       DefaultBufferSize,
		RenderBufferSize: DefaultRenderBufferSize,
		MaxBufferSize:    DefaultMaxBufferSize,
		BatchTimeout:     DefaultBatchTimeout,
		LogDirectory:     DefaultLogDirectory,
		DecodePolicy:     DecodeAbort,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.RenderBufferSize <= 0 {
		o.RenderBufferSize = DefaultRenderBufferSize
	}
	if o.MaxBufferSize == 0 {
		o.MaxBufferSize = DefaultMaxBufferSize
	}
	if o.BatchTimeout == 0 {
		o.BatchTimeout = DefaultBatchTimeout
	}
	if o.LogDirectory == "" {
		o.LogDirectory = DefaultLogDirectory
	}
	return o
}
