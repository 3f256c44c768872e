// Package evtstore defines the boundary with the host's structured event store.
// Package evtstore 定义与宿主结构化事件存储之间的边界。
//
// A Store answers four requests: open a query, enumerate record handles in
// batches, render a record against a compiled list of field paths, and close
// any handle it returned. Rendered values come back as a variant block whose
// layout is shared by every Store implementation (see variant.go).
package evtstore

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Handle is an opaque reference to a query, record or render context.
// The zero Handle is never valid.
type Handle uint64

// QueryKind tells the store how to interpret Query.Path.
type QueryKind int

const (
	// KindChannel queries a named channel such as "System".
	KindChannel QueryKind = iota
	// KindFile queries an exported log file by path.
	KindFile
)

func (k QueryKind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Direction is the read order of a query. The zero value is Reverse
// (most recent first).
type Direction int

const (
	Reverse Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "reverse"
}

// ParseDirection accepts "forward" or "reverse"; an empty string is Reverse.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "reverse":
		return Reverse, nil
	case "forward":
		return Forward, nil
	default:
		return Reverse, fmt.Errorf("invalid direction %q (must be forward or reverse)", s)
	}
}

// Query is the resolved request handed to Store.Open.
type Query struct {
	Path      string
	Predicate string
	Kind      QueryKind
	Direction Direction
}

// Store is the external event store.
// Store 是外部事件存储。
type Store interface {
	// Open starts a query and returns its handle.
	Open(q Query) (Handle, error)

	// Next writes up to max record frames into buf and reports how many were
	// written. A batch that does not fit is not written at all; the store
	// returns *InsufficientBufferError carrying the exact size required.
	// End of stream is ErrNoMoreItems, an expired wait is ErrTimeout.
	Next(query Handle, buf []byte, max int, timeout time.Duration) (int, error)

	// CreateRenderContext compiles an ordered list of field paths.
	CreateRenderContext(paths []string) (Handle, error)

	// Render writes the variant block of event into buf and returns the bytes
	// used and the number of slots. Pointer-typed slots hold offsets into buf.
	Render(renderCtx, event Handle, buf []byte) (used int, count int, err error)

	// Close releases a handle. Closing an unknown or released handle is a no-op.
	Close(h Handle) error
}

// StoreError carries a store-level failure together with the OS code and the
// OS diagnostic text when they are known.
type StoreError struct {
	Op      string
	Code    uint32
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v (code %d: %s)", e.Op, e.Err, e.Code, e.Message)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: %v (code %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// InsufficientBufferError reports the buffer size a call needs.
type InsufficientBufferError struct {
	Required int
}

func (e *InsufficientBufferError) Error() string {
	return fmt.Sprintf("insufficient buffer: %d bytes required", e.Required)
}

// Record frame layout written by Next: handle u64 | payload length u32 | payload.
const FrameHeaderSize = 12

// FrameSize returns the encoded size of a frame carrying n payload bytes.
func FrameSize(n int) int { return FrameHeaderSize + n }

// PutFrame encodes one record frame at the start of buf and returns its size.
// The caller guarantees buf is large enough.
func PutFrame(buf []byte, h Handle, payload []byte) int {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(h))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(payload)))
	copy(buf[FrameHeaderSize:], payload)
	return FrameSize(len(payload))
}

// ReadFrame decodes the frame at the start of buf. The payload aliases buf.
func ReadFrame(buf []byte) (h Handle, payload []byte, size int, err error) {
	if len(buf) < FrameHeaderSize {
		return 0, nil, 0, fmt.Errorf("record frame truncated: %d bytes", len(buf))
	}
	h = Handle(binary.LittleEndian.Uint64(buf[0:8]))
	n := int(binary.LittleEndian.Uint32(buf[8:12]))
	if len(buf) < FrameHeaderSize+n {
		return 0, nil, 0, fmt.Errorf("record frame payload truncated: want %d bytes, have %d", n, len(buf)-FrameHeaderSize)
	}
	return h, buf[FrameHeaderSize : FrameHeaderSize+n], FrameSize(n), nil
}
