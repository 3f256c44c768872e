package eventlog

import (
	"fmt"

	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/pkg/errors"
)

// OpenErrorKind classifies why a session could not start.
type OpenErrorKind int

const (
	OpenOther OpenErrorKind = iota
	OpenChannelNotFound
	OpenInvalidQuery
	OpenInsufficientPrivilege
)

func (k OpenErrorKind) String() string {
	switch k {
	case OpenChannelNotFound:
		return "channel_not_found"
	case OpenInvalidQuery:
		return "invalid_query"
	case OpenInsufficientPrivilege:
		return "insufficient_privilege"
	default:
		return "other"
	}
}

// OpenError reports a session that never reached streaming. Code and Message
// carry the OS code and diagnostic text when the store provided them.
// OpenError 表示会话未能开始流式读取。
type OpenError struct {
	Kind    OpenErrorKind
	Target  string
	Code    uint32
	Message string
	Err     error
}

func (e *OpenError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("open %s: %v (code %d: %s)", e.Target, e.Err, e.Code, e.Message)
	}
	return fmt.Sprintf("open %s: %v", e.Target, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

func newOpenError(target string, err error) *OpenError {
	oe := &OpenError{Kind: OpenOther, Target: target, Err: err}
	switch {
	case errors.Is(err, errors.ErrChannelNotFound), errors.Is(err, errors.ErrFileNotFound):
		oe.Kind = OpenChannelNotFound
	case errors.Is(err, errors.ErrInvalidQuery):
		oe.Kind = OpenInvalidQuery
	case errors.Is(err, errors.ErrPermissionDenied):
		oe.Kind = OpenInsufficientPrivilege
	}
	var se *evtstore.StoreError
	if errors.As(err, &se) {
		oe.Code = se.Code
		oe.Message = se.Message
	}
	return oe
}

// DecodeError reports a record that could not be rendered or decoded.
// DecodeError 表示某条记录无法渲染或解码。
type DecodeError struct {
	Record evtstore.Handle
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode record %d field %s: %v", e.Record, e.Field, e.Err)
	}
	return fmt.Sprintf("decode record %d: %v", e.Record, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// BufferError reports a buffer that could not be grown to what the store
// asked for. It is always fatal for the session.
type BufferError struct {
	Buffer   string
	Required int
	Limit    int
	Err      error
}

func (e *BufferError) Error() string {
	return fmt.Sprintf("%s buffer: %v (required %d, limit %d)", e.Buffer, e.Err, e.Required, e.Limit)
}

func (e *BufferError) Unwrap() error { return e.Err }
