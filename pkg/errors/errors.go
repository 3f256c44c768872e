package errors

import (
	"errors"
	"fmt"
)

var (
	ErrChannelNotFound  = errors.New("channel not found")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoMoreItems      = errors.New("no more items")
	ErrTooManyHandles   = errors.New("too many outstanding handles")
	ErrInvalidHandle    = errors.New("invalid handle")
	ErrBufferLimit      = errors.New("buffer limit exceeded")
	ErrBufferUnstable   = errors.New("buffer requirement changed on retry")
	ErrDecodeFailed     = errors.New("event decode failed")
	ErrVariantType      = errors.New("unexpected variant type")
	ErrMalformedBlock   = errors.New("malformed variant block")
	ErrInvalidFilePath  = errors.New("invalid file path")
	ErrFileNotFound     = errors.New("file not found")
	ErrConfigNotFound   = errors.New("config not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("event store unavailable")
	ErrTimeout          = errors.New("operation timeout")
	ErrCanceled         = errors.New("operation canceled")
	ErrNotImplemented   = errors.New("not implemented")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error with the given text.
func New(text string) error { return errors.New(text) }

func NewChannelError(name string) error {
	return fmt.Errorf("%w: %s", ErrChannelNotFound, name)
}

func NewQueryError(query string, reason error) error {
	return fmt.Errorf("%w: %q: %v", ErrInvalidQuery, query, reason)
}

func NewVariantTypeError(field string, got, want uint32) error {
	return fmt.Errorf("%w: field=%s type=%d want=%d", ErrVariantType, field, got, want)
}

func NewFileError(path string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, reason)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}
