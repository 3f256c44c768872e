package errors

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrChannelNotFound", ErrChannelNotFound, "channel not found"},
		{"ErrInvalidQuery", ErrInvalidQuery, "invalid query"},
		{"ErrPermissionDenied", ErrPermissionDenied, "permission denied"},
		{"ErrNoMoreItems", ErrNoMoreItems, "no more items"},
		{"ErrTooManyHandles", ErrTooManyHandles, "too many outstanding handles"},
		{"ErrInvalidHandle", ErrInvalidHandle, "invalid handle"},
		{"ErrBufferLimit", ErrBufferLimit, "buffer limit exceeded"},
		{"ErrBufferUnstable", ErrBufferUnstable, "buffer requirement changed on retry"},
		{"ErrDecodeFailed", ErrDecodeFailed, "event decode failed"},
		{"ErrVariantType", ErrVariantType, "unexpected variant type"},
		{"ErrMalformedBlock", ErrMalformedBlock, "malformed variant block"},
		{"ErrInvalidFilePath", ErrInvalidFilePath, "invalid file path"},
		{"ErrFileNotFound", ErrFileNotFound, "file not found"},
		{"ErrConfigNotFound", ErrConfigNotFound, "config not found"},
		{"ErrConfigInvalid", ErrConfigInvalid, "invalid configuration"},
		{"ErrStoreUnavailable", ErrStoreUnavailable, "event store unavailable"},
		{"ErrTimeout", ErrTimeout, "operation timeout"},
		{"ErrCanceled", ErrCanceled, "operation canceled"},
		{"ErrNotImplemented", ErrNotImplemented, "not implemented"},
	}

	for _, tc := range sentinelErrors {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err == nil {
				t.Errorf("%s is nil", tc.name)
				return
			}
			if tc.err.Error() != tc.msg {
				t.Errorf("%s: got %q, want %q", tc.name, tc.err.Error(), tc.msg)
			}
		})
	}
}

func TestNewChannelError(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		want    string
	}{
		{
			name:    "classic log",
			channel: "Application",
			want:    "channel not found: Application",
		},
		{
			name:    "operational channel",
			channel: "Microsoft-Windows-Sysmon/Operational",
			want:    "channel not found: Microsoft-Windows-Sysmon/Operational",
		},
		{
			name:    "empty name",
			channel: "",
			want:    "channel not found: ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NewChannelError(tc.channel)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tc.want {
				t.Errorf("got %q, want %q", err.Error(), tc.want)
			}
			if !errors.Is(err, ErrChannelNotFound) {
				t.Errorf("error should wrap ErrChannelNotFound")
			}
		})
	}
}

func TestNewQueryError(t *testing.T) {
	err := NewQueryError("EventID ==", errors.New("unexpected end"))
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("error should wrap ErrInvalidQuery")
	}
	want := `invalid query: "EventID ==": unexpected end`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestNewVariantTypeError(t *testing.T) {
	err := NewVariantTypeError("Computer", 8, 1)
	if !errors.Is(err, ErrVariantType) {
		t.Fatalf("error should wrap ErrVariantType")
	}
	want := "unexpected variant type: field=Computer type=8 want=1"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestNewFileError(t *testing.T) {
	err := NewFileError("/tmp/missing.jsonl", errors.New("no such file"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("error should wrap ErrFileNotFound")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("reader.batch_size", 0)
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("error should wrap ErrConfigInvalid")
	}
	want := "invalid configuration: field=reader.batch_size value=0"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIsAs(t *testing.T) {
	err := NewChannelError("System")
	if !Is(err, ErrChannelNotFound) {
		t.Errorf("Is should see through wrapping")
	}
	var target interface{ Unwrap() error }
	if !As(err, &target) {
		t.Errorf("As should find the wrapping error")
	}
	if New("x").Error() != "x" {
		t.Errorf("New should keep its text")
	}
}
