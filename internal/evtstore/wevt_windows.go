//go:build windows

package evtstore

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/SlimIO/Winelog/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	modwevtapi = windows.NewLazySystemDLL("wevtapi.dll")

	procEvtQuery               = modwevtapi.NewProc("EvtQuery")
	procEvtNext                = modwevtapi.NewProc("EvtNext")
	procEvtCreateRenderContext = modwevtapi.NewProc("EvtCreateRenderContext")
	procEvtRender              = modwevtapi.NewProc("EvtRender")
	procEvtClose               = modwevtapi.NewProc("EvtClose")
)

const (
	evtQueryChannelPath      = 0x1
	evtQueryFilePath         = 0x2
	evtQueryForwardDirection = 0x100
	evtQueryReverseDirection = 0x200

	evtRenderContextValues = 0
	evtRenderEventValues   = 0

	evtInfinite = 0xFFFFFFFF
)

// wevtapi specific codes not covered by x/sys/windows.
const (
	errEvtInvalidQuery    windows.Errno = 15001
	errEvtChannelNotFound windows.Errno = 15007
	errTimeout            windows.Errno = 1460
)

// WinStore is the Store backed by the Windows Event Log service (wevtapi.dll).
// WinStore 是基于 Windows 事件日志服务 (wevtapi.dll) 的 Store。
type WinStore struct{}

// NewWinStore loads wevtapi.dll.
func NewWinStore() (*WinStore, error) {
	if err := modwevtapi.Load(); err != nil {
		return nil, &StoreError{Op: "load wevtapi.dll", Message: err.Error(), Err: errors.ErrStoreUnavailable}
	}
	return &WinStore{}, nil
}

func winError(op string, err error) error {
	errno, ok := err.(windows.Errno)
	if !ok {
		return &StoreError{Op: op, Err: err}
	}
	se := &StoreError{Op: op, Code: uint32(errno), Message: errno.Error()}
	switch errno {
	case errEvtChannelNotFound, windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		se.Err = errors.ErrChannelNotFound
	case errEvtInvalidQuery:
		se.Err = errors.ErrInvalidQuery
	case windows.ERROR_ACCESS_DENIED:
		se.Err = errors.ErrPermissionDenied
	case windows.ERROR_NO_MORE_ITEMS:
		se.Err = errors.ErrNoMoreItems
	case errTimeout:
		se.Err = errors.ErrTimeout
	case windows.ERROR_INVALID_HANDLE:
		se.Err = errors.ErrInvalidHandle
	default:
		se.Err = errno
	}
	return se
}

// Open implements Store.
func (s *WinStore) Open(q Query) (Handle, error) {
	path, err := windows.UTF16PtrFromString(q.Path)
	if err != nil {
		return 0, &StoreError{Op: "open query", Err: fmt.Errorf("%w: %v", errors.ErrInvalidFilePath, err)}
	}
	predicate := q.Predicate
	if predicate == "" {
		predicate = "*"
	}
	query, err := windows.UTF16PtrFromString(predicate)
	if err != nil {
		return 0, &StoreError{Op: "open query", Err: errors.NewQueryError(predicate, err)}
	}

	flags := uintptr(evtQueryChannelPath)
	if q.Kind == KindFile {
		flags = evtQueryFilePath
	}
	if q.Direction == Forward {
		flags |= evtQueryForwardDirection
	} else {
		flags |= evtQueryReverseDirection
	}

	r, _, e := procEvtQuery.Call(0, uintptr(unsafe.Pointer(path)), uintptr(unsafe.Pointer(query)), flags)
	if r == 0 {
		return 0, winError("open query", e)
	}
	return Handle(r), nil
}

// Next implements Store. Frames carry no payload: wevtapi hands out handles only.
func (s *WinStore) Next(query Handle, buf []byte, max int, timeout time.Duration) (int, error) {
	if max <= 0 {
		return 0, &StoreError{Op: "next", Err: fmt.Errorf("invalid batch size %d", max)}
	}
	required := max * FrameHeaderSize
	if len(buf) < required {
		return 0, &InsufficientBufferError{Required: required}
	}

	wait := uintptr(evtInfinite)
	if timeout >= 0 {
		wait = uintptr(timeout.Milliseconds())
	}
	handles := make([]uintptr, max)
	var returned uint32
	r, _, e := procEvtNext.Call(
		uintptr(query),
		uintptr(max),
		uintptr(unsafe.Pointer(&handles[0])),
		wait,
		0,
		uintptr(unsafe.Pointer(&returned)),
	)
	if r == 0 {
		return 0, winError("next", e)
	}

	off := 0
	for i := 0; i < int(returned); i++ {
		off += PutFrame(buf[off:], Handle(handles[i]), nil)
	}
	return int(returned), nil
}

// CreateRenderContext implements Store.
func (s *WinStore) CreateRenderContext(paths []string) (Handle, error) {
	if len(paths) == 0 {
		return 0, &StoreError{Op: "create render context", Err: fmt.Errorf("%w: empty path list", errors.ErrInvalidQuery)}
	}
	ptrs := make([]*uint16, len(paths))
	for i, p := range paths {
		u, err := windows.UTF16PtrFromString(p)
		if err != nil {
			return 0, &StoreError{Op: "create render context", Err: errors.NewQueryError(p, err)}
		}
		ptrs[i] = u
	}
	r, _, e := procEvtCreateRenderContext.Call(uintptr(len(ptrs)), uintptr(unsafe.Pointer(&ptrs[0])), evtRenderContextValues)
	runtime.KeepAlive(ptrs)
	if r == 0 {
		return 0, winError("create render context", e)
	}
	return Handle(r), nil
}

// Render implements Store. EvtRender fills buf with EVT_VARIANT slots whose
// pointers address buf itself; they are rewritten as offsets before returning.
func (s *WinStore) Render(renderCtx, event Handle, buf []byte) (int, int, error) {
	var (
		used  uint32
		count uint32
		base  uintptr
	)
	if len(buf) > 0 {
		base = uintptr(unsafe.Pointer(&buf[0]))
	}
	r, _, e := procEvtRender.Call(
		uintptr(renderCtx),
		uintptr(event),
		evtRenderEventValues,
		uintptr(len(buf)),
		base,
		uintptr(unsafe.Pointer(&used)),
		uintptr(unsafe.Pointer(&count)),
	)
	if r == 0 {
		if e == windows.ERROR_INSUFFICIENT_BUFFER {
			return 0, 0, &InsufficientBufferError{Required: int(used)}
		}
		return 0, 0, winError("render", e)
	}
	if err := relocate(buf[:used], int(count), base); err != nil {
		return 0, 0, &StoreError{Op: "render", Err: err}
	}
	return int(used), int(count), nil
}

// relocate turns the absolute pointers of pointer-typed slots into offsets.
func relocate(block []byte, count int, base uintptr) error {
	if len(block) < count*SlotSize {
		return fmt.Errorf("%w: %d slots in %d bytes", errors.ErrMalformedBlock, count, len(block))
	}
	for i := 0; i < count; i++ {
		slot := block[i*SlotSize : (i+1)*SlotSize]
		typ := VarType(binary.LittleEndian.Uint32(slot[12:16]))
		if !typ.IsPointer() {
			continue
		}
		ptr := uintptr(binary.LittleEndian.Uint64(slot[0:8]))
		if ptr == 0 {
			continue
		}
		if ptr < base || ptr-base >= uintptr(len(block)) {
			return fmt.Errorf("%w: slot %d points outside the render buffer", errors.ErrMalformedBlock, i)
		}
		binary.LittleEndian.PutUint64(slot[0:8], uint64(ptr-base))
	}
	return nil
}

// Close implements Store.
func (s *WinStore) Close(h Handle) error {
	if h == 0 {
		return nil
	}
	r, _, e := procEvtClose.Call(uintptr(h))
	if r == 0 && e != windows.ERROR_INVALID_HANDLE {
		return winError("close", e)
	}
	return nil
}

// OpenDefault returns the host event store.
func OpenDefault() (Store, error) {
	return NewWinStore()
}
