package evtstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SlimIO/Winelog/pkg/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// OS codes reported by the in-memory store. They match the Windows codes the
// real store surfaces for the same conditions.
const (
	codeFileNotFound    = 2
	codeAccessDenied    = 5
	codeInvalidHandle   = 6
	codeNoMoreItems     = 259
	codeTimeout         = 1460
	codeQuotaExceeded   = 1816
	codeInvalidQuery    = 15001
	codeChannelNotFound = 15007
)

// Event is one record held by MemStore. Properties are keyed by field path;
// a missing path renders as a null slot.
type Event struct {
	Properties map[string]Value
	Raw        []byte
}

type handleKind int

const (
	handleQuery handleKind = iota
	handleEvent
	handleContext
)

type memQuery struct {
	events []*Event
	pos    int
}

type memObject struct {
	kind  handleKind
	query *memQuery
	event *Event
	paths []string
}

// MemStore is an in-memory Store. It replays recorded events and keeps exact
// handle accounting so callers can verify that every handle is released.
// MemStore 是内存中的 Store，用于回放记录的事件并精确统计句柄。
type MemStore struct {
	// MaxOutstanding caps live handles when > 0.
	MaxOutstanding int

	mu       sync.Mutex
	channels map[string][]*Event
	files    map[string][]*Event
	denied   map[string]bool
	objects  map[Handle]*memObject
	next     Handle
	opened   int
	closed   int

	nextCalls   int
	renderCalls int
	failNext    map[int]error
	failRender  map[int]error
	timeouts    int
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		channels:   make(map[string][]*Event),
		files:      make(map[string][]*Event),
		denied:     make(map[string]bool),
		objects:    make(map[Handle]*memObject),
		failNext:   make(map[int]error),
		failRender: make(map[int]error),
	}
}

// AddChannel appends events to a channel in chronological order.
func (s *MemStore) AddChannel(name string, events ...Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.channels[name]
	for i := range events {
		ev := events[i]
		list = append(list, &ev)
	}
	s.channels[name] = list
}

// AddFile appends events to an exported log file at path.
func (s *MemStore) AddFile(path string, events ...Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.files[path]
	for i := range events {
		ev := events[i]
		list = append(list, &ev)
	}
	s.files[path] = list
}

// Channels lists the channel names in sorted order.
func (s *MemStore) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deny makes Open fail with ErrPermissionDenied for the channel or file path.
func (s *MemStore) Deny(name string) {
	s.mu.Lock()
	s.denied[name] = true
	s.mu.Unlock()
}

// FailNext makes the call-th Next call (1-based) return err.
func (s *MemStore) FailNext(call int, err error) {
	s.mu.Lock()
	s.failNext[call] = err
	s.mu.Unlock()
}

// FailRender makes the call-th Render call (1-based) return err.
func (s *MemStore) FailRender(call int, err error) {
	s.mu.Lock()
	s.failRender[call] = err
	s.mu.Unlock()
}

// TimeoutNext makes the next n Next calls report ErrTimeout.
func (s *MemStore) TimeoutNext(n int) {
	s.mu.Lock()
	s.timeouts = n
	s.mu.Unlock()
}

// Outstanding returns the number of handles not yet closed.
func (s *MemStore) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Opened returns the number of handles ever issued.
func (s *MemStore) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Closed returns the number of handles released.
func (s *MemStore) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// NextCalls returns how many times Next was called.
func (s *MemStore) NextCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextCalls
}

func (s *MemStore) issue(obj *memObject) (Handle, error) {
	if s.MaxOutstanding > 0 && len(s.objects) >= s.MaxOutstanding {
		return 0, &StoreError{Op: "allocate handle", Code: codeQuotaExceeded, Err: errors.ErrTooManyHandles}
	}
	s.next++
	s.objects[s.next] = obj
	s.opened++
	return s.next, nil
}

func (s *MemStore) lookup(h Handle, kind handleKind, op string) (*memObject, error) {
	obj, ok := s.objects[h]
	if !ok || obj.kind != kind {
		return nil, &StoreError{Op: op, Code: codeInvalidHandle, Err: errors.ErrInvalidHandle}
	}
	return obj, nil
}

// Open implements Store.
func (s *MemStore) Open(q Query) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		events []*Event
		ok     bool
	)
	switch q.Kind {
	case KindFile:
		events, ok = s.files[q.Path]
		if !ok {
			return 0, &StoreError{Op: "open query", Code: codeFileNotFound, Message: "The system cannot find the file specified.", Err: errors.NewChannelError(q.Path)}
		}
	default:
		events, ok = s.channels[q.Path]
		if !ok {
			return 0, &StoreError{Op: "open query", Code: codeChannelNotFound, Message: "The specified channel could not be found.", Err: errors.NewChannelError(q.Path)}
		}
	}
	if s.denied[q.Path] {
		return 0, &StoreError{Op: "open query", Code: codeAccessDenied, Message: "Access is denied.", Err: errors.ErrPermissionDenied}
	}

	program, err := compilePredicate(q.Predicate)
	if err != nil {
		return 0, &StoreError{Op: "open query", Code: codeInvalidQuery, Message: "The specified query is invalid.", Err: errors.NewQueryError(q.Predicate, err)}
	}

	selected := make([]*Event, 0, len(events))
	for _, ev := range events {
		match, err := evalPredicate(program, ev)
		if err != nil {
			return 0, &StoreError{Op: "open query", Code: codeInvalidQuery, Err: errors.NewQueryError(q.Predicate, err)}
		}
		if match {
			selected = append(selected, ev)
		}
	}
	if q.Direction == Reverse {
		for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
			selected[i], selected[j] = selected[j], selected[i]
		}
	}
	return s.issue(&memObject{kind: handleQuery, query: &memQuery{events: selected}})
}

// Next implements Store. The timeout is ignored: the store never blocks.
func (s *MemStore) Next(query Handle, buf []byte, max int, _ time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCalls++
	if err, ok := s.failNext[s.nextCalls]; ok {
		return 0, err
	}
	if s.timeouts > 0 {
		s.timeouts--
		return 0, &StoreError{Op: "next", Code: codeTimeout, Err: errors.ErrTimeout}
	}

	obj, err := s.lookup(query, handleQuery, "next")
	if err != nil {
		return 0, err
	}
	q := obj.query
	if q.pos >= len(q.events) {
		return 0, &StoreError{Op: "next", Code: codeNoMoreItems, Err: errors.ErrNoMoreItems}
	}
	end := q.pos + max
	if end > len(q.events) {
		end = len(q.events)
	}
	batch := q.events[q.pos:end]

	required := 0
	for _, ev := range batch {
		required += FrameSize(len(ev.Raw))
	}
	if len(buf) < required {
		return 0, &InsufficientBufferError{Required: required}
	}
	if s.MaxOutstanding > 0 && len(s.objects)+len(batch) > s.MaxOutstanding {
		return 0, &StoreError{Op: "next", Code: codeQuotaExceeded, Err: errors.ErrTooManyHandles}
	}

	off := 0
	for _, ev := range batch {
		h, err := s.issue(&memObject{kind: handleEvent, event: ev})
		if err != nil {
			return 0, err
		}
		off += PutFrame(buf[off:], h, ev.Raw)
	}
	q.pos = end
	return len(batch), nil
}

// CreateRenderContext implements Store.
func (s *MemStore) CreateRenderContext(paths []string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(paths) == 0 {
		return 0, &StoreError{Op: "create render context", Code: codeInvalidQuery, Err: fmt.Errorf("%w: empty path list", errors.ErrInvalidQuery)}
	}
	return s.issue(&memObject{kind: handleContext, paths: append([]string(nil), paths...)})
}

// Render implements Store.
func (s *MemStore) Render(renderCtx, event Handle, buf []byte) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderCalls++
	if err, ok := s.failRender[s.renderCalls]; ok {
		return 0, 0, err
	}
	ctxObj, err := s.lookup(renderCtx, handleContext, "render")
	if err != nil {
		return 0, 0, err
	}
	evObj, err := s.lookup(event, handleEvent, "render")
	if err != nil {
		return 0, 0, err
	}

	vals := make([]Value, len(ctxObj.paths))
	for i, p := range ctxObj.paths {
		vals[i] = evObj.event.Properties[p]
	}
	block := EncodeVariants(vals)
	if len(buf) < len(block) {
		return 0, 0, &InsufficientBufferError{Required: len(block)}
	}
	copy(buf, block)
	return len(block), len(vals), nil
}

// Close implements Store.
func (s *MemStore) Close(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[h]; ok {
		delete(s.objects, h)
		s.closed++
	}
	return nil
}

// predicateEnv exposes the common system properties to query predicates.
type predicateEnv struct {
	EventID   int
	Level     int
	Task      int
	Opcode    int
	RecordID  int
	ProcessID int
	ThreadID  int
	Provider  string
	Channel   string
	Computer  string
}

func compilePredicate(q string) (*vm.Program, error) {
	q = strings.TrimSpace(q)
	if q == "" || q == "*" {
		return nil, nil
	}
	return expr.Compile(q, expr.Env(predicateEnv{}), expr.AsBool())
}

func evalPredicate(program *vm.Program, ev *Event) (bool, error) {
	if program == nil {
		return true, nil
	}
	p := ev.Properties
	env := predicateEnv{
		EventID:   int(p[PathEventID].Num),
		Level:     int(p[PathLevel].Num),
		Task:      int(p[PathTask].Num),
		Opcode:    int(p[PathOpcode].Num),
		RecordID:  int(p[PathEventRecordID].Num),
		ProcessID: int(p[PathProcessID].Num),
		ThreadID:  int(p[PathThreadID].Num),
		Provider:  p[PathProviderName].Str,
		Channel:   p[PathChannel].Str,
		Computer:  p[PathComputer].Str,
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	match, _ := out.(bool)
	return match, nil
}
