package eventlog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/pkg/errors"
)

// FileExtension is appended to logical file target names.
const FileExtension = ".evtx"

// QueryTarget identifies what a session reads. It is copied into the session
// on open and never changes afterwards.
// QueryTarget 标识会话读取的通道或文件。
type QueryTarget struct {
	// Name is a channel name, a logical file name or a file path.
	Name string
	Kind evtstore.QueryKind
	// Query is passed to the store untouched; empty selects every record.
	Query     string
	Direction evtstore.Direction
}

// ChannelTarget reads a channel in the default (reverse) direction.
func ChannelTarget(name string) QueryTarget {
	return QueryTarget{Name: name, Kind: evtstore.KindChannel}
}

// FileTarget reads an exported log file in the default (reverse) direction.
func FileTarget(name string) QueryTarget {
	return QueryTarget{Name: name, Kind: evtstore.KindFile}
}

func (t QueryTarget) String() string {
	return t.Kind.String() + ":" + t.Name
}

// ResolvePath returns the store path for t. Channel names pass through.
// A logical file name (no separators) becomes <logDir>/<name>.evtx; a name
// with a separator is taken as a path and used as given.
// ResolvePath 返回目标在存储中的路径。
func ResolvePath(t QueryTarget, logDir string) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("%w: empty target name", errors.ErrInvalidFilePath)
	}
	if t.Kind != evtstore.KindFile {
		return name, nil
	}
	if strings.ContainsAny(name, `/\`) {
		return filepath.Clean(name), nil
	}
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidFilePath, name)
	}
	if !strings.EqualFold(filepath.Ext(name), FileExtension) {
		name += FileExtension
	}
	return filepath.Join(logDir, name), nil
}

// Session owns the store handle of one open query.
// Session 持有一个已打开查询的存储句柄。
type Session struct {
	store  evtstore.Store
	target QueryTarget
	path   string
	handle evtstore.Handle
}

// OpenSession resolves target and opens it on store. Every failure is an
// *OpenError and leaves no handle behind.
func OpenSession(store evtstore.Store, target QueryTarget, logDir string) (*Session, error) {
	path, err := ResolvePath(target, logDir)
	if err != nil {
		return nil, newOpenError(target.String(), err)
	}
	h, err := store.Open(evtstore.Query{
		Path:      path,
		Predicate: target.Query,
		Kind:      target.Kind,
		Direction: target.Direction,
	})
	if err != nil {
		return nil, newOpenError(target.String(), err)
	}
	return &Session{store: store, target: target, path: path, handle: h}, nil
}

// Target returns the target the session was opened with.
func (s *Session) Target() QueryTarget { return s.target }

// Path returns the resolved store path.
func (s *Session) Path() string { return s.path }

// Handle returns the query handle, or 0 once closed.
func (s *Session) Handle() evtstore.Handle {
	if s == nil {
		return 0
	}
	return s.handle
}

// Close releases the query handle. It is safe on a nil or closed session.
func (s *Session) Close() error {
	if s == nil || s.handle == 0 {
		return nil
	}
	h := s.handle
	s.handle = 0
	return s.store.Close(h)
}
