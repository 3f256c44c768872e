package evtstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SlimIO/Winelog/pkg/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"
)

// maxFixtureLine bounds a single recorded event.
const maxFixtureLine = 1 << 20

// LoadFixture reads a recorded event archive into a new MemStore.
// Archives are JSON lines, one event per line; a ".zst" suffix means the
// file is zstd compressed.
// LoadFixture 将记录的事件归档读入新的 MemStore。
func LoadFixture(path string) (*MemStore, error) {
	safePath := filepath.Clean(path)
	f, err := os.Open(safePath) // #nosec G304 // path is sanitized with filepath.Clean
	if err != nil {
		return nil, errors.NewFileError(safePath, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(safePath, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream %s: %w", safePath, err)
		}
		defer dec.Close()
		r = dec
	}

	store := NewMemStore()
	if err := ReadFixture(r, store); err != nil {
		return nil, fmt.Errorf("%s: %w", safePath, err)
	}
	return store, nil
}

// ReadFixture parses JSON-lines events from r and appends them to store.
// An event with a "file" key is added to that exported log file, every other
// event to its "channel".
func ReadFixture(r io.Reader, store *MemStore) error {
	var p fastjson.Parser
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxFixtureLine)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := p.Parse(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		ev, err := fixtureEvent(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		ev.Raw = []byte(text)

		if file := string(v.GetStringBytes("file")); file != "" {
			store.AddFile(file, ev)
			continue
		}
		channel := string(v.GetStringBytes("channel"))
		if channel == "" {
			return fmt.Errorf("line %d: event has neither channel nor file", line)
		}
		store.AddChannel(channel, ev)
	}
	return sc.Err()
}

type fixtureField struct {
	key  string
	path string
	conv func(*fastjson.Value) (Value, error)
}

var fixtureFields = []fixtureField{
	{"provider", PathProviderName, fixtureString},
	{"provider_guid", PathProviderGUID, fixtureGUID},
	{"source_name", PathProviderSourceName, fixtureString},
	{"event_id", PathEventID, fixtureUint(16, uint16Value)},
	{"qualifiers", PathQualifiers, fixtureUint(16, uint16Value)},
	{"version", PathVersion, fixtureUint(8, byteValue)},
	{"level", PathLevel, fixtureUint(8, byteValue)},
	{"task", PathTask, fixtureUint(16, uint16Value)},
	{"opcode", PathOpcode, fixtureUint(8, byteValue)},
	{"keywords", PathKeywords, fixtureUint(64, HexInt64)},
	{"time_created", PathTimeCreated, fixtureTime},
	{"record_id", PathEventRecordID, fixtureUint(64, UInt64)},
	{"activity_id", PathActivityID, fixtureGUID},
	{"related_activity_id", PathRelatedActivityID, fixtureGUID},
	{"process_id", PathProcessID, fixtureUint(32, uint32Value)},
	{"thread_id", PathThreadID, fixtureUint(32, uint32Value)},
	{"channel", PathChannel, fixtureString},
	{"computer", PathComputer, fixtureString},
	{"user_sid", PathUserID, fixtureSID},
}

func fixtureEvent(v *fastjson.Value) (Event, error) {
	props := make(map[string]Value, len(fixtureFields))
	for _, f := range fixtureFields {
		fv := v.Get(f.key)
		if fv == nil || fv.Type() == fastjson.TypeNull {
			continue
		}
		val, err := f.conv(fv)
		if err != nil {
			return Event{}, fmt.Errorf("field %q: %w", f.key, err)
		}
		props[f.path] = val
	}
	return Event{Properties: props}, nil
}

// Narrowing adapters so fixtureUint can share one parser.
func byteValue(n uint64) Value { return Byte(uint8(n)) }
func uint16Value(n uint64) Value { return UInt16(uint16(n)) }
func uint32Value(n uint64) Value { return UInt32(uint32(n)) }

func fixtureString(v *fastjson.Value) (Value, error) {
	b, err := v.StringBytes()
	if err != nil {
		return Value{}, err
	}
	return String(string(b)), nil
}

func fixtureGUID(v *fastjson.Value) (Value, error) {
	b, err := v.StringBytes()
	if err != nil {
		return Value{}, err
	}
	g, err := ParseGUID(string(b))
	if err != nil {
		return Value{}, err
	}
	return GUIDBytes(g), nil
}

func fixtureSID(v *fastjson.Value) (Value, error) {
	b, err := v.StringBytes()
	if err != nil {
		return Value{}, err
	}
	sid, err := ParseSID(string(b))
	if err != nil {
		return Value{}, err
	}
	return SIDBytes(sid), nil
}

func fixtureTime(v *fastjson.Value) (Value, error) {
	b, err := v.StringBytes()
	if err != nil {
		return Value{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return Value{}, err
	}
	return FileTime(t), nil
}

// fixtureUint accepts a JSON number or a decimal/"0x" hex string.
func fixtureUint(bits int, mk func(uint64) Value) func(*fastjson.Value) (Value, error) {
	return func(v *fastjson.Value) (Value, error) {
		var (
			n   uint64
			err error
		)
		if v.Type() == fastjson.TypeString {
			s := string(v.GetStringBytes())
			n, err = strconv.ParseUint(s, 0, bits)
		} else {
			n, err = v.Uint64()
			if err == nil && bits < 64 && n >= 1<<uint(bits) {
				err = fmt.Errorf("value %d overflows %d bits", n, bits)
			}
		}
		if err != nil {
			return Value{}, err
		}
		return mk(n), nil
	}
}
