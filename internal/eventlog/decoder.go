package eventlog

import (
	"github.com/SlimIO/Winelog/internal/evtstore"
	"github.com/SlimIO/Winelog/pkg/errors"
)

// Decoder renders records against the schema and turns the variant block
// into a LogRow. One render context is created per Decoder.
// Decoder 按模式渲染记录并将变体块转换为 LogRow。
type Decoder struct {
	store     evtstore.Store
	renderCtx evtstore.Handle
	initial   int
	limit     int
}

// NewDecoder creates the schema render context on store.
func NewDecoder(store evtstore.Store, opts Options) (*Decoder, error) {
	opts = opts.withDefaults()
	h, err := store.CreateRenderContext(SchemaPaths())
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &Decoder{store: store, renderCtx: h, initial: opts.RenderBufferSize, limit: opts.MaxBufferSize}, nil
}

type rendered struct {
	used  int
	count int
}

// Decode renders record and decodes it. The render buffer lives only for the
// call; everything in the returned row is copied out of it. Buffer growth
// failures are *BufferError, everything else is *DecodeError.
func (d *Decoder) Decode(record evtstore.Handle) (LogRow, error) {
	buf := make([]byte, d.initial)
	r, err := growRetry("render", &buf, d.limit, func(b []byte) (rendered, error) {
		used, count, err := d.store.Render(d.renderCtx, record, b)
		return rendered{used, count}, err
	})
	if err != nil {
		var be *BufferError
		if errors.As(err, &be) {
			return LogRow{}, err
		}
		return LogRow{}, &DecodeError{Record: record, Err: err}
	}
	if r.count != FieldCount {
		return LogRow{}, &DecodeError{Record: record, Err: errors.ErrMalformedBlock}
	}
	row, err := decodeBlock(buf[:r.used])
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Record = record
			return LogRow{}, de
		}
		return LogRow{}, &DecodeError{Record: record, Err: err}
	}
	return row, nil
}

// Close releases the render context. It is safe to call more than once.
func (d *Decoder) Close() error {
	if d == nil || d.renderCtx == 0 {
		return nil
	}
	h := d.renderCtx
	d.renderCtx = 0
	return d.store.Close(h)
}

// decodeBlock decodes a block of FieldCount slots laid out in schema order.
func decodeBlock(block []byte) (LogRow, error) {
	slots, err := evtstore.ParseVariants(block, FieldCount)
	if err != nil {
		return LogRow{}, err
	}
	s := &slotReader{block: block, slots: slots}

	row := LogRow{
		ProviderName:       s.str(FieldProviderName),
		ProviderGUID:       s.optGUID(FieldProviderGUID),
		ProviderSourceName: s.optStr(FieldProviderSourceName),
		Version:            uint8(s.num(FieldVersion)),
		Level:              uint8(s.num(FieldLevel)),
		Task:               uint16(s.num(FieldTask)),
		Opcode:             uint8(s.num(FieldOpcode)),
		Keywords:           s.num(FieldKeywords),
		TimeCreated:        FormatTimestamp(s.num(FieldTimeCreated)),
		EventRecordID:      s.num(FieldEventRecordID),
		ActivityID:         s.optGUID(FieldActivityID),
		RelatedActivityID:  s.optGUID(FieldRelatedActivityID),
		ProcessID:          s.optU32(FieldProcessID),
		ThreadID:           s.optU32(FieldThreadID),
		Channel:            s.optStr(FieldChannel),
		Computer:           s.str(FieldComputer),
		UserID:             s.optSID(FieldUserID),
	}

	row.EventID = uint32(uint16(s.num(FieldEventID)))
	if q, ok := s.present(FieldQualifiers); ok {
		row.EventID |= uint32(uint16(q.Value)) << 16
	}
	if s.err != nil {
		return LogRow{}, s.err
	}
	return row, nil
}

// slotReader reads typed values out of a parsed block. The first failure is
// kept in err and later reads return zero values.
type slotReader struct {
	block []byte
	slots []evtstore.Variant
	err   error
}

// present returns the slot for f when it is non-null and of an accepted type.
// A null slot returns false; any other type records a DecodeError.
func (s *slotReader) present(f Field) (evtstore.Variant, bool) {
	if s.err != nil {
		return evtstore.Variant{}, false
	}
	v := s.slots[f]
	if v.IsNull() {
		return v, false
	}
	if !f.accepts(v.Type) {
		s.err = &DecodeError{Field: f.String(), Err: errors.NewVariantTypeError(f.String(), uint32(v.Type), uint32(schema[f].accepted[0]))}
		return v, false
	}
	return v, true
}

func (s *slotReader) fail(f Field, err error) {
	if s.err == nil {
		s.err = &DecodeError{Field: f.String(), Err: err}
	}
}

func (s *slotReader) num(f Field) uint64 {
	v, ok := s.present(f)
	if !ok {
		return 0
	}
	return v.Value
}

func (s *slotReader) optU32(f Field) *uint32 {
	v, ok := s.present(f)
	if !ok {
		return nil
	}
	n := uint32(v.Value)
	return &n
}

func (s *slotReader) optStr(f Field) *string {
	v, ok := s.present(f)
	if !ok {
		return nil
	}
	str, err := evtstore.ReadString(s.block, v)
	if err != nil {
		s.fail(f, err)
		return nil
	}
	return &str
}

func (s *slotReader) str(f Field) string {
	if p := s.optStr(f); p != nil {
		return *p
	}
	return ""
}

func (s *slotReader) optGUID(f Field) *string {
	v, ok := s.present(f)
	if !ok {
		return nil
	}
	g, err := evtstore.ReadGUID(s.block, v)
	if err != nil {
		s.fail(f, err)
		return nil
	}
	text := evtstore.FormatGUID(g)
	return &text
}

func (s *slotReader) optSID(f Field) *string {
	v, ok := s.present(f)
	if !ok {
		return nil
	}
	sid, err := evtstore.ReadSID(s.block, v)
	if err != nil {
		s.fail(f, err)
		return nil
	}
	text, err := evtstore.FormatSID(sid)
	if err != nil {
		s.fail(f, err)
		return nil
	}
	return &text
}
