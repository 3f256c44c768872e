package evtstore

import (
	"encoding/binary"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/SlimIO/Winelog/pkg/errors"
)

// VarType is the type tag of a rendered slot. Values follow the
// EVT_VARIANT_TYPE numbering so the Windows store can pass them through.
type VarType uint32

const (
	TypeNull       VarType = 0
	TypeString     VarType = 1
	TypeAnsiString VarType = 2
	TypeSByte      VarType = 3
	TypeByte       VarType = 4
	TypeInt16      VarType = 5
	TypeUInt16     VarType = 6
	TypeInt32      VarType = 7
	TypeUInt32     VarType = 8
	TypeInt64      VarType = 9
	TypeUInt64     VarType = 10
	TypeSingle     VarType = 11
	TypeDouble     VarType = 12
	TypeBoolean    VarType = 13
	TypeBinary     VarType = 14
	TypeGUID       VarType = 15
	TypeSizeT      VarType = 16
	TypeFileTime   VarType = 17
	TypeSysTime    VarType = 18
	TypeSID        VarType = 19
	TypeHexInt32   VarType = 20
	TypeHexInt64   VarType = 21

	// TypeArrayFlag marks a slot holding an array of the base type.
	TypeArrayFlag VarType = 0x80
	typeMask      VarType = 0x7f
)

// Base strips the array flag.
func (t VarType) Base() VarType { return t & typeMask }

// IsArray reports whether the array flag is set.
func (t VarType) IsArray() bool { return t&TypeArrayFlag != 0 }

// IsPointer reports whether the slot value references data in the buffer.
func (t VarType) IsPointer() bool {
	if t.IsArray() {
		return true
	}
	switch t {
	case TypeString, TypeAnsiString, TypeBinary, TypeGUID, TypeSID:
		return true
	}
	return false
}

// SlotSize is the size of one slot in a variant block.
const SlotSize = 16

// Variant is one decoded slot header. For inline types Value holds the number;
// for pointer types it holds the byte offset of the data in the block.
type Variant struct {
	Value uint64
	Count uint32
	Type  VarType
}

// IsNull reports whether the slot is absent.
func (v Variant) IsNull() bool { return v.Type == TypeNull }

// ParseVariants reads count slot headers from the start of block.
func ParseVariants(block []byte, count int) ([]Variant, error) {
	if count < 0 || len(block) < count*SlotSize {
		return nil, fmt.Errorf("%w: %d slots need %d bytes, have %d", errors.ErrMalformedBlock, count, count*SlotSize, len(block))
	}
	out := make([]Variant, count)
	for i := range out {
		off := i * SlotSize
		out[i] = Variant{
			Value: binary.LittleEndian.Uint64(block[off : off+8]),
			Count: binary.LittleEndian.Uint32(block[off+8 : off+12]),
			Type:  VarType(binary.LittleEndian.Uint32(block[off+12 : off+16])),
		}
	}
	return out, nil
}

func dataAt(block []byte, v Variant, n int) ([]byte, error) {
	off := v.Value
	if off > uint64(len(block)) || uint64(len(block))-off < uint64(n) {
		return nil, fmt.Errorf("%w: offset %d+%d outside block of %d bytes", errors.ErrMalformedBlock, off, n, len(block))
	}
	return block[off : off+uint64(n)], nil
}

// ReadString copies the NUL-terminated UTF-16LE string referenced by v into a
// Go string. The result does not alias block.
func ReadString(block []byte, v Variant) (string, error) {
	if v.Value > uint64(len(block)) {
		return "", fmt.Errorf("%w: string offset %d outside block of %d bytes", errors.ErrMalformedBlock, v.Value, len(block))
	}
	rest := block[v.Value:]
	units := make([]uint16, 0, 32)
	for i := 0; ; i += 2 {
		if i+1 >= len(rest) {
			return "", fmt.Errorf("%w: unterminated string at offset %d", errors.ErrMalformedBlock, v.Value)
		}
		u := binary.LittleEndian.Uint16(rest[i : i+2])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), nil
}

// ReadGUID copies the 16 GUID bytes (Windows field order) referenced by v.
func ReadGUID(block []byte, v Variant) ([16]byte, error) {
	var g [16]byte
	b, err := dataAt(block, v, 16)
	if err != nil {
		return g, err
	}
	copy(g[:], b)
	return g, nil
}

// ReadSID copies the binary SID referenced by v. Its length comes from the
// sub-authority count in the SID header.
func ReadSID(block []byte, v Variant) ([]byte, error) {
	hdr, err := dataAt(block, v, sidHeaderSize)
	if err != nil {
		return nil, err
	}
	b, err := dataAt(block, v, sidHeaderSize+4*int(hdr[1]))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Value is a typed value before it is laid out into a variant block.
// The zero Value is a null slot.
type Value struct {
	Type  VarType
	Num   uint64
	Str   string
	Bytes []byte
}

// Slot constructors used by the in-memory store and fixtures.
func Null() Value { return Value{} }
func String(s string) Value { return Value{Type: TypeString, Str: s} }
func Byte(b uint8) Value { return Value{Type: TypeByte, Num: uint64(b)} }
func UInt16(n uint16) Value { return Value{Type: TypeUInt16, Num: uint64(n)} }
func UInt32(n uint32) Value { return Value{Type: TypeUInt32, Num: uint64(n)} }
func UInt64(n uint64) Value { return Value{Type: TypeUInt64, Num: n} }
func HexInt64(n uint64) Value { return Value{Type: TypeHexInt64, Num: n} }
func FileTimeTicks(t uint64) Value { return Value{Type: TypeFileTime, Num: t} }
func FileTime(t time.Time) Value { return FileTimeTicks(ToFileTime(t)) }
func GUIDBytes(g [16]byte) Value { return Value{Type: TypeGUID, Bytes: g[:]} }
func SIDBytes(sid []byte) Value { return Value{Type: TypeSID, Bytes: sid} }

// EncodeVariants lays vals out as a variant block: the slot table followed by
// a heap with the pointer-typed data.
func EncodeVariants(vals []Value) []byte {
	size := len(vals) * SlotSize
	for _, v := range vals {
		size += heapSize(v)
	}
	block := make([]byte, size)
	heap := len(vals) * SlotSize
	for i, v := range vals {
		slot := block[i*SlotSize : (i+1)*SlotSize]
		binary.LittleEndian.PutUint32(slot[12:16], uint32(v.Type))
		switch v.Type {
		case TypeString:
			binary.LittleEndian.PutUint64(slot[0:8], uint64(heap))
			for _, u := range utf16.Encode([]rune(v.Str)) {
				binary.LittleEndian.PutUint16(block[heap:], u)
				heap += 2
			}
			heap += 2
		case TypeGUID, TypeSID, TypeBinary:
			binary.LittleEndian.PutUint64(slot[0:8], uint64(heap))
			binary.LittleEndian.PutUint32(slot[8:12], uint32(len(v.Bytes)))
			heap += copy(block[heap:], v.Bytes)
		case TypeNull:
		default:
			binary.LittleEndian.PutUint64(slot[0:8], v.Num)
		}
	}
	return block
}

func heapSize(v Value) int {
	switch v.Type {
	case TypeString:
		return 2*len(utf16.Encode([]rune(v.Str))) + 2
	case TypeGUID, TypeSID, TypeBinary:
		return len(v.Bytes)
	}
	return 0
}

// fileTimeEpochDelta is the number of seconds between 1601-01-01 and 1970-01-01.
const fileTimeEpochDelta = 11644473600

// ToFileTime converts t to 100ns ticks since 1601-01-01 UTC.
func ToFileTime(t time.Time) uint64 {
	secs := t.Unix() + fileTimeEpochDelta
	return uint64(secs)*10_000_000 + uint64(t.Nanosecond()/100)
}

// FromFileTime converts 100ns ticks since 1601-01-01 to a UTC time.
func FromFileTime(ticks uint64) time.Time {
	secs := int64(ticks/10_000_000) - fileTimeEpochDelta
	rem := int64(ticks%10_000_000) * 100
	return time.Unix(secs, rem).UTC()
}
