package evtstore

import (
	"testing"
	"time"

	"github.com/SlimIO/Winelog/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeParseVariants tests that a block round-trips through the slot table.
// TestEncodeParseVariants 测试变体块经过槽表往返。
func TestEncodeParseVariants(t *testing.T) {
	guid, err := ParseGUID("{5d8b9a1c-0e2f-4a3b-9c7d-112233445566}")
	require.NoError(t, err)
	sid, err := ParseSID("S-1-5-18")
	require.NoError(t, err)

	vals := []Value{
		String("Microsoft-Windows-Security-Auditing"),
		Null(),
		UInt16(4624),
		Byte(4),
		HexInt64(0x8020000000000000),
		GUIDBytes(guid),
		SIDBytes(sid),
		String("héllo wörld ✓"),
	}
	block := EncodeVariants(vals)

	slots, err := ParseVariants(block, len(vals))
	require.NoError(t, err)
	require.Len(t, slots, len(vals))

	s, err := ReadString(block, slots[0])
	require.NoError(t, err)
	assert.Equal(t, "Microsoft-Windows-Security-Auditing", s)

	assert.True(t, slots[1].IsNull())
	assert.Equal(t, TypeUInt16, slots[2].Type)
	assert.Equal(t, uint64(4624), slots[2].Value)
	assert.Equal(t, uint64(4), slots[3].Value)
	assert.Equal(t, TypeHexInt64, slots[4].Type)
	assert.Equal(t, uint64(0x8020000000000000), slots[4].Value)

	g, err := ReadGUID(block, slots[5])
	require.NoError(t, err)
	assert.Equal(t, guid, g)

	gotSID, err := ReadSID(block, slots[6])
	require.NoError(t, err)
	assert.Equal(t, sid, gotSID)

	s, err = ReadString(block, slots[7])
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld ✓", s)
}

// TestReadStringDoesNotAlias tests that strings survive reuse of the block.
// TestReadStringDoesNotAlias 测试块被复用后字符串仍然有效。
func TestReadStringDoesNotAlias(t *testing.T) {
	block := EncodeVariants([]Value{String("DC01.corp.local")})
	slots, err := ParseVariants(block, 1)
	require.NoError(t, err)
	s, err := ReadString(block, slots[0])
	require.NoError(t, err)

	for i := range block {
		block[i] = 0xAA
	}
	assert.Equal(t, "DC01.corp.local", s)
}

func TestParseVariantsMalformed(t *testing.T) {
	_, err := ParseVariants(make([]byte, 20), 2)
	assert.ErrorIs(t, err, errors.ErrMalformedBlock)

	block := EncodeVariants([]Value{String("abc")})
	slots, err := ParseVariants(block, 1)
	require.NoError(t, err)

	// Truncate before the terminator.
	// 在终止符之前截断。
	_, err = ReadString(block[:len(block)-2], slots[0])
	assert.ErrorIs(t, err, errors.ErrMalformedBlock)

	bad := Variant{Type: TypeGUID, Value: uint64(len(block))}
	_, err = ReadGUID(block, bad)
	assert.ErrorIs(t, err, errors.ErrMalformedBlock)
}

func TestVarTypeFlags(t *testing.T) {
	assert.True(t, TypeString.IsPointer())
	assert.True(t, TypeGUID.IsPointer())
	assert.True(t, TypeSID.IsPointer())
	assert.False(t, TypeUInt64.IsPointer())
	assert.False(t, TypeFileTime.IsPointer())

	arr := TypeUInt16 | TypeArrayFlag
	assert.True(t, arr.IsArray())
	assert.True(t, arr.IsPointer())
	assert.Equal(t, TypeUInt16, arr.Base())
}

// TestFileTimeConversion tests the 1601 epoch tick conversion.
// TestFileTimeConversion 测试 1601 纪元的刻度转换。
func TestFileTimeConversion(t *testing.T) {
	assert.Equal(t, uint64(116444736000000000), ToFileTime(time.Unix(0, 0)))
	assert.True(t, time.Unix(0, 0).Equal(FromFileTime(116444736000000000)))

	ts := time.Date(2024, 3, 9, 17, 45, 12, 987654300, time.UTC)
	assert.True(t, ts.Equal(FromFileTime(ToFileTime(ts))))

	// 1601-01-01 itself.
	assert.True(t, time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC).Equal(FromFileTime(0)))
}

func TestFrames(t *testing.T) {
	buf := make([]byte, FrameSize(3)+FrameSize(0))
	n := PutFrame(buf, 7, []byte("abc"))
	assert.Equal(t, 15, n)
	PutFrame(buf[n:], 9, nil)

	h, payload, size, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, Handle(7), h)
	assert.Equal(t, []byte("abc"), payload)
	assert.Equal(t, 15, size)

	h, payload, _, err = ReadFrame(buf[size:])
	require.NoError(t, err)
	assert.Equal(t, Handle(9), h)
	assert.Empty(t, payload)

	_, _, _, err = ReadFrame(buf[:5])
	assert.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Reverse, d)

	d, err = ParseDirection("forward")
	require.NoError(t, err)
	assert.Equal(t, Forward, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
