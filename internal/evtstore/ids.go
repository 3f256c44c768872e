package evtstore

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/SlimIO/Winelog/pkg/errors"
	"github.com/google/uuid"
)

// Binary SID header: revision, sub-authority count, 48-bit big-endian authority.
const (
	sidHeaderSize        = 8
	sidMaxSubAuthorities = 15
)

// FormatSID renders a binary SID in its canonical "S-R-A-S1-S2..." form.
// Authorities that do not fit in 32 bits are written as 0x%012X.
func FormatSID(sid []byte) (string, error) {
	if len(sid) < sidHeaderSize {
		return "", fmt.Errorf("%w: SID of %d bytes", errors.ErrMalformedBlock, len(sid))
	}
	n := int(sid[1])
	if n > sidMaxSubAuthorities || len(sid) < sidHeaderSize+4*n {
		return "", fmt.Errorf("%w: SID declares %d sub-authorities in %d bytes", errors.ErrMalformedBlock, n, len(sid))
	}
	var auth uint64
	for _, b := range sid[2:8] {
		auth = auth<<8 | uint64(b)
	}

	var sb strings.Builder
	sb.WriteString("S-")
	sb.WriteString(strconv.Itoa(int(sid[0])))
	if auth >= 1<<32 {
		fmt.Fprintf(&sb, "-0x%012X", auth)
	} else {
		sb.WriteString("-")
		sb.WriteString(strconv.FormatUint(auth, 10))
	}
	for i := 0; i < n; i++ {
		off := sidHeaderSize + 4*i
		sb.WriteString("-")
		sb.WriteString(strconv.FormatUint(uint64(binary.LittleEndian.Uint32(sid[off:off+4])), 10))
	}
	return sb.String(), nil
}

// ParseSID is the inverse of FormatSID.
func ParseSID(s string) ([]byte, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 || parts[0] != "S" {
		return nil, fmt.Errorf("invalid SID %q", s)
	}
	rev, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SID revision in %q: %w", s, err)
	}
	var auth uint64
	if strings.HasPrefix(parts[2], "0x") || strings.HasPrefix(parts[2], "0X") {
		auth, err = strconv.ParseUint(parts[2][2:], 16, 48)
	} else {
		auth, err = strconv.ParseUint(parts[2], 10, 48)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid SID authority in %q: %w", s, err)
	}
	subs := parts[3:]
	if len(subs) > sidMaxSubAuthorities {
		return nil, fmt.Errorf("invalid SID %q: %d sub-authorities", s, len(subs))
	}

	out := make([]byte, sidHeaderSize+4*len(subs))
	out[0] = byte(rev)
	out[1] = byte(len(subs))
	for i := 0; i < 6; i++ {
		out[7-i] = byte(auth >> (8 * i))
	}
	for i, p := range subs {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SID sub-authority in %q: %w", s, err)
		}
		binary.LittleEndian.PutUint32(out[sidHeaderSize+4*i:], uint32(v))
	}
	return out, nil
}

// FormatGUID renders 16 GUID bytes in Windows field order (little-endian
// Data1..Data3) as "{xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}" in lowercase.
func FormatGUID(g [16]byte) string {
	return "{" + uuid.UUID(swapGUID(g)).String() + "}"
}

// ParseGUID accepts braced or bare GUID text and returns Windows field order bytes.
func ParseGUID(s string) ([16]byte, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return [16]byte{}, fmt.Errorf("invalid GUID %q: %w", s, err)
	}
	return swapGUID(u), nil
}

// swapGUID converts between the Windows GUID layout and RFC 4122 byte order.
// The conversion is its own inverse.
func swapGUID(g [16]byte) [16]byte {
	out := g
	out[0], out[1], out[2], out[3] = g[3], g[2], g[1], g[0]
	out[4], out[5] = g[5], g[4]
	out[6], out[7] = g[7], g[6]
	return out
}
