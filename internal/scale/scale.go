// Package scale decodes the few SCALE encoded storage values the resolver reads.
package scale

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// blockNumberSize is the trailing u32 block number stored alongside a display name.
const blockNumberSize = 4

// DecodeCompact decodes a SCALE compact integer from the start of b, returning the value
// and the number of bytes consumed.
func DecodeCompact(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, errors.New("compact: empty input")
	}
	switch b[0] & 0b11 {
	case 0b00:
		return uint64(b[0] >> 2), 1, nil
	case 0b01:
		if len(b) < 2 {
			return 0, 0, errors.New("compact: truncated two byte mode")
		}
		return uint64(binary.LittleEndian.Uint16(b) >> 2), 2, nil
	case 0b10:
		if len(b) < 4 {
			return 0, 0, errors.New("compact: truncated four byte mode")
		}
		return uint64(binary.LittleEndian.Uint32(b) >> 2), 4, nil
	default:
		n := int(b[0]>>2) + 4
		if n > 8 {
			return 0, 0, errors.Errorf("compact: %d byte integers are not supported", n)
		}
		if len(b) < n+1 {
			return 0, 0, errors.New("compact: truncated big integer mode")
		}
		buf := make([]byte, 8)
		copy(buf, b[1:n+1])
		return binary.LittleEndian.Uint64(buf), n + 1, nil
	}
}

// DecodeUint decodes a little-endian unsigned integer of up to 8 bytes, which covers the
// u8..u64 values stored in chain maps.
func DecodeUint(b []byte) (uint64, error) {
	if len(b) == 0 || len(b) > 8 {
		return 0, errors.Errorf("unsigned integer of %d bytes", len(b))
	}
	buf := make([]byte, 8)
	copy(buf, b)
	return binary.LittleEndian.Uint64(buf), nil
}

// DecodeDisplayName decodes a Handles::MSAIdToDisplayName value: a length prefixed
// UTF-8 handle followed by the u32 block number it was claimed at.
func DecodeDisplayName(b []byte) (string, error) {
	length, n, err := DecodeCompact(b)
	if err != nil {
		return "", errors.Wrap(err, "decoding display name length")
	}
	rest := b[n:]
	if uint64(len(rest)) != length+blockNumberSize {
		return "", errors.Errorf("display name of length %d does not fit %d remaining bytes", length, len(rest))
	}
	name := rest[:length]
	if !utf8.Valid(name) {
		return "", errors.New("display name is not valid UTF-8")
	}
	return string(name), nil
}
