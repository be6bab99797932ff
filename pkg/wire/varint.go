package wire

import (
	"encoding/binary"
	"fmt"
)

// putVarInt appends a Bitcoin CompactSize-encoded integer to dst.
func putVarInt(dst []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(dst, byte(v))
	case v <= 0xffff:
		dst = append(dst, 0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		return append(dst, b[:]...)
	case v <= 0xffffffff:
		dst = append(dst, 0xfe)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		return append(dst, b[:]...)
	default:
		dst = append(dst, 0xff)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		return append(dst, b[:]...)
	}
}

// readVarInt decodes a Bitcoin CompactSize integer from src, returning
// the value and the number of bytes consumed.
func readVarInt(src []byte) (uint64, int, error) {
	if len(src) < 1 {
		return 0, 0, fmt.Errorf("wire: varint: empty input")
	}
	switch src[0] {
	case 0xfd:
		if len(src) < 3 {
			return 0, 0, fmt.Errorf("wire: varint: truncated 0xfd")
		}
		return uint64(binary.LittleEndian.Uint16(src[1:3])), 3, nil
	case 0xfe:
		if len(src) < 5 {
			return 0, 0, fmt.Errorf("wire: varint: truncated 0xfe")
		}
		return uint64(binary.LittleEndian.Uint32(src[1:5])), 5, nil
	case 0xff:
		if len(src) < 9 {
			return 0, 0, fmt.Errorf("wire: varint: truncated 0xff")
		}
		return binary.LittleEndian.Uint64(src[1:9]), 9, nil
	default:
		return uint64(src[0]), 1, nil
	}
}

// putVarString appends a CompactSize length prefix followed by the raw
// bytes of s.
func putVarString(dst []byte, s string) []byte {
	dst = putVarInt(dst, uint64(len(s)))
	return append(dst, s...)
}

// readVarString decodes a length-prefixed string, returning the string
// and the number of bytes consumed.
func readVarString(src []byte) (string, int, error) {
	n, consumed, err := readVarInt(src)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(src)-consumed) < n {
		return "", 0, fmt.Errorf("wire: varstring: truncated body")
	}
	return string(src[consumed : consumed+int(n)]), consumed + int(n), nil
}
