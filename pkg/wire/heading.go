package wire

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// HeadingSize is the fixed 24-byte wire heading: magic(4) + command(12) +
// length(4) + checksum(4).
const HeadingSize = 24

// commandSize is the fixed width of the null-padded ASCII command field.
const commandSize = 12

// MessageHeading is the fixed-size frame header preceding every message
// payload on the wire.
//
//	magic:u32(LE) | command:[12]byte(null-pad ASCII) | length:u32(LE) | checksum:u32(LE)
type MessageHeading struct {
	Magic    uint32
	Command  string
	Length   uint32
	Checksum uint32
}

// Checksum computes the first 4 bytes of double-SHA256(payload), the
// wire checksum algorithm.
func Checksum(payload []byte) uint32 {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return binary.LittleEndian.Uint32(second[:4])
}

// EncodeHeading writes a 24-byte heading for the given command and
// payload into dst, which must be at least HeadingSize bytes.
func EncodeHeading(dst []byte, magic uint32, command string, payload []byte) error {
	if len(dst) < HeadingSize {
		return fmt.Errorf("wire: heading buffer too small: %d < %d", len(dst), HeadingSize)
	}
	if len(command) > commandSize {
		return fmt.Errorf("wire: command %q exceeds %d bytes", command, commandSize)
	}

	binary.LittleEndian.PutUint32(dst[0:4], magic)

	var cmdBuf [commandSize]byte
	copy(cmdBuf[:], command)
	copy(dst[4:16], cmdBuf[:])

	binary.LittleEndian.PutUint32(dst[16:20], uint32(len(payload)))
	binary.LittleEndian.PutUint32(dst[20:24], Checksum(payload))
	return nil
}

// DecodeHeading parses a 24-byte heading from src.
func DecodeHeading(src []byte) (MessageHeading, error) {
	if len(src) < HeadingSize {
		return MessageHeading{}, fmt.Errorf("wire: heading buffer too small: %d < %d", len(src), HeadingSize)
	}

	var h MessageHeading
	h.Magic = binary.LittleEndian.Uint32(src[0:4])

	cmdBytes := src[4:16]
	end := commandSize
	for i, b := range cmdBytes {
		if b == 0 {
			end = i
			break
		}
	}
	h.Command = string(cmdBytes[:end])

	h.Length = binary.LittleEndian.Uint32(src[16:20])
	h.Checksum = binary.LittleEndian.Uint32(src[20:24])
	return h, nil
}
