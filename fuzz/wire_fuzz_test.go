// Package fuzz native-fuzzes the wire codec's message decoders against
// malformed, truncated, and oversized payloads. Every seed is built by
// wrapping a hand-crafted payload in a real heading (correct magic and
// checksum) so the fuzz engine spends its mutation budget on payload
// shapes the per-command decoders actually have to defend, not on
// heading/checksum rejection paths already covered by pkg/wire's
// TestDecodeInvalidMagicStopsBeforePayload and TestChecksumMismatchRejected.
package fuzz

import (
	"encoding/binary"
	"testing"

	"github.com/blockweave/btcnet/pkg/wire"
)

const fuzzMagic = 0xD9B4BEF9

func wrapCommand(command string, payload []byte) ([]byte, []byte) {
	heading := make([]byte, wire.HeadingSize)
	if err := wire.EncodeHeading(heading, fuzzMagic, command, payload); err != nil {
		return nil, nil
	}
	return heading, payload
}

func decodeCommand(command string, payload []byte) {
	codec := wire.NewCodec(fuzzMagic)
	heading, wrapped := wrapCommand(command, payload)
	if heading == nil {
		return
	}
	// Decode must never panic regardless of what garbage the payload
	// holds; a returned error is the expected, safe outcome.
	_, _ = codec.Decode(heading, wrapped, wire.Version70002)
}

func FuzzDecodeAddr(f *testing.F) {
	f.Add([]byte{0x00})                                        // zero items
	f.Add([]byte{0xfd, 0x00, 0x00})                             // varint claims 0 but wrong encoding length
	f.Add([]byte{0x01})                                         // count 1, no item bytes: truncated
	f.Add(append([]byte{0x01}, make([]byte, 26)...))            // count 1, missing 4-byte timestamp
	f.Add(append([]byte{0x03}, make([]byte, 3*30)...))          // count 3, full items
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}) // varint claims huge count
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, payload []byte) {
		decodeCommand("addr", payload)
	})
}

func FuzzDecodeVersion(f *testing.F) {
	buildValid := func(userAgent string, extra []byte) []byte {
		var dst []byte
		var b4, b8 [8]byte
		_ = b4
		binary.LittleEndian.PutUint32(b8[:4], 70015)
		dst = append(dst, b8[:4]...)
		binary.LittleEndian.PutUint64(b8[:], 1)
		dst = append(dst, b8[:]...)
		binary.LittleEndian.PutUint64(b8[:], 0)
		dst = append(dst, b8[:]...)
		dst = append(dst, make([]byte, 26)...) // addr_recv
		dst = append(dst, make([]byte, 26)...) // addr_from
		binary.LittleEndian.PutUint64(b8[:], 42)
		dst = append(dst, b8[:]...)
		dst = append(dst, byte(len(userAgent)))
		dst = append(dst, []byte(userAgent)...)
		dst = append(dst, make([]byte, 4)...) // start_height
		dst = append(dst, extra...)
		return dst
	}

	f.Add(buildValid("", nil))
	f.Add(buildValid("/btcnet:1.0/", []byte{1}))
	f.Add([]byte{})
	f.Add(make([]byte, 3))                  // truncated fixed header
	f.Add(make([]byte, 4+8+8+26+26+8-1))    // one byte short of nonce
	f.Add(append(make([]byte, 4+8+8+26+26+8), 0xfd)) // varstring claims extended length, truncated

	f.Fuzz(func(t *testing.T, payload []byte) {
		decodeCommand("version", payload)
	})
}

func FuzzDecodePing(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{1, 2, 3})
	f.Add(make([]byte, 8))
	f.Add(make([]byte, 7))
	f.Add(make([]byte, 100))

	f.Fuzz(func(t *testing.T, payload []byte) {
		decodeCommand("ping", payload)
	})
}

func FuzzDecodePong(f *testing.F) {
	f.Add([]byte{})
	f.Add(make([]byte, 8))
	f.Add(make([]byte, 7))

	f.Fuzz(func(t *testing.T, payload []byte) {
		decodeCommand("pong", payload)
	})
}

func FuzzDecodeReject(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x01, 0x00}) // empty message, code 1, empty reason
	f.Add([]byte{0x04, 't', 'e', 's', 't', 0x10, 0x03, 'b', 'a', 'd'})
	f.Add([]byte{0xfd})    // truncated extended varstring length
	f.Add([]byte{0x00})    // message length claims 0, then missing code byte

	f.Fuzz(func(t *testing.T, payload []byte) {
		decodeCommand("reject", payload)
	})
}

func FuzzDecodeAlert(f *testing.F) {
	f.Add([]byte{0x00, 0x00})
	f.Add([]byte{0x04, 'd', 'a', 't', 'a', 0x02, 's', 'g'})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}) // huge payload length
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, payload []byte) {
		decodeCommand("alert", payload)
	})
}

func FuzzDecodeHeading(f *testing.F) {
	valid := make([]byte, wire.HeadingSize)
	_ = wire.EncodeHeading(valid, fuzzMagic, "ping", nil)
	f.Add(valid)
	f.Add(make([]byte, wire.HeadingSize))
	f.Add([]byte{})
	f.Add(make([]byte, wire.HeadingSize-1))
	corruptCommand := make([]byte, wire.HeadingSize)
	copy(corruptCommand, valid)
	for i := 4; i < 16; i++ {
		corruptCommand[i] = 0xff // command bytes with no null terminator
	}
	f.Add(corruptCommand)

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = wire.DecodeHeading(data)
	})
}
