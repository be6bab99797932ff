package wire

import (
	"github.com/blockweave/btcnet/internal/pool"
	"github.com/blockweave/btcnet/pkg/errcode"
)

// DefaultMaxPayloadSize bounds payload_length for commands without a
// more specific per-message override.
// Matches Bitcoin Core's historical 32 MiB message ceiling.
const DefaultMaxPayloadSize = 32 * 1024 * 1024

// perCommandMax overrides DefaultMaxPayloadSize for message types with a
// tighter, well-known bound.
var perCommandMax = map[string]uint32{
	"addr":    3 + MaxAddrItems*30,
	"version": 4096,
	"verack":  0,
	"ping":    8,
	"pong":    8,
	"getaddr": 0,
}

// Codec implements the versioned encode/decode algorithm: a
// fixed 24-byte heading wraps a command-dispatched, version-checked
// payload.
type Codec struct {
	Magic          uint32
	MaxPayloadSize uint32
}

// NewCodec creates a Codec for the given network magic.
func NewCodec(magic uint32) *Codec {
	return &Codec{Magic: magic, MaxPayloadSize: DefaultMaxPayloadSize}
}

func (c *Codec) maxPayloadFor(command string) uint32 {
	if max, ok := perCommandMax[command]; ok {
		return max
	}
	if c.MaxPayloadSize > 0 {
		return c.MaxPayloadSize
	}
	return DefaultMaxPayloadSize
}

// Encode serializes m for negotiatedVersion and wraps it with a wire
// heading. Returns errcode.UnknownMessage if negotiatedVersion is
// outside m's declared range.
func (c *Codec) Encode(m Message, negotiatedVersion uint32) ([]byte, error) {
	if !InRange(m, negotiatedVersion) {
		return nil, errcode.New(errcode.UnknownMessage, "message not valid for negotiated version")
	}

	payload, err := m.Marshal(negotiatedVersion)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidMessage, "marshal failed", err)
	}

	bufPtr := pool.GetExactBuffer(HeadingSize + len(payload))
	buf := *bufPtr
	defer pool.PutBuffer(bufPtr)

	if err := EncodeHeading(buf[:HeadingSize], c.Magic, m.Command(), payload); err != nil {
		return nil, errcode.Wrap(errcode.InvalidMessage, "encode heading failed", err)
	}
	copy(buf[HeadingSize:], payload)

	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// Decode implements the read-loop decode algorithm: validate magic,
// bound and verify the payload, look up the
// command, deserialize, and check the negotiated version falls within
// the decoded message's declared range.
func (c *Codec) Decode(heading []byte, payload []byte, negotiatedVersion uint32) (Message, error) {
	h, err := DecodeHeading(heading)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidHeading, "malformed heading", err)
	}
	if h.Magic != c.Magic {
		return nil, errcode.New(errcode.InvalidMagic, "magic mismatch")
	}
	if h.Length > c.maxPayloadFor(h.Command) {
		return nil, errcode.New(errcode.OversizedPayload, "payload exceeds per-message maximum")
	}
	if uint32(len(payload)) != h.Length {
		return nil, errcode.New(errcode.InvalidHeading, "payload length mismatch")
	}
	if Checksum(payload) != h.Checksum {
		return nil, errcode.New(errcode.InvalidChecksum, "checksum mismatch")
	}

	decode, ok := registry[h.Command]
	if !ok {
		return nil, errcode.New(errcode.UnknownMessage, "unrecognized command "+h.Command)
	}

	msg, err := decode(payload, negotiatedVersion)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidMessage, "deserialize failed", err)
	}

	if !InRange(msg, negotiatedVersion) {
		return nil, errcode.New(errcode.UnknownMessage, "message not valid for negotiated version")
	}

	return msg, nil
}

// DecodeHeadingOnly is a thin wrapper used by the channel read loop to
// validate a heading before it knows the payload length to read next.
func (c *Codec) DecodeHeadingOnly(heading []byte) (MessageHeading, error) {
	h, err := DecodeHeading(heading)
	if err != nil {
		return MessageHeading{}, errcode.Wrap(errcode.InvalidHeading, "malformed heading", err)
	}
	if h.Magic != c.Magic {
		return MessageHeading{}, errcode.New(errcode.InvalidMagic, "magic mismatch")
	}
	if h.Length > c.maxPayloadFor(h.Command) {
		return MessageHeading{}, errcode.New(errcode.OversizedPayload, "payload exceeds per-message maximum")
	}
	return h, nil
}
