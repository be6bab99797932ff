package wire

import (
	"encoding/binary"
	"fmt"
)

// PingMessage is the `ping` variant. Version 31402 pings carry no nonce
// (empty payload); tier 60001+ pings carry a random u64 nonce.
// HasNonce distinguishes the two wire shapes for a single Go type since
// the presence of the nonce is a tier decision made by the protocol
// layer, not the message layer.
type PingMessage struct {
	Nonce    uint64
	HasNonce bool
}

func (m *PingMessage) Command() string        { return "ping" }
func (m *PingMessage) VersionMinimum() uint32 { return Version31402 }
func (m *PingMessage) VersionMaximum() uint32 { return versionUnbounded }

func (m *PingMessage) Marshal(uint32) ([]byte, error) {
	if !m.HasNonce {
		return nil, nil
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], m.Nonce)
	return b[:], nil
}

func decodePing(payload []byte, _ uint32) (Message, error) {
	if len(payload) == 0 {
		return &PingMessage{HasNonce: false}, nil
	}
	if len(payload) < 8 {
		return nil, fmt.Errorf("wire: ping: truncated nonce")
	}
	return &PingMessage{Nonce: binary.LittleEndian.Uint64(payload[:8]), HasNonce: true}, nil
}

func init() { register("ping", decodePing) }

// PongMessage is the `pong{nonce}` variant, tier 60001+ only.
type PongMessage struct {
	Nonce uint64
}

func (m *PongMessage) Command() string        { return "pong" }
func (m *PongMessage) VersionMinimum() uint32 { return Version60001 }
func (m *PongMessage) VersionMaximum() uint32 { return versionUnbounded }

func (m *PongMessage) Marshal(uint32) ([]byte, error) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], m.Nonce)
	return b[:], nil
}

func decodePong(payload []byte, _ uint32) (Message, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("wire: pong: truncated nonce")
	}
	return &PongMessage{Nonce: binary.LittleEndian.Uint64(payload[:8])}, nil
}

func init() { register("pong", decodePong) }
