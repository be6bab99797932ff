package wire

import (
	"encoding/binary"
	"fmt"
)

// VersionMessage is the handshake `version` variant.
type VersionMessage struct {
	ProtocolVersion uint32
	Services        uint64
	Timestamp       int64
	AddrRecv        NetAddr
	AddrFrom        NetAddr
	Nonce           uint64
	UserAgent       string
	StartHeight     int32
	Relay           bool // only meaningful, and only sent, for negotiated >= Version70001
}

func (m *VersionMessage) Command() string        { return "version" }
func (m *VersionMessage) VersionMinimum() uint32 { return Version31402 }
func (m *VersionMessage) VersionMaximum() uint32 { return versionUnbounded }

func (m *VersionMessage) Marshal(version uint32) ([]byte, error) {
	var dst []byte
	var b4 [4]byte
	var b8 [8]byte

	binary.LittleEndian.PutUint32(b4[:], m.ProtocolVersion)
	dst = append(dst, b4[:]...)

	binary.LittleEndian.PutUint64(b8[:], m.Services)
	dst = append(dst, b8[:]...)

	binary.LittleEndian.PutUint64(b8[:], uint64(m.Timestamp))
	dst = append(dst, b8[:]...)

	dst = putNetAddr(dst, m.AddrRecv)
	dst = putNetAddr(dst, m.AddrFrom)

	binary.LittleEndian.PutUint64(b8[:], m.Nonce)
	dst = append(dst, b8[:]...)

	dst = putVarString(dst, m.UserAgent)

	binary.LittleEndian.PutUint32(b4[:], uint32(m.StartHeight))
	dst = append(dst, b4[:]...)

	if version >= Version70001 {
		if m.Relay {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}

func decodeVersion(payload []byte, version uint32) (Message, error) {
	if len(payload) < 4+8+8 {
		return nil, fmt.Errorf("wire: version: truncated fixed header")
	}
	m := &VersionMessage{}
	off := 0
	m.ProtocolVersion = binary.LittleEndian.Uint32(payload[off : off+4])
	off += 4
	m.Services = binary.LittleEndian.Uint64(payload[off : off+8])
	off += 8
	m.Timestamp = int64(binary.LittleEndian.Uint64(payload[off : off+8]))
	off += 8

	addrRecv, n, err := readNetAddr(payload[off:])
	if err != nil {
		return nil, err
	}
	m.AddrRecv = addrRecv
	off += n

	addrFrom, n, err := readNetAddr(payload[off:])
	if err != nil {
		return nil, err
	}
	m.AddrFrom = addrFrom
	off += n

	if len(payload)-off < 8 {
		return nil, fmt.Errorf("wire: version: truncated nonce")
	}
	m.Nonce = binary.LittleEndian.Uint64(payload[off : off+8])
	off += 8

	ua, n, err := readVarString(payload[off:])
	if err != nil {
		return nil, err
	}
	m.UserAgent = ua
	off += n

	if len(payload)-off < 4 {
		return nil, fmt.Errorf("wire: version: truncated start_height")
	}
	m.StartHeight = int32(binary.LittleEndian.Uint32(payload[off : off+4]))
	off += 4

	if off < len(payload) {
		m.Relay = payload[off] != 0
	}

	return m, nil
}

func init() { register("version", decodeVersion) }

// VerAckMessage is the empty-payload `verack` variant.
type VerAckMessage struct{}

func (m *VerAckMessage) Command() string            { return "verack" }
func (m *VerAckMessage) VersionMinimum() uint32     { return Version31402 }
func (m *VerAckMessage) VersionMaximum() uint32     { return versionUnbounded }
func (m *VerAckMessage) Marshal(uint32) ([]byte, error) { return nil, nil }

func decodeVerAck(payload []byte, _ uint32) (Message, error) {
	return &VerAckMessage{}, nil
}

func init() { register("verack", decodeVerAck) }
