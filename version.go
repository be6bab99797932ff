package btcnet

import "github.com/blockweave/btcnet/pkg/wire"

// Protocol version constants, re-exported from pkg/wire so callers
// configuring a Network don't need a second import for version
// literals.
const (
	ProtocolVersionBaseline      = wire.Version31402
	ProtocolVersionGetHeaders    = wire.Version31800
	ProtocolVersionPingNonce     = wire.Version60001
	ProtocolVersionRelay         = wire.Version70001
	ProtocolVersionReject        = wire.Version70002
	ProtocolVersionSendHeaders   = wire.Version70012
	ProtocolVersionCompactBlocks = wire.Version70014
	ProtocolVersionRejectWitness = wire.Version70015
	ProtocolVersionWtxidRelay    = wire.Version70016
)

// SupportsPingNonce reports whether version negotiates the ping/pong
// nonce field (negotiated_version >= 60001).
func SupportsPingNonce(version uint32) bool {
	return version >= wire.Version60001
}

// SupportsReject reports whether version negotiates the reject
// message (negotiated_version >= 70002).
func SupportsReject(version uint32) bool {
	return version >= wire.Version70002
}

// SupportsRelayField reports whether a version message at this
// version carries a meaningful relay field (negotiated_version >=
// 70001).
func SupportsRelayField(version uint32) bool {
	return version >= wire.Version70001
}

// InProtocolRange reports whether version falls within [min, max],
// the range a Config's ProtocolMinimum/ProtocolMaximum define.
func InProtocolRange(version, min, max uint32) bool {
	return version >= min && version <= max
}
