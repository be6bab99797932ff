package wire

// Protocol version interop constants. version_minimum/version_maximum
// on every message type are pinned to these exact values for interop.
const (
	Version31402 uint32 = 31402 // baseline
	Version31800 uint32 = 31800 // getheaders
	Version60001 uint32 = 60001 // ping nonce
	Version70001 uint32 = 70001 // relay
	Version70002 uint32 = 70002 // reject
	Version70012 uint32 = 70012 // sendheaders
	Version70014 uint32 = 70014 // compact blocks
	Version70015 uint32 = 70015 // reject witness
	Version70016 uint32 = 70016 // wtxid relay
)

// versionUnbounded is used as version_maximum for messages with no
// upper interop bound.
const versionUnbounded uint32 = 1<<32 - 1

// Service bits (subset relevant to the handshake and address gossip).
const (
	ServiceNodeNetwork        uint64 = 1 << 0
	ServiceNodeCompactFilters uint64 = 1 << 6
)
