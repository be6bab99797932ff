package protocol

import (
	"fmt"
	"time"

	"github.com/blockweave/btcnet/internal/handshake"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Tier names the handshake variant selected by the session's configured
// protocol maximum. All three tiers run the identical shake
// algorithm; the tier only affects which fields the wire codec includes
// and whether the session later attaches the reject protocol.
type Tier int

const (
	// TierVersion31402 is the base handshake with no relay flag.
	TierVersion31402 Tier = iota
	// TierVersion70001 adds the relay flag to the version message.
	TierVersion70001
	// TierVersion70002 adds reject-awareness (attached post-handshake).
	TierVersion70002
)

func (t Tier) String() string {
	switch t {
	case TierVersion31402:
		return "version_31402"
	case TierVersion70001:
		return "version_70001"
	case TierVersion70002:
		return "version_70002"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// SelectTier picks a handshake tier from the session's configured
// protocol maximum and whether reject is enabled.
func SelectTier(protocolMaximum uint32, rejectEnabled bool) Tier {
	switch {
	case protocolMaximum >= wire.Version70002 && rejectEnabled:
		return TierVersion70002
	case protocolMaximum >= wire.Version70001:
		return TierVersion70001
	default:
		return TierVersion31402
	}
}

// SelfConnectChecker reports whether nonce matches a locally pended
// outbound handshake nonce, used to detect self-connection during the
// version exchange. Implemented by Network; passed in to avoid an import cycle
// since Network is built on top of protocol, not the reverse.
type SelfConnectChecker interface {
	IsPendingNonce(nonce uint64) bool
}

// Config carries the local identity and policy the handshake shakes
// with a peer. Which tier this negotiates at is a byproduct of
// OwnVersion and the peer's negotiated version, not a separate input:
// see SelectTier for how a caller classifies the outcome.
type Config struct {
	OwnVersion      uint32
	OwnServices     uint64
	MinimumVersion  uint32
	InvalidServices uint64
	MinimumServices uint64
	UserAgent       string
	StartHeight     func() int32
	Relay           bool
	Local           authority.Authority
	Checker         SelfConnectChecker
	Timeout         time.Duration
}

// Handshake drives one channel through the version/verack shake.
// It is attached to the channel before Start/Resume is called
// on it, in the shake phase, and is discarded once the shake completes.
type Handshake struct {
	cfg          Config
	ch           *channel.Channel
	on           func(errcode.Code)
	progress     *handshake.Progress
	timer        *time.Timer
	peerServices uint64
}

// New creates a Handshake protocol for ch. handler is invoked exactly
// once with the outcome; on success the channel is paused and control
// returns to the caller to attach post-handshake protocols.
func New(cfg Config, ch *channel.Channel, handler func(errcode.Code)) *Handshake {
	return &Handshake{cfg: cfg, ch: ch, on: handler, progress: handshake.NewProgress()}
}

// Start implements Protocol: arms subscriptions, sends the local
// version, and awaits the peer's.
func (h *Handshake) Start() {
	if h.cfg.Timeout > 0 {
		h.timer = time.AfterFunc(h.cfg.Timeout, func() {
			h.ch.Strand().Post(func() { h.fail(errcode.ChannelTimeout) })
		})
	}

	h.ch.Subscribe("version", h.onPeerVersion)
	h.ch.Subscribe("verack", h.onPeerVerAck)

	local := &wire.VersionMessage{
		ProtocolVersion: h.cfg.OwnVersion,
		Services:        h.cfg.OwnServices,
		Timestamp:       time.Now().Unix(),
		AddrRecv:        wire.NetAddrFromAuthority(h.ch.Remote(), 0),
		AddrFrom:        wire.NetAddrFromAuthority(h.cfg.Local, h.cfg.OwnServices),
		Nonce:           h.ch.Nonce(),
		UserAgent:       h.cfg.UserAgent,
		StartHeight:     h.startHeight(),
		Relay:           h.cfg.Relay,
	}
	h.progress.MarkVersionSent()
	h.ch.Send(local, func(code errcode.Code) {
		if code != errcode.Success {
			h.fail(code)
		}
	})
}

func (h *Handshake) startHeight() int32 {
	if h.cfg.StartHeight == nil {
		return 0
	}
	return h.cfg.StartHeight()
}

func (h *Handshake) onPeerVersion(code errcode.Code, msg wire.Message) bool {
	if code != errcode.Success {
		h.fail(code)
		return false
	}
	peer := msg.(*wire.VersionMessage)

	if h.cfg.Checker != nil && h.cfg.Checker.IsPendingNonce(peer.Nonce) {
		h.fail(errcode.ChannelConflict)
		return false
	}
	if peer.ProtocolVersion < h.cfg.MinimumVersion {
		h.fail(errcode.ProtocolViolation)
		return false
	}

	h.ch.SetNegotiatedVersion(peer.ProtocolVersion)
	h.progress.MarkVersionReceived()

	if err := h.progress.MarkVerAckSent(); err != nil {
		h.fail(errcode.ProtocolViolation)
		return false
	}
	h.ch.Send(&wire.VerAckMessage{}, func(code errcode.Code) {
		if code != errcode.Success {
			h.fail(code)
		}
	})

	h.peerServices = peer.Services
	return false
}

func (h *Handshake) onPeerVerAck(code errcode.Code, msg wire.Message) bool {
	if code != errcode.Success {
		h.fail(code)
		return false
	}
	if err := h.progress.MarkVerAckReceived(); err != nil {
		h.fail(errcode.ProtocolViolation)
		return false
	}

	if h.peerServices&h.cfg.InvalidServices != 0 {
		h.fail(errcode.ProtocolViolation)
		return false
	}
	if h.cfg.MinimumServices != 0 && h.peerServices&h.cfg.MinimumServices != h.cfg.MinimumServices {
		h.fail(errcode.ProtocolViolation)
		return false
	}

	if err := h.progress.Complete(); err != nil {
		h.fail(errcode.ProtocolViolation)
		return false
	}

	h.succeed()
	return false
}

func (h *Handshake) succeed() {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.ch.Pause()
	h.on(errcode.Success)
}

func (h *Handshake) fail(code errcode.Code) {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.progress.Fail(errcode.New(code, "handshake failed"))
	h.ch.Stop(code)
	h.on(code)
}
