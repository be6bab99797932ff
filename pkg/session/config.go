package session

import (
	"time"

	"github.com/blockweave/btcnet/pkg/addressstore"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/protocol"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Config carries the identity, policy and timing every session variant
// shakes and gossips with. One Config is shared by all sessions
// attached to a Network.
type Config struct {
	Magic          uint32
	MaxPayloadSize uint32

	ProtocolMaximum uint32
	ProtocolMinimum uint32
	Services        uint64
	InvalidServices uint64
	MinimumServices uint64
	UserAgent       string
	StartHeight     func() int32
	Relay           bool
	RejectEnabled   bool
	Local           authority.Authority

	// RejectLogger receives every incoming reject frame's message,
	// code, and reason. If nil, reject frames are handled but not
	// logged.
	RejectLogger protocol.RejectLogger

	HandshakeTimeout time.Duration
	Timers           channel.Timers

	SendGetAddr bool
	Blacklisted func(authority.Authority) bool

	Store   *addressstore.Store
	Checker protocol.SelfConnectChecker

	InboundConnections  int
	OutboundConnections int
	BatchSize           int
	ConnectTimeout      time.Duration
	AcceptRetryDelay    time.Duration

	Whitelist []authority.Authority
	Blacklist []authority.Authority
}

// codec builds a fresh wire codec for one channel.
func (c Config) codec() *wire.Codec {
	return wire.NewCodec(c.Magic)
}

// handshakeConfig builds the protocol.Config for one shake attempt.
func (c Config) handshakeConfig() protocol.Config {
	return protocol.Config{
		OwnVersion:      c.ProtocolMaximum,
		OwnServices:     c.Services,
		MinimumVersion:  c.ProtocolMinimum,
		InvalidServices: c.InvalidServices,
		MinimumServices: c.MinimumServices,
		UserAgent:       c.UserAgent,
		StartHeight:     c.StartHeight,
		Relay:           c.Relay,
		Local:           c.Local,
		Checker:         c.Checker,
		Timeout:         c.HandshakeTimeout,
	}
}

// attachHandshake attaches the handshake protocol to ch.
func (c Config) attachHandshake(ch *channel.Channel, done func(errcode.Code)) {
	protocol.New(c.handshakeConfig(), ch, done).Start()
}

// attachProtocols attaches the post-handshake protocol set appropriate
// to ch's negotiated version.
func (c Config) attachProtocols(ch *channel.Channel) {
	nonced := ch.NegotiatedVersion() >= wire.Version60001
	protocol.NewPing(ch, nonced).Start()

	protocol.NewAddressGossip(ch, protocol.AddressGossipConfig{
		SendGetAddr: c.SendGetAddr,
		Store:       storeAdapter{c.Store},
		Blacklisted: c.Blacklisted,
		Self:        c.Local,
	}).Start()

	if ch.NegotiatedVersion() >= wire.Version70002 && c.RejectEnabled {
		protocol.NewReject(ch, c.RejectLogger).Start()
	}
}

// storeAdapter narrows *addressstore.Store to protocol.AddressStore.
type storeAdapter struct{ store *addressstore.Store }

func (s storeAdapter) Save(items []wire.AddressItem, handler func(code errcode.Code, accepted, filtered int)) {
	s.store.Save(items, handler)
}
