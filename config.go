package btcnet

import (
	"fmt"
	"time"

	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Default configuration values.
const (
	DefaultProtocolMaximum  = wire.Version70002
	DefaultProtocolMinimum  = wire.Version31402
	DefaultConnectTimeout   = 5 * time.Second
	DefaultChannelHandshake = 30 * time.Second
	DefaultChannelHeartbeat = 30 * time.Second
	DefaultChannelInactivity = 90 * time.Second
	DefaultInboundConns     = 8
	DefaultOutboundConns    = 8
	DefaultBatchSize        = 5
	DefaultHostPoolCapacity = 1000
	DefaultAcceptRetryDelay = time.Second
	DefaultUserAgent        = "/btcnet:0.1/"
	DefaultWorkerPoolSize   = 8
)

// Config enumerates the full configuration surface: wire and
// protocol negotiation policy, connection topology, timers, peer
// lists, and feature toggles.
type Config struct {
	// NetworkMagic is the four-byte value every frame's heading must
	// carry; frames with any other magic are rejected as invalid_magic.
	NetworkMagic uint32

	// MaxPayloadSize caps a single message's payload length; larger
	// declared lengths are rejected as oversized_payload.
	MaxPayloadSize uint32

	ProtocolMaximum uint32
	ProtocolMinimum uint32

	Services        uint64
	InvalidServices uint64
	ServicesMaximum uint64
	MinimumServices uint64

	InboundEnabled     bool
	InboundPort        uint16
	InboundConnections int

	OutboundConnections int
	ConnectBatchSize    int
	HostPoolCapacity    int

	ConnectTimeout    time.Duration
	ChannelHandshake  time.Duration
	ChannelHeartbeat  time.Duration
	ChannelInactivity time.Duration
	ChannelExpiration time.Duration
	AcceptRetryDelay  time.Duration

	// Peers are manual-session endpoints connected explicitly and kept
	// alive indefinitely.
	Peers []string
	// Seeds are one-shot bootstrap endpoints used only when the
	// address store is empty at start.
	Seeds []string

	Blacklists []authority.Authority
	Whitelists []authority.Authority

	UserAgent            string
	RelayTransactions    bool
	EnableReject         bool
	EnableAlert          bool
	EnableTransaction    bool
	EnableCompactFilters bool

	// AddressStorePath is where the address store persists its entries.
	AddressStorePath string

	// WorkerPoolSize sizes the shared executor pool every strand in
	// the network is drained from.
	WorkerPoolSize int

	// StartHeight reports the local best-block height advertised in
	// the version message. Left nil, the handshake advertises zero.
	StartHeight func() int32

	// Logger receives structured diagnostic output. If nil, a NopLogger
	// is used.
	Logger Logger

	// Metrics receives counters and gauges for connection lifecycle
	// and protocol activity. If nil, a NopMetrics is used.
	Metrics Metrics
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.NetworkMagic == 0 {
		return fmt.Errorf("%w: network magic is required", ErrInvalidConfig)
	}
	if c.ProtocolMaximum == 0 {
		return fmt.Errorf("%w: protocol maximum is required", ErrInvalidConfig)
	}
	if c.ProtocolMinimum > c.ProtocolMaximum {
		return fmt.Errorf("%w: protocol minimum exceeds protocol maximum", ErrInvalidConfig)
	}
	if c.InboundEnabled && c.InboundPort == 0 {
		return fmt.Errorf("%w: inbound enabled with no listen port", ErrInvalidConfig)
	}
	if c.InboundConnections < 0 {
		return fmt.Errorf("%w: inbound connections cannot be negative", ErrInvalidConfig)
	}
	if c.OutboundConnections < 0 {
		return fmt.Errorf("%w: outbound connections cannot be negative", ErrInvalidConfig)
	}
	if c.ConnectBatchSize < 0 {
		return fmt.Errorf("%w: connect batch size cannot be negative", ErrInvalidConfig)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("%w: connect timeout cannot be negative", ErrInvalidConfig)
	}
	if c.ChannelHandshake < 0 {
		return fmt.Errorf("%w: channel handshake timeout cannot be negative", ErrInvalidConfig)
	}
	if c.AddressStorePath == "" {
		return fmt.Errorf("%w: address store path is required", ErrInvalidConfig)
	}
	return nil
}

// applyDefaults sets default values for any unset optional fields.
func (c *Config) applyDefaults() {
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = wire.DefaultMaxPayloadSize
	}
	if c.ProtocolMaximum == 0 {
		c.ProtocolMaximum = DefaultProtocolMaximum
	}
	if c.ProtocolMinimum == 0 {
		c.ProtocolMinimum = DefaultProtocolMinimum
	}
	if c.InboundConnections == 0 {
		c.InboundConnections = DefaultInboundConns
	}
	if c.OutboundConnections == 0 {
		c.OutboundConnections = DefaultOutboundConns
	}
	if c.ConnectBatchSize == 0 {
		c.ConnectBatchSize = DefaultBatchSize
	}
	if c.HostPoolCapacity == 0 {
		c.HostPoolCapacity = DefaultHostPoolCapacity
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ChannelHandshake == 0 {
		c.ChannelHandshake = DefaultChannelHandshake
	}
	if c.ChannelHeartbeat == 0 {
		c.ChannelHeartbeat = DefaultChannelHeartbeat
	}
	if c.ChannelInactivity == 0 {
		c.ChannelInactivity = DefaultChannelInactivity
	}
	if c.AcceptRetryDelay == 0 {
		c.AcceptRetryDelay = DefaultAcceptRetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = DefaultWorkerPoolSize
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}
}

// effectiveServices returns the Services bitmap actually advertised in
// the version message, folding in the bit for any feature toggle that
// implies a service flag.
func (c *Config) effectiveServices() uint64 {
	services := c.Services
	if c.EnableCompactFilters {
		services |= wire.ServiceNodeCompactFilters
	}
	return services
}

// channelTimers projects the channel-related config fields into a
// channel.Timers value.
func (c *Config) channelTimers() channel.Timers {
	return channel.Timers{
		Heartbeat:  c.ChannelHeartbeat,
		Inactivity: c.ChannelInactivity,
		Expiration: c.ChannelExpiration,
	}
}

// ConfigOption is a functional option for configuring a Network.
type ConfigOption func(*Config)

// WithLogger sets the logger for the network.
func WithLogger(l Logger) ConfigOption {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics sets the metrics collector for the network.
func WithMetrics(m Metrics) ConfigOption {
	return func(c *Config) { c.Metrics = m }
}

// WithPeers appends manual-session peer endpoints.
func WithPeers(endpoints ...string) ConfigOption {
	return func(c *Config) { c.Peers = append(c.Peers, endpoints...) }
}

// WithSeeds appends bootstrap seed endpoints.
func WithSeeds(endpoints ...string) ConfigOption {
	return func(c *Config) { c.Seeds = append(c.Seeds, endpoints...) }
}

// NewConfig creates a Config for networkMagic and addressStorePath,
// applying any provided options and then defaults. It does not
// validate the configuration.
func NewConfig(networkMagic uint32, addressStorePath string, opts ...ConfigOption) *Config {
	c := &Config{NetworkMagic: networkMagic, AddressStorePath: addressStorePath}
	for _, opt := range opts {
		opt(c)
	}
	c.applyDefaults()
	return c
}
