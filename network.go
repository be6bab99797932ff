package btcnet

import (
	"fmt"
	"sync"
	"time"

	"github.com/blockweave/btcnet/internal/eventdispatch"
	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/addressstore"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/session"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Network is the top-level owner: it holds the
// executor pool, the address store, the outbound-nonce table, the
// per-direction channel tables, and the four session variants that
// drive channels through handshake and protocol attachment.
//
// All public methods are safe for concurrent use.
type Network struct {
	cfg *Config

	pool   *executor.Pool
	strand *executor.Strand
	store  *addressstore.Store
	events *eventdispatch.Dispatcher

	mu               sync.Mutex
	started          bool
	stopped          bool
	pendingNonces    map[uint64]struct{}
	inboundChannels  map[authority.Authority]*channel.Channel
	outboundChannels map[authority.Authority]*channel.Channel
	statsTrackers    map[authority.Authority]*channelStatsTracker

	inbound  *session.Inbound
	outbound *session.Outbound
	manual   *session.Manual
	seed     *session.Seed
}

// New creates a Network from cfg. The address store is opened
// immediately; nothing else starts until Start is called.
func New(cfg *Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	store, err := addressstore.Open(cfg.AddressStorePath)
	if err != nil {
		return nil, fmt.Errorf("btcnet: open address store: %w", err)
	}

	pool := executor.NewPool(cfg.WorkerPoolSize)
	n := &Network{
		cfg:              cfg,
		pool:             pool,
		strand:           executor.NewStrand(pool),
		store:            store,
		events:           eventdispatch.NewDispatcher(64),
		pendingNonces:    make(map[uint64]struct{}),
		inboundChannels:  make(map[authority.Authority]*channel.Channel),
		outboundChannels: make(map[authority.Authority]*channel.Channel),
		statsTrackers:    make(map[authority.Authority]*channelStatsTracker),
	}
	return n, nil
}

// Strand returns the Network strand, satisfying session.NetworkHandle.
func (n *Network) Strand() *executor.Strand { return n.strand }

// Pend records nonce as pending, satisfying session.NetworkHandle.
// Returns false on collision, enforcing at most one pending channel per nonce.
func (n *Network) Pend(nonce uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.pendingNonces[nonce]; exists {
		return false
	}
	n.pendingNonces[nonce] = struct{}{}
	return true
}

// Unpend removes nonce from the pending set.
func (n *Network) Unpend(nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.pendingNonces, nonce)
}

// IsPendingNonce reports whether nonce is pending, satisfying both
// session.NetworkHandle and protocol.SelfConnectChecker.
func (n *Network) IsPendingNonce(nonce uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, exists := n.pendingNonces[nonce]
	return exists
}

// Store inserts ch into the channel table for its direction, enforcing
// at most one stored channel per authority per direction.
func (n *Network) Store(ch *channel.Channel, notify bool, inbound bool) errcode.Code {
	n.mu.Lock()
	table := n.outboundChannels
	if inbound {
		table = n.inboundChannels
	}
	if _, exists := table[ch.Remote()]; exists {
		n.mu.Unlock()
		return errcode.AddressInUse
	}
	table[ch.Remote()] = ch
	tracker, ok := n.statsTrackers[ch.Remote()]
	if !ok {
		tracker = newChannelStatsTracker()
		n.statsTrackers[ch.Remote()] = tracker
	}
	n.mu.Unlock()
	tracker.recordConnectionStart()

	direction := "outbound"
	if inbound {
		direction = "inbound"
	}
	n.cfg.Metrics.ChannelOpened(direction)

	if notify {
		n.events.Emit(eventdispatch.ChannelEvent{Authority: ch.Remote(), Inbound: inbound, Code: errcode.Success, Timestamp: now()})
	}
	return errcode.Success
}

// Unstore removes ch from the channel table for its direction.
func (n *Network) Unstore(ch *channel.Channel, inbound bool) error {
	n.mu.Lock()
	table := n.outboundChannels
	if inbound {
		table = n.inboundChannels
	}
	_, exists := table[ch.Remote()]
	if exists {
		delete(table, ch.Remote())
	}
	tracker := n.statsTrackers[ch.Remote()]
	n.mu.Unlock()
	if tracker != nil {
		tracker.recordConnectionEnd()
		if !exists {
			tracker.recordFailure()
		}
	}

	direction := "outbound"
	if inbound {
		direction = "inbound"
	}
	n.cfg.Metrics.ChannelClosed(direction)

	if !exists {
		n.cfg.Logger.Error("unstore: channel not present", "authority", ch.Remote().String(), "inbound", inbound)
		return ErrChannelNotFound
	}
	return nil
}

// InboundChannelCount reports the current inbound channel count,
// satisfying session.InboundCounter.
func (n *Network) InboundChannelCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.inboundChannels)
}

// Events returns the channel-lifecycle event stream.
func (n *Network) Events() <-chan eventdispatch.ChannelEvent { return n.events.Events() }

// InboundAddrs returns the bound address of every inbound listener.
// Empty before Start or when inbound listening is disabled.
func (n *Network) InboundAddrs() []string {
	n.mu.Lock()
	inbound := n.inbound
	n.mu.Unlock()
	if inbound == nil {
		return nil
	}
	return inbound.ListenAddrs()
}

func (n *Network) sessionConfig() session.Config {
	return session.Config{
		Magic:               n.cfg.NetworkMagic,
		MaxPayloadSize:      n.cfg.MaxPayloadSize,
		ProtocolMaximum:     n.cfg.ProtocolMaximum,
		ProtocolMinimum:     n.cfg.ProtocolMinimum,
		Services:            n.cfg.effectiveServices(),
		InvalidServices:     n.cfg.InvalidServices,
		MinimumServices:     n.cfg.MinimumServices,
		UserAgent:           n.cfg.UserAgent,
		StartHeight:         n.cfg.StartHeight,
		Relay:               n.cfg.RelayTransactions,
		RejectEnabled:       n.cfg.EnableReject,
		RejectLogger:        n.logReject,
		HandshakeTimeout:    n.cfg.ChannelHandshake,
		Timers:              n.cfg.channelTimers(),
		SendGetAddr:         true,
		Blacklisted:         n.isBlacklisted,
		Store:               n.store,
		Checker:             n,
		InboundConnections:  n.cfg.InboundConnections,
		OutboundConnections: n.cfg.OutboundConnections,
		BatchSize:           n.cfg.ConnectBatchSize,
		ConnectTimeout:      n.cfg.ConnectTimeout,
		AcceptRetryDelay:    n.cfg.AcceptRetryDelay,
		Whitelist:           n.cfg.Whitelists,
		Blacklist:           n.cfg.Blacklists,
	}
}

// logReject records an incoming reject frame at warn level.
func (n *Network) logReject(message string, code byte, reason string) {
	n.cfg.Logger.Warn("peer rejected message", "message", message, "code", code, "reason", reason)
}

func (n *Network) isBlacklisted(a authority.Authority) bool {
	for _, b := range n.cfg.Blacklists {
		if b == a {
			return true
		}
	}
	return false
}

// Start transitions the network from stopped to started: it
// runs a one-shot seed session if the address store is empty, then
// attaches inbound, outbound and manual sessions and begins their
// steady-state loops. handler is invoked once with the outcome.
func (n *Network) Start(handler func(error)) {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		handler(ErrNetworkAlreadyStarted)
		return
	}
	n.started = true
	n.mu.Unlock()

	cfg := n.sessionConfig()
	n.inbound = mustInbound(n, cfg)
	n.outbound = session.NewOutbound(n, n.pool, cfg)
	n.manual = session.NewManual(n, n.pool, cfg)
	n.seed = session.NewSeed(n, n.pool, cfg)

	if n.store.Count() == 0 && len(n.cfg.Seeds) > 0 {
		n.seed.Start(n.cfg.Seeds, func() {
			n.run(handler)
		})
		return
	}
	n.run(handler)
}

func mustInbound(n *Network, cfg session.Config) *session.Inbound {
	var addrs []string
	if n.cfg.InboundEnabled {
		addrs = []string{fmt.Sprintf(":%d", n.cfg.InboundPort)}
	}
	in, err := session.NewInbound(n, n, n.pool, cfg, addrs)
	if err != nil {
		n.cfg.Logger.Error("inbound session setup failed", "error", err)
		in, _ = session.NewInbound(n, n, n.pool, cfg, nil)
	}
	return in
}

// run posts the per-session
// steady-state loops and returns once all have started.
func (n *Network) run(handler func(error)) {
	n.inbound.Start(func(errcode.Code) {})
	n.outbound.Start(func(errcode.Code) {})
	for _, peer := range n.cfg.Peers {
		n.manual.Connect(peer, func(errcode.Code) {}, func(errcode.Code) {})
	}
	if handler != nil {
		handler(nil)
	}
}

// Stop signals stop on every session, closes the address store, and
// stops the executor. Idempotent.
func (n *Network) Stop() error {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return nil
	}
	n.stopped = true
	n.mu.Unlock()

	if n.inbound != nil {
		n.inbound.Stop()
	}
	if n.outbound != nil {
		n.outbound.Stop()
	}
	if n.manual != nil {
		n.manual.Stop()
	}
	if n.seed != nil {
		n.seed.Stop()
	}

	n.events.Close()
	_ = n.store.Close()

	n.pool.Stop()
	n.pool.Join()
	return nil
}

// Take, Fetch, Restore, Save and AddressCount are the address-store
// façade: they delegate to the external collaborator.
func (n *Network) Take(handler func(code errcode.Code, a authority.Authority)) {
	n.store.Take(handler)
}

func (n *Network) Fetch(handler func(code errcode.Code, addrs []authority.Authority)) {
	n.store.Fetch(handler)
}

func (n *Network) Restore(item wire.AddressItem, handler func(code errcode.Code)) {
	n.store.Restore(item, handler)
}

func (n *Network) Save(items []wire.AddressItem, handler func(code errcode.Code, accepted, filtered int)) {
	n.store.Save(items, handler)
}

func (n *Network) AddressCount() int { return n.store.Count() }

// now is a seam so tests could stub the clock; production always uses
// the wall clock.
func now() time.Time { return time.Now() }
