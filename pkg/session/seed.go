package session

import (
	"sync/atomic"

	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/protocol"
	"github.com/blockweave/btcnet/pkg/socket"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Seed is a short-lived session used only to populate the address
// store when it is empty at start: it connects to each
// configured seed endpoint, shakes, attaches only address-gossip, sends
// get_address once, then closes the channel.
type Seed struct {
	*Base
	cfg  Config
	pool *executor.Pool
}

// NewSeed creates a seed session bound to network.
func NewSeed(network NetworkHandle, pool *executor.Pool, cfg Config) *Seed {
	return &Seed{Base: NewBase(network), cfg: cfg, pool: pool}
}

// Start dials every seed endpoint once. done is invoked after all
// endpoints have either shaken and gossiped or failed.
func (sd *Seed) Start(endpoints []string, done func()) {
	if len(endpoints) == 0 {
		if done != nil {
			done()
		}
		return
	}
	// Each endpoint's completion runs on its own strand, so remaining
	// must be an atomic counter rather than a bare int.
	var remaining atomic.Int32
	remaining.Store(int32(len(endpoints)))
	finish := func() {
		if remaining.Add(-1) == 0 && done != nil {
			done()
		}
	}
	for _, ep := range endpoints {
		sd.connect(ep, finish)
	}
}

func (sd *Seed) connect(endpoint string, finish func()) {
	remote, err := authority.Parse(endpoint)
	if err != nil {
		finish()
		return
	}

	channelStrand := executor.NewStrand(sd.pool)
	sock := socket.New(channelStrand)
	sock.Connect([]string{remote.String()}, func(code errcode.Code) {
		if code != errcode.Success {
			finish()
			return
		}
		ch := channel.New(sock.Strand(), sock, sd.cfg.codec(), false, remote, sd.cfg.ProtocolMaximum, sd.cfg.Timers)
		sd.StartChannel(ch, true, sd.cfg.attachHandshake, sd.attachSeedProtocols, func(errcode.Code) {}, func(errcode.Code) {
			finish()
		})
	})
}

// attachSeedProtocols attaches only address-gossip with get_address
// forced on, then arms a one-shot stop once the store has had a chance
// to receive a response.
func (sd *Seed) attachSeedProtocols(ch *channel.Channel) {
	protocol.NewAddressGossip(ch, protocol.AddressGossipConfig{
		SendGetAddr: true,
		Store:       storeAdapter{sd.cfg.Store},
		Blacklisted: sd.cfg.Blacklisted,
		Self:        sd.cfg.Local,
	}).Start()

	ch.Subscribe("addr", func(code errcode.Code, msg wire.Message) bool {
		ch.Stop(errcode.Success)
		return false
	})
}
