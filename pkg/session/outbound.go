package session

import (
	"sync"
	"time"

	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/socket"
	"github.com/blockweave/btcnet/pkg/wire"
)

// wireItemFor rebuilds a minimal address item for restoring an
// authority consumed by Take back into the store after a failed
// connect attempt.
func wireItemFor(a authority.Authority) wire.AddressItem {
	return wire.AddressItemFrom(a, uint32(time.Now().Unix()), 0)
}

// Outbound maintains exactly cfg.OutboundConnections simultaneously
// shaking-or-active channels, each held up by an independent batch
// connect.
type Outbound struct {
	*Base
	cfg  Config
	pool *executor.Pool
}

// NewOutbound creates an outbound session bound to network.
func NewOutbound(network NetworkHandle, pool *executor.Pool, cfg Config) *Outbound {
	return &Outbound{Base: NewBase(network), cfg: cfg, pool: pool}
}

// Start fills every outbound slot with a fresh batch. Bypassed when the
// outbound count is zero; address_not_found when the store is empty.
func (ob *Outbound) Start(started func(errcode.Code)) {
	if ob.cfg.OutboundConnections <= 0 {
		if started != nil {
			started(errcode.Bypassed)
		}
		return
	}
	if ob.cfg.Store != nil && ob.cfg.Store.Count() == 0 {
		if started != nil {
			started(errcode.AddressNotFound)
		}
		return
	}
	for slot := 0; slot < ob.cfg.OutboundConnections; slot++ {
		ob.startBatch(slot)
	}
	if started != nil {
		started(errcode.Success)
	}
}

// batch tracks one outstanding batch-connect attempt: the first
// connector to succeed wins, guarded by a sync.Once so every other
// connector in the batch is stopped exactly once.
type batch struct {
	mu        sync.Mutex
	winOnce   sync.Once
	won       bool
	remaining int
	sockets   map[*socket.Socket]struct{}
}

func (ob *Outbound) startBatch(slot int) {
	if ob.Stopped() {
		return
	}
	size := ob.cfg.BatchSize
	if size <= 0 {
		size = 1
	}
	b := &batch{remaining: size, sockets: make(map[*socket.Socket]struct{})}

	for i := 0; i < size; i++ {
		ob.startConnector(slot, b)
	}
}

func (ob *Outbound) startConnector(slot int, b *batch) {
	if ob.cfg.Store == nil {
		ob.connectorFailed(slot, b, nil)
		return
	}
	ob.cfg.Store.Take(func(code errcode.Code, addr authority.Authority) {
		if code != errcode.Success {
			ob.connectorFailed(slot, b, nil)
			return
		}
		if ob.cfg.Blacklisted != nil && ob.cfg.Blacklisted(addr) {
			ob.connectorFailed(slot, b, nil)
			return
		}

		channelStrand := executor.NewStrand(ob.pool)
		sock := socket.New(channelStrand)
		b.mu.Lock()
		b.sockets[sock] = struct{}{}
		b.mu.Unlock()

		sock.Connect([]string{addr.String()}, func(code errcode.Code) {
			if code != errcode.Success {
				ob.cfg.Store.Restore(wireItemFor(addr), func(errcode.Code) {})
				ob.connectorFailed(slot, b, sock)
				return
			}
			ob.connectorWon(slot, b, sock, addr)
		})
	})
}

// connectorFailed retires one connector from the batch. A loser's dial
// can still complete after connectorWon has already stopped it, so this
// checks b.won under the same lock connectorWon sets it under: once a
// batch has a winner, a late failure must not touch remaining or
// trigger another startBatch/delayRetry for a slot that's already
// filled.
func (ob *Outbound) connectorFailed(slot int, b *batch, sock *socket.Socket) {
	b.mu.Lock()
	if b.won {
		b.mu.Unlock()
		return
	}
	if sock != nil {
		delete(b.sockets, sock)
	}
	b.remaining--
	exhausted := b.remaining == 0
	b.mu.Unlock()

	if exhausted {
		delayRetry(ob.cfg.ConnectTimeout, func() { ob.startBatch(slot) })
	}
}

func (ob *Outbound) connectorWon(slot int, b *batch, winner *socket.Socket, remote authority.Authority) {
	b.winOnce.Do(func() {
		b.mu.Lock()
		b.won = true
		losers := make([]*socket.Socket, 0, len(b.sockets))
		for s := range b.sockets {
			if s != winner {
				losers = append(losers, s)
			}
		}
		b.mu.Unlock()
		for _, s := range losers {
			s.Stop()
		}

		ch := channel.New(winner.Strand(), winner, ob.cfg.codec(), false, remote, ob.cfg.ProtocolMaximum, ob.cfg.Timers)
		ob.StartChannel(ch, true, ob.cfg.attachHandshake, ob.cfg.attachProtocols, nil, func(errcode.Code) {
			ob.startBatch(slot)
		})
	})
}
