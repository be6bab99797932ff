package protocol

import (
	"sync"

	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

// AddressStore is the subset of the external address-store contract
// this protocol needs: saving a batch of gossiped addresses and being
// told how many were accepted versus filtered.
type AddressStore interface {
	Save(items []wire.AddressItem, handler func(code errcode.Code, accepted, filtered int))
}

// AddressGossipConfig configures the address_in_31402 protocol.
type AddressGossipConfig struct {
	SendGetAddr bool
	Store       AddressStore
	Blacklisted func(authority.Authority) bool
	Self        authority.Authority
}

// AddressGossip implements the address_in_31402 protocol: an optional
// one-time getaddr, and filtered ingestion of incoming addr messages
// into the address store.
type AddressGossip struct {
	ch  *channel.Channel
	cfg AddressGossipConfig

	once sync.Once
}

// NewAddressGossip creates an AddressGossip protocol for ch.
func NewAddressGossip(ch *channel.Channel, cfg AddressGossipConfig) *AddressGossip {
	return &AddressGossip{ch: ch, cfg: cfg}
}

// Start optionally sends one getaddr and subscribes to incoming addr
// messages.
func (g *AddressGossip) Start() {
	g.ch.Subscribe("addr", g.onAddr)

	if g.cfg.SendGetAddr {
		g.once.Do(func() {
			g.ch.Send(&wire.GetAddrMessage{}, nil)
		})
	}
}

// onAddr filters incoming entries (drop unspecified, port 0, self,
// blacklisted; cap count) and forwards the survivors to the address
// store.
func (g *AddressGossip) onAddr(code errcode.Code, msg wire.Message) bool {
	if code != errcode.Success {
		return true
	}
	addr := msg.(*wire.AddrMessage)

	accepted := make([]wire.AddressItem, 0, len(addr.Items))
	filtered := 0
	for _, item := range addr.Items {
		a := item.Authority()
		switch {
		case a.IsUnspecified():
			filtered++
		case item.Port == 0:
			filtered++
		case a.Equal(g.cfg.Self):
			filtered++
		case g.cfg.Blacklisted != nil && g.cfg.Blacklisted(a):
			filtered++
		case len(accepted) >= wire.MaxAddrItems:
			filtered++
		default:
			accepted = append(accepted, item)
		}
	}

	if g.cfg.Store != nil && len(accepted) > 0 {
		g.cfg.Store.Save(accepted, func(code errcode.Code, saved, storeFiltered int) {
			// diagnostics only; the read loop does not depend on the
			// outcome of the save.
		})
	}

	return true
}
