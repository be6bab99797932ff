package session

import (
	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/socket"
)

// InboundCounter reports the current inbound channel count, so the
// accept loop can enforce the inbound_connections cap.
type InboundCounter interface {
	InboundChannelCount() int
}

// Inbound owns one acceptor per configured local listen address and
// runs the accept loop.
type Inbound struct {
	*Base
	cfg     Config
	pool    *executor.Pool
	counter InboundCounter

	acceptors []*socket.Acceptor
}

// NewInbound creates an inbound session bound to network, listening on
// each of addrs (host:port strings).
func NewInbound(network NetworkHandle, counter InboundCounter, pool *executor.Pool, cfg Config, addrs []string) (*Inbound, error) {
	in := &Inbound{Base: NewBase(network), cfg: cfg, pool: pool, counter: counter}
	acceptorStrand := executor.NewStrand(pool)
	for _, addr := range addrs {
		acceptor, err := socket.NewAcceptor(acceptorStrand, addr)
		if err != nil {
			for _, a := range in.acceptors {
				a.Stop()
			}
			return nil, err
		}
		in.acceptors = append(in.acceptors, acceptor)
	}
	return in, nil
}

// Start begins the accept loop on every acceptor. Bypassed with no
// acceptors configured.
func (in *Inbound) Start(started func(errcode.Code)) {
	if len(in.acceptors) == 0 {
		if started != nil {
			started(errcode.Bypassed)
		}
		return
	}
	for _, acceptor := range in.acceptors {
		in.startAccept(acceptor)
	}
	if started != nil {
		started(errcode.Success)
	}
}

// Stop halts every acceptor in addition to the common session teardown.
func (in *Inbound) Stop() {
	for _, a := range in.acceptors {
		a.Stop()
	}
	in.Base.Stop()
}

// ListenAddrs returns the bound address of every acceptor, in the order
// they were configured. Useful for discovering the actual port chosen
// when an acceptor was configured to listen on port 0.
func (in *Inbound) ListenAddrs() []string {
	addrs := make([]string, len(in.acceptors))
	for i, a := range in.acceptors {
		addrs[i] = a.ListenAddr()
	}
	return addrs
}

func (in *Inbound) startAccept(acceptor *socket.Acceptor) {
	channelStrand := executor.NewStrand(in.pool)
	acceptor.Accept(channelStrand, func(code errcode.Code, sock *socket.Socket) {
		if in.Stopped() {
			if sock != nil {
				sock.Stop()
			}
			return
		}
		if code != errcode.Success {
			delayRetry(in.cfg.AcceptRetryDelay, func() { in.startAccept(acceptor) })
			return
		}
		in.onAccepted(sock)
		in.startAccept(acceptor)
	})
}

func (in *Inbound) onAccepted(sock *socket.Socket) {
	remote, err := authority.Parse(sock.RemoteAddr())
	if err != nil {
		sock.Stop()
		return
	}

	if len(in.cfg.Whitelist) > 0 && !containsAuthority(in.cfg.Whitelist, remote) {
		sock.Stop()
		return
	}
	if containsAuthority(in.cfg.Blacklist, remote) {
		sock.Stop()
		return
	}
	if in.counter != nil && in.counter.InboundChannelCount() >= in.cfg.InboundConnections {
		sock.Stop()
		return
	}

	ch := channel.New(sock.Strand(), sock, in.cfg.codec(), true, remote, in.cfg.ProtocolMaximum, in.cfg.Timers)
	in.StartChannel(ch, false, in.cfg.attachHandshake, in.cfg.attachProtocols, nil, nil)
}

func containsAuthority(list []authority.Authority, a authority.Authority) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}
