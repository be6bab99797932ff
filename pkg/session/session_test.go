package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockweave/btcnet/internal/executor"
	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/protocol"
	"github.com/blockweave/btcnet/pkg/socket"
	"github.com/blockweave/btcnet/pkg/wire"
)

var errChannelNotFound = errors.New("session_test: channel not found")

const testMagic uint32 = 0xD9B4BEF9

// fakeNetwork is a minimal NetworkHandle recording what a session
// does to it, without any of Network's own channel-table policy.
type fakeNetwork struct {
	strand *executor.Strand

	mu      sync.Mutex
	pending map[uint64]struct{}
	stored  map[*channel.Channel]bool
	inUse   authority.Authority
}

func newFakeNetwork(pool *executor.Pool) *fakeNetwork {
	return &fakeNetwork{
		strand:  executor.NewStrand(pool),
		pending: make(map[uint64]struct{}),
		stored:  make(map[*channel.Channel]bool),
	}
}

func (f *fakeNetwork) Strand() *executor.Strand { return f.strand }

func (f *fakeNetwork) Pend(nonce uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.pending[nonce]; exists {
		return false
	}
	f.pending[nonce] = struct{}{}
	return true
}

func (f *fakeNetwork) Unpend(nonce uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, nonce)
}

func (f *fakeNetwork) IsPendingNonce(nonce uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.pending[nonce]
	return exists
}

func (f *fakeNetwork) Store(ch *channel.Channel, notify bool, inbound bool) errcode.Code {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.stored) > 0 && f.inUse == ch.Remote() {
		return errcode.AddressInUse
	}
	f.stored[ch] = true
	f.inUse = ch.Remote()
	return errcode.Success
}

func (f *fakeNetwork) Unstore(ch *channel.Channel, inbound bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stored[ch] {
		return errChannelNotFound
	}
	delete(f.stored, ch)
	return nil
}

func testConfig(checker protocol.SelfConnectChecker) Config {
	return Config{
		Magic:               testMagic,
		ProtocolMaximum:     wire.Version70002,
		ProtocolMinimum:     wire.Version31402,
		UserAgent:           "/test:0.1/",
		HandshakeTimeout:    5 * time.Second,
		SendGetAddr:         false,
		Checker:             checker,
		ConnectTimeout:      time.Second,
		AcceptRetryDelay:    time.Millisecond,
		InboundConnections:  8,
		OutboundConnections: 8,
		BatchSize:           1,
	}
}

func newLoopbackSockets(t *testing.T, pool *executor.Pool) (client, server *socket.Socket, addr string) {
	t.Helper()

	acceptStrand := executor.NewStrand(pool)
	acceptor, err := socket.NewAcceptor(acceptStrand, "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(acceptor.Stop)

	serverStrand := executor.NewStrand(pool)
	accepted := make(chan *socket.Socket, 1)
	acceptor.Accept(serverStrand, func(code errcode.Code, s *socket.Socket) { accepted <- s })

	clientStrand := executor.NewStrand(pool)
	client = socket.New(clientStrand)
	connected := make(chan errcode.Code, 1)
	client.Connect([]string{acceptor.ListenAddr()}, func(code errcode.Code) { connected <- code })

	require.Equal(t, errcode.Success, <-connected)
	server = <-accepted
	return client, server, acceptor.ListenAddr()
}

func TestBaseStartChannelHandshakeAndStore(t *testing.T) {
	pool := executor.NewPool(8)
	t.Cleanup(pool.Stop)

	clientNet := newFakeNetwork(pool)
	serverNet := newFakeNetwork(pool)

	clientSock, serverSock, addr := newLoopbackSockets(t, pool)
	remote, err := authority.Parse(addr)
	require.NoError(t, err)

	codec := wire.NewCodec(testMagic)
	clientCh := channel.New(clientSock.Strand(), clientSock, codec, false, remote, wire.Version70002, channel.Timers{})
	serverCh := channel.New(serverSock.Strand(), serverSock, codec, true, authority.Zero, wire.Version70002, channel.Timers{})

	clientBase := NewBase(clientNet)
	serverBase := NewBase(serverNet)

	clientCfg := testConfig(clientNet)
	serverCfg := testConfig(serverNet)

	clientStarted := make(chan errcode.Code, 1)
	serverStarted := make(chan errcode.Code, 1)

	clientBase.StartChannel(clientCh, true, clientCfg.attachHandshake, clientCfg.attachProtocols,
		func(code errcode.Code) { clientStarted <- code }, nil)
	serverBase.StartChannel(serverCh, false, serverCfg.attachHandshake, serverCfg.attachProtocols,
		func(code errcode.Code) { serverStarted <- code }, nil)

	select {
	case code := <-clientStarted:
		require.Equal(t, errcode.Success, code)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client start")
	}
	select {
	case code := <-serverStarted:
		require.Equal(t, errcode.Success, code)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server start")
	}

	require.True(t, clientNet.stored[clientCh])
	require.True(t, serverNet.stored[serverCh])
	require.False(t, clientNet.IsPendingNonce(clientCh.Nonce()))
}

func TestBaseStartChannelFailsWhenStopped(t *testing.T) {
	pool := executor.NewPool(4)
	t.Cleanup(pool.Stop)

	net := newFakeNetwork(pool)
	base := NewBase(net)
	base.Stop()

	clientStrand := executor.NewStrand(pool)
	sock := socket.New(clientStrand)
	codec := wire.NewCodec(testMagic)
	ch := channel.New(clientStrand, sock, codec, false, authority.Zero, wire.Version70002, channel.Timers{})

	cfg := testConfig(net)
	startedCode := make(chan errcode.Code, 1)
	stoppedCode := make(chan errcode.Code, 1)
	base.StartChannel(ch, true, cfg.attachHandshake, cfg.attachProtocols,
		func(code errcode.Code) { startedCode <- code },
		func(code errcode.Code) { stoppedCode <- code },
	)

	require.Equal(t, errcode.ServiceStopped, <-startedCode)
	require.Equal(t, errcode.ServiceStopped, <-stoppedCode)
}

func TestBaseStartChannelOutboundNonceCollision(t *testing.T) {
	pool := executor.NewPool(4)
	t.Cleanup(pool.Stop)

	net := newFakeNetwork(pool)
	base := NewBase(net)

	clientStrand := executor.NewStrand(pool)
	sock := socket.New(clientStrand)
	codec := wire.NewCodec(testMagic)
	ch := channel.New(clientStrand, sock, codec, false, authority.Zero, wire.Version70002, channel.Timers{})

	require.True(t, net.Pend(ch.Nonce()))

	cfg := testConfig(net)
	startedCode := make(chan errcode.Code, 1)
	base.StartChannel(ch, true, cfg.attachHandshake, cfg.attachProtocols,
		func(code errcode.Code) { startedCode <- code }, nil)

	require.Equal(t, errcode.ChannelConflict, <-startedCode)
}

func TestBaseStopIsIdempotent(t *testing.T) {
	pool := executor.NewPool(2)
	t.Cleanup(pool.Stop)

	net := newFakeNetwork(pool)
	base := NewBase(net)

	fired := 0
	base.SubscribeStop(func(code errcode.Code) { fired++ })

	base.Stop()
	base.Stop()

	require.Equal(t, 1, fired)
	require.True(t, base.Stopped())
}
