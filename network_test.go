package btcnet

import (
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := &Config{}
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func newLifecycleConfig(t *testing.T) *Config {
	t.Helper()
	return NewConfig(0xD9B4BEF9, filepath.Join(t.TempDir(), "addresses.json"))
}

func TestNetworkStartStopLifecycle(t *testing.T) {
	n, err := New(newLifecycleConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	started := make(chan error, 1)
	n.Start(func(err error) { started <- err })

	select {
	case err := <-started:
		if err != nil {
			t.Fatalf("Start reported error: %v", err)
		}
	default:
	}

	if !n.IsHealthy() {
		t.Error("expected network to be healthy after start")
	}

	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n.IsHealthy() {
		t.Error("expected network to be unhealthy after stop")
	}

	// Stop is idempotent.
	if err := n.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestNetworkStartTwiceReportsError(t *testing.T) {
	n, err := New(newLifecycleConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()

	first := make(chan error, 1)
	n.Start(func(err error) { first <- err })
	<-first

	second := make(chan error, 1)
	n.Start(func(err error) { second <- err })
	if err := <-second; err != ErrNetworkAlreadyStarted {
		t.Errorf("expected ErrNetworkAlreadyStarted, got %v", err)
	}
}

func TestNetworkPendUnpend(t *testing.T) {
	n := newTestNetwork(t)

	if !n.Pend(42) {
		t.Fatal("expected first Pend to succeed")
	}
	if n.Pend(42) {
		t.Error("expected duplicate Pend to fail")
	}
	if !n.IsPendingNonce(42) {
		t.Error("expected nonce to be pending")
	}

	n.Unpend(42)
	if n.IsPendingNonce(42) {
		t.Error("expected nonce to no longer be pending")
	}
	if !n.Pend(42) {
		t.Error("expected Pend to succeed again after Unpend")
	}
}

func TestNetworkStoreRejectsDuplicateAuthority(t *testing.T) {
	n := newTestNetwork(t)
	ch := newTestChannelForStats(t, n)

	if code := n.Store(ch, false, false); code != errcode.Success {
		t.Fatalf("first Store returned %v", code)
	}
	if code := n.Store(ch, false, false); code != errcode.AddressInUse {
		t.Fatalf("expected AddressInUse on duplicate Store, got %v", code)
	}
}

func TestNetworkUnstoreReportsMissingChannel(t *testing.T) {
	n := newTestNetwork(t)
	ch := newTestChannelForStats(t, n)

	if err := n.Unstore(ch, false); err != ErrChannelNotFound {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestNetworkTwoNodeLoopbackHandshake(t *testing.T) {
	listenerCfg := NewConfig(0xD9B4BEF9, filepath.Join(t.TempDir(), "listener-addresses.json"))
	listenerCfg.InboundEnabled = true
	listenerCfg.InboundPort = 28333

	listener, err := New(listenerCfg)
	if err != nil {
		t.Fatalf("New(listener): %v", err)
	}
	defer listener.Stop()

	listenerStarted := make(chan error, 1)
	listener.Start(func(err error) { listenerStarted <- err })
	if err := <-listenerStarted; err != nil {
		t.Fatalf("listener Start: %v", err)
	}

	addrs := listener.InboundAddrs()
	if len(addrs) != 1 {
		t.Fatalf("expected one inbound listen address, got %v", addrs)
	}
	_, port, err := net.SplitHostPort(addrs[0])
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", addrs[0], err)
	}
	dialAddr := fmt.Sprintf("127.0.0.1:%s", port)

	dialerCfg := NewConfig(0xD9B4BEF9, filepath.Join(t.TempDir(), "dialer-addresses.json"), WithPeers(dialAddr))

	dialer, err := New(dialerCfg)
	if err != nil {
		t.Fatalf("New(dialer): %v", err)
	}
	defer dialer.Stop()

	dialerStarted := make(chan error, 1)
	dialer.Start(func(err error) { dialerStarted <- err })
	if err := <-dialerStarted; err != nil {
		t.Fatalf("dialer Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if listener.InboundChannelCount() > 0 && len(dialer.Stats()) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for handshake; listener inbound=%d, dialer stats=%v",
		listener.InboundChannelCount(), dialer.Stats())
}

func TestNetworkSessionConfigProjectsFields(t *testing.T) {
	n := newTestNetwork(t)
	n.cfg.ProtocolMaximum = wire.Version70002

	sc := n.sessionConfig()
	if sc.ProtocolMaximum != wire.Version70002 {
		t.Errorf("ProtocolMaximum = %v, want %v", sc.ProtocolMaximum, wire.Version70002)
	}
	if sc.Checker == nil {
		t.Error("expected Checker to be set")
	}
	if sc.Store == nil {
		t.Error("expected Store to be set")
	}
}
