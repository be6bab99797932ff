package btcnet

import (
	"sync"
	"testing"
	"time"

	"github.com/blockweave/btcnet/internal/eventdispatch"
	"github.com/blockweave/btcnet/pkg/errcode"
)

func newTestDispatcher(t *testing.T) *eventdispatch.Dispatcher {
	t.Helper()
	return eventdispatch.NewDispatcher(8)
}

func TestEventIsError(t *testing.T) {
	ok := Event{Code: errcode.Success}
	if ok.IsError() {
		t.Error("expected Success event to not be an error")
	}

	bad := Event{Code: errcode.ConnectFailed}
	if !bad.IsError() {
		t.Error("expected ConnectFailed event to be an error")
	}
}

func TestNetworkSubscribeDeliversEvents(t *testing.T) {
	n := &Network{events: newTestDispatcher(t)}

	var mu sync.Mutex
	var received []Event
	cancel := n.Subscribe(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})
	defer cancel()

	a := testAuthority(t)
	n.events.Emit(Event{Authority: a, Code: errcode.Success, Timestamp: time.Now()})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := len(received)
		mu.Unlock()
		if got == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 event delivered, got %d", len(received))
	}
	if received[0].Authority != a {
		t.Errorf("Authority = %v, want %v", received[0].Authority, a)
	}
}

func TestNetworkSubscribeCancelStopsDelivery(t *testing.T) {
	n := &Network{events: newTestDispatcher(t)}

	var mu sync.Mutex
	count := 0
	cancel := n.Subscribe(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	cancel()

	n.events.Emit(Event{Code: errcode.Success, Timestamp: time.Now()})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("expected no events after cancel, got %d", count)
	}
}
