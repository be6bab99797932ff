package btcnet

import (
	"sync"

	"github.com/blockweave/btcnet/internal/eventdispatch"
)

// Event is a channel-lifecycle notification broadcast by a Network:
// a channel was stored (connected) or stopped, along with the reason.
type Event = eventdispatch.ChannelEvent

// Subscribe starts a goroutine that delivers every event from n's
// stream to handler until the Network stops or cancel is called.
// handler must not block for long; a slow handler falls behind and
// events beyond the dispatcher's buffer are dropped, not queued.
func (n *Network) Subscribe(handler func(Event)) (cancel func()) {
	done := make(chan struct{})
	go func() {
		events := n.Events()
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case <-done:
					return
				default:
				}
				handler(evt)
			case <-done:
				return
			}
		}
	}()
	var closeOnce sync.Once
	return func() { closeOnce.Do(func() { close(done) }) }
}
