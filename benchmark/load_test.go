// Package benchmark measures wire codec throughput under load: encode
// and decode cost across payload sizes, and codec use from concurrent
// goroutines the way the read/write loops in pkg/channel drive it.
package benchmark

import (
	"fmt"
	"sync"
	"testing"

	"github.com/blockweave/btcnet/pkg/wire"
)

const loadMagic = 0xD9B4BEF9

func addrMessageOfSize(items int) *wire.AddrMessage {
	msg := &wire.AddrMessage{Items: make([]wire.AddressItem, items)}
	for i := range msg.Items {
		msg.Items[i] = wire.AddressItem{Timestamp: uint32(i), Services: 1, Port: uint16(8333 + i%1000)}
	}
	return msg
}

// BenchmarkMessagePath/1Items through /1000Items encode and decode an
// addr message at varying item counts, mirroring how large gossip
// batches from a well-connected peer compare to small trickle updates.
func BenchmarkMessagePath(b *testing.B) {
	for _, n := range []int{1, 10, 100, 500, 1000} {
		b.Run(fmt.Sprintf("%dItems", n), func(b *testing.B) {
			codec := wire.NewCodec(loadMagic)
			msg := addrMessageOfSize(n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				encoded, err := codec.Encode(msg, wire.Version70002)
				if err != nil {
					b.Fatalf("encode failed: %v", err)
				}
				heading, payload := encoded[:wire.HeadingSize], encoded[wire.HeadingSize:]
				if _, err := codec.Decode(heading, payload, wire.Version70002); err != nil {
					b.Fatalf("decode failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkPingPongPath benchmarks the small fixed-size messages
// exchanged continuously on every established channel.
func BenchmarkPingPongPath(b *testing.B) {
	codec := wire.NewCodec(loadMagic)
	ping := &wire.PingMessage{Nonce: 42, HasNonce: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		encoded, err := codec.Encode(ping, wire.Version70002)
		if err != nil {
			b.Fatalf("encode failed: %v", err)
		}
		heading, payload := encoded[:wire.HeadingSize], encoded[wire.HeadingSize:]
		if _, err := codec.Decode(heading, payload, wire.Version70002); err != nil {
			b.Fatalf("decode failed: %v", err)
		}
	}
}

// BenchmarkConcurrentEncode measures Codec.Encode under contention from
// many goroutines, approximating one write loop per channel fanning out
// address gossip to every connected peer at once.
func BenchmarkConcurrentEncode(b *testing.B) {
	codec := wire.NewCodec(loadMagic)
	msg := addrMessageOfSize(50)

	for _, workers := range []int{1, 8, 64} {
		b.Run(fmt.Sprintf("%dWorkers", workers), func(b *testing.B) {
			b.ResetTimer()
			var wg sync.WaitGroup
			perWorker := b.N / workers
			if perWorker == 0 {
				perWorker = 1
			}
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						if _, err := codec.Encode(msg, wire.Version70002); err != nil {
							b.Error(err)
							return
						}
					}
				}()
			}
			wg.Wait()
		})
	}
}
