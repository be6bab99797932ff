package protocol

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

func TestRejectLogsIncomingReject(t *testing.T) {
	client, server := newLoopbackChannels(t)
	client.Start()
	server.Start()
	t.Cleanup(func() { client.Stop(errcode.Success); server.Stop(errcode.Success) })

	var mu sync.Mutex
	var gotMessage, gotReason string
	var gotCode byte
	logged := make(chan struct{}, 1)

	r := NewReject(server, func(message string, code byte, reason string) {
		mu.Lock()
		gotMessage, gotCode, gotReason = message, code, reason
		mu.Unlock()
		logged <- struct{}{}
	})
	server.Strand().Post(r.Start)

	client.Send(&wire.RejectMessage{Message: "tx", Code: 0x40, Reason: "dust"}, nil)

	select {
	case <-logged:
	case <-time.After(2 * time.Second):
		t.Fatal("reject was never logged")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "tx", gotMessage)
	assert.Equal(t, byte(0x40), gotCode)
	assert.Equal(t, "dust", gotReason)
}

func TestRejectWithoutLoggerDoesNotPanic(t *testing.T) {
	client, server := newLoopbackChannels(t)
	client.Start()
	server.Start()
	t.Cleanup(func() { client.Stop(errcode.Success); server.Stop(errcode.Success) })

	r := NewReject(server, nil)
	server.Strand().Post(r.Start)

	received := make(chan struct{}, 1)
	server.Subscribe("reject", func(code errcode.Code, msg wire.Message) bool {
		received <- struct{}{}
		return true
	})

	client.Send(&wire.RejectMessage{Message: "block", Code: 0x10, Reason: "bad-header"}, nil)

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("reject subscriber never fired")
	}
}
