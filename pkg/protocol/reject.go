package protocol

import (
	"github.com/blockweave/btcnet/pkg/channel"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

// RejectLogger receives a description of a peer's rejection so the
// caller can surface it however it logs.
type RejectLogger func(message string, code byte, reason string)

// Reject implements the passive reject protocol (tier >= 70002): it
// subscribes and logs, and never generates rejects itself.
type Reject struct {
	ch  *channel.Channel
	log RejectLogger
}

// NewReject creates a Reject protocol for ch.
func NewReject(ch *channel.Channel, log RejectLogger) *Reject {
	return &Reject{ch: ch, log: log}
}

// Start subscribes to incoming reject messages.
func (r *Reject) Start() {
	r.ch.Subscribe("reject", r.onReject)
}

func (r *Reject) onReject(code errcode.Code, msg wire.Message) bool {
	if code != errcode.Success {
		return true
	}
	rej := msg.(*wire.RejectMessage)
	if r.log != nil {
		r.log(rej.Message, rej.Code, rej.Reason)
	}
	return true
}
