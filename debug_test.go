package btcnet

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNetworkDumpState(t *testing.T) {
	n := newTestNetwork(t)

	state := n.DumpState()
	if state.NetworkMagic != n.cfg.NetworkMagic {
		t.Errorf("NetworkMagic = %x, want %x", state.NetworkMagic, n.cfg.NetworkMagic)
	}
	if state.InboundChannels != 0 || state.OutboundChannels != 0 {
		t.Error("expected zero channels on a fresh network")
	}
}

func TestNetworkDumpStateJSON(t *testing.T) {
	n := newTestNetwork(t)

	data, err := n.DumpStateJSON()
	if err != nil {
		t.Fatalf("DumpStateJSON: %v", err)
	}
	var decoded DebugState
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
}

func TestNetworkDumpStateString(t *testing.T) {
	n := newTestNetwork(t)

	out := n.DumpStateString()
	if !strings.Contains(out, "CHANNELS:") {
		t.Error("expected dump to mention channels")
	}
	if !strings.Contains(out, "CONFIGURATION:") {
		t.Error("expected dump to mention configuration")
	}
}

func TestNetworkConnectionSummary(t *testing.T) {
	n := newTestNetwork(t)

	summary := n.ConnectionSummary()
	if summary["inbound"] != 0 || summary["outbound"] != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
}
