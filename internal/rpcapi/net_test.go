package rpcapi

import (
	"testing"

	"github.com/eratestnode/eratestnode/internal/node"
)

func TestNetVersionMatchesChainID(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	result, err := netVersion(n, nil)
	if err != nil {
		t.Fatalf("netVersion: %v", err)
	}
	if result != "270" {
		t.Fatalf("net_version = %v, want 270", result)
	}
}

func TestNetPeerCountIsZero(t *testing.T) {
	result, _ := netPeerCount(nil, nil)
	if result != "0x0" {
		t.Fatalf("net_peerCount = %v, want 0x0", result)
	}
}

func TestNetListeningIsTrue(t *testing.T) {
	result, _ := netListening(nil, nil)
	if result != true {
		t.Fatalf("net_listening = %v, want true", result)
	}
}
