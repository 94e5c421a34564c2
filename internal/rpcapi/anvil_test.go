package rpcapi

import (
	"encoding/json"
	"testing"

	"github.com/eratestnode/eratestnode/internal/node"
)

func TestAnvilMineAdvancesByRequestedCount(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	before := n.BlockNumber()
	countParam, _ := json.Marshal(hexInt(3))
	if _, err := anvilMine(n, []json.RawMessage{countParam}); err != nil {
		t.Fatalf("anvilMine: %v", err)
	}
	if n.BlockNumber() != before+3 {
		t.Fatalf("block number = %d, want %d", n.BlockNumber(), before+3)
	}
}

func TestAnvilMineWithIntervalSpacesBlockTimestamps(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	before := n.BlockNumber()
	countParam, _ := json.Marshal(hexInt(10))
	intervalParam, _ := json.Marshal(hexUint64(1))
	if _, err := anvilMine(n, []json.RawMessage{countParam, intervalParam}); err != nil {
		t.Fatalf("anvilMine: %v", err)
	}

	first, ok := n.BlockByNumber(before + 1)
	if !ok {
		t.Fatalf("missing block %d", before+1)
	}
	last, ok := n.BlockByNumber(before + 10)
	if !ok {
		t.Fatalf("missing block %d", before+10)
	}
	spread := last.Header.Timestamp - first.Header.Timestamp
	if spread != 9 {
		t.Fatalf("timestamp spread = %d, want 9 (10 blocks, 1s interval)", spread)
	}
}

func TestAnvilResetWithNoForkingResetsChain(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	if _, err := anvilMine(n, []json.RawMessage{mustMarshal(t, hexInt(5))}); err != nil {
		t.Fatalf("anvilMine: %v", err)
	}
	if n.BlockNumber() == 0 {
		t.Fatal("expected head to have advanced before reset")
	}

	param := mustMarshal(t, map[string]interface{}{})
	if _, err := anvilReset(n, []json.RawMessage{param}); err != nil {
		t.Fatalf("anvilReset: %v", err)
	}
	if n.BlockNumber() != 0 {
		t.Fatalf("block number after reset = %d, want 0", n.BlockNumber())
	}
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
