package rpcapi

import (
	"encoding/json"
	"testing"

	"github.com/eratestnode/eratestnode/internal/node"
)

func TestConfigShowCallsRoundTrip(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}

	got, _ := configGetShowCalls(n, nil)
	if got != false {
		t.Fatalf("initial ShowCalls = %v, want false", got)
	}

	param, _ := json.Marshal(true)
	if _, err := configSetShowCalls(n, []json.RawMessage{param}); err != nil {
		t.Fatalf("configSetShowCalls: %v", err)
	}
	got, _ = configGetShowCalls(n, nil)
	if got != true {
		t.Fatalf("ShowCalls after set = %v, want true", got)
	}
}

func TestConfigSetLogLevelAndLogging(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	levelParam, _ := json.Marshal("debug")
	if _, err := configSetLogLevel(n, []json.RawMessage{levelParam}); err != nil {
		t.Fatalf("configSetLogLevel: %v", err)
	}
	loggingParam, _ := json.Marshal(false)
	if _, err := configSetLogging(n, []json.RawMessage{loggingParam}); err != nil {
		t.Fatalf("configSetLogging: %v", err)
	}
}

func TestConfigGetCurrentTimestampIsHex(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	result, err := configGetCurrentTimestamp(n, nil)
	if err != nil {
		t.Fatalf("configGetCurrentTimestamp: %v", err)
	}
	s, ok := result.(string)
	if !ok || len(s) < 3 || s[:2] != "0x" {
		t.Fatalf("expected a 0x-prefixed hex string, got %v", result)
	}
}
