package rpcapi

import (
	"testing"

	"github.com/eratestnode/eratestnode/internal/node"
)

func TestNewRegistryWiresExpectedNamespaces(t *testing.T) {
	r := NewRegistry()
	methods := r.Methods()
	if len(methods) == 0 {
		t.Fatal("expected a non-empty method registry")
	}
	want := []string{
		"eth_chainId", "eth_getBalance", "net_version", "web3_clientVersion",
		"zks_L1ChainId", "evm_mine", "debug_traceCall", "hardhat_setBalance",
		"anvil_setBalance", "config_getShowCalls",
	}
	have := make(map[string]bool, len(methods))
	for _, m := range methods {
		have[m] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Fatalf("expected method %q to be registered", w)
		}
	}
}

func TestRegistryCallDispatchesAndReportsUnknownMethod(t *testing.T) {
	r := NewRegistry()
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}

	result, err := r.Call(n, "net_version", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result == nil {
		t.Fatal("expected a non-nil result")
	}

	_, err = r.Call(n, "does_not_exist", nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered method")
	}
	if rpcErr := toRPCError(err); rpcErr.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found code, got %d", rpcErr.Code)
	}
}

func TestMethodsListIsSorted(t *testing.T) {
	r := NewRegistry()
	methods := r.Methods()
	for i := 1; i < len(methods); i++ {
		if methods[i-1] > methods[i] {
			t.Fatalf("Methods() not sorted: %q came before %q", methods[i-1], methods[i])
		}
	}
}
