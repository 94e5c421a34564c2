package rpcapi

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eratestnode/eratestnode/internal/node"
)

func TestHardhatSetBalanceSetCodeSetNonce(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	addr := common.HexToAddress("0x1234")

	balParam, _ := json.Marshal(hexAddress(addr))
	amountParam, _ := json.Marshal("0x2a")
	if _, err := hardhatSetBalance(n, []json.RawMessage{balParam, amountParam}); err != nil {
		t.Fatalf("hardhatSetBalance: %v", err)
	}
	got, err := n.GetBalance(addr)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if got.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("balance = %v, want 42", got)
	}

	codeParam, _ := json.Marshal("0x6001")
	if _, err := hardhatSetCode(n, []json.RawMessage{balParam, codeParam}); err != nil {
		t.Fatalf("hardhatSetCode: %v", err)
	}
	code, err := n.GetCode(addr)
	if err != nil {
		t.Fatalf("GetCode: %v", err)
	}
	if len(code) != 2 {
		t.Fatalf("code length = %d, want 2", len(code))
	}

	nonceParam, _ := json.Marshal(hexUint64(7))
	if _, err := hardhatSetNonce(n, []json.RawMessage{balParam, nonceParam}); err != nil {
		t.Fatalf("hardhatSetNonce: %v", err)
	}
	nonce, err := n.GetNonce(addr)
	if err != nil {
		t.Fatalf("GetNonce: %v", err)
	}
	if nonce != 7 {
		t.Fatalf("nonce = %d, want 7", nonce)
	}
}

func TestHardhatImpersonationIsIdempotent(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	addr := common.HexToAddress("0x5678")
	addrParam, _ := json.Marshal(hexAddress(addr))

	if _, err := hardhatImpersonateAccount(n, []json.RawMessage{addrParam}); err != nil {
		t.Fatalf("hardhatImpersonateAccount: %v", err)
	}
	if _, err := hardhatImpersonateAccount(n, []json.RawMessage{addrParam}); err != nil {
		t.Fatalf("hardhatImpersonateAccount (again): %v", err)
	}
	if !n.IsImpersonating(addr) {
		t.Fatal("expected account to be impersonated")
	}

	first, err := hardhatStopImpersonatingAccount(n, []json.RawMessage{addrParam})
	if err != nil {
		t.Fatalf("hardhatStopImpersonatingAccount: %v", err)
	}
	if first != true {
		t.Fatalf("first stop = %v, want true", first)
	}
	second, err := hardhatStopImpersonatingAccount(n, []json.RawMessage{addrParam})
	if err != nil {
		t.Fatalf("hardhatStopImpersonatingAccount (again): %v", err)
	}
	if second != false {
		t.Fatalf("second stop = %v, want false", second)
	}
}

func TestHardhatMineDefaultsToOneBlock(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	before := n.BlockNumber()
	if _, err := hardhatMine(n, nil); err != nil {
		t.Fatalf("hardhatMine: %v", err)
	}
	if n.BlockNumber() != before+1 {
		t.Fatalf("block number = %d, want %d", n.BlockNumber(), before+1)
	}
}
