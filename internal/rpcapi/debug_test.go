package rpcapi

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/eratestnode/eratestnode/internal/node"
)

func TestDebugTraceTransactionAfterSendRawTransaction(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	n.SetBalance(from, big.NewInt(1_000_000_000_000_000))
	to := common.HexToAddress("0xAB")

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(7),
	})
	signer := types.NewEIP155Signer(big.NewInt(1))
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		t.Fatalf("SignTx: %v", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	result, err := ethSendRawTransaction(n, []json.RawMessage{rawParam(t, hexBytes(raw))})
	if err != nil {
		t.Fatalf("ethSendRawTransaction: %v", err)
	}
	hashStr := result.(string)

	_, err = debugTraceTransaction(n, []json.RawMessage{rawParam(t, hashStr)})
	if err != nil {
		t.Fatalf("debugTraceTransaction: %v", err)
	}
}

func TestDebugTraceTransactionUnknownHash(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	bogus := common.HexToHash("0x01")
	_, err = debugTraceTransaction(n, []json.RawMessage{rawParam(t, hexHash(bogus))})
	if err == nil {
		t.Fatal("expected an error for an unknown transaction hash")
	}
}

func TestDebugTraceCallFormatsResult(t *testing.T) {
	n, err := node.New(node.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	to := common.HexToAddress("0xCD")
	callParam := rawParam(t, map[string]interface{}{
		"to": hexAddress(to),
	})
	result, err := debugTraceCall(n, []json.RawMessage{callParam})
	if err != nil {
		t.Fatalf("debugTraceCall: %v", err)
	}
	if _, ok := result.(*traceResult); !ok {
		t.Fatalf("expected *traceResult, got %T", result)
	}
}
