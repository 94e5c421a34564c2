package zktx

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

func TestDecodeLegacyTransaction(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	to := crypto.PubkeyToAddress(key.PublicKey)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    3,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(5000),
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

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Nonce != 3 {
		t.Fatalf("nonce = %d, want 3", decoded.Nonce)
	}
	if decoded.Value.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("value = %s, want 5000", decoded.Value)
	}
	if *decoded.To != to {
		t.Fatalf("to = %s, want %s", decoded.To, to)
	}
}

func TestDecodeEIP712Envelope(t *testing.T) {
	fromKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	toKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	from := crypto.PubkeyToAddress(fromKey.PublicKey)
	to := crypto.PubkeyToAddress(toKey.PublicKey)

	fields := []interface{}{
		uint64(7),
		big.NewInt(2_000_000_000),
		big.NewInt(200_000),
		to.Bytes(),
		big.NewInt(123),
		[]byte("hello"),
		from.Bytes(),
		big.NewInt(270),
	}
	body, err := rlp.EncodeToBytes(fields)
	if err != nil {
		t.Fatalf("EncodeToBytes: %v", err)
	}
	raw := append([]byte{EIP712TxType}, body...)

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.TxType != EIP712TxType {
		t.Fatalf("tx type = %x, want %x", decoded.TxType, EIP712TxType)
	}
	if decoded.Nonce != 7 {
		t.Fatalf("nonce = %d, want 7", decoded.Nonce)
	}
	if decoded.From != from {
		t.Fatalf("from = %s, want %s", decoded.From, from)
	}
	if decoded.To == nil || *decoded.To != to {
		t.Fatalf("to mismatch")
	}
	if string(decoded.Data) != "hello" {
		t.Fatalf("data = %q, want %q", decoded.Data, "hello")
	}
}
