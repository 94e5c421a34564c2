package blockproducer

import (
	"math/big"
	"testing"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

func TestAssembleGenesisBlock(t *testing.T) {
	p := New(Auto)
	block := p.Assemble(nil, 1000, 1, big.NewInt(0), 30_000_000, nil, nil, nil)
	if block.Header.Number != 0 {
		t.Fatalf("genesis number = %d, want 0", block.Header.Number)
	}
	if block.Header.ParentHash != (chaintypes.Hash{}) {
		t.Fatalf("genesis parent hash should be zero")
	}
	if block.Hash == (chaintypes.Hash{}) {
		t.Fatalf("block hash should not be zero")
	}
}

func TestAssembleIncrementsNumberAndChainsParent(t *testing.T) {
	p := New(Auto)
	genesis := p.Assemble(nil, 1000, 1, big.NewInt(0), 30_000_000, nil, nil, nil)
	next := p.Assemble(&genesis.Header, 1001, 1, big.NewInt(0), 30_000_000, nil, nil, nil)

	if next.Header.Number != 1 {
		t.Fatalf("next number = %d, want 1", next.Header.Number)
	}
	if next.Header.ParentHash != genesis.Hash {
		t.Fatalf("next parent hash = %x, want %x", next.Header.ParentHash, genesis.Hash)
	}
}

func TestHeaderHashDeterministic(t *testing.T) {
	h := &chaintypes.Header{Number: 5, Timestamp: 10, BaseFee: big.NewInt(1)}
	a := HeaderHash(h)
	b := HeaderHash(h)
	if a != b {
		t.Fatalf("header hash not deterministic: %x != %x", a, b)
	}
}

func TestGasUsedSumsReceipts(t *testing.T) {
	p := New(Auto)
	receipts := []*chaintypes.Receipt{{GasUsed: 21000}, {GasUsed: 50000}}
	block := p.Assemble(nil, 1, 1, big.NewInt(0), 30_000_000, nil, receipts, nil)
	if block.Header.GasUsed != 71000 {
		t.Fatalf("gas used = %d, want 71000", block.Header.GasUsed)
	}
}
