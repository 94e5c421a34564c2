// Package blockproducer assembles new blocks from pending transaction
// execution results, in either Auto mode (one block per transaction, or
// per apply_txs batch) or Manual mode (blocks only assembled when mine is
// explicitly called).
package blockproducer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// Mode selects when new blocks are assembled.
type Mode int

const (
	// Auto produces a new block for every successfully applied
	// transaction (or batch, for apply_txs).
	Auto Mode = iota
	// Manual only produces a block when mine is explicitly invoked.
	Manual
)

// Producer assembles blocks on top of a known parent.
type Producer struct {
	Mode Mode
}

// New constructs a Producer in the given mode.
func New(mode Mode) *Producer {
	return &Producer{Mode: mode}
}

// Assemble builds the next block on top of parent, given the transaction
// hashes and receipts that fill it and the chosen block timestamp.
func (p *Producer) Assemble(parent *chaintypes.Header, timestamp uint64, l1BatchNumber uint64, baseFee *big.Int, gasLimit uint64, txHashes []chaintypes.Hash, receipts []*chaintypes.Receipt, l2ToL1Logs []*chaintypes.L2ToL1Log) *chaintypes.Block {
	var parentHash chaintypes.Hash
	var number uint64
	if parent != nil {
		parentHash = headerHash(parent)
		number = parent.Number + 1
	}

	var gasUsed uint64
	for _, r := range receipts {
		gasUsed += r.GasUsed
	}

	header := chaintypes.Header{
		ParentHash:    parentHash,
		Number:        number,
		Timestamp:     timestamp,
		L1BatchNumber: l1BatchNumber,
		BaseFee:       baseFee,
		GasLimit:      gasLimit,
		GasUsed:       gasUsed,
		TxRoot:        txRoot(txHashes),
	}

	block := &chaintypes.Block{
		Header:       header,
		Transactions: txHashes,
		Receipts:     receipts,
		L2ToL1Logs:   l2ToL1Logs,
	}
	block.Hash = headerHash(&header)
	return block
}

// txRoot is a simplified stand-in for a Merkle transactions root:
// keccak256 of the concatenated transaction hashes, in order. This chain's
// block data model carries no trie-based roots (see DESIGN.md).
func txRoot(hashes []chaintypes.Hash) chaintypes.Hash {
	if len(hashes) == 0 {
		return chaintypes.Hash{}
	}
	buf := make([]byte, 0, 32*len(hashes))
	for _, h := range hashes {
		buf = append(buf, h.Bytes()...)
	}
	return crypto.Keccak256Hash(buf)
}

// headerHash derives a block hash from the canonical header subset via
// RLP encoding + keccak256, independent of any state root, targeting the
// post-boojum zkSync era's hash derivation (see DESIGN.md).
func headerHash(h *chaintypes.Header) chaintypes.Hash {
	baseFee := h.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	encoded, err := rlp.EncodeToBytes([]interface{}{
		h.ParentHash,
		h.Number,
		h.Timestamp,
		h.L1BatchNumber,
		baseFee,
		h.GasLimit,
		h.TxRoot,
	})
	if err != nil {
		// Every field here is a fixed-size array, uint64, or *big.Int;
		// RLP encoding of this tuple cannot fail.
		panic(err)
	}
	return crypto.Keccak256Hash(encoded)
}

// HeaderHash exposes headerHash for callers outside this package that need
// to recompute a block's hash from its header alone (e.g. chain-tip
// verification in internal/node).
func HeaderHash(h *chaintypes.Header) chaintypes.Hash {
	return headerHash(h)
}
