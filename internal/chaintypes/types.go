// Package chaintypes defines the chain data model shared by every other
// package in this module: accounts, blocks, transactions, receipts and
// logs. Fixed-size hash/address/bloom types are aliased from go-ethereum
// rather than reimplemented.
package chaintypes

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type (
	// Address is a 20-byte account address.
	Address = common.Address
	// Hash is a 32-byte hash.
	Hash = common.Hash
	// Bloom is a 2048-bit log bloom filter.
	Bloom = types.Bloom
)

// HexToAddress parses a 0x-prefixed hex string into an Address.
func HexToAddress(s string) Address { return common.HexToAddress(s) }

// HexToHash parses a 0x-prefixed hex string into a Hash.
func HexToHash(s string) Hash { return common.HexToHash(s) }

// Account is the externally observable state of one address.
type Account struct {
	Nonce   uint64
	Balance *big.Int
	Code    []byte
}

// CodeHash returns the keccak256 hash of the account's code, or the empty
// code hash for an account with no code.
func (a *Account) CodeHash() Hash {
	if len(a.Code) == 0 {
		return types.EmptyCodeHash
	}
	return crypto.Keccak256Hash(a.Code)
}

// Log is a single event emitted by a transaction.
type Log struct {
	Address     Address
	Topics      []Hash
	Data        []byte
	BlockNumber uint64
	TxHash      Hash
	TxIndex     uint
	BlockHash   Hash
	Index       uint
	Removed     bool
}

// L2ToL1Log is a zkSync-specific message directed at the L1 bridge.
type L2ToL1Log struct {
	BlockNumber uint64
	TxHash      Hash
	Sender      Address
	Key         Hash
	Value       Hash
}

// Receipt is the execution outcome of one transaction.
type Receipt struct {
	TxHash            Hash
	TransactionIndex  uint
	BlockHash         Hash
	BlockNumber       uint64
	From              Address
	To                *Address
	ContractAddress   *Address
	CumulativeGasUsed uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	Status            uint64 // 1 success, 0 failure
	Logs              []*Log
	LogsBloom         Bloom
	L2ToL1Logs        []*L2ToL1Log
	L1BatchNumber     *uint64
}

// Header is the canonical, minimal block header. There is deliberately no
// state/receipts/transactions trie root field: this chain's block hash is
// derived independently of any Merkle state root (see DESIGN.md).
type Header struct {
	ParentHash    Hash
	Number        uint64
	Timestamp     uint64
	L1BatchNumber uint64
	BaseFee       *big.Int
	GasLimit      uint64
	GasUsed       uint64
	TxRoot        Hash
}

// Block is a full block: header plus bodies.
type Block struct {
	Header       Header
	Hash         Hash
	Transactions []Hash
	L2ToL1Logs   []*L2ToL1Log
	Receipts     []*Receipt
}
