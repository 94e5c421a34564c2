// Package executor defines the trait surface a zkEVM implementation must
// satisfy to back this node: given a storage view and a block context, run
// one transaction and report the observable result. The real zkEVM is an
// external, opaque collaborator; this package only defines the boundary
// and (in the native subpackage) a reference implementation sufficient to
// drive the node's own test scenarios.
package executor

import (
	"math/big"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// StorageView is the read/write surface an Executor needs into chain
// state. Implementations live in internal/node, adapting internal/state's
// Store to this interface so the executor never depends on the store's
// concrete type.
type StorageView interface {
	GetBalance(addr chaintypes.Address) *big.Int
	AddBalance(addr chaintypes.Address, amount *big.Int)
	SubBalance(addr chaintypes.Address, amount *big.Int)
	GetNonce(addr chaintypes.Address) uint64
	SetNonce(addr chaintypes.Address, nonce uint64)
	GetCode(addr chaintypes.Address) []byte
	SetCode(addr chaintypes.Address, code []byte)
	GetState(addr chaintypes.Address, key chaintypes.Hash) chaintypes.Hash
	SetState(addr chaintypes.Address, key, value chaintypes.Hash)
	Exist(addr chaintypes.Address) bool
	CreateAccount(addr chaintypes.Address)
}

// BlockContext carries the ambient values a transaction executes against.
type BlockContext struct {
	Number        uint64
	Timestamp     uint64
	L1BatchNumber uint64
	BaseFee       *big.Int
	GasLimit      uint64
	ChainID       uint64
}

// Call is one transaction's inputs, already decoded from its wire
// envelope by internal/zktx.
type Call struct {
	From     chaintypes.Address
	To       *chaintypes.Address // nil for contract creation
	Value    *big.Int
	Data     []byte
	GasLimit uint64
	GasPrice *big.Int
	Nonce    uint64
}

// DebugRecord is one step of the bootloader debug trace channel, emitted
// in addition to the Result for debug_traceTransaction/debug_traceCall.
type DebugRecord struct {
	PC            uint64
	Opcode        string
	Depth         int
	Stack         []string
	MemorySlice   []byte
	StorageDelta  map[chaintypes.Hash]chaintypes.Hash
}

// Result is the observable outcome of executing one Call.
type Result struct {
	Success         bool
	GasUsed         uint64
	ReturnData      []byte
	RevertReason    string
	ContractAddress *chaintypes.Address
	Logs            []*chaintypes.Log
	L2ToL1Logs      []*chaintypes.L2ToL1Log
	Debug           []DebugRecord
}

// Executor runs a single transaction against a StorageView.
type Executor interface {
	Execute(view StorageView, ctx BlockContext, call Call) (*Result, error)
}
