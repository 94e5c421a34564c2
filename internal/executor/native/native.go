// Package native is the reference Executor implementation wired into this
// node by default. It is not a general-purpose bytecode interpreter — it
// gives deterministic, observable semantics to plain value transfers and
// contract deployment, which is what this node's own test scenarios and
// its CLI's rich-wallet workflows exercise. A production deployment of
// this node would plug in a real zkEVM behind the same executor.Executor
// interface instead.
package native

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/executor"
)

// IntrinsicGas is the fixed, per-transaction base cost (matches Ethereum's
// own base transaction cost, 21000 gas).
const IntrinsicGas = 21000

// Executor is the native reference implementation.
type Executor struct{}

// New constructs a native Executor.
func New() *Executor {
	return &Executor{}
}

// dataGas computes the calldata component of intrinsic gas: 16 gas per
// non-zero byte, 4 gas per zero byte, matching EIP-2028.
func dataGas(data []byte) uint64 {
	var gas uint64
	for _, b := range data {
		if b == 0 {
			gas += 4
		} else {
			gas += 16
		}
	}
	return gas
}

// Execute implements executor.Executor.
func (e *Executor) Execute(view executor.StorageView, blockCtx executor.BlockContext, call executor.Call) (*executor.Result, error) {
	gasUsed := IntrinsicGas + dataGas(call.Data)

	if call.GasLimit < gasUsed {
		return &executor.Result{
			Success:      false,
			GasUsed:      call.GasLimit,
			RevertReason: "out of gas: intrinsic gas exceeds gas limit",
		}, nil
	}

	if call.To == nil {
		return e.executeCreate(view, call, gasUsed)
	}
	return e.executeCall(view, call, gasUsed)
}

func (e *Executor) executeCall(view executor.StorageView, call executor.Call, gasUsed uint64) (*executor.Result, error) {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	step := callDebugStep(call, "CALL")

	if value.Sign() > 0 {
		balance := view.GetBalance(call.From)
		if balance.Cmp(value) < 0 {
			return &executor.Result{
				Success:      false,
				GasUsed:      gasUsed,
				RevertReason: "insufficient balance for transfer",
				Debug:        []executor.DebugRecord{step},
			}, nil
		}
		view.SubBalance(call.From, value)
		if !view.Exist(*call.To) {
			view.CreateAccount(*call.To)
		}
		view.AddBalance(*call.To, value)
	}

	return &executor.Result{
		Success: true,
		GasUsed: gasUsed,
		Debug:   []executor.DebugRecord{step},
	}, nil
}

func (e *Executor) executeCreate(view executor.StorageView, call executor.Call, gasUsed uint64) (*executor.Result, error) {
	contractAddr := contractAddress(call.From, call.Nonce)
	step := callDebugStep(call, "CREATE")

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 {
		balance := view.GetBalance(call.From)
		if balance.Cmp(value) < 0 {
			return &executor.Result{
				Success:      false,
				GasUsed:      gasUsed,
				RevertReason: "insufficient balance for contract creation",
				Debug:        []executor.DebugRecord{step},
			}, nil
		}
		view.SubBalance(call.From, value)
	}

	view.CreateAccount(contractAddr)
	view.SetCode(contractAddr, call.Data)
	if value.Sign() > 0 {
		view.AddBalance(contractAddr, value)
	}

	return &executor.Result{
		Success:         true,
		GasUsed:         gasUsed,
		ContractAddress: &contractAddr,
		Debug:           []executor.DebugRecord{step},
	}, nil
}

// callDebugStep builds the single summary DebugRecord emitted for a Call:
// this reference executor has no per-opcode trace to offer, so it reports
// the call's top-level shape (opcode, stack of its inputs) as one step.
// Stack entries are formatted as EVM words (uint256), matching how a real
// interpreter's stack would report them.
func callDebugStep(call executor.Call, opcode string) executor.DebugRecord {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	valueWord, _ := uint256.FromBig(value)
	gasWord := uint256.NewInt(call.GasLimit)
	return executor.DebugRecord{
		PC:     0,
		Opcode: opcode,
		Depth:  0,
		Stack:  []string{valueWord.Hex(), gasWord.Hex()},
	}
}

// contractAddress derives the standard Ethereum CREATE address:
// keccak256(rlp([sender, nonce]))[12:].
func contractAddress(from chaintypes.Address, nonce uint64) chaintypes.Address {
	data, err := rlp.EncodeToBytes([]interface{}{from, nonce})
	if err != nil {
		// rlp encoding of a fixed address + uint64 cannot fail.
		panic(err)
	}
	hash := crypto.Keccak256(data)
	var addr chaintypes.Address
	copy(addr[:], hash[12:])
	return addr
}
