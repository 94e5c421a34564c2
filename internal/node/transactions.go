package node

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/eratestnode/eratestnode/internal/blockproducer"
	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/executor"
	"github.com/eratestnode/eratestnode/internal/zktx"
)

// ErrNonceTooLow is returned when a submitted transaction's nonce is below
// the sender's current account nonce.
var ErrNonceTooLow = fmt.Errorf("node: nonce too low")

func toExecCall(tx *zktx.Transaction) executor.Call {
	return executor.Call{
		From:     tx.From,
		To:       tx.To,
		Value:    tx.Value,
		Data:     tx.Data,
		GasLimit: tx.GasLimit,
		GasPrice: tx.GasPrice,
		Nonce:    tx.Nonce,
	}
}

// RunTransaction decodes, validates and executes a raw transaction,
// producing a receipt. In Auto mode this also immediately mines a new
// block containing it; in Manual mode the transaction is queued until the
// next explicit Mine call.
func (n *Node) RunTransaction(raw []byte) (*chaintypes.Receipt, error) {
	tx, err := zktx.Decode(raw)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.inner.impersonated.Contains(tx.From) {
		if tx.Nonce < n.inner.store.GetNonce(tx.From) {
			return nil, ErrNonceTooLow
		}
	}

	n.filters.AddPendingTx(tx.Hash)

	receipt, err := n.executeLocked(tx)
	if err != nil {
		return nil, err
	}

	if n.config.ProducerMode() == blockproducer.Auto {
		n.mineLocked(1, 0)
		if n.metrics != nil {
			n.metrics.ObserveBlockMined("auto")
		}
	}
	return receipt, nil
}

// executeLocked runs one transaction against the live store, recording a
// receipt. Caller must hold n.mu.
func (n *Node) executeLocked(tx *zktx.Transaction) (*chaintypes.Receipt, error) {
	blockCtx := executor.BlockContext{
		Number:        n.currentHeader().Number + 1,
		Timestamp:     n.nextTimestamp(),
		L1BatchNumber: n.inner.l1BatchNumber,
		BaseFee:       n.config.BaseFee(),
		GasLimit:      n.config.GasLimit,
		ChainID:       n.config.ChainID,
	}

	result, err := n.executor.Execute(n.inner.store, blockCtx, toExecCall(tx))
	if err != nil {
		return nil, err
	}

	n.inner.store.IncrementNonce(tx.From)
	n.inner.store.Commit()

	status := uint64(0)
	if result.Success {
		status = 1
	}

	for i, l := range result.Logs {
		l.TxHash = tx.Hash
		l.Index = uint(i)
		n.inner.store.AddLog(l)
		n.filters.AddLog(l)
	}

	bloom := types.CreateBloom(gethLogsOf(result.Logs))

	receipt := &chaintypes.Receipt{
		TxHash:            tx.Hash,
		From:              tx.From,
		To:                tx.To,
		ContractAddress:   result.ContractAddress,
		CumulativeGasUsed: result.GasUsed,
		GasUsed:           result.GasUsed,
		EffectiveGasPrice: tx.GasPrice,
		Status:            status,
		Logs:              result.Logs,
		LogsBloom:         bloom,
		L2ToL1Logs:        result.L2ToL1Logs,
	}

	n.inner.pendingTxs = append(n.inner.pendingTxs, tx)
	n.inner.receipts[tx.Hash] = receipt
	n.inner.txByHash[tx.Hash] = tx
	if len(result.Debug) > 0 {
		n.inner.debugTraces[tx.Hash] = result.Debug
	}
	if n.metrics != nil {
		n.metrics.ObserveTransaction()
	}
	return receipt, nil
}

func gethLogsOf(logs []*chaintypes.Log) []*types.Log {
	out := make([]*types.Log, len(logs))
	for i, l := range logs {
		out[i] = &types.Log{
			Address: l.Address,
			Topics:  l.Topics,
			Data:    l.Data,
		}
	}
	return out
}

// Call executes call speculatively against a cloned store and discards the
// result, per the read-only call semantics of eth_call.
func (n *Node) Call(call executor.Call) (*executor.Result, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	clone := n.inner.store.Clone()
	blockCtx := executor.BlockContext{
		Number:        n.currentHeader().Number,
		Timestamp:     uint64(time.Now().Unix()),
		L1BatchNumber: n.inner.l1BatchNumber,
		BaseFee:       n.config.BaseFee(),
		GasLimit:      n.config.GasLimit,
		ChainID:       n.config.ChainID,
	}
	return n.executor.Execute(clone, blockCtx, call)
}

// EstimateGas performs a binary search over the gas limit to find the
// minimum amount that lets call succeed, following the same floor/ceiling
// binary-search pattern used by Ethereum JSON-RPC backends.
func (n *Node) EstimateGas(call executor.Call) (uint64, error) {
	n.mu.RLock()
	hi := n.config.GasLimit
	n.mu.RUnlock()

	if call.GasLimit != 0 && call.GasLimit < hi {
		hi = call.GasLimit
	}
	lo := uint64(21000)

	succeeds := func(gas uint64) bool {
		trial := call
		trial.GasLimit = gas
		result, err := n.Call(trial)
		return err == nil && result.Success
	}

	if !succeeds(hi) {
		return 0, fmt.Errorf("node: gas required exceeds configured limit %d", hi)
	}
	if succeeds(lo) {
		return lo, nil
	}
	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		if succeeds(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// Receipt returns the receipt for a transaction hash, if known.
func (n *Node) Receipt(hash chaintypes.Hash) (*chaintypes.Receipt, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, ok := n.inner.receipts[hash]
	return r, ok
}

// BlockByNumber returns the block at number, if it has been produced.
func (n *Node) BlockByNumber(number uint64) (*chaintypes.Block, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if number >= uint64(len(n.inner.blocks)) {
		return nil, false
	}
	return n.inner.blocks[number], true
}

// BlockByHash returns the block with the given hash, if known.
func (n *Node) BlockByHash(hash chaintypes.Hash) (*chaintypes.Block, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	num, ok := n.inner.byHash[hash]
	if !ok {
		return nil, false
	}
	return n.inner.blocks[num], true
}

