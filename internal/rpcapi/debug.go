package rpcapi

import (
	"encoding/json"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/executor"
	"github.com/eratestnode/eratestnode/internal/node"
)

func debugMethods() map[string]Handler {
	return map[string]Handler{
		"debug_traceCall":        debugTraceCall,
		"debug_traceTransaction": debugTraceTransaction,
		"debug_traceBlockByHash": debugTraceBlockByHash,
		"debug_traceBlockByNumber": debugTraceBlockByNumber,
	}
}

// traceStep is the JSON-RPC representation of one executor.DebugRecord,
// matching the shape of Ethereum's debug_traceTransaction structLogs.
type traceStep struct {
	PC      uint64            `json:"pc"`
	Op      string            `json:"op"`
	Depth   int               `json:"depth"`
	Stack   []string          `json:"stack"`
	Memory  string            `json:"memory"`
	Storage map[string]string `json:"storage,omitempty"`
}

type traceResult struct {
	Failed      bool        `json:"failed"`
	Gas         string      `json:"gas"`
	ReturnValue string      `json:"returnValue"`
	StructLogs  []traceStep `json:"structLogs"`
}

func formatTrace(result *executor.Result) *traceResult {
	steps := make([]traceStep, len(result.Debug))
	for i, d := range result.Debug {
		storage := make(map[string]string, len(d.StorageDelta))
		for k, v := range d.StorageDelta {
			storage[hexHash(k)] = hexHash(v)
		}
		steps[i] = traceStep{
			PC:      d.PC,
			Op:      d.Opcode,
			Depth:   d.Depth,
			Stack:   d.Stack,
			Memory:  hexBytes(d.MemorySlice),
			Storage: storage,
		}
	}
	return &traceResult{
		Failed:      !result.Success,
		Gas:         hexUint64(result.GasUsed),
		ReturnValue: hexBytes(result.ReturnData),
		StructLogs:  steps,
	}
}

func debugTraceCall(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var args callArgs
	if err := decodeParam(params, 0, &args); err != nil {
		return nil, ErrInvalidParams
	}
	call, err := args.toExecutorCall()
	if err != nil {
		return nil, ErrInvalidParams
	}
	result, err := n.Call(call)
	if err != nil {
		return nil, err
	}
	return formatTrace(result), nil
}

func debugTraceTransaction(n *node.Node, params []json.RawMessage) (interface{}, error) {
	hash, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	debug, ok := n.DebugTrace(hash)
	if !ok {
		return nil, ErrUnknownTransaction
	}
	return formatTrace(&executor.Result{Debug: debug, Success: true}), nil
}

func debugTraceBlockByHash(n *node.Node, params []json.RawMessage) (interface{}, error) {
	hash, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	block, ok := n.BlockByHash(hash)
	if !ok {
		return nil, ErrUnknownBlock
	}
	return traceBlockTransactions(n, block.Transactions), nil
}

func debugTraceBlockByNumber(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var bn BlockNumber
	if err := decodeParam(params, 0, &bn); err != nil {
		return nil, ErrInvalidParams
	}
	block, ok := n.BlockByNumber(bn.Resolve(n.BlockNumber()))
	if !ok {
		return nil, ErrUnknownBlock
	}
	return traceBlockTransactions(n, block.Transactions), nil
}

func traceBlockTransactions(n *node.Node, hashes []chaintypes.Hash) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(hashes))
	for _, h := range hashes {
		debug, ok := n.DebugTrace(h)
		entry := map[string]interface{}{"txHash": hexHash(h)}
		if ok {
			entry["result"] = formatTrace(&executor.Result{Debug: debug, Success: true})
		}
		out = append(out, entry)
	}
	return out
}
