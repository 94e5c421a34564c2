package rpcapi

import (
	"encoding/json"

	"github.com/eratestnode/eratestnode/internal/node"
)

func zksMethods() map[string]Handler {
	return map[string]Handler{
		"zks_getL1BatchNumber":    zksGetL1BatchNumber,
		"zks_getBlockDetails":     zksGetBlockDetails,
		"zks_getTransactionDetails": zksGetTransactionDetails,
		"zks_getBridgeContracts":  zksGetBridgeContracts,
		"zks_L1ChainId":           zksL1ChainID,
		"zks_estimateFee":         zksEstimateFee,
	}
}

func zksGetL1BatchNumber(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	block, ok := n.BlockByNumber(n.BlockNumber())
	if !ok {
		return hexUint64(0), nil
	}
	return hexUint64(block.Header.L1BatchNumber), nil
}

func zksGetBlockDetails(n *node.Node, params []json.RawMessage) (interface{}, error) {
	num, err := paramUint64(params, 0)
	if err != nil {
		return nil, err
	}
	block, ok := n.BlockByNumber(num)
	if !ok {
		return nil, nil
	}
	return map[string]interface{}{
		"number":        hexUint64(block.Header.Number),
		"l1BatchNumber": hexUint64(block.Header.L1BatchNumber),
		"timestamp":     hexUint64(block.Header.Timestamp),
		"rootHash":      hexHash(block.Hash),
	}, nil
}

func zksGetTransactionDetails(n *node.Node, params []json.RawMessage) (interface{}, error) {
	hash, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	receipt, ok := n.Receipt(hash)
	if !ok {
		return nil, nil
	}
	status := "success"
	if receipt.Status == 0 {
		status = "failed"
	}
	return map[string]interface{}{
		"status":        status,
		"l1BatchNumber": receipt.L1BatchNumber,
		"blockNumber":   hexUint64(receipt.BlockNumber),
	}, nil
}

// zksGetBridgeContracts returns the zero address for every bridge role:
// this in-memory node never deploys the L1/L2 bridge system contracts
// (see Non-goals), but clients probing for their presence expect a
// well-formed (if inert) response rather than a method-not-found error.
func zksGetBridgeContracts(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	zero := "0x0000000000000000000000000000000000000000"
	return map[string]interface{}{
		"l1Erc20DefaultBridge": zero,
		"l2Erc20DefaultBridge": zero,
		"l1WethBridge":         zero,
		"l2WethBridge":         zero,
	}, nil
}

func zksL1ChainID(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return hexUint64(1), nil
}

func zksEstimateFee(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var args callArgs
	if err := decodeParam(params, 0, &args); err != nil {
		return nil, ErrInvalidParams
	}
	call, err := args.toExecutorCall()
	if err != nil {
		return nil, ErrInvalidParams
	}
	gas, err := n.EstimateGas(call)
	if err != nil {
		return nil, ErrCannotEstimate
	}
	return map[string]interface{}{
		"gasLimit":       hexUint64(gas),
		"gasPerPubdataLimit": hexUint64(800),
		"maxFeePerGas":   hexBigInt(nil),
		"maxPriorityFeePerGas": hexUint64(0),
	}, nil
}
