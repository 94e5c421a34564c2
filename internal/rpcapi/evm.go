package rpcapi

import (
	"encoding/json"

	"github.com/eratestnode/eratestnode/internal/node"
)

func evmMethods() map[string]Handler {
	return map[string]Handler{
		"evm_mine":                 evmMine,
		"evm_increaseTime":         evmIncreaseTime,
		"evm_setNextBlockTimestamp": evmSetNextBlockTimestamp,
		"evm_snapshot":             evmSnapshot,
		"evm_revert":               evmRevert,
	}
}

func evmMine(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	n.Mine(1, 0)
	return true, nil
}

func evmIncreaseTime(n *node.Node, params []json.RawMessage) (interface{}, error) {
	seconds, err := paramUint64(params, 0)
	if err != nil {
		return nil, err
	}
	n.IncreaseTime(seconds)
	return hexUint64(seconds), nil
}

func evmSetNextBlockTimestamp(n *node.Node, params []json.RawMessage) (interface{}, error) {
	ts, err := paramUint64(params, 0)
	if err != nil {
		return nil, err
	}
	n.SetNextBlockTimestamp(ts)
	return true, nil
}

func evmSnapshot(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return hexInt(n.Snapshot()), nil
}

func evmRevert(n *node.Node, params []json.RawMessage) (interface{}, error) {
	id, err := paramHexInt(params, 0)
	if err != nil {
		return nil, err
	}
	return n.Revert(id), nil
}

// paramUint64 decodes a JSON-RPC positional parameter that may arrive as
// either a hex-quantity string or a JSON number.
func paramUint64(params []json.RawMessage, idx int) (uint64, error) {
	if idx >= len(params) {
		return 0, ErrInvalidParams
	}
	var asString string
	if err := json.Unmarshal(params[idx], &asString); err == nil {
		v, err := parseHexUint64(asString)
		if err != nil {
			return 0, ErrInvalidParams
		}
		return v, nil
	}
	var asNumber uint64
	if err := json.Unmarshal(params[idx], &asNumber); err != nil {
		return 0, ErrInvalidParams
	}
	return asNumber, nil
}

func paramHexInt(params []json.RawMessage, idx int) (int, error) {
	v, err := paramUint64(params, idx)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
