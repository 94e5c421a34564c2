package rpcapi

import (
	"encoding/json"

	"github.com/eratestnode/eratestnode/internal/node"
)

func anvilMethods() map[string]Handler {
	return map[string]Handler{
		"anvil_setBalance":              hardhatSetBalance,
		"anvil_setNonce":                hardhatSetNonce,
		"anvil_mine":                    anvilMine,
		"anvil_reset":                   anvilReset,
		"anvil_impersonateAccount":      hardhatImpersonateAccount,
		"anvil_stopImpersonatingAccount": hardhatStopImpersonatingAccount,
	}
}

// anvilResetParams mirrors anvil_reset's single positional object argument:
// {"forking": {"jsonRpcUrl": "...", "blockNumber": 123}}. An empty/absent
// object resets to a fresh, unforked chain.
type anvilResetParams struct {
	Forking *struct {
		JSONRPCURL  string  `json:"jsonRpcUrl"`
		BlockNumber *uint64 `json:"blockNumber"`
	} `json:"forking"`
}

func anvilMine(n *node.Node, params []json.RawMessage) (interface{}, error) {
	count := 1
	if len(params) > 0 {
		if v, err := paramHexInt(params, 0); err == nil {
			count = v
		}
	}
	var interval uint64
	if len(params) > 1 {
		if v, err := paramUint64(params, 1); err == nil {
			interval = v
		}
	}
	n.Mine(count, interval)
	return true, nil
}

func anvilReset(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var opts anvilResetParams
	if len(params) > 0 {
		if err := decodeParam(params, 0, &opts); err != nil {
			return nil, ErrInvalidParams
		}
	}

	var forkURL string
	var forkBlock *uint64
	if opts.Forking != nil {
		forkURL = opts.Forking.JSONRPCURL
		forkBlock = opts.Forking.BlockNumber
	}
	if err := n.Reset(forkURL, forkBlock); err != nil {
		return nil, err
	}
	return true, nil
}
