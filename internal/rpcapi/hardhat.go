package rpcapi

import (
	"encoding/json"

	"github.com/eratestnode/eratestnode/internal/node"
)

func hardhatMethods() map[string]Handler {
	return map[string]Handler{
		"hardhat_setBalance":              hardhatSetBalance,
		"hardhat_setCode":                 hardhatSetCode,
		"hardhat_setNonce":                hardhatSetNonce,
		"hardhat_setStorageAt":            hardhatSetStorageAt,
		"hardhat_mine":                    hardhatMine,
		"hardhat_impersonateAccount":      hardhatImpersonateAccount,
		"hardhat_stopImpersonatingAccount": hardhatStopImpersonatingAccount,
	}
}

func hardhatSetBalance(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	var balanceHex string
	if err := decodeParam(params, 1, &balanceHex); err != nil {
		return nil, ErrInvalidParams
	}
	balance, err := parseHexBigInt(balanceHex)
	if err != nil {
		return nil, ErrInvalidParams
	}
	n.SetBalance(addr, balance)
	return true, nil
}

func hardhatSetCode(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	var codeHex string
	if err := decodeParam(params, 1, &codeHex); err != nil {
		return nil, ErrInvalidParams
	}
	code, err := parseHexBytes(codeHex)
	if err != nil {
		return nil, ErrInvalidParams
	}
	n.SetCode(addr, code)
	return true, nil
}

func hardhatSetNonce(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	nonce, err := paramUint64(params, 1)
	if err != nil {
		return nil, err
	}
	n.SetNonce(addr, nonce)
	return true, nil
}

func hardhatSetStorageAt(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	slot, err := paramHash(params, 1)
	if err != nil {
		return nil, err
	}
	value, err := paramHash(params, 2)
	if err != nil {
		return nil, err
	}
	n.SetStorageAt(addr, slot, value)
	return true, nil
}

func hardhatMine(n *node.Node, params []json.RawMessage) (interface{}, error) {
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

func hardhatImpersonateAccount(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	n.ImpersonateAccount(addr)
	return true, nil
}

func hardhatStopImpersonatingAccount(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	wasImpersonating := n.IsImpersonating(addr)
	n.StopImpersonatingAccount(addr)
	return wasImpersonating, nil
}
