package rpcapi

import (
	"encoding/json"

	"github.com/eratestnode/eratestnode/internal/node"
)

func configMethods() map[string]Handler {
	return map[string]Handler{
		"config_getShowCalls":        configGetShowCalls,
		"config_setShowCalls":        configSetShowCalls,
		"config_setResolveHashes":    configSetResolveHashes,
		"config_setLogLevel":         configSetLogLevel,
		"config_setLogging":          configSetLogging,
		"config_getCurrentTimestamp": configGetCurrentTimestamp,
	}
}

func configGetShowCalls(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return n.GetShowCalls(), nil
}

func configSetShowCalls(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var v bool
	if err := decodeParam(params, 0, &v); err != nil {
		return nil, ErrInvalidParams
	}
	n.SetShowCalls(v)
	return true, nil
}

func configSetResolveHashes(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var v bool
	if err := decodeParam(params, 0, &v); err != nil {
		return nil, ErrInvalidParams
	}
	n.SetResolveHashes(v)
	return true, nil
}

func configSetLogLevel(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var level string
	if err := decodeParam(params, 0, &level); err != nil {
		return nil, ErrInvalidParams
	}
	n.SetLogLevel(level)
	return true, nil
}

func configSetLogging(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var v bool
	if err := decodeParam(params, 0, &v); err != nil {
		return nil, ErrInvalidParams
	}
	n.SetLogging(v)
	return true, nil
}

func configGetCurrentTimestamp(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return hexUint64(n.CurrentTimestamp()), nil
}
