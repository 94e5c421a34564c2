package rpcapi

import (
	"encoding/json"
	"strconv"

	"github.com/eratestnode/eratestnode/internal/node"
)

func netMethods() map[string]Handler {
	return map[string]Handler{
		"net_version":   netVersion,
		"net_peerCount": netPeerCount,
		"net_listening": netListening,
	}
}

func netVersion(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return strconv.FormatUint(n.ChainID(), 10), nil
}

func netPeerCount(_ *node.Node, _ []json.RawMessage) (interface{}, error) {
	// This is a single-process in-memory node; it never has peers.
	return hexUint64(0), nil
}

func netListening(_ *node.Node, _ []json.RawMessage) (interface{}, error) {
	return true, nil
}
