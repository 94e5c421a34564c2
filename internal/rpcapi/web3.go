package rpcapi

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/eratestnode/eratestnode/internal/node"
)

const clientVersion = "eratestnode/v0.1.0"

func web3Methods() map[string]Handler {
	return map[string]Handler{
		"web3_clientVersion": web3ClientVersion,
		"web3_sha3":          web3Sha3,
	}
}

func web3ClientVersion(_ *node.Node, _ []json.RawMessage) (interface{}, error) {
	return clientVersion, nil
}

func web3Sha3(_ *node.Node, params []json.RawMessage) (interface{}, error) {
	var hexData string
	if err := decodeParam(params, 0, &hexData); err != nil {
		return nil, ErrInvalidParams
	}
	data, err := parseHexBytes(hexData)
	if err != nil {
		return nil, ErrInvalidParams
	}
	return hexHash(crypto.Keccak256Hash(data)), nil
}
