// Package rpcapi implements the JSON-RPC 2.0 dispatcher: wire types, a
// method-name to handler registry, and the namespace handlers (eth, net,
// web3, zks, evm, debug, hardhat, anvil, config) that translate JSON-RPC
// calls into internal/node.Node operations.
package rpcapi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// BlockNumber represents a block tag or number parameter, per the
// standard Ethereum JSON-RPC convention ("latest", "earliest", "pending",
// or a hex/decimal integer).
type BlockNumber int64

const (
	LatestBlockNumber   BlockNumber = -1
	PendingBlockNumber  BlockNumber = -2
	EarliestBlockNumber BlockNumber = 0
)

// UnmarshalJSON implements json.Unmarshaler for BlockNumber.
func (bn *BlockNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("rpcapi: invalid block number %s", string(data))
		}
		*bn = BlockNumber(n)
		return nil
	}
	switch s {
	case "latest", "":
		*bn = LatestBlockNumber
	case "pending":
		*bn = PendingBlockNumber
	case "earliest":
		*bn = EarliestBlockNumber
	default:
		n, err := strconv.ParseInt(trimHex(s), 16, 64)
		if err != nil {
			return fmt.Errorf("rpcapi: invalid block number %q", s)
		}
		*bn = BlockNumber(n)
	}
	return nil
}

// Resolve turns a tag into a concrete block number given the current head.
func (bn BlockNumber) Resolve(head uint64) uint64 {
	switch bn {
	case LatestBlockNumber, PendingBlockNumber:
		return head
	case EarliestBlockNumber:
		return 0
	default:
		n := uint64(bn)
		if n > head {
			return head
		}
		return n
	}
}

// Request is a single JSON-RPC 2.0 request object.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

// IsNotification reports whether req carries no id, per the JSON-RPC 2.0
// spec — notifications receive no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a single JSON-RPC 2.0 response object.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Hex encode/decode helpers shared by every namespace handler.

func hexUint64(n uint64) string {
	return "0x" + strconv.FormatUint(n, 16)
}

func hexInt(n int) string {
	return hexUint64(uint64(n))
}

func hexBigInt(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return "0x" + n.Text(16)
}

func hexBytes(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + fmt.Sprintf("%x", b)
}

func hexAddress(a chaintypes.Address) string {
	return strings.ToLower(a.Hex())
}

func hexHash(h chaintypes.Hash) string {
	return h.Hex()
}

func hexBloom(b chaintypes.Bloom) string {
	return "0x" + fmt.Sprintf("%x", b[:])
}

func trimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func parseHexUint64(s string) (uint64, error) {
	return strconv.ParseUint(trimHex(s), 16, 64)
}

func parseHexBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(trimHex(s), 16)
	if !ok {
		return nil, fmt.Errorf("rpcapi: invalid hex integer %q", s)
	}
	return v, nil
}

func parseHexBytes(s string) ([]byte, error) {
	s = trimHex(s)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		var b byte
		if _, err := fmt.Sscanf(s[2*i:2*i+2], "%02x", &b); err != nil {
			return nil, fmt.Errorf("rpcapi: invalid hex bytes %q", s)
		}
		out[i] = b
	}
	return out, nil
}

func parseAddress(s string) (chaintypes.Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return chaintypes.Address{}, fmt.Errorf("rpcapi: address must be 0x-prefixed: %q", s)
	}
	return chaintypes.HexToAddress(s), nil
}

func parseHash(s string) (chaintypes.Hash, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return chaintypes.Hash{}, fmt.Errorf("rpcapi: hash must be 0x-prefixed: %q", s)
	}
	return chaintypes.HexToHash(s), nil
}

func decodeParam(params []json.RawMessage, idx int, out interface{}) error {
	if idx >= len(params) {
		return fmt.Errorf("rpcapi: missing parameter at index %d", idx)
	}
	return json.Unmarshal(params[idx], out)
}

func paramAddress(params []json.RawMessage, idx int) (chaintypes.Address, error) {
	var s string
	if err := decodeParam(params, idx, &s); err != nil {
		return chaintypes.Address{}, ErrInvalidParams
	}
	addr, err := parseAddress(s)
	if err != nil {
		return chaintypes.Address{}, ErrInvalidParams
	}
	return addr, nil
}

func paramHash(params []json.RawMessage, idx int) (chaintypes.Hash, error) {
	var s string
	if err := decodeParam(params, idx, &s); err != nil {
		return chaintypes.Hash{}, ErrInvalidParams
	}
	h, err := parseHash(s)
	if err != nil {
		return chaintypes.Hash{}, ErrInvalidParams
	}
	return h, nil
}
