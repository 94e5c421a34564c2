package forksource

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// jsonrpcRequest and jsonrpcResponse mirror the wire shapes used by
// internal/rpcapi, keeping the fork client's wire format consistent with
// the server this node itself exposes.
type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HTTPForkSource is a Source backed by a plain HTTP JSON-RPC upstream,
// e.g. a public mainnet or testnet gateway.
type HTTPForkSource struct {
	url    string
	client *http.Client
}

// NewHTTPForkSource builds a fork source against the given JSON-RPC
// endpoint, with the given per-call timeout applied whenever the caller's
// context carries no earlier deadline.
func NewHTTPForkSource(url string, timeout time.Duration) *HTTPForkSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPForkSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (f *HTTPForkSource) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	body, err := json.Marshal(jsonrpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fork source %s: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp jsonrpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("fork source %s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("fork source %s: upstream error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

func hexUint64(v uint64) string {
	if v == 0 {
		return "0x0"
	}
	return "0x" + fmt.Sprintf("%x", v)
}

func hexAddress(a chaintypes.Address) string {
	return a.Hex()
}

func hexHash(h chaintypes.Hash) string {
	return h.Hex()
}

func hexBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// BlockByNumber implements Source.
func (f *HTTPForkSource) BlockByNumber(ctx context.Context, number uint64) (*chaintypes.Block, error) {
	var raw rawBlock
	if err := f.call(ctx, &raw, "eth_getBlockByNumber", hexUint64(number), true); err != nil {
		return nil, err
	}
	return raw.toBlock(), nil
}

// BlockByHash implements Source.
func (f *HTTPForkSource) BlockByHash(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Block, error) {
	var raw rawBlock
	if err := f.call(ctx, &raw, "eth_getBlockByHash", hexHash(hash), true); err != nil {
		return nil, err
	}
	return raw.toBlock(), nil
}

// TransactionByHash implements Source, returning the raw RLP-ish JSON blob
// for the caller to decode (this node's own zktx decoder understands it).
func (f *HTTPForkSource) TransactionByHash(ctx context.Context, hash chaintypes.Hash) ([]byte, error) {
	var raw json.RawMessage
	if err := f.call(ctx, &raw, "eth_getTransactionByHash", hexHash(hash)); err != nil {
		return nil, err
	}
	return raw, nil
}

// TransactionReceipt implements Source.
func (f *HTTPForkSource) TransactionReceipt(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Receipt, error) {
	var raw rawReceipt
	if err := f.call(ctx, &raw, "eth_getTransactionReceipt", hexHash(hash)); err != nil {
		return nil, err
	}
	return raw.toReceipt(), nil
}

// CodeAt implements Source.
func (f *HTTPForkSource) CodeAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) ([]byte, error) {
	var code string
	if err := f.call(ctx, &code, "eth_getCode", hexAddress(addr), hexUint64(blockNumber)); err != nil {
		return nil, err
	}
	return common.FromHex(code), nil
}

// BalanceAt implements Source.
func (f *HTTPForkSource) BalanceAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) (*big.Int, error) {
	var bal string
	if err := f.call(ctx, &bal, "eth_getBalance", hexAddress(addr), hexUint64(blockNumber)); err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(trimHex(bal), 16)
	if !ok {
		return nil, fmt.Errorf("fork source: malformed balance %q", bal)
	}
	return n, nil
}

// NonceAt implements Source.
func (f *HTTPForkSource) NonceAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) (uint64, error) {
	var nonce string
	if err := f.call(ctx, &nonce, "eth_getTransactionCount", hexAddress(addr), hexUint64(blockNumber)); err != nil {
		return 0, err
	}
	return parseHexUint64(nonce)
}

// StorageAt implements Source.
func (f *HTTPForkSource) StorageAt(ctx context.Context, addr chaintypes.Address, key chaintypes.Hash, blockNumber uint64) (chaintypes.Hash, error) {
	var val string
	if err := f.call(ctx, &val, "eth_getStorageAt", hexAddress(addr), hexHash(key), hexUint64(blockNumber)); err != nil {
		return chaintypes.Hash{}, err
	}
	return common.HexToHash(val), nil
}

// ChainID implements Source.
func (f *HTTPForkSource) ChainID(ctx context.Context) (uint64, error) {
	var id string
	if err := f.call(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return parseHexUint64(id)
}

// L1GasPrice implements Source.
func (f *HTTPForkSource) L1GasPrice(ctx context.Context) (*big.Int, error) {
	var price string
	if err := f.call(ctx, &price, "eth_gasPrice"); err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(trimHex(price), 16)
	if !ok {
		return nil, fmt.Errorf("fork source: malformed gas price %q", price)
	}
	return n, nil
}

// EstimateGas implements Source.
func (f *HTTPForkSource) EstimateGas(ctx context.Context, from, to chaintypes.Address, data []byte, value *big.Int) (uint64, error) {
	args := map[string]interface{}{
		"from": hexAddress(from),
		"to":   hexAddress(to),
		"data": hexBytes(data),
	}
	if value != nil {
		args["value"] = "0x" + value.Text(16)
	}
	var gas string
	if err := f.call(ctx, &gas, "eth_estimateGas", args); err != nil {
		return 0, err
	}
	return parseHexUint64(gas)
}

func trimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func parseHexUint64(s string) (uint64, error) {
	s = trimHex(s)
	if s == "" {
		return 0, nil
	}
	var v uint64
	_, err := fmt.Sscanf(s, "%x", &v)
	return v, err
}

type rawBlock struct {
	Number        string   `json:"number"`
	Hash          string   `json:"hash"`
	ParentHash    string   `json:"parentHash"`
	Timestamp     string   `json:"timestamp"`
	GasLimit      string   `json:"gasLimit"`
	GasUsed       string   `json:"gasUsed"`
	BaseFeePerGas string   `json:"baseFeePerGas"`
	Transactions  []string `json:"-"`
}

func (r *rawBlock) toBlock() *chaintypes.Block {
	number, _ := parseHexUint64(r.Number)
	timestamp, _ := parseHexUint64(r.Timestamp)
	gasLimit, _ := parseHexUint64(r.GasLimit)
	gasUsed, _ := parseHexUint64(r.GasUsed)
	baseFee := new(big.Int)
	if r.BaseFeePerGas != "" {
		baseFee, _ = new(big.Int).SetString(trimHex(r.BaseFeePerGas), 16)
	}
	return &chaintypes.Block{
		Hash: common.HexToHash(r.Hash),
		Header: chaintypes.Header{
			ParentHash: common.HexToHash(r.ParentHash),
			Number:     number,
			Timestamp:  timestamp,
			BaseFee:    baseFee,
			GasLimit:   gasLimit,
			GasUsed:    gasUsed,
		},
	}
}

type rawReceipt struct {
	TransactionHash   string `json:"transactionHash"`
	BlockHash         string `json:"blockHash"`
	BlockNumber       string `json:"blockNumber"`
	From              string `json:"from"`
	To                string `json:"to"`
	ContractAddress   string `json:"contractAddress"`
	CumulativeGasUsed string `json:"cumulativeGasUsed"`
	GasUsed           string `json:"gasUsed"`
	Status            string `json:"status"`
}

func (r *rawReceipt) toReceipt() *chaintypes.Receipt {
	blockNumber, _ := parseHexUint64(r.BlockNumber)
	cumGas, _ := parseHexUint64(r.CumulativeGasUsed)
	gasUsed, _ := parseHexUint64(r.GasUsed)
	status, _ := parseHexUint64(r.Status)

	rec := &chaintypes.Receipt{
		TxHash:            common.HexToHash(r.TransactionHash),
		BlockHash:         common.HexToHash(r.BlockHash),
		BlockNumber:       blockNumber,
		From:              common.HexToAddress(r.From),
		CumulativeGasUsed: cumGas,
		GasUsed:           gasUsed,
		Status:            status,
	}
	if r.To != "" {
		addr := common.HexToAddress(r.To)
		rec.To = &addr
	}
	if r.ContractAddress != "" {
		addr := common.HexToAddress(r.ContractAddress)
		rec.ContractAddress = &addr
	}
	return rec
}
