package rpcapi

import (
	"encoding/json"
	"math/big"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/executor"
	"github.com/eratestnode/eratestnode/internal/filters"
	"github.com/eratestnode/eratestnode/internal/node"
	"github.com/eratestnode/eratestnode/internal/richwallets"
	"github.com/eratestnode/eratestnode/internal/zktx"
)

func ethMethods() map[string]Handler {
	return map[string]Handler{
		"eth_chainId":                      ethChainID,
		"eth_blockNumber":                  ethBlockNumber,
		"eth_getBalance":                   ethGetBalance,
		"eth_getTransactionCount":          ethGetTransactionCount,
		"eth_getCode":                      ethGetCode,
		"eth_getStorageAt":                 ethGetStorageAt,
		"eth_getBlockByNumber":             ethGetBlockByNumber,
		"eth_getBlockByHash":               ethGetBlockByHash,
		"eth_getTransactionByHash":         ethGetTransactionByHash,
		"eth_getTransactionReceipt":        ethGetTransactionReceipt,
		"eth_call":                         ethCall,
		"eth_estimateGas":                  ethEstimateGas,
		"eth_sendRawTransaction":           ethSendRawTransaction,
		"eth_sendTransaction":              ethSendTransaction,
		"eth_gasPrice":                     ethGasPrice,
		"eth_feeHistory":                   ethFeeHistory,
		"eth_getLogs":                      ethGetLogs,
		"eth_newFilter":                    ethNewFilter,
		"eth_newBlockFilter":               ethNewBlockFilter,
		"eth_newPendingTransactionFilter":  ethNewPendingTransactionFilter,
		"eth_uninstallFilter":              ethUninstallFilter,
		"eth_getFilterChanges":             ethGetFilterChanges,
		"eth_getFilterLogs":                ethGetFilterLogs,
		"eth_accounts":                     ethAccounts,
		"eth_syncing":                      ethSyncing,
		"eth_mining":                       ethMining,
		"eth_protocolVersion":              ethProtocolVersion,
	}
}

func ethChainID(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return hexUint64(n.ChainID()), nil
}

func ethBlockNumber(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return hexUint64(n.BlockNumber()), nil
}

func ethGetBalance(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	bal, err := n.GetBalance(addr)
	if err != nil {
		return nil, ErrForkUnavailable
	}
	return hexBigInt(bal), nil
}

func ethGetTransactionCount(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	nonce, err := n.GetNonce(addr)
	if err != nil {
		return nil, ErrForkUnavailable
	}
	return hexUint64(nonce), nil
}

func ethGetCode(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	code, err := n.GetCode(addr)
	if err != nil {
		return nil, ErrForkUnavailable
	}
	return hexBytes(code), nil
}

func ethGetStorageAt(n *node.Node, params []json.RawMessage) (interface{}, error) {
	addr, err := paramAddress(params, 0)
	if err != nil {
		return nil, err
	}
	slot, err := paramHash(params, 1)
	if err != nil {
		return nil, err
	}
	value, err := n.GetStorageAt(addr, slot)
	if err != nil {
		return nil, ErrForkUnavailable
	}
	return hexHash(value), nil
}

// rpcBlock is the JSON-RPC wire representation of a block.
type rpcBlock struct {
	Number       string        `json:"number"`
	Hash         string        `json:"hash"`
	ParentHash   string        `json:"parentHash"`
	Timestamp    string        `json:"timestamp"`
	GasLimit     string        `json:"gasLimit"`
	GasUsed      string        `json:"gasUsed"`
	BaseFeePerGas string       `json:"baseFeePerGas"`
	L1BatchNumber string       `json:"l1BatchNumber"`
	Transactions interface{}   `json:"transactions"`
}

func formatBlock(block *chaintypes.Block, fullTx bool) *rpcBlock {
	out := &rpcBlock{
		Number:        hexUint64(block.Header.Number),
		Hash:          hexHash(block.Hash),
		ParentHash:    hexHash(block.Header.ParentHash),
		Timestamp:     hexUint64(block.Header.Timestamp),
		GasLimit:      hexUint64(block.Header.GasLimit),
		GasUsed:       hexUint64(block.Header.GasUsed),
		BaseFeePerGas: hexBigInt(block.Header.BaseFee),
		L1BatchNumber: hexUint64(block.Header.L1BatchNumber),
	}
	if !fullTx {
		hashes := make([]string, len(block.Transactions))
		for i, h := range block.Transactions {
			hashes[i] = hexHash(h)
		}
		out.Transactions = hashes
		return out
	}
	// fullTx population happens in the caller, which has access to the
	// node for per-tx lookups.
	out.Transactions = []interface{}{}
	return out
}

func ethGetBlockByNumber(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var bn BlockNumber
	if err := decodeParam(params, 0, &bn); err != nil {
		return nil, ErrInvalidParams
	}
	fullTx, _ := optionalBoolParam(params, 1)
	block, ok := n.BlockByNumber(bn.Resolve(n.BlockNumber()))
	if !ok {
		return nil, nil
	}
	return blockWithTxs(n, block, fullTx), nil
}

func ethGetBlockByHash(n *node.Node, params []json.RawMessage) (interface{}, error) {
	hash, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	fullTx, _ := optionalBoolParam(params, 1)
	block, ok := n.BlockByHash(hash)
	if !ok {
		return nil, nil
	}
	return blockWithTxs(n, block, fullTx), nil
}

func blockWithTxs(n *node.Node, block *chaintypes.Block, fullTx bool) *rpcBlock {
	out := formatBlock(block, fullTx)
	if !fullTx {
		return out
	}
	txs := make([]*rpcTransaction, 0, len(block.Transactions))
	for i, h := range block.Transactions {
		tx, ok := n.Transaction(h)
		if !ok {
			continue
		}
		idx := uint64(i)
		txs = append(txs, formatTransaction(tx, &block.Hash, &block.Header.Number, &idx))
	}
	out.Transactions = txs
	return out
}

type rpcTransaction struct {
	Hash             string  `json:"hash"`
	Nonce            string  `json:"nonce"`
	BlockHash        *string `json:"blockHash"`
	BlockNumber      *string `json:"blockNumber"`
	TransactionIndex *string `json:"transactionIndex"`
	From             string  `json:"from"`
	To               *string `json:"to"`
	Value            string  `json:"value"`
	Gas              string  `json:"gas"`
	GasPrice         string  `json:"gasPrice"`
	Input            string  `json:"input"`
	Type             string  `json:"type"`
}

func formatTransaction(tx *zktx.Transaction, blockHash *chaintypes.Hash, blockNumber *uint64, index *uint64) *rpcTransaction {
	rt := &rpcTransaction{
		Hash:     hexHash(tx.Hash),
		Nonce:    hexUint64(tx.Nonce),
		From:     hexAddress(tx.From),
		Value:    hexBigInt(tx.Value),
		Gas:      hexUint64(tx.GasLimit),
		GasPrice: hexBigInt(tx.GasPrice),
		Input:    hexBytes(tx.Data),
		Type:     hexInt(int(tx.TxType)),
	}
	if tx.To != nil {
		to := hexAddress(*tx.To)
		rt.To = &to
	}
	if blockHash != nil {
		bh := hexHash(*blockHash)
		rt.BlockHash = &bh
	}
	if blockNumber != nil {
		bn := hexUint64(*blockNumber)
		rt.BlockNumber = &bn
	}
	if index != nil {
		idx := hexUint64(*index)
		rt.TransactionIndex = &idx
	}
	return rt
}

func ethGetTransactionByHash(n *node.Node, params []json.RawMessage) (interface{}, error) {
	hash, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	tx, ok := n.Transaction(hash)
	if !ok {
		return nil, nil
	}
	var blockHash *chaintypes.Hash
	var blockNumber *uint64
	if num, ok := n.TransactionBlock(hash); ok {
		blockNumber = &num
		if block, ok := n.BlockByNumber(num); ok {
			blockHash = &block.Hash
		}
	}
	return formatTransaction(tx, blockHash, blockNumber, nil), nil
}

type rpcReceipt struct {
	TransactionHash   string        `json:"transactionHash"`
	TransactionIndex  string        `json:"transactionIndex"`
	BlockHash         string        `json:"blockHash"`
	BlockNumber       string        `json:"blockNumber"`
	From              string        `json:"from"`
	To                *string       `json:"to"`
	GasUsed           string        `json:"gasUsed"`
	CumulativeGasUsed string        `json:"cumulativeGasUsed"`
	EffectiveGasPrice string        `json:"effectiveGasPrice"`
	ContractAddress   *string       `json:"contractAddress"`
	Logs              []*rpcLog     `json:"logs"`
	Status            string        `json:"status"`
	LogsBloom         string        `json:"logsBloom"`
	L1BatchNumber     *string       `json:"l1BatchNumber,omitempty"`
}

type rpcLog struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockNumber      string   `json:"blockNumber"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`
	BlockHash        string   `json:"blockHash"`
	LogIndex         string   `json:"logIndex"`
	Removed          bool     `json:"removed"`
}

func formatLog(l *chaintypes.Log) *rpcLog {
	topics := make([]string, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = hexHash(t)
	}
	return &rpcLog{
		Address:          hexAddress(l.Address),
		Topics:           topics,
		Data:             hexBytes(l.Data),
		BlockNumber:      hexUint64(l.BlockNumber),
		TransactionHash:  hexHash(l.TxHash),
		TransactionIndex: hexInt(int(l.TxIndex)),
		BlockHash:        hexHash(l.BlockHash),
		LogIndex:         hexInt(int(l.Index)),
		Removed:          l.Removed,
	}
}

func formatReceipt(r *chaintypes.Receipt) *rpcReceipt {
	logs := make([]*rpcLog, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = formatLog(l)
	}
	out := &rpcReceipt{
		TransactionHash:   hexHash(r.TxHash),
		TransactionIndex:  hexInt(int(r.TransactionIndex)),
		BlockHash:         hexHash(r.BlockHash),
		BlockNumber:       hexUint64(r.BlockNumber),
		From:              hexAddress(r.From),
		GasUsed:           hexUint64(r.GasUsed),
		CumulativeGasUsed: hexUint64(r.CumulativeGasUsed),
		EffectiveGasPrice: hexBigInt(r.EffectiveGasPrice),
		Status:            hexUint64(r.Status),
		LogsBloom:         hexBloom(r.LogsBloom),
		Logs:              logs,
	}
	if r.To != nil {
		to := hexAddress(*r.To)
		out.To = &to
	}
	if r.ContractAddress != nil {
		ca := hexAddress(*r.ContractAddress)
		out.ContractAddress = &ca
	}
	if r.L1BatchNumber != nil {
		bn := hexUint64(*r.L1BatchNumber)
		out.L1BatchNumber = &bn
	}
	return out
}

func ethGetTransactionReceipt(n *node.Node, params []json.RawMessage) (interface{}, error) {
	hash, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	r, ok := n.Receipt(hash)
	if !ok {
		return nil, nil
	}
	return formatReceipt(r), nil
}

// callArgs is the shared argument shape for eth_call / eth_estimateGas /
// eth_sendTransaction.
type callArgs struct {
	From     *string `json:"from"`
	To       *string `json:"to"`
	Gas      *string `json:"gas"`
	GasPrice *string `json:"gasPrice"`
	Value    *string `json:"value"`
	Data     *string `json:"data"`
	Input    *string `json:"input"`
	Nonce    *string `json:"nonce"`
}

func (a *callArgs) toExecutorCall() (executor.Call, error) {
	call := executor.Call{Value: big.NewInt(0), GasPrice: big.NewInt(0)}
	if a.From != nil {
		addr, err := parseAddress(*a.From)
		if err != nil {
			return call, err
		}
		call.From = addr
	}
	if a.To != nil && *a.To != "" {
		addr, err := parseAddress(*a.To)
		if err != nil {
			return call, err
		}
		call.To = &addr
	}
	if a.Value != nil {
		v, err := parseHexBigInt(*a.Value)
		if err != nil {
			return call, err
		}
		call.Value = v
	}
	if a.Gas != nil {
		g, err := parseHexUint64(*a.Gas)
		if err != nil {
			return call, err
		}
		call.GasLimit = g
	}
	if a.GasPrice != nil {
		g, err := parseHexBigInt(*a.GasPrice)
		if err != nil {
			return call, err
		}
		call.GasPrice = g
	}
	data := a.Input
	if data == nil {
		data = a.Data
	}
	if data != nil {
		b, err := parseHexBytes(*data)
		if err != nil {
			return call, err
		}
		call.Data = b
	}
	if a.Nonce != nil {
		nn, err := parseHexUint64(*a.Nonce)
		if err != nil {
			return call, err
		}
		call.Nonce = nn
	}
	return call, nil
}

func ethCall(n *node.Node, params []json.RawMessage) (interface{}, error) {
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
	if !result.Success {
		return nil, &RevertError{Reason: result.RevertReason, Data: result.ReturnData}
	}
	return hexBytes(result.ReturnData), nil
}

func ethEstimateGas(n *node.Node, params []json.RawMessage) (interface{}, error) {
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
	return hexUint64(gas), nil
}

func ethSendRawTransaction(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var rawHex string
	if err := decodeParam(params, 0, &rawHex); err != nil {
		return nil, ErrInvalidParams
	}
	raw, err := parseHexBytes(rawHex)
	if err != nil {
		return nil, ErrInvalidParams
	}
	receipt, err := n.RunTransaction(raw)
	if err != nil {
		return nil, NewInvalidTransactionError(err.Error())
	}
	return hexHash(receipt.TxHash), nil
}

// ethSendTransaction is unsupported on this node: every account is either a
// rich wallet with a known private key (clients sign locally) or an
// impersonated address (which still requires the client to submit a raw,
// unsigned envelope via eth_sendRawTransaction). Unlike a full node, this
// test node does not hold private keys for request-side signing.
func ethSendTransaction(n *node.Node, params []json.RawMessage) (interface{}, error) {
	return nil, NewInvalidTransactionError("eth_sendTransaction is not supported; sign locally and use eth_sendRawTransaction")
}

func ethGasPrice(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return hexUint64(0), nil
}

func ethFeeHistory(n *node.Node, params []json.RawMessage) (interface{}, error) {
	count, err := paramUint64(params, 0)
	if err != nil {
		count = 1
	}
	head := n.BlockNumber()
	oldest := uint64(0)
	if head+1 > count {
		oldest = head + 1 - count
	}
	rewards := make([]string, count)
	baseFees := make([]string, count+1)
	gasRatios := make([]float64, count)
	for i := range rewards {
		rewards[i] = "0x0"
		gasRatios[i] = 0
	}
	for i := range baseFees {
		baseFees[i] = "0x0"
	}
	return map[string]interface{}{
		"oldestBlock":   hexUint64(oldest),
		"baseFeePerGas": baseFees,
		"gasUsedRatio":  gasRatios,
		"reward":        rewards,
	}, nil
}

func ethGetLogs(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var crit struct {
		FromBlock *BlockNumber `json:"fromBlock"`
		ToBlock   *BlockNumber `json:"toBlock"`
		Address   interface{}  `json:"address"`
		Topics    [][]string   `json:"topics"`
	}
	if err := decodeParam(params, 0, &crit); err != nil {
		return nil, ErrInvalidParams
	}

	head := n.BlockNumber()
	from := uint64(0)
	to := head
	if crit.FromBlock != nil {
		from = crit.FromBlock.Resolve(head)
	}
	if crit.ToBlock != nil {
		to = crit.ToBlock.Resolve(head)
	}
	if to > head {
		to = head
	}

	addrs, err := parseAddressList(crit.Address)
	if err != nil {
		return nil, ErrInvalidParams
	}
	topics := make([][]chaintypes.Hash, len(crit.Topics))
	for i, group := range crit.Topics {
		for _, t := range group {
			if t == "" {
				continue
			}
			h, err := parseHash(t)
			if err != nil {
				return nil, ErrInvalidParams
			}
			topics[i] = append(topics[i], h)
		}
	}

	logs := n.LogsInRange(from, to, addrs, topics)
	out := make([]*rpcLog, len(logs))
	for i, l := range logs {
		out[i] = formatLog(l)
	}
	return out, nil
}

func parseAddressList(raw interface{}) ([]chaintypes.Address, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		addr, err := parseAddress(v)
		if err != nil {
			return nil, err
		}
		return []chaintypes.Address{addr}, nil
	case []interface{}:
		out := make([]chaintypes.Address, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, ErrInvalidParams
			}
			addr, err := parseAddress(s)
			if err != nil {
				return nil, err
			}
			out = append(out, addr)
		}
		return out, nil
	default:
		return nil, ErrInvalidParams
	}
}

func ethNewFilter(n *node.Node, params []json.RawMessage) (interface{}, error) {
	var crit struct {
		FromBlock *BlockNumber `json:"fromBlock"`
		ToBlock   *BlockNumber `json:"toBlock"`
		Address   interface{}  `json:"address"`
		Topics    [][]string   `json:"topics"`
	}
	if err := decodeParam(params, 0, &crit); err != nil {
		return nil, ErrInvalidParams
	}
	head := n.BlockNumber()
	from := uint64(0)
	to := ^uint64(0)
	if crit.FromBlock != nil {
		from = crit.FromBlock.Resolve(head)
	}
	if crit.ToBlock != nil {
		to = crit.ToBlock.Resolve(head)
	}
	addrs, err := parseAddressList(crit.Address)
	if err != nil {
		return nil, ErrInvalidParams
	}
	topics := make([][]chaintypes.Hash, len(crit.Topics))
	for i, group := range crit.Topics {
		for _, t := range group {
			if t == "" {
				continue
			}
			h, err := parseHash(t)
			if err != nil {
				return nil, ErrInvalidParams
			}
			topics[i] = append(topics[i], h)
		}
	}
	id, err := n.NewLogFilter(from, to, addrs, topics)
	if err != nil {
		return nil, mapFilterError(err)
	}
	return hexHash(id), nil
}

func ethNewBlockFilter(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	id, err := n.NewBlockFilter()
	if err != nil {
		return nil, mapFilterError(err)
	}
	return hexHash(id), nil
}

func ethNewPendingTransactionFilter(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	id, err := n.NewPendingTxFilter()
	if err != nil {
		return nil, mapFilterError(err)
	}
	return hexHash(id), nil
}

func ethUninstallFilter(n *node.Node, params []json.RawMessage) (interface{}, error) {
	id, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	return n.UninstallFilter(id), nil
}

func ethGetFilterChanges(n *node.Node, params []json.RawMessage) (interface{}, error) {
	id, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	result, err := n.FilterChanges(id)
	if err != nil {
		return nil, mapFilterError(err)
	}
	return result, nil
}

func ethGetFilterLogs(n *node.Node, params []json.RawMessage) (interface{}, error) {
	id, err := paramHash(params, 0)
	if err != nil {
		return nil, err
	}
	logs, err := n.FilterLogs(id)
	if err != nil {
		return nil, mapFilterError(err)
	}
	out := make([]*rpcLog, len(logs))
	for i, l := range logs {
		out[i] = formatLog(l)
	}
	return out, nil
}

func mapFilterError(err error) error {
	switch err {
	case filters.ErrMaxFilters:
		return err
	case filters.ErrNotFound:
		return ErrFilterNotFound
	case filters.ErrWrongKind:
		return ErrFilterNotFound
	default:
		return err
	}
}

func ethAccounts(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	wallets := richwallets.All()
	out := make([]string, len(wallets))
	for i, w := range wallets {
		out[i] = hexAddress(w.Address)
	}
	return out, nil
}

func ethSyncing(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return false, nil
}

func ethMining(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return true, nil
}

func ethProtocolVersion(n *node.Node, _ []json.RawMessage) (interface{}, error) {
	return hexInt(0x41), nil
}

func optionalBoolParam(params []json.RawMessage, idx int) (bool, bool) {
	if idx >= len(params) {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(params[idx], &v); err != nil {
		return false, false
	}
	return v, true
}
