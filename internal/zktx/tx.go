// Package zktx decodes transaction wire envelopes into the fields this
// node's executor needs. Standard legacy and EIP-1559 envelopes are
// decoded with go-ethereum's own transaction type; the zkSync-specific
// 0x71 ("EIP-712") envelope has no go-ethereum support and is decoded by
// hand.
package zktx

import (
	"errors"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// EIP712TxType is the zkSync-era transaction envelope type byte.
const EIP712TxType = 0x71

// Transaction is the decoded, executor-ready view of one transaction,
// regardless of which wire envelope it arrived in.
type Transaction struct {
	Hash     chaintypes.Hash
	From     chaintypes.Address
	To       *chaintypes.Address
	Nonce    uint64
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
	Data     []byte
	TxType   byte
}

// Decode parses a raw transaction envelope (as returned verbatim from
// eth_sendRawTransaction / a fork source) into a Transaction.
func Decode(raw []byte) (*Transaction, error) {
	if len(raw) == 0 {
		return nil, errors.New("zktx: empty transaction payload")
	}

	if raw[0] == EIP712TxType {
		return decodeEIP712(raw[1:])
	}

	var tx gethtypes.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return fromGethTransaction(&tx)
}

func fromGethTransaction(tx *gethtypes.Transaction) (*Transaction, error) {
	signer := gethtypes.LatestSignerForChainID(tx.ChainId())
	from, err := gethtypes.Sender(signer, tx)
	if err != nil {
		return nil, err
	}

	out := &Transaction{
		Hash:     tx.Hash(),
		From:     from,
		To:       tx.To(),
		Nonce:    tx.Nonce(),
		Value:    tx.Value(),
		GasLimit: tx.Gas(),
		GasPrice: tx.GasPrice(),
		Data:     tx.Data(),
		TxType:   tx.Type(),
	}
	return out, nil
}

// decodeEIP712 decodes the RLP-encoded tuple that makes up the body of a
// 0x71 envelope: [nonce, gasPrice, gasLimit, to, value, data, from,
// chainId, signature, ...reserved fields, paymaster params, factory deps].
// Only the fields this node needs to execute and display the transaction
// are decoded; trailing zkSync-specific fields are accepted and ignored.
func decodeEIP712(body []byte) (*Transaction, error) {
	var fields []rlp.RawValue
	if err := rlp.DecodeBytes(body, &fields); err != nil {
		return nil, err
	}
	if len(fields) < 8 {
		return nil, errors.New("zktx: malformed 0x71 envelope")
	}

	var nonce uint64
	if err := rlp.DecodeBytes(fields[0], &nonce); err != nil {
		return nil, err
	}
	gasPrice := new(big.Int)
	if err := rlp.DecodeBytes(fields[1], gasPrice); err != nil {
		return nil, err
	}
	gasLimit := new(big.Int)
	if err := rlp.DecodeBytes(fields[2], gasLimit); err != nil {
		return nil, err
	}
	var toBytes []byte
	if err := rlp.DecodeBytes(fields[3], &toBytes); err != nil {
		return nil, err
	}
	var to *chaintypes.Address
	if len(toBytes) == 20 {
		addr := chaintypes.Address(toBytes20(toBytes))
		to = &addr
	}
	value := new(big.Int)
	if err := rlp.DecodeBytes(fields[4], value); err != nil {
		return nil, err
	}
	var data []byte
	if err := rlp.DecodeBytes(fields[5], &data); err != nil {
		return nil, err
	}
	var fromBytes []byte
	if err := rlp.DecodeBytes(fields[6], &fromBytes); err != nil {
		return nil, err
	}
	if len(fromBytes) != 20 {
		return nil, errors.New("zktx: malformed sender in 0x71 envelope")
	}
	from := chaintypes.Address(toBytes20(fromBytes))

	hash := crypto.Keccak256Hash(append([]byte{EIP712TxType}, body...))

	return &Transaction{
		Hash:     hash,
		From:     from,
		To:       to,
		Nonce:    nonce,
		Value:    value,
		GasLimit: gasLimit.Uint64(),
		GasPrice: gasPrice,
		Data:     data,
		TxType:   EIP712TxType,
	}, nil
}

func toBytes20(b []byte) [20]byte {
	var out [20]byte
	copy(out[:], b)
	return out
}
