// Package forksource defines the capability set a node needs from an
// upstream network when it is started in fork mode, and an HTTP JSON-RPC
// client implementing it. Every method is read-only, idempotent, and
// expected to be safely retryable.
package forksource

import (
	"context"
	"math/big"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// Source is the Fork Source contract: everything the node needs to read
// from an upstream chain in order to serve requests against state it does
// not itself hold.
type Source interface {
	BlockByNumber(ctx context.Context, number uint64) (*chaintypes.Block, error)
	BlockByHash(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Block, error)
	TransactionByHash(ctx context.Context, hash chaintypes.Hash) ([]byte, error)
	TransactionReceipt(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Receipt, error)
	CodeAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) ([]byte, error)
	BalanceAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) (*big.Int, error)
	NonceAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) (uint64, error)
	StorageAt(ctx context.Context, addr chaintypes.Address, key chaintypes.Hash, blockNumber uint64) (chaintypes.Hash, error)
	ChainID(ctx context.Context) (uint64, error)
	L1GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, from, to chaintypes.Address, data []byte, value *big.Int) (uint64, error)
}
