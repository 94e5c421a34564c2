// Package node implements the Node Facade: the single entry point every
// RPC namespace handler calls into, holding all chain state behind one
// lock and giving every operation (run_transaction, call, estimate_gas,
// account getters/setters, impersonation, mine, reset, apply_txs,
// snapshot/revert) a single, serialized, consistent view of the chain.
package node

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/eratestnode/eratestnode/internal/blockproducer"
	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/executor"
	"github.com/eratestnode/eratestnode/internal/executor/native"
	"github.com/eratestnode/eratestnode/internal/filters"
	"github.com/eratestnode/eratestnode/internal/forkcache"
	"github.com/eratestnode/eratestnode/internal/forkoverlay"
	"github.com/eratestnode/eratestnode/internal/forksource"
	"github.com/eratestnode/eratestnode/internal/metrics"
	"github.com/eratestnode/eratestnode/internal/richwallets"
	"github.com/eratestnode/eratestnode/internal/state"
	"github.com/eratestnode/eratestnode/internal/zktx"
)

// InnerState is every piece of mutable chain state, held behind Node.mu.
type InnerState struct {
	store       *state.Store
	blocks      []*chaintypes.Block
	byHash      map[chaintypes.Hash]uint64
	receipts    map[chaintypes.Hash]*chaintypes.Receipt
	txBlock     map[chaintypes.Hash]uint64
	txByHash    map[chaintypes.Hash]*zktx.Transaction
	debugTraces map[chaintypes.Hash][]executor.DebugRecord

	pendingTxs []*zktx.Transaction

	impersonated mapset.Set[chaintypes.Address]

	nextTimestampOverride *uint64
	timeOffsetSeconds     int64

	l1BatchNumber uint64

	dev DevSettings
}

func newInnerState() *InnerState {
	return &InnerState{
		store:        state.New(),
		byHash:       make(map[chaintypes.Hash]uint64),
		receipts:     make(map[chaintypes.Hash]*chaintypes.Receipt),
		txBlock:      make(map[chaintypes.Hash]uint64),
		txByHash:     make(map[chaintypes.Hash]*zktx.Transaction),
		debugTraces:  make(map[chaintypes.Hash][]executor.DebugRecord),
		impersonated: mapset.NewSet[chaintypes.Address](),
	}
}

// Node is the node facade.
type Node struct {
	mu sync.RWMutex

	config   Config
	inner    *InnerState
	executor executor.Executor
	producer *blockproducer.Producer
	overlay  *forkoverlay.Overlay
	filters  *filters.Registry
	logger   *log.Logger
	metrics  *metrics.Metrics
}

// SetMetrics attaches a Metrics sink the node reports block production and
// transaction counts to. A Node with no Metrics attached (the zero value)
// simply skips these observations.
func (n *Node) SetMetrics(m *metrics.Metrics) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.metrics = m
}

// New constructs a Node from config, wiring an overlay only if a fork URL
// is configured.
func New(config Config, logger *log.Logger) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	var overlay *forkoverlay.Overlay
	if config.ForkURL != "" {
		cache, err := forkcache.New(config.CachePolicyValue(), config.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("node: init fork cache: %w", err)
		}
		var forkBlock uint64
		if config.ForkBlockNumber != nil {
			forkBlock = *config.ForkBlockNumber
		}
		overlay = &forkoverlay.Overlay{
			Source:          forksource.NewHTTPForkSource(config.ForkURL, config.ForkSourceTimeout),
			Cache:           cache,
			ForkBlockNumber: forkBlock,
		}
	}

	n := &Node{
		config:   config,
		inner:    newInnerState(),
		executor: native.New(),
		producer: blockproducer.New(config.ProducerMode()),
		overlay:  overlay,
		filters:  filters.New(filters.DefaultConfig()),
		logger:   logger,
	}

	genesis := n.producer.Assemble(nil, uint64(time.Now().Unix()), 0, config.BaseFee(), config.GasLimit, nil, nil, nil)
	n.inner.blocks = append(n.inner.blocks, genesis)
	n.inner.byHash[genesis.Hash] = genesis.Header.Number
	n.inner.dev = DevSettings{ShowCalls: config.ShowCalls, LogLevel: config.LogLevel, LoggingEnabled: true}

	for _, w := range richwallets.All() {
		n.SetRichAccount(w.Address)
	}

	return n, nil
}

// SetRichAccount credits a rich wallet's starting balance. It is not
// itself gated behind a mined block: balances are visible immediately,
// matching the upstream test node's startup behavior.
func (n *Node) SetRichAccount(addr chaintypes.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	bal, _ := new(big.Int).SetString(richwallets.InitialBalanceWei, 10)
	n.inner.store.CreateAccount(addr)
	n.inner.store.AddBalance(addr, bal)
}

// currentHeader returns the header of the chain tip. Caller must hold
// n.mu (read or write).
func (n *Node) currentHeader() *chaintypes.Header {
	if len(n.inner.blocks) == 0 {
		return nil
	}
	return &n.inner.blocks[len(n.inner.blocks)-1].Header
}

// BlockNumber returns the current chain tip's block number.
func (n *Node) BlockNumber() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.currentHeader().Number
}

// ChainID returns the configured chain id.
func (n *Node) ChainID() uint64 {
	return n.config.ChainID
}

// nowUnix returns the current wall-clock time as a Unix timestamp.
func nowUnix() int64 {
	return time.Now().Unix()
}

// nextTimestamp resolves the timestamp for the next block, honoring any
// evm_setNextBlockTimestamp override and cumulative evm_increaseTime
// offset, then clears the one-shot override.
func (n *Node) nextTimestamp() uint64 {
	if n.inner.nextTimestampOverride != nil {
		ts := *n.inner.nextTimestampOverride
		n.inner.nextTimestampOverride = nil
		return ts
	}
	return uint64(time.Now().Unix() + n.inner.timeOffsetSeconds)
}

// SetNextBlockTimestamp implements evm_setNextBlockTimestamp.
func (n *Node) SetNextBlockTimestamp(ts uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.nextTimestampOverride = &ts
}

// IncreaseTime implements evm_increaseTime.
func (n *Node) IncreaseTime(seconds uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.timeOffsetSeconds += int64(seconds)
}

// ImpersonateAccount implements anvil_impersonateAccount /
// hardhat_impersonateAccount: signature checks are bypassed for addr.
func (n *Node) ImpersonateAccount(addr chaintypes.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.impersonated.Add(addr)
}

// StopImpersonatingAccount undoes ImpersonateAccount.
func (n *Node) StopImpersonatingAccount(addr chaintypes.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.impersonated.Remove(addr)
}

// IsImpersonating reports whether addr currently bypasses signature
// verification.
func (n *Node) IsImpersonating(addr chaintypes.Address) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.inner.impersonated.Contains(addr)
}

// GetBalance returns addr's balance, falling through to the fork overlay
// for untouched accounts.
func (n *Node) GetBalance(addr chaintypes.Address) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.overlay.IsForked() {
		return n.overlay.Balance(context.Background(), n.inner.store, addr)
	}
	return n.inner.store.GetBalance(addr), nil
}

// GetNonce returns addr's nonce, falling through to the fork overlay.
func (n *Node) GetNonce(addr chaintypes.Address) (uint64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.overlay.IsForked() {
		return n.overlay.Nonce(context.Background(), n.inner.store, addr)
	}
	return n.inner.store.GetNonce(addr), nil
}

// GetCode returns addr's code, falling through to the fork overlay.
func (n *Node) GetCode(addr chaintypes.Address) ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.overlay.IsForked() {
		return n.overlay.Code(context.Background(), n.inner.store, addr)
	}
	return n.inner.store.GetCode(addr), nil
}

// GetStorageAt returns a raw storage slot, falling through to the fork
// overlay. Per the cache invariant, this "latest" read is never written
// back into the overlay's cache even when it is forked.
func (n *Node) GetStorageAt(addr chaintypes.Address, slot chaintypes.Hash) (chaintypes.Hash, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.overlay.IsForked() {
		return n.overlay.Storage(context.Background(), n.inner.store, addr, slot)
	}
	return n.inner.store.GetState(addr, slot), nil
}

// SetBalance implements anvil_setBalance / hardhat_setBalance.
func (n *Node) SetBalance(addr chaintypes.Address, balance *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.store.SetBalance(addr, balance)
}

// SetNonce implements anvil_setNonce / hardhat_setNonce.
func (n *Node) SetNonce(addr chaintypes.Address, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.store.SetNonce(addr, nonce)
}

// SetCode implements anvil_setCode / hardhat_setCode.
func (n *Node) SetCode(addr chaintypes.Address, code []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.store.SetCode(addr, code)
}

// SetStorageAt implements anvil_setStorageAt / hardhat_setStorageAt.
func (n *Node) SetStorageAt(addr chaintypes.Address, slot, value chaintypes.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.store.SetState(addr, slot, value)
}

// Transaction returns the decoded transaction for a hash, if known.
func (n *Node) Transaction(hash chaintypes.Hash) (*zktx.Transaction, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	tx, ok := n.inner.txByHash[hash]
	return tx, ok
}

// TransactionBlock returns the block number a transaction was mined in, if
// known.
func (n *Node) TransactionBlock(hash chaintypes.Hash) (uint64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	num, ok := n.inner.txBlock[hash]
	return num, ok
}

// DebugTrace returns the bootloader debug channel recorded for a mined
// transaction, if any.
func (n *Node) DebugTrace(hash chaintypes.Hash) ([]executor.DebugRecord, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	d, ok := n.inner.debugTraces[hash]
	return d, ok
}

// Snapshot implements evm_snapshot.
func (n *Node) Snapshot() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.inner.store.Snapshot()
}

// Revert implements evm_revert, per the chosen Open Question resolution:
// reverting drops every snapshot taken at or after id.
func (n *Node) Revert(id int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.inner.store.RevertToSnapshot(id)
}
