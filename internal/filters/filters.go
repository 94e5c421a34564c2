// Package filters implements the filter registry: stateful Block,
// PendingTx and Log filters created by eth_newFilter/eth_newBlockFilter/
// eth_newPendingTransactionFilter and polled by eth_getFilterChanges,
// pruned after an idle timeout.
package filters

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// Config holds the registry's limits.
type Config struct {
	MaxFilters int
	// IdleTimeout is how long a filter may go unpolled before it is
	// pruned.
	IdleTimeout time.Duration
	MaxLogs     int
}

// DefaultConfig returns the registry's default limits.
func DefaultConfig() Config {
	return Config{
		MaxFilters:  100,
		IdleTimeout: 5 * time.Minute,
		MaxLogs:     10000,
	}
}

// LogFilter is a standing eth_getLogs-style subscription.
type LogFilter struct {
	ID        chaintypes.Hash
	FromBlock uint64
	ToBlock   uint64
	Addresses []chaintypes.Address
	Topics    [][]chaintypes.Hash
	CreatedAt time.Time
	Logs      []*chaintypes.Log
}

// BlockFilter tracks newly produced block hashes.
type BlockFilter struct {
	ID          chaintypes.Hash
	CreatedAt   time.Time
	BlockHashes []chaintypes.Hash
}

// PendingTxFilter tracks transaction hashes as they're submitted.
type PendingTxFilter struct {
	ID        chaintypes.Hash
	CreatedAt time.Time
	TxHashes  []chaintypes.Hash
}

type kind int

const (
	kindLog kind = iota
	kindBlock
	kindPendingTx
)

type entry struct {
	kind        kind
	logFilter   *LogFilter
	blockFilter *BlockFilter
	pendingTx   *PendingTxFilter
	lastPoll    time.Time
}

// Registry manages every installed filter.
type Registry struct {
	mu      sync.RWMutex
	config  Config
	filters map[chaintypes.Hash]*entry
	nextSeq uint64
}

// New constructs an empty Registry.
func New(config Config) *Registry {
	return &Registry{config: config, filters: make(map[chaintypes.Hash]*entry)}
}

// ErrMaxFilters is returned when the registry is at capacity.
var ErrMaxFilters = errors.New("filters: maximum number of filters reached")

// ErrNotFound is returned when a filter id does not exist.
var ErrNotFound = errors.New("filters: filter not found")

// ErrWrongKind is returned when a filter id exists but names a different
// filter kind than the caller expected.
var ErrWrongKind = errors.New("filters: filter is not of the requested kind")

// NewLogFilter installs a new Log filter and returns its id.
func (r *Registry) NewLogFilter(fromBlock, toBlock uint64, addresses []chaintypes.Address, topics [][]chaintypes.Hash) (chaintypes.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.filters) >= r.config.MaxFilters {
		return chaintypes.Hash{}, ErrMaxFilters
	}
	id := r.generateID()
	r.filters[id] = &entry{
		kind: kindLog,
		logFilter: &LogFilter{
			ID:        id,
			FromBlock: fromBlock,
			ToBlock:   toBlock,
			Addresses: addresses,
			Topics:    topics,
			CreatedAt: time.Now(),
		},
		lastPoll: time.Now(),
	}
	return id, nil
}

// NewBlockFilter installs a new Block filter and returns its id.
func (r *Registry) NewBlockFilter() (chaintypes.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.filters) >= r.config.MaxFilters {
		return chaintypes.Hash{}, ErrMaxFilters
	}
	id := r.generateID()
	r.filters[id] = &entry{
		kind:        kindBlock,
		blockFilter: &BlockFilter{ID: id, CreatedAt: time.Now()},
		lastPoll:    time.Now(),
	}
	return id, nil
}

// NewPendingTxFilter installs a new PendingTx filter and returns its id.
func (r *Registry) NewPendingTxFilter() (chaintypes.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.filters) >= r.config.MaxFilters {
		return chaintypes.Hash{}, ErrMaxFilters
	}
	id := r.generateID()
	r.filters[id] = &entry{
		kind:      kindPendingTx,
		pendingTx: &PendingTxFilter{ID: id, CreatedAt: time.Now()},
		lastPoll:  time.Now(),
	}
	return id, nil
}

// GetFilterLogs drains and returns the logs accumulated since the last
// poll of a Log filter.
func (r *Registry) GetFilterLogs(id chaintypes.Hash) ([]*chaintypes.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneExpiredLocked()

	e, ok := r.filters[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.kind != kindLog {
		return nil, ErrWrongKind
	}
	e.lastPoll = time.Now()
	logs := e.logFilter.Logs
	e.logFilter.Logs = nil
	if logs == nil {
		logs = []*chaintypes.Log{}
	}
	return logs, nil
}

// GetFilterBlockHashes drains and returns the block hashes accumulated
// since the last poll of a Block filter.
func (r *Registry) GetFilterBlockHashes(id chaintypes.Hash) ([]chaintypes.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneExpiredLocked()

	e, ok := r.filters[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.kind != kindBlock {
		return nil, ErrWrongKind
	}
	e.lastPoll = time.Now()
	hashes := e.blockFilter.BlockHashes
	e.blockFilter.BlockHashes = nil
	if hashes == nil {
		hashes = []chaintypes.Hash{}
	}
	return hashes, nil
}

// GetFilterPendingTxs drains and returns the transaction hashes
// accumulated since the last poll of a PendingTx filter.
func (r *Registry) GetFilterPendingTxs(id chaintypes.Hash) ([]chaintypes.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneExpiredLocked()

	e, ok := r.filters[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.kind != kindPendingTx {
		return nil, ErrWrongKind
	}
	e.lastPoll = time.Now()
	hashes := e.pendingTx.TxHashes
	e.pendingTx.TxHashes = nil
	if hashes == nil {
		hashes = []chaintypes.Hash{}
	}
	return hashes, nil
}

// AddLog distributes a log to every matching Log filter.
func (r *Registry) AddLog(log *chaintypes.Log) {
	if log == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.filters {
		if e.kind != kindLog {
			continue
		}
		if LogMatches(log, e.logFilter.Addresses, e.logFilter.Topics) && logInRange(log, e.logFilter.FromBlock, e.logFilter.ToBlock) && len(e.logFilter.Logs) < r.config.MaxLogs {
			e.logFilter.Logs = append(e.logFilter.Logs, log)
		}
	}
}

// AddBlockHash distributes a newly produced block hash to every Block
// filter.
func (r *Registry) AddBlockHash(hash chaintypes.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.filters {
		if e.kind == kindBlock {
			e.blockFilter.BlockHashes = append(e.blockFilter.BlockHashes, hash)
		}
	}
}

// AddPendingTx distributes a newly submitted transaction hash to every
// PendingTx filter.
func (r *Registry) AddPendingTx(hash chaintypes.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.filters {
		if e.kind == kindPendingTx {
			e.pendingTx.TxHashes = append(e.pendingTx.TxHashes, hash)
		}
	}
}

// Uninstall removes a filter, reporting whether it existed.
func (r *Registry) Uninstall(id chaintypes.Hash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneExpiredLocked()
	_, ok := r.filters[id]
	delete(r.filters, id)
	return ok
}

// PruneExpired removes every filter idle for longer than the configured
// timeout. Exported for a caller that wants to run it off a ticker;
// per-access paths call pruneExpiredLocked directly instead, since they
// already hold r.mu by the time they'd need to prune.
func (r *Registry) PruneExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneExpiredLocked()
}

// pruneExpiredLocked removes every filter idle for longer than the
// configured timeout. Caller must hold r.mu.
func (r *Registry) pruneExpiredLocked() {
	now := time.Now()
	for id, e := range r.filters {
		if now.Sub(e.lastPoll) > r.config.IdleTimeout {
			delete(r.filters, id)
		}
	}
}

// Count returns the number of currently installed filters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}

// generateID produces a unique 128-bit filter id, stored left-padded with
// zeros in a Hash the way a uint256 RPC quantity would be. Caller must hold
// r.mu.
func (r *Registry) generateID() chaintypes.Hash {
	r.nextSeq++
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], r.nextSeq)
	binary.LittleEndian.PutUint64(buf[8:], uint64(time.Now().UnixNano()))
	digest := crypto.Keccak256(buf[:])

	var id chaintypes.Hash
	copy(id[16:], digest[16:])
	return id
}

func logInRange(log *chaintypes.Log, fromBlock, toBlock uint64) bool {
	return log.BlockNumber >= fromBlock && (toBlock == 0 || log.BlockNumber <= toBlock)
}

// LogMatches reports whether log satisfies an address/topic filter, per
// the standard eth_getLogs matching rule: addresses OR-match, and each
// topic position OR-matches within its set while ANDing across positions.
// An empty addresses or topic-position list matches everything.
func LogMatches(log *chaintypes.Log, addresses []chaintypes.Address, topics [][]chaintypes.Hash) bool {
	if len(addresses) > 0 {
		found := false
		for _, addr := range addresses {
			if log.Address == addr {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for i, topicSet := range topics {
		if len(topicSet) == 0 {
			continue
		}
		if i >= len(log.Topics) {
			return false
		}
		matched := false
		for _, t := range topicSet {
			if log.Topics[i] == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
