package node

import (
	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/filters"
)

// NewLogFilter implements eth_newFilter.
func (n *Node) NewLogFilter(fromBlock, toBlock uint64, addresses []chaintypes.Address, topics [][]chaintypes.Hash) (chaintypes.Hash, error) {
	return n.filters.NewLogFilter(fromBlock, toBlock, addresses, topics)
}

// NewBlockFilter implements eth_newBlockFilter.
func (n *Node) NewBlockFilter() (chaintypes.Hash, error) {
	return n.filters.NewBlockFilter()
}

// NewPendingTxFilter implements eth_newPendingTransactionFilter.
func (n *Node) NewPendingTxFilter() (chaintypes.Hash, error) {
	return n.filters.NewPendingTxFilter()
}

// UninstallFilter implements eth_uninstallFilter.
func (n *Node) UninstallFilter(id chaintypes.Hash) bool {
	return n.filters.Uninstall(id)
}

// FilterChanges implements eth_getFilterChanges, returning whatever shape
// matches the filter's kind: a []Hash for block/pending-tx filters, or logs
// for a log filter.
func (n *Node) FilterChanges(id chaintypes.Hash) (interface{}, error) {
	if logs, err := n.filters.GetFilterLogs(id); err == nil {
		return logs, nil
	}
	if hashes, err := n.filters.GetFilterBlockHashes(id); err == nil {
		return hashes, nil
	}
	return n.filters.GetFilterPendingTxs(id)
}

// FilterLogs implements eth_getFilterLogs: only valid for log filters.
func (n *Node) FilterLogs(id chaintypes.Hash) ([]*chaintypes.Log, error) {
	return n.filters.GetFilterLogs(id)
}

// LogsInRange implements eth_getLogs: a direct scan over mined receipts in
// [from, to], filtered by address/topic, matching the same matcher the
// filter registry uses for live subscriptions.
func (n *Node) LogsInRange(from, to uint64, addresses []chaintypes.Address, topics [][]chaintypes.Hash) []*chaintypes.Log {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var out []*chaintypes.Log
	for num := from; num <= to && num < uint64(len(n.inner.blocks)); num++ {
		block := n.inner.blocks[num]
		for _, receipt := range block.Receipts {
			for _, l := range receipt.Logs {
				if filters.LogMatches(l, addresses, topics) {
					out = append(out, l)
				}
			}
		}
	}
	return out
}
