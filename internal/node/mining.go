package node

import (
	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/zktx"
)

// mineLocked assembles count new blocks from whatever transactions are
// currently pending (possibly none, producing empty blocks). When
// intervalSeconds is nonzero, block i's timestamp is pinned to the first
// block's timestamp plus i*intervalSeconds rather than wall clock; the
// first block always uses nextTimestamp, honoring any pending
// evm_setNextBlockTimestamp override and evm_increaseTime offset. Caller
// must hold n.mu.
func (n *Node) mineLocked(count int, intervalSeconds uint64) []*chaintypes.Block {
	produced := make([]*chaintypes.Block, 0, count)
	var baseTimestamp uint64
	for i := 0; i < count; i++ {
		pending := n.inner.pendingTxs
		n.inner.pendingTxs = nil

		txHashes := make([]chaintypes.Hash, len(pending))
		receipts := make([]*chaintypes.Receipt, len(pending))
		var l2ToL1 []*chaintypes.L2ToL1Log
		for j, tx := range pending {
			txHashes[j] = tx.Hash
			r := n.inner.receipts[tx.Hash]
			receipts[j] = r
			if r != nil {
				l2ToL1 = append(l2ToL1, r.L2ToL1Logs...)
			}
		}

		var timestamp uint64
		if i == 0 {
			timestamp = n.nextTimestamp()
			baseTimestamp = timestamp
		} else if intervalSeconds > 0 {
			timestamp = baseTimestamp + uint64(i)*intervalSeconds
		} else {
			timestamp = n.nextTimestamp()
		}

		n.inner.l1BatchNumber++
		block := n.producer.Assemble(
			n.currentHeader(),
			timestamp,
			n.inner.l1BatchNumber,
			n.config.BaseFee(),
			n.config.GasLimit,
			txHashes,
			receipts,
			l2ToL1,
		)

		for j, r := range receipts {
			if r == nil {
				continue
			}
			r.BlockHash = block.Hash
			r.BlockNumber = block.Header.Number
			r.TransactionIndex = uint(j)
			n.inner.txBlock[txHashes[j]] = block.Header.Number
		}

		n.inner.blocks = append(n.inner.blocks, block)
		n.inner.byHash[block.Hash] = block.Header.Number
		n.filters.AddBlockHash(block.Hash)

		produced = append(produced, block)
	}
	return produced
}

// Mine implements evm_mine / anvil_mine / hardhat_mine: assemble count
// blocks (default 1) immediately, regardless of the configured producer
// mode. When intervalSeconds is nonzero, successive block timestamps are
// spaced exactly intervalSeconds apart instead of following wall clock.
func (n *Node) Mine(count int, intervalSeconds uint64) []*chaintypes.Block {
	if count <= 0 {
		count = 1
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	blocks := n.mineLocked(count, intervalSeconds)
	if n.metrics != nil {
		for range blocks {
			n.metrics.ObserveBlockMined("manual")
		}
	}
	return blocks
}

// ApplyTxs replays a batch of raw transactions as if received over the
// wire, producing exactly one block containing all of them regardless of
// the configured producer mode — used by the CLI's replay-tx workflow and
// by the zks_replayTransactions-style reconstitution path.
func (n *Node) ApplyTxs(rawTxs [][]byte) ([]*chaintypes.Receipt, error) {
	decoded := make([]*zktx.Transaction, 0, len(rawTxs))
	for _, raw := range rawTxs {
		tx, err := zktx.Decode(raw)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, tx)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	receipts := make([]*chaintypes.Receipt, 0, len(decoded))
	for _, tx := range decoded {
		n.filters.AddPendingTx(tx.Hash)
		r, err := n.executeLocked(tx)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	n.mineLocked(1, 0)
	if n.metrics != nil {
		n.metrics.ObserveBlockMined("replay")
	}
	return receipts, nil
}

// Reset replaces the entire chain state with a fresh genesis, optionally
// re-forking from a new URL/block, implementing anvil_reset /
// hardhat_reset.
func (n *Node) Reset(forkURL string, forkBlockNumber *uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	newConfig := n.config
	newConfig.ForkURL = forkURL
	newConfig.ForkBlockNumber = forkBlockNumber

	fresh, err := New(newConfig, n.logger)
	if err != nil {
		return err
	}

	n.inner = fresh.inner
	n.overlay = fresh.overlay
	n.filters = fresh.filters
	n.config = newConfig
	return nil
}
