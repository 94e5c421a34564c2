// Package forkoverlay composes the in-memory store with a fork cache and
// fork source into the three-step read path a forked node uses to answer
// a read for state it has never itself mutated: local state, then
// cache/source as of the fork block, then the type's zero value.
package forkoverlay

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/forkcache"
	"github.com/eratestnode/eratestnode/internal/forksource"
	"github.com/eratestnode/eratestnode/internal/state"
)

// Overlay answers reads for a node forked from an upstream network as of
// ForkBlockNumber. A nil Overlay (no fork configured) is a valid, always-
// empty overlay; callers should use IsForked to special-case it if needed.
type Overlay struct {
	Source          forksource.Source
	Cache           *forkcache.Cache
	ForkBlockNumber uint64
}

// IsForked reports whether this node was started with a fork source.
func (o *Overlay) IsForked() bool {
	return o != nil && o.Source != nil
}

// Balance resolves an account balance: local state if its balance field has
// itself been locally written, otherwise the cached/fetched upstream
// balance at the fork block, otherwise zero.
func (o *Overlay) Balance(ctx context.Context, local *state.Store, addr chaintypes.Address) (*big.Int, error) {
	if !o.IsForked() || local.BalanceTouched(addr) {
		return local.GetBalance(addr), nil
	}
	key := fmt.Sprintf("balance:%s:%d", addr.Hex(), o.ForkBlockNumber)
	raw, err := o.Cache.Fetch(key, func() ([]byte, error) {
		bal, err := o.Source.BalanceAt(ctx, addr, o.ForkBlockNumber)
		if err != nil {
			return nil, err
		}
		return bal.Bytes(), nil
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// Nonce resolves an account nonce analogously to Balance.
func (o *Overlay) Nonce(ctx context.Context, local *state.Store, addr chaintypes.Address) (uint64, error) {
	if !o.IsForked() || local.NonceTouched(addr) {
		return local.GetNonce(addr), nil
	}
	key := fmt.Sprintf("nonce:%s:%d", addr.Hex(), o.ForkBlockNumber)
	raw, err := o.Cache.Fetch(key, func() ([]byte, error) {
		n, err := o.Source.NonceAt(ctx, addr, o.ForkBlockNumber)
		if err != nil {
			return nil, err
		}
		return encodeUint64(n), nil
	})
	if err != nil {
		return 0, err
	}
	return decodeUint64(raw), nil
}

// Code resolves an account's contract code. Code is content-addressed by
// its own hash once fetched, since code at a fixed address never changes
// once deployed.
func (o *Overlay) Code(ctx context.Context, local *state.Store, addr chaintypes.Address) ([]byte, error) {
	if !o.IsForked() || local.CodeTouched(addr) {
		return local.GetCode(addr), nil
	}
	key := fmt.Sprintf("code:%s:%d", addr.Hex(), o.ForkBlockNumber)
	return o.Cache.Fetch(key, func() ([]byte, error) {
		return o.Source.CodeAt(ctx, addr, o.ForkBlockNumber)
	})
}

// Storage resolves a single storage slot. Per the cache invariant, reads
// of "latest" state are never cached — only reads pinned to the fixed
// ForkBlockNumber are; this method always targets ForkBlockNumber so its
// results are safe to cache.
func (o *Overlay) Storage(ctx context.Context, local *state.Store, addr chaintypes.Address, slot chaintypes.Hash) (chaintypes.Hash, error) {
	if !o.IsForked() || local.StorageTouched(addr, slot) {
		return local.GetState(addr, slot), nil
	}
	key := fmt.Sprintf("storage:%s:%s:%d", addr.Hex(), slot.Hex(), o.ForkBlockNumber)
	raw, err := o.Cache.Fetch(key, func() ([]byte, error) {
		v, err := o.Source.StorageAt(ctx, addr, slot, o.ForkBlockNumber)
		if err != nil {
			return nil, err
		}
		return v.Bytes(), nil
	})
	if err != nil {
		return chaintypes.Hash{}, err
	}
	var h chaintypes.Hash
	h.SetBytes(raw)
	return h, nil
}

// Block resolves a block by number, consulting the cache/source only when
// number is at or before ForkBlockNumber (blocks produced locally live in
// the node's own chain, not the overlay).
func (o *Overlay) Block(ctx context.Context, number uint64) (*chaintypes.Block, error) {
	if !o.IsForked() || number > o.ForkBlockNumber {
		return nil, nil
	}
	key := fmt.Sprintf("block:%d", number)
	raw, err := o.Cache.Fetch(key, func() ([]byte, error) {
		block, err := o.Source.BlockByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		return json.Marshal(block)
	})
	if err != nil {
		return nil, err
	}
	var block chaintypes.Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

func encodeUint64(v uint64) []byte {
	return new(big.Int).SetUint64(v).Bytes()
}

func decodeUint64(b []byte) uint64 {
	return new(big.Int).SetBytes(b).Uint64()
}
