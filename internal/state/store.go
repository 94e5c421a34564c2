// Package state implements the in-memory account store: balances, nonces,
// code and storage for every account touched so far, with a journal-based
// undo log backing Snapshot/RevertToSnapshot for speculative execution
// (call, estimateGas) and cheat-code snapshots (evm_snapshot/evm_revert).
package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

type stateObject struct {
	nonce            uint64
	balance          *big.Int
	code             []byte
	dirtyStorage     map[chaintypes.Hash]chaintypes.Hash
	committedStorage map[chaintypes.Hash]chaintypes.Hash
	selfDestructed   bool

	// Per-field touched flags, consulted by internal/forkoverlay to decide
	// whether a read of this field should be answered locally or fall
	// through to the fork source: the account as a whole may have been
	// created (e.g. a rich-wallet credit at genesis) without every field
	// on it having been locally written.
	balanceTouched bool
	nonceTouched   bool
	codeTouched    bool
	touchedStorage map[chaintypes.Hash]bool
}

func newStateObject() *stateObject {
	return &stateObject{
		balance:          new(big.Int),
		dirtyStorage:     make(map[chaintypes.Hash]chaintypes.Hash),
		committedStorage: make(map[chaintypes.Hash]chaintypes.Hash),
		touchedStorage:   make(map[chaintypes.Hash]bool),
	}
}

func (o *stateObject) clone() *stateObject {
	c := &stateObject{
		nonce:            o.nonce,
		balance:          new(big.Int).Set(o.balance),
		code:             append([]byte(nil), o.code...),
		dirtyStorage:     make(map[chaintypes.Hash]chaintypes.Hash, len(o.dirtyStorage)),
		committedStorage: make(map[chaintypes.Hash]chaintypes.Hash, len(o.committedStorage)),
		selfDestructed:   o.selfDestructed,
		balanceTouched:   o.balanceTouched,
		nonceTouched:     o.nonceTouched,
		codeTouched:      o.codeTouched,
		touchedStorage:   make(map[chaintypes.Hash]bool, len(o.touchedStorage)),
	}
	for k, v := range o.dirtyStorage {
		c.dirtyStorage[k] = v
	}
	for k, v := range o.committedStorage {
		c.committedStorage[k] = v
	}
	for k, v := range o.touchedStorage {
		c.touchedStorage[k] = v
	}
	return c
}

// Store is the in-memory account database for one chain instance. It is
// not safe for concurrent use; callers (internal/node) serialize access
// with their own lock, or call Clone to obtain an isolated copy for
// read-only speculative execution.
type Store struct {
	objects map[chaintypes.Address]*stateObject
	journal *journal
	logs    map[chaintypes.Hash][]*chaintypes.Log
}

// New creates an empty account store.
func New() *Store {
	return &Store{
		objects: make(map[chaintypes.Address]*stateObject),
		journal: newJournal(),
		logs:    make(map[chaintypes.Hash][]*chaintypes.Log),
	}
}

func (s *Store) getObject(addr chaintypes.Address) *stateObject {
	return s.objects[addr]
}

func (s *Store) getOrCreate(addr chaintypes.Address) *stateObject {
	if obj := s.objects[addr]; obj != nil {
		return obj
	}
	obj := newStateObject()
	s.objects[addr] = obj
	return obj
}

// Exist reports whether an account has ever been touched.
func (s *Store) Exist(addr chaintypes.Address) bool {
	return s.objects[addr] != nil
}

// CreateAccount ensures addr has a (possibly fresh) account entry,
// preserving prior state for journal-based revert.
func (s *Store) CreateAccount(addr chaintypes.Address) {
	prev := s.objects[addr]
	s.journal.append(createAccountChange{addr: addr, prev: prev})
	s.objects[addr] = newStateObject()
}

// GetBalance returns the account balance, or zero for an untouched account.
func (s *Store) GetBalance(addr chaintypes.Address) *big.Int {
	if obj := s.getObject(addr); obj != nil {
		return new(big.Int).Set(obj.balance)
	}
	return new(big.Int)
}

// AddBalance credits amount to addr.
func (s *Store) AddBalance(addr chaintypes.Address, amount *big.Int) {
	obj := s.getOrCreate(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(obj.balance)})
	obj.balance = new(big.Int).Add(obj.balance, amount)
	obj.balanceTouched = true
}

// SubBalance debits amount from addr. Callers are responsible for
// checking sufficient balance before calling this.
func (s *Store) SubBalance(addr chaintypes.Address, amount *big.Int) {
	obj := s.getOrCreate(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(obj.balance)})
	obj.balance = new(big.Int).Sub(obj.balance, amount)
	obj.balanceTouched = true
}

// SetBalance overwrites the account balance directly (anvil_setBalance).
func (s *Store) SetBalance(addr chaintypes.Address, amount *big.Int) {
	obj := s.getOrCreate(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(obj.balance)})
	obj.balance = new(big.Int).Set(amount)
	obj.balanceTouched = true
}

// BalanceTouched reports whether addr's balance has ever been locally
// written, as opposed to merely having an account entry.
func (s *Store) BalanceTouched(addr chaintypes.Address) bool {
	obj := s.getObject(addr)
	return obj != nil && obj.balanceTouched
}

// GetNonce returns the account's transaction count.
func (s *Store) GetNonce(addr chaintypes.Address) uint64 {
	if obj := s.getObject(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

// SetNonce overwrites the account's nonce.
func (s *Store) SetNonce(addr chaintypes.Address, nonce uint64) {
	obj := s.getOrCreate(addr)
	s.journal.append(nonceChange{addr: addr, prev: obj.nonce})
	obj.nonce = nonce
	obj.nonceTouched = true
}

// IncrementNonce bumps the nonce by one, the usual post-transaction effect.
func (s *Store) IncrementNonce(addr chaintypes.Address) {
	s.SetNonce(addr, s.GetNonce(addr)+1)
}

// NonceTouched reports whether addr's nonce has ever been locally written.
func (s *Store) NonceTouched(addr chaintypes.Address) bool {
	obj := s.getObject(addr)
	return obj != nil && obj.nonceTouched
}

// GetCode returns the account's contract code, or nil for an EOA.
func (s *Store) GetCode(addr chaintypes.Address) []byte {
	if obj := s.getObject(addr); obj != nil {
		return obj.code
	}
	return nil
}

// SetCode installs contract code on an account.
func (s *Store) SetCode(addr chaintypes.Address, code []byte) {
	obj := s.getOrCreate(addr)
	s.journal.append(codeChange{addr: addr, prevCode: obj.code})
	obj.code = code
	obj.codeTouched = true
}

// CodeTouched reports whether addr's code has ever been locally written.
func (s *Store) CodeTouched(addr chaintypes.Address) bool {
	obj := s.getObject(addr)
	return obj != nil && obj.codeTouched
}

// HashedStorageKey derives the zkSync-era hashed storage slot key:
// keccak256(address ++ slot).
func HashedStorageKey(addr chaintypes.Address, slot chaintypes.Hash) chaintypes.Hash {
	buf := make([]byte, 0, len(addr)+len(slot))
	buf = append(buf, addr.Bytes()...)
	buf = append(buf, slot.Bytes()...)
	return crypto.Keccak256Hash(buf)
}

// GetState reads a storage slot, preferring any in-transaction write over
// the last-committed value.
func (s *Store) GetState(addr chaintypes.Address, key chaintypes.Hash) chaintypes.Hash {
	obj := s.getObject(addr)
	if obj == nil {
		return chaintypes.Hash{}
	}
	if v, ok := obj.dirtyStorage[key]; ok {
		return v
	}
	return obj.committedStorage[key]
}

// GetCommittedState reads the last-committed value of a slot, ignoring any
// pending in-transaction write.
func (s *Store) GetCommittedState(addr chaintypes.Address, key chaintypes.Hash) chaintypes.Hash {
	if obj := s.getObject(addr); obj != nil {
		return obj.committedStorage[key]
	}
	return chaintypes.Hash{}
}

// SetState writes a storage slot.
func (s *Store) SetState(addr chaintypes.Address, key, value chaintypes.Hash) {
	obj := s.getOrCreate(addr)
	prev, had := obj.dirtyStorage[key]
	if !had {
		prev = obj.committedStorage[key]
	}
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, had: had})
	obj.dirtyStorage[key] = value
	obj.touchedStorage[key] = true
}

// StorageTouched reports whether this specific slot on addr has ever been
// locally written, as distinct from other slots on the same account.
func (s *Store) StorageTouched(addr chaintypes.Address, key chaintypes.Hash) bool {
	obj := s.getObject(addr)
	return obj != nil && obj.touchedStorage[key]
}

// Commit folds every dirty storage write into the committed view, ending
// the current transaction's speculative window. It does not compute or
// return a state root: this chain's block hash does not depend on one.
func (s *Store) Commit() {
	for _, obj := range s.objects {
		for k, v := range obj.dirtyStorage {
			obj.committedStorage[k] = v
		}
		obj.dirtyStorage = make(map[chaintypes.Hash]chaintypes.Hash)
	}
}

// SelfDestruct marks an account as destructed. Balance and code are left
// untouched until the next block boundary's cleanup, mirroring the
// teacher's two-phase self-destruct bookkeeping.
func (s *Store) SelfDestruct(addr chaintypes.Address) {
	obj := s.getOrCreate(addr)
	s.journal.append(selfDestructChange{addr: addr, prev: obj.selfDestructed})
	obj.selfDestructed = true
}

// HasSelfDestructed reports whether SelfDestruct was called on addr in the
// current (uncommitted) transaction.
func (s *Store) HasSelfDestructed(addr chaintypes.Address) bool {
	if obj := s.getObject(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

// AddLog appends a log to the current transaction's log list.
func (s *Store) AddLog(log *chaintypes.Log) {
	s.journal.append(logChange{txHash: log.TxHash})
	s.logs[log.TxHash] = append(s.logs[log.TxHash], log)
}

// Logs returns every log recorded for a transaction hash.
func (s *Store) Logs(txHash chaintypes.Hash) []*chaintypes.Log {
	return s.logs[txHash]
}

// Snapshot records an undo point and returns its id.
func (s *Store) Snapshot() int {
	return s.journal.snapshot()
}

// RevertToSnapshot undoes every change made since id was taken, and
// invalidates every snapshot id taken at or after it.
func (s *Store) RevertToSnapshot(id int) bool {
	return s.journal.revertToSnapshot(id, s)
}

// Clone produces an independent deep copy of the store, used for
// speculative execution (call, estimateGas) that must not mutate the
// shared chain state.
func (s *Store) Clone() *Store {
	c := New()
	for addr, obj := range s.objects {
		c.objects[addr] = obj.clone()
	}
	for tx, logs := range s.logs {
		c.logs[tx] = append([]*chaintypes.Log(nil), logs...)
	}
	return c
}

// Accounts exposes every touched address, for snapshot/debug dumps.
func (s *Store) Accounts() []chaintypes.Address {
	out := make([]chaintypes.Address, 0, len(s.objects))
	for addr := range s.objects {
		out = append(out, addr)
	}
	return out
}
