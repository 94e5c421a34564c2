package state

import (
	"math/big"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

// journalEntry is one revertible change to a Store.
type journalEntry interface {
	revert(s *Store)
}

// journal is a linear undo log. Reverting to a snapshot id undoes every
// entry recorded since that snapshot was taken, and invalidates every
// snapshot id taken at or after it: this is a single timeline, not a tree
// of independent branches (see DESIGN.md's Open Question decision).
type journal struct {
	entries   []journalEntry
	snapshots map[int]int
	nextID    int
}

func newJournal() *journal {
	return &journal{snapshots: make(map[int]int)}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, s *Store) bool {
	idx, ok := j.snapshots[id]
	if !ok {
		return false
	}
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:idx]
	for sid := range j.snapshots {
		if sid >= id {
			delete(j.snapshots, sid)
		}
	}
	return true
}

type createAccountChange struct {
	addr chaintypes.Address
	prev *stateObject
}

func (ch createAccountChange) revert(s *Store) {
	if ch.prev == nil {
		delete(s.objects, ch.addr)
	} else {
		s.objects[ch.addr] = ch.prev
	}
}

type balanceChange struct {
	addr chaintypes.Address
	prev *big.Int
}

func (ch balanceChange) revert(s *Store) {
	if obj := s.objects[ch.addr]; obj != nil {
		obj.balance = ch.prev
	}
}

type nonceChange struct {
	addr chaintypes.Address
	prev uint64
}

func (ch nonceChange) revert(s *Store) {
	if obj := s.objects[ch.addr]; obj != nil {
		obj.nonce = ch.prev
	}
}

type codeChange struct {
	addr     chaintypes.Address
	prevCode []byte
}

func (ch codeChange) revert(s *Store) {
	if obj := s.objects[ch.addr]; obj != nil {
		obj.code = ch.prevCode
	}
}

type storageChange struct {
	addr chaintypes.Address
	key  chaintypes.Hash
	prev chaintypes.Hash
	had  bool
}

func (ch storageChange) revert(s *Store) {
	obj := s.objects[ch.addr]
	if obj == nil {
		return
	}
	if ch.had {
		obj.dirtyStorage[ch.key] = ch.prev
	} else {
		delete(obj.dirtyStorage, ch.key)
	}
}

type logChange struct {
	txHash chaintypes.Hash
}

func (ch logChange) revert(s *Store) {
	logs := s.logs[ch.txHash]
	if len(logs) == 0 {
		return
	}
	s.logs[ch.txHash] = logs[:len(logs)-1]
}

type selfDestructChange struct {
	addr chaintypes.Address
	prev bool
}

func (ch selfDestructChange) revert(s *Store) {
	if obj := s.objects[ch.addr]; obj != nil {
		obj.selfDestructed = ch.prev
	}
}
