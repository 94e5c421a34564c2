package filters

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
)

func TestLogFilterMatchesAddressAndTopics(t *testing.T) {
	r := New(DefaultConfig())
	addr := common.HexToAddress("0x01")
	topic := chaintypes.Hash{1}

	id, err := r.NewLogFilter(0, 0, []chaintypes.Address{addr}, [][]chaintypes.Hash{{topic}})
	if err != nil {
		t.Fatalf("NewLogFilter: %v", err)
	}

	r.AddLog(&chaintypes.Log{Address: addr, Topics: []chaintypes.Hash{topic}, BlockNumber: 1})
	r.AddLog(&chaintypes.Log{Address: common.HexToAddress("0x02"), Topics: []chaintypes.Hash{topic}, BlockNumber: 1})

	logs, err := r.GetFilterLogs(id)
	if err != nil {
		t.Fatalf("GetFilterLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}

	// second poll drains to empty
	logs, err = r.GetFilterLogs(id)
	if err != nil {
		t.Fatalf("GetFilterLogs (2nd): %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected drained filter, got %d logs", len(logs))
	}
}

func TestBlockFilterAccumulatesHashes(t *testing.T) {
	r := New(DefaultConfig())
	id, err := r.NewBlockFilter()
	if err != nil {
		t.Fatalf("NewBlockFilter: %v", err)
	}
	r.AddBlockHash(chaintypes.Hash{1})
	r.AddBlockHash(chaintypes.Hash{2})

	hashes, err := r.GetFilterBlockHashes(id)
	if err != nil {
		t.Fatalf("GetFilterBlockHashes: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("got %d hashes, want 2", len(hashes))
	}
}

func TestPendingTxFilterAccumulatesHashes(t *testing.T) {
	r := New(DefaultConfig())
	id, err := r.NewPendingTxFilter()
	if err != nil {
		t.Fatalf("NewPendingTxFilter: %v", err)
	}
	r.AddPendingTx(chaintypes.Hash{7})

	hashes, err := r.GetFilterPendingTxs(id)
	if err != nil {
		t.Fatalf("GetFilterPendingTxs: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("got %d hashes, want 1", len(hashes))
	}
}

func TestWrongKindErrors(t *testing.T) {
	r := New(DefaultConfig())
	id, _ := r.NewBlockFilter()
	if _, err := r.GetFilterLogs(id); err != ErrWrongKind {
		t.Fatalf("got %v, want ErrWrongKind", err)
	}
}

func TestMaxFiltersEnforced(t *testing.T) {
	r := New(Config{MaxFilters: 1, IdleTimeout: time.Minute, MaxLogs: 10})
	if _, err := r.NewBlockFilter(); err != nil {
		t.Fatalf("first filter: %v", err)
	}
	if _, err := r.NewBlockFilter(); err != ErrMaxFilters {
		t.Fatalf("got %v, want ErrMaxFilters", err)
	}
}

func TestPruneExpiredRemovesIdleFilters(t *testing.T) {
	r := New(Config{MaxFilters: 10, IdleTimeout: time.Millisecond, MaxLogs: 10})
	id, _ := r.NewBlockFilter()
	time.Sleep(5 * time.Millisecond)
	r.PruneExpired()
	if r.Uninstall(id) {
		t.Fatalf("expected filter to already be pruned")
	}
}

// TestIdleFilterExpiresOnAccessWithoutExplicitPrune covers the production
// access paths (GetFilterLogs et al.), not just an explicit PruneExpired
// call: a filter idle longer than the configured timeout must report
// ErrNotFound the next time it is polled, with no ticker or background
// goroutine involved.
func TestIdleFilterExpiresOnAccessWithoutExplicitPrune(t *testing.T) {
	r := New(Config{MaxFilters: 10, IdleTimeout: time.Millisecond, MaxLogs: 10})
	id, err := r.NewBlockFilter()
	if err != nil {
		t.Fatalf("NewBlockFilter: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := r.GetFilterBlockHashes(id); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound for idle-expired filter", err)
	}
}

// TestGenerateIDIsTruncatedTo128Bits asserts the filter id's high 16 bytes
// are always zero, matching the 128-bit filter id data model.
func TestGenerateIDIsTruncatedTo128Bits(t *testing.T) {
	r := New(DefaultConfig())
	id, err := r.NewBlockFilter()
	if err != nil {
		t.Fatalf("NewBlockFilter: %v", err)
	}
	for i := 0; i < 16; i++ {
		if id[i] != 0 {
			t.Fatalf("id = %x, want zero high 16 bytes (128-bit id)", id)
		}
	}
}

func TestUninstallReportsExistence(t *testing.T) {
	r := New(DefaultConfig())
	id, _ := r.NewBlockFilter()
	if !r.Uninstall(id) {
		t.Fatalf("expected existing filter to uninstall successfully")
	}
	if r.Uninstall(id) {
		t.Fatalf("expected second uninstall to report false")
	}
}
