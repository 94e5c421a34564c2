package forkoverlay

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/forkcache"
	"github.com/eratestnode/eratestnode/internal/state"
)

type fakeSource struct {
	balance *big.Int
	calls   int
}

func (f *fakeSource) BlockByNumber(ctx context.Context, number uint64) (*chaintypes.Block, error) {
	return &chaintypes.Block{Header: chaintypes.Header{Number: number}}, nil
}
func (f *fakeSource) BlockByHash(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Block, error) {
	return nil, nil
}
func (f *fakeSource) TransactionByHash(ctx context.Context, hash chaintypes.Hash) ([]byte, error) {
	return nil, nil
}
func (f *fakeSource) TransactionReceipt(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Receipt, error) {
	return nil, nil
}
func (f *fakeSource) CodeAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) ([]byte, error) {
	return nil, nil
}
func (f *fakeSource) BalanceAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) (*big.Int, error) {
	f.calls++
	return f.balance, nil
}
func (f *fakeSource) NonceAt(ctx context.Context, addr chaintypes.Address, blockNumber uint64) (uint64, error) {
	return 0, nil
}
func (f *fakeSource) StorageAt(ctx context.Context, addr chaintypes.Address, key chaintypes.Hash, blockNumber uint64) (chaintypes.Hash, error) {
	return chaintypes.Hash{}, nil
}
func (f *fakeSource) ChainID(ctx context.Context) (uint64, error) { return 1, nil }
func (f *fakeSource) L1GasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}
func (f *fakeSource) EstimateGas(ctx context.Context, from, to chaintypes.Address, data []byte, value *big.Int) (uint64, error) {
	return 21000, nil
}

func TestBalanceFallsThroughToSourceOnce(t *testing.T) {
	src := &fakeSource{balance: big.NewInt(42)}
	cache, err := forkcache.New(forkcache.Memory, "")
	if err != nil {
		t.Fatalf("New cache: %v", err)
	}
	overlay := &Overlay{Source: src, Cache: cache, ForkBlockNumber: 100}
	local := state.New()
	addr := common.HexToAddress("0x01")

	for i := 0; i < 3; i++ {
		bal, err := overlay.Balance(context.Background(), local, addr)
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if bal.Cmp(big.NewInt(42)) != 0 {
			t.Fatalf("got %s, want 42", bal)
		}
	}
	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1 (cached)", src.calls)
	}
}

func TestBalancePrefersLocalOnceTouched(t *testing.T) {
	src := &fakeSource{balance: big.NewInt(42)}
	cache, _ := forkcache.New(forkcache.Memory, "")
	overlay := &Overlay{Source: src, Cache: cache, ForkBlockNumber: 100}
	local := state.New()
	addr := common.HexToAddress("0x02")

	local.CreateAccount(addr)
	local.AddBalance(addr, big.NewInt(7))

	bal, err := overlay.Balance(context.Background(), local, addr)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("got %s, want 7 (local, not fork)", bal)
	}
	if src.calls != 0 {
		t.Fatalf("source called %d times, want 0", src.calls)
	}
}

// TestTouchedFieldsAreIndependentPerAddress covers the case where only one
// field of an address (balance, via a rich-wallet credit) has been written
// locally: the other fields on that same address (code, an untouched
// storage slot) must still fall through to the fork source rather than
// incorrectly being treated as locally authoritative too.
func TestTouchedFieldsAreIndependentPerAddress(t *testing.T) {
	src := &fakeSource{balance: big.NewInt(42)}
	cache, _ := forkcache.New(forkcache.Memory, "")
	overlay := &Overlay{Source: src, Cache: cache, ForkBlockNumber: 100}
	local := state.New()
	addr := common.HexToAddress("0x04")

	local.CreateAccount(addr)
	local.AddBalance(addr, big.NewInt(7))

	bal, err := overlay.Balance(context.Background(), local, addr)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("balance = %s, want 7 (local)", bal)
	}

	code, err := overlay.Code(context.Background(), local, addr)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if code != nil {
		t.Fatalf("code = %x, want nil (untouched locally, fork has none either)", code)
	}

	slot := chaintypes.Hash{0x01}
	val, err := overlay.Storage(context.Background(), local, addr, slot)
	if err != nil {
		t.Fatalf("Storage: %v", err)
	}
	if val != (chaintypes.Hash{}) {
		t.Fatalf("storage = %x, want zero (untouched locally)", val)
	}

	nonce, err := overlay.Nonce(context.Background(), local, addr)
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if nonce != 0 {
		t.Fatalf("nonce = %d, want 0 (untouched locally)", nonce)
	}

	local.SetCode(addr, []byte{0xAB})
	code, err = overlay.Code(context.Background(), local, addr)
	if err != nil {
		t.Fatalf("Code after SetCode: %v", err)
	}
	if len(code) != 1 || code[0] != 0xAB {
		t.Fatalf("code = %x, want [0xAB] (now locally touched)", code)
	}
}

func TestUnforkedOverlayNeverCallsSource(t *testing.T) {
	var overlay *Overlay
	local := state.New()
	addr := common.HexToAddress("0x03")
	bal, err := overlay.Balance(context.Background(), local, addr)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Sign() != 0 {
		t.Fatalf("got %s, want 0", bal)
	}
}
