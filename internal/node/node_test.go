package node

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/eratestnode/eratestnode/internal/executor"
	"github.com/eratestnode/eratestnode/internal/metrics"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	cfg := DefaultConfig()
	n, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func TestRichWalletsArePrefunded(t *testing.T) {
	n := newTestNode(t)
	addr := common.HexToAddress("0x36615Cf349d7F6344891B1e7CA7C72883F5dc049")
	bal, err := n.GetBalance(addr)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal.Sign() <= 0 {
		t.Fatalf("expected rich wallet to have a positive balance, got %s", bal)
	}
}

func TestGenesisBlockExists(t *testing.T) {
	n := newTestNode(t)
	if n.BlockNumber() != 0 {
		t.Fatalf("expected genesis block number 0, got %d", n.BlockNumber())
	}
	block, ok := n.BlockByNumber(0)
	if !ok {
		t.Fatalf("expected genesis block to exist")
	}
	if block.Header.Number != 0 {
		t.Fatalf("genesis header number = %d, want 0", block.Header.Number)
	}
}

func TestRunTransactionAutoMinesABlock(t *testing.T) {
	n := newTestNode(t)
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	n.SetBalance(from, big.NewInt(1_000_000_000_000_000))
	to := common.HexToAddress("0xAA")

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1000),
	})
	signer := types.NewEIP155Signer(big.NewInt(1))
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		t.Fatalf("SignTx: %v", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	before := n.BlockNumber()
	receipt, err := n.RunTransaction(raw)
	if err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}
	if receipt.Status != 1 {
		t.Fatalf("expected success status")
	}
	if n.BlockNumber() != before+1 {
		t.Fatalf("expected auto-mined block, before=%d after=%d", before, n.BlockNumber())
	}

	toBal, err := n.GetBalance(to)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if toBal.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("recipient balance = %s, want 1000", toBal)
	}
}

func TestSnapshotRevertAtNodeLevel(t *testing.T) {
	n := newTestNode(t)
	addr := common.HexToAddress("0xBB")
	n.SetBalance(addr, big.NewInt(10))

	id := n.Snapshot()
	n.SetBalance(addr, big.NewInt(20))

	bal, _ := n.GetBalance(addr)
	if bal.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("got %s, want 20", bal)
	}

	if !n.Revert(id) {
		t.Fatalf("expected revert to succeed")
	}
	bal, _ = n.GetBalance(addr)
	if bal.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("got %s after revert, want 10", bal)
	}
}

func TestImpersonationToggles(t *testing.T) {
	n := newTestNode(t)
	addr := common.HexToAddress("0xCC")

	if n.IsImpersonating(addr) {
		t.Fatalf("expected not impersonating initially")
	}
	n.ImpersonateAccount(addr)
	if !n.IsImpersonating(addr) {
		t.Fatalf("expected impersonating after ImpersonateAccount")
	}
	n.StopImpersonatingAccount(addr)
	if n.IsImpersonating(addr) {
		t.Fatalf("expected not impersonating after StopImpersonatingAccount")
	}
}

func TestEstimateGasPlainTransfer(t *testing.T) {
	n := newTestNode(t)
	from := common.HexToAddress("0x36615Cf349d7F6344891B1e7CA7C72883F5dc049")
	to := common.HexToAddress("0xDD")

	gas, err := n.EstimateGas(executor.Call{From: from, To: &to, Value: big.NewInt(1)})
	if err != nil {
		t.Fatalf("EstimateGas: %v", err)
	}
	if gas < 21000 {
		t.Fatalf("estimated gas %d below intrinsic floor", gas)
	}
}

func TestSetMetricsObservesBlocksAndTransactions(t *testing.T) {
	n := newTestNode(t)
	m := metrics.New()
	n.SetMetrics(m)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	n.SetBalance(from, big.NewInt(1_000_000_000_000_000))
	to := common.HexToAddress("0xFF")

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1),
	})
	signer := types.NewEIP155Signer(big.NewInt(1))
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		t.Fatalf("SignTx: %v", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	if _, err := n.RunTransaction(raw); err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}
	n.Mine(2, 0)

	body := scrapeMetrics(t, m)
	if !strings.Contains(body, `eratestnode_chain_blocks_mined_total{trigger="auto"} 1`) {
		t.Fatalf("expected one auto-triggered block in metrics, got:\n%s", body)
	}
	if !strings.Contains(body, `eratestnode_chain_blocks_mined_total{trigger="manual"} 2`) {
		t.Fatalf("expected two manually-triggered blocks in metrics, got:\n%s", body)
	}
	if !strings.Contains(body, "eratestnode_chain_transactions_total 1") {
		t.Fatalf("expected one transaction observed in metrics, got:\n%s", body)
	}
}

func scrapeMetrics(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	return rec.Body.String()
}

func TestManualMineModeDoesNotAutoMine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockProducerMode = "manual"
	n, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	n.SetBalance(from, big.NewInt(1_000_000_000_000_000))
	to := common.HexToAddress("0xEE")

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1),
	})
	signer := types.NewEIP155Signer(big.NewInt(1))
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		t.Fatalf("SignTx: %v", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	before := n.BlockNumber()
	if _, err := n.RunTransaction(raw); err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}
	if n.BlockNumber() != before {
		t.Fatalf("expected no auto-mined block in manual mode")
	}

	produced := n.Mine(1, 0)
	if len(produced) != 1 {
		t.Fatalf("expected Mine(1) to produce 1 block")
	}
	if n.BlockNumber() != before+1 {
		t.Fatalf("expected mined block after explicit Mine")
	}
}

// TestMineWithIntervalSpacesTimestamps mirrors anvil_mine(10_000, 1): mining
// a large count of blocks with a one-second interval must produce a
// timestamp spread of exactly count-1 seconds across the produced blocks,
// not wall-clock-driven spacing.
func TestMineWithIntervalSpacesTimestamps(t *testing.T) {
	n, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const count = 10
	const interval = 5
	produced := n.Mine(count, interval)
	if len(produced) != count {
		t.Fatalf("expected %d blocks, got %d", count, len(produced))
	}
	base := produced[0].Header.Timestamp
	for i, block := range produced {
		want := base + uint64(i)*interval
		if block.Header.Timestamp != want {
			t.Fatalf("block %d timestamp = %d, want %d", i, block.Header.Timestamp, want)
		}
	}
}
