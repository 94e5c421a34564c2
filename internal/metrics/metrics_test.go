package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveRPCRequestIncrementsCounters(t *testing.T) {
	m := New()
	m.ObserveRPCRequest("eth_chainId", "success", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics handler status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body,"eratestnode_rpc_requests_total") {
		t.Fatalf("expected requests_total metric in output, got:\n%s", body)
	}
}

func TestObserveBlockMinedAndTransaction(t *testing.T) {
	m := New()
	m.ObserveBlockMined("auto")
	m.ObserveTransaction()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()
	if !strings.Contains(body,"eratestnode_chain_blocks_mined_total") {
		t.Fatalf("expected blocks_mined_total metric in output, got:\n%s", body)
	}
	if !strings.Contains(body,"eratestnode_chain_transactions_total") {
		t.Fatalf("expected transactions_total metric in output, got:\n%s", body)
	}
}
