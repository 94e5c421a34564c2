package rpcapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/cors"

	"github.com/eratestnode/eratestnode/internal/metrics"
	"github.com/eratestnode/eratestnode/internal/node"
)

// maxRequestBodyBytes bounds a single HTTP POST body, guarding against a
// pathological client streaming an unbounded batch.
const maxRequestBodyBytes = 32 * 1024 * 1024

// Server is the JSON-RPC 2.0 HTTP transport: it owns the method registry,
// the node it dispatches against, and the CORS-wrapped http.Handler the
// CLI hands to http.ListenAndServe.
type Server struct {
	node     *node.Node
	registry *Registry
	logger   *log.Logger
	metrics  *metrics.Metrics
	handler  http.Handler
	requests atomic.Uint64
}

// NewServer builds a Server for n, wrapping the dispatcher in permissive
// CORS (test nodes are invoked from browser-based dApp dev environments
// that need cross-origin access).
func NewServer(n *node.Node, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		node:     n,
		registry: NewRegistry(),
		logger:   logger,
		metrics:  metrics.New(),
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(http.HandlerFunc(s.serveHTTP))
	return s
}

// Handler returns the CORS-wrapped http.Handler to mount at "/".
func (s *Server) Handler() http.Handler { return s.handler }

// MetricsHandler returns the Prometheus exposition handler for this
// Server's RPC/chain metrics, to be mounted at e.g. "/metrics".
func (s *Server) MetricsHandler() http.Handler { return s.metrics.Handler() }

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed: JSON-RPC is served over POST", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: codeParseError, Message: "failed to read request body"}})
		return
	}
	if int64(len(body)) > maxRequestBodyBytes {
		writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: codeInvalidRequest, Message: "request body too large"}})
		return
	}

	trimmed := trimLeadingWhitespace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		s.serveBatch(w, body)
		return
	}

	resp, isNotification := s.serveSingle(body)
	if isNotification {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, resp)
}

// serveSingle parses and dispatches one request object. The second return
// value reports whether the request was a notification (no id), in which
// case per JSON-RPC 2.0 no response body should be written.
func (s *Server) serveSingle(body []byte) (*Response, bool) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return &Response{JSONRPC: "2.0", Error: &Error{Code: codeParseError, Message: "parse error: invalid JSON"}}, false
	}
	if req.JSONRPC != "2.0" {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: codeInvalidRequest, Message: "invalid jsonrpc version"}}, false
	}

	reqID := s.requests.Add(1)
	start := time.Now()
	result, err := s.registry.Call(s.node, req.Method, req.Params)
	elapsed := time.Since(start)

	if err != nil {
		rpcErr := toRPCError(err)
		s.logger.Printf("rpc: req=%d method=%s elapsed=%s err=%q", reqID, req.Method, elapsed, rpcErr.Message)
		s.metrics.ObserveRPCRequest(req.Method, "error", elapsed)
		if req.IsNotification() {
			return nil, true
		}
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}, false
	}

	s.logger.Printf("rpc: req=%d method=%s elapsed=%s", reqID, req.Method, elapsed)
	s.metrics.ObserveRPCRequest(req.Method, "success", elapsed)
	if req.IsNotification() {
		return nil, true
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}, false
}

// serveBatch processes a JSON-RPC batch, dispatching each element against
// the node in submitted order (same-sender sequential-nonce transactions
// within a batch must execute in the order they were submitted) and
// collating responses in that same order. Notifications within the batch
// contribute no element.
func (s *Server) serveBatch(w http.ResponseWriter, body []byte) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: codeParseError, Message: "parse error: invalid JSON batch"}})
		return
	}
	if len(raws) == 0 {
		writeJSON(w, &Response{JSONRPC: "2.0", Error: &Error{Code: codeInvalidRequest, Message: "empty batch"}})
		return
	}

	out := make([]*Response, 0, len(raws))
	for _, raw := range raws {
		resp, isNotification := s.serveSingle(raw)
		if !isNotification {
			out = append(out, resp)
		}
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func trimLeadingWhitespace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t' || b[0] == '\r' || b[0] == '\n') {
		b = b[1:]
	}
	return b
}
