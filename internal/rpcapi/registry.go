package rpcapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/eratestnode/eratestnode/internal/node"
)

// Handler processes one JSON-RPC method call against the node.
type Handler func(n *node.Node, params []json.RawMessage) (interface{}, error)

// Registry is a thread-safe method-name to Handler map, grouped by
// namespace for introspection (rpc_modules-style listing).
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Handler
}

// NewRegistry builds a Registry with every namespace's methods registered.
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Handler)}
	r.registerAll(ethMethods())
	r.registerAll(netMethods())
	r.registerAll(web3Methods())
	r.registerAll(zksMethods())
	r.registerAll(evmMethods())
	r.registerAll(debugMethods())
	r.registerAll(hardhatMethods())
	r.registerAll(anvilMethods())
	r.registerAll(configMethods())
	return r
}

func (r *Registry) registerAll(methods map[string]Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, h := range methods {
		r.methods[name] = h
	}
}

// Call dispatches a single method invocation.
func (r *Registry) Call(n *node.Node, method string, params []json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	h, ok := r.methods[method]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
	return h(n, params)
}

// Methods returns every registered method name, sorted.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
