package node

// DevSettings holds runtime-toggleable debugging knobs exposed via the
// config_* namespace: whether call traces are echoed to the log, whether
// addresses are resolved against known contract names, and the active log
// level/logging-enabled flag.
type DevSettings struct {
	ShowCalls      bool
	ResolveHashes  bool
	LoggingEnabled bool
	LogLevel       string
}

// GetShowCalls implements config_getShowCalls.
func (n *Node) GetShowCalls() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.inner.dev.ShowCalls
}

// SetShowCalls implements config_setShowCalls.
func (n *Node) SetShowCalls(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.dev.ShowCalls = v
}

// SetResolveHashes implements config_setResolveHashes.
func (n *Node) SetResolveHashes(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.dev.ResolveHashes = v
}

// SetLogLevel implements config_setLogLevel.
func (n *Node) SetLogLevel(level string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.dev.LogLevel = level
}

// SetLogging implements config_setLogging.
func (n *Node) SetLogging(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inner.dev.LoggingEnabled = enabled
}

// CurrentTimestamp implements config_getCurrentTimestamp: the timestamp the
// next block would receive if mined right now, without consuming the
// one-shot evm_setNextBlockTimestamp override.
func (n *Node) CurrentTimestamp() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.inner.nextTimestampOverride != nil {
		return *n.inner.nextTimestampOverride
	}
	return uint64(nowUnix() + n.inner.timeOffsetSeconds)
}
