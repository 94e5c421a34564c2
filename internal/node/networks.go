package node

// networkURLs maps the CLI's --network shortcuts to their upstream
// JSON-RPC endpoints, mirroring the upstream test node's network list.
var networkURLs = map[string]string{
	"mainnet":         "https://mainnet.era.zksync.io",
	"sepolia-testnet": "https://sepolia.era.zksync.dev",
	"goerli-testnet":  "https://testnet.era.zksync.dev",
	"local":           "http://localhost:3050",
}

// ResolveNetwork expands a --network shortcut into a URL, or returns the
// input unchanged if it isn't a recognized shortcut (i.e. it's already a
// URL).
func ResolveNetwork(name string) string {
	if url, ok := networkURLs[name]; ok {
		return url
	}
	return name
}
