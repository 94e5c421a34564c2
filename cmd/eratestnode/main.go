// Command eratestnode runs the in-memory zkEVM test node: an Ethereum/zkSync
// Era-compatible JSON-RPC server backed entirely by in-process state, for
// local development and CI use.
//
// Usage:
//
//	eratestnode run [flags]
//	eratestnode fork --network <url> [--fork-at <block>] [flags]
//	eratestnode replay-tx --network <url> --tx <hash> [flags]
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/eratestnode/eratestnode/internal/chaintypes"
	"github.com/eratestnode/eratestnode/internal/forksource"
	"github.com/eratestnode/eratestnode/internal/logging"
	"github.com/eratestnode/eratestnode/internal/metrics"
	"github.com/eratestnode/eratestnode/internal/node"
	"github.com/eratestnode/eratestnode/internal/richwallets"
	"github.com/eratestnode/eratestnode/internal/rpcapi"
)

var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

// shutdownTimeout bounds how long a graceful HTTP shutdown waits for
// in-flight requests to finish before main returns.
const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cfg := node.DefaultConfig()
	var configPath string
	var forkNetwork, forkAt string
	var replayTxHash string

	commonFlags := []cli.Flag{
		&cli.IntFlag{Name: "port", Value: cfg.Port, Usage: "HTTP-RPC listening port", Destination: &cfg.Port},
		&cli.StringFlag{Name: "host", Value: cfg.Host, Usage: "HTTP-RPC listening host", Destination: &cfg.Host},
		&cli.Uint64Flag{Name: "chain-id", Value: cfg.ChainID, Usage: "chain id", Destination: &cfg.ChainID},
		&cli.StringFlag{Name: "log", Value: cfg.LogLevel, Usage: "log level", Destination: &cfg.LogLevel},
		&cli.StringFlag{Name: "log-file-path", Usage: "path to a rotating log file (stdout-only if unset)", Destination: &cfg.LogFilePath},
		&cli.BoolFlag{Name: "show-calls", Usage: "log every call's subcalls", Destination: &cfg.ShowCalls},
		&cli.StringFlag{Name: "cache", Value: string(cfg.CachePolicy), Usage: "fork cache policy: none, memory, disk"},
		&cli.StringFlag{Name: "cache-dir", Value: cfg.CacheDir, Usage: "fork cache directory", Destination: &cfg.CacheDir},
		&cli.StringFlag{Name: "config", Usage: "path to a YAML config file", Destination: &configPath},
	}

	app := &cli.App{
		Name:    "eratestnode",
		Usage:   "in-memory zkEVM test node",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "start the node with an empty genesis state",
				Flags: commonFlags,
				Action: func(c *cli.Context) error {
					cfg.CachePolicy = node.CachePolicyName(c.String("cache"))
					return startNode(&cfg, configPath, nil, nil)
				},
			},
			{
				Name:  "fork",
				Usage: "start the node forked from a live network",
				Flags: append(commonFlags,
					&cli.StringFlag{Name: "network", Required: true, Usage: "fork source: a JSON-RPC URL or a shortcut (mainnet, sepolia-testnet, goerli-testnet, local)", Destination: &forkNetwork},
					&cli.StringFlag{Name: "fork-at", Usage: "block number or tag to fork at (default: latest)", Destination: &forkAt},
				),
				Action: func(c *cli.Context) error {
					cfg.CachePolicy = node.CachePolicyName(c.String("cache"))
					cfg.ForkURL = node.ResolveNetwork(forkNetwork)
					if forkAt != "" {
						n, err := parseForkAt(forkAt)
						if err != nil {
							return err
						}
						cfg.ForkBlockNumber = n
					}
					return startNode(&cfg, configPath, nil, nil)
				},
			},
			{
				Name:  "replay-tx",
				Usage: "fork from the network state just before tx and re-execute it",
				Flags: append(commonFlags,
					&cli.StringFlag{Name: "network", Required: true, Usage: "fork source: a JSON-RPC URL or a shortcut (mainnet, sepolia-testnet, goerli-testnet, local)", Destination: &forkNetwork},
					&cli.StringFlag{Name: "tx", Required: true, Usage: "transaction hash to replay", Destination: &replayTxHash},
				),
				Action: func(c *cli.Context) error {
					cfg.CachePolicy = node.CachePolicyName(c.String("cache"))
					cfg.ForkURL = node.ResolveNetwork(forkNetwork)
					source := forksource.NewHTTPForkSource(cfg.ForkURL, cfg.ForkSourceTimeout)
					raw, err := source.TransactionByHash(c.Context, chaintypes.HexToHash(replayTxHash))
					if err != nil {
						return fmt.Errorf("fetch transaction %s to replay: %w", replayTxHash, err)
					}
					return startNode(&cfg, configPath, [][]byte{raw}, &replayTxHash)
				},
			},
		},
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "eratestnode: %v\n", err)
		if coder, ok := err.(cli.ExitCoder); ok {
			return coder.ExitCode()
		}
		return 1
	}
	return 0
}

func parseForkAt(s string) (*uint64, error) {
	var n uint64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return nil, fmt.Errorf("invalid --fork-at %q: %w", s, err)
	}
	return &n, nil
}

// startNode wires config, logging, metrics, the Node facade and the RPC
// server together, then blocks until SIGINT/SIGTERM.
func startNode(cfg *node.Config, configPath string, rawTxsToReplay [][]byte, replayTxHash *string) error {
	if configPath != "" {
		if err := cfg.LoadYAML(configPath); err != nil {
			return err
		}
	}

	logger := logging.New(logging.Config{FilePath: cfg.LogFilePath})

	n, err := node.New(*cfg, logger)
	if err != nil {
		return fmt.Errorf("construct node: %w", err)
	}

	m := metrics.New()
	n.SetMetrics(m)

	srv := rpcapi.NewServer(n, logger)

	if replayTxHash != nil {
		logger.Printf("replay-tx: replaying %s against the forked state", *replayTxHash)
	}
	if len(rawTxsToReplay) > 0 {
		if _, err := n.ApplyTxs(rawTxsToReplay); err != nil {
			return fmt.Errorf("replay transactions: %w", err)
		}
	}

	logger.Printf("eratestnode %s starting", version)
	logger.Printf("  chain id:     %d", cfg.ChainID)
	logger.Printf("  port:         %d", cfg.Port)
	logger.Printf("  block mode:   %s", cfg.BlockProducerMode)
	logger.Printf("  fork url:     %s", orNone(cfg.ForkURL))
	logger.Printf("  cache policy: %s", cfg.CachePolicy)
	logger.Printf("")
	logger.Printf("Rich Accounts")
	logger.Printf("=============")
	for i, w := range richwallets.All() {
		logger.Printf("Account #%d: %s (1_000_000_000_000 ETH)", i, w.Address.Hex())
		logger.Printf("Private Key: %s", w.PrivateKey)
		if w.Mnemonic != "" {
			logger.Printf("Mnemonic: %s", w.Mnemonic)
		}
		logger.Printf("")
	}

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	mux.Handle("/metrics", srv.MetricsHandler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("========================================")
		logger.Printf("  Node is ready at %s:%d", cfg.Host, cfg.Port)
		logger.Printf("========================================")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-sigCh:
		logger.Printf("received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Printf("shutdown complete")
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
