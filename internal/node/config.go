package node

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/eratestnode/eratestnode/internal/blockproducer"
	"github.com/eratestnode/eratestnode/internal/forkcache"
)

// CachePolicyName is the string form of a forkcache.Policy as accepted on
// the CLI / config file.
type CachePolicyName string

const (
	CacheNone   CachePolicyName = "none"
	CacheMemory CachePolicyName = "memory"
	CacheDisk   CachePolicyName = "disk"
)

func (n CachePolicyName) toPolicy() forkcache.Policy {
	switch n {
	case CacheMemory:
		return forkcache.Memory
	case CacheDisk:
		return forkcache.Disk
	default:
		return forkcache.None
	}
}

// SystemContractsOptions selects where the bootloader/system contract
// bytecode comes from.
type SystemContractsOptions string

const (
	SystemContractsBuiltIn SystemContractsOptions = "built-in"
	SystemContractsLocal   SystemContractsOptions = "local"
)

// Config is the node's full configuration surface, assembled from CLI
// flags and/or a YAML file.
type Config struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	ChainID       uint64 `yaml:"chain_id"`
	L1GasPriceWei uint64 `yaml:"l1_gas_price"`
	GasLimit      uint64 `yaml:"gas_limit"`

	BlockProducerMode string `yaml:"block_producer_mode"` // "auto" | "manual"

	ForkURL         string          `yaml:"fork_url"`
	ForkBlockNumber *uint64         `yaml:"fork_block_number"`
	CachePolicy     CachePolicyName `yaml:"cache"`
	CacheDir        string          `yaml:"cache_dir"`

	ForkSourceTimeout time.Duration `yaml:"fork_source_timeout"`

	SystemContracts SystemContractsOptions `yaml:"system_contracts"`
	ZksyncHome      string                  `yaml:"-"` // read from ZKSYNC_HOME env

	LogFilePath string `yaml:"log_file_path"`
	ShowCalls   bool   `yaml:"show_calls"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultConfig returns the node's out-of-the-box configuration: no fork,
// Auto block production, a 1 gwei L1 gas price, chain id 270 (the
// zkSync-era local development chain id).
func DefaultConfig() Config {
	return Config{
		Port:              8011,
		Host:              "0.0.0.0",
		ChainID:           270,
		L1GasPriceWei:     1_000_000_000,
		GasLimit:          30_000_000,
		BlockProducerMode: "auto",
		CachePolicy:       CacheNone,
		ForkSourceTimeout: 30 * time.Second,
		SystemContracts:   SystemContractsBuiltIn,
		LogLevel:          "info",
	}
}

// LoadYAML merges settings from a YAML config file on top of the receiver,
// mirroring the upstream test node's TestNodeConfig::try_load.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks the config for obviously invalid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.BlockProducerMode != "auto" && c.BlockProducerMode != "manual" {
		return fmt.Errorf("invalid block producer mode %q", c.BlockProducerMode)
	}
	if c.ForkURL != "" && c.ForkSourceTimeout <= 0 {
		return fmt.Errorf("fork source timeout must be positive")
	}
	return nil
}

// RPCAddr is the listen address for the JSON-RPC HTTP server.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProducerMode converts the configured string into a blockproducer.Mode.
func (c *Config) ProducerMode() blockproducer.Mode {
	if c.BlockProducerMode == "manual" {
		return blockproducer.Manual
	}
	return blockproducer.Auto
}

// CachePolicyValue converts the configured cache policy name.
func (c *Config) CachePolicyValue() forkcache.Policy {
	return c.CachePolicy.toPolicy()
}

// BaseFee returns the configured base fee as a *big.Int (derived from
// L1GasPriceWei, since this chain has no fee-market auction).
func (c *Config) BaseFee() *big.Int {
	return new(big.Int).SetUint64(c.L1GasPriceWei)
}
