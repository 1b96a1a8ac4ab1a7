// Package cpcconfig is viper-backed configuration loading for a node,
// covering the network, mining, storage, and API sections.
package cpcconfig

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NetworkConfig holds peer-to-peer gossip settings, in the same shape as
// pkg/cpcnet's Config. cmd/cpcd loads them but does not start a gossip
// layer, so nothing reads them.
type NetworkConfig struct {
	ListenPort     int      `mapstructure:"listen_port"`
	BootstrapPeers []string `mapstructure:"bootstrap_peers"`
	EnableMDNS     bool     `mapstructure:"enable_mdns"`
}

// MiningConfig holds miner tunables.
type MiningConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CoinbaseAddress string        `mapstructure:"coinbase_address"`
	Difficulty      int           `mapstructure:"difficulty"`
	BlockTime       time.Duration `mapstructure:"block_time"`
}

// StorageConfig holds persistence backend selection, passed to
// pkg/cpcstorage.New by cmd/cpcd (the badger backend needs the db tag).
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "memory", "badger", "leveldb"
	DataDir string `mapstructure:"data_dir"`
}

// APIConfig holds the HTTP server's bind address and faucet policy.
type APIConfig struct {
	ListenAddress     string        `mapstructure:"listen_address"`
	FaucetAmount      float64       `mapstructure:"faucet_amount"`
	FaucetCooldown    time.Duration `mapstructure:"faucet_cooldown"`
}

// Config is the full node configuration.
type Config struct {
	Network NetworkConfig `mapstructure:"network"`
	Mining  MiningConfig  `mapstructure:"mining"`
	Storage StorageConfig `mapstructure:"storage"`
	API     APIConfig     `mapstructure:"api"`
}

// Default returns the node's baseline configuration before any file/env/flag
// overrides are applied.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{ListenPort: 0, EnableMDNS: true},
		Mining:  MiningConfig{Enabled: true, Difficulty: 4, BlockTime: 10 * time.Second},
		Storage: StorageConfig{Backend: "memory", DataDir: "./data"},
		API:     APIConfig{ListenAddress: ":8080", FaucetAmount: 5, FaucetCooldown: time.Minute},
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// CPCD_-prefixed environment variable overrides (viper-backed, env → file
// → defaults precedence).
func Load(configFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("CPCD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("network.listen_port", cfg.Network.ListenPort)
	v.SetDefault("network.enable_mdns", cfg.Network.EnableMDNS)
	v.SetDefault("mining.enabled", cfg.Mining.Enabled)
	v.SetDefault("mining.difficulty", cfg.Mining.Difficulty)
	v.SetDefault("mining.block_time", cfg.Mining.BlockTime)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("api.listen_address", cfg.API.ListenAddress)
	v.SetDefault("api.faucet_amount", cfg.API.FaucetAmount)
	v.SetDefault("api.faucet_cooldown", cfg.API.FaucetCooldown)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
