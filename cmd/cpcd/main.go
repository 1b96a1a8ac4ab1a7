package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cpc-chain/cpcd/pkg/api"
	"github.com/cpc-chain/cpcd/pkg/cpcchain"
	"github.com/cpc-chain/cpcd/pkg/cpcconfig"
	"github.com/cpc-chain/cpcd/pkg/cpccrypto"
	"github.com/cpc-chain/cpcd/pkg/cpclog"
	"github.com/cpc-chain/cpcd/pkg/cpcmetrics"
	"github.com/cpc-chain/cpcd/pkg/cpcstate"
	"github.com/cpc-chain/cpcd/pkg/cpcstorage"
	"github.com/cpc-chain/cpcd/pkg/cpcwallet"
	"github.com/cpc-chain/cpcd/pkg/mempool"
	"github.com/cpc-chain/cpcd/pkg/miner"
	"github.com/cpc-chain/cpcd/pkg/validator"
)

var (
	configFile string
	walletFile string
	passphrase string
	apiAddress string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cpcd",
		Short: "cpcd runs a Time-Rights Chain node",
		Long: `cpcd is the reference node for the Time-Rights Chain (CPC): a
UTXO chain whose coins carry copyright lifecycle state in addition to
value. Running with no subcommand starts a node: chain, mempool,
miner, and HTTP API.`,
		RunE: runNode,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is built-in defaults + CPCD_ env overrides)")
	rootCmd.PersistentFlags().StringVar(&walletFile, "wallet-file", "wallet.dat", "path to the encrypted keystore file")
	rootCmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "passphrase protecting the keystore")
	rootCmd.PersistentFlags().StringVar(&apiAddress, "api-address", "localhost:8080", "address of a running node's API, for client subcommands")

	rootCmd.AddCommand(walletCmd())
	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runNode loads configuration, assembles the chain/mempool/miner/API
// stack, and blocks until an HTTP failure or shutdown signal.
func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := cpcconfig.Load(configFile)
	if err != nil {
		return fmt.Errorf("cpcd: load config: %w", err)
	}

	log, err := cpclog.New(cpclog.DefaultConfig())
	if err != nil {
		return fmt.Errorf("cpcd: build logger: %w", err)
	}
	defer log.Sync()

	coinbase, err := resolveCoinbaseAddress(cfg)
	if err != nil {
		return err
	}

	genesisTime := time.Now()
	chain, err := cpcchain.NewChain(coinbase, genesisTime, cfg.Mining.Difficulty)
	if err != nil {
		return fmt.Errorf("cpcd: build genesis chain: %w", err)
	}

	engine := cpcstate.NewEngine(256)
	v := validator.New(engine)
	mp := mempool.New(v, chain, nil)
	metrics := cpcmetrics.New()
	metrics.RecordBlockMined(uint64(chain.Height()))

	store, err := cpcstorage.New(cpcstorage.Type(cfg.Storage.Backend), &cpcstorage.Config{DataDir: cfg.Storage.DataDir})
	if err != nil {
		log.Warnw("persistence backend unavailable, running without it", "error", err)
		store = nil
	}

	shutdown := make(chan struct{})
	if store != nil {
		if err := store.StoreBlock(chain.Tip()); err != nil {
			log.Warnw("persist genesis block failed", "error", err)
		}
		go persistNewBlocks(chain, store, log, shutdown)
		defer store.Close()
	}

	var m *miner.Miner
	if cfg.Mining.Enabled {
		minerCfg := &miner.Config{CoinbaseAddress: coinbase, Difficulty: cfg.Mining.Difficulty, BlockTime: cfg.Mining.BlockTime}
		m = miner.New(chain, mp, v, engine, minerCfg, log)
		m.Start()
		defer m.Stop()
		log.Infow("mining enabled", "coinbase", coinbase, "difficulty", cfg.Mining.Difficulty)
	}

	server := api.NewServer(&api.ServerConfig{
		Chain:   chain,
		Engine:  engine,
		Mempool: mp,
		Metrics: metrics,
		API:     &cfg.API,
		Log:     log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	log.Infow("node started", "api_address", cfg.API.ListenAddress)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		close(shutdown)
		return fmt.Errorf("cpcd: api server stopped: %w", err)
	case <-sigCh:
		log.Info("shutdown signal received")
		close(shutdown)
	}
	return nil
}

// resolveCoinbaseAddress uses the configured coinbase address if set,
// otherwise the keystore's first address, generating one if the keystore
// is empty.
func resolveCoinbaseAddress(cfg *cpcconfig.Config) (string, error) {
	if cfg.Mining.CoinbaseAddress != "" {
		return cfg.Mining.CoinbaseAddress, nil
	}
	ks := cpcwallet.New(walletFile, passphrase)
	if err := ks.Load(); err != nil {
		return "", fmt.Errorf("cpcd: load keystore: %w", err)
	}
	if addrs := ks.Addresses(); len(addrs) > 0 {
		return addrs[0], nil
	}
	kp, err := ks.CreateKey()
	if err != nil {
		return "", fmt.Errorf("cpcd: generate coinbase key: %w", err)
	}
	return cpccrypto.Address(kp.Public), nil
}

// persistNewBlocks periodically writes any chain blocks not yet on disk,
// decoupling storage (which is optional) from the miner and chain
// packages entirely.
func persistNewBlocks(chain *cpcchain.Chain, store cpcstorage.Storage, log *cpclog.Logger, stop <-chan struct{}) {
	nextHeight, _ := store.Height()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for nextHeight < uint64(chain.Height()) {
				b, ok := chain.BlockAt(int(nextHeight))
				if !ok {
					break
				}
				if err := store.StoreBlock(b); err != nil {
					log.Warnw("persist block failed", "height", nextHeight, "error", err)
					break
				}
				nextHeight++
			}
		}
	}
}

// walletCmd creates the keystore if empty and prints the address a node or
// client should use.
func walletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "create or load a signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks := cpcwallet.New(walletFile, passphrase)
			if err := ks.Load(); err != nil {
				return fmt.Errorf("cpcd: load keystore: %w", err)
			}
			addrs := ks.Addresses()
			if len(addrs) == 0 {
				kp, err := ks.CreateKey()
				if err != nil {
					return fmt.Errorf("cpcd: create key: %w", err)
				}
				addrs = []string{cpccrypto.Address(kp.Public)}
			}
			fmt.Printf("address: %s\n", addrs[0])
			return nil
		},
	}
}

// balanceCmd queries a running node's API for an address's balance.
func balanceCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "query an address's balance from a running node",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/utxos/%s", apiAddress, address))
			if err != nil {
				return fmt.Errorf("cpcd: query node: %w", err)
			}
			defer resp.Body.Close()

			var body map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("cpcd: decode response: %w", err)
			}
			fmt.Printf("balance(%s) = %v (%v UTXOs, %v copyright)\n",
				address, body["balance"], body["utxo_count"], body["copyright_count"])
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "account address")
	cmd.MarkFlagRequired("address")
	return cmd
}

// statusCmd queries a running node's API for chain height and mempool
// depth.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "query a running node's chain height and mempool depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/status", apiAddress))
			if err != nil {
				return fmt.Errorf("cpcd: query node: %w", err)
			}
			defer resp.Body.Close()

			var body bytes.Buffer
			if _, err := body.ReadFrom(resp.Body); err != nil {
				return fmt.Errorf("cpcd: read response: %w", err)
			}
			fmt.Println(body.String())
			return nil
		},
	}
}
