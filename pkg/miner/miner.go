// Package miner implements the miner loop: mempool
// drainage, per-transaction revalidation, fee totalization, coinbase
// minting, proof-of-work, and block append.
package miner

import (
	"fmt"
	"sync"
	"time"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
	"github.com/cpc-chain/cpcd/pkg/cpcchain"
	"github.com/cpc-chain/cpcd/pkg/cpclog"
	"github.com/cpc-chain/cpcd/pkg/cpcstate"
	"github.com/cpc-chain/cpcd/pkg/cpctx"
	"github.com/cpc-chain/cpcd/pkg/mempool"
	"github.com/cpc-chain/cpcd/pkg/validator"
)

// BlockReward is the fixed coinbase mint per block.
const BlockReward = 1.0

// Config holds the miner's tunables.
type Config struct {
	CoinbaseAddress string
	Difficulty      int
	BlockTime       time.Duration
}

// DefaultConfig returns sensible tunables for coinbaseAddress.
func DefaultConfig(coinbaseAddress string) *Config {
	return &Config{
		CoinbaseAddress: coinbaseAddress,
		Difficulty:      cpcblock.DefaultDifficulty,
		BlockTime:       10 * time.Second,
	}
}

// Miner drives the background mining loop.
type Miner struct {
	mu        sync.Mutex
	chain     *cpcchain.Chain
	mempool   *mempool.Mempool
	validator *validator.Validator
	engine    *cpcstate.Engine
	config    *Config
	log       *cpclog.Logger

	mining     bool
	stopCh     chan struct{}
	stopOnce   sync.Once
	doneCh     chan struct{}
}

// New builds a miner over the given chain, mempool, validator, and state
// engine.
func New(chain *cpcchain.Chain, mp *mempool.Mempool, v *validator.Validator, engine *cpcstate.Engine, config *Config, log *cpclog.Logger) *Miner {
	return &Miner{
		chain:     chain,
		mempool:   mp,
		validator: v,
		engine:    engine,
		config:    config,
		log:       cpclog.OrDiscard(log),
	}
}

// Start launches the background worker that wakes on BlockTime ticks and
// mines whenever the mempool is non-empty.
func (m *Miner) Start() {
	m.mu.Lock()
	if m.mining {
		m.mu.Unlock()
		return
	}
	m.mining = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.loop()
}

// Stop signals the worker to exit at the next quiescence point and waits
// for it to finish any in-flight PoW.
func (m *Miner) Stop() {
	m.mu.Lock()
	if !m.mining {
		m.mu.Unlock()
		return
	}
	stopCh := m.stopCh
	doneCh := m.doneCh
	m.mu.Unlock()

	m.stopOnce.Do(func() { close(stopCh) })
	<-doneCh

	m.mu.Lock()
	m.mining = false
	m.mu.Unlock()
}

// IsMining reports whether the background worker is running.
func (m *Miner) IsMining() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mining
}

func (m *Miner) loop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.config.BlockTime)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if m.mempool.Size() == 0 {
				continue
			}
			if _, err := m.MineBlock(time.Now()); err != nil {
				m.log.Warnw("mine pass failed", "error", err)
			}
		}
	}
}

// feeOf returns the fee a transaction contributes: Σinputs − Σoutputs,
// zero for faucet transactions which have no inputs.
func (m *Miner) feeOf(tx *cpctx.Transaction) float64 {
	if tx.Type == cpctx.Faucet {
		return 0
	}
	inSum := cpctx.InputSum(tx.Inputs, func(op cpctx.Outpoint) (float64, bool) {
		u, ok := m.engine.Get(m.chain, op)
		if !ok {
			return 0, false
		}
		return u.Amount, true
	})
	return inSum - cpctx.OutputSum(tx.Outputs)
}

// MineBlock snapshots the mempool, revalidates each transaction, assembles
// an accepted batch plus a coinbase crediting BlockReward + total fees to
// the miner's address, runs PoW, and appends the resulting block. It never
// holds the mempool lock during PoW — only during the initial snapshot,
// while dropping transactions that fail revalidation, and the final
// mempool-clearing step. A transaction spending an outpoint already spent
// by an earlier transaction of the same batch is dropped as spent_or_unknown.
func (m *Miner) MineBlock(now time.Time) (*cpcblock.Block, error) {
	snapshot := m.mempool.Snapshot()

	var accepted []*cpctx.Transaction
	var totalFees float64
	spent := make(map[cpctx.Outpoint]struct{})
	for _, tx := range snapshot {
		ok, verr := m.validator.Validate(tx, m.chain, now)
		if !ok {
			m.log.Infow("dropping transaction at block assembly", "txid", tx.TxID, "reason", verr)
			m.mempool.Remove(tx.TxID)
			continue
		}
		conflict := false
		for _, in := range tx.Inputs {
			if _, dup := spent[in.Outpoint]; dup {
				conflict = true
			}
		}
		if conflict {
			m.log.Infow("dropping transaction at block assembly", "txid", tx.TxID, "reason", validator.SpentOrUnknown)
			m.mempool.Remove(tx.TxID)
			continue
		}
		for _, in := range tx.Inputs {
			spent[in.Outpoint] = struct{}{}
		}
		accepted = append(accepted, tx)
		totalFees += m.feeOf(tx)
	}

	coinbaseOut := &cpctx.Output{
		Amount:  BlockReward + totalFees,
		Address: m.config.CoinbaseAddress,
		Script:  fmt.Sprintf("P2PKH|%s", m.config.CoinbaseAddress),
		Kind:    cpctx.KindFuel,
	}
	coinbase := cpctx.New(cpctx.Faucet, nil, []*cpctx.Output{coinbaseOut}, map[string]interface{}{"coinbase": true}, now)

	// Coinbase is placed last so fees are fully known before it is built.
	batch := append(append([]*cpctx.Transaction{}, accepted...), coinbase)

	block := &cpcblock.Block{
		Index:        uint64(m.chain.Height()),
		Timestamp:    now,
		Transactions: batch,
		PreviousHash: m.chain.TipHash(),
	}

	m.mu.Lock()
	stopCh := m.stopCh
	m.mu.Unlock()
	if !block.Mine(m.config.Difficulty, stopCh) {
		return nil, fmt.Errorf("miner: PoW aborted before finding an admissible nonce")
	}

	if err := m.chain.AppendBlock(block, m.config.Difficulty); err != nil {
		return nil, fmt.Errorf("miner: append failed: %w", err)
	}

	minedTxIDs := make([]string, 0, len(accepted))
	for _, tx := range accepted {
		minedTxIDs = append(minedTxIDs, tx.TxID)
	}
	m.mempool.Clear(minedTxIDs)

	m.log.Infow("mined block", "height", block.Index, "hash", block.Hash, "tx_count", len(batch), "fees", totalFees)
	return block, nil
}
