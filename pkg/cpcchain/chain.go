// Package cpcchain implements the ordered block sequence the state engine
// scans, including genesis construction. There is no fork choice: a
// single-producer assumption means AppendBlock only ever extends the
// current tip.
package cpcchain

import (
	"fmt"
	"sync"
	"time"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

// GenesisFaucetAmount is the fixed mint the genesis block credits to the
// miner address.
const GenesisFaucetAmount = 100

// Chain is the append-only, mutex-guarded block sequence.
type Chain struct {
	mu     sync.RWMutex
	blocks []*cpcblock.Block
}

// NewChain builds a chain whose genesis block (index 0) mints
// GenesisFaucetAmount fuel units to minerAddress via a single faucet
// transaction.
func NewChain(minerAddress string, genesisTime time.Time, difficulty int) (*Chain, error) {
	faucetOutput := &cpctx.Output{
		Amount:  GenesisFaucetAmount,
		Address: minerAddress,
		Script:  fmt.Sprintf("P2PKH|%s", minerAddress),
		Kind:    cpctx.KindFuel,
	}
	genesisTx := cpctx.New(cpctx.Faucet, nil, []*cpctx.Output{faucetOutput}, map[string]interface{}{"genesis": true}, genesisTime)

	genesis := &cpcblock.Block{
		Index:        0,
		Timestamp:    genesisTime,
		Transactions: []*cpctx.Transaction{genesisTx},
		PreviousHash: "",
	}
	if !genesis.Mine(difficulty, nil) {
		return nil, fmt.Errorf("cpcchain: failed to mine genesis block")
	}
	return &Chain{blocks: []*cpcblock.Block{genesis}}, nil
}

// Height returns the number of blocks in the chain.
func (c *Chain) Height() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// BlockAt returns the block at index, if any.
func (c *Chain) BlockAt(index int) (*cpcblock.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.blocks) {
		return nil, false
	}
	return c.blocks[index], true
}

// Tip returns the most recently appended block.
func (c *Chain) Tip() *cpcblock.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

// TipHash returns the hash of the current tip, or "" for an empty chain.
func (c *Chain) TipHash() string {
	tip := c.Tip()
	if tip == nil {
		return ""
	}
	return tip.Hash
}

// AppendBlock extends the chain with b, after checking index continuity,
// previous-hash linkage, and PoW validity. The caller (the miner) is
// expected to have already run the transaction validator over b's
// contents; AppendBlock only checks structural chain invariants.
func (c *Chain) AppendBlock(b *cpcblock.Block, difficulty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wantIndex := uint64(len(c.blocks))
	if b.Index != wantIndex {
		return fmt.Errorf("cpcchain: block index %d does not extend tip at height %d", b.Index, wantIndex)
	}
	if len(c.blocks) > 0 {
		tip := c.blocks[len(c.blocks)-1]
		if b.PreviousHash != tip.Hash {
			return fmt.Errorf("cpcchain: block previous_hash %s does not match tip hash %s", b.PreviousHash, tip.Hash)
		}
	}
	if !b.IsValid(difficulty) {
		return fmt.Errorf("cpcchain: block %d fails PoW/hash validity check", b.Index)
	}
	c.blocks = append(c.blocks, b)
	return nil
}

// AllBlocks returns a snapshot copy of the full chain, oldest first.
func (c *Chain) AllBlocks() []*cpcblock.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*cpcblock.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

func (c *Chain) String() string {
	return fmt.Sprintf("Chain{height: %d, tip: %s}", c.Height(), c.TipHash())
}
