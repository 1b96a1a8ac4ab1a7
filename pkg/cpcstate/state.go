// Package cpcstate implements the UTXO state engine: a
// block-scan reconstruction of the unspent-output set, with no persistent
// index — every query walks the chain in block order. An LRU cache of
// per-block UTXO deltas speeds up repeated scans within the configured
// scan window; it is a performance aid only and is never consulted for
// correctness (a cold engine reproduces identical results from a full
// re-scan).
package cpcstate

import (
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/cpc-chain/cpcd/pkg/copyright"
	"github.com/cpc-chain/cpcd/pkg/cpcblock"
	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

// DefaultScanWindow is the default "3 months" window for the optional
// performance skip. It bounds how far back a scan bothers
// re-reading blocks whose outputs the caller already knows are irrelevant;
// it is off by default (ScanOptions.Window left nil) because skipping blocks is not generally
// safe for correctness unless the caller can prove it.
const DefaultScanWindow = 90 * 24 * time.Hour

// ChainReader is the minimal view over a block sequence the state engine
// needs: its height and random access to blocks by index. cpcchain.Chain
// satisfies this.
type ChainReader interface {
	Height() int
	BlockAt(index int) (*cpcblock.Block, bool)
}

// Engine is the UTXO state engine.
type Engine struct {
	cache *lru.Cache
}

// NewEngine builds a state engine with a bounded LRU of scanned block
// deltas. cacheSize of 0 disables the cache.
func NewEngine(cacheSize int) *Engine {
	e := &Engine{}
	if cacheSize > 0 {
		c, err := lru.New(cacheSize)
		if err == nil {
			e.cache = c
		}
	}
	return e
}

// blockDelta is the effect one block has on the UTXO map: outpoints it
// consumes, and UTXOs it creates.
type blockDelta struct {
	removed []cpctx.Outpoint
	added   map[cpctx.Outpoint]*cpctx.UTXO
}

func computeBlockDelta(b *cpcblock.Block) blockDelta {
	delta := blockDelta{added: make(map[cpctx.Outpoint]*cpctx.UTXO)}
	for _, tx := range b.Transactions {
		for _, in := range tx.Inputs {
			delta.removed = append(delta.removed, in.Outpoint)
		}
		for i, out := range tx.Outputs {
			op := cpctx.Outpoint{TxID: tx.TxID, Vout: i}
			delta.added[op] = &cpctx.UTXO{
				Outpoint:    op,
				Amount:      out.Amount,
				Address:     out.Address,
				Script:      out.Script,
				Kind:        out.Kind,
				Payload:     out.Payload,
				CreatedTime: tx.Timestamp,
			}
		}
	}
	return delta
}

func (e *Engine) deltaForBlock(b *cpcblock.Block) blockDelta {
	if e.cache != nil {
		if cached, ok := e.cache.Get(b.Hash); ok {
			return cached.(blockDelta)
		}
	}
	delta := computeBlockDelta(b)
	if e.cache != nil {
		e.cache.Add(b.Hash, delta)
	}
	return delta
}

// ScanOptions configures an optional performance skip over old blocks.
// Leaving Window nil scans the full chain from genesis, which is always
// correct.
type ScanOptions struct {
	Now    time.Time
	Window *time.Duration
}

// Scan walks the chain in index order, removing each input's outpoint and
// inserting each output's outpoint, and returns the resulting UTXO map.
// Inputs are processed before outputs within a single transaction, so a
// transaction can never spend its own outputs.
func (e *Engine) Scan(chain ChainReader, opts ScanOptions) map[cpctx.Outpoint]*cpctx.UTXO {
	utxos := make(map[cpctx.Outpoint]*cpctx.UTXO)
	height := chain.Height()
	for i := 0; i < height; i++ {
		block, ok := chain.BlockAt(i)
		if !ok {
			continue
		}
		if opts.Window != nil && !opts.Now.IsZero() {
			cutoff := opts.Now.Add(-*opts.Window)
			if block.Timestamp.Before(cutoff) {
				continue
			}
		}
		delta := e.deltaForBlock(block)
		for _, removed := range delta.removed {
			delete(utxos, removed)
		}
		for op, utxo := range delta.added {
			utxos[op] = utxo
		}
	}
	return utxos
}

// Get resolves a single outpoint against a full scan.
func (e *Engine) Get(chain ChainReader, outpoint cpctx.Outpoint) (*cpctx.UTXO, bool) {
	utxos := e.Scan(chain, ScanOptions{})
	u, ok := utxos[outpoint]
	return u, ok
}

// UTXOsOfAddress lists every live UTXO owned by address.
func (e *Engine) UTXOsOfAddress(chain ChainReader, address string) []*cpctx.UTXO {
	utxos := e.Scan(chain, ScanOptions{})
	var result []*cpctx.UTXO
	for _, u := range utxos {
		if u.Address == address {
			result = append(result, u)
		}
	}
	return result
}

// Balance sums the amounts of every UTXO owned by address.
func (e *Engine) Balance(chain ChainReader, address string) float64 {
	var total float64
	for _, u := range e.UTXOsOfAddress(chain, address) {
		total += u.Amount
	}
	return total
}

// CopyrightUTXOsOfAddress filters UTXOsOfAddress down to copyright-kind
// entries.
func (e *Engine) CopyrightUTXOsOfAddress(chain ChainReader, address string) []*cpctx.UTXO {
	var result []*cpctx.UTXO
	for _, u := range e.UTXOsOfAddress(chain, address) {
		if u.IsCopyright() {
			result = append(result, u)
		}
	}
	return result
}

// CopyrightUTXOsByWorkHash lists live copyright UTXOs bearing workHash,
// across all addresses.
func (e *Engine) CopyrightUTXOsByWorkHash(chain ChainReader, workHash string) []*cpctx.UTXO {
	utxos := e.Scan(chain, ScanOptions{})
	var result []*cpctx.UTXO
	for _, u := range utxos {
		if u.IsCopyright() && u.Payload.WorkHash == workHash {
			result = append(result, u)
		}
	}
	return result
}

// CopyrightUTXOsByTitle is a secondary lookup: all sovereignty UTXOs
// registered under a given work title.
func (e *Engine) CopyrightUTXOsByTitle(chain ChainReader, title string) []*cpctx.UTXO {
	utxos := e.Scan(chain, ScanOptions{})
	var result []*cpctx.UTXO
	for _, u := range utxos {
		if u.IsCopyright() && u.Payload.CopyrightType == copyright.Sovereignty && u.Payload.WorkTitle == title {
			result = append(result, u)
		}
	}
	return result
}

// VerifyProof returns a live proof-typed UTXO owned by address for
// workHash, if one exists.
func (e *Engine) VerifyProof(chain ChainReader, address, workHash string) (*cpctx.UTXO, bool) {
	for _, u := range e.CopyrightUTXOsOfAddress(chain, address) {
		if u.Payload.CopyrightType == copyright.Proof && u.Payload.WorkHash == workHash {
			return u, true
		}
	}
	return nil, false
}
