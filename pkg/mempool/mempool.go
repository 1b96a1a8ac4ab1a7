// Package mempool implements the FIFO submission queue that feeds the
// miner: transactions are validated once at submit time and again at
// block-assembly time to catch state that has moved since submission.
package mempool

import (
	"fmt"
	"sync"
	"time"

	"github.com/cpc-chain/cpcd/pkg/cpcstate"
	"github.com/cpc-chain/cpcd/pkg/cpctx"
	"github.com/cpc-chain/cpcd/pkg/validator"
)

// Clock returns the logical "now" used for validation; tests substitute a
// fixed clock.
type Clock func() time.Time

// Mempool is a mutex-guarded FIFO queue of submitted transactions.
type Mempool struct {
	mu        sync.Mutex
	queue     []*cpctx.Transaction
	byTxID    map[string]*cpctx.Transaction
	validator *validator.Validator
	chain     cpcstate.ChainReader
	clock     Clock
}

// New builds an empty mempool. v and chain are used to revalidate at
// submit time; clock defaults to time.Now.
func New(v *validator.Validator, chain cpcstate.ChainReader, clock Clock) *Mempool {
	if clock == nil {
		clock = time.Now
	}
	return &Mempool{
		byTxID:    make(map[string]*cpctx.Transaction),
		validator: v,
		chain:     chain,
		clock:     clock,
	}
}

// Submit validates tx against current chain state and, if accepted, appends
// it to the FIFO queue. For a single submitter, submit order is preserved
// in queue order.
func (m *Mempool) Submit(tx *cpctx.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byTxID[tx.TxID]; dup {
		return fmt.Errorf("mempool: duplicate transaction %s", tx.TxID)
	}
	ok, verr := m.validator.Validate(tx, m.chain, m.clock())
	if !ok {
		return verr
	}
	m.queue = append(m.queue, tx)
	m.byTxID[tx.TxID] = tx
	return nil
}

// Snapshot returns a copy of the current queue, oldest first, for the
// miner to drain without holding the mempool lock during PoW.
func (m *Mempool) Snapshot() []*cpctx.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*cpctx.Transaction, len(m.queue))
	copy(out, m.queue)
	return out
}

// Remove drops a transaction from the queue, used once it has been mined or
// dropped for failing revalidation.
func (m *Mempool) Remove(txid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(txid)
}

func (m *Mempool) removeLocked(txid string) {
	delete(m.byTxID, txid)
	for i, tx := range m.queue {
		if tx.TxID == txid {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// Clear removes the given mined transactions from the queue, used after a
// block has been appended. Transactions not listed stay queued.
func (m *Mempool) Clear(minedTxIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, txid := range minedTxIDs {
		m.removeLocked(txid)
	}
}

// Size returns the current queue depth.
func (m *Mempool) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Get returns a queued transaction by id, for query handlers.
func (m *Mempool) Get(txid string) (*cpctx.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.byTxID[txid]
	return tx, ok
}
