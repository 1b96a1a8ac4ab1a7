package cpcwallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

// PendingStore persists multi-party transactions that are still collecting
// signatures, as plain JSON files named after the first 8 hex digits of
// their txid.
type PendingStore struct {
	mu  sync.RWMutex
	dir string
}

// NewPendingStore roots a pending-transaction store at dir, creating it if
// necessary.
func NewPendingStore(dir string) (*PendingStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("cpcwallet: create pending dir: %w", err)
	}
	return &PendingStore{dir: dir}, nil
}

// Key returns the 8 hex digit key a transaction is filed under.
func Key(txid string) string {
	if len(txid) <= 8 {
		return txid
	}
	return txid[:8]
}

func (p *PendingStore) path(key string) string {
	return filepath.Join(p.dir, key+".json")
}

// Put writes tx, keyed by the first 8 hex digits of its txid, overwriting
// any previous partial-signature state under that key.
func (p *PendingStore) Put(tx *cpctx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return fmt.Errorf("cpcwallet: marshal pending tx: %w", err)
	}
	return os.WriteFile(p.path(Key(tx.TxID)), data, 0600)
}

// Get loads the pending transaction filed under key (first 8 hex digits of
// a txid), if any.
func (p *PendingStore) Get(key string) (*cpctx.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(p.path(key))
	if err != nil {
		return nil, false
	}
	var tx cpctx.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, false
	}
	return &tx, true
}

// Remove deletes the pending entry for key, e.g. once a transaction is
// fully signed and submitted. A missing entry is not an error.
func (p *PendingStore) Remove(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := os.Remove(p.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns the keys of every pending transaction currently on disk.
func (p *PendingStore) List() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		keys = append(keys, name[:len(name)-len(filepath.Ext(name))])
	}
	return keys, nil
}
