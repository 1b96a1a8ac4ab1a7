// Package cpcstorage is optional block persistence, outside the
// consensus-critical core: the UTXO state is always re-derived on demand
// and never depends on it. It exists purely so a node can survive a
// restart without re-mining. The default build uses an in-memory stub;
// the badger backend is opt-in via the `db` build tag.
package cpcstorage

import "github.com/cpc-chain/cpcd/pkg/cpcblock"

// Storage is the persistence interface every backend satisfies.
type Storage interface {
	StoreBlock(b *cpcblock.Block) error
	GetBlock(hash string) (*cpcblock.Block, error)
	GetBlockByHeight(height uint64) (*cpcblock.Block, error)
	Height() (uint64, error)
	Close() error
}

// Type selects a storage backend.
type Type string

const (
	TypeMemory  Type = "memory"
	TypeBadger  Type = "badger"
	TypeLevelDB Type = "leveldb"
)

// Config configures any backend.
type Config struct {
	DataDir string
}

// DefaultConfig returns a default data directory.
func DefaultConfig() *Config {
	return &Config{DataDir: "./data"}
}
