package cpcstorage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
)

// LevelDBStorage is the second pluggable persistence backend, offered
// unconditionally (no build tag required).
type LevelDBStorage struct {
	db *leveldb.DB
}

// NewLevelDBStorage opens (creating if needed) a LevelDB database at
// config.DataDir.
func NewLevelDBStorage(config *Config) (*LevelDBStorage, error) {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("cpcstorage: create data dir: %w", err)
	}
	db, err := leveldb.OpenFile(config.DataDir, nil)
	if err != nil {
		return nil, fmt.Errorf("cpcstorage: open leveldb: %w", err)
	}
	return &LevelDBStorage{db: db}, nil
}

func (s *LevelDBStorage) StoreBlock(b *cpcblock.Block) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("cpcstorage: marshal block: %w", err)
	}
	if err := s.db.Put(blockHashKey(b.Hash), data, nil); err != nil {
		return err
	}
	if err := s.db.Put(blockHeightKey(b.Index), data, nil); err != nil {
		return err
	}
	heightBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(heightBytes, b.Index+1)
	return s.db.Put(heightCounterKey, heightBytes, nil)
}

func (s *LevelDBStorage) getByKey(key []byte) (*cpcblock.Block, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("cpcstorage: not found")
	}
	if err != nil {
		return nil, err
	}
	var block cpcblock.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *LevelDBStorage) GetBlock(hash string) (*cpcblock.Block, error) {
	return s.getByKey(blockHashKey(hash))
}

func (s *LevelDBStorage) GetBlockByHeight(height uint64) (*cpcblock.Block, error) {
	return s.getByKey(blockHeightKey(height))
}

func (s *LevelDBStorage) Height() (uint64, error) {
	data, err := s.db.Get(heightCounterKey, nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

func (s *LevelDBStorage) Close() error {
	return s.db.Close()
}
