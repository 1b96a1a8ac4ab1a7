//go:build db
// +build db

package cpcstorage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
)

// BadgerStorage is the primary persistence backend, gated behind the `db`
// build tag so the default build doesn't pull in badger.
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens (creating if needed) a badger database at
// config.DataDir.
func NewBadgerStorage(config *Config) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(config.DataDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cpcstorage: open badger: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

func (s *BadgerStorage) StoreBlock(b *cpcblock.Block) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("cpcstorage: marshal block: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(blockHashKey(b.Hash), data); err != nil {
			return err
		}
		if err := txn.Set(blockHeightKey(b.Index), data); err != nil {
			return err
		}
		heightBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(heightBytes, b.Index+1)
		return txn.Set(heightCounterKey, heightBytes)
	})
}

func (s *BadgerStorage) getByKey(key []byte) (*cpcblock.Block, error) {
	var block cpcblock.Block
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &block)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("cpcstorage: not found")
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *BadgerStorage) GetBlock(hash string) (*cpcblock.Block, error) {
	return s.getByKey(blockHashKey(hash))
}

func (s *BadgerStorage) GetBlockByHeight(height uint64) (*cpcblock.Block, error) {
	return s.getByKey(blockHeightKey(height))
}

func (s *BadgerStorage) Height() (uint64, error) {
	var height uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(heightCounterKey)
		if err == badger.ErrKeyNotFound {
			height = 0
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			height = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	return height, err
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}
