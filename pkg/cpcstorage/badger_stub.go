//go:build !db
// +build !db

package cpcstorage

import (
	"fmt"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
)

// BadgerStorage is a no-op stub when built without the `db` tag; the
// default build never links badger.
type BadgerStorage struct{}

// NewBadgerStorage fails clearly rather than silently behaving like memory
// storage: callers must rebuild with -tags db to get real persistence.
func NewBadgerStorage(config *Config) (*BadgerStorage, error) {
	return nil, fmt.Errorf("cpcstorage: badger backend requires building with -tags db")
}

func (s *BadgerStorage) StoreBlock(b *cpcblock.Block) error { return fmt.Errorf("not implemented without db tag") }
func (s *BadgerStorage) GetBlock(hash string) (*cpcblock.Block, error) {
	return nil, fmt.Errorf("not implemented without db tag")
}
func (s *BadgerStorage) GetBlockByHeight(height uint64) (*cpcblock.Block, error) {
	return nil, fmt.Errorf("not implemented without db tag")
}
func (s *BadgerStorage) Height() (uint64, error) { return 0, fmt.Errorf("not implemented without db tag") }
func (s *BadgerStorage) Close() error             { return nil }
