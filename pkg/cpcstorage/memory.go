package cpcstorage

import (
	"fmt"
	"sync"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
)

// MemoryStorage is the default, always-available backend: blocks live only
// as long as the process does.
type MemoryStorage struct {
	mu         sync.RWMutex
	byHash     map[string]*cpcblock.Block
	byHeight   map[uint64]*cpcblock.Block
	maxHeight  uint64
	hasBlocks  bool
}

// NewMemoryStorage builds an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byHash:   make(map[string]*cpcblock.Block),
		byHeight: make(map[uint64]*cpcblock.Block),
	}
}

func (s *MemoryStorage) StoreBlock(b *cpcblock.Block) error {
	if b == nil {
		return fmt.Errorf("cpcstorage: cannot store nil block")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[b.Hash] = b
	s.byHeight[b.Index] = b
	if !s.hasBlocks || b.Index > s.maxHeight {
		s.maxHeight = b.Index
		s.hasBlocks = true
	}
	return nil
}

func (s *MemoryStorage) GetBlock(hash string) (*cpcblock.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("cpcstorage: block %s not found", hash)
	}
	return b, nil
}

func (s *MemoryStorage) GetBlockByHeight(height uint64) (*cpcblock.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHeight[height]
	if !ok {
		return nil, fmt.Errorf("cpcstorage: no block at height %d", height)
	}
	return b, nil
}

func (s *MemoryStorage) Height() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasBlocks {
		return 0, nil
	}
	return s.maxHeight + 1, nil
}

func (s *MemoryStorage) Close() error { return nil }
