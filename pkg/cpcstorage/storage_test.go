package cpcstorage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
)

func TestMemoryStorageStoreAndGet(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	b := &cpcblock.Block{Index: 0, Timestamp: time.Unix(0, 0), PreviousHash: ""}
	b.Hash = b.CalculateHash()

	require.NoError(t, s.StoreBlock(b))

	byHash, err := s.GetBlock(b.Hash)
	require.NoError(t, err)
	assert.Equal(t, b.Hash, byHash.Hash)

	byHeight, err := s.GetBlockByHeight(0)
	require.NoError(t, err)
	assert.Equal(t, b.Hash, byHeight.Hash)

	height, err := s.Height()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)
}

func TestMemoryStorageMissingBlock(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	_, err := s.GetBlock("nonexistent")
	assert.Error(t, err)

	_, err = s.GetBlockByHeight(5)
	assert.Error(t, err)
}

func TestNewDispatchesMemoryByDefault(t *testing.T) {
	s, err := New(TypeMemory, nil)
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*MemoryStorage)
	assert.True(t, ok)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(Type("carrier-pigeon"), DefaultConfig())
	assert.Error(t, err)
}
