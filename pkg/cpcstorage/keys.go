package cpcstorage

import "encoding/binary"

// Key helpers shared by both the badger (db-tag-gated) and leveldb
// backends, so the on-disk layout is identical regardless of which is
// chosen.

func blockHashKey(hash string) []byte { return []byte("block:hash:" + hash) }

func blockHeightKey(height uint64) []byte {
	prefix := "block:height:"
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], height)
	return key
}

var heightCounterKey = []byte("meta:height")
