// Package cpcblock implements the block model and proof-of-work (component
// G): a canonical-JSON block fingerprint, nonce search, and difficulty
// check.
package cpcblock

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

// DefaultDifficulty is the default count of leading zero hex characters a
// block's hash must begin with.
const DefaultDifficulty = 4

// Block is the chain's unit of append: an ordered transaction batch plus
// the PoW envelope.
type Block struct {
	Index        uint64               `json:"index"`
	Timestamp    time.Time            `json:"timestamp"`
	Transactions []*cpctx.Transaction `json:"transactions"`
	PreviousHash string               `json:"previous_hash"`
	Nonce        uint64               `json:"nonce"`
	Hash         string               `json:"hash"`
}

// blockFingerprintPreimage is the exact field set the hash is computed
// over: index, timestamp, transactions, previous_hash, nonce. The hash
// field itself is never part of its own preimage.
type blockFingerprintPreimage struct {
	Index        uint64               `json:"index"`
	Timestamp    time.Time            `json:"timestamp"`
	Transactions []*cpctx.Transaction `json:"transactions"`
	PreviousHash string               `json:"previous_hash"`
	Nonce        uint64               `json:"nonce"`
}

// CalculateHash recomputes the block's fingerprint: SHA-256 hex of the
// canonical JSON of (index, timestamp, transactions, previous_hash, nonce).
func (b *Block) CalculateHash() string {
	preimage := blockFingerprintPreimage{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
	}
	encoded, err := cpctx.CanonicalJSON(preimage)
	if err != nil {
		panic("cpcblock: canonical encode of block preimage failed: " + err.Error())
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// MeetsDifficulty reports whether hash begins with difficulty zero hex
// characters.
func MeetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if len(hash) < difficulty {
		return false
	}
	return strings.Count(hash[:difficulty], "0") == difficulty
}

// Mine performs the nonce search: starting at 0, recompute the fingerprint
// each step until MeetsDifficulty holds, then fix Hash and Nonce to the
// winning value. stop, if non-nil, is polled at every 1000th nonce as the
// single quiescence checkpoint a shutdown signal can observe.
func (b *Block) Mine(difficulty int, stop <-chan struct{}) bool {
	for nonce := uint64(0); ; nonce++ {
		if stop != nil && nonce%1000 == 0 {
			select {
			case <-stop:
				return false
			default:
			}
		}
		b.Nonce = nonce
		hash := b.CalculateHash()
		if MeetsDifficulty(hash, difficulty) {
			b.Hash = hash
			return true
		}
	}
}

// IsValid checks internal consistency: the stored hash matches a
// recomputed fingerprint and that fingerprint meets difficulty.
func (b *Block) IsValid(difficulty int) bool {
	if b.CalculateHash() != b.Hash {
		return false
	}
	return MeetsDifficulty(b.Hash, difficulty)
}

func (b *Block) String() string {
	return b.Hash
}
