package cpcblock

import (
	"testing"
	"time"
)

func TestCalculateHashDeterministic(t *testing.T) {
	b1 := &Block{Index: 1, Timestamp: time.Unix(0, 0).UTC(), PreviousHash: "00"}
	b2 := &Block{Index: 1, Timestamp: time.Unix(0, 0).UTC(), PreviousHash: "00"}
	if b1.CalculateHash() != b2.CalculateHash() {
		t.Fatal("expected identical blocks to produce identical hashes")
	}
}

func TestMeetsDifficulty(t *testing.T) {
	if !MeetsDifficulty("0000abcdef", 4) {
		t.Fatal("expected hash with 4 leading zeros to meet difficulty 4")
	}
	if MeetsDifficulty("000abcdef", 4) {
		t.Fatal("expected hash with 3 leading zeros to fail difficulty 4")
	}
	if !MeetsDifficulty("abcdef", 0) {
		t.Fatal("expected difficulty 0 to always pass")
	}
}

func TestMineProducesAdmissibleNonce(t *testing.T) {
	b := &Block{Index: 1, Timestamp: time.Unix(1700000000, 0).UTC(), PreviousHash: "genesis"}
	ok := b.Mine(1, nil)
	if !ok {
		t.Fatal("expected mining at difficulty 1 to succeed")
	}
	if !MeetsDifficulty(b.Hash, 1) {
		t.Fatalf("mined hash %s does not meet difficulty 1", b.Hash)
	}
	if b.CalculateHash() != b.Hash {
		t.Fatal("expected stored hash to match recomputed fingerprint")
	}
}

func TestMineRespectsStopSignal(t *testing.T) {
	b := &Block{Index: 1, Timestamp: time.Unix(1700000000, 0).UTC(), PreviousHash: "genesis"}
	stop := make(chan struct{})
	close(stop)
	ok := b.Mine(64, stop)
	if ok {
		t.Fatal("expected mining against an impossible difficulty with a closed stop channel to abort")
	}
}

func TestIsValid(t *testing.T) {
	b := &Block{Index: 1, Timestamp: time.Unix(1700000000, 0).UTC(), PreviousHash: "genesis"}
	b.Mine(1, nil)
	if !b.IsValid(1) {
		t.Fatal("expected freshly mined block to be valid")
	}
	b.Nonce++
	if b.IsValid(1) {
		t.Fatal("expected tampering with nonce without rehashing to invalidate the block")
	}
}
