package cpcchain

import (
	"testing"
	"time"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
)

func TestNewChainMintsGenesisFaucet(t *testing.T) {
	chain, err := NewChain("miner", time.Unix(1700000000, 0).UTC(), 1)
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}
	if chain.Height() != 1 {
		t.Fatalf("expected height 1 after genesis, got %d", chain.Height())
	}
	genesis, ok := chain.BlockAt(0)
	if !ok {
		t.Fatal("expected genesis block to be retrievable")
	}
	if len(genesis.Transactions) != 1 {
		t.Fatalf("expected exactly one genesis transaction, got %d", len(genesis.Transactions))
	}
	out := genesis.Transactions[0].Outputs[0]
	if out.Amount != GenesisFaucetAmount || out.Address != "miner" {
		t.Fatalf("unexpected genesis output: %+v", out)
	}
}

func TestAppendBlockEnforcesLinkage(t *testing.T) {
	chain, err := NewChain("miner", time.Unix(1700000000, 0).UTC(), 1)
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}
	tip := chain.Tip()

	good := &cpcblock.Block{Index: 1, Timestamp: time.Unix(1700000001, 0).UTC(), PreviousHash: tip.Hash}
	good.Mine(1, nil)
	if err := chain.AppendBlock(good, 1); err != nil {
		t.Fatalf("expected valid block to append, got %v", err)
	}
	if chain.Height() != 2 {
		t.Fatalf("expected height 2 after append, got %d", chain.Height())
	}

	bad := &cpcblock.Block{Index: 5, Timestamp: time.Unix(1700000002, 0).UTC(), PreviousHash: chain.TipHash()}
	bad.Mine(1, nil)
	if err := chain.AppendBlock(bad, 1); err == nil {
		t.Fatal("expected block with wrong index to be rejected")
	}

	wrongPrev := &cpcblock.Block{Index: 2, Timestamp: time.Unix(1700000003, 0).UTC(), PreviousHash: "not-the-tip"}
	wrongPrev.Mine(1, nil)
	if err := chain.AppendBlock(wrongPrev, 1); err == nil {
		t.Fatal("expected block with wrong previous_hash to be rejected")
	}
}

func TestAllBlocksSnapshot(t *testing.T) {
	chain, err := NewChain("miner", time.Unix(1700000000, 0).UTC(), 1)
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}
	snapshot := chain.AllBlocks()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 block in snapshot, got %d", len(snapshot))
	}
	snapshot[0] = &cpcblock.Block{}
	if chain.Tip().Index != 0 || len(chain.Tip().Transactions) == 0 {
		t.Fatal("expected mutating the snapshot slice to not affect chain internals")
	}
}
