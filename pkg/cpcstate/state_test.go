package cpcstate

import (
	"testing"
	"time"

	"github.com/cpc-chain/cpcd/pkg/cpcblock"
	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

type fakeChain struct {
	blocks []*cpcblock.Block
}

func (c *fakeChain) Height() int { return len(c.blocks) }
func (c *fakeChain) BlockAt(i int) (*cpcblock.Block, bool) {
	if i < 0 || i >= len(c.blocks) {
		return nil, false
	}
	return c.blocks[i], true
}

func makeBlock(index uint64, prevHash string, txs []*cpctx.Transaction) *cpcblock.Block {
	b := &cpcblock.Block{Index: index, Timestamp: time.Unix(1700000000+int64(index), 0).UTC(), Transactions: txs, PreviousHash: prevHash}
	b.Hash = b.CalculateHash()
	return b
}

func TestScanTracksSpendsAndCreates(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	faucetOut := &cpctx.Output{Amount: 100, Address: "miner", Kind: cpctx.KindFuel, Script: "P2PKH|miner"}
	genesisTx := cpctx.New(cpctx.Faucet, nil, []*cpctx.Output{faucetOut}, nil, ts)
	genesis := makeBlock(0, "", []*cpctx.Transaction{genesisTx})

	spendIn := cpctx.NewSingleSigInput(cpctx.Outpoint{TxID: genesisTx.TxID, Vout: 0}, "miner")
	spendOut := &cpctx.Output{Amount: 5, Address: "alice", Kind: cpctx.KindFuel, Script: "P2PKH|alice"}
	changeOut := &cpctx.Output{Amount: 95, Address: "miner", Kind: cpctx.KindFuel, Script: "P2PKH|miner"}
	spendTx := cpctx.New(cpctx.Faucet, []*cpctx.Input{spendIn}, []*cpctx.Output{spendOut, changeOut}, nil, ts)
	block1 := makeBlock(1, genesis.Hash, []*cpctx.Transaction{spendTx})

	chain := &fakeChain{blocks: []*cpcblock.Block{genesis, block1}}
	engine := NewEngine(16)

	if _, ok := engine.Get(chain, cpctx.Outpoint{TxID: genesisTx.TxID, Vout: 0}); ok {
		t.Fatal("expected the spent genesis output to be gone after scan")
	}
	if bal := engine.Balance(chain, "alice"); bal != 5 {
		t.Fatalf("expected alice balance 5, got %v", bal)
	}
	if bal := engine.Balance(chain, "miner"); bal != 95 {
		t.Fatalf("expected miner balance 95, got %v", bal)
	}
}

func TestScanIsIdempotentAcrossRepeatedCalls(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	out := &cpctx.Output{Amount: 10, Address: "bob", Kind: cpctx.KindFuel}
	tx := cpctx.New(cpctx.Faucet, nil, []*cpctx.Output{out}, nil, ts)
	genesis := makeBlock(0, "", []*cpctx.Transaction{tx})
	chain := &fakeChain{blocks: []*cpcblock.Block{genesis}}
	engine := NewEngine(16)

	first := engine.Balance(chain, "bob")
	second := engine.Balance(chain, "bob")
	if first != second || first != 10 {
		t.Fatalf("expected stable repeated scans, got %v then %v", first, second)
	}
}
