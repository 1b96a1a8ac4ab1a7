package cpctx

import (
	"testing"
	"time"
)

func TestTxIDDeterministic(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := NewSingleSigInput(Outpoint{TxID: "abc", Vout: 0}, "addrA")
	out := &Output{Amount: 1, Address: "addrB", Script: "P2PKH|addrB", Kind: KindFuel}

	tx1 := New(Faucet, []*Input{in}, []*Output{out}, nil, ts)
	tx2 := New(Faucet, []*Input{in}, []*Output{out}, nil, ts)

	if tx1.TxID != tx2.TxID {
		t.Fatalf("expected deterministic txid, got %s vs %s", tx1.TxID, tx2.TxID)
	}
}

func TestTxIDIgnoresSignatures(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := NewSingleSigInput(Outpoint{TxID: "abc", Vout: 0}, "addrA")
	out := &Output{Amount: 1, Address: "addrB", Script: "P2PKH|addrB", Kind: KindFuel}
	tx := New(Faucet, []*Input{in}, []*Output{out}, nil, ts)

	before := tx.TxID
	in.AddSignature("addrA", "some-signature")
	if got := tx.ComputeTxID(); got != before {
		t.Fatalf("expected txid to be unaffected by AddSignature, got %s vs %s", got, before)
	}
}

func TestIsFullySignedAndUnsignedSigners(t *testing.T) {
	in := NewSingleSigInput(Outpoint{TxID: "abc", Vout: 0}, "addrA")
	tx := &Transaction{Inputs: []*Input{in}}
	if tx.IsFullySigned() {
		t.Fatal("expected not fully signed before any signature added")
	}
	missing := tx.UnsignedSigners()
	if len(missing[0]) != 1 || missing[0][0] != "addrA" {
		t.Fatalf("expected addrA to be the missing signer, got %+v", missing)
	}
	in.AddSignature("addrA", "sig")
	if !tx.IsFullySigned() {
		t.Fatal("expected fully signed after signature added")
	}
}

func TestFaucetInputsVacuouslySigned(t *testing.T) {
	tx := &Transaction{Inputs: nil}
	if !tx.IsFullySigned() {
		t.Fatal("expected transaction with no inputs to be vacuously fully signed")
	}
}

func TestInputOutputSum(t *testing.T) {
	outpoint := Outpoint{TxID: "x", Vout: 0}
	inputs := []*Input{NewSingleSigInput(outpoint, "addrA")}
	amountOf := func(o Outpoint) (float64, bool) {
		if o == outpoint {
			return 5, true
		}
		return 0, false
	}
	if got := InputSum(inputs, amountOf); got != 5 {
		t.Fatalf("expected input sum 5, got %v", got)
	}
	outputs := []*Output{{Amount: 2}, {Amount: 1.5}}
	if got := OutputSum(outputs); got != 3.5 {
		t.Fatalf("expected output sum 3.5, got %v", got)
	}
}
