package cpcwallet

import (
	"testing"
	"time"

	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

func TestPendingStorePutGetRemove(t *testing.T) {
	store, err := NewPendingStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPendingStore: %v", err)
	}

	input := cpctx.NewSingleSigInput(cpctx.Outpoint{TxID: "abc", Vout: 0}, "addrA")
	tx := cpctx.New(cpctx.Faucet, []*cpctx.Input{input}, nil, nil, time.Unix(0, 0))

	if err := store.Put(tx); err != nil {
		t.Fatalf("Put: %v", err)
	}

	key := Key(tx.TxID)
	got, ok := store.Get(key)
	if !ok {
		t.Fatalf("expected pending tx to be found under key %s", key)
	}
	if got.TxID != tx.TxID {
		t.Fatalf("got txid %s want %s", got.TxID, tx.TxID)
	}

	if err := store.Remove(key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := store.Get(key); ok {
		t.Fatalf("expected pending tx to be gone after Remove")
	}
}

func TestPendingStoreListReturnsKeys(t *testing.T) {
	store, err := NewPendingStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPendingStore: %v", err)
	}

	input := cpctx.NewSingleSigInput(cpctx.Outpoint{TxID: "xyz", Vout: 0}, "addrB")
	tx := cpctx.New(cpctx.Faucet, []*cpctx.Input{input}, nil, nil, time.Unix(0, 0))
	if err := store.Put(tx); err != nil {
		t.Fatalf("Put: %v", err)
	}

	keys, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || keys[0] != Key(tx.TxID) {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
