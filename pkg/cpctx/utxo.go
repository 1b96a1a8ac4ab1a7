package cpctx

import (
	"fmt"
	"time"

	"github.com/cpc-chain/cpcd/pkg/copyright"
)

// Kind distinguishes plain value-carrying coins from copyright-typed ones.
type Kind string

const (
	KindFuel      Kind = "fuel"
	KindCopyright Kind = "copyright"
)

// Outpoint is the unique reference to one transaction output: (txid, vout).
type Outpoint struct {
	TxID string `json:"txid"`
	Vout int    `json:"vout"`
}

// String renders an outpoint as "txid:vout", the key shape the state engine
// indexes by.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Vout)
}

// UTXO is the unspent-output record: component C.
type UTXO struct {
	Outpoint    Outpoint             `json:"outpoint"`
	Amount      float64              `json:"amount"`
	Address     string               `json:"address"`
	Script      string               `json:"script"`
	Kind        Kind                 `json:"kind"`
	Payload     *copyright.Payload   `json:"payload,omitempty"`
	CreatedTime time.Time            `json:"created_time"`
}

// IsCopyright reports whether this UTXO carries a copyright payload.
func (u *UTXO) IsCopyright() bool {
	return u.Kind == KindCopyright && u.Payload != nil
}
