package cpctx

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cpc-chain/cpcd/pkg/copyright"
)

// Type enumerates the transaction type tags.
type Type string

const (
	Faucet                Type = "faucet"
	CopyrightRegister     Type = "copyright_register"
	AuthorizationLock     Type = "authorization_lock"
	AuthorizationActivate Type = "authorization_activate"
	Renewal               Type = "renewal"
	Redemption            Type = "redemption"
	SubLicense            Type = "sub_license"
)

// Input is a transaction input: a spent outpoint plus the authorization
// needed to spend it. The back-compat single-sig form collapses to
// RequiredSigners = [publicKeyAddress], Signatures = {address: sig}.
type Input struct {
	Outpoint        Outpoint          `json:"outpoint"`
	PublicKey       *string           `json:"public_key,omitempty"`
	RequiredSigners []string          `json:"required_signers"`
	Signatures      map[string]string `json:"signatures"`
}

// NewSingleSigInput builds the back-compat single-signer input shape.
func NewSingleSigInput(outpoint Outpoint, address string) *Input {
	return &Input{
		Outpoint:        outpoint,
		PublicKey:       &address,
		RequiredSigners: []string{address},
		Signatures:      map[string]string{},
	}
}

// AddSignature records a signature for address. The txid is computed
// without the signatures map, so adding a signature never invalidates or
// changes a transaction's txid.
func (in *Input) AddSignature(address, signature string) {
	if in.Signatures == nil {
		in.Signatures = make(map[string]string)
	}
	in.Signatures[address] = signature
}

// IsFullySigned reports whether every required signer for this input has
// provided a signature. Inputs with an empty RequiredSigners list are
// vacuously fully signed.
func (in *Input) IsFullySigned() bool {
	for _, signer := range in.RequiredSigners {
		if _, ok := in.Signatures[signer]; !ok {
			return false
		}
	}
	return true
}

// UnsignedSigners returns the subset of RequiredSigners that have not yet
// signed.
func (in *Input) UnsignedSigners() []string {
	var missing []string
	for _, signer := range in.RequiredSigners {
		if _, ok := in.Signatures[signer]; !ok {
			missing = append(missing, signer)
		}
	}
	return missing
}

// canonicalInput is the txid-preimage shape of an input: everything but
// the signatures map, since signing must not alter the transaction's
// identity.
type canonicalInput struct {
	Outpoint        Outpoint `json:"outpoint"`
	PublicKey       *string  `json:"public_key,omitempty"`
	RequiredSigners []string `json:"required_signers"`
}

// Output is a transaction output: component of the UTXO a transaction
// creates.
type Output struct {
	Amount  float64            `json:"amount"`
	Address string             `json:"address"`
	Script  string             `json:"script"`
	Kind    Kind               `json:"kind"`
	Payload *copyright.Payload `json:"payload,omitempty"`
}

// Transaction is the full transaction model.
type Transaction struct {
	Inputs    []*Input               `json:"inputs"`
	Outputs   []*Output              `json:"outputs"`
	Type      Type                   `json:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	TxID      string                 `json:"txid"`
}

// New builds a transaction and immediately fixes its txid.
func New(txType Type, inputs []*Input, outputs []*Output, metadata map[string]interface{}, timestamp time.Time) *Transaction {
	tx := &Transaction{
		Inputs:    inputs,
		Outputs:   outputs,
		Type:      txType,
		Metadata:  metadata,
		Timestamp: timestamp,
	}
	tx.TxID = tx.ComputeTxID()
	return tx
}

// ComputeTxID recomputes the transaction's fingerprint: SHA-256 hex of the
// canonical JSON of (inputs-without-signatures, outputs, type, timestamp,
// metadata), sorted keys. Call this whenever inputs, outputs, type,
// metadata, or timestamp change — never when only a signature is added.
func (tx *Transaction) ComputeTxID() string {
	canonicalInputs := make([]canonicalInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		canonicalInputs[i] = canonicalInput{
			Outpoint:        in.Outpoint,
			PublicKey:       in.PublicKey,
			RequiredSigners: in.RequiredSigners,
		}
	}
	preimage := struct {
		Inputs    []canonicalInput `json:"inputs"`
		Outputs   []*Output        `json:"outputs"`
		Type      Type             `json:"type"`
		Timestamp time.Time        `json:"timestamp"`
		Metadata  map[string]interface{} `json:"metadata,omitempty"`
	}{
		Inputs:    canonicalInputs,
		Outputs:   tx.Outputs,
		Type:      tx.Type,
		Timestamp: tx.Timestamp,
		Metadata:  tx.Metadata,
	}
	encoded, err := CanonicalJSON(preimage)
	if err != nil {
		// Encoding a well-formed in-memory transaction cannot fail; a
		// failure here indicates data corruption, not a recoverable
		// condition.
		panic("cpctx: canonical encode of transaction preimage failed: " + err.Error())
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// IsFullySigned reports whether every input that requires signers has them
// all.
func (tx *Transaction) IsFullySigned() bool {
	for _, in := range tx.Inputs {
		if !in.IsFullySigned() {
			return false
		}
	}
	return true
}

// UnsignedSigners returns, per input index, the signers still missing.
func (tx *Transaction) UnsignedSigners() map[int][]string {
	missing := make(map[int][]string)
	for i, in := range tx.Inputs {
		if m := in.UnsignedSigners(); len(m) > 0 {
			missing[i] = m
		}
	}
	return missing
}

// InputSum returns the sum of resolved input amounts, given a resolver
// function from outpoint to amount. Callers (the validator) supply the
// resolver since cpctx has no notion of chain state.
func InputSum(inputs []*Input, amountOf func(Outpoint) (float64, bool)) float64 {
	var total float64
	for _, in := range inputs {
		if amt, ok := amountOf(in.Outpoint); ok {
			total += amt
		}
	}
	return total
}

// OutputSum returns the sum of output amounts.
func OutputSum(outputs []*Output) float64 {
	var total float64
	for _, o := range outputs {
		total += o.Amount
	}
	return total
}
