// Package cpccrypto implements the key and signature primitives:
// ECDSA over secp256k1, canonical address derivation, and sign/verify over the
// txid message.
package cpccrypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// KeyPair holds a secp256k1 private/public key pair.
type KeyPair struct {
	Private *btcec.PrivateKey
	Public  *btcec.PublicKey
}

// GenerateKeyPair creates a fresh secp256k1 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("cpccrypto: generate key: %w", err)
	}
	return &KeyPair{Private: priv, Public: priv.PubKey()}, nil
}

// Address derives the canonical address for a public key: base64 of the
// compressed public key bytes. Per spec this is the address format — not
// Base58Check.
func Address(pub *btcec.PublicKey) string {
	return base64.StdEncoding.EncodeToString(pub.SerializeCompressed())
}

// PublicKeyFromAddress decodes a base64 address back into a public key,
// so an address can be matched against presented signers.
func PublicKeyFromAddress(address string) (*btcec.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(address)
	if err != nil {
		return nil, fmt.Errorf("cpccrypto: decode address: %w", err)
	}
	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("cpccrypto: parse public key: %w", err)
	}
	return pub, nil
}

// EncodePublicKey returns the base64 form of a raw public key, used to
// populate TxInput.PublicKey in the single-sig back-compat form.
func EncodePublicKey(pub *btcec.PublicKey) string {
	return base64.StdEncoding.EncodeToString(pub.SerializeCompressed())
}

// SignMessage signs over the UTF-8 bytes of the canonical hex txid. The
// digest fed to ECDSA is SHA-256 of those bytes.
func SignMessage(priv *btcec.PrivateKey, txid string) (string, error) {
	digest := sha256.Sum256([]byte(txid))
	sig := ecdsa.Sign(priv, digest[:])
	return base64.StdEncoding.EncodeToString(sig.Serialize()), nil
}

// VerifySignature checks a base64-encoded signature against a base64
// public key over a given txid.
func VerifySignature(publicKeyB64, signatureB64, txid string) bool {
	pubBytes, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return false
	}
	pub, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}
	return VerifySignatureWithKey(pub, signatureB64, txid)
}

// VerifySignatureWithKey checks a base64-encoded signature against an
// already-parsed public key over a given txid.
func VerifySignatureWithKey(pub *btcec.PublicKey, signatureB64, txid string) bool {
	sigBytes, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(txid))
	return sig.Verify(digest[:], pub)
}
