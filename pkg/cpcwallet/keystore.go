// Package cpcwallet is key storage and in-flight multi-signature
// persistence. It sits outside the consensus-critical core: nothing in
// pkg/validator or pkg/cpcstate imports it.
//
// Keys are encrypted at rest with AES-GCM, using a PBKDF2-style
// (HMAC-SHA256, 100,000 iteration) passphrase-derived key, wrapping
// cpccrypto key pairs.
package cpcwallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/cpc-chain/cpcd/pkg/cpccrypto"
)

const saltSize = 32
const kdfIterations = 100000

// Keystore holds an address-indexed set of key pairs, persisted encrypted
// to a single file.
type Keystore struct {
	mu         sync.RWMutex
	path       string
	passphrase string
	keys       map[string]*cpccrypto.KeyPair
}

// keyRecord is the on-disk (pre-encryption) shape of one key.
type keyRecord struct {
	Address    string `json:"address"`
	PrivateHex string `json:"private_hex"`
}

// New opens (or prepares to create) a keystore file at path, protected by
// passphrase. The file is not read until Load is called.
func New(path, passphrase string) *Keystore {
	return &Keystore{path: path, passphrase: passphrase, keys: make(map[string]*cpccrypto.KeyPair)}
}

// CreateKey generates a fresh key pair, stores it in memory, and persists
// the updated keystore to disk.
func (k *Keystore) CreateKey() (*cpccrypto.KeyPair, error) {
	kp, err := cpccrypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	address := cpccrypto.Address(kp.Public)

	k.mu.Lock()
	k.keys[address] = kp
	k.mu.Unlock()

	if err := k.Save(); err != nil {
		return nil, err
	}
	return kp, nil
}

// Import adds an externally-held private key (hex of its 32-byte scalar)
// to the keystore and persists it.
func (k *Keystore) Import(privateKeyHex string) (*cpccrypto.KeyPair, error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("cpcwallet: decode private key: %w", err)
	}
	priv, pub := btcec.PrivKeyFromBytes(raw)
	kp := &cpccrypto.KeyPair{Private: priv, Public: pub}
	address := cpccrypto.Address(pub)

	k.mu.Lock()
	k.keys[address] = kp
	k.mu.Unlock()

	if err := k.Save(); err != nil {
		return nil, err
	}
	return kp, nil
}

// ExportPrivateKey returns the hex-encoded private scalar for address.
func (k *Keystore) ExportPrivateKey(address string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	kp, ok := k.keys[address]
	if !ok {
		return "", fmt.Errorf("cpcwallet: no key for address %s", address)
	}
	return hex.EncodeToString(kp.Private.Serialize()), nil
}

// Get returns the key pair for address, if held.
func (k *Keystore) Get(address string) (*cpccrypto.KeyPair, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	kp, ok := k.keys[address]
	return kp, ok
}

// Addresses lists every address this keystore holds a private key for.
func (k *Keystore) Addresses() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.keys))
	for addr := range k.keys {
		out = append(out, addr)
	}
	return out
}

// Save encrypts and writes the current key set to disk.
func (k *Keystore) Save() error {
	k.mu.RLock()
	records := make([]keyRecord, 0, len(k.keys))
	for addr, kp := range k.keys {
		records = append(records, keyRecord{Address: addr, PrivateHex: hex.EncodeToString(kp.Private.Serialize())})
	}
	k.mu.RUnlock()

	plaintext, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("cpcwallet: marshal keys: %w", err)
	}
	ciphertext, err := k.encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("cpcwallet: encrypt keystore: %w", err)
	}
	return os.WriteFile(k.path, ciphertext, 0600)
}

// Load decrypts and reads the key set from disk, replacing the in-memory
// set. A missing file is not an error: it means no keys exist yet.
func (k *Keystore) Load() error {
	data, err := os.ReadFile(k.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cpcwallet: read keystore: %w", err)
	}
	plaintext, err := k.decrypt(data)
	if err != nil {
		return fmt.Errorf("cpcwallet: decrypt keystore: %w", err)
	}
	var records []keyRecord
	if err := json.Unmarshal(plaintext, &records); err != nil {
		return fmt.Errorf("cpcwallet: unmarshal keys: %w", err)
	}

	keys := make(map[string]*cpccrypto.KeyPair, len(records))
	for _, rec := range records {
		raw, err := hex.DecodeString(rec.PrivateHex)
		if err != nil {
			return fmt.Errorf("cpcwallet: decode key for %s: %w", rec.Address, err)
		}
		priv, pub := btcec.PrivKeyFromBytes(raw)
		keys[rec.Address] = &cpccrypto.KeyPair{Private: priv, Public: pub}
	}

	k.mu.Lock()
	k.keys = keys
	k.mu.Unlock()
	return nil
}

func (k *Keystore) encrypt(data []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := deriveKey(k.passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, data, nil)
	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

func (k *Keystore) decrypt(data []byte) ([]byte, error) {
	if len(data) < saltSize+12 {
		return nil, fmt.Errorf("ciphertext too short")
	}
	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+12]
	ciphertext := data[saltSize+12:]

	key := deriveKey(k.passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// deriveKey strengthens a passphrase with repeated HMAC-SHA256, in place
// of a dedicated PBKDF2 library.
func deriveKey(passphrase string, salt []byte) []byte {
	passphraseBytes := []byte(passphrase)
	sum := sha256.Sum256(append(append([]byte{}, passphraseBytes...), salt...))
	derived := sum[:]
	for i := 0; i < kdfIterations; i++ {
		h := hmac.New(sha256.New, derived)
		h.Write(passphraseBytes)
		h.Write(salt)
		h.Write([]byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)})
		derived = h.Sum(nil)
	}
	return derived
}
