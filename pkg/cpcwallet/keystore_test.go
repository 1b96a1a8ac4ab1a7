package cpcwallet

import (
	"path/filepath"
	"testing"

	"github.com/cpc-chain/cpcd/pkg/cpccrypto"
)

func TestCreateKeyPersistsAcrossLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.dat")

	ks := New(path, "correct horse battery staple")
	kp, err := ks.CreateKey()
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	reopened := New(path, "correct horse battery staple")
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := reopened.Get(cpccrypto.Address(kp.Public))
	if !ok {
		t.Fatalf("expected key to survive reload")
	}
	if string(got.Private.Serialize()) != string(kp.Private.Serialize()) {
		t.Fatalf("reloaded private key does not match original")
	}
}

func TestLoadWithWrongPassphraseFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.dat")

	ks := New(path, "correct passphrase")
	if _, err := ks.CreateKey(); err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	wrong := New(path, "wrong passphrase")
	if err := wrong.Load(); err == nil {
		t.Fatalf("expected decrypt failure with wrong passphrase")
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ks := New(filepath.Join(dir, "wallet.dat"), "pw")

	kp, err := ks.CreateKey()
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}
	address := cpccrypto.Address(kp.Public)

	hexKey, err := ks.ExportPrivateKey(address)
	if err != nil {
		t.Fatalf("ExportPrivateKey: %v", err)
	}

	other := New(filepath.Join(dir, "other.dat"), "pw2")
	imported, err := other.Import(hexKey)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if cpccrypto.Address(imported.Public) != address {
		t.Fatalf("imported key address mismatch: got %s want %s", cpccrypto.Address(imported.Public), address)
	}
}
