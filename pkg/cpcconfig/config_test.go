package cpcconfig

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Mining.Difficulty != 4 {
		t.Fatalf("expected default difficulty 4, got %d", cfg.Mining.Difficulty)
	}
	if cfg.API.FaucetAmount != 5 {
		t.Fatalf("expected default faucet amount 5, got %v", cfg.API.FaucetAmount)
	}
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("expected default storage backend memory, got %s", cfg.Storage.Backend)
	}
}
