//go:build !p2p
// +build !p2p

package cpcnet

import "testing"

func TestNewWithoutP2PTagFailsClearly(t *testing.T) {
	_, err := New(&Config{})
	if err == nil {
		t.Fatalf("expected an error directing the caller to build with -tags p2p")
	}
}
