package cpclog

import "testing"

func TestNewWithDefaultConfig(t *testing.T) {
	log, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Infow("hello", "key", "value")
}

func TestOrDiscardHandlesNil(t *testing.T) {
	log := OrDiscard(nil)
	if log == nil {
		t.Fatal("expected OrDiscard(nil) to return a non-nil logger")
	}
	log.Infow("should not panic")
}
