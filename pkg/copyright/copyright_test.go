package copyright

import (
	"testing"
	"time"
)

func TestExpiryIsNinetyDays(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Payload{CreatedAt: created}
	want := created.Add(90 * 24 * time.Hour)
	if !p.Expiry().Equal(want) {
		t.Fatalf("expiry mismatch: got %v want %v", p.Expiry(), want)
	}
}

func TestIsExpired(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Payload{CreatedAt: created}
	beforeExpiry := p.Expiry().Add(-time.Second)
	atExpiry := p.Expiry()
	if p.IsExpired(beforeExpiry) {
		t.Fatal("expected not expired just before expiry")
	}
	if !p.IsExpired(atExpiry) {
		t.Fatal("expected expired exactly at expiry (>=)")
	}
}

func TestIsSubsetOf(t *testing.T) {
	parent := []string{"print", "distribute"}
	if !IsSubsetOf([]string{"print"}, parent) {
		t.Fatal("expected {print} to be a subset of {print, distribute}")
	}
	if IsSubsetOf([]string{"adapt"}, parent) {
		t.Fatal("expected {adapt} to not be a subset of {print, distribute}")
	}
	if !IsSubsetOf(nil, parent) {
		t.Fatal("expected empty scope to be a subset of anything")
	}
}
