// Package script implements the predicate script: the fixed
// three-opcode lock script (P2PKH, MULTISIG, TIMELOCK) that decides whether a
// UTXO is spendable given a time, a set of presented signers, and an
// optional payload-derived expiry.
package script

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type enumerates the supported predicate script kinds.
type Type string

const (
	P2PKH     Type = "P2PKH"
	MULTISIG  Type = "MULTISIG"
	TIMELOCK  Type = "TIMELOCK"
)

// Script is the decoded predicate: who can spend, how many of them must
// sign, and from when.
type Script struct {
	Type         Type
	Addresses    []string
	RequiredSigs int
	TimeLock     *time.Time
}

// NewP2PKH builds a single-signer pay-to-address script.
func NewP2PKH(address string) *Script {
	return &Script{Type: P2PKH, Addresses: []string{address}, RequiredSigs: 1}
}

// NewMultisig builds an r-of-n multisig script.
func NewMultisig(addresses []string, requiredSigs int) *Script {
	return &Script{Type: MULTISIG, Addresses: addresses, RequiredSigs: requiredSigs}
}

// NewTimelock builds a script that is not spendable before lockTime, on top
// of a normal signer set.
func NewTimelock(addresses []string, requiredSigs int, lockTime time.Time) *Script {
	return &Script{Type: TIMELOCK, Addresses: addresses, RequiredSigs: requiredSigs, TimeLock: &lockTime}
}

// CanSpend implements the spend gauntlet:
//  1. reject if endTime is set and now has reached it (payload-derived expiry)
//  2. reject if a time-lock is set and hasn't matured yet
//  3. accept iff enough of the presented signers are among the script's addresses
func (s *Script) CanSpend(now time.Time, presentedSigners []string, endTime *time.Time) bool {
	if endTime != nil && !now.Before(*endTime) {
		return false
	}
	if s.TimeLock != nil && now.Before(*s.TimeLock) {
		return false
	}
	allowed := make(map[string]struct{}, len(s.Addresses))
	for _, a := range s.Addresses {
		allowed[a] = struct{}{}
	}
	valid := 0
	seen := make(map[string]struct{}, len(presentedSigners))
	for _, signer := range presentedSigners {
		if _, dup := seen[signer]; dup {
			continue
		}
		seen[signer] = struct{}{}
		if _, ok := allowed[signer]; ok {
			valid++
		}
	}
	return valid >= s.RequiredSigs
}

// Encode serializes the script to the canonical pipe-delimited form:
// script_type, then optional CHECKLOCKTIMEVERIFY:<unix-ts>, then optional
// MULTISIG:<r>:<n> (always for MULTISIG, and for any other type whose
// required count is not 1), then addresses, all joined by "|". Addresses are
// expected to be base64 public-key strings, which never contain "|", so the
// delimiter is unambiguous.
func (s *Script) Encode() string {
	parts := []string{string(s.Type)}
	if s.TimeLock != nil {
		parts = append(parts, fmt.Sprintf("CHECKLOCKTIMEVERIFY:%d", s.TimeLock.Unix()))
	}
	if s.Type == MULTISIG || s.RequiredSigs != 1 {
		parts = append(parts, fmt.Sprintf("MULTISIG:%d:%d", s.RequiredSigs, len(s.Addresses)))
	}
	parts = append(parts, s.Addresses...)
	return strings.Join(parts, "|")
}

// Decode parses the canonical pipe-delimited form back into a Script. It is
// the exact inverse of Encode.
func Decode(encoded string) (*Script, error) {
	if encoded == "" {
		return nil, fmt.Errorf("script: empty encoding")
	}
	parts := strings.Split(encoded, "|")
	if len(parts) == 0 {
		return nil, fmt.Errorf("script: malformed encoding %q", encoded)
	}

	s := &Script{Type: Type(parts[0]), RequiredSigs: 1}
	rest := parts[1:]

	if len(rest) > 0 && strings.HasPrefix(rest[0], "CHECKLOCKTIMEVERIFY:") {
		tsStr := strings.TrimPrefix(rest[0], "CHECKLOCKTIMEVERIFY:")
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("script: bad time-lock timestamp %q: %w", tsStr, err)
		}
		t := time.Unix(ts, 0).UTC()
		s.TimeLock = &t
		rest = rest[1:]
	}

	if len(rest) > 0 && strings.HasPrefix(rest[0], "MULTISIG:") {
		fields := strings.Split(strings.TrimPrefix(rest[0], "MULTISIG:"), ":")
		if len(fields) != 2 {
			return nil, fmt.Errorf("script: bad multisig field %q", rest[0])
		}
		r, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("script: bad multisig required count %q: %w", fields[0], err)
		}
		s.RequiredSigs = r
		rest = rest[1:]
	}

	s.Addresses = rest
	return s, nil
}

func (s *Script) String() string {
	return s.Encode()
}
