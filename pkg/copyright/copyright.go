// Package copyright implements the copyright payload: the
// typed annotation carried by copyright-kind UTXOs, and the fixed 90-day
// expiry rule derived from it.
package copyright

import "time"

// ExpiryDuration is the fixed 90-day (7,776,000 second) lifetime of every
// copyright payload.
const ExpiryDuration = 90 * 24 * time.Hour

// Type enumerates the copyright lifecycle states a UTXO can carry.
type Type string

const (
	Sovereignty Type = "sovereignty"
	Instruction Type = "instruction"
	Proof       Type = "proof"
	Secondary   Type = "secondary"
)

// RightsVocabulary is the fixed set of named rights the original source
// enumerates. The subset check (I6) is vocabulary-agnostic — any string
// works as a right — and neither the validator nor the API references this
// list.
var RightsVocabulary = []string{"print", "distribute", "adapt", "perform", "broadcast", "translate"}

// Payload is the typed annotation carried by a copyright UTXO.
type Payload struct {
	WorkHash       string    `json:"work_hash"`
	WorkTitle      string    `json:"work_title"`
	AuthorAddress  string    `json:"author_address"`
	CopyrightType  Type      `json:"copyright_type"`
	RightsScope    []string  `json:"rights_scope"`
	ParentOutpoint *string   `json:"parent_outpoint,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expiry returns the time at which this payload's UTXO becomes unspendable.
func (p *Payload) Expiry() time.Time {
	return p.CreatedAt.Add(ExpiryDuration)
}

// IsExpired reports whether now has reached or passed the payload's expiry,
// per I5: unspendable once now >= created_at + 90 days.
func (p *Payload) IsExpired(now time.Time) bool {
	return !now.Before(p.Expiry())
}

// RightsSet converts a rights scope slice into a membership set, used for
// subset comparisons (I6 / P7).
func RightsSet(scope []string) map[string]struct{} {
	set := make(map[string]struct{}, len(scope))
	for _, r := range scope {
		set[r] = struct{}{}
	}
	return set
}

// IsSubsetOf reports whether every right in scope is also present in parent.
func IsSubsetOf(scope, parent []string) bool {
	parentSet := RightsSet(parent)
	for _, r := range scope {
		if _, ok := parentSet[r]; !ok {
			return false
		}
	}
	return true
}
