package cpctx

import (
	"bytes"
	"encoding/json"
)

// CanonicalJSON encodes v as JSON with object keys in sorted order at every
// nesting level, the deterministic wire form txid and block-hash fingerprints
// are computed over. encoding/json already sorts map[string]any keys when
// marshaling a map, so round-tripping a value through map[string]any before
// the final marshal gets sorted keys "for free" at every depth without a
// hand-rolled canonicalizer.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
