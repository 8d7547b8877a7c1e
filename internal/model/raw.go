package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawRecord is one untrusted record as delivered by the remote API. Values
// keep their decoded JSON types: string, json.Number, bool, nil, or nested
// maps and slices.
type RawRecord map[string]any

// ParseRawRecord decodes a single array element. Anything that is not a JSON
// object yields an empty record so that normalization falls back to defaults.
func ParseRawRecord(data []byte) RawRecord {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw RawRecord
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return RawRecord{}
	}
	return raw
}

// Lookup returns the value stored under key and whether it is present and
// non-empty. Nil and "" count as absent.
func (r RawRecord) Lookup(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return nil, false
	}
	return v, true
}

// LookupFold is Lookup with case-insensitive key matching. When several keys
// fold to the same name, the lexically smallest key wins so the result does
// not depend on map iteration order.
func (r RawRecord) LookupFold(key string) (any, bool) {
	var (
		best  string
		found bool
	)
	for k := range r {
		if !strings.EqualFold(k, key) {
			continue
		}
		if _, ok := r.Lookup(k); !ok {
			continue
		}
		if !found || k < best {
			best, found = k, true
		}
	}
	if !found {
		return nil, false
	}
	return r[best], true
}
