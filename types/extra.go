package types

import (
	"encoding/json"
)

// Extra holds top-level JSON keys that a model struct does not declare.
// Notion adds fields to existing objects without versioning the schema, so
// every object model keeps the keys it does not recognize and writes them
// back out on marshal.
type Extra map[string]json.RawMessage

// splitExtra decodes data into a raw key map and removes the known keys,
// leaving only the passthrough remainder. Returns nil when nothing is left.
func splitExtra(data []byte, known map[string]struct{}) (Extra, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return Extra(all), nil
}

// mergeExtra re-encodes the struct-marshaled JSON with the passthrough keys
// folded back in. Declared fields win on key collision.
func mergeExtra(data []byte, extra Extra) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

func knownKeys(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}
