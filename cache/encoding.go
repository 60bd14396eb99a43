package cache

import (
	"encoding/json"
	"fmt"
)

// marshalValue serializes a cache value to bytes for a byte-addressable
// backend (the remote adapter). JSON is used throughout this module for the
// same reasons the reference cache's encoding helpers give: portability and
// debuggability over raw throughput.
func marshalValue[V any](v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("includekit/cache: marshaling value: %w", err)
	}
	return data, nil
}

// unmarshalValue deserializes bytes produced by marshalValue back into V.
func unmarshalValue[V any](data []byte) (V, error) {
	var v V
	if len(data) == 0 {
		return v, fmt.Errorf("includekit/cache: cannot unmarshal empty data")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("includekit/cache: unmarshaling value: %w", err)
	}
	return v, nil
}
