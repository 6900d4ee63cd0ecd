// Package codec centralizes the encoding of dictionary source records.
//
// Sources that read serialized rows (blob files, queue payloads) decode each
// record through a Codec so the JSON implementation can be swapped without
// touching the source.
package codec

import (
	"encoding/json"
	"fmt"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// RawMessage is an undecoded JSON value. Both built-in codecs honor it.
type RawMessage = json.RawMessage

// IsNull reports whether raw is missing or the JSON literal null.
func IsNull(raw RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// ByName returns a built-in codec by its stable name.
//
// Source configuration refers to codecs by name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json", "":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests and fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
