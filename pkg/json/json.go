// Package json is the JSON codec shared by the engine, the transport and the
// tools. It is backed by sonic in encoding/json compatible mode, with HTML
// escaping disabled so fetched markup travels through tool results untouched.
package json

import (
	stdjson "encoding/json"

	"github.com/bytedance/sonic"
)

// RawMessage is re-exported so callers need a single import.
type RawMessage = stdjson.RawMessage

var api = sonic.Config{
	SortMapKeys:      true,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid reports whether data is a well-formed JSON document.
func Valid(data []byte) bool {
	return api.Valid(data)
}

// MarshalString is Marshal for callers that want text.
func MarshalString(v any) (string, error) {
	data, err := api.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
