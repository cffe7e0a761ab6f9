package tools

import (
	"fmt"

	"github.com/voocel/toolbridge/pkg/json"
	"github.com/voocel/toolbridge/schema"
)

// DecodeArgs converts an argument mapping into a typed struct.
func DecodeArgs(args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: encode arguments: %v", schema.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", schema.ErrInvalidInput, err)
	}
	return nil
}

// StringArg returns args[key] when it is a string.
func StringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringMapArg returns args[key] as a string map. A missing or null value is
// an empty map; any non-string value is an error.
func StringMapArg(args map[string]any, key string) (map[string]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return map[string]string{}, nil
	}
	switch m := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, raw := range m {
			s, ok := raw.(string)
			if !ok {
				return nil, schema.NewValidationError(key+"."+k, raw, "must be a string")
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, schema.NewValidationError(key, v, "must be an object of strings")
	}
}
