package auth

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ExtractStrings reads a list-of-strings claim from a claims map.
// Supports:
//   - Flat arrays: ["admin", "moderator"]
//   - Nested objects: [{"name": "admin"}] decoded via mapstructure
//   - A single string, treated as a one-element list
//
// Missing claims yield an empty list, not an error: a user may genuinely
// hold no roles or permissions.
func ExtractStrings(claims map[string]any, claimField string) ([]string, error) {
	rawValue, ok := claims[claimField]
	if !ok || rawValue == nil {
		return []string{}, nil
	}

	switch v := rawValue.(type) {
	case string:
		if v == "" {
			return []string{}, nil
		}
		return []string{v}, nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		result := make([]string, 0, len(v))
		allStrings := true
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				allStrings = false
				break
			}
			result = append(result, str)
		}
		if allStrings {
			return result, nil
		}
		// Fall through to nested object decoding: [{"name": "admin"}]
		var objects []map[string]any
		if err := mapstructure.Decode(rawValue, &objects); err != nil {
			return nil, fmt.Errorf("decode nested claim %s: %w", claimField, err)
		}
		result = result[:0]
		for _, obj := range objects {
			if name, ok := obj["name"].(string); ok {
				result = append(result, name)
			}
		}
		return result, nil
	default:
		return nil, fmt.Errorf("claim %s has unsupported shape %T", claimField, rawValue)
	}
}

// ExtractString reads a single string claim, returning "" when absent.
func ExtractString(claims map[string]any, claimField string) string {
	value, _ := claims[claimField].(string)
	return value
}
