package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling stored maps whose
// authors wrote numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// isBlank reports whether stored JSON text means "no value" (SQL NULL, empty, or JSON null).
func isBlank(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || trimmed == "null"
}

// DecodeStringMap decodes a JSON object into a string-to-string map.
// Blank input yields an empty, non-nil map. Scalar values are stringified with
// FlexibleStringValue; nested objects and arrays are rejected.
func DecodeStringMap(text string) (map[string]string, error) {
	result := make(map[string]string)
	if isBlank(text) {
		return result, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	for key, value := range raw {
		if err := rejectComposite(value); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		result[key] = FlexibleStringValue(value)
	}
	return result, nil
}

// DecodeStringList decodes a JSON array into a string slice, preserving order.
// Blank input yields an empty, non-nil slice.
func DecodeStringList(text string) ([]string, error) {
	result := make([]string, 0)
	if isBlank(text) {
		return result, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	for i, value := range raw {
		if err := rejectComposite(value); err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		result = append(result, FlexibleStringValue(value))
	}
	return result, nil
}

func rejectComposite(value json.RawMessage) error {
	trimmed := strings.TrimSpace(string(value))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return fmt.Errorf("expected scalar value, got %s", trimmed)
	}
	return nil
}
