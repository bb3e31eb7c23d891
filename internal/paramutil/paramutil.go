// Package paramutil provides typed accessors for processor parameter maps.
// YAML decoding produces map[string]interface{} values; these helpers convert
// them with consistent ValidationError reporting so every processor module
// validates its params the same way.
package paramutil

import (
	"fmt"

	// Import the public weft error types
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
)

// GetRequiredString retrieves a required string parameter from the params map.
// It returns the string value and a nil error if the key exists and the value
// is a string. Otherwise, it returns an empty string and a ValidationError.
func GetRequiredString(params map[string]interface{}, key string) (string, error) {
	value, exists := params[key]
	if !exists {
		return "", werrors.NewValidationError(fmt.Sprintf("missing required parameter '%s'", key), nil)
	}

	strValue, ok := value.(string)
	if !ok {
		return "", werrors.NewValidationError(fmt.Sprintf("parameter '%s' must be a string, got %T", key, value), nil)
	}

	return strValue, nil
}

// GetOptionalString retrieves an optional string parameter from the params map.
// Returns the value and true if found and correct type, empty string and false
// if not found, or an error if the key exists but has the wrong type.
func GetOptionalString(params map[string]interface{}, key string) (string, bool, error) {
	value, exists := params[key]
	if !exists {
		return "", false, nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", false, werrors.NewValidationError(fmt.Sprintf("parameter '%s' must be a string, got %T", key, value), nil)
	}

	return strValue, true, nil
}

// GetOptionalBool retrieves an optional boolean parameter from the params map.
// Returns the value and true if found and correct type, false and false if not
// found, or an error if the key exists but has the wrong type.
func GetOptionalBool(params map[string]interface{}, key string) (bool, bool, error) {
	value, exists := params[key]
	if !exists {
		return false, false, nil
	}

	boolValue, ok := value.(bool)
	if !ok {
		return false, false, werrors.NewValidationError(fmt.Sprintf("parameter '%s' must be a boolean, got %T", key, value), nil)
	}

	return boolValue, true, nil
}

// GetOptionalInt retrieves an optional integer parameter from the params map.
// YAML decoding may produce int or int64 for integral values; both are
// accepted. Returns an error if the key exists but has another type.
func GetOptionalInt(params map[string]interface{}, key string) (int, bool, error) {
	value, exists := params[key]
	if !exists {
		return 0, false, nil
	}

	switch v := value.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	default:
		return 0, false, werrors.NewValidationError(fmt.Sprintf("parameter '%s' must be an integer, got %T", key, value), nil)
	}
}

// GetOptionalStringMap retrieves an optional map parameter whose values must
// all be strings. The YAML decoder unmarshals mappings into
// map[string]interface{}, so each value is checked individually.
func GetOptionalStringMap(params map[string]interface{}, key string) (map[string]string, bool, error) {
	value, exists := params[key]
	if !exists {
		return nil, false, nil
	}

	rawMap, ok := value.(map[string]interface{})
	if !ok {
		return nil, false, werrors.NewValidationError(fmt.Sprintf("parameter '%s' must be a map, got %T", key, value), nil)
	}

	result := make(map[string]string, len(rawMap))
	for k, v := range rawMap {
		strValue, ok := v.(string)
		if !ok {
			return nil, false, werrors.NewValidationError(fmt.Sprintf("parameter '%s' key '%s' must be a string value, got %T", key, k, v), nil)
		}
		result[k] = strValue
	}
	return result, true, nil
}
