package capability

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// validateArgs covers required fields and primitive type checks. Unknown
// arguments are ignored; models routinely send extras.
func validateArgs(params []schema.Param, args map[string]any) error {
	for _, p := range params {
		value, exists := args[p.Name]
		if !exists || value == nil {
			if !p.Optional {
				return fmt.Errorf("missing required field: %s", p.Name)
			}
			continue
		}
		if err := validateType(value, p.Type); err != nil {
			return fmt.Errorf("field %s: %w", p.Name, err)
		}
	}
	return nil
}

func validateType(value any, expected schema.ParamType) error {
	switch expected {
	case schema.TypeString:
		if _, ok := value.(string); ok {
			return nil
		}
	case schema.TypeNumber:
		if isNumber(value) {
			return nil
		}
	case schema.TypeInteger:
		if isInteger(value) {
			return nil
		}
	case schema.TypeBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case schema.TypeObject:
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case schema.TypeArray:
		switch value.(type) {
		case []any, []string:
			return nil
		}
	default:
		return fmt.Errorf("unsupported parameter type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
