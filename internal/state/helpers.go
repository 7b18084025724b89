package state

// Typed accessors for mapping values. JSON decoding turns numbers into
// float64 and arrays into []any, so callers go through these instead of
// type-asserting raw values.

// Int reads an integer-valued key; 0 when missing or not a number.
func Int(m Mapping, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float reads a float-valued key; 0 when missing or not a number.
func Float(m Mapping, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Bool reads a boolean key; false when missing or not a bool.
func Bool(m Mapping, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// String reads a string key; "" when missing or not a string.
func String(m Mapping, key string) string {
	v, _ := m[key].(string)
	return v
}

// StringSlice reads a string-array key, accepting both []string (freshly
// built mappings) and []any (decoded JSON).
func StringSlice(m Mapping, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
