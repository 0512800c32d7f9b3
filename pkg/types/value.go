package types

import "math"

// Normalize converts a host value to the canonical representation of t:
// int64 for int, float64 for float, bool and string as is. Object values are
// returned unchanged. The second result is false when v does not fit t.
func Normalize(t *Type, v any) (any, bool) {
	switch t.kind {
	case KindBool:
		b, ok := v.(bool)
		return b, ok
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindInt:
		return normalizeInt(v)
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		}
		if i, ok := normalizeInt(v); ok {
			return float64(i.(int64)), true
		}
		return nil, false
	case KindObject:
		if v == nil {
			return nil, true
		}
		return v, t.accepts != nil && t.accepts(v)
	default:
		return nil, false
	}
}

func normalizeInt(v any) (any, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return int64(math.MaxInt64), true
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return int64(math.MaxInt64), true
		}
		return int64(n), true
	default:
		return nil, false
	}
}
