package translator

import "math"

// Integer arithmetic saturates at the int64 bounds instead of wrapping.
// Division and modulo by zero are reported by the caller.

func addInt(a, b int64) int64 {
	c := a + b
	if (c > a) == (b > 0) {
		return c
	}
	if b > 0 {
		return math.MaxInt64
	}
	return math.MinInt64
}

func subInt(a, b int64) int64 {
	c := a - b
	if (c < a) == (b > 0) {
		return c
	}
	if b > 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}

func mulInt(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	c := a * b
	overflow := (a == -1 && b == math.MinInt64) ||
		(b == -1 && a == math.MinInt64) ||
		c/b != a
	if !overflow {
		return c
	}
	if (a < 0) != (b < 0) {
		return math.MinInt64
	}
	return math.MaxInt64
}

// divInt truncates toward zero. b must not be zero.
func divInt(a, b int64) int64 {
	if a == math.MinInt64 && b == -1 {
		return math.MaxInt64
	}
	return a / b
}

// modInt has the sign of a. b must not be zero.
func modInt(a, b int64) int64 {
	if b == -1 {
		return 0
	}
	return a % b
}

func negInt(a int64) int64 {
	if a == math.MinInt64 {
		return math.MaxInt64
	}
	return -a
}

func absInt(a int64) int64 {
	if a < 0 {
		return negInt(a)
	}
	return a
}

// FloatToInt truncates f toward zero, saturating at the int64 bounds.
// NaN converts to zero.
func FloatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
