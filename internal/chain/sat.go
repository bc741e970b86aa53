package chain

import "math"

// Counts are non-negative, so the helpers below only saturate upward.

// MulSat returns a*b, or math.MaxInt64 when the product would overflow.
func MulSat(a, b int64) int64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}

// AddSat returns a+b, or math.MaxInt64 when the sum would overflow.
func AddSat(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// FloorSat floors f into an int64, clamping to [0, math.MaxInt64].
func FloorSat(f float64) int64 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= 0x1p63:
		return math.MaxInt64
	}
	return int64(math.Floor(f))
}
