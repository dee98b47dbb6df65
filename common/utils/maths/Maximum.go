package maths

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ClampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// CeilInt rounds up and converts; v must be finite.
func CeilInt(v float64) int {
	return int(math.Ceil(v))
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
