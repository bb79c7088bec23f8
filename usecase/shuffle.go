package usecase

import (
	"math"
	"time"
)

const hourMillis = 3_600_000

// HourSeed is the shuffle seed for t; it changes once per hour.
func HourSeed(t time.Time) int64 {
	return t.UnixMilli() / hourMillis
}

// pseudoRandom maps x to [0,1) as the fractional part of sin(x)*10000.
func pseudoRandom(x float64) float64 {
	v := math.Sin(x) * 10000
	return v - math.Floor(v)
}

// ShuffleDeterministic returns a permutation of items that depends only on
// items and seed. items is not modified.
func ShuffleDeterministic[T any](items []T, seed int64) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := int(math.Floor(pseudoRandom(float64(seed+int64(i))) * float64(i+1)))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
