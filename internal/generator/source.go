package generator

import (
	"math/rand"
	"time"
)

// Source returns uniformly distributed values in [0, 1).
type Source func() float64

// NewSource returns a non-deterministic Source seeded with the current time.
func NewSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano())).Float64
}

// Mulberry32 returns a deterministic Source. The same seed always yields the
// same stream of values.
func Mulberry32(seed uint32) Source {
	state := seed
	return func() float64 {
		state += 0x6D2B79F5
		t := state
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296.0
	}
}

func intn(src Source, n int) int {
	i := int(src() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
