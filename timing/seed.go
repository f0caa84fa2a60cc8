package timing

import (
	"time"

	"golang.org/x/exp/rand"
)

// NewRand creates a random generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// BaseSeed returns seed, or a time-derived seed if seed is zero.
func BaseSeed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}

	return uint64(time.Now().UnixNano())
}

// SeedFor derives an independent seed for stream number stream out of base,
// so that every agent gets its own generator even when they share a base.
func SeedFor(base, stream uint64) uint64 {
	z := base + (stream+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return z ^ (z >> 31)
}
