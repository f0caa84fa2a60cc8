package timing

import (
	"time"

	"golang.org/x/exp/rand"
)

// A Sampler draws a delay given the mean of its distribution.
type Sampler interface {
	Sample(mean float64) time.Duration
}

// Exponential draws delays from an exponential distribution with rate 1/mean.
// The mean is expressed in multiples of the unit. An Exponential owns its
// random source and must not be shared between goroutines.
type Exponential struct {
	rng  *rand.Rand
	unit time.Duration
}

// NewExponential creates an Exponential sampler on top of rng.
func NewExponential(rng *rand.Rand, unit time.Duration) *Exponential {
	if unit <= 0 {
		panic("delay unit must be positive")
	}

	return &Exponential{
		rng:  rng,
		unit: unit,
	}
}

// Sample returns one delay, truncated to whole milliseconds. A non-positive
// mean always yields zero.
func (e *Exponential) Sample(mean float64) time.Duration {
	if mean <= 0 {
		return 0
	}

	units := e.rng.ExpFloat64() * mean
	d := time.Duration(units * float64(e.unit))

	return d.Truncate(time.Millisecond)
}
