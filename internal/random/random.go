// Package random provides the seedable uniform source and the normal sampler used by the
// season simulator.
package random

import (
	"math"
	"math/rand/v2"
)

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic PCG-backed source. Distinct streams with the same seed
// produce independent sequences.
func NewSource(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// NewRandomSource returns a source seeded from the runtime's random state.
func NewRandomSource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// open draws from (0, 1), rejecting exact zero so log(u) stays finite.
func open(src Source) float64 {
	for {
		if u := src.Float64(); u != 0 {
			return u
		}
	}
}

// Normal draws one sample from N(mean, stdDev) with the Box-Muller transform.
// The result is not clamped. A zero stdDev returns mean exactly.
func Normal(src Source, mean, stdDev float64) float64 {
	u := open(src)
	v := open(src)
	if stdDev == 0 {
		return mean
	}
	z := math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
	return mean + stdDev*z
}

// Uniform draws from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}
