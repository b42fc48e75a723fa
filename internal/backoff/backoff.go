// Package backoff computes retry delays with decorrelated jitter.
package backoff

import (
	rand "math/rand/v2"
	"time"
)

const defaultBase = 50 * time.Millisecond

// Policy describes a capped, jittered exponential backoff.
//
// The zero value is usable: it starts at 50ms, never grows, and has no cap.
type Policy struct {
	Base       time.Duration
	Multiplier float64
	Cap        time.Duration

	rng *rand.Rand
}

// New returns a Policy. A non-zero seed makes the jitter sequence deterministic.
func New(base time.Duration, mult float64, capDur time.Duration, seed int64) *Policy {
	return &Policy{Base: base, Multiplier: mult, Cap: capDur, rng: NewRNG(seed)}
}

// Next returns the delay that follows prev. Pass 0 for the first attempt.
func (p *Policy) Next(prev time.Duration) time.Duration {
	return Jitter(prev, p.Base, p.Multiplier, p.Cap, p.rng)
}

// Jitter computes the next delay from the previous one:
//
//	next = min(cap, base + rand[0, prev*mult - base))
//
// A non-positive prev starts from base. A multiplier below 1 is treated as 1.
// A cap below base always yields the cap. A nil rng uses the package-level source.
func Jitter(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = defaultBase
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}
	if prev <= 0 {
		return base
	}

	spread := time.Duration(float64(prev)*mult) - base
	if spread <= 0 {
		spread = base
	}

	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(spread))
	} else {
		jitter = rand.Int64N(int64(spread)) //nolint:gosec // non-crypto jitter
	}

	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// NewRNG returns a deterministic generator for a non-zero seed, or nil for seed 0.
//
//nolint:gosec
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}
