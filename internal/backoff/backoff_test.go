package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJitter_BoundsAndCap(t *testing.T) {
	base := 200 * time.Millisecond
	capDur := 500 * time.Millisecond
	rng := NewRNG(42)

	prev := time.Duration(0)
	for range 10 {
		next := Jitter(prev, base, 1.6, capDur, rng)
		require.GreaterOrEqual(t, next, base)
		require.LessOrEqual(t, next, capDur)
		prev = next
	}
}

func TestJitter_FirstAttemptIsBase(t *testing.T) {
	require.Equal(t, 100*time.Millisecond, Jitter(0, 100*time.Millisecond, 2, time.Second, nil))
	require.Equal(t, defaultBase, Jitter(0, 0, 2, 0, nil))
}

func TestJitter_CapBelowBase(t *testing.T) {
	base := 200 * time.Millisecond
	capDur := 100 * time.Millisecond
	rng := NewRNG(1)

	require.Equal(t, capDur, Jitter(0, base, 1.6, capDur, rng))
	require.Equal(t, capDur, Jitter(base, base, 1.6, capDur, rng))
}

func TestJitter_NoCap(t *testing.T) {
	base := 10 * time.Millisecond
	next := Jitter(time.Second, base, 2, 0, NewRNG(7))
	require.GreaterOrEqual(t, next, base)
	require.Less(t, next, 2*time.Second)
}

func TestPolicy_Deterministic(t *testing.T) {
	a := New(50*time.Millisecond, 2, time.Second, 9)
	b := New(50*time.Millisecond, 2, time.Second, 9)

	var pa, pb time.Duration
	for range 8 {
		pa = a.Next(pa)
		pb = b.Next(pb)
		require.Equal(t, pa, pb)
	}
}

func TestPolicy_SeedsDiverge(t *testing.T) {
	seen := make(map[time.Duration]struct{})
	for seed := int64(1); seed <= 5; seed++ {
		p := New(200*time.Millisecond, 1.6, 2*time.Second, seed)
		var prev time.Duration
		for range 12 {
			prev = p.Next(prev)
		}
		seen[prev] = struct{}{}
	}
	require.Greater(t, len(seen), 1)
}

func TestNewRNG_ZeroSeed(t *testing.T) {
	require.Nil(t, NewRNG(0))
	require.NotNil(t, NewRNG(3))
}
