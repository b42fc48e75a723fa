package store

import (
	"hash/maphash"

	"github.com/benbjohnson/immutable"
	"github.com/zeebo/xxh3"
)

// Hasher hashes any comparable key for the persistent map.
//
// String keys (the common case: file paths, KV keys) use xxh3; every other
// comparable type goes through maphash.Comparable with a per-hasher seed.
type Hasher[K comparable] struct {
	seed maphash.Seed
}

var _ immutable.Hasher[string] = (*Hasher[string])(nil)

// NewHasher creates a hasher with a random seed.
func NewHasher[K comparable]() *Hasher[K] {
	return &Hasher[K]{seed: maphash.MakeSeed()}
}

// Hash returns a 32-bit hash of key.
func (h *Hasher[K]) Hash(key K) uint32 {
	var sum uint64
	if s, ok := any(key).(string); ok {
		sum = xxh3.HashString(s)
	} else {
		sum = maphash.Comparable(h.seed, key)
	}

	return uint32(sum ^ (sum >> 32)) //nolint:gosec // G115: folding 64 bits into 32 is intended
}

// Equal reports whether a and b are the same key.
func (h *Hasher[K]) Equal(a, b K) bool {
	return a == b
}
