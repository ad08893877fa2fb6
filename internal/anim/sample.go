package anim

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a seeded generator. A zero seed picks one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample returns a uniformly shuffled subset of min(k, len(items)) elements.
// The whole set is permuted and then truncated; items is never modified.
// k <= 0 returns every item in input order.
func Sample[T any](items []T, k int, rng *rand.Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	if k <= 0 {
		return out
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if k < len(out) {
		out = out[:k:k]
	}
	return out
}
