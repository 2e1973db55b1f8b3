// Package rng provides the seedable randomness source threaded through a battle.
//
// Every probability check in the engine draws from a single Source owned by the
// battle. Given the same seed and the same sequence of decisions, a battle replays
// identically.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source is the randomness provider for a battle.
//
// Implementations are not required to be safe for concurrent use; a battle owns
// its source exclusively.
type Source interface {
	// Intn returns a non-negative int in [0, n). Panics if n <= 0.
	Intn(n int) int

	// IntRange returns an int in [min, max). Panics if max <= min.
	IntRange(min, max int) int

	// Float32 returns a float32 in [0, 1).
	Float32() float32

	// Float64 returns a float64 in [0, 1).
	Float64() float64
}

// Rand is a Source backed by math/rand with an explicit seed.
type Rand struct {
	seed int64
	r    *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed int64) *Rand {
	return &Rand{seed: seed, r: rand.New(rand.NewSource(seed))}
}

// NewRandom creates a Source from a cryptographic seed and returns the seed so the
// run can be reproduced later.
func NewRandom() (*Rand, int64, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, 0, err
	}
	return New(seed), seed, nil
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Seed returns the seed this source was created with.
func (r *Rand) Seed() int64 {
	return r.seed
}

func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("rng: Intn called with non-positive bound %d", n))
	}
	return r.r.Intn(n)
}

func (r *Rand) IntRange(min, max int) int {
	if max <= min {
		panic(fmt.Sprintf("rng: IntRange called with empty range [%d, %d)", min, max))
	}
	return min + r.r.Intn(max-min)
}

func (r *Rand) Float32() float32 {
	return r.r.Float32()
}

func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// Derive returns a child seed for the i-th battle of a batch, so batches stay
// reproducible from a single base seed.
func Derive(base int64, i int) int64 {
	// splitmix64 step
	z := uint64(base) + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
