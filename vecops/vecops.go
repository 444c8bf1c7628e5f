// Package vecops implements the arithmetic that each
// worker performs on its own block of a vector.
package vecops

import (
	"errors"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// MaxLen is the largest vector that Alloc will create.
const MaxLen = 1 << 28

// ValueRange is the exclusive upper bound of the values
// produced by Generate.
const ValueRange = 100

// ErrAllocation is returned when a vector cannot be
// allocated.
var ErrAllocation = errors.New("cannot allocate vector")

// Alloc creates a zero vector of length n.
func Alloc(n int) ([]float64, error) {
	if n < 0 || n > MaxLen {
		return nil, ErrAllocation
	}
	return make([]float64, n), nil
}

// WorkerSeed derives a worker's seed from a seed shared by
// the whole group, so that no two workers draw the same
// sequence.
func WorkerSeed(base int64, rank int) int64 {
	return base + int64(rank)
}

// Generate fills x and y with integral values in
// [0, ValueRange).
//
// Values are drawn alternately for x and y from a generator
// seeded with seed, so the output depends only on seed and
// the lengths of the vectors.
func Generate(seed int64, x, y []float64) {
	if len(x) != len(y) {
		panic("mismatching lengths")
	}
	gen := rand.New(rand.NewSource(seed))
	for i := range x {
		x[i] = float64(gen.Intn(ValueRange))
		y[i] = float64(gen.Intn(ValueRange))
	}
}

// Scale multiplies every element of block by s in place.
func Scale(block []float64, s float64) {
	floats.Scale(s, block)
}

// Dot computes the dot product of two blocks.
func Dot(x, y []float64) float64 {
	return floats.Dot(x, y)
}

// Add stores x+y in z.
func Add(z, x, y []float64) {
	floats.AddTo(z, x, y)
}
