package collcomm

import "math"

// A ReduceFn is an operation that reduces many vectors
// into a single vector.
//
// A ReduceFn should be associative and commutative.
type ReduceFn func(vecs ...[]float64) []float64

// Sum is a ReduceFn that computes a vector sum.
func Sum(vecs ...[]float64) []float64 {
	return elementwise(vecs, func(x, y float64) float64 {
		return x + y
	})
}

// Max is a ReduceFn that computes an elementwise maximum.
func Max(vecs ...[]float64) []float64 {
	return elementwise(vecs, math.Max)
}

// Min is a ReduceFn that computes an elementwise minimum.
func Min(vecs ...[]float64) []float64 {
	return elementwise(vecs, math.Min)
}

func elementwise(vecs [][]float64, f func(x, y float64) float64) []float64 {
	for _, v := range vecs[1:] {
		if len(v) != len(vecs[0]) {
			panic("mismatching lengths")
		}
	}
	res := append([]float64{}, vecs[0]...)
	for _, v := range vecs[1:] {
		for i, x := range v {
			res[i] = f(res[i], x)
		}
	}
	return res
}
