package simulator

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// A RateMat holds a transfer rate for every ordered pair
// of nodes.
//
// Rows are sources and columns are destinations.
type RateMat struct {
	*mat.Dense
}

// NewRateMat creates an all-zero rate matrix.
func NewRateMat(numNodes int) *RateMat {
	return &RateMat{Dense: mat.NewDense(numNodes, numNodes, nil)}
}

// NumNodes returns the number of nodes.
func (r *RateMat) NumNodes() int {
	n, _ := r.Dims()
	return n
}

// Outgoing returns the total rate leaving src.
func (r *RateMat) Outgoing(src int) float64 {
	return floats.Sum(r.RawRowView(src))
}

// Incoming returns the total rate arriving at dst.
func (r *RateMat) Incoming(dst int) float64 {
	return floats.Sum(mat.Col(nil, dst, r))
}

// ScaleOutgoing multiplies every rate leaving src.
func (r *RateMat) ScaleOutgoing(src int, scale float64) {
	floats.Scale(scale, r.RawRowView(src))
}

// ScaleIncoming multiplies every rate arriving at dst.
func (r *RateMat) ScaleIncoming(dst int, scale float64) {
	for src := 0; src < r.NumNodes(); src++ {
		r.Set(src, dst, r.At(src, dst)*scale)
	}
}
