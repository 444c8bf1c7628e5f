// Package partition implements block decomposition of a
// vector across a fixed number of workers.
package partition

import "fmt"

// A ConfigError indicates that a vector order cannot be
// split evenly across a group of workers.
//
// Every worker computes the same ConfigError from the same
// parameters, so the whole group can stop before any
// collective operation is started.
type ConfigError struct {
	Order   int
	Workers int
	Reason  string
}

// Error returns a description of the problem.
func (c *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration (order=%d, workers=%d): %s",
		c.Order, c.Workers, c.Reason)
}

// A Partition splits a vector of Order elements into one
// contiguous block per worker.
//
// Worker r owns the global indices
// [r*LocalOrder, (r+1)*LocalOrder).
type Partition struct {
	Order      int
	Workers    int
	LocalOrder int
}

// New creates a Partition.
//
// The order must be positive and evenly divisible by the
// number of workers.
func New(order, workers int) (*Partition, error) {
	if workers <= 0 {
		return nil, &ConfigError{Order: order, Workers: workers,
			Reason: "worker count should be positive"}
	}
	if order <= 0 {
		return nil, &ConfigError{Order: order, Workers: workers,
			Reason: "order should be positive"}
	}
	if order%workers != 0 {
		return nil, &ConfigError{Order: order, Workers: workers,
			Reason: "order should be evenly divisible by the worker count"}
	}
	return &Partition{
		Order:      order,
		Workers:    workers,
		LocalOrder: order / workers,
	}, nil
}

// Bounds returns the range of global indices owned by a
// worker.
func (p *Partition) Bounds(rank int) (start, end int) {
	p.checkRank(rank)
	start = rank * p.LocalOrder
	return start, start + p.LocalOrder
}

// Global maps a worker's local index to a global index.
func (p *Partition) Global(rank, local int) int {
	p.checkRank(rank)
	if local < 0 || local >= p.LocalOrder {
		panic("local index out of bounds")
	}
	return rank*p.LocalOrder + local
}

// Owner maps a global index to the worker that owns it
// and the index within that worker's block.
func (p *Partition) Owner(global int) (rank, local int) {
	if global < 0 || global >= p.Order {
		panic("global index out of bounds")
	}
	return global / p.LocalOrder, global % p.LocalOrder
}

// Block returns the slice of a global vector owned by a
// worker.
//
// The result aliases vec.
func (p *Partition) Block(vec []float64, rank int) []float64 {
	if len(vec) != p.Order {
		panic("vector length does not match partition order")
	}
	start, end := p.Bounds(rank)
	return vec[start:end]
}

func (p *Partition) checkRank(rank int) {
	if rank < 0 || rank >= p.Workers {
		panic("rank out of bounds")
	}
}
