package collcomm

import (
	"fmt"

	"github.com/unixpickle/essentials"
)

// A MismatchError is returned when the vectors passed to a
// collective operation do not have the expected lengths.
type MismatchError struct {
	Op       string
	Expected int

	// Lengths maps ranks to the offending lengths.
	Lengths map[int]int
}

// Error returns a description of the mismatch.
func (m *MismatchError) Error() string {
	return fmt.Sprintf("%s: expected length %d but got lengths %v", m.Op, m.Expected, m.Lengths)
}

// A Group implements Channel on top of a Transport.
//
// Each collective call is assigned the next sequence
// number, and messages that arrive ahead of the call they
// belong to are buffered until that call is made.
type Group struct {
	Transport Transport

	// Reducer is the algorithm used by Reduce and
	// ReduceVec.
	Reducer Reducer

	seq     int
	pending []*Envelope
}

// NewGroup creates a Group.
//
// If r is nil, a FlatReducer is used.
func NewGroup(t Transport, r Reducer) *Group {
	if r == nil {
		r = FlatReducer{}
	}
	return &Group{Transport: t, Reducer: r}
}

// Rank returns the worker's rank.
func (g *Group) Rank() int {
	return g.Transport.Rank()
}

// Size returns the number of workers.
func (g *Group) Size() int {
	return g.Transport.Size()
}

// IsCoordinator checks if the worker is the Coordinator.
func (g *Group) IsCoordinator() bool {
	return g.Rank() == Coordinator
}

// Barrier blocks until every worker reaches the barrier.
func (g *Group) Barrier() {
	seq := g.nextSeq()
	if g.IsCoordinator() {
		for i := 1; i < g.Size(); i++ {
			g.recv(seq, AnySource)
		}
		for i := 1; i < g.Size(); i++ {
			g.send(i, seq, nil)
		}
	} else {
		g.send(Coordinator, seq, nil)
		g.recv(seq, Coordinator)
	}
}

// Reduce combines a scalar from every worker.
func (g *Group) Reduce(value float64, fn ReduceFn) (float64, bool) {
	res, ok := g.ReduceVec([]float64{value}, fn)
	if !ok {
		return 0, false
	}
	return res[0], true
}

// ReduceVec combines a vector from every worker.
//
// All vectors must have the same length.
func (g *Group) ReduceVec(vec []float64, fn ReduceFn) ([]float64, bool) {
	seq := g.nextSeq()
	res := g.Reducer.Reduce(g, seq, vec, fn)
	if !g.IsCoordinator() {
		return nil, false
	}
	return res, true
}

// Gather assembles the blocks of every worker on the
// Coordinator, in rank order.
//
// Every block must have the same length.
// Otherwise, the Coordinator reports the workers whose
// blocks differ from the most common length.
func (g *Group) Gather(block []float64) ([]float64, error) {
	seq := g.nextSeq()
	if !g.IsCoordinator() {
		g.send(Coordinator, seq, block)
		return nil, nil
	}

	blocks := make([][]float64, g.Size())
	blocks[Coordinator] = block
	for i := 1; i < g.Size(); i++ {
		env := g.recv(seq, AnySource)
		blocks[env.Source] = env.Payload
	}

	expected := commonLength(blocks)
	var mismatched map[int]int
	for rank, b := range blocks {
		if len(b) != expected {
			if mismatched == nil {
				mismatched = map[int]int{}
			}
			mismatched[rank] = len(b)
		}
	}
	if mismatched != nil {
		return nil, &MismatchError{Op: "gather", Expected: expected, Lengths: mismatched}
	}

	res := make([]float64, 0, len(block)*g.Size())
	for _, b := range blocks {
		res = append(res, b...)
	}
	g.compute(len(res))
	return res, nil
}

// commonLength returns the most frequent length among
// blocks, preferring the Coordinator's length on ties.
func commonLength(blocks [][]float64) int {
	counts := map[int]int{}
	for _, b := range blocks {
		counts[len(b)]++
	}
	res := len(blocks[Coordinator])
	for _, b := range blocks {
		if counts[len(b)] > counts[res] {
			res = len(b)
		}
	}
	return res
}

// Scatter distributes blocks of a vector held by the
// Coordinator.
//
// If the Coordinator's vector does not have exactly
// localN*Size() elements, the Coordinator returns an error
// and sends nothing, so callers should validate the length
// on every worker before calling Scatter.
func (g *Group) Scatter(global []float64, localN int) ([]float64, error) {
	seq := g.nextSeq()
	if !g.IsCoordinator() {
		return g.recv(seq, Coordinator).Payload, nil
	}
	if len(global) != localN*g.Size() {
		return nil, &MismatchError{
			Op:       "scatter",
			Expected: localN * g.Size(),
			Lengths:  map[int]int{Coordinator: len(global)},
		}
	}
	for i := 1; i < g.Size(); i++ {
		g.send(i, seq, global[i*localN:(i+1)*localN])
	}
	return append([]float64{}, global[:localN]...), nil
}

// combine applies fn and charges the Transport for the
// arithmetic.
func (g *Group) combine(fn ReduceFn, vecs [][]float64) []float64 {
	g.compute(len(vecs) * len(vecs[0]))
	return fn(vecs...)
}

func (g *Group) compute(flops int) {
	if c, ok := g.Transport.(Computer); ok {
		c.Compute(float64(flops))
	}
}

func (g *Group) nextSeq() int {
	g.seq++
	return g.seq
}

// send copies the payload, since the caller may keep
// mutating it after the collective returns.
func (g *Group) send(dst, seq int, payload []float64) {
	g.Transport.Send(dst, &Envelope{
		Seq:     seq,
		Source:  g.Rank(),
		Payload: append([]float64{}, payload...),
	})
}

// recv waits for the message of the given sequence number
// from src, which may be AnySource.
func (g *Group) recv(seq, src int) *Envelope {
	for i, env := range g.pending {
		if env.Seq == seq && (src == AnySource || env.Source == src) {
			essentials.OrderedDelete(&g.pending, i)
			return env
		}
	}
	for {
		env := g.Transport.Recv()
		if env.Seq < seq {
			panic(fmt.Sprintf("stale message for operation %d during operation %d", env.Seq, seq))
		}
		if env.Seq == seq && (src == AnySource || env.Source == src) {
			return env
		}
		g.pending = append(g.pending, env)
	}
}
