// Package collcomm implements collective operations
// (barrier, reduce, gather, scatter) for a fixed group of
// workers that run the same program.
package collcomm

// Coordinator is the rank that receives the results of
// reductions and gathers.
const Coordinator = 0

// AnySource matches a message from any worker.
const AnySource = -1

// A Channel is one worker's view of a group of workers.
//
// Every worker must call the collective methods in the
// same order; otherwise the group deadlocks.
type Channel interface {
	// Rank returns the worker's index in [0, Size()).
	Rank() int

	// Size returns the number of workers.
	Size() int

	// Barrier blocks until every worker has called it.
	Barrier()

	// Reduce combines one value per worker with fn.
	// The result is only available on the Coordinator,
	// where the second return value is true.
	Reduce(value float64, fn ReduceFn) (float64, bool)

	// Gather concatenates every worker's block in rank
	// order on the Coordinator.
	// Other workers receive a nil vector.
	Gather(block []float64) ([]float64, error)

	// Scatter splits a vector held by the Coordinator into
	// blocks of localN and hands block i to worker i.
	// The global argument is ignored on other workers.
	Scatter(global []float64, localN int) ([]float64, error)
}

// An Envelope is the unit of data passed between workers.
type Envelope struct {
	// Seq identifies the collective operation that the
	// message belongs to.
	Seq int

	// Source is the rank of the sender.
	Source int

	Payload []float64
}

// A Transport delivers Envelopes between the workers of a
// group.
//
// Delivery must be reliable, but it need not preserve
// ordering.
type Transport interface {
	Rank() int
	Size() int

	// Send delivers an Envelope to the worker with the
	// given rank.
	// The Envelope must not be modified afterwards.
	Send(dst int, env *Envelope)

	// Recv blocks until the next Envelope arrives.
	Recv() *Envelope
}

// A Computer is a Transport that charges for local
// arithmetic, such as a node on a simulated network.
//
// Collectives call Compute with the number of
// floating-point operations they perform while combining
// or assembling vectors.
type Computer interface {
	Compute(flops float64)
}

// A Spawner runs a function on every worker of a new
// group and waits for all of them to return.
type Spawner interface {
	Spawn(size int, f func(c Channel)) error
}
