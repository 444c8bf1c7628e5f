package collcomm

import (
	"errors"

	"github.com/unixpickle/dist-vec/simulator"
)

// FlopTime is the amount of virtual time it takes to
// perform a single floating-point operation.
const FlopTime = 1e-9

// EnvelopeOverhead is the simulated size, in bytes, of an
// Envelope's header.
const EnvelopeOverhead = 16

// Comms is a Transport that carries Envelopes over a
// simulated network.
//
// Each node has its own Comms object that represents its
// view of the world.
type Comms struct {
	// Handle is the node's main Goroutine's handle on the
	// event loop.
	Handle *simulator.Handle

	// Port is the current node's port.
	Port *simulator.Port

	// Ports contains ports to all the nodes in the
	// network, including the current node.
	// A node's rank is the index of its port.
	Ports []*simulator.Port

	// Network is the network connecting the nodes.
	Network simulator.Network
}

// SpawnComms creates Comms objects for every node in a
// network and calls f for each node in its own Goroutine.
func SpawnComms(loop *simulator.EventLoop, network simulator.Network, nodes []*simulator.Node,
	f func(c *Comms)) {
	ports := make([]*simulator.Port, len(nodes))
	for i, node := range nodes {
		ports[i] = node.Port(loop)
	}
	for i := range nodes {
		port := ports[i]
		loop.Go(func(h *simulator.Handle) {
			f(&Comms{
				Handle:  h,
				Port:    port,
				Ports:   ports,
				Network: network,
			})
		})
	}
}

// Size gets the number of nodes.
func (c *Comms) Size() int {
	return len(c.Ports)
}

// Rank returns the current node's index in the list of
// nodes.
func (c *Comms) Rank() int {
	return c.IndexOf(c.Port)
}

// IndexOf returns any node's index.
func (c *Comms) IndexOf(p *simulator.Port) int {
	for i, port := range c.Ports {
		if port == p {
			return i
		}
	}
	panic("unreachable")
}

// Send schedules an Envelope to be sent to a node.
func (c *Comms) Send(dst int, env *Envelope) {
	c.Network.Send(c.Handle, &simulator.Message{
		Source:  c.Port,
		Dest:    c.Ports[dst],
		Message: env,
		Size:    float64(len(env.Payload)*8 + EnvelopeOverhead),
	})
}

// Recv receives the next Envelope.
func (c *Comms) Recv() *Envelope {
	return c.Port.Recv(c.Handle).Message.(*Envelope)
}

// Compute advances the node's clock by the time it takes
// to perform flops operations.
func (c *Comms) Compute(flops float64) {
	c.Handle.Sleep(FlopTime * flops)
}

// Time returns the current virtual time.
func (c *Comms) Time() float64 {
	return c.Handle.Time()
}

// SimStats summarizes a simulated run.
type SimStats struct {
	// Time is the virtual time at which the last worker
	// finished.
	Time float64

	Messages int
	Bytes    float64
}

// A SimSpawner runs groups on a simulated network.
type SimSpawner struct {
	Reducer Reducer

	// Random selects a RandomNetwork with a maximum delay
	// of Latency, instead of a switched network.
	Random bool

	// Latency is the constant per-message latency of a
	// switched network.
	Latency float64

	// Rate is the NIC rate of every node in a switched
	// network, in bytes per unit of virtual time.
	// If it is 0, it is treated as 1e9.
	Rate float64

	// Seed seeds the event loop.
	// If it is 0, the loop is seeded from the wall clock.
	Seed int64

	stats SimStats
}

// Spawn creates a network of size nodes, runs f on each of
// them and runs the event loop to completion.
//
// An error is returned if the workers deadlock.
func (s *SimSpawner) Spawn(size int, f func(c Channel)) error {
	if size <= 0 {
		return errors.New("spawn: group size should be positive")
	}
	var loop *simulator.EventLoop
	if s.Seed != 0 {
		loop = simulator.NewEventLoopSeed(s.Seed)
	} else {
		loop = simulator.NewEventLoop()
	}

	nodes := make([]*simulator.Node, size)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}

	var network simulator.Network
	if s.Random {
		network = simulator.RandomNetwork{MaxDelay: s.Latency}
	} else {
		rate := s.Rate
		if rate == 0 {
			rate = 1e9
		}
		switcher := simulator.NewGreedyDropSwitcher(size, rate)
		network = simulator.NewSwitcherNetwork(switcher, nodes, s.Latency)
	}
	counter := &simulator.CountingNetwork{Network: network}

	SpawnComms(loop, counter, nodes, func(c *Comms) {
		f(NewGroup(c, s.Reducer))
	})
	err := loop.Run()
	s.stats = SimStats{
		Time:     loop.Time(),
		Messages: counter.Messages(),
		Bytes:    counter.Bytes(),
	}
	return err
}

// Stats returns the statistics of the last Spawn call.
func (s *SimSpawner) Stats() SimStats {
	return s.stats
}
