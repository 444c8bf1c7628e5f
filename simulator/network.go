package simulator

import (
	"math"
	"sync"
)

// A Node is a machine on a simulated network.
// Nodes are compared by identity.
type Node struct {
	_ int
}

// NewNode creates a new, unique Node.
func NewNode() *Node {
	return &Node{}
}

// Port opens a Port on the Node.
func (n *Node) Port(loop *EventLoop) *Port {
	return &Port{Node: n, Incoming: loop.Stream()}
}

// A Port is an endpoint on a Node.
type Port struct {
	Node *Node

	// Incoming carries the *Message values addressed to
	// the Port.
	Incoming *EventStream
}

// Recv blocks until the next Message arrives.
func (p *Port) Recv(h *Handle) *Message {
	return h.Poll(p.Incoming).Message.(*Message)
}

// A Message is data in transit between two Ports.
type Message struct {
	Source  *Port
	Dest    *Port
	Message interface{}

	// Size is the number of bytes on the wire.
	Size float64
}

// A Network decides when Messages arrive.
type Network interface {
	// Send schedules the delivery of msgs on their
	// destinations' Incoming streams without blocking.
	//
	// Passing several messages in one call lets the
	// Network plan them together.
	Send(h *Handle, msgs ...*Message)
}

// A RandomNetwork is a network that assigns random delays
// to every message.
//
// Messages between the same pair of ports may arrive out
// of order.
type RandomNetwork struct {
	// MaxDelay is the upper bound on a message's delay.
	// If it is 0, it is treated as 1.
	MaxDelay float64
}

// Send sends the messages with random delays.
func (r RandomNetwork) Send(h *Handle, msgs ...*Message) {
	maxDelay := r.MaxDelay
	if maxDelay == 0 {
		maxDelay = 1
	}
	for _, msg := range msgs {
		h.Schedule(msg.Dest.Incoming, msg, h.Float64()*maxDelay)
	}
}

// A CountingNetwork wraps a Network and tallies the
// traffic that passes through it.
type CountingNetwork struct {
	Network Network

	lock     sync.Mutex
	messages int
	bytes    float64
}

// Send records the messages and forwards them to the
// wrapped Network.
func (c *CountingNetwork) Send(h *Handle, msgs ...*Message) {
	c.lock.Lock()
	c.messages += len(msgs)
	for _, msg := range msgs {
		c.bytes += msg.Size
	}
	c.lock.Unlock()
	c.Network.Send(h, msgs...)
}

// Messages returns the number of messages sent so far.
func (c *CountingNetwork) Messages() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.messages
}

// Bytes returns the total Size of all messages sent so
// far.
func (c *CountingNetwork) Bytes() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.bytes
}

// A SwitcherNetwork is a network where concurrent
// transfers share bandwidth according to a Switcher.
//
// Every new Send re-plans the delivery times of the
// transfers that are still in flight.
type SwitcherNetwork struct {
	lock sync.Mutex

	switcher Switcher
	index    map[*Node]int
	latency  float64

	plan []*planSegment
}

// NewSwitcherNetwork creates a SwitcherNetwork over nodes.
//
// Every message first waits out latency and then
// transfers its Size at the rate the Switcher assigns.
// A message counts as an active connection during its
// latency period as well, which overstates congestion a
// little.
func NewSwitcherNetwork(switcher Switcher, nodes []*Node, latency float64) *SwitcherNetwork {
	index := make(map[*Node]int, len(nodes))
	for i, node := range nodes {
		index[node] = i
	}
	return &SwitcherNetwork{
		switcher: switcher,
		index:    index,
		latency:  latency,
	}
}

// Send adds the messages to the network and reschedules
// every transfer in flight.
func (s *SwitcherNetwork) Send(h *Handle, msgs ...*Message) {
	s.lock.Lock()
	defer s.lock.Unlock()

	inFlight := s.cancelPlan(h)
	for _, msg := range msgs {
		inFlight = append(inFlight, &transfer{
			msg:       msg,
			latency:   s.latency,
			remaining: msg.Size,
		})
	}
	s.schedule(h, inFlight)
}

// cancelPlan stops every pending delivery and returns the
// transfers that have not arrived yet, advanced to the
// current time.
func (s *SwitcherNetwork) cancelPlan(h *Handle) []*transfer {
	now := h.Time()
	var inFlight []*transfer
	for _, seg := range s.plan {
		if now >= seg.end {
			continue
		}
		if now >= seg.start {
			for _, t := range seg.transfers {
				inFlight = append(inFlight, t.advance(now-seg.start))
			}
		}
		for _, timer := range seg.timers {
			h.Cancel(timer)
		}
	}
	return inFlight
}

// assignRates sets the rate of every transfer.
// Transfers along the same edge split the edge's rate.
func (s *SwitcherNetwork) assignRates(inFlight []*transfer) {
	rates := NewRateMat(len(s.index))
	counts := map[[2]int]float64{}
	for _, t := range inFlight {
		edge := s.edge(t)
		rates.Set(edge[0], edge[1], 1)
		counts[edge]++
	}
	s.switcher.SwitchedRates(rates)
	for _, t := range inFlight {
		edge := s.edge(t)
		t.rate = rates.At(edge[0], edge[1]) / counts[edge]
	}
}

func (s *SwitcherNetwork) edge(t *transfer) [2]int {
	return [2]int{s.index[t.msg.Source.Node], s.index[t.msg.Dest.Node]}
}

// schedule plans deliveries one batch at a time: rates
// stay fixed until the next transfer completes, at which
// point the survivors are re-rated.
func (s *SwitcherNetwork) schedule(h *Handle, inFlight []*transfer) {
	s.plan = make([]*planSegment, 0, len(inFlight))
	now := h.Time()
	start := now
	for len(inFlight) > 0 {
		s.assignRates(inFlight)
		done, rest, eta := splitEarliest(inFlight)

		timers := make([]*Timer, len(done))
		for i, t := range done {
			timers[i] = h.Schedule(t.msg.Dest.Incoming, t.msg, start-now+eta)
		}
		end := timers[0].Time()
		s.plan = append(s.plan, &planSegment{
			start:     start,
			end:       end,
			timers:    timers,
			transfers: inFlight,
		})

		for i, t := range rest {
			rest[i] = t.advance(end - start)
		}
		inFlight = rest
		start = end
	}
}

// A transfer is a message on its way through a
// SwitcherNetwork.
type transfer struct {
	msg *Message

	latency   float64
	remaining float64
	rate      float64
}

// eta returns the time until the transfer completes at
// its current rate.
func (t *transfer) eta() float64 {
	return math.Max(0, t.latency+t.remaining/t.rate)
}

// advance returns a copy of t with elapsed time spent
// first on latency and then on data.
func (t *transfer) advance(elapsed float64) *transfer {
	res := *t
	if elapsed < res.latency {
		res.latency -= elapsed
		return &res
	}
	elapsed -= res.latency
	res.latency = 0
	res.remaining -= res.rate * elapsed
	return &res
}

// A planSegment is an interval during which every rate is
// constant. It ends when at least one timer delivers a
// message.
type planSegment struct {
	start float64
	end   float64

	timers    []*Timer
	transfers []*transfer
}

// splitEarliest separates the transfers that complete
// first from the others.
func splitEarliest(ts []*transfer) (earliest, rest []*transfer, eta float64) {
	etas := make([]float64, len(ts))
	eta = math.Inf(1)
	for i, t := range ts {
		etas[i] = t.eta()
		eta = math.Min(eta, etas[i])
	}
	for i, t := range ts {
		if etas[i] == eta {
			earliest = append(earliest, t)
		} else {
			rest = append(rest, t)
		}
	}
	return earliest, rest, eta
}
