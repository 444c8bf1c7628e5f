package simulator

// A Switcher decides how fast data flows between nodes
// that are sending to each other at the same time.
type Switcher interface {
	// SwitchedRates receives a matrix with a 1 for every
	// pair of nodes with data in flight and 0 elsewhere,
	// and overwrites it with the rate of every
	// connection.
	SwitchedRates(rates *RateMat)
}

// A GreedyDropSwitcher models NICs with fixed upload and
// download rates.
//
// A sender splits its upload rate evenly across its
// destinations.
// A receiver that is offered more than its download rate
// throttles every incoming connection by the same factor,
// which is what makes a gather into one node slow.
type GreedyDropSwitcher struct {
	SendRates []float64
	RecvRates []float64
}

// NewGreedyDropSwitcher creates a GreedyDropSwitcher where
// every node uploads and downloads at rate.
func NewGreedyDropSwitcher(numNodes int, rate float64) *GreedyDropSwitcher {
	rates := make([]float64, numNodes)
	for i := range rates {
		rates[i] = rate
	}
	return &GreedyDropSwitcher{SendRates: rates, RecvRates: rates}
}

// SwitchedRates applies the upload split, then the
// download throttle.
func (g *GreedyDropSwitcher) SwitchedRates(rates *RateMat) {
	n := rates.NumNodes()
	if n != len(g.SendRates) || n != len(g.RecvRates) {
		panic("unexpected number of nodes")
	}
	for src := 0; src < n; src++ {
		if dests := rates.Outgoing(src); dests > 0 {
			rates.ScaleOutgoing(src, g.SendRates[src]/dests)
		}
	}
	for dst := 0; dst < n; dst++ {
		if offered := rates.Incoming(dst); offered > g.RecvRates[dst] {
			rates.ScaleIncoming(dst, g.RecvRates[dst]/offered)
		}
	}
}
