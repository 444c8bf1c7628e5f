package collcomm

// A Reducer is an algorithm for combining vectors that are
// distributed across workers into one vector on the
// Coordinator.
type Reducer interface {
	// Reduce runs on every worker of g.
	// The seq argument tags the messages of this
	// reduction.
	//
	// The Coordinator returns the reduced vector.
	// The return value is undefined for other workers.
	Reduce(g *Group, seq int, vec []float64, fn ReduceFn) []float64
}

// A FlatReducer sends every vector straight to the
// Coordinator, which combines them in rank order.
//
// The summation order does not depend on message timing,
// so results are reproducible.
type FlatReducer struct{}

// Reduce gathers the vectors on the Coordinator and
// applies fn once.
func (f FlatReducer) Reduce(g *Group, seq int, vec []float64, fn ReduceFn) []float64 {
	if !g.IsCoordinator() {
		g.send(Coordinator, seq, vec)
		return nil
	}
	vecs := make([][]float64, g.Size())
	vecs[Coordinator] = vec
	for i := 1; i < g.Size(); i++ {
		env := g.recv(seq, AnySource)
		vecs[env.Source] = env.Payload
	}
	return g.combine(fn, vecs)
}

// A TreeReducer arranges the workers in a binary tree
// rooted at the Coordinator and reduces up the tree.
type TreeReducer struct{}

// Reduce calls fn on vectors along a tree and returns the
// resulting vector on the root.
func (t TreeReducer) Reduce(g *Group, seq int, vec []float64, fn ReduceFn) []float64 {
	parent, children := positionInTree(g.Rank(), g.Size())

	vecs := [][]float64{vec}
	for _, child := range children {
		vecs = append(vecs, g.recv(seq, child).Payload)
	}

	res := g.combine(fn, vecs)
	if parent >= 0 {
		g.send(parent, seq, res)
		return nil
	}
	return res
}

// positionInTree returns the parent and children of a
// worker in the reduction tree.
//
// There may be no children.
// The parent is -1 for the root.
func positionInTree(idx, size int) (parent int, children []int) {
	parent = -1
	for depth := uint(0); true; depth++ {
		rowSize := 1 << depth
		rowStart := rowSize - 1
		if idx >= rowStart+rowSize {
			continue
		}
		rowIdx := idx - rowStart
		if depth > 0 {
			parent = rowIdx/2 + (rowSize/2 - 1)
		}
		firstChild := rowIdx*2 + (rowSize*2 - 1)
		for i := 0; i < 2; i++ {
			if firstChild+i < size {
				children = append(children, firstChild+i)
			}
		}
		return
	}
	panic("unreachable")
}
