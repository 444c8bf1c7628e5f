package collcomm

import (
	"fmt"
	"math"
	"testing"
)

// RunChannelTests runs a battery of tests on the groups
// created by a Spawner.
func RunChannelTests(t *testing.T, spawner Spawner) {
	for _, size := range []int{1, 2, 3, 5, 8, 17} {
		for _, localN := range []int{1, 13} {
			testName := fmt.Sprintf("Size=%d,LocalN=%d", size, localN)
			t.Run(testName, func(t *testing.T) {
				runCollectiveSequence(t, spawner, size, localN)
			})
		}
	}
}

// runCollectiveSequence issues many collectives back to
// back, so that messages of different operations are in
// flight at the same time.
func runCollectiveSequence(t *testing.T, spawner Spawner, size, localN int) {
	global := make([]float64, size*localN)
	for i := range global {
		global[i] = float64(i) + 0.5
	}

	var (
		reduced   = make([]float64, size)
		reducedOk = make([]bool, size)
		maxVecs   = make([][]float64, size)
		gathered  = make([][]float64, size)
		scaled    = make([][]float64, size)
		errs      = make([]error, size)
	)

	err := spawner.Spawn(size, func(c Channel) {
		rank := c.Rank()
		if c.Size() != size {
			errs[rank] = fmt.Errorf("expected size %d but got %d", size, c.Size())
			return
		}

		block, err := c.Scatter(global, localN)
		if err != nil {
			errs[rank] = err
			return
		}
		c.Barrier()

		reduced[rank], reducedOk[rank] = c.Reduce(float64(rank+1), Sum)
		if g, ok := c.(*Group); ok {
			maxVecs[rank], _ = g.ReduceVec([]float64{float64(rank), -float64(rank)}, Max)
		}

		gathered[rank], errs[rank] = c.Gather(block)
		if errs[rank] != nil {
			return
		}
		for i := range block {
			block[i] *= 2
		}
		scaled[rank], errs[rank] = c.Gather(block)
	})
	if err != nil {
		t.Fatal(err)
	}

	for rank, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
	}

	expectedSum := float64(size*(size+1)) / 2
	if !reducedOk[Coordinator] || reduced[Coordinator] != expectedSum {
		t.Errorf("expected reduction %f but got %f (ok=%v)", expectedSum, reduced[Coordinator],
			reducedOk[Coordinator])
	}
	for rank := 1; rank < size; rank++ {
		if reducedOk[rank] || gathered[rank] != nil || scaled[rank] != nil {
			t.Errorf("rank %d received a coordinator result", rank)
		}
	}
	if maxVecs[Coordinator] != nil {
		if maxVecs[Coordinator][0] != float64(size-1) || maxVecs[Coordinator][1] != 0 {
			t.Errorf("unexpected elementwise max: %v", maxVecs[Coordinator])
		}
	}

	verifyGathered(t, "gather", gathered[Coordinator], global, 1)
	verifyGathered(t, "gather after scaling", scaled[Coordinator], global, 2)
}

func verifyGathered(t *testing.T, name string, actual, expected []float64, scale float64) {
	if len(actual) != len(expected) {
		t.Errorf("%s: expected length %d but got %d", name, len(expected), len(actual))
		return
	}
	for i, x := range expected {
		if math.Abs(actual[i]-x*scale) > 1e-12 {
			t.Errorf("%s: expected %f but got %f at component %d", name, x*scale, actual[i], i)
			return
		}
	}
}
