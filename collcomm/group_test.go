package collcomm

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
)

func TestLocalGroup(t *testing.T) {
	for _, reducer := range []Reducer{FlatReducer{}, TreeReducer{}} {
		t.Run(fmt.Sprintf("%T", reducer), func(t *testing.T) {
			RunChannelTests(t, LocalSpawner{Reducer: reducer})
		})
	}
}

func TestSimGroup(t *testing.T) {
	for _, reducer := range []Reducer{FlatReducer{}, TreeReducer{}} {
		for _, random := range []bool{false, true} {
			t.Run(fmt.Sprintf("%T,Random=%v", reducer, random), func(t *testing.T) {
				RunChannelTests(t, &SimSpawner{
					Reducer: reducer,
					Random:  random,
					Latency: 0.1,
					Rate:    1e6,
				})
			})
		}
	}
}

func TestGatherMismatch(t *testing.T) {
	cases := []struct {
		lengths  []int
		expected int
		bad      map[int]int
	}{
		{[]int{4, 4, 3}, 4, map[int]int{2: 3}},
		{[]int{3, 4, 4, 4}, 4, map[int]int{0: 3}},
		{[]int{2, 5}, 2, map[int]int{1: 5}},
	}
	for _, c := range cases {
		var gatherErr error
		err := LocalSpawner{}.Spawn(len(c.lengths), func(ch Channel) {
			res, err := ch.Gather(make([]float64, c.lengths[ch.Rank()]))
			if ch.Rank() == Coordinator {
				gatherErr = err
				if res != nil {
					t.Error("expected no result")
				}
			}
		})
		if err != nil {
			t.Fatal(err)
		}
		var mismatch *MismatchError
		if !errors.As(gatherErr, &mismatch) {
			t.Errorf("lengths %v: expected MismatchError but got %v", c.lengths, gatherErr)
			continue
		}
		if mismatch.Expected != c.expected || !reflect.DeepEqual(mismatch.Lengths, c.bad) {
			t.Errorf("lengths %v: unexpected error: %v", c.lengths, mismatch)
		}
	}
}

func TestScatterMismatch(t *testing.T) {
	err := LocalSpawner{}.Spawn(1, func(c Channel) {
		_, err := c.Scatter(make([]float64, 5), 4)
		var mismatch *MismatchError
		if !errors.As(err, &mismatch) {
			t.Errorf("expected MismatchError but got %v", err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

// TestSimDeadlock makes sure that a worker that skips a
// collective is reported by the simulator instead of
// hanging.
func TestSimDeadlock(t *testing.T) {
	reduce := func(c Channel) {
		c.Reduce(float64(c.Rank()), Sum)
	}
	cases := []struct {
		name    string
		reducer Reducer
		op      func(c Channel)
	}{
		{"Barrier", nil, func(c Channel) { c.Barrier() }},
		{"ReduceFlat", FlatReducer{}, reduce},
		{"ReduceTree", TreeReducer{}, reduce},
	}
	for _, tc := range cases {
		for _, skipper := range []int{1, 3} {
			spawner := &SimSpawner{Reducer: tc.reducer, Latency: 0.1}
			err := spawner.Spawn(4, func(c Channel) {
				if c.Rank() != skipper {
					tc.op(c)
				}
			})
			if err == nil {
				t.Errorf("%s: did not detect deadlock when worker %d skips", tc.name, skipper)
			}
		}
	}
}

func TestSimStats(t *testing.T) {
	spawner := &SimSpawner{Latency: 0.5, Rate: 1e3}
	err := spawner.Spawn(4, func(c Channel) {
		c.Gather(make([]float64, 10))
	})
	if err != nil {
		t.Fatal(err)
	}
	stats := spawner.Stats()
	if stats.Messages != 3 {
		t.Errorf("expected 3 messages but got %d", stats.Messages)
	}
	if expected := 3.0 * (10*8 + EnvelopeOverhead); stats.Bytes != expected {
		t.Errorf("expected %f bytes but got %f", expected, stats.Bytes)
	}
	if stats.Time < 0.5 {
		t.Errorf("time %f is below the network latency", stats.Time)
	}
}

func TestSimComputeCost(t *testing.T) {
	spawner := &SimSpawner{Seed: 1}
	err := spawner.Spawn(1, func(c Channel) {
		c.(*Group).ReduceVec(make([]float64, 1000), Sum)
	})
	if err != nil {
		t.Fatal(err)
	}
	if expected := 1000 * FlopTime; math.Abs(spawner.Stats().Time-expected) > 1e-15 {
		t.Errorf("expected time %e but got %e", expected, spawner.Stats().Time)
	}
}

// TestSimReducerCosts checks that the Coordinator's
// combine dominates a flat reduction when the network is
// nearly free, while a tree spreads it across levels.
func TestSimReducerCosts(t *testing.T) {
	const workers = 32
	const length = 10000
	times := map[string]float64{}
	for name, reducer := range map[string]Reducer{"Flat": FlatReducer{}, "Tree": TreeReducer{}} {
		spawner := &SimSpawner{Reducer: reducer, Latency: 0, Rate: 1e12, Seed: 1}
		err := spawner.Spawn(workers, func(c Channel) {
			c.(*Group).ReduceVec(make([]float64, length), Sum)
		})
		if err != nil {
			t.Fatal(err)
		}
		times[name] = spawner.Stats().Time
	}
	if minFlat := workers * length * FlopTime; times["Flat"] < minFlat {
		t.Errorf("flat reduction took %e, below the combine cost %e", times["Flat"], minFlat)
	}
	if times["Tree"] >= times["Flat"] {
		t.Errorf("tree reduction (%e) should be faster than flat (%e)", times["Tree"],
			times["Flat"])
	}
}

func TestPositionInTree(t *testing.T) {
	for _, size := range []int{1, 2, 3, 6, 7, 16} {
		parents := map[int]int{}
		for idx := 0; idx < size; idx++ {
			parent, children := positionInTree(idx, size)
			if idx == 0 && parent != -1 {
				t.Errorf("size %d: root has parent %d", size, parent)
			}
			for _, child := range children {
				if child >= size {
					t.Errorf("size %d: child %d out of range", size, child)
				}
				parents[child] = idx
			}
		}
		for idx := 1; idx < size; idx++ {
			expected, ok := parents[idx]
			if !ok {
				t.Errorf("size %d: node %d is nobody's child", size, idx)
				continue
			}
			if parent, _ := positionInTree(idx, size); parent != expected {
				t.Errorf("size %d: node %d has parent %d but is a child of %d", size, idx,
					parent, expected)
			}
		}
	}
}
