package main

import (
	"fmt"
	"strconv"

	"github.com/unixpickle/dist-vec/collcomm"
	"github.com/unixpickle/dist-vec/vecops"
	"github.com/unixpickle/essentials"
)

// RunInfo describes a specific network configuration.
type RunInfo struct {
	NumNodes int
	Latency  float64
	Rate     float64
}

// Run simulates one block-distributed dot product and
// gather, including the time spent combining vectors,
// and returns the virtual time it took.
func (r *RunInfo) Run(reducer collcomm.Reducer, order int) float64 {
	spawner := &collcomm.SimSpawner{
		Reducer: reducer,
		Latency: r.Latency,
		Rate:    r.Rate,
		Seed:    1,
	}
	localN := order / r.NumNodes
	essentials.Must(spawner.Spawn(r.NumNodes, func(c collcomm.Channel) {
		x := make([]float64, localN)
		y := make([]float64, localN)
		vecops.Generate(vecops.WorkerSeed(1, c.Rank()), x, y)
		c.Reduce(vecops.Dot(x, y), collcomm.Sum)
		_, err := c.Gather(x)
		essentials.Must(err)
	}))
	return spawner.Stats().Time
}

func main() {
	reducers := []collcomm.Reducer{
		collcomm.FlatReducer{},
		collcomm.TreeReducer{},
	}
	reducerNames := []string{"Flat", "Tree"}
	runs := []RunInfo{
		{
			NumNodes: 2,
			Latency:  0.1,
			Rate:     1e6,
		},
		{
			NumNodes: 16,
			Latency:  1e-3,
			Rate:     1e6,
		},
		{
			NumNodes: 32,
			Latency:  0.1,
			Rate:     1e9,
		},
		{
			NumNodes: 32,
			Latency:  1e-4,
			Rate:     1e9,
		},
	}
	orders := []int{32, 32000, 3200000}

	// Markdown table header.
	fmt.Print("| Nodes | Latency | NIC rate | Order ")
	for _, reducerName := range reducerNames {
		fmt.Printf("| %s ", reducerName)
	}
	fmt.Println("|")
	for i := 0; i < 4+len(reducers); i++ {
		fmt.Print("|:--")
	}
	fmt.Println("|")

	// Markdown table body.
	for _, runInfo := range runs {
		for _, order := range orders {
			fmt.Printf(
				"| %d | %s | %s | %d ",
				runInfo.NumNodes,
				strconv.FormatFloat(runInfo.Latency, 'f', -1, 64),
				strconv.FormatFloat(runInfo.Rate, 'E', -1, 64),
				order,
			)
			for _, reducer := range reducers {
				fmt.Printf("| %f ", runInfo.Run(reducer, order))
			}
			fmt.Println("|")
		}
	}
}
