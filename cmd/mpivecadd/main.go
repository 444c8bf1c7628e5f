/*
Mpivecadd runs the block-distributed vector program on a
group of in-process workers.

Each worker owns one block of x and y. The coordinator
gathers and prints the vectors, the workers' partial dot
products are reduced into a single sum, and x and y are
scaled in place before being printed again.

With -transport sim, the workers communicate over a
simulated network and the virtual time of the run is
logged.
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/unixpickle/dist-vec/collcomm"
	"github.com/unixpickle/dist-vec/driver"
	"github.com/unixpickle/essentials"
)

var (
	// notify is used to output error messages.
	notify *log.Logger

	// info is used to output status messages.
	info *log.Logger
)

// Parameters is a collection of all program parameters.
type Parameters struct {
	Config    driver.Config
	Workers   int
	ReadStdin bool
	Transport string
	Reducer   string
	Network   string
	Latency   float64
	Rate      float64
}

// ParseCommandLine parses parameters from the command line.
func ParseCommandLine(p *Parameters) {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [<options>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.IntVar(&p.Config.Order, "n", 20, "Order of the vectors")
	flag.IntVar(&p.Workers, "workers", 4, "Number of workers")
	flag.Float64Var(&p.Config.Scalar, "scalar", 2.5, "Scalar that multiplies x and y")
	flag.Int64Var(&p.Config.Seed, "seed", time.Now().UnixNano(), "Random seed shared by the group")
	flag.BoolVar(&p.Config.SkipDot, "nodot", false, "Skip the dot product")
	flag.BoolVar(&p.Config.SkipScale, "noscale", false, "Skip the scalar multiplication")
	flag.BoolVar(&p.ReadStdin, "stdin", false, "Read the order and the vectors from standard input")
	flag.StringVar(&p.Transport, "transport", "local", "Worker transport (local or sim)")
	flag.StringVar(&p.Reducer, "reducer", "flat", "Reduction algorithm (flat or tree)")
	flag.StringVar(&p.Network, "network", "switched", "Simulated network (switched or random)")
	flag.Float64Var(&p.Latency, "latency", 1e-4, "Simulated per-message latency")
	flag.Float64Var(&p.Rate, "rate", 1e9, "Simulated NIC rate, in bytes per second")
	flag.Parse()

	if p.Workers <= 0 {
		notify.Fatal("-workers must be positive")
	}
	if p.Transport != "local" && p.Transport != "sim" {
		notify.Fatalf("unknown transport: %s", p.Transport)
	}
	if p.Reducer != "flat" && p.Reducer != "tree" {
		notify.Fatalf("unknown reducer: %s", p.Reducer)
	}
	if p.Network != "switched" && p.Network != "random" {
		notify.Fatalf("unknown network: %s", p.Network)
	}
	if p.Latency < 0 || p.Rate <= 0 {
		notify.Fatal("-latency must be non-negative and -rate must be positive")
	}
}

func main() {
	notify = log.New(os.Stderr, os.Args[0]+": ", 0)
	info = log.New(os.Stderr, os.Args[0]+": ", log.Ltime)

	var p Parameters
	ParseCommandLine(&p)

	if p.ReadStdin {
		input, err := driver.ReadInput(os.Stdin, os.Stdout)
		if err != nil {
			essentials.Die(err)
		}
		p.Config.Order = len(input.X)
		p.Config.Input = input
	}

	var reducer collcomm.Reducer = collcomm.FlatReducer{}
	if p.Reducer == "tree" {
		reducer = collcomm.TreeReducer{}
	}

	var spawner collcomm.Spawner
	var sim *collcomm.SimSpawner
	if p.Transport == "sim" {
		sim = &collcomm.SimSpawner{
			Reducer: reducer,
			Random:  p.Network == "random",
			Latency: p.Latency,
			Rate:    p.Rate,
			Seed:    p.Config.Seed,
		}
		spawner = sim
	} else {
		spawner = collcomm.LocalSpawner{Reducer: reducer}
	}

	report, err := driver.Launch(spawner, p.Workers, p.Config, os.Stdout)
	if err != nil {
		essentials.Die(err)
	}
	info.Printf("run %s: %d workers, order %d", report.RunID, report.Workers, report.Order)
	if sim != nil {
		stats := sim.Stats()
		info.Printf("simulated network: %d messages, %.0f bytes, %f seconds",
			stats.Messages, stats.Bytes, stats.Time)
	}
}
