/*
Vecadd adds two random vectors and prints the first and
last elements of x, y and z = x + y together with the time
the computation took.

With -stdin, the order and both vectors are read from
standard input instead.
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/unixpickle/dist-vec/driver"
	"github.com/unixpickle/essentials"
)

// notify is used to output error messages.
var notify *log.Logger

func main() {
	notify = log.New(os.Stderr, os.Args[0]+": ", 0)

	var cfg driver.SeqConfig
	var readStdin bool
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [<options>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.IntVar(&cfg.Order, "n", 100000, "Order of the vectors")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.IntVar(&cfg.Show, "show", driver.DefaultShow, "Elements to print from each end of a vector")
	flag.BoolVar(&readStdin, "stdin", false, "Read the order and the vectors from standard input")
	flag.Parse()

	if cfg.Show <= 0 {
		notify.Fatal("-show must be positive")
	}

	if readStdin {
		input, err := driver.ReadInput(os.Stdin, os.Stdout)
		if err != nil {
			essentials.Die(err)
		}
		cfg.Order = len(input.X)
		cfg.Input = input
	}

	if _, err := driver.RunSequential(cfg, os.Stdout); err != nil {
		essentials.Die(err)
	}
}
