package driver

import (
	"bufio"
	"fmt"
	"io"

	"github.com/unixpickle/dist-vec/collcomm"
	"github.com/unixpickle/essentials"
)

// worker prints on behalf of one member of a group.
//
// The first error is kept, and later calls still take
// part in collectives so that the group does not
// deadlock.
type worker struct {
	c   collcomm.Channel
	out io.Writer
	err error
}

// PrintVector gathers a distributed vector and prints it
// on the coordinator.
//
// It returns the gathered vector on the coordinator.
func (w *worker) PrintVector(title string, block []float64) []float64 {
	vec, err := w.c.Gather(block)
	if err != nil {
		w.setErr(essentials.AddCtx("gather "+title, err))
		return nil
	}
	if w.c.Rank() != collcomm.Coordinator {
		return nil
	}
	if err := writeVector(w.out, title, vec); err != nil {
		w.setErr(err)
	}
	return vec
}

// Printf prints on the coordinator.
func (w *worker) Printf(format string, args ...interface{}) {
	if w.c.Rank() != collcomm.Coordinator {
		return
	}
	if _, err := fmt.Fprintf(w.out, format, args...); err != nil {
		w.setErr(essentials.AddCtx("write output", err))
	}
}

func (w *worker) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// writeVector prints a titled line of space-separated
// values.
func writeVector(out io.Writer, title string, vec []float64) error {
	buf := bufio.NewWriter(out)
	fmt.Fprintf(buf, "%s:\n", title)
	for _, x := range vec {
		fmt.Fprintf(buf, "%f ", x)
	}
	fmt.Fprintln(buf)
	return essentials.AddCtx("write output", buf.Flush())
}
