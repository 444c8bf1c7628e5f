// Package driver runs the vector arithmetic programs: the
// per-worker body of the parallel program, the launcher
// for a group of workers, and the sequential program.
package driver

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/unixpickle/dist-vec/collcomm"
	"github.com/unixpickle/dist-vec/partition"
	"github.com/unixpickle/dist-vec/vecops"
	"github.com/unixpickle/essentials"
)

// Input holds vectors that are supplied to the coordinator
// instead of being generated.
type Input struct {
	X []float64
	Y []float64
}

// Config configures the parallel program.
//
// Every worker must be given the same Config.
type Config struct {
	// Order is the length of the global vectors.
	Order int

	// Scalar multiplies x and y after the dot product.
	Scalar float64

	// Seed is the group seed; each worker derives its own
	// seed from it.
	Seed int64

	SkipDot   bool
	SkipScale bool

	// Input, if non-nil, is scattered from the
	// coordinator instead of generating random vectors.
	Input *Input

	// RunID identifies the run in logs.
	RunID string
}

// A Report is the coordinator's view of a finished run.
type Report struct {
	RunID   string
	Order   int
	Workers int

	// Dot is the dot product of the unscaled vectors.
	// It is only set if HasDot is true.
	Dot    float64
	HasDot bool

	// X and Y are the gathered vectors after scaling.
	X []float64
	Y []float64

	// Z is x+y, computed before scaling.
	Z []float64

	Elapsed time.Duration
}

// ElapsedMillis returns the elapsed time in milliseconds.
func (r *Report) ElapsedMillis() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// Validate checks a Config against a group size.
//
// The check uses no communication, so every worker of a
// group reaches the same verdict.
func (c *Config) Validate(workers int) (*partition.Partition, error) {
	part, err := partition.New(c.Order, workers)
	if err != nil {
		return nil, err
	}
	if c.Input != nil && (len(c.Input.X) != c.Order || len(c.Input.Y) != c.Order) {
		return nil, &partition.ConfigError{
			Order:   c.Order,
			Workers: workers,
			Reason: fmt.Sprintf("input vectors have lengths %d and %d",
				len(c.Input.X), len(c.Input.Y)),
		}
	}
	return part, nil
}

// RunWorker runs the parallel program on one worker.
//
// Only the coordinator writes to out and returns a Report.
// Configuration and allocation errors are detected before
// the first collective operation, on every worker.
func RunWorker(c collcomm.Channel, cfg Config, out io.Writer) (*Report, error) {
	w := &worker{c: c, out: out}
	start := time.Now()

	part, err := cfg.Validate(c.Size())
	if err != nil {
		return nil, err
	}

	var x, y, z []float64
	for _, vec := range []*[]float64{&x, &y, &z} {
		*vec, err = vecops.Alloc(part.LocalOrder)
		if err != nil {
			return nil, essentials.AddCtx("allocate vectors", err)
		}
	}

	if cfg.Input != nil {
		if x, err = c.Scatter(cfg.Input.X, part.LocalOrder); err != nil {
			return nil, essentials.AddCtx("scatter x", err)
		}
		if y, err = c.Scatter(cfg.Input.Y, part.LocalOrder); err != nil {
			return nil, essentials.AddCtx("scatter y", err)
		}
	} else {
		vecops.Generate(vecops.WorkerSeed(cfg.Seed, c.Rank()), x, y)
	}

	c.Barrier()

	w.PrintVector("Vector x (before scaling)", x)
	w.PrintVector("Vector y (before scaling)", y)

	vecops.Add(z, x, y)
	gatheredZ := w.PrintVector("Vector z = x + y", z)

	var dot float64
	var hasDot bool
	if !cfg.SkipDot {
		dot, hasDot = c.Reduce(vecops.Dot(x, y), collcomm.Sum)
	}

	if !cfg.SkipScale {
		vecops.Scale(x, cfg.Scalar)
		vecops.Scale(y, cfg.Scalar)
	}
	gatheredX := w.PrintVector("Vector x (after scaling)", x)
	gatheredY := w.PrintVector("Vector y (after scaling)", y)

	elapsed := time.Since(start)

	if w.err != nil {
		return nil, w.err
	}
	if c.Rank() != collcomm.Coordinator {
		return nil, nil
	}

	if hasDot {
		w.Printf("Dot product: %f\n\n", dot)
	}
	report := &Report{
		RunID:   cfg.RunID,
		Order:   cfg.Order,
		Workers: c.Size(),
		Dot:     dot,
		HasDot:  hasDot,
		X:       gatheredX,
		Y:       gatheredY,
		Z:       gatheredZ,
		Elapsed: elapsed,
	}
	w.Printf("Total time: %f milliseconds\n", report.ElapsedMillis())
	return report, w.err
}

// Launch runs the parallel program on a new group of
// workers and returns the coordinator's Report.
//
// If any worker fails, the error of the lowest failing
// rank is returned.
func Launch(s collcomm.Spawner, workers int, cfg Config, out io.Writer) (*Report, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if _, err := cfg.Validate(workers); err != nil {
		return nil, err
	}

	reports := make([]*Report, workers)
	errs := make([]error, workers)
	err := s.Spawn(workers, func(c collcomm.Channel) {
		reports[c.Rank()], errs[c.Rank()] = RunWorker(c, cfg, out)
	})
	if err != nil {
		return nil, essentials.AddCtx("run workers", err)
	}
	for rank, err := range errs {
		if err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("worker %d", rank), err)
		}
	}
	return reports[collcomm.Coordinator], nil
}
