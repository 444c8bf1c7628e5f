package driver

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/unixpickle/dist-vec/partition"
	"github.com/unixpickle/dist-vec/vecops"
	"github.com/unixpickle/essentials"
)

// DefaultShow is the number of elements printed from each
// end of a vector by the sequential program.
const DefaultShow = 10

// SeqConfig configures the sequential program.
type SeqConfig struct {
	Order int
	Seed  int64

	// Show is the number of elements printed from each end
	// of every vector.
	// If it is 0, DefaultShow is used.
	// It may not be negative.
	Show int

	// Input, if non-nil, replaces the random vectors.
	Input *Input
}

// A SeqReport is the result of the sequential program.
type SeqReport struct {
	X []float64
	Y []float64
	Z []float64

	// Elapsed covers allocation, generation and addition,
	// but not printing.
	Elapsed time.Duration
}

// ElapsedMillis returns the elapsed time in milliseconds.
func (s *SeqReport) ElapsedMillis() float64 {
	return float64(s.Elapsed) / float64(time.Millisecond)
}

// RunSequential computes z = x + y on a single worker and
// prints the ends of every vector.
func RunSequential(cfg SeqConfig, out io.Writer) (*SeqReport, error) {
	if _, err := partition.New(cfg.Order, 1); err != nil {
		return nil, err
	}
	if cfg.Input != nil && (len(cfg.Input.X) != cfg.Order || len(cfg.Input.Y) != cfg.Order) {
		return nil, &partition.ConfigError{Order: cfg.Order, Workers: 1,
			Reason: "input vectors do not match the order"}
	}
	if cfg.Show < 0 {
		return nil, &partition.ConfigError{Order: cfg.Order, Workers: 1,
			Reason: fmt.Sprintf("cannot show %d elements", cfg.Show)}
	}
	show := cfg.Show
	if show == 0 {
		show = DefaultShow
	}

	start := time.Now()

	var x, y, z []float64
	var err error
	for _, vec := range []*[]float64{&x, &y, &z} {
		*vec, err = vecops.Alloc(cfg.Order)
		if err != nil {
			return nil, essentials.AddCtx("allocate vectors", err)
		}
	}
	if cfg.Input != nil {
		copy(x, cfg.Input.X)
		copy(y, cfg.Input.Y)
	} else {
		vecops.Generate(cfg.Seed, x, y)
	}
	vecops.Add(z, x, y)

	report := &SeqReport{X: x, Y: y, Z: z, Elapsed: time.Since(start)}

	for _, named := range []struct {
		name string
		vec  []float64
	}{{"x", x}, {"y", y}, {"z", z}} {
		head, tail := ends(named.vec, show)
		title := fmt.Sprintf("Vector %s (first %d)", named.name, len(head))
		if err := writeVector(out, title, head); err != nil {
			return nil, err
		}
		title = fmt.Sprintf("Vector %s (last %d)", named.name, len(tail))
		if err := writeVector(out, title, tail); err != nil {
			return nil, err
		}
	}
	if _, err := fmt.Fprintf(out, "Execution Time (ms): %f\n", report.ElapsedMillis()); err != nil {
		return nil, essentials.AddCtx("write output", err)
	}

	return report, nil
}

// ends returns up to n elements from each end of vec.
func ends(vec []float64, n int) (head, tail []float64) {
	if n > len(vec) {
		n = len(vec)
	}
	return vec[:n], vec[len(vec)-n:]
}

// ReadOrder reads a vector order from r.
//
// The order must be positive.
// If r is read again afterwards, it should implement
// io.RuneScanner (as *bufio.Reader does) so that no input
// is lost between calls.
func ReadOrder(r io.Reader) (int, error) {
	var n int
	if _, err := fmt.Fscan(r, &n); err != nil {
		return 0, essentials.AddCtx("read order", err)
	}
	if n <= 0 {
		return 0, &partition.ConfigError{Order: n, Workers: 1, Reason: "order should be positive"}
	}
	return n, nil
}

// ReadVector reads n whitespace-separated numbers from r.
func ReadVector(r io.Reader, n int) ([]float64, error) {
	vec, err := vecops.Alloc(n)
	if err != nil {
		return nil, essentials.AddCtx("allocate vector", err)
	}
	for i := range vec {
		if _, err := fmt.Fscan(r, &vec[i]); err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("read element %d", i), err)
		}
	}
	return vec, nil
}

// ReadInput reads an order followed by the vectors x and y
// from r, writing prompts to prompt.
func ReadInput(r io.Reader, prompt io.Writer) (*Input, error) {
	br := bufio.NewReader(r)
	fmt.Fprintln(prompt, "What's the order of the vectors?")
	n, err := ReadOrder(br)
	if err != nil {
		return nil, err
	}
	input := &Input{}
	fmt.Fprintln(prompt, "Enter the vector x")
	if input.X, err = ReadVector(br, n); err != nil {
		return nil, essentials.AddCtx("read x", err)
	}
	fmt.Fprintln(prompt, "Enter the vector y")
	if input.Y, err = ReadVector(br, n); err != nil {
		return nil, essentials.AddCtx("read y", err)
	}
	return input, nil
}
