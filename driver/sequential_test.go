package driver

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/unixpickle/dist-vec/partition"
	"github.com/unixpickle/dist-vec/vecops"
	"gonum.org/v1/gonum/floats"
)

func TestRunSequential(t *testing.T) {
	var out bytes.Buffer
	report, err := RunSequential(SeqConfig{Order: 1000, Seed: 3}, &out)
	if err != nil {
		t.Fatal(err)
	}
	x, y := make([]float64, 1000), make([]float64, 1000)
	vecops.Generate(3, x, y)
	if !floats.Equal(report.X, x) || !floats.Equal(report.Y, y) {
		t.Error("vectors do not match the seed")
	}
	for i := range x {
		if report.Z[i] != x[i]+y[i] {
			t.Fatalf("z[%d] should be %f but is %f", i, x[i]+y[i], report.Z[i])
		}
	}

	lines := strings.Split(out.String(), "\n")
	if len(lines) != 14 {
		t.Fatalf("expected 14 lines but got %d:\n%s", len(lines), out.String())
	}
	titles := []string{
		"Vector x (first 10):", "Vector x (last 10):",
		"Vector y (first 10):", "Vector y (last 10):",
		"Vector z (first 10):", "Vector z (last 10):",
	}
	for i, title := range titles {
		if lines[2*i] != title {
			t.Errorf("expected title %q but got %q", title, lines[2*i])
		}
		if n := len(strings.Fields(lines[2*i+1])); n != 10 {
			t.Errorf("%s has %d values", title, n)
		}
	}
	if !strings.HasPrefix(lines[12], "Execution Time (ms): ") {
		t.Errorf("unexpected timing line: %q", lines[12])
	}
}

func TestRunSequentialInput(t *testing.T) {
	var out bytes.Buffer
	input := &Input{X: []float64{1, 2, 3}, Y: []float64{0.5, 0.25, 0}}
	report, err := RunSequential(SeqConfig{Order: 3, Input: input}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(report.Z, []float64{1.5, 2.25, 3}) {
		t.Errorf("unexpected sum: %v", report.Z)
	}
	expectedStart := "Vector x (first 3):\n1.000000 2.000000 3.000000 \n"
	if !strings.HasPrefix(out.String(), expectedStart) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunSequentialErrors(t *testing.T) {
	for _, order := range []int{0, -1} {
		_, err := RunSequential(SeqConfig{Order: order}, &bytes.Buffer{})
		var configErr *partition.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("order %d: expected ConfigError but got %v", order, err)
		}
	}
	bad := []SeqConfig{
		{Order: 2, Input: &Input{X: []float64{1}}},
		{Order: 20, Show: -1},
	}
	for i, cfg := range bad {
		var out bytes.Buffer
		_, err := RunSequential(cfg, &out)
		var configErr *partition.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("config %d: expected ConfigError but got %v", i, err)
		}
		if out.Len() != 0 {
			t.Errorf("config %d: unexpected output %q", i, out.String())
		}
	}
}

func TestReadInput(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("3\n1 2 3\n4.5 5 -6\n"))
	n, err := ReadOrder(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected order 3 but got %d", n)
	}
	x, err := ReadVector(r, n)
	if err != nil {
		t.Fatal(err)
	}
	y, err := ReadVector(r, n)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(x, []float64{1, 2, 3}) || !floats.Equal(y, []float64{4.5, 5, -6}) {
		t.Errorf("unexpected vectors: %v %v", x, y)
	}

	if _, err := ReadVector(strings.NewReader("1 2"), 3); err == nil {
		t.Error("expected error for short input")
	}
}

func TestReadOrderErrors(t *testing.T) {
	for _, input := range []string{"0", "-5"} {
		_, err := ReadOrder(strings.NewReader(input))
		var configErr *partition.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("input %q: expected ConfigError but got %v", input, err)
		}
	}
	if _, err := ReadOrder(strings.NewReader("abc")); err == nil {
		t.Error("expected error for non-numeric input")
	}
}

func TestReadInputPrompts(t *testing.T) {
	var prompts bytes.Buffer
	input, err := ReadInput(strings.NewReader("2 1 2 3 4"), &prompts)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(input.X, []float64{1, 2}) || !floats.Equal(input.Y, []float64{3, 4}) {
		t.Errorf("unexpected input: %v %v", input.X, input.Y)
	}
	if strings.Count(prompts.String(), "\n") != 3 {
		t.Errorf("unexpected prompts: %q", prompts.String())
	}
}
