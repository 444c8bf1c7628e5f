package vecops

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestGenerate(t *testing.T) {
	x, y := make([]float64, 1000), make([]float64, 1000)
	Generate(1337, x, y)
	for i := range x {
		for _, v := range []float64{x[i], y[i]} {
			if v < 0 || v >= ValueRange || v != math.Floor(v) {
				t.Fatalf("value %f at index %d is not an integer in range", v, i)
			}
		}
	}

	x1, y1 := make([]float64, 1000), make([]float64, 1000)
	Generate(1337, x1, y1)
	if !floats.Equal(x, x1) || !floats.Equal(y, y1) {
		t.Error("same seed produced different vectors")
	}

	x2, y2 := make([]float64, 1000), make([]float64, 1000)
	Generate(WorkerSeed(1337, 1), x2, y2)
	if floats.Equal(x, x2) && floats.Equal(y, y2) {
		t.Error("different workers produced identical vectors")
	}
}

func TestScale(t *testing.T) {
	original := []float64{1, -2, 3.5, 0, 1e10}
	block := append([]float64{}, original...)
	Scale(block, 2.5)
	for i, x := range block {
		if x != 2.5*original[i] {
			t.Errorf("element %d: expected %f but got %f", i, 2.5*original[i], x)
		}
	}
}

func TestDot(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{5, 6, 7, 8}
	if res := Dot(x, y); res != 70 {
		t.Errorf("expected 70 but got %f", res)
	}
	if res := Dot(nil, nil); res != 0 {
		t.Errorf("expected 0 but got %f", res)
	}
}

func TestAdd(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{10, 20, 30}
	z := make([]float64, 3)
	Add(z, x, y)
	if !floats.Equal(z, []float64{11, 22, 33}) {
		t.Errorf("unexpected sum: %v", z)
	}
}

// TestArithmeticDeterministic makes sure that repeated
// calls with identical inputs produce bit-identical
// results.
func TestArithmeticDeterministic(t *testing.T) {
	x, y := make([]float64, 257), make([]float64, 257)
	Generate(7, x, y)
	for i := range x {
		x[i] /= 7
		y[i] /= 3
	}
	dot := Dot(x, y)
	for i := 0; i < 10; i++ {
		if res := Dot(x, y); math.Float64bits(res) != math.Float64bits(dot) {
			t.Fatalf("dot product changed from %v to %v", dot, res)
		}
	}
	a := append([]float64{}, x...)
	b := append([]float64{}, x...)
	Scale(a, 1.1)
	Scale(b, 1.1)
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("scaling is not deterministic at index %d", i)
		}
	}
}

func TestAlloc(t *testing.T) {
	vec, err := Alloc(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 10 {
		t.Errorf("expected length 10 but got %d", len(vec))
	}
	for _, n := range []int{-1, MaxLen + 1} {
		if _, err := Alloc(n); err != ErrAllocation {
			t.Errorf("n=%d: expected ErrAllocation but got %v", n, err)
		}
	}
}
