package taskgen

import (
	"math"
	"math/rand"
	"testing"
)

func TestRandFixedSumSumAndBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, tc := range []struct {
		n int
		u float64
	}{
		{2, 1.0},
		{8, 1.0},
		{8, 4.5},
		{16, 0.3},
		{24, 12.0},
	} {
		values, err := RandFixedSum(tc.n, tc.u, rng)
		if err != nil {
			t.Fatalf("RandFixedSum(%d, %v) failed: %v", tc.n, tc.u, err)
		}
		if len(values) != tc.n {
			t.Fatalf("RandFixedSum(%d, %v) returned %d values", tc.n, tc.u, len(values))
		}

		sum := 0.0
		for _, v := range values {
			if v < -1e-9 || v > 1+1e-9 {
				t.Errorf("RandFixedSum(%d, %v): value %v outside [0,1]", tc.n, tc.u, v)
			}
			sum += v
		}
		if math.Abs(sum-tc.u) > 1e-9 {
			t.Errorf("RandFixedSum(%d, %v): sum = %v", tc.n, tc.u, sum)
		}
	}
}

func TestRandFixedSumSingleValue(t *testing.T) {
	values, err := RandFixedSum(1, 0.7, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("RandFixedSum failed: %v", err)
	}
	if len(values) != 1 || values[0] != 0.7 {
		t.Errorf("RandFixedSum(1, 0.7) = %v, want [0.7]", values)
	}
}

func TestRandFixedSumRejectsUnreachableSums(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := RandFixedSum(0, 0, rng); err == nil {
		t.Errorf("expected error for zero values")
	}
	if _, err := RandFixedSum(4, -0.1, rng); err == nil {
		t.Errorf("expected error for negative sum")
	}
	if _, err := RandFixedSum(4, 4.1, rng); err == nil {
		t.Errorf("expected error for sum above n")
	}
}

func TestRandFixedSumDeterministic(t *testing.T) {
	a, err := RandFixedSum(8, 1.0, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("RandFixedSum failed: %v", err)
	}
	b, err := RandFixedSum(8, 1.0, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("RandFixedSum failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("value %d differs between seeded runs: %v vs %v", i, a[i], b[i])
		}
	}
}
