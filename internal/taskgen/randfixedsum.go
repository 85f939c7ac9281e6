package taskgen

import (
	"fmt"
	"math"
	"math/rand"
)

// RandFixedSum draws n values in [0,1] that sum exactly to u, uniformly over
// the (n-1)-simplex slice where that sum is attainable. This is Roger
// Stafford's randfixedsum construction, the standard way to sample task
// utilizations without the bias of normalizing independent draws.
func RandFixedSum(n int, u float64, rng *rand.Rand) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least one value, got %d", n)
	}
	if u < 0 || u > float64(n) {
		return nil, fmt.Errorf("sum %v not reachable with %d values in [0,1]", u, n)
	}
	if n == 1 {
		return []float64{u}, nil
	}

	k := math.Floor(u)
	s := u

	s1 := make([]float64, n)
	s2 := make([]float64, n)
	for i := 0; i < n; i++ {
		s1[i] = s - k + float64(i)
		s2[i] = k + float64(n-i) - s
	}

	tiny := math.SmallestNonzeroFloat64
	huge := math.MaxFloat64

	// w[i][j] is the (scaled) probability mass of reaching column j after
	// i+1 dimensions; t holds the transition probabilities between columns.
	w := make([][]float64, n)
	for i := range w {
		w[i] = make([]float64, n+1)
	}
	w[0][1] = huge

	t := make([][]float64, n-1)
	for i := range t {
		t[i] = make([]float64, n)
	}

	for i := 2; i <= n; i++ {
		for j := 0; j < i; j++ {
			tmp1 := w[i-2][j+1] * s1[j] / float64(i)
			tmp2 := w[i-2][j] * s2[n-i+j] / float64(i)
			w[i-1][j+1] = tmp1 + tmp2
			tmp3 := w[i-1][j+1] + tiny
			if s2[n-i+j] > s1[j] {
				t[i-2][j] = tmp2 / tmp3
			} else {
				t[i-2][j] = 1 - tmp1/tmp3
			}
		}
	}

	x := make([]float64, n)
	sv := s
	j := int(k) + 1
	sm := 0.0
	pr := 1.0

	for i := n - 1; i > 0; i-- {
		e := 0.0
		if rng.Float64() <= t[i-1][j-1] {
			e = 1
		}
		sx := math.Pow(rng.Float64(), 1/float64(i))
		sm += (1 - sx) * pr * sv / float64(i+1)
		pr *= sx
		x[n-i-1] = sm + pr*e
		sv -= e
		j -= int(e)
	}
	x[n-1] = sm + pr*sv

	// The construction walks the dimensions in a fixed order; shuffle so the
	// marginals are exchangeable.
	rng.Shuffle(n, func(a, b int) {
		x[a], x[b] = x[b], x[a]
	})

	return x, nil
}
