package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Silhouette returns the mean silhouette coefficient of a labelling, using
// Euclidean distance. Rows alone in their cluster score 0. It needs between 2
// and rows-1 distinct labels.
func Silhouette(x mat.Matrix, labels []int) (float64, error) {
	rows := rowsOf(x)
	n := len(rows)
	if len(labels) != n {
		return 0, fmt.Errorf("silhouette: %d labels for %d rows", len(labels), n)
	}

	k := 0
	for _, l := range labels {
		if l+1 > k {
			k = l + 1
		}
	}
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	used := 0
	for _, s := range sizes {
		if s > 0 {
			used++
		}
	}
	if used < 2 || used > n-1 {
		return 0, fmt.Errorf("silhouette: %d clusters for %d rows", used, n)
	}

	total := 0.0
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if i != j {
				sums[labels[j]] += floats.Distance(rows[i], rows[j], 2)
			}
		}

		own := labels[i]
		if sizes[own] == 1 {
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c, s := range sums {
			if c != own && sizes[c] > 0 {
				b = math.Min(b, s/float64(sizes[c]))
			}
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n), nil
}
