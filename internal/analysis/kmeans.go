package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInvalidK is returned for a cluster count below 1 or above the row count.
	ErrInvalidK = errors.New("invalid cluster count")
	// ErrUnknownInit is returned for an unrecognised initialization method.
	ErrUnknownInit = errors.New("unknown initialization method")
)

// Initialization methods.
const (
	InitRandom   = "random"
	InitPlusPlus = "k-means++"
)

// KMeansOptions configure a k-means fit.
type KMeansOptions struct {
	K       int
	MaxIter int
	// NInit is the number of restarts; the lowest-inertia fit wins.
	NInit int
	// Tol is relative to the mean column variance of the data.
	Tol  float64
	Init string
	Seed uint64
}

func (o KMeansOptions) withDefaults() KMeansOptions {
	if o.MaxIter <= 0 {
		o.MaxIter = 300
	}
	if o.NInit <= 0 {
		o.NInit = 1
	}
	if o.Init == "" {
		o.Init = InitPlusPlus
	}
	return o
}

// KMeans is a fitted clustering. Labels are numbered in order of first
// appearance, so row 0 is always in cluster 0.
type KMeans struct {
	// Centroids is K x d.
	Centroids  *mat.Dense
	Labels     []int
	Inertia    float64
	Iterations int
}

// K returns the number of clusters.
func (m *KMeans) K() int {
	k, _ := m.Centroids.Dims()
	return k
}

// Sizes returns the number of rows assigned to each cluster.
func (m *KMeans) Sizes() []int {
	sizes := make([]int, m.K())
	for _, l := range m.Labels {
		sizes[l]++
	}
	return sizes
}

// Predict assigns each row of x to its nearest centroid.
func (m *KMeans) Predict(x mat.Matrix) []int {
	labels, _ := assign(rowsOf(x), rowsOf(m.Centroids))
	return labels
}

// FitKMeans runs Lloyd's algorithm NInit times from seeded initial centroids
// and keeps the fit with the lowest inertia. Identical input and options
// always give identical results.
func FitKMeans(x mat.Matrix, opts KMeansOptions) (*KMeans, error) {
	opts = opts.withDefaults()
	n, _ := x.Dims()
	if opts.K < 1 || opts.K > n {
		return nil, fmt.Errorf("%w: k=%d with %d rows", ErrInvalidK, opts.K, n)
	}
	if opts.Init != InitRandom && opts.Init != InitPlusPlus {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInit, opts.Init)
	}

	rows := rowsOf(x)
	tol := opts.Tol * meanVariance(x)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var best *KMeans
	for run := 0; run < opts.NInit; run++ {
		var init [][]float64
		if opts.Init == InitRandom {
			init = initRandom(rows, opts.K, rng)
		} else {
			init = initPlusPlus(rows, opts.K, rng)
		}
		fit := lloyd(rows, init, opts.MaxIter, tol)
		if best == nil || fit.Inertia < best.Inertia {
			best = fit
		}
	}
	return best, nil
}

// FitKMeansFrom runs Lloyd's algorithm from the given centroids.
func FitKMeansFrom(x mat.Matrix, centroids mat.Matrix, maxIter int, tol float64) (*KMeans, error) {
	n, d := x.Dims()
	k, cd := centroids.Dims()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d with %d rows", ErrInvalidK, k, n)
	}
	if cd != d {
		return nil, fmt.Errorf("centroid width %d does not match data width %d", cd, d)
	}
	if maxIter <= 0 {
		maxIter = 300
	}
	return lloyd(rowsOf(x), rowsOf(centroids), maxIter, tol*meanVariance(x)), nil
}

// lloyd alternates assignment and centroid update. A cluster that loses all
// its rows keeps its previous centroid. The reported inertia is that of the
// final assignment against the final centroids, so up to rounding it never
// exceeds the inertia of the initial centroids.
func lloyd(rows, centroids [][]float64, maxIter int, tol float64) *KMeans {
	k := len(centroids)
	d := len(rows[0])
	centroids = cloneRows(centroids)

	iters := 0
	for iters < maxIter {
		iters++
		labels, _ := assign(rows, centroids)

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, d)
		}
		for i, l := range labels {
			floats.Add(sums[l], rows[i])
			counts[l]++
		}

		shift := 0.0
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(centroids[c], sums[c])
			centroids[c] = sums[c]
		}
		if shift <= tol {
			break
		}
	}

	labels, inertia := assign(rows, centroids)
	labels, centroids = relabel(labels, centroids)
	return &KMeans{
		Centroids:  denseOf(centroids),
		Labels:     labels,
		Inertia:    inertia,
		Iterations: iters,
	}
}

// assign returns the nearest centroid of every row, ties going to the lower
// index, and the summed squared distance.
func assign(rows, centroids [][]float64) ([]int, float64) {
	labels := make([]int, len(rows))
	inertia := 0.0
	for i, r := range rows {
		best, bestDist := 0, math.Inf(1)
		for c, cen := range centroids {
			if dist := sqDist(r, cen); dist < bestDist {
				best, bestDist = c, dist
			}
		}
		labels[i] = best
		inertia += bestDist
	}
	return labels, inertia
}

// relabel renumbers clusters in order of first appearance. Clusters with no
// rows keep their relative order after the used ones.
func relabel(labels []int, centroids [][]float64) ([]int, [][]float64) {
	mapping := make([]int, len(centroids))
	for i := range mapping {
		mapping[i] = -1
	}
	next := 0
	for _, l := range labels {
		if mapping[l] < 0 {
			mapping[l] = next
			next++
		}
	}
	for c := range mapping {
		if mapping[c] < 0 {
			mapping[c] = next
			next++
		}
	}

	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = mapping[l]
	}
	reordered := make([][]float64, len(centroids))
	for c, cen := range centroids {
		reordered[mapping[c]] = cen
	}
	return out, reordered
}

func initRandom(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(rows))
	out := make([][]float64, k)
	for c := 0; c < k; c++ {
		out[c] = append([]float64(nil), rows[perm[c]]...)
	}
	return out
}

// initPlusPlus picks the first centroid uniformly and every following one
// with probability proportional to its squared distance from the nearest
// centroid chosen so far.
func initPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(rows)
	out := make([][]float64, 0, k)
	out = append(out, append([]float64(nil), rows[rng.IntN(n)]...))

	dist := make([]float64, n)
	for i, r := range rows {
		dist[i] = sqDist(r, out[0])
	}
	for len(out) < k {
		total := floats.Sum(dist)
		var idx int
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			idx = n - 1
			for i, v := range dist {
				acc += v
				if acc > target {
					idx = i
					break
				}
			}
		} else {
			// Fewer distinct rows than clusters.
			idx = rng.IntN(n)
		}
		cen := append([]float64(nil), rows[idx]...)
		out = append(out, cen)
		for i, r := range rows {
			if dd := sqDist(r, cen); dd < dist[i] {
				dist[i] = dd
			}
		}
	}
	return out
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i, v := range a {
		diff := v - b[i]
		sum += diff * diff
	}
	return sum
}

func meanVariance(x mat.Matrix) float64 {
	_, c := x.Dims()
	if c == 0 {
		return 0
	}
	sum := 0.0
	for j := 0; j < c; j++ {
		sum += stat.PopVariance(mat.Col(nil, j, x), nil)
	}
	return sum / float64(c)
}

func rowsOf(x mat.Matrix) [][]float64 {
	r, _ := x.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	return rows
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

func denseOf(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}
