package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ElbowPoint is one entry of the inertia-vs-k curve.
type ElbowPoint struct {
	K       int
	Inertia float64
	// Silhouette is NaN where it is undefined (k < 2 or k >= rows).
	Silhouette float64
	// Model is the fit the inertia and silhouette were taken from.
	Model *KMeans
}

// ElbowFit returns the fit kept for k, or nil when k is not on the curve.
func ElbowFit(points []ElbowPoint, k int) *KMeans {
	for _, pt := range points {
		if pt.K == k {
			return pt.Model
		}
	}
	return nil
}

// Elbow fits k-means for every k in kMin..kMax (capped at the row count) and
// records inertia and silhouette. Besides the seeded restarts, each k is also
// fitted from the k-1 centroids plus the row farthest from its centroid, and
// the better fit is kept, so inertia does not increase along the curve.
func Elbow(x mat.Matrix, kMin, kMax int, opts KMeansOptions) ([]ElbowPoint, error) {
	n, _ := x.Dims()
	if kMin < 1 || kMax < kMin {
		return nil, fmt.Errorf("%w: range %d..%d", ErrInvalidK, kMin, kMax)
	}
	if kMin > n {
		return nil, fmt.Errorf("%w: k=%d with %d rows", ErrInvalidK, kMin, n)
	}
	if kMax > n {
		kMax = n
	}
	opts = opts.withDefaults()

	points := make([]ElbowPoint, 0, kMax-kMin+1)
	var prev *KMeans
	for k := kMin; k <= kMax; k++ {
		o := opts
		o.K = k
		fit, err := FitKMeans(x, o)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			warm, err := FitKMeansFrom(x, grow(x, prev), opts.MaxIter, opts.Tol)
			if err != nil {
				return nil, err
			}
			if warm.Inertia < fit.Inertia {
				fit = warm
			}
		}

		sil := math.NaN()
		if k >= 2 && k < n {
			if s, err := Silhouette(x, fit.Labels); err == nil {
				sil = s
			}
		}
		points = append(points, ElbowPoint{K: k, Inertia: fit.Inertia, Silhouette: sil, Model: fit})
		prev = fit
	}
	return points, nil
}

// grow returns the centroids of m plus the row of x farthest from its
// assigned centroid.
func grow(x mat.Matrix, m *KMeans) *mat.Dense {
	rows := rowsOf(x)
	cents := rowsOf(m.Centroids)

	far, farDist := 0, -1.0
	for i, r := range rows {
		if d := sqDist(r, cents[m.Labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return denseOf(append(cents, rows[far]))
}
