package analysis

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// blobs returns n points per centre, jittered by a seeded generator.
func blobs(centres [][]float64, n int, spread float64, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed))
	d := len(centres[0])
	out := mat.NewDense(len(centres)*n, d, nil)
	for c, centre := range centres {
		for i := 0; i < n; i++ {
			for j := 0; j < d; j++ {
				out.Set(c*n+i, j, centre[j]+spread*rng.NormFloat64())
			}
		}
	}
	return out
}

func indicatorMatrix() *mat.Dense {
	return mat.NewDense(8, 4, []float64{
		4.4, 99.6, 75.8, 61.0,
		10.1, 90.2, 61.3, 47.5,
		8.3, 94.7, 63.5, 45.1,
		11.2, 96.1, 52.0, 38.9,
		65.6, 30.1, 8.2, 9.5,
		65.4, 22.6, 5.9, 8.8,
		59.2, 35.0, 10.4, 11.3,
		51.4, 48.3, 18.7, 15.0,
	})
}

func TestStandardize(t *testing.T) {
	x := indicatorMatrix()

	s, err := Standardize(x, nil)
	require.NoError(t, err)

	_, c := s.Data.Dims()
	for j := 0; j < c; j++ {
		mean, std := stat.PopMeanStdDev(mat.Col(nil, j, s.Data), nil)
		assert.InDelta(t, 0, mean, 1e-12, "column %d mean", j)
		assert.InDelta(t, 1, std, 1e-12, "column %d std", j)
	}

	again := s.Transform(x)
	assert.True(t, mat.EqualApprox(s.Data, again, 1e-12))
}

func TestStandardize_ZeroVariance(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		1, 0.1,
		2, 0.1,
		3, 0.1,
	})

	_, err := Standardize(x, []string{"ipm", "constante"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrZeroVariance)
	assert.Contains(t, err.Error(), "constante")
}

func TestFitPCA_CumulativeRatio(t *testing.T) {
	s, err := Standardize(indicatorMatrix(), nil)
	require.NoError(t, err)

	p, err := FitPCA(s.Data)
	require.NoError(t, err)

	require.Equal(t, 4, p.Components())
	sum := 0.0
	for i, r := range p.Ratio {
		assert.GreaterOrEqual(t, r, -1e-12)
		sum += r
		if i > 0 {
			assert.GreaterOrEqual(t, p.Cumulative[i], p.Cumulative[i-1])
			assert.GreaterOrEqual(t, p.Variance[i-1], p.Variance[i]-1e-12)
		}
	}
	assert.InDelta(t, 1, sum, 1e-9)
	assert.InDelta(t, 1, p.Cumulative[len(p.Cumulative)-1], 1e-12)

	// Loadings are orthonormal.
	var gram mat.Dense
	gram.Mul(p.Loadings.T(), p.Loadings)
	assert.True(t, mat.EqualApprox(&gram, eye(4), 1e-9))
}

func TestFitPCA_FullProjectionPreservesVariance(t *testing.T) {
	s, err := Standardize(indicatorMatrix(), nil)
	require.NoError(t, err)

	p, err := FitPCA(s.Data)
	require.NoError(t, err)
	scores := p.Transform(s.Data)

	_, c := scores.Dims()
	for j := 0; j < c; j++ {
		v := stat.Variance(mat.Col(nil, j, scores), nil)
		assert.InDelta(t, p.Variance[j], v, 1e-9)
	}

	// Scores are uncorrelated.
	for a := 0; a < c; a++ {
		for b := a + 1; b < c; b++ {
			cov := stat.Covariance(mat.Col(nil, a, scores), mat.Col(nil, b, scores), nil)
			assert.InDelta(t, 0, cov, 1e-9)
		}
	}
}

func TestFitTransformPCA(t *testing.T) {
	s, err := Standardize(indicatorMatrix(), nil)
	require.NoError(t, err)

	model, scores, err := FitTransformPCA(s.Data, 2)
	require.NoError(t, err)
	r, c := scores.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, model.Components())

	_, _, err = FitTransformPCA(s.Data, 9)
	assert.Error(t, err)
}

func TestFitPCA_DeterministicOrientation(t *testing.T) {
	s, err := Standardize(indicatorMatrix(), nil)
	require.NoError(t, err)

	a, err := FitPCA(s.Data)
	require.NoError(t, err)
	b, err := FitPCA(s.Data)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.Loadings, b.Loadings))
}

func TestSelectComponents(t *testing.T) {
	cum := []float64{0.62, 0.80, 0.88, 0.92, 0.938, 0.951, 0.97, 1}

	assert.Equal(t, 6, SelectComponents(cum, 0.94))
	assert.Equal(t, 1, SelectComponents(cum, 0.5))
	assert.Equal(t, 2, SelectComponents(cum, 0.80))
	assert.Equal(t, 8, SelectComponents(cum, 1))
}

func TestFitKMeans_SeparatedBlobs(t *testing.T) {
	x := blobs([][]float64{{0, 0}, {10, 10}, {-10, 10}}, 10, 0.5, 1)

	for _, init := range []string{InitRandom, InitPlusPlus} {
		t.Run(init, func(t *testing.T) {
			m, err := FitKMeans(x, KMeansOptions{K: 3, NInit: 20, Init: init, Seed: 7, Tol: 1e-4})
			require.NoError(t, err)

			assert.Equal(t, []int{10, 10, 10}, m.Sizes())
			for c := 0; c < 3; c++ {
				label := m.Labels[c*10]
				for i := 0; i < 10; i++ {
					assert.Equal(t, label, m.Labels[c*10+i])
				}
			}
			assert.Equal(t, 0, m.Labels[0])
			assert.Equal(t, m.Labels, m.Predict(x))
		})
	}
}

func TestFitKMeans_SameSeedSameLabels(t *testing.T) {
	x := blobs([][]float64{{0, 0}, {4, 0}, {2, 3}, {6, 5}}, 8, 1.2, 3)
	opts := KMeansOptions{K: 4, NInit: 3, Init: InitRandom, Seed: 2024}

	a, err := FitKMeans(x, opts)
	require.NoError(t, err)
	b, err := FitKMeans(x, opts)
	require.NoError(t, err)

	assert.Equal(t, a.Labels, b.Labels)
	assert.Equal(t, a.Inertia, b.Inertia)
	assert.True(t, mat.Equal(a.Centroids, b.Centroids))
}

func TestFitKMeans_InertiaMatchesLabels(t *testing.T) {
	x := blobs([][]float64{{0, 0, 0}, {5, 5, 5}}, 6, 1, 9)

	m, err := FitKMeans(x, KMeansOptions{K: 2, NInit: 5, Seed: 1})
	require.NoError(t, err)

	want := 0.0
	for i, l := range m.Labels {
		want += sqDist(mat.Row(nil, i, x), mat.Row(nil, l, m.Centroids))
	}
	assert.InDelta(t, want, m.Inertia, 1e-9)
}

func TestFitKMeans_Errors(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 2, 3})

	_, err := FitKMeans(x, KMeansOptions{K: 0})
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = FitKMeans(x, KMeansOptions{K: 4})
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = FitKMeans(x, KMeansOptions{K: 2, Init: "forgy"})
	assert.ErrorIs(t, err, ErrUnknownInit)
}

func TestFitKMeans_DuplicateRows(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 1,
		1, 1,
		1, 1,
		5, 5,
	})

	m, err := FitKMeans(x, KMeansOptions{K: 3, NInit: 2, Seed: 4})
	require.NoError(t, err)
	assert.Len(t, m.Labels, 4)
	assert.InDelta(t, 0, m.Inertia, 1e-12)
}

func TestElbow_InertiaNonIncreasing(t *testing.T) {
	x := blobs([][]float64{{0, 0}, {6, 0}, {0, 6}, {6, 6}, {3, 3}}, 7, 1.5, 11)

	points, err := Elbow(x, 2, 9, KMeansOptions{NInit: 4, Seed: 42, Tol: 1e-4})
	require.NoError(t, err)
	require.Len(t, points, 8)

	for i, p := range points {
		assert.Equal(t, i+2, p.K)
		assert.False(t, math.IsNaN(p.Silhouette))
		assert.LessOrEqual(t, p.Silhouette, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, p.Inertia, points[i-1].Inertia*(1+1e-9), "k=%d", p.K)
		}
		require.NotNil(t, p.Model)
		assert.Equal(t, p.K, p.Model.K())
		assert.Equal(t, p.Inertia, p.Model.Inertia)
	}

	assert.Same(t, points[2].Model, ElbowFit(points, 4))
	assert.Nil(t, ElbowFit(points, 12))
}

func TestElbow_CapsAtRowCount(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 10, 11})

	points, err := Elbow(x, 1, 9, KMeansOptions{NInit: 2, Seed: 1})
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.True(t, math.IsNaN(points[0].Silhouette))
	assert.True(t, math.IsNaN(points[3].Silhouette))
	assert.InDelta(t, 0, points[3].Inertia, 1e-12)

	_, err = Elbow(x, 5, 9, KMeansOptions{})
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestSilhouette(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 10, 11})

	s, err := Silhouette(x, []int{0, 0, 1, 1})
	require.NoError(t, err)
	// a is 1 everywhere; b is 10.5 for the outer points and 9.5 for the
	// inner ones.
	want := (9.5/10.5 + 8.5/9.5 + 8.5/9.5 + 9.5/10.5) / 4
	assert.InDelta(t, want, s, 1e-12)

	_, err = Silhouette(x, []int{0, 0, 0, 0})
	assert.Error(t, err)
}

func TestCorrelation(t *testing.T) {
	x := mat.NewDense(4, 3, []float64{
		1, 2, 4,
		2, 4, 3,
		3, 6, 2,
		4, 8, 1,
	})

	corr := Correlation(x)
	assert.InDelta(t, 1, corr.At(0, 0), 1e-12)
	assert.InDelta(t, 1, corr.At(0, 1), 1e-12)
	assert.InDelta(t, -1, corr.At(0, 2), 1e-12)
}

func TestProfiles(t *testing.T) {
	keys := []string{"Amazonas", "Boyacá", "Caldas", "Cauca"}
	values := mat.NewDense(4, 2, []float64{
		10, 100,
		20, 200,
		30, 300,
		40, 400,
	})

	profiles := Profiles(keys, values, []int{0, 1, 0, 1}, 3)
	require.Len(t, profiles, 3)

	assert.Equal(t, []string{"Amazonas", "Caldas"}, profiles[0].Members)
	assert.Equal(t, []float64{20, 200}, profiles[0].Means)
	assert.Equal(t, 2, profiles[1].Size())
	assert.Equal(t, []float64{30, 300}, profiles[1].Means)
	assert.Equal(t, 0, profiles[2].Size())
	assert.True(t, math.IsNaN(profiles[2].Means[0]))
}

// End to end on a toy table: two well separated pairs must land in
// different clusters after standardization and PCA.
func TestToyPipeline_SeparatedPairs(t *testing.T) {
	x := mat.NewDense(4, 3, []float64{
		1.0, 2.0, 3.0,
		1.1, 2.1, 2.9,
		9.0, 8.0, 7.0,
		9.2, 7.9, 7.1,
	})

	s, err := Standardize(x, nil)
	require.NoError(t, err)
	_, scores, err := FitTransformPCA(s.Data, 2)
	require.NoError(t, err)

	m, err := FitKMeans(scores, KMeansOptions{K: 2, NInit: 10, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, m.Labels[0], m.Labels[1])
	assert.Equal(t, m.Labels[2], m.Labels[3])
	assert.NotEqual(t, m.Labels[0], m.Labels[2])
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
