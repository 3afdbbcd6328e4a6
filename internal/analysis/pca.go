package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrPCAFailed is returned when the singular value decomposition fails or the
// input carries no variance.
var ErrPCAFailed = errors.New("principal component analysis failed")

// PCA is a fitted principal component model. Components are ordered by
// descending explained variance.
type PCA struct {
	// Loadings is d x m, one column per component.
	Loadings *mat.Dense
	// Mean is the column mean of the fitted data.
	Mean []float64
	// Variance is the variance of the scores of each component.
	Variance []float64
	// Ratio is Variance normalised to sum to 1.
	Ratio []float64
	// Cumulative is the running sum of Ratio.
	Cumulative []float64
}

// FitPCA fits every available component, min(rows, cols) of them.
func FitPCA(x mat.Matrix) (*PCA, error) {
	r, c := x.Dims()
	if r < 2 || c == 0 {
		return nil, fmt.Errorf("%w: need at least 2 rows, got %dx%d", ErrPCAFailed, r, c)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, ErrPCAFailed
	}

	vars := pc.VarsTo(nil)
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	total := floats.Sum(vars)
	if total <= 0 {
		return nil, fmt.Errorf("%w: zero total variance", ErrPCAFailed)
	}

	ratio := make([]float64, len(vars))
	floats.ScaleTo(ratio, 1/total, vars)
	cum := make([]float64, len(ratio))
	floats.CumSum(cum, ratio)
	// Rounding can leave the last entry a hair off 1.
	cum[len(cum)-1] = 1

	mean := make([]float64, c)
	for j := range mean {
		mean[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}

	flipSigns(&vecs)

	return &PCA{
		Loadings:   &vecs,
		Mean:       mean,
		Variance:   vars,
		Ratio:      ratio,
		Cumulative: cum,
	}, nil
}

// flipSigns makes the largest-magnitude loading of every component positive
// so repeated fits give the same orientation.
func flipSigns(vecs *mat.Dense) {
	_, m := vecs.Dims()
	for j := 0; j < m; j++ {
		col := mat.Col(nil, j, vecs)
		if col[floats.MaxIdx(absAll(col))] < 0 {
			floats.Scale(-1, col)
			vecs.SetCol(j, col)
		}
	}
}

func absAll(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = math.Abs(v)
	}
	return out
}

// Components returns the number of fitted components.
func (p *PCA) Components() int { return len(p.Variance) }

// Truncate returns a model restricted to the first k components.
func (p *PCA) Truncate(k int) (*PCA, error) {
	if k < 1 || k > p.Components() {
		return nil, fmt.Errorf("component count %d out of range 1..%d", k, p.Components())
	}
	d, _ := p.Loadings.Dims()
	loadings := mat.DenseCopyOf(p.Loadings.Slice(0, d, 0, k))
	return &PCA{
		Loadings:   loadings,
		Mean:       append([]float64(nil), p.Mean...),
		Variance:   append([]float64(nil), p.Variance[:k]...),
		Ratio:      append([]float64(nil), p.Ratio[:k]...),
		Cumulative: append([]float64(nil), p.Cumulative[:k]...),
	}, nil
}

// Transform projects x onto the model's components, returning an
// n x Components() score matrix.
func (p *PCA) Transform(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	centered := mat.NewDense(r, c, nil)
	centered.Apply(func(_, j int, v float64) float64 {
		return v - p.Mean[j]
	}, x)

	var scores mat.Dense
	scores.Mul(centered, p.Loadings)
	return &scores
}

// FitTransformPCA fits k components on x and returns the model and the scores.
func FitTransformPCA(x mat.Matrix, k int) (*PCA, *mat.Dense, error) {
	full, err := FitPCA(x)
	if err != nil {
		return nil, nil, err
	}
	model, err := full.Truncate(k)
	if err != nil {
		return nil, nil, err
	}
	return model, model.Transform(x), nil
}

// SelectComponents returns the smallest component count whose cumulative
// explained-variance ratio reaches threshold.
func SelectComponents(cumulative []float64, threshold float64) int {
	for i, v := range cumulative {
		// Tolerate rounding right at the threshold.
		if v >= threshold-1e-12 {
			return i + 1
		}
	}
	return len(cumulative)
}
