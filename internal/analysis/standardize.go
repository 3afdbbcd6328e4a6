// Package analysis implements the numeric stages of the department analysis:
// standardization, principal component analysis, k-means clustering and the
// descriptive statistics reported alongside them.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroVariance is returned when a column cannot be standardized.
var ErrZeroVariance = errors.New("zero variance column")

// varianceEpsilon absorbs rounding in the mean of a constant column.
const varianceEpsilon = 1e-12

// Scaled is a standardized matrix together with the statistics used to
// produce it.
type Scaled struct {
	Data *mat.Dense
	Mean []float64
	Std  []float64
}

// Standardize rescales every column of x to zero mean and unit population
// variance. names labels columns in errors and may be nil.
func Standardize(x mat.Matrix, names []string) (*Scaled, error) {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("standardize: empty matrix")
	}

	out := mat.NewDense(r, c, nil)
	means := make([]float64, c)
	stds := make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		if math.IsNaN(std) || std <= varianceEpsilon*math.Max(1, math.Abs(mean)) {
			name := fmt.Sprintf("#%d", j)
			if j < len(names) {
				name = names[j]
			}
			return nil, fmt.Errorf("%w: %s", ErrZeroVariance, name)
		}
		for i := range col {
			col[i] = (col[i] - mean) / std
		}
		out.SetCol(j, col)
		means[j] = mean
		stds[j] = std
	}
	return &Scaled{Data: out, Mean: means, Std: stds}, nil
}

// Transform applies the stored statistics to new rows.
func (s *Scaled) Transform(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Std[j]
	}, x)
	return out
}
