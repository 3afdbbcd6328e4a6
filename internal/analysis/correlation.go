package analysis

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Correlation returns the Pearson correlation matrix of the columns of x.
func Correlation(x mat.Matrix) *mat.SymDense {
	_, c := x.Dims()
	corr := mat.NewSymDense(c, nil)
	stat.CorrelationMatrix(corr, x, nil)
	return corr
}
