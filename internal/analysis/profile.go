package analysis

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ClusterProfile summarises one cluster in unscaled indicator units.
type ClusterProfile struct {
	Cluster int
	Members []string
	// Means holds the mean of every indicator over the members.
	Means []float64
}

// Size returns the number of members.
func (p ClusterProfile) Size() int { return len(p.Members) }

// Profiles groups keys by label and averages each column of values per
// cluster. Clusters without members get NaN means.
func Profiles(keys []string, values mat.Matrix, labels []int, k int) []ClusterProfile {
	_, c := values.Dims()
	out := make([]ClusterProfile, k)
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, values)
	}

	for cl := 0; cl < k; cl++ {
		out[cl].Cluster = cl
		weights := make([]float64, len(labels))
		for i, l := range labels {
			if l == cl {
				weights[i] = 1
				out[cl].Members = append(out[cl].Members, keys[i])
			}
		}
		out[cl].Means = make([]float64, c)
		for j := range cols {
			out[cl].Means[j] = stat.Mean(cols[j], weights)
		}
	}
	return out
}
