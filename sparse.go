package sentiment

import (
	"math"
	"sort"
)

// A FeatureVector is a sparse TF-IDF vector over a fitted vocabulary.
// Indices are strictly increasing and every index is below Dim.
type FeatureVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// NNZ returns the number of stored (non-zero) entries.
func (v FeatureVector) NNZ() int {
	return len(v.Indices)
}

// At returns the value at dimension i.
func (v FeatureVector) At(i int) float64 {
	k := sort.SearchInts(v.Indices, i)
	if k < len(v.Indices) && v.Indices[k] == i {
		return v.Values[k]
	}
	return 0
}

// Dot returns the inner product of v with the dense vector w.
func (v FeatureVector) Dot(w []float64) float64 {
	var sum float64
	for k, i := range v.Indices {
		sum += v.Values[k] * w[i]
	}
	return sum
}

// Dense expands v into a slice of length Dim.
func (v FeatureVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, i := range v.Indices {
		out[i] = v.Values[k]
	}
	return out
}

// Norm returns the Euclidean norm of v.
func (v FeatureVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// newFeatureVector builds a vector from an index->value map.
func newFeatureVector(entries map[int]float64, dim int) FeatureVector {
	indices := make([]int, 0, len(entries))
	for i, x := range entries {
		if x != 0 {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for k, i := range indices {
		values[k] = entries[i]
	}
	return FeatureVector{Indices: indices, Values: values, Dim: dim}
}

// featureDim returns the common dimension of x, or -1 when the rows disagree.
func featureDim(x []FeatureVector) int {
	if len(x) == 0 {
		return 0
	}
	dim := x[0].Dim
	for _, row := range x[1:] {
		if row.Dim != dim {
			return -1
		}
	}
	return dim
}
